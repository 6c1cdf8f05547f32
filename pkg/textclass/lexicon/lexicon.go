package lexicon

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/textclass/pkg/textclass/corpus"
)

// Lexicon is the vocabulary accumulated from the documents of a training
// corpus:
//   - Terms: (field, token) pairs mapped to stable 1-based attribute ids,
//     with their document frequency
//   - Labels: class labels mapped to 0-based ids, with document counts
//
// Ids are assigned in first-seen order, so the same sequence of documents
// always yields the same lexicon.
type Lexicon struct {
	method    string
	docCount  int
	unlabeled int

	// field + "\x00" + token -> term
	terms     map[string]*Term
	termOrder []*Term

	labels     map[string]*Label
	labelOrder []*Label
}

// Term is one vocabulary entry.
type Term struct {
	ID    int    `yaml:"id"`
	Field string `yaml:"field"`
	Token string `yaml:"token"`
	DF    int    `yaml:"df"`
}

// Label is one class label entry.
type Label struct {
	ID    int    `yaml:"id"`
	Name  string `yaml:"name"`
	Count int    `yaml:"count"`
}

// New creates an empty lexicon. method names the weighting scheme the
// downstream trainer should apply; it is recorded, not applied.
func New(method string) *Lexicon {
	return &Lexicon{
		method: method,
		terms:  make(map[string]*Term),
		labels: make(map[string]*Label),
	}
}

func termKey(field, token string) string {
	return field + "\x00" + token
}

// Method returns the recorded weighting method.
func (l *Lexicon) Method() string {
	return l.method
}

// AddDocument registers the label and every token of the given fields.
// Document frequency counts a term once per document however often it
// occurs.
func (l *Lexicon) AddDocument(label string, fields []corpus.Field) {
	l.docCount++
	if label == "" {
		l.unlabeled++
	} else {
		l.addLabel(label)
	}

	seen := make(map[string]struct{})
	for _, f := range fields {
		for _, tok := range f.Tokens {
			key := termKey(f.Name, tok)
			term, ok := l.terms[key]
			if !ok {
				term = &Term{ID: len(l.termOrder) + 1, Field: f.Name, Token: tok}
				l.terms[key] = term
				l.termOrder = append(l.termOrder, term)
			}
			if _, dup := seen[key]; !dup {
				term.DF++
				seen[key] = struct{}{}
			}
		}
	}
}

func (l *Lexicon) addLabel(name string) *Label {
	lab, ok := l.labels[name]
	if !ok {
		lab = &Label{ID: len(l.labelOrder), Name: name}
		l.labels[name] = lab
		l.labelOrder = append(l.labelOrder, lab)
	}
	lab.Count++
	return lab
}

// TermID returns the attribute id of a token within a field.
func (l *Lexicon) TermID(field, token string) (int, bool) {
	if term, ok := l.terms[termKey(field, token)]; ok {
		return term.ID, true
	}
	return 0, false
}

// DF returns the number of documents in which the token appeared in field.
func (l *Lexicon) DF(field, token string) int {
	if term, ok := l.terms[termKey(field, token)]; ok {
		return term.DF
	}
	return 0
}

// LabelID returns the id of a class label.
func (l *Lexicon) LabelID(name string) (int, bool) {
	if lab, ok := l.labels[name]; ok {
		return lab.ID, true
	}
	return 0, false
}

// Labels returns the labels in id order.
func (l *Lexicon) Labels() []Label {
	out := make([]Label, len(l.labelOrder))
	for i, lab := range l.labelOrder {
		out[i] = *lab
	}
	return out
}

// Terms returns the vocabulary in id order.
func (l *Lexicon) Terms() []Term {
	out := make([]Term, len(l.termOrder))
	for i, term := range l.termOrder {
		out[i] = *term
	}
	return out
}

// Stats returns statistics about the lexicon contents.
func (l *Lexicon) Stats() Stats {
	perField := make(map[string]int)
	for _, term := range l.termOrder {
		perField[term.Field]++
	}
	return Stats{
		Documents: l.docCount,
		Unlabeled: l.unlabeled,
		Labels:    len(l.labelOrder),
		Terms:     len(l.termOrder),
		PerField:  perField,
	}
}

// Stats holds statistics about lexicon contents.
type Stats struct {
	Documents int            // Documents registered
	Unlabeled int            // Documents registered without a label
	Labels    int            // Distinct labels
	Terms     int            // Distinct (field, token) pairs
	PerField  map[string]int // Distinct tokens per field
}

// file is the on-disk YAML layout.
type file struct {
	Method    string  `yaml:"method"`
	Documents int     `yaml:"documents"`
	Unlabeled int     `yaml:"unlabeled"`
	Labels    []Label `yaml:"labels"`
	Terms     []Term  `yaml:"terms"`
}

// SaveYAML writes the lexicon to path.
//
// Format:
//
//	method: tfidf
//	documents: 2
//	unlabeled: 0
//	labels:
//	  - {id: 0, name: sci.space, count: 2}
//	terms:
//	  - {id: 1, field: subject, token: launch, df: 1}
func (l *Lexicon) SaveYAML(path string) error {
	out := file{
		Method:    l.method,
		Documents: l.docCount,
		Unlabeled: l.unlabeled,
		Labels:    l.Labels(),
		Terms:     l.Terms(),
	}
	buf, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("marshal lexicon: %w", err)
	}
	return os.WriteFile(path, buf, 0o644)
}

// LoadFromYAML reads a lexicon previously written by SaveYAML.
func LoadFromYAML(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var in file
	if err := yaml.Unmarshal(data, &in); err != nil {
		return nil, err
	}

	lex := New(strings.TrimSpace(in.Method))
	lex.docCount = in.Documents
	lex.unlabeled = in.Unlabeled

	sort.Slice(in.Labels, func(i, j int) bool { return in.Labels[i].ID < in.Labels[j].ID })
	for i, lab := range in.Labels {
		if lab.ID != i {
			return nil, fmt.Errorf("lexicon %s: label %q has id %d, want %d", path, lab.Name, lab.ID, i)
		}
		entry := lab
		lex.labels[lab.Name] = &entry
		lex.labelOrder = append(lex.labelOrder, &entry)
	}

	sort.Slice(in.Terms, func(i, j int) bool { return in.Terms[i].ID < in.Terms[j].ID })
	for i, term := range in.Terms {
		if term.ID != i+1 {
			return nil, fmt.Errorf("lexicon %s: term %q has id %d, want %d", path, term.Token, term.ID, i+1)
		}
		entry := term
		lex.terms[termKey(term.Field, term.Token)] = &entry
		lex.termOrder = append(lex.termOrder, &entry)
	}

	return lex, nil
}
