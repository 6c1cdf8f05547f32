// Package corpus defines the labeled documents handed to a training corpus
// and the sinks that persist them.
package corpus

import "context"

// Canonical field names, in the order they are emitted.
const (
	FieldSubject  = "subject"
	FieldSummary  = "summary"
	FieldKeywords = "keywords"
	FieldContent  = "content"
)

// FieldNames lists the canonical fields in emission order.
var FieldNames = []string{FieldSubject, FieldSummary, FieldKeywords, FieldContent}

// Field is a named, tokenized text channel of a document.
// Tokens is never nil for a present field; it may be empty.
type Field struct {
	Name   string
	Tokens []string
}

// Document is a labeled set of fields. An empty Label means the document
// has no label (it sat directly under the traversal root).
type Document struct {
	Label  string
	Path   string
	Fields []Field
}

// Field returns the named field and whether it is present.
func (d Document) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Unlabeled reports whether the document carries no label.
func (d Document) Unlabeled() bool {
	return d.Label == ""
}

// Sink accepts labeled documents and persists them.
// Close flushes the underlying store and is called once per run.
type Sink interface {
	AddDocument(ctx context.Context, doc Document) error
	Close() error
}

// LexiconSaver persists the vocabulary accumulated from appended documents.
// It is called once after traversal, independently of Sink.Close.
type LexiconSaver interface {
	SaveLexicon(ctx context.Context) error
}
