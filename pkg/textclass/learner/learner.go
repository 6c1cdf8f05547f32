// Package learner owns the output directory of a corpus build: the SQLite
// training corpus the ingestion pipeline appends to and the lexicon
// accumulated from it.
package learner

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/textclass/pkg/textclass/corpus"
	"github.com/cognicore/textclass/pkg/textclass/corpus/sqlite"
	"github.com/cognicore/textclass/pkg/textclass/internalerr"
	"github.com/cognicore/textclass/pkg/textclass/lexicon"
)

// Output file names inside the output directory.
const (
	CorpusFile  = "corpus.db"
	LexiconFile = "lexicon.yaml"
)

// Weighting methods recorded in the lexicon for the downstream trainer.
const (
	MethodTFIDF     = "tfidf"
	MethodFrequency = "frequency"
	MethodBoolean   = "boolean"
)

// ParseMethod validates a weighting method name. Empty means tfidf.
func ParseMethod(s string) (string, error) {
	switch m := strings.ToLower(strings.TrimSpace(s)); m {
	case "":
		return MethodTFIDF, nil
	case MethodTFIDF, MethodFrequency, MethodBoolean:
		return m, nil
	default:
		return "", fmt.Errorf("weighting method %q: %w", s, internalerr.ErrInvalidConfig)
	}
}

// Options configures a Learner.
type Options struct {
	OutputDir string
	// Overwrite removes a corpus left by a previous run. Without it an
	// existing corpus is an error.
	Overwrite bool
	Method    string
}

// Learner is the training corpus sink and lexicon persister of one run.
type Learner struct {
	dir     string
	store   *sqlite.Store
	lex     *lexicon.Lexicon
	entropy *ulid.MonotonicEntropy

	mu     sync.Mutex
	closed bool
}

var (
	_ corpus.Sink         = (*Learner)(nil)
	_ corpus.LexiconSaver = (*Learner)(nil)
)

// Open prepares the output directory and opens the training corpus.
func Open(ctx context.Context, opts Options) (*Learner, error) {
	if strings.TrimSpace(opts.OutputDir) == "" {
		return nil, fmt.Errorf("output directory: %w", internalerr.ErrInvalidInput)
	}
	method, err := ParseMethod(opts.Method)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	corpusPath := filepath.Join(opts.OutputDir, CorpusFile)
	if _, err := os.Stat(corpusPath); err == nil {
		if !opts.Overwrite {
			return nil, fmt.Errorf("%s already exists (enable overwrite to replace it): %w", corpusPath, internalerr.ErrInvalidConfig)
		}
		if err := removeOutputs(opts.OutputDir); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("stat %s: %w", corpusPath, err)
	}

	st, err := sqlite.Open(ctx, corpusPath)
	if err != nil {
		return nil, fmt.Errorf("open corpus %s: %w", corpusPath, err)
	}

	return &Learner{
		dir:     opts.OutputDir,
		store:   st,
		lex:     lexicon.New(method),
		entropy: ulid.Monotonic(rand.Reader, 0),
	}, nil
}

func removeOutputs(dir string) error {
	for _, name := range []string{CorpusFile, CorpusFile + "-wal", CorpusFile + "-shm", LexiconFile} {
		err := os.Remove(filepath.Join(dir, name))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove previous %s: %w", name, err)
		}
	}
	return nil
}

// AddDocument stamps the document with a ULID, appends it to the corpus and
// registers its tokens in the lexicon. The lexicon only sees documents the
// corpus accepted.
func (l *Learner) AddDocument(ctx context.Context, doc corpus.Document) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return fmt.Errorf("add document: %w", internalerr.ErrClosed)
	}

	id := ulid.MustNew(ulid.Now(), l.entropy).String()
	if err := l.store.Append(ctx, id, doc); err != nil {
		return fmt.Errorf("append %s: %w", doc.Path, err)
	}
	l.lex.AddDocument(doc.Label, doc.Fields)
	return nil
}

// Close closes the training corpus. It may only be called once.
func (l *Learner) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return fmt.Errorf("close corpus: %w", internalerr.ErrClosed)
	}
	l.closed = true
	return l.store.Close()
}

// SaveLexicon writes the accumulated lexicon to the output directory.
// It does not depend on the corpus being open.
func (l *Learner) SaveLexicon(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := l.lex.SaveYAML(l.LexiconPath()); err != nil {
		return fmt.Errorf("save lexicon: %w", err)
	}
	return nil
}

// Lexicon returns the lexicon accumulated so far.
func (l *Learner) Lexicon() *lexicon.Lexicon {
	return l.lex
}

// CorpusPath returns the path of the SQLite training corpus.
func (l *Learner) CorpusPath() string {
	return filepath.Join(l.dir, CorpusFile)
}

// LexiconPath returns the path the lexicon is saved to.
func (l *Learner) LexiconPath() string {
	return filepath.Join(l.dir, LexiconFile)
}
