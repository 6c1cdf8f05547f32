package memcorpus

import (
	"context"
	"sync"

	"github.com/cognicore/textclass/pkg/textclass/corpus"
	"github.com/cognicore/textclass/pkg/textclass/internalerr"
)

// Corpus is an in-memory corpus.Sink and corpus.LexiconSaver for tests.
type Corpus struct {
	mu         sync.RWMutex
	docs       []corpus.Document
	closes     int
	saves      int
	addErr     func(corpus.Document) error
	closeErr   error
	saveErr    error
	closedAddN int
}

// New creates an empty in-memory corpus.
func New() *Corpus {
	return &Corpus{}
}

// FailAdd makes AddDocument return the error produced by fn for matching
// documents. A nil result lets the document through.
func (c *Corpus) FailAdd(fn func(corpus.Document) error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.addErr = fn
}

// FailClose makes Close return err.
func (c *Corpus) FailClose(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeErr = err
}

// FailSave makes SaveLexicon return err.
func (c *Corpus) FailSave(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saveErr = err
}

// AddDocument implements corpus.Sink.
func (c *Corpus) AddDocument(ctx context.Context, doc corpus.Document) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closes > 0 {
		c.closedAddN++
		return internalerr.ErrClosed
	}
	if c.addErr != nil {
		if err := c.addErr(doc); err != nil {
			return err
		}
	}
	c.docs = append(c.docs, copyDoc(doc))
	return nil
}

// Close implements corpus.Sink.
func (c *Corpus) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closes++
	return c.closeErr
}

// SaveLexicon implements corpus.LexiconSaver.
func (c *Corpus) SaveLexicon(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saves++
	return c.saveErr
}

// Documents returns a copy of the appended documents in append order.
func (c *Corpus) Documents() []corpus.Document {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]corpus.Document, len(c.docs))
	for i, d := range c.docs {
		out[i] = copyDoc(d)
	}
	return out
}

// Closes returns how many times Close was called.
func (c *Corpus) Closes() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closes
}

// Saves returns how many times SaveLexicon was called.
func (c *Corpus) Saves() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.saves
}

// AddsAfterClose returns how many appends were rejected because the corpus
// was already closed.
func (c *Corpus) AddsAfterClose() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closedAddN
}

func copyDoc(d corpus.Document) corpus.Document {
	fields := make([]corpus.Field, len(d.Fields))
	for i, f := range d.Fields {
		tokens := make([]string, len(f.Tokens))
		copy(tokens, f.Tokens)
		fields[i] = corpus.Field{Name: f.Name, Tokens: tokens}
	}
	d.Fields = fields
	return d
}
