package ingest

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/cognicore/textclass/internal/rfc822"
	"github.com/cognicore/textclass/pkg/textclass/corpus"
	"github.com/cognicore/textclass/pkg/textclass/internalerr"
)

// stubParser returns fixed metadata and body, or a fixed error.
type stubParser struct {
	meta     map[string]string
	body     string
	err      error
	mimeType string
}

func (p *stubParser) Parse(r io.Reader, mimeType string) (map[string]string, string, error) {
	p.mimeType = mimeType
	if _, err := io.ReadAll(r); err != nil {
		return nil, "", err
	}
	if p.err != nil {
		return nil, "", p.err
	}
	return p.meta, p.body, nil
}

func TestBuildDocumentAbsentVersusEmptyFields(t *testing.T) {
	parser := &stubParser{
		meta: map[string]string{
			rfc822.KeySubject:  "",
			rfc822.KeyKeywords: "the",
		},
		body: "orbital mechanics",
	}
	p := newTestPipeline(t, Options{Parser: parser, Tokenizer: NewTokenizer([]string{"the"})})
	path := writeFile(t, t.TempDir(), "sci.space/1", "ignored")

	doc, err := p.BuildDocument(context.Background(), path, "sci.space")
	if err != nil {
		t.Fatalf("BuildDocument: %v", err)
	}

	if _, ok := doc.Field(corpus.FieldSummary); ok {
		t.Error("summary has no source text and must be absent")
	}
	for _, name := range []string{corpus.FieldSubject, corpus.FieldKeywords} {
		f, ok := doc.Field(name)
		if !ok {
			t.Errorf("%s must be present", name)
			continue
		}
		if f.Tokens == nil || len(f.Tokens) != 0 {
			t.Errorf("%s tokens = %#v, want empty non-nil", name, f.Tokens)
		}
	}

	var names []string
	for _, f := range doc.Fields {
		names = append(names, f.Name)
	}
	want := []string{corpus.FieldSubject, corpus.FieldKeywords, corpus.FieldContent}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("field order = %v, want %v", names, want)
	}
	if parser.mimeType != rfc822.MIMEType {
		t.Errorf("declared type = %q, want %q", parser.mimeType, rfc822.MIMEType)
	}
}

func TestBuildDocumentParseError(t *testing.T) {
	p := newTestPipeline(t, Options{})
	path := writeFile(t, t.TempDir(), "readme.txt", "plain text, no headers\n")

	_, err := p.BuildDocument(context.Background(), path, "")
	var fe *FieldExtractionError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FieldExtractionError, got %v", err)
	}
	if fe.Field != "" || fe.Path != path {
		t.Errorf("unexpected error detail: %+v", fe)
	}
	if !errors.Is(err, internalerr.ErrMalformed) {
		t.Errorf("expected ErrMalformed cause, got %v", err)
	}
}

func TestBuildDocumentTokenizeError(t *testing.T) {
	tok := failingTokenizer{inner: NewTokenizer(nil), marker: "BOOM"}
	p := newTestPipeline(t, Options{Tokenizer: tok})
	path := writeFile(t, t.TempDir(), "a/1", email("BOOM", "fine body"))

	_, err := p.BuildDocument(context.Background(), path, "a")
	var fe *FieldExtractionError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FieldExtractionError, got %v", err)
	}
	if fe.Field != corpus.FieldSubject {
		t.Errorf("field = %q, want subject", fe.Field)
	}
}

func TestBuildDocumentMissingFile(t *testing.T) {
	p := newTestPipeline(t, Options{})

	_, err := p.BuildDocument(context.Background(), filepath.Join(t.TempDir(), "gone"), "x")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
	var fe *FieldExtractionError
	if errors.As(err, &fe) {
		t.Error("open failures are not extraction errors")
	}
}

func TestExtractField(t *testing.T) {
	p := newTestPipeline(t, Options{})

	tokens, ok, err := p.ExtractField(nil)
	if err != nil || ok || tokens != nil {
		t.Errorf("nil text: got %v %v %v", tokens, ok, err)
	}

	empty := ""
	tokens, ok, err = p.ExtractField(&empty)
	if err != nil || !ok || tokens == nil || len(tokens) != 0 {
		t.Errorf("empty text: got %#v %v %v", tokens, ok, err)
	}

	text := "Space Shuttle"
	tokens, ok, err = p.ExtractField(&text)
	if err != nil || !ok || !reflect.DeepEqual(tokens, []string{"space", "shuttle"}) {
		t.Errorf("text: got %v %v %v", tokens, ok, err)
	}
}
