package ingest

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/cognicore/textclass/internal/rfc822"
	"github.com/cognicore/textclass/pkg/textclass/corpus"
)

// DocumentParser extracts header metadata and plain body text from a raw
// document of the declared MIME type. Metadata keys that are not in the
// document must be absent from the map.
type DocumentParser interface {
	Parse(r io.Reader, mimeType string) (map[string]string, string, error)
}

// metadataKeys maps the metadata-backed fields to the parser keys they are
// read from. The content field comes from the body.
var metadataKeys = map[string]string{
	corpus.FieldSubject:  rfc822.KeySubject,
	corpus.FieldSummary:  rfc822.KeySummary,
	corpus.FieldKeywords: rfc822.KeyKeywords,
}

// FieldExtractionError reports a file whose document could not be built.
// Field is empty when the parser rejected the file as a whole.
type FieldExtractionError struct {
	Path  string
	Field string
	Err   error
}

func (e *FieldExtractionError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("extract %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("extract %s field %s: %v", e.Path, e.Field, e.Err)
}

func (e *FieldExtractionError) Unwrap() error {
	return e.Err
}

// BuildDocument parses one file and tokenizes its canonical fields.
// The file is closed before BuildDocument returns. Fields whose source text
// is missing are omitted; fields whose text yields no tokens are kept empty.
func (p *Pipeline) BuildDocument(ctx context.Context, path, label string) (corpus.Document, error) {
	if err := ctx.Err(); err != nil {
		return corpus.Document{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return corpus.Document{}, err
	}
	defer f.Close()

	meta, body, err := p.parser.Parse(f, p.mimeType)
	if err != nil {
		return corpus.Document{}, &FieldExtractionError{Path: path, Err: err}
	}

	doc := corpus.Document{
		Label:  label,
		Path:   path,
		Fields: make([]corpus.Field, 0, len(corpus.FieldNames)),
	}
	for _, name := range corpus.FieldNames {
		var text *string
		if name == corpus.FieldContent {
			text = &body
		} else if v, ok := meta[metadataKeys[name]]; ok {
			text = &v
		}

		tokens, ok, err := p.ExtractField(text)
		if err != nil {
			return corpus.Document{}, &FieldExtractionError{Path: path, Field: name, Err: err}
		}
		if ok {
			doc.Fields = append(doc.Fields, corpus.Field{Name: name, Tokens: tokens})
		}
	}

	return doc, nil
}

// ExtractField tokenizes text. A nil text is absent and yields ok=false;
// any other text yields ok=true and a non-nil, possibly empty, token slice.
func (p *Pipeline) ExtractField(text *string) ([]string, bool, error) {
	if text == nil {
		return nil, false, nil
	}
	tokens, err := p.tokenizer.Tokenize(*text)
	if err != nil {
		return nil, false, err
	}
	if tokens == nil {
		tokens = []string{}
	}
	return tokens, true, nil
}
