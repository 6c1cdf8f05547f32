// Package rfc822 extracts metadata and plain body text from Internet mail
// and Usenet messages.
package rfc822

import (
	"bufio"
	"fmt"
	"io"
	"mime"
	"net/mail"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/cognicore/textclass/pkg/textclass/internalerr"
)

// MIMEType is the only content type the parser accepts.
const MIMEType = "message/rfc822"

// Metadata keys. Every header is available under its lowercased name; these
// are the ones the ingestion pipeline reads.
const (
	KeySubject    = "subject"
	KeySummary    = "summary"
	KeyKeywords   = "keywords"
	KeyFrom       = "from"
	KeyNewsgroups = "newsgroups"
	KeyMessageID  = "message-id"
	KeyDate       = "date"
)

// maxDepth bounds nested multipart and message/rfc822 parts.
const maxDepth = 8

// Parser parses RFC 822 messages. The zero value is ready to use.
type Parser struct {
	decoder mime.WordDecoder
}

// New creates a parser that decodes RFC 2047 encoded words in any charset
// known to golang.org/x/net/html/charset.
func New() *Parser {
	return &Parser{
		decoder: mime.WordDecoder{CharsetReader: charset.NewReaderLabel},
	}
}

// Parse reads one message from r. mimeType must be message/rfc822.
//
// The metadata maps lowercased header names to their decoded values;
// repeated headers are joined with ", ". A header that is not in the
// message is absent from the map. The body is the text of all readable
// text parts and is always returned for a parsed message, possibly empty.
func (p *Parser) Parse(r io.Reader, mimeType string) (map[string]string, string, error) {
	mt, _, err := mime.ParseMediaType(mimeType)
	if err != nil || mt != MIMEType {
		return nil, "", fmt.Errorf("declared type %q: %w", mimeType, internalerr.ErrUnsupportedType)
	}

	msg, err := mail.ReadMessage(bufio.NewReader(r))
	if err != nil {
		return nil, "", fmt.Errorf("read message: %w: %w", internalerr.ErrMalformed, err)
	}
	if len(msg.Header) == 0 {
		return nil, "", fmt.Errorf("read message: no header fields: %w", internalerr.ErrMalformed)
	}

	meta := p.metadata(msg.Header)

	body, err := p.readPart(
		msg.Header.Get("Content-Type"),
		msg.Header.Get("Content-Transfer-Encoding"),
		msg.Body,
		0,
	)
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}

	return meta, body, nil
}

func (p *Parser) metadata(h mail.Header) map[string]string {
	meta := make(map[string]string, len(h))
	for key, values := range h {
		decoded := make([]string, 0, len(values))
		for _, v := range values {
			decoded = append(decoded, p.decodeHeader(v))
		}
		meta[strings.ToLower(key)] = strings.Join(decoded, ", ")
	}
	return meta
}

// decodeHeader decodes RFC 2047 encoded words, falling back to the raw
// value when the encoding is broken.
func (p *Parser) decodeHeader(v string) string {
	v = strings.TrimSpace(v)
	decoded, err := p.decoder.DecodeHeader(v)
	if err != nil {
		return v
	}
	return decoded
}
