package rfc822

import (
	"bufio"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/cognicore/textclass/pkg/textclass/internalerr"
)

// partText is the text extracted from one MIME part.
type partText struct {
	mediaType string
	text      string
}

// readPart returns the readable text of one entity. Parts that are neither
// text nor containers contribute nothing.
func (p *Parser) readPart(contentType, transferEncoding string, r io.Reader, depth int) (string, error) {
	if depth > maxDepth {
		return "", fmt.Errorf("parts nested deeper than %d: %w", maxDepth, internalerr.ErrMalformed)
	}

	mediaType, params := parseContentType(contentType)
	r = decodeTransfer(transferEncoding, r)

	switch {
	case strings.HasPrefix(mediaType, "multipart/"):
		return p.readMultipart(mediaType, params["boundary"], r, depth)

	case mediaType == MIMEType:
		inner, err := mail.ReadMessage(bufio.NewReader(r))
		if err != nil {
			return "", fmt.Errorf("embedded message: %w: %w", internalerr.ErrMalformed, err)
		}
		return p.readPart(inner.Header.Get("Content-Type"), inner.Header.Get("Content-Transfer-Encoding"), inner.Body, depth+1)

	case mediaType == "text/html":
		return htmlText(decodeCharset(params["charset"], r))

	case strings.HasPrefix(mediaType, "text/"):
		data, err := io.ReadAll(decodeCharset(params["charset"], r))
		if err != nil {
			return "", err
		}
		return string(data), nil

	default:
		_, err := io.Copy(io.Discard, r)
		return "", err
	}
}

// readMultipart collects the text of each part. For multipart/alternative
// only the preferred rendition is kept: the first text/plain part, else the
// first part that produced text.
func (p *Parser) readMultipart(mediaType, boundary string, r io.Reader, depth int) (string, error) {
	if boundary == "" {
		return "", fmt.Errorf("%s without boundary: %w", mediaType, internalerr.ErrMalformed)
	}

	mr := multipart.NewReader(r, boundary)
	var parts []partText
	for {
		part, err := mr.NextRawPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%s: %w: %w", mediaType, internalerr.ErrMalformed, err)
		}

		ct := part.Header.Get("Content-Type")
		text, err := p.readPart(ct, part.Header.Get("Content-Transfer-Encoding"), part, depth+1)
		part.Close()
		if err != nil {
			return "", err
		}
		partType, _ := parseContentType(ct)
		parts = append(parts, partText{mediaType: partType, text: text})
	}

	if mediaType == "multipart/alternative" {
		for _, pt := range parts {
			if pt.mediaType == "text/plain" {
				return pt.text, nil
			}
		}
		for _, pt := range parts {
			if pt.text != "" {
				return pt.text, nil
			}
		}
		return "", nil
	}

	texts := make([]string, 0, len(parts))
	for _, pt := range parts {
		if pt.text != "" {
			texts = append(texts, pt.text)
		}
	}
	return strings.Join(texts, "\n"), nil
}

// parseContentType returns the lowercased media type, defaulting to
// text/plain when the header is missing or unparseable, as RFC 2045 asks.
func parseContentType(contentType string) (string, map[string]string) {
	if strings.TrimSpace(contentType) == "" {
		return "text/plain", map[string]string{}
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "text/plain", map[string]string{}
	}
	return mediaType, params
}

func decodeTransfer(encoding string, r io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, r)
	default:
		return r
	}
}

// decodeCharset converts r to UTF-8. Unknown charsets are passed through
// unchanged.
func decodeCharset(label string, r io.Reader) io.Reader {
	label = strings.ToLower(strings.TrimSpace(label))
	switch label {
	case "", "us-ascii", "utf-8", "utf8":
		return r
	}
	decoded, err := charset.NewReaderLabel(label, r)
	if err != nil {
		return r
	}
	return decoded
}
