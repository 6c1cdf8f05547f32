package rfc822

import (
	"errors"
	"strings"
	"testing"

	"github.com/cognicore/textclass/pkg/textclass/internalerr"
)

func parse(t *testing.T, raw string) (map[string]string, string) {
	t.Helper()
	meta, body, err := New().Parse(strings.NewReader(raw), MIMEType)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return meta, body
}

func TestParseUsenetPost(t *testing.T) {
	raw := "From: jsmith@cs.cmu.edu (John Smith)\n" +
		"Newsgroups: sci.space\n" +
		"Subject: Launch\n" +
		"Summary: cheap orbit\n" +
		"Keywords: shuttle\n" +
		"Keywords: nasa\n" +
		"\n" +
		"rocket rocket fuel\n"

	meta, body := parse(t, raw)

	checks := map[string]string{
		KeySubject:    "Launch",
		KeySummary:    "cheap orbit",
		KeyKeywords:   "shuttle, nasa",
		KeyNewsgroups: "sci.space",
		KeyFrom:       "jsmith@cs.cmu.edu (John Smith)",
	}
	for key, want := range checks {
		if got, ok := meta[key]; !ok || got != want {
			t.Errorf("meta[%s] = %q, %v; want %q", key, got, ok, want)
		}
	}
	if body != "rocket rocket fuel\n" {
		t.Errorf("body = %q", body)
	}
}

func TestParseMissingHeadersAreAbsent(t *testing.T) {
	meta, _ := parse(t, "Subject: Launch\n\nbody\n")

	for _, key := range []string{KeySummary, KeyKeywords} {
		if v, ok := meta[key]; ok {
			t.Errorf("%s should be absent, got %q", key, v)
		}
	}
}

func TestParseEmptySubjectIsPresent(t *testing.T) {
	meta, _ := parse(t, "Subject:\nFrom: a@b.c\n\nbody\n")

	v, ok := meta[KeySubject]
	if !ok {
		t.Fatal("empty Subject header should still be present")
	}
	if v != "" {
		t.Errorf("subject = %q, want empty", v)
	}
}

func TestParseEmptyBody(t *testing.T) {
	_, body := parse(t, "Subject: nothing to see\n\n")
	if body != "" {
		t.Errorf("body = %q, want empty", body)
	}
}

func TestParseEncodedWordHeaders(t *testing.T) {
	raw := "Subject: =?ISO-8859-1?Q?Caf=E9?= talk\n" +
		"Summary: =?windows-1252?Q?price_=80100?=\n" +
		"\n" +
		"x\n"

	meta, _ := parse(t, raw)

	if got := meta[KeySubject]; got != "Café talk" {
		t.Errorf("subject = %q", got)
	}
	if got := meta[KeySummary]; got != "price €100" {
		t.Errorf("summary = %q", got)
	}
}

func TestParseQuotedPrintableBody(t *testing.T) {
	raw := "Subject: qp\n" +
		"Content-Transfer-Encoding: quoted-printable\n" +
		"\n" +
		"fuel=3Dgood=\n" +
		" line\n"

	_, body := parse(t, raw)
	if !strings.Contains(body, "fuel=good line") {
		t.Errorf("body = %q", body)
	}
}

func TestParseBase64Body(t *testing.T) {
	raw := "Subject: b64\n" +
		"Content-Transfer-Encoding: base64\n" +
		"\n" +
		"cm9ja2V0IGZ1ZWw=\n"

	_, body := parse(t, raw)
	if body != "rocket fuel" {
		t.Errorf("body = %q", body)
	}
}

func TestParseInvalidBase64Fails(t *testing.T) {
	raw := "Subject: b64\n" +
		"Content-Transfer-Encoding: base64\n" +
		"\n" +
		"!!!not base64!!!\n"

	if _, _, err := New().Parse(strings.NewReader(raw), MIMEType); err == nil {
		t.Error("expected error for corrupt base64 body")
	}
}

func TestParseLatin1Body(t *testing.T) {
	raw := "Subject: latin\n" +
		"Content-Type: text/plain; charset=iso-8859-1\n" +
		"\n" +
		"caf\xe9\n"

	_, body := parse(t, raw)
	if body != "café\n" {
		t.Errorf("body = %q", body)
	}
}

func TestParseUnknownCharsetPassesThrough(t *testing.T) {
	raw := "Subject: odd\n" +
		"Content-Type: text/plain; charset=x-made-up\n" +
		"\n" +
		"plain words\n"

	_, body := parse(t, raw)
	if body != "plain words\n" {
		t.Errorf("body = %q", body)
	}
}

func TestParseMultipartAlternativePrefersPlain(t *testing.T) {
	raw := "Subject: alt\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/alternative; boundary=\"XYZ\"\r\n" +
		"\r\n" +
		"--XYZ\r\n" +
		"Content-Type: text/html\r\n" +
		"\r\n" +
		"<p>html rocket</p>\r\n" +
		"--XYZ\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"plain rocket\r\n" +
		"--XYZ--\r\n"

	_, body := parse(t, raw)
	if body != "plain rocket" {
		t.Errorf("body = %q", body)
	}
}

func TestParseMultipartMixedSkipsAttachments(t *testing.T) {
	raw := "Subject: mixed\r\n" +
		"Content-Type: multipart/mixed; boundary=B\r\n" +
		"\r\n" +
		"--B\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"first part\r\n" +
		"--B\r\n" +
		"Content-Type: application/octet-stream\r\n" +
		"Content-Transfer-Encoding: base64\r\n" +
		"\r\n" +
		"AAECAw==\r\n" +
		"--B\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"Content-Transfer-Encoding: quoted-printable\r\n" +
		"\r\n" +
		"second =C3=A9part\r\n" +
		"--B--\r\n"

	_, body := parse(t, raw)
	if body != "first part\nsecond épart" {
		t.Errorf("body = %q", body)
	}
}

func TestParseHTMLOnlyBody(t *testing.T) {
	raw := "Subject: html\n" +
		"Content-Type: text/html; charset=utf-8\n" +
		"\n" +
		"<html><head><title>ignored</title><style>p{}</style></head>" +
		"<body><p>Rocket <b>fuel</b></p><script>var x;</script><div>orbit</div></body></html>\n"

	_, body := parse(t, raw)
	if body != "Rocket fuel\norbit" {
		t.Errorf("body = %q", body)
	}
}

func TestParseEmbeddedMessage(t *testing.T) {
	raw := "Subject: fwd\n" +
		"Content-Type: message/rfc822\n" +
		"\n" +
		"Subject: inner\n" +
		"\n" +
		"inner body\n"

	meta, body := parse(t, raw)
	if meta[KeySubject] != "fwd" {
		t.Errorf("outer subject = %q", meta[KeySubject])
	}
	if body != "inner body\n" {
		t.Errorf("body = %q", body)
	}
}

func TestParseMultipartWithoutBoundary(t *testing.T) {
	raw := "Subject: broken\n" +
		"Content-Type: multipart/mixed\n" +
		"\n" +
		"whatever\n"

	_, _, err := New().Parse(strings.NewReader(raw), MIMEType)
	if !errors.Is(err, internalerr.ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}
}

func TestParseRejectsNonMessage(t *testing.T) {
	cases := map[string]string{
		"readme":     "This is a readme file.\nNo headers here.\n",
		"blank-head": "\nbody without headers\n",
		"empty":      "",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := New().Parse(strings.NewReader(raw), MIMEType)
			if err == nil {
				t.Fatal("expected parse error")
			}
			if name != "empty" && !errors.Is(err, internalerr.ErrMalformed) {
				t.Errorf("expected ErrMalformed, got %v", err)
			}
		})
	}
}

func TestParseRejectsOtherDeclaredTypes(t *testing.T) {
	for _, mt := range []string{"text/plain", "application/pdf", "", "not a type"} {
		_, _, err := New().Parse(strings.NewReader("Subject: x\n\ny\n"), mt)
		if !errors.Is(err, internalerr.ErrUnsupportedType) {
			t.Errorf("Parse(%q): expected ErrUnsupportedType, got %v", mt, err)
		}
	}
}

func TestZeroParserDecodesUTF8Words(t *testing.T) {
	var p Parser
	meta, _, err := p.Parse(strings.NewReader("Subject: =?utf-8?q?na=C3=AFve?=\n\nx\n"), MIMEType)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if meta[KeySubject] != "naïve" {
		t.Errorf("subject = %q", meta[KeySubject])
	}
}
