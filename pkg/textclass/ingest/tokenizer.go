package ingest

import (
	"strings"
	"unicode"
)

// FieldTokenizer turns the raw text of one field into an ordered token
// sequence. Implementations must be deterministic and return a non-nil,
// possibly empty, slice on success.
type FieldTokenizer interface {
	Tokenize(text string) ([]string, error)
}

// TokenizerOptions configures the built-in Tokenizer.
type TokenizerOptions struct {
	Stopwords []string
	// MinLength drops tokens shorter than this many runes. Zero means 2.
	MinLength int
	// KeepNumbers keeps tokens made only of digits and hyphens.
	KeepNumbers bool
}

// Tokenizer handles text tokenization and normalization
type Tokenizer struct {
	stopwords   map[string]struct{}
	minLength   int
	keepNumbers bool
}

// NewTokenizer creates a new tokenizer with the given stopword list
func NewTokenizer(stopwords []string) *Tokenizer {
	return NewTokenizerWithOptions(TokenizerOptions{Stopwords: stopwords})
}

// NewTokenizerWithOptions creates a tokenizer from explicit options.
func NewTokenizerWithOptions(opts TokenizerOptions) *Tokenizer {
	stops := make(map[string]struct{}, len(opts.Stopwords))
	for _, w := range opts.Stopwords {
		stops[strings.ToLower(w)] = struct{}{}
	}
	minLength := opts.MinLength
	if minLength <= 0 {
		minLength = 2
	}
	return &Tokenizer{
		stopwords:   stops,
		minLength:   minLength,
		keepNumbers: opts.KeepNumbers,
	}
}

// Tokenize splits text into lowercased tokens on anything that is not a
// letter, digit or hyphen, then drops stopwords, short tokens and (unless
// configured otherwise) purely numeric tokens. It never fails.
func (t *Tokenizer) Tokenize(text string) ([]string, error) {
	tokens := make([]string, 0)
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			if word := t.processToken(current.String()); word != "" {
				tokens = append(tokens, word)
			}
			current.Reset()
		}
	}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '-' {
			current.WriteRune(unicode.ToLower(r))
		} else {
			flush()
		}
	}
	flush()

	return tokens, nil
}

// processToken applies cleaning, length, numeric and stopword filtering.
func (t *Tokenizer) processToken(token string) string {
	word := cleanToken(token)
	if word == "" || len([]rune(word)) < t.minLength {
		return ""
	}

	// Mixed tokens like "gpt-4", "utf-8", "486dx" are always kept.
	if !t.keepNumbers && isNumericOnly(word) {
		return ""
	}

	if t.isStopword(word) {
		return ""
	}

	return word
}

// cleanToken strips leading/trailing hyphens and normalizes consecutive hyphens
func cleanToken(token string) string {
	token = strings.Trim(token, "-")

	for strings.Contains(token, "--") {
		token = strings.ReplaceAll(token, "--", "-")
	}

	return token
}

// isNumericOnly returns true if the token contains only digits and hyphens.
func isNumericOnly(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '-' {
			return false
		}
	}
	return true
}

func (t *Tokenizer) isStopword(word string) bool {
	_, ok := t.stopwords[word]
	return ok
}

// AddStopword adds a word to the stopword list
func (t *Tokenizer) AddStopword(word string) {
	t.stopwords[strings.ToLower(word)] = struct{}{}
}

// RemoveStopword removes a word from the stopword list
func (t *Tokenizer) RemoveStopword(word string) {
	delete(t.stopwords, strings.ToLower(word))
}
