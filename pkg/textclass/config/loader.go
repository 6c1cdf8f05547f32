package config

import (
	"fmt"

	"github.com/cognicore/textclass/pkg/textclass/ingest"
)

// Loader loads the configured files and constructs components
type Loader struct {
	StoplistPath string
	MinLength    int
	KeepNumbers  bool
}

// Components holds the loaded configuration components
type Components struct {
	Tokenizer *ingest.Tokenizer
	Stopwords []string
}

// Loader returns the component loader for this configuration.
func (c Config) Loader() Loader {
	return Loader{
		StoplistPath: c.Tokenizer.Stoplist,
		MinLength:    c.Tokenizer.MinLength,
		KeepNumbers:  c.Tokenizer.KeepNumbers,
	}
}

// Load reads the stoplist and returns initialized components
func (l *Loader) Load() (*Components, error) {
	stoplist := DefaultStoplist()
	if l.StoplistPath != "" {
		var err error
		stoplist, err = LoadStoplist(l.StoplistPath)
		if err != nil {
			return nil, fmt.Errorf("load stoplist: %w", err)
		}
	}

	return &Components{
		Tokenizer: ingest.NewTokenizerWithOptions(ingest.TokenizerOptions{
			Stopwords:   stoplist.Terms,
			MinLength:   l.MinLength,
			KeepNumbers: l.KeepNumbers,
		}),
		Stopwords: stoplist.Terms,
	}, nil
}
