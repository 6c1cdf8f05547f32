package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed stopwords_en.yaml
var defaultStoplist []byte

// Stoplist represents the stopword list configuration
type Stoplist struct {
	Terms []string `yaml:"terms"`
}

// LoadStoplist loads stopwords from a YAML file
func LoadStoplist(path string) (*Stoplist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseStoplist(data)
}

// DefaultStoplist returns the built-in English stopwords.
func DefaultStoplist() *Stoplist {
	sl, err := parseStoplist(defaultStoplist)
	if err != nil {
		panic(fmt.Sprintf("embedded stoplist: %v", err))
	}
	return sl
}

func parseStoplist(data []byte) (*Stoplist, error) {
	var sl Stoplist
	if err := yaml.Unmarshal(data, &sl); err != nil {
		return nil, err
	}
	return &sl, nil
}
