package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/textclass/pkg/textclass/internalerr"
	"github.com/cognicore/textclass/pkg/textclass/learner"
)

// Environment variables that override the logging section.
const (
	EnvLogLevel  = "TEXTCLASS_LOG_LEVEL"
	EnvLogFormat = "TEXTCLASS_LOG_FORMAT"
)

// Config is the run configuration of twenty-newsgroups.
type Config struct {
	Tokenizer TokenizerConfig `yaml:"tokenizer"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Learner   LearnerConfig   `yaml:"learner"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

type TokenizerConfig struct {
	// Stoplist is a YAML file with a terms list. Empty uses the built-in
	// English stopwords.
	Stoplist    string `yaml:"stoplist"`
	MinLength   int    `yaml:"min_length"`
	KeepNumbers bool   `yaml:"keep_numbers"`
}

type IngestConfig struct {
	LabelRootFiles bool `yaml:"label_root_files"`
}

type LearnerConfig struct {
	Method    string `yaml:"method"`
	Overwrite bool   `yaml:"overwrite"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type MetricsConfig struct {
	// Textfile is where run metrics are written. Empty means
	// <output-dir>/metrics.prom; "-" disables the file.
	Textfile string `yaml:"textfile"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Tokenizer: TokenizerConfig{MinLength: 2},
		Learner:   LearnerConfig{Method: learner.MethodTFIDF, Overwrite: true},
		Logging:   LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads a YAML config over the defaults, then applies environment
// overrides. An empty path yields the defaults plus overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := decode(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Logging.Format = v
	}
}

// Validate checks values the YAML decoder cannot.
func (c *Config) Validate() error {
	if c.Tokenizer.MinLength < 0 {
		return fmt.Errorf("tokenizer.min_length %d: %w", c.Tokenizer.MinLength, internalerr.ErrInvalidConfig)
	}
	method, err := learner.ParseMethod(c.Learner.Method)
	if err != nil {
		return err
	}
	c.Learner.Method = method

	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format %q: %w", c.Logging.Format, internalerr.ErrInvalidConfig)
	}
	return nil
}
