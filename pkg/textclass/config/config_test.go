package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cognicore/textclass/pkg/textclass/internalerr"
	"github.com/cognicore/textclass/pkg/textclass/learner"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvLogFormat, "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Learner.Method != learner.MethodTFIDF || !cfg.Learner.Overwrite {
		t.Errorf("unexpected learner defaults: %+v", cfg.Learner)
	}
	if cfg.Ingest.LabelRootFiles {
		t.Error("root files should be unlabeled by default")
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvLogFormat, "")

	path := writeConfig(t, `tokenizer:
  min_length: 3
  keep_numbers: true
ingest:
  label_root_files: true
learner:
  method: boolean
metrics:
  textfile: /tmp/run.prom
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Tokenizer.MinLength != 3 || !cfg.Tokenizer.KeepNumbers {
		t.Errorf("tokenizer = %+v", cfg.Tokenizer)
	}
	if !cfg.Ingest.LabelRootFiles {
		t.Error("label_root_files not applied")
	}
	if cfg.Learner.Method != learner.MethodBoolean {
		t.Errorf("method = %q", cfg.Learner.Method)
	}
	// Unset keys keep their defaults
	if !cfg.Learner.Overwrite {
		t.Error("overwrite should stay true")
	}
	if cfg.Metrics.Textfile != "/tmp/run.prom" {
		t.Errorf("textfile = %q", cfg.Metrics.Textfile)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvLogFormat, "json")

	cfg, err := Load(writeConfig(t, "logging:\n  level: warn\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("env should win, got %+v", cfg.Logging)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvLogFormat, "")

	tests := []struct {
		name    string
		content string
	}{
		{"unknown method", "learner:\n  method: svm\n"},
		{"negative min length", "tokenizer:\n  min_length: -1\n"},
		{"bad log format", "logging:\n  format: xml\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if !errors.Is(err, internalerr.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	if _, err := Load(writeConfig(t, "tokenizer:\n  stemmer: porter\n")); err == nil {
		t.Error("unknown key should fail")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("missing config file should fail")
	}
}

func TestLoadEmptyFile(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvLogFormat, "")

	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("empty file should load defaults: %v", err)
	}
	if cfg.Learner.Method != learner.MethodTFIDF {
		t.Errorf("method = %q", cfg.Learner.Method)
	}
}
