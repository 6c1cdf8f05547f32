// Command twenty-newsgroups builds a labeled training corpus from a
// directory of newsgroup postings. Every subdirectory name is the label of
// the messages it holds.
//
// Usage:
//
//	twenty-newsgroups [-config file] [-stoplist file] [-log-level level] <input-dir> <output-dir>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/cognicore/textclass/internal/rfc822"
	"github.com/cognicore/textclass/pkg/textclass/config"
	"github.com/cognicore/textclass/pkg/textclass/ingest"
	"github.com/cognicore/textclass/pkg/textclass/learner"
	"github.com/cognicore/textclass/pkg/textclass/logger"
	"github.com/cognicore/textclass/pkg/textclass/metrics"
)

const metricsFile = "metrics.prom"

// errUsage marks bad invocations; main exits 2 for them.
var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	switch {
	case err == nil:
	case errors.Is(err, errUsage):
		os.Exit(2)
	default:
		log.Fatalf("twenty-newsgroups: %v", err)
	}
}

// run executes one corpus build. Per-file failures do not make it fail;
// they are reported in the printed tally.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("twenty-newsgroups", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML configuration file")
	stoplistPath := fs.String("stoplist", "", "YAML stoplist (terms: [...]), overrides the config")
	logLevel := fs.String("log-level", "", "log level: debug, info, warn, error")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: twenty-newsgroups [flags] <input-dir> <output-dir>")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return fmt.Errorf("%w: expected 2 arguments, got %d", errUsage, fs.NArg())
	}
	inputDir, outputDir := fs.Arg(0), fs.Arg(1)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *stoplistPath != "" {
		cfg.Tokenizer.Stoplist = *stoplistPath
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	logger.SetupWriter(stderr, cfg.Logging.Level, cfg.Logging.Format)

	loader := cfg.Loader()
	comp, err := loader.Load()
	if err != nil {
		return err
	}

	m := metrics.New()
	pipeline, err := ingest.NewPipeline(ingest.Options{
		Parser:         rfc822.New(),
		Tokenizer:      comp.Tokenizer,
		LabelRootFiles: cfg.Ingest.LabelRootFiles,
		Logger:         logger.WithComponent("ingest"),
		Metrics:        m,
	})
	if err != nil {
		return err
	}

	// Check the input before the output directory is touched.
	if _, err := os.Stat(inputDir); err != nil {
		return fmt.Errorf("input: %w", err)
	}

	l, err := learner.Open(ctx, learner.Options{
		OutputDir: outputDir,
		Overwrite: cfg.Learner.Overwrite,
		Method:    cfg.Learner.Method,
	})
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}

	stats, err := pipeline.Run(ctx, inputDir, l, l)
	if err != nil {
		return err
	}

	if path := metricsPath(cfg.Metrics.Textfile, outputDir); path != "" {
		if err := m.WriteTextfile(path); err != nil {
			logger.WithComponent("metrics").Warn("cannot write metrics", "path", path, "error", err)
		}
	}

	printTally(stdout, stats, l)
	return nil
}

func metricsPath(configured, outputDir string) string {
	switch configured {
	case "-":
		return ""
	case "":
		return filepath.Join(outputDir, metricsFile)
	default:
		return configured
	}
}

func printTally(w io.Writer, stats ingest.Stats, l *learner.Learner) {
	fmt.Fprintf(w, "files: %d  documents: %d  failed: %d  unreadable dirs: %d  (%s)\n",
		stats.Files, stats.Documents, stats.Failed, stats.DirErrors, stats.Elapsed.Round(time.Millisecond))

	labels := make([]string, 0, len(stats.Labels))
	for label := range stats.Labels {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		name := label
		if name == "" {
			name = "(unlabeled)"
		}
		fmt.Fprintf(w, "  %-28s %d\n", name, stats.Labels[label])
	}

	lex := l.Lexicon().Stats()
	fmt.Fprintf(w, "lexicon: %d terms, %d labels -> %s\n", lex.Terms, lex.Labels, l.LexiconPath())
	fmt.Fprintf(w, "corpus: %s\n", l.CorpusPath())
}
