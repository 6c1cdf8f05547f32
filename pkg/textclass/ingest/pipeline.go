package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/cognicore/textclass/internal/rfc822"
	"github.com/cognicore/textclass/pkg/textclass/corpus"
	"github.com/cognicore/textclass/pkg/textclass/internalerr"
	"github.com/cognicore/textclass/pkg/textclass/logger"
	"github.com/cognicore/textclass/pkg/textclass/metrics"
)

// Options configures a Pipeline.
type Options struct {
	Parser    DocumentParser
	Tokenizer FieldTokenizer
	// MIMEType is declared to the parser for every file. Empty means
	// message/rfc822.
	MIMEType string
	// LabelRootFiles labels files sitting directly under the root with the
	// root directory's name instead of leaving them unlabeled.
	LabelRootFiles bool
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
}

// Pipeline walks a directory tree of raw documents, labels each file with
// the name of its parent directory and appends the tokenized documents to a
// training corpus:
// directory tree → (label, file) → parsed fields → tokens → corpus sink
type Pipeline struct {
	parser         DocumentParser
	tokenizer      FieldTokenizer
	mimeType       string
	labelRootFiles bool
	log            *slog.Logger
	metrics        *metrics.Metrics
}

// NewPipeline creates an ingestion pipeline. A missing parser or tokenizer
// is a setup error.
func NewPipeline(opts Options) (*Pipeline, error) {
	if opts.Parser == nil {
		return nil, fmt.Errorf("pipeline: nil parser: %w", internalerr.ErrInvalidConfig)
	}
	if opts.Tokenizer == nil {
		return nil, fmt.Errorf("pipeline: nil tokenizer: %w", internalerr.ErrInvalidConfig)
	}

	mimeType := opts.MIMEType
	if mimeType == "" {
		mimeType = rfc822.MIMEType
	}
	log := opts.Logger
	if log == nil {
		log = logger.WithComponent("ingest")
	}

	return &Pipeline{
		parser:         opts.Parser,
		tokenizer:      opts.Tokenizer,
		mimeType:       mimeType,
		labelRootFiles: opts.LabelRootFiles,
		log:            log,
		metrics:        opts.Metrics,
	}, nil
}

// Stats tallies one run.
type Stats struct {
	Files     int            // Files visited
	Documents int            // Documents appended to the sink
	Failed    int            // Files skipped because of an error
	DirErrors int            // Directories that could not be listed
	Labels    map[string]int // Appended documents per label ("" = unlabeled)
	Elapsed   time.Duration
}

// run carries the per-call state of a traversal.
type run struct {
	sink  corpus.Sink
	stats Stats
}

// Run ingests every file under root into sink, then closes sink and saves
// the lexicon, each exactly once, whatever happened during traversal.
//
// Traversal is depth-first in lexical order. Files take the name of their
// parent directory as label; files directly under root are unlabeled unless
// LabelRootFiles is set, and a root that is itself a file is unlabeled.
// A file that fails to open, parse, tokenize or append is logged, counted
// and skipped.
//
// The returned error covers setup problems (root missing, nil sink) and
// failures of the two finalize steps; per-file failures only show in Stats.
// If ctx is cancelled traversal stops early, finalization still runs and
// ctx.Err() is part of the returned error.
func (p *Pipeline) Run(ctx context.Context, root string, sink corpus.Sink, lex corpus.LexiconSaver) (Stats, error) {
	if sink == nil || lex == nil {
		return Stats{}, fmt.Errorf("run: nil corpus sink or lexicon: %w", internalerr.ErrInvalidConfig)
	}
	info, err := os.Stat(root)
	if err != nil {
		return Stats{}, fmt.Errorf("input root: %w", err)
	}

	start := time.Now()
	r := &run{
		sink:  sink,
		stats: Stats{Labels: make(map[string]int)},
	}

	p.log.Info("corpus build started", "root", root)
	if info.IsDir() {
		label := ""
		if p.labelRootFiles {
			label = filepath.Base(filepath.Clean(root))
		}
		p.walkDir(ctx, r, root, label, []os.FileInfo{info})
	} else {
		p.ingestFile(ctx, r, root, "")
	}
	traverseErr := ctx.Err()

	// Finalize even when the caller gave up on the traversal.
	finalCtx := context.WithoutCancel(ctx)
	var errs []error
	if traverseErr != nil {
		errs = append(errs, traverseErr)
	}
	if err := sink.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close corpus: %w", err))
	}
	if err := lex.SaveLexicon(finalCtx); err != nil {
		errs = append(errs, fmt.Errorf("save lexicon: %w", err))
	}

	r.stats.Elapsed = time.Since(start)
	p.metrics.RunFinished(r.stats.Elapsed)
	p.log.Info("corpus build complete",
		"files", r.stats.Files,
		"documents", r.stats.Documents,
		"failed", r.stats.Failed,
		"dir_errors", r.stats.DirErrors,
		"labels", len(r.stats.Labels),
		"elapsed", r.stats.Elapsed,
	)

	return r.stats, errors.Join(errs...)
}

// walkDir ingests the entries of dir. Files in dir get label; each
// subdirectory passes its own name down. ancestors holds the directories on
// the current path so symlink cycles are detected.
func (p *Pipeline) walkDir(ctx context.Context, r *run, dir, label string, ancestors []os.FileInfo) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		r.stats.DirErrors++
		p.metrics.Failure(metrics.StageList)
		p.log.Warn("cannot list directory", "path", dir, "error", err)
		// ReadDir returns the entries it read before failing
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return
		}
		path := filepath.Join(dir, entry.Name())

		isDir := entry.IsDir()
		var info os.FileInfo
		if isDir || entry.Type()&fs.ModeSymlink != 0 {
			info, err = os.Stat(path)
			if err == nil {
				isDir = info.IsDir()
			}
		}

		if !isDir {
			p.ingestFile(ctx, r, path, label)
			continue
		}

		if cyclic(info, ancestors) {
			r.stats.DirErrors++
			p.metrics.Failure(metrics.StageList)
			p.log.Warn("skipping directory cycle", "path", path)
			continue
		}
		p.walkDir(ctx, r, path, entry.Name(), append(ancestors, info))
	}
}

func cyclic(info os.FileInfo, ancestors []os.FileInfo) bool {
	if info == nil {
		return false
	}
	for _, a := range ancestors {
		if os.SameFile(info, a) {
			return true
		}
	}
	return false
}

// ingestFile builds and appends the document of one file.
func (p *Pipeline) ingestFile(ctx context.Context, r *run, path, label string) {
	r.stats.Files++
	p.metrics.FileVisited()

	doc, err := p.BuildDocument(ctx, path, label)
	if err != nil {
		p.skip(r, path, label, failureStage(err), err)
		return
	}

	if err := r.sink.AddDocument(ctx, doc); err != nil {
		p.skip(r, path, label, metrics.StageAppend, err)
		return
	}

	r.stats.Documents++
	r.stats.Labels[label]++

	tokens := make(map[string]int, len(doc.Fields))
	for _, f := range doc.Fields {
		tokens[f.Name] = len(f.Tokens)
	}
	p.metrics.DocumentAdded(label, tokens)
	p.log.Debug("document added", "path", path, "label", label, "fields", len(doc.Fields))
}

func (p *Pipeline) skip(r *run, path, label, stage string, err error) {
	r.stats.Failed++
	p.metrics.Failure(stage)
	p.log.Warn("skipping file", "path", path, "label", label, "stage", stage, "error", err)
}

// failureStage classifies a BuildDocument error.
func failureStage(err error) string {
	var fe *FieldExtractionError
	if errors.As(err, &fe) {
		if fe.Field != "" {
			return metrics.StageTokenize
		}
		return metrics.StageParse
	}
	return metrics.StageRead
}
