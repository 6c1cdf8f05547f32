// Package metrics defines the Prometheus collectors for a corpus build and
// writes them to a node-exporter textfile when the run ends.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Failure stages.
const (
	StageRead     = "read"
	StageParse    = "parse"
	StageTokenize = "tokenize"
	StageAppend   = "append"
	StageList     = "list"
)

// Metrics holds the Prometheus collectors of one run. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	FilesTotal      prometheus.Counter
	DocumentsTotal  *prometheus.CounterVec
	FailuresTotal   *prometheus.CounterVec
	TokensTotal     *prometheus.CounterVec
	RunDuration     prometheus.Gauge
	LastRunComplete prometheus.Gauge
}

// New creates the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		FilesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "textclass_files_total",
				Help: "Total files visited during traversal.",
			},
		),
		DocumentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "textclass_documents_total",
				Help: "Total documents appended to the training corpus by label.",
			},
			[]string{"label"},
		),
		FailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "textclass_failures_total",
				Help: "Total files or directories skipped by failure stage (read, parse, tokenize, append, list).",
			},
			[]string{"stage"},
		),
		TokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "textclass_tokens_total",
				Help: "Total tokens emitted by field.",
			},
			[]string{"field"},
		),
		RunDuration: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "textclass_run_duration_seconds",
				Help: "Wall time of the last corpus build.",
			},
		),
		LastRunComplete: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "textclass_last_run_completion_timestamp_seconds",
				Help: "Unix time the last corpus build finished.",
			},
		),
	}

	m.Registry.MustRegister(
		m.FilesTotal,
		m.DocumentsTotal,
		m.FailuresTotal,
		m.TokensTotal,
		m.RunDuration,
		m.LastRunComplete,
	)

	return m
}

// FileVisited counts a traversed file.
func (m *Metrics) FileVisited() {
	if m == nil {
		return
	}
	m.FilesTotal.Inc()
}

// DocumentAdded counts an appended document and its tokens per field.
func (m *Metrics) DocumentAdded(label string, tokensPerField map[string]int) {
	if m == nil {
		return
	}
	m.DocumentsTotal.WithLabelValues(label).Inc()
	for field, n := range tokensPerField {
		m.TokensTotal.WithLabelValues(field).Add(float64(n))
	}
}

// Failure counts a skipped entry at the given stage.
func (m *Metrics) Failure(stage string) {
	if m == nil {
		return
	}
	m.FailuresTotal.WithLabelValues(stage).Inc()
}

// RunFinished records the duration of a completed run.
func (m *Metrics) RunFinished(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RunDuration.Set(elapsed.Seconds())
	m.LastRunComplete.SetToCurrentTime()
}

// WriteTextfile writes the current values in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}
