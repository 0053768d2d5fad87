// Package ui provides terminal progress display for oale runs.
package ui

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
)

// Stage represents a run stage.
type Stage int

const (
	// StageScanning is the existing-store scan.
	StageScanning Stage = iota
	// StageDiffing is the corpus-vs-store comparison.
	StageDiffing
	// StagePruning is the removal of stale and corrupt records.
	StagePruning
	// StageEmbedding is the chunk-and-embed stage.
	StageEmbedding
	// StageComplete indicates the run is complete.
	StageComplete
)

// String returns the human-readable stage name.
func (s Stage) String() string {
	switch s {
	case StageScanning:
		return "Scanning"
	case StageDiffing:
		return "Diffing"
	case StagePruning:
		return "Pruning"
	case StageEmbedding:
		return "Embedding"
	case StageComplete:
		return "Complete"
	default:
		return "Unknown"
	}
}

// Icon returns the short stage icon for plain text output.
func (s Stage) Icon() string {
	switch s {
	case StageScanning:
		return "SCAN"
	case StageDiffing:
		return "DIFF"
	case StagePruning:
		return "PRUNE"
	case StageEmbedding:
		return "EMBED"
	case StageComplete:
		return "DONE"
	default:
		return "???"
	}
}

// ProgressEvent represents a progress update. For the embedding stage,
// Current/Total count documents, not fragments: fragment counts vary per
// document and make a poor progress signal.
type ProgressEvent struct {
	Stage   Stage
	Current int
	Total   int
	Message string
}

// ErrorEvent represents an error or warning during processing.
type ErrorEvent struct {
	Err    error
	IsWarn bool
}

// StageTimings tracks duration for each run stage.
type StageTimings struct {
	Scan  time.Duration
	Diff  time.Duration
	Prune time.Duration
	Embed time.Duration
}

// CompletionStats contains the final run statistics.
type CompletionStats struct {
	Documents int
	Fragments int
	Removed   int
	UpToDate  bool
	Duration  time.Duration
	Stages    StageTimings
	Model     string
}

// Renderer defines the interface for progress display.
type Renderer interface {
	// Start initializes the renderer.
	Start(ctx context.Context) error

	// UpdateProgress updates progress display.
	UpdateProgress(event ProgressEvent)

	// AddError adds an error to display.
	AddError(event ErrorEvent)

	// Complete marks rendering as complete with summary.
	Complete(stats CompletionStats)

	// Stop stops the renderer and cleans up.
	Stop() error
}

// Config configures the UI renderer.
type Config struct {
	Output     io.Writer
	ForcePlain bool
	NoColor    bool
}

// NewRenderer selects a renderer: the TUI when stdout is a terminal, plain
// text otherwise (CI, pipes).
func NewRenderer(cfg Config) Renderer {
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}

	if cfg.ForcePlain || !isTerminal(cfg.Output) {
		return NewPlainRenderer(cfg)
	}
	return NewTUIRenderer(cfg)
}

// isTerminal reports whether the writer is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
