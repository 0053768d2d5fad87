package ui

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// PlainRenderer outputs plain text progress (for CI/pipes).
type PlainRenderer struct {
	mu     sync.Mutex
	out    io.Writer
	stage  Stage
	errors []ErrorEvent
}

// NewPlainRenderer creates a plain text renderer.
func NewPlainRenderer(cfg Config) *PlainRenderer {
	return &PlainRenderer{
		out: cfg.Output,
	}
}

// Start implements Renderer.
func (r *PlainRenderer) Start(ctx context.Context) error {
	return nil
}

// UpdateProgress implements Renderer. Stage transitions and milestones are
// printed; per-document updates within a stage are kept quiet to avoid
// flooding pipe output.
func (r *PlainRenderer) UpdateProgress(event ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stageChanged := event.Stage != r.stage
	r.stage = event.Stage

	switch {
	case event.Message != "":
		_, _ = fmt.Fprintf(r.out, "[%s] %s\n", event.Stage.Icon(), event.Message)
	case stageChanged && event.Total > 0:
		_, _ = fmt.Fprintf(r.out, "[%s] 0/%d\n", event.Stage.Icon(), event.Total)
	case event.Total > 0 && (event.Current == event.Total || event.Current%100 == 0):
		_, _ = fmt.Fprintf(r.out, "[%s] %d/%d\n", event.Stage.Icon(), event.Current, event.Total)
	}
}

// AddError implements Renderer.
func (r *PlainRenderer) AddError(event ErrorEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.errors = append(r.errors, event)

	prefix := "ERROR"
	if event.IsWarn {
		prefix = "WARN"
	}
	_, _ = fmt.Fprintf(r.out, "%s: %v\n", prefix, event.Err)
}

// Complete implements Renderer.
func (r *PlainRenderer) Complete(stats CompletionStats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if stats.UpToDate {
		_, _ = fmt.Fprintln(r.out, "The embeddings are already up to date.")
		return
	}

	_, _ = fmt.Fprintf(r.out, "Complete: %d documents, %d fragments embedded, %d records removed in %s\n",
		stats.Documents, stats.Fragments, stats.Removed, stats.Duration.Round(100*time.Millisecond))

	if stats.Stages.Embed > 0 {
		_, _ = fmt.Fprintln(r.out, "Stage breakdown:")
		_, _ = fmt.Fprintf(r.out, "  Scan:  %s\n", stats.Stages.Scan.Round(100*time.Millisecond))
		_, _ = fmt.Fprintf(r.out, "  Diff:  %s\n", stats.Stages.Diff.Round(100*time.Millisecond))
		_, _ = fmt.Fprintf(r.out, "  Prune: %s\n", stats.Stages.Prune.Round(100*time.Millisecond))
		_, _ = fmt.Fprintf(r.out, "  Embed: %s\n", stats.Stages.Embed.Round(100*time.Millisecond))
	}

	if stats.Model != "" {
		_, _ = fmt.Fprintf(r.out, "Model: %s\n", stats.Model)
	}
}

// Stop implements Renderer.
func (r *PlainRenderer) Stop() error {
	return nil
}
