// Package pipeline orchestrates a synchronization run: scan the existing
// store, diff it against the corpus, prune stale and corrupt records, then
// derive embeddings for whatever is missing.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/openauslaw/oale/internal/chunk"
	"github.com/openauslaw/oale/internal/config"
	"github.com/openauslaw/oale/internal/corpus"
	"github.com/openauslaw/oale/internal/diff"
	"github.com/openauslaw/oale/internal/embed"
	"github.com/openauslaw/oale/internal/oerrors"
	"github.com/openauslaw/oale/internal/store"
	"github.com/openauslaw/oale/internal/ui"
)

// Runner executes one synchronization run end to end. Dependencies are
// injected so tests can substitute renderers and embedders.
type Runner struct {
	cfg      *config.Config
	logger   *slog.Logger
	renderer ui.Renderer

	// Embedder overrides the backend built from cfg when non-nil.
	Embedder embed.Embedder
}

// NewRunner creates a Runner. A nil renderer falls back to a plain renderer
// writing to io.Discard; a nil logger falls back to slog.Default().
func NewRunner(cfg *config.Config, logger *slog.Logger, renderer ui.Renderer) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if renderer == nil {
		renderer = ui.NewPlainRenderer(ui.Config{Output: io.Discard, ForcePlain: true})
	}
	return &Runner{cfg: cfg, logger: logger, renderer: renderer}
}

// Run performs one full synchronization. Committed store state survives any
// failure: appends are flushed batch by batch, and removals replace store
// files atomically.
func (r *Runner) Run(ctx context.Context) (*ui.CompletionStats, error) {
	start := time.Now()
	var timings ui.StageTimings

	lock := store.NewRunLock(r.cfg.DataDir)
	acquired, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire run lock: %w", err)
	}
	if !acquired {
		return nil, fmt.Errorf("another run holds the lock at %s", lock.Path())
	}
	defer func() { _ = lock.Unlock() }()

	// The corpus must exist before any run state is touched: a missing
	// corpus combined with a changed snapshot must not tear down the
	// committed store.
	probe, err := corpus.Open(r.cfg.CorpusPath)
	if err != nil {
		return nil, err
	}
	_ = probe.Close()

	snap := config.SnapshotFor(r.cfg)
	rebuilt, err := config.EnsureDataDir(r.cfg.DataDir, snap)
	if err != nil {
		return nil, err
	}
	if rebuilt {
		r.logger.Warn("config snapshot changed, store rebuilt from empty",
			"model", snap.Model, "chunk_size", snap.ChunkSize)
		r.renderer.AddError(ui.ErrorEvent{
			Err:    fmt.Errorf("%w: existing store discarded", oerrors.ErrConfigMismatch),
			IsWarn: true,
		})
	}

	st, err := store.Open(r.cfg.DataDir)
	if err != nil {
		return nil, err
	}

	// Scan.
	stageStart := time.Now()
	r.renderer.UpdateProgress(ui.ProgressEvent{Stage: ui.StageScanning})
	scan, err := st.Scan()
	if err != nil {
		return nil, err
	}
	timings.Scan = time.Since(stageStart)
	r.logger.Info("store scanned",
		"records", len(scan.Identifiers),
		"corrupt", len(scan.Corrupt),
		"intact_documents", len(scan.Present))

	// Diff.
	stageStart = time.Now()
	r.renderer.UpdateProgress(ui.ProgressEvent{Stage: ui.StageDiffing})
	corpusIDs, err := corpus.Identifiers(r.cfg.CorpusPath)
	if err != nil {
		return nil, err
	}
	plan := diff.Compute(corpusIDs, scan)
	timings.Diff = time.Since(stageStart)
	r.logger.Info("plan computed",
		"corpus_documents", len(corpusIDs),
		"missing", len(plan.Missing),
		"remove", len(plan.Remove))

	// Prune.
	stageStart = time.Now()
	if len(plan.Remove) > 0 {
		r.renderer.UpdateProgress(ui.ProgressEvent{Stage: ui.StagePruning, Total: len(plan.Remove)})
		if err := st.Prune(ctx, plan.Remove); err != nil {
			return nil, err
		}
		r.logger.Info("stale records pruned", "removed", len(plan.Remove))
	}
	timings.Prune = time.Since(stageStart)

	stats := &ui.CompletionStats{Removed: len(plan.Remove)}

	if plan.UpToDate() {
		stats.UpToDate = len(plan.Remove) == 0
		stats.Duration = time.Since(start)
		stats.Stages = timings
		r.renderer.Complete(*stats)
		return stats, nil
	}

	// Embed.
	stageStart = time.Now()
	embedder := r.Embedder
	if embedder == nil {
		embedder, err = embed.NewFromConfig(ctx, r.cfg)
		if err != nil {
			return nil, err
		}
		defer func() { _ = embedder.Close() }()
	}
	stats.Model = embedder.ModelName()

	if err := r.derive(ctx, st, plan, embedder, stats); err != nil {
		return nil, err
	}
	timings.Embed = time.Since(stageStart)

	stats.Duration = time.Since(start)
	stats.Stages = timings
	r.renderer.Complete(*stats)
	r.logger.Info("run complete",
		"documents", stats.Documents,
		"fragments", stats.Fragments,
		"removed", stats.Removed,
		"duration", stats.Duration)
	return stats, nil
}

// derive streams the corpus, chunks the missing documents with a bounded
// worker pool, embeds the fragments in backend-sized batches, and appends the
// results in lock step across the three stores.
func (r *Runner) derive(ctx context.Context, st *store.Store, plan *diff.Plan, embedder embed.Embedder, stats *ui.CompletionStats) error {
	reader, err := corpus.Open(r.cfg.CorpusPath)
	if err != nil {
		return err
	}
	defer func() { _ = reader.Close() }()

	appender, err := st.NewAppender()
	if err != nil {
		return err
	}
	defer func() { _ = appender.Close() }()

	chunker := chunk.New(r.cfg.ChunkSize, nil)
	total := len(plan.Missing)
	r.renderer.UpdateProgress(ui.ProgressEvent{Stage: ui.StageEmbedding, Total: total})

	batch := make([][]byte, 0, r.cfg.ChunkingBatchSize)
	pos := 0
	for {
		line, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read corpus: %w", err)
		}

		if plan.Missing[pos] {
			// Reader reuses no buffers, but the slice must outlive the
			// loop iteration, so keep a copy.
			batch = append(batch, append([]byte(nil), line...))
		}
		pos++

		if len(batch) >= r.cfg.ChunkingBatchSize {
			if err := r.processBatch(ctx, batch, chunker, embedder, appender, stats, total, true); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	// The trailing partial batch is too small to be worth fanning out; it is
	// chunked in-line.
	if len(batch) > 0 {
		if err := r.processBatch(ctx, batch, chunker, embedder, appender, stats, total, false); err != nil {
			return err
		}
	}

	return appender.Flush()
}

// processBatch chunks one document batch, embeds the resulting fragments,
// and appends everything in corpus order. Full batches fan out to the worker
// pool; the trailing partial batch is chunked in-line. Either way results are
// collected in submission order so the append preserves the fragment ordering
// the scanner depends on.
func (r *Runner) processBatch(ctx context.Context, lines [][]byte, chunker *chunk.Chunker, embedder embed.Embedder, appender *store.Appender, stats *ui.CompletionStats, total int, parallel bool) error {
	results, err := r.chunkLines(ctx, lines, chunker, parallel)
	if err != nil {
		return err
	}

	var fragments []string
	var records []store.Record
	// docEnds[i] is the number of records accumulated once document i's
	// fragments are all embedded; it drives per-document progress below.
	docEnds := make([]int, len(results))
	for i, res := range results {
		for j, frag := range res.Fragments {
			fragments = append(fragments, frag)
			records = append(records, store.Record{
				Meta: res.Metas[j],
				Text: frag[res.HeaderLens[j]:],
			})
		}
		docEnds[i] = len(records)
	}

	embedded := 0
	docsDone := 0
	for _, sub := range batched(fragments, r.cfg.EmbeddingBatchSize) {
		vectors, err := embedder.EmbedBatch(ctx, sub)
		if err != nil {
			return fmt.Errorf("failed to embed batch: %w", err)
		}
		for _, v := range vectors {
			records[embedded].Embedding = v
			embedded++
		}
		for docsDone < len(docEnds) && docEnds[docsDone] <= embedded {
			docsDone++
		}
		r.renderer.UpdateProgress(ui.ProgressEvent{
			Stage:   ui.StageEmbedding,
			Current: stats.Documents + docsDone,
			Total:   total,
		})
	}

	if err := appender.Append(records); err != nil {
		return err
	}
	// Flushing per batch bounds the damage of an interruption to one
	// trailing fragment group, which the next scan recovers.
	if err := appender.Flush(); err != nil {
		return err
	}

	stats.Documents += len(lines)
	stats.Fragments += len(records)
	// Zero-fragment documents never pass through the embedding loop; a final
	// update accounts for them.
	if docsDone != len(lines) {
		r.renderer.UpdateProgress(ui.ProgressEvent{
			Stage:   ui.StageEmbedding,
			Current: stats.Documents,
			Total:   total,
		})
	}
	return nil
}

// chunkLines decodes and chunks each corpus line, returning results indexed
// by submission order.
func (r *Runner) chunkLines(ctx context.Context, lines [][]byte, chunker *chunk.Chunker, parallel bool) ([]*chunk.Result, error) {
	results := make([]*chunk.Result, len(lines))

	chunkOne := func(line []byte) (*chunk.Result, error) {
		doc, err := corpus.Decode(line)
		if err != nil {
			return nil, fmt.Errorf("failed to decode corpus document: %w", err)
		}
		return chunker.Chunk(doc)
	}

	if !parallel {
		for i, line := range lines {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			res, err := chunkOne(line)
			if err != nil {
				return nil, err
			}
			results[i] = res
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for i, line := range lines {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := chunkOne(line)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
