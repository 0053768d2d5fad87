package store

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/google/renameio"
	"golang.org/x/sync/errgroup"

	"github.com/openauslaw/oale/internal/oerrors"
)

// Prune rewrites the three stores, dropping the lines at the given positions
// while preserving the relative order of survivors. Each store is rewritten
// to a temporary file and then atomically renamed over the original, so no
// reader ever observes a partially rewritten store. The three rewrites are
// independent and run concurrently; a failure in any of them aborts that
// store's rewrite, leaves its original untouched, and fails the prune.
func (s *Store) Prune(ctx context.Context, remove map[int]bool) error {
	if len(remove) == 0 {
		return nil
	}

	g, _ := errgroup.WithContext(ctx)
	for _, path := range s.Paths() {
		g.Go(func() error {
			return removeLines(path, remove)
		})
	}
	return g.Wait()
}

// removeLines writes a replacement for the file at path containing every line
// except those at positions in remove, then atomically replaces the original.
func removeLines(path string, remove map[int]bool) error {
	src, err := os.Open(path)
	if err != nil {
		return oerrors.StoreIO("open", path, err)
	}
	defer func() { _ = src.Close() }()

	pending, err := renameio.TempFile("", path)
	if err != nil {
		return oerrors.StoreIO("create temp for", path, err)
	}
	defer func() { _ = pending.Cleanup() }()

	reader := bufio.NewReaderSize(src, 1<<20)
	writer := bufio.NewWriterSize(pending, 1<<20)

	for i := 0; ; i++ {
		line, err := reader.ReadBytes('\n')
		if err == io.EOF {
			break
		}
		if err != nil {
			return oerrors.StoreIO("read", path, err)
		}
		if remove[i] {
			continue
		}
		if _, err := writer.Write(line); err != nil {
			return oerrors.StoreIO("write replacement for", path, err)
		}
	}

	if err := writer.Flush(); err != nil {
		return oerrors.StoreIO("flush replacement for", path, err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return oerrors.StoreIO("replace", path, err)
	}
	return nil
}
