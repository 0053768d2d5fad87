package store

import (
	"bufio"
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"
)

// ScanResult describes the state of an existing derived store.
type ScanResult struct {
	// Identifiers is the per-position identifier sequence as found in the
	// metadata store.
	Identifiers []string

	// Corrupt is the set of positions that must be removed before new
	// records are derived: the positions of any fragment group touched by a
	// truncated tail or by cross-store misalignment, plus every position
	// beyond the shortest store's length.
	Corrupt map[int]bool

	// Present is the set of identifiers whose fragment groups are fully
	// intact. Documents outside this set are re-derived.
	Present map[string]bool
}

// Scan reads the metadata store sequentially and reconciles its identifier
// sequence against the lengths of the other two stores. An empty store yields
// empty outputs and no error.
//
// Two corruption modes from an interrupted previous run are detected:
//
//   - truncated tail: the final fragment group does not end in
//     is_last_fragment=true, so the whole group is flagged;
//   - misalignment: the three stores have different lengths, so every
//     position beyond the shortest is flagged.
//
// A fragment group with any flagged position is flagged in full and its
// identifier dropped from Present, so its document is re-derived rather than
// left partially stored.
func (s *Store) Scan() (*ScanResult, error) {
	result := &ScanResult{
		Corrupt: make(map[int]bool),
		Present: make(map[string]bool),
	}

	f, err := os.Open(s.MetadatasPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata store: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := bufio.NewReaderSize(f, 1<<20)
	lastIsLast := false
	for {
		line, err := r.ReadBytes('\n')
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to scan metadata store: %w", err)
		}

		id := jsoniter.Get(line, "version_id").ToString()
		if id == "" {
			// An undecodable line poisons its position; the owning group
			// cannot be identified, so flag the position directly.
			result.Corrupt[len(result.Identifiers)] = true
		}
		result.Identifiers = append(result.Identifiers, id)
		lastIsLast = jsoniter.Get(line, "is_last_fragment").ToBool()
	}

	dirty := make(map[string]bool)

	// Truncated tail: the last group in the file was mid-append when the
	// previous run stopped.
	if n := len(result.Identifiers); n > 0 && !lastIsLast {
		dirty[result.Identifiers[n-1]] = true
	}

	// Cross-store misalignment.
	metaLen := len(result.Identifiers)
	embedLen, err := CountLines(s.EmbeddingsPath())
	if err != nil {
		return nil, err
	}
	textLen, err := CountLines(s.TextsPath())
	if err != nil {
		return nil, err
	}

	shortest, longest := metaLen, metaLen
	for _, n := range []int{embedLen, textLen} {
		if n < shortest {
			shortest = n
		}
		if n > longest {
			longest = n
		}
	}
	for i := shortest; i < longest; i++ {
		result.Corrupt[i] = true
		if i < metaLen {
			dirty[result.Identifiers[i]] = true
		}
	}

	// Expand: any group touched by a flagged position is removed whole.
	for i, id := range result.Identifiers {
		if result.Corrupt[i] {
			dirty[id] = true
		}
	}
	for i, id := range result.Identifiers {
		if dirty[id] {
			result.Corrupt[i] = true
		}
	}

	for _, id := range result.Identifiers {
		if id != "" && !dirty[id] {
			result.Present[id] = true
		}
	}

	return result, nil
}
