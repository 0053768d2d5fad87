// Package diff computes the synchronization plan between the corpus and an
// existing derived store.
package diff

import "github.com/openauslaw/oale/internal/store"

// Plan is the outcome of comparing corpus identifiers against the scanned
// store state.
type Plan struct {
	// Missing is the set of corpus positions whose documents have no intact
	// fragment group in the store and must be derived.
	Missing map[int]bool

	// Remove is the final removal set over store positions: stale fragments
	// (document no longer in the corpus) plus the scanner's corrupt
	// positions.
	Remove map[int]bool
}

// UpToDate reports whether there is nothing to derive.
func (p *Plan) UpToDate() bool {
	return len(p.Missing) == 0
}

// Compute builds the plan from the corpus identifier sequence and the scan
// result.
//
// Change detection is by identifier only: a document whose content changed
// under an unchanged identifier is not detected. Replacing content requires
// issuing a new identifier; this is a documented limitation of the data
// model, not a recoverable condition.
func Compute(corpusIDs []string, scan *store.ScanResult) *Plan {
	plan := &Plan{
		Missing: make(map[int]bool),
		Remove:  make(map[int]bool, len(scan.Corrupt)),
	}

	for pos := range scan.Corrupt {
		plan.Remove[pos] = true
	}

	inCorpus := make(map[string]bool, len(corpusIDs))
	for _, id := range corpusIDs {
		inCorpus[id] = true
	}

	for i, id := range corpusIDs {
		if !scan.Present[id] {
			plan.Missing[i] = true
		}
	}

	for j, id := range scan.Identifiers {
		if !inCorpus[id] {
			plan.Remove[j] = true
		}
	}

	return plan
}
