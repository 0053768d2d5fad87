package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openauslaw/oale/internal/store"
)

func scanOf(identifiers []string, corrupt map[int]bool) *store.ScanResult {
	if corrupt == nil {
		corrupt = map[int]bool{}
	}
	present := make(map[string]bool)
	dirty := make(map[string]bool)
	for i, id := range identifiers {
		if corrupt[i] {
			dirty[id] = true
		}
	}
	for _, id := range identifiers {
		if !dirty[id] {
			present[id] = true
		}
	}
	return &store.ScanResult{Identifiers: identifiers, Corrupt: corrupt, Present: present}
}

func TestCompute_UpToDate(t *testing.T) {
	plan := Compute([]string{"a", "b"}, scanOf([]string{"a", "a", "b"}, nil))

	assert.True(t, plan.UpToDate())
	assert.Empty(t, plan.Remove)
}

func TestCompute_EmptyStoreDerivesEverything(t *testing.T) {
	plan := Compute([]string{"a", "b", "c"}, scanOf(nil, nil))

	assert.Equal(t, map[int]bool{0: true, 1: true, 2: true}, plan.Missing)
	assert.Empty(t, plan.Remove)
}

func TestCompute_MissingAndStale(t *testing.T) {
	// Given: corpus {a, b, c}; store holds groups for {a, b, d}
	corpus := []string{"a", "b", "c"}
	scan := scanOf([]string{"a", "b", "b", "d"}, nil)

	plan := Compute(corpus, scan)

	// Then: only c is derived and only d's positions are removed
	assert.Equal(t, map[int]bool{2: true}, plan.Missing)
	assert.Equal(t, map[int]bool{3: true}, plan.Remove)
}

func TestCompute_CorruptGroupRederived(t *testing.T) {
	// Given: b's group is flagged corrupt by the scan
	corpus := []string{"a", "b"}
	scan := scanOf([]string{"a", "b", "b"}, map[int]bool{1: true, 2: true})

	plan := Compute(corpus, scan)

	// Then: b is both removed and re-derived
	assert.Equal(t, map[int]bool{1: true}, plan.Missing)
	assert.Equal(t, map[int]bool{1: true, 2: true}, plan.Remove)
}

func TestCompute_EmptyCorpusRemovesEverything(t *testing.T) {
	plan := Compute(nil, scanOf([]string{"a", "a", "b"}, nil))

	assert.True(t, plan.UpToDate())
	assert.Equal(t, map[int]bool{0: true, 1: true, 2: true}, plan.Remove)
}

func TestCompute_StaleAndCorruptUnion(t *testing.T) {
	// Stale d plus corrupt a must both land in the removal set.
	corpus := []string{"a", "b"}
	scan := scanOf([]string{"a", "b", "d"}, map[int]bool{0: true})

	plan := Compute(corpus, scan)

	assert.Equal(t, map[int]bool{0: true}, plan.Missing)
	assert.Equal(t, map[int]bool{0: true, 2: true}, plan.Remove)
}
