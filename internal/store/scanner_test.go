package store

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// appendRecords fills the store with intact fragment groups, one per id with
// the given fragment counts.
func appendRecords(t *testing.T, s *Store, records ...Record) {
	t.Helper()
	a, err := s.NewAppender()
	require.NoError(t, err)
	require.NoError(t, a.Append(records))
	require.NoError(t, a.Close())
}

func groupOf(id string, fragments int) []Record {
	recs := make([]Record, fragments)
	for i := range recs {
		recs[i] = testRecord(id, i, i == fragments-1)
	}
	return recs
}

// dropLastLine removes the final line from a file, simulating a crash that
// left one store shorter than the others.
func dropLastLine(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	trimmed := strings.TrimRight(string(data), "\n")
	idx := strings.LastIndex(trimmed, "\n")
	if idx < 0 {
		require.NoError(t, os.WriteFile(path, nil, 0o644))
		return
	}
	require.NoError(t, os.WriteFile(path, []byte(trimmed[:idx+1]), 0o644))
}

func TestScan_EmptyStore(t *testing.T) {
	s := openTestStore(t)

	scan, err := s.Scan()
	require.NoError(t, err)

	assert.Empty(t, scan.Identifiers)
	assert.Empty(t, scan.Corrupt)
	assert.Empty(t, scan.Present)
}

func TestScan_IntactStore(t *testing.T) {
	s := openTestStore(t)
	var recs []Record
	recs = append(recs, groupOf("a", 2)...)
	recs = append(recs, groupOf("b", 1)...)
	appendRecords(t, s, recs...)

	scan, err := s.Scan()
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "a", "b"}, scan.Identifiers)
	assert.Empty(t, scan.Corrupt)
	assert.Equal(t, map[string]bool{"a": true, "b": true}, scan.Present)
}

func TestScan_TruncatedTailFlagsWholeGroup(t *testing.T) {
	// Given: the last group was mid-append when the previous run stopped,
	// so its final record does not carry is_last_fragment
	s := openTestStore(t)
	recs := groupOf("a", 1)
	recs = append(recs, testRecord("b", 0, false), testRecord("b", 1, false))
	appendRecords(t, s, recs...)

	scan, err := s.Scan()
	require.NoError(t, err)

	// Then: every position of the trailing group is removed and its
	// document is re-derived
	assert.Equal(t, map[int]bool{1: true, 2: true}, scan.Corrupt)
	assert.Equal(t, map[string]bool{"a": true}, scan.Present)
}

func TestScan_MisalignmentFlagsTailPositions(t *testing.T) {
	// Given: the texts store lost its last line
	s := openTestStore(t)
	var recs []Record
	recs = append(recs, groupOf("a", 1)...)
	recs = append(recs, groupOf("b", 2)...)
	appendRecords(t, s, recs...)
	dropLastLine(t, s.TextsPath())

	scan, err := s.Scan()
	require.NoError(t, err)

	// Then: the misaligned position's whole group is flagged
	assert.Equal(t, map[int]bool{1: true, 2: true}, scan.Corrupt)
	assert.Equal(t, map[string]bool{"a": true}, scan.Present)
}

func TestScan_MisalignmentLongerSideStore(t *testing.T) {
	// Given: the embeddings store has an extra line beyond the metadata
	s := openTestStore(t)
	appendRecords(t, s, groupOf("a", 1)...)
	f, err := os.OpenFile(s.EmbeddingsPath(), os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("[0.5]\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	scan, err := s.Scan()
	require.NoError(t, err)

	// Then: the position past the metadata length is flagged for removal
	assert.True(t, scan.Corrupt[1])
	assert.Equal(t, map[string]bool{"a": true}, scan.Present)
}

func TestScan_UndecodableLinePoisonsItsPosition(t *testing.T) {
	s := openTestStore(t)
	appendRecords(t, s, groupOf("a", 1)...)

	// Corrupt the metadata line in place, keeping the line count equal.
	f, err := os.OpenFile(s.MetadatasPath(), os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteAt([]byte("%%%"), 0)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	scan, err := s.Scan()
	require.NoError(t, err)

	assert.True(t, scan.Corrupt[0])
	assert.Empty(t, scan.Present)
}

func TestScan_CorruptPositionExpandsToWholeGroup(t *testing.T) {
	// Given: a three-store layout where a middle group loses alignment
	s := openTestStore(t)
	var recs []Record
	recs = append(recs, groupOf("a", 2)...)
	recs = append(recs, groupOf("b", 2)...)
	appendRecords(t, s, recs...)
	dropLastLine(t, s.EmbeddingsPath())

	scan, err := s.Scan()
	require.NoError(t, err)

	// Then: both positions of group b are flagged, not just the last
	assert.True(t, scan.Corrupt[2])
	assert.True(t, scan.Corrupt[3])
	assert.False(t, scan.Corrupt[0])
	assert.False(t, scan.Corrupt[1])
	assert.Equal(t, map[string]bool{"a": true}, scan.Present)
}
