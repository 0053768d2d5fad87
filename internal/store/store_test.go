package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	return s
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	if len(data) == 0 {
		return nil
	}
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func testRecord(id string, fragment int, last bool) Record {
	return Record{
		Embedding: []float32{0.1, 0.2, 0.3},
		Meta: FragmentMeta{
			VersionID:      id,
			Citation:       "Some Act 1999",
			Jurisdiction:   "commonwealth",
			Type:           "primary_legislation",
			Fragment:       fragment,
			IsLastFragment: last,
		},
		Text: "fragment text",
	}
}

func TestOpen_CreatesEmptyAlignedStores(t *testing.T) {
	s := openTestStore(t)

	for _, path := range s.Paths() {
		n, err := CountLines(path)
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	}
}

func TestOpen_PreservesExistingContents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, EmbeddingsFile)
	require.NoError(t, os.WriteFile(path, []byte("[1.0]\n"), 0o644))

	_, err := Open(dir)
	require.NoError(t, err)

	n, err := CountLines(path)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestFragmentMeta_MarshalFlattensExtra(t *testing.T) {
	meta := FragmentMeta{
		VersionID:      "v1",
		Citation:       "X Act",
		Jurisdiction:   "queensland",
		Type:           "bill",
		Fragment:       2,
		IsLastFragment: true,
		Extra:          map[string]any{"source": "qld_legislation", "date": "2020-01-01"},
	}

	data, err := json.Marshal(meta)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "v1", raw["version_id"])
	assert.Equal(t, "qld_legislation", raw["source"])
	assert.Equal(t, "2020-01-01", raw["date"])
	assert.Equal(t, float64(2), raw["fragment"])
	assert.Equal(t, true, raw["is_last_fragment"])

	var back FragmentMeta
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, meta, back)
}

func TestAppender_KeepsStoresAligned(t *testing.T) {
	s := openTestStore(t)

	a, err := s.NewAppender()
	require.NoError(t, err)

	require.NoError(t, a.Append([]Record{
		testRecord("a", 0, false),
		testRecord("a", 1, true),
		testRecord("b", 0, true),
	}))
	require.NoError(t, a.Close())

	for _, path := range s.Paths() {
		n, err := CountLines(path)
		require.NoError(t, err)
		assert.Equal(t, 3, n, path)
	}

	metas := readLines(t, s.MetadatasPath())
	var first FragmentMeta
	require.NoError(t, json.Unmarshal([]byte(metas[0]), &first))
	assert.Equal(t, "a", first.VersionID)
	assert.Equal(t, 0, first.Fragment)
	assert.False(t, first.IsLastFragment)
}

func TestAppender_SuccessiveBatchesAccumulate(t *testing.T) {
	s := openTestStore(t)
	a, err := s.NewAppender()
	require.NoError(t, err)

	require.NoError(t, a.Append([]Record{testRecord("a", 0, true)}))
	require.NoError(t, a.Flush())
	require.NoError(t, a.Append([]Record{testRecord("b", 0, true)}))
	require.NoError(t, a.Close())

	n, err := CountLines(s.TextsPath())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCountLines_IgnoresUnterminatedTail(t *testing.T) {
	// A partially written final line has no newline and is not counted;
	// the scanner sees the shorter length and flags the misalignment.
	path := filepath.Join(t.TempDir(), "f.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("one\ntwo\npart"), 0o644))

	n, err := CountLines(path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
