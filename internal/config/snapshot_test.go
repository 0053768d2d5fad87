package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotFor_FreezesRunParameters(t *testing.T) {
	cfg := NewConfig()
	cfg.Model = "custom/model"
	cfg.ChunkSize = 128

	snap := SnapshotFor(cfg)

	assert.Equal(t, DataVersion, snap.DataVersion)
	assert.Equal(t, "custom/model", snap.Model)
	assert.Equal(t, 128, snap.ChunkSize)
}

func TestLoadSnapshot_MissingFileReturnsNotOK(t *testing.T) {
	_, ok, err := LoadSnapshot(t.TempDir())

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadSnapshot_CorruptFileTreatedAsMismatch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, SnapshotFile), []byte("{garbage"), 0o644))

	_, ok, err := LoadSnapshot(dir)

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWriteSnapshot_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	snap := Snapshot{DataVersion: DataVersion, Model: "m", ChunkSize: 512}

	require.NoError(t, WriteSnapshot(dir, snap))

	loaded, ok, err := LoadSnapshot(dir)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, snap, loaded)
}

func TestEnsureDataDir_FreshDirectoryWritesSnapshot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	snap := Snapshot{DataVersion: DataVersion, Model: "m", ChunkSize: 512}

	rebuilt, err := EnsureDataDir(dir, snap)

	require.NoError(t, err)
	assert.False(t, rebuilt)
	loaded, ok, err := LoadSnapshot(dir)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, snap, loaded)
}

func TestEnsureDataDir_MatchingSnapshotKeepsContents(t *testing.T) {
	// Given: a data dir with a snapshot and a derived file
	dir := filepath.Join(t.TempDir(), "data")
	snap := Snapshot{DataVersion: DataVersion, Model: "m", ChunkSize: 512}
	_, err := EnsureDataDir(dir, snap)
	require.NoError(t, err)
	marker := filepath.Join(dir, "embeddings.jsonl")
	require.NoError(t, os.WriteFile(marker, []byte("[1.0]\n"), 0o644))

	// When: ensuring again with the same snapshot
	rebuilt, err := EnsureDataDir(dir, snap)

	// Then: nothing is deleted
	require.NoError(t, err)
	assert.False(t, rebuilt)
	assert.FileExists(t, marker)
}

func TestEnsureDataDir_MismatchedSnapshotRebuilds(t *testing.T) {
	// Given: a data dir built under a different chunk size
	dir := filepath.Join(t.TempDir(), "data")
	old := Snapshot{DataVersion: DataVersion, Model: "m", ChunkSize: 512}
	_, err := EnsureDataDir(dir, old)
	require.NoError(t, err)
	marker := filepath.Join(dir, "embeddings.jsonl")
	require.NoError(t, os.WriteFile(marker, []byte("[1.0]\n"), 0o644))

	// When: the chunk size changes
	current := Snapshot{DataVersion: DataVersion, Model: "m", ChunkSize: 256}
	rebuilt, err := EnsureDataDir(dir, current)

	// Then: the directory is recreated empty with the new snapshot
	require.NoError(t, err)
	assert.True(t, rebuilt)
	assert.NoFileExists(t, marker)
	loaded, ok, err := LoadSnapshot(dir)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, current, loaded)
}

func TestEnsureDataDir_ModelChangeRebuilds(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	_, err := EnsureDataDir(dir, Snapshot{DataVersion: DataVersion, Model: "a", ChunkSize: 512})
	require.NoError(t, err)

	rebuilt, err := EnsureDataDir(dir, Snapshot{DataVersion: DataVersion, Model: "b", ChunkSize: 512})

	require.NoError(t, err)
	assert.True(t, rebuilt)
}
