package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio"
	jsoniter "github.com/json-iterator/go"
)

// DataVersion identifies the on-disk format of the derived store. Bumping it
// invalidates every existing store.
const DataVersion = "2.0.0"

// SnapshotFile is the name of the config snapshot inside the data directory.
const SnapshotFile = "version.json"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Snapshot freezes the parameters that determine the validity of a derived
// store. A store produced under one snapshot cannot be partially reused under
// another: model and chunk size change every downstream vector.
type Snapshot struct {
	DataVersion string `json:"data_version"`
	Model       string `json:"model"`
	ChunkSize   int    `json:"chunk_size"`
}

// SnapshotFor derives the snapshot for the current run parameters.
func SnapshotFor(cfg *Config) Snapshot {
	return Snapshot{
		DataVersion: DataVersion,
		Model:       cfg.Model,
		ChunkSize:   cfg.ChunkSize,
	}
}

// LoadSnapshot reads the snapshot stored in dataDir. A missing file returns
// ok=false and no error.
func LoadSnapshot(dataDir string) (Snapshot, bool, error) {
	path := filepath.Join(dataDir, SnapshotFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		// An unreadable snapshot is treated as a mismatch, not a crash:
		// the store it described is unusable either way.
		return Snapshot{}, false, nil
	}
	return snap, true, nil
}

// WriteSnapshot persists the snapshot atomically into dataDir.
func WriteSnapshot(dataDir string, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	path := filepath.Join(dataDir, SnapshotFile)
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", path, err)
	}
	return nil
}

// EnsureDataDir reconciles the data directory with the current run
// parameters. If an existing snapshot differs from the current one, the
// entire directory is deleted and recreated empty; the current snapshot is
// then written. Returns true when an existing store was discarded.
func EnsureDataDir(dataDir string, current Snapshot) (bool, error) {
	stored, ok, err := LoadSnapshot(dataDir)
	if err != nil {
		return false, err
	}

	rebuilt := false
	if ok && stored != current {
		if err := os.RemoveAll(dataDir); err != nil {
			return false, fmt.Errorf("failed to remove incompatible data dir %s: %w", dataDir, err)
		}
		rebuilt = true
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return false, fmt.Errorf("failed to create data dir %s: %w", dataDir, err)
	}

	if err := WriteSnapshot(dataDir, current); err != nil {
		return false, err
	}

	return rebuilt, nil
}
