package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/trendr-app/trendr/internal/config"
)

// SnapshotName identifies a cached pipeline output for debugging.
type SnapshotName string

const (
	SnapshotIngested SnapshotName = "ingested"
	SnapshotCycle    SnapshotName = "cycle"
)

func snapshotDir(name SnapshotName) (string, error) {
	dataDir, err := config.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "snapshots", string(name)), nil
}

// timestamped filenames sort chronologically by name
func snapshotFilename() string {
	return time.Now().Format("2006-01-02T15-04-05") + ".json"
}

// SaveSnapshot writes JSON-serializable data to the snapshot directory and
// returns the path to the saved file. Best-effort debugging aid; callers
// may log and ignore failures.
func SaveSnapshot[T any](name SnapshotName, data T) (string, error) {
	dir, err := snapshotDir(name)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create snapshot dir: %w", err)
	}

	path := filepath.Join(dir, snapshotFilename())

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}

	return path, nil
}

// LoadLatestSnapshot loads the most recent snapshot of the given kind.
// Returns the data and the filepath it was loaded from.
func LoadLatestSnapshot[T any](name SnapshotName) (T, string, error) {
	var zero T

	dir, err := snapshotDir(name)
	if err != nil {
		return zero, "", err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return zero, "", fmt.Errorf("no %s snapshots", name)
		}
		return zero, "", err
	}

	var latest string
	for _, entry := range entries {
		if !entry.IsDir() {
			latest = entry.Name()
		}
	}
	if latest == "" {
		return zero, "", fmt.Errorf("no %s snapshots", name)
	}

	path := filepath.Join(dir, latest)
	jsonData, err := os.ReadFile(path)
	if err != nil {
		return zero, "", err
	}

	var data T
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return zero, "", fmt.Errorf("failed to unmarshal snapshot %s: %w", path, err)
	}

	return data, path, nil
}
