package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"kasir_pos_backend/pkg/utils"
)

// FileStore keeps the whole POS state in memory and mirrors it to a single
// versioned JSON file. It implements every repository interface in
// internal/repositories, so services are wired the same way regardless of
// whether the file or the PostgreSQL driver is active.
type FileStore struct {
	mu    sync.RWMutex
	path  string
	data  *snapshot
	dirty bool
}

// NewFileStore loads the snapshot at path, falling back to an empty state
// when the file is missing or malformed.
func NewFileStore(path string) (*FileStore, error) {
	store := &FileStore{path: path, data: emptySnapshot()}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return store, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", path, err)
	}

	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		utils.LogError(err, "Snapshot file is malformed, starting with empty state")
		return store, nil
	}
	if snap.SchemaVersion != SchemaVersion {
		utils.LogInfo("Snapshot schema version mismatch, starting with empty state",
			map[string]interface{}{"found": snap.SchemaVersion, "expected": SchemaVersion})
		return store, nil
	}
	snap.normalize()
	store.data = &snap
	return store, nil
}

// nextID returns the next value of a named sequence. Callers must hold the
// write lock.
func (s *FileStore) nextID(name string) int64 {
	s.data.Sequences[name]++
	return s.data.Sequences[name]
}

// markDirty flags the snapshot for the next flush. Callers must hold the
// write lock.
func (s *FileStore) markDirty() {
	s.dirty = true
}

// Flush writes the snapshot to disk if anything changed since the last
// flush. The write goes through a temp file and rename so a crash mid-write
// never leaves a truncated snapshot behind.
func (s *FileStore) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}

	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating snapshot directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("creating temp snapshot: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing snapshot %s: %w", s.path, err)
	}

	s.dirty = false
	return nil
}

// Close flushes any pending changes. Intended for shutdown paths.
func (s *FileStore) Close() error {
	return s.Flush()
}
