// Package queue persists the offline operation queue as a JSON file next to
// the server binary, so queued work survives restarts.
package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	domain "gymdesk/internal/domain/queue"
)

// Store persists queued operations.
type Store interface {
	Load() ([]domain.Operation, error)
	Append(op domain.Operation) error
	Replace(ops []domain.Operation) error
}

// FileStore implements Store over a single JSON file. Writes go through a
// temp file and an atomic rename so a crash mid-write never truncates the
// queue.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a FileStore at path.
// PRE: path is non-empty
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads all queued operations.
// POST: Returns the queue, or an empty queue when the file is missing or
// unreadable as JSON
func (s *FileStore) Load() ([]domain.Operation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *FileStore) loadLocked() ([]domain.Operation, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []domain.Operation{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read queue file: %w", err)
	}

	var ops []domain.Operation
	if err := json.Unmarshal(data, &ops); err != nil {
		// A corrupt queue must not block startup. Start empty and keep
		// the broken file aside for inspection.
		slog.Warn("queue_file_corrupt", "path", s.path, "error", err)
		if renameErr := os.Rename(s.path, s.path+".corrupt"); renameErr != nil {
			slog.Warn("queue_file_quarantine_failed", "path", s.path, "error", renameErr)
		}
		return []domain.Operation{}, nil
	}
	if ops == nil {
		ops = []domain.Operation{}
	}
	return ops, nil
}

// Append adds one operation to the end of the queue.
// POST: Queue file contains the previous operations plus op
func (s *FileStore) Append(op domain.Operation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ops, err := s.loadLocked()
	if err != nil {
		return err
	}
	return s.writeLocked(append(ops, op))
}

// Replace overwrites the queue with ops.
// POST: Queue file contains exactly ops
func (s *FileStore) Replace(ops []domain.Operation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(ops)
}

func (s *FileStore) writeLocked(ops []domain.Operation) error {
	if ops == nil {
		ops = []domain.Operation{}
	}
	data, err := json.MarshalIndent(ops, "", "  ")
	if err != nil {
		return fmt.Errorf("encode queue: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".queue-*.json")
	if err != nil {
		return fmt.Errorf("create temp queue file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp queue file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp queue file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace queue file: %w", err)
	}
	return nil
}
