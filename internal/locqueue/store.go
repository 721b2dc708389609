// Package locqueue is the durable buffer for location pings that failed to
// send. The queue lives in a single storage slot, capped at the most recent
// entries: pings are transient and supersedable, so a hard cap beats
// unbounded retry.
package locqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/opencourier/driverd/internal/models"
)

// MaxQueued caps the queue; the oldest entries are dropped first on enqueue.
const MaxQueued = 50

// StorageError means the persistent slot itself could not be read or
// written. It is the only failure that aborts a flush as a whole.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("queue storage %s: %v", e.Op, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

type Store interface {
	Load(ctx context.Context) ([]models.QueuedLocation, error)
	Save(ctx context.Context, entries []models.QueuedLocation) error
}

// FileStore keeps the queue as a JSON document at a fixed path, mirroring a
// single key-value storage slot.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Load(ctx context.Context) ([]models.QueuedLocation, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return []models.QueuedLocation{}, nil
	}
	if err != nil {
		return nil, &StorageError{Op: "read", Err: err}
	}

	var entries []models.QueuedLocation
	if json.Unmarshal(raw, &entries) != nil {
		// a mangled slot is not worth failing over; start fresh
		return []models.QueuedLocation{}, nil
	}
	return entries, nil
}

func (f *FileStore) Save(ctx context.Context, entries []models.QueuedLocation) error {
	if entries == nil {
		entries = []models.QueuedLocation{}
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return &StorageError{Op: "encode", Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return &StorageError{Op: "write", Err: err}
	}
	if err := os.WriteFile(f.path, raw, 0o600); err != nil {
		return &StorageError{Op: "write", Err: err}
	}
	return nil
}
