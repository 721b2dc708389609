package locqueue

import (
	"context"

	"github.com/opencourier/driverd/internal/models"
)

// Sender delivers one queued ping. It is the seam between the queue and the
// transport; the agent plugs the REST client in here.
type Sender func(ctx context.Context, lat, lng float64) error

// FlushResult reports a flush outcome. Partial success is expected and is not
// an error: entries that still fail stay queued in their original order.
type FlushResult struct {
	Flushed   int
	Remaining []models.QueuedLocation
}

type Queue struct {
	store Store
}

func New(store Store) *Queue {
	return &Queue{store: store}
}

// Enqueue appends a ping, drops the oldest entries beyond MaxQueued and
// persists before returning. The returned slice is the persisted queue.
func (q *Queue) Enqueue(ctx context.Context, entry models.QueuedLocation) ([]models.QueuedLocation, error) {
	entries, err := q.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	entries = append(entries, entry)
	if len(entries) > MaxQueued {
		entries = entries[len(entries)-MaxQueued:]
	}
	if err := q.store.Save(ctx, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Entries returns the persisted queue in arrival order.
func (q *Queue) Entries(ctx context.Context) ([]models.QueuedLocation, error) {
	return q.store.Load(ctx)
}

// Flush walks the queue in arrival order giving each entry a single send
// attempt. Failed entries are written back in their original relative order.
// Flush itself only fails when the store cannot be read or written.
func (q *Queue) Flush(ctx context.Context, send Sender) (FlushResult, error) {
	entries, err := q.store.Load(ctx)
	if err != nil {
		return FlushResult{}, err
	}
	if len(entries) == 0 {
		return FlushResult{Remaining: []models.QueuedLocation{}}, nil
	}

	result := FlushResult{Remaining: make([]models.QueuedLocation, 0, len(entries))}
	for _, e := range entries {
		if err := send(ctx, e.Lat, e.Lng); err != nil {
			result.Remaining = append(result.Remaining, e)
			continue
		}
		result.Flushed++
	}

	if err := q.store.Save(ctx, result.Remaining); err != nil {
		return FlushResult{}, err
	}
	return result, nil
}
