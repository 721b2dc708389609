package telemetry

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/opencourier/driverd/internal/cloudwriter"
)

// ArchiveOutput tees events to an inner destination while buffering them in a
// cloud writer; the buffered JSON lines are uploaded as a single object when
// the agent shuts down. Safe for concurrent use like every destination the
// recorder wraps.
type ArchiveOutput struct {
	inner   OutputDestination
	factory cloudwriter.CloudWriterFactory
	bucket  string
	prefix  string

	mu      sync.Mutex
	writers map[string]cloudwriter.CloudWriter
}

func NewArchiveOutput(inner OutputDestination, factory cloudwriter.CloudWriterFactory, bucket, prefix string) *ArchiveOutput {
	return &ArchiveOutput{
		inner:   inner,
		factory: factory,
		bucket:  bucket,
		prefix:  prefix,
		writers: make(map[string]cloudwriter.CloudWriter),
	}
}

func (a *ArchiveOutput) WriteMessage(topic string, msg []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	w, ok := a.writers[topic]
	if !ok {
		key := fmt.Sprintf("%s/%s/%s-%d.jsonl",
			a.prefix, time.Now().UTC().Format("2006-01-02"), topic, time.Now().Unix())
		var err error
		w, err = a.factory.NewWriter(a.bucket, key)
		if err != nil {
			return err
		}
		a.writers[topic] = w
	}
	if _, err := w.Write(append(msg, '\n')); err != nil {
		return err
	}
	return a.inner.WriteMessage(topic, msg)
}

func (a *ArchiveOutput) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for topic, w := range a.writers {
		if err := w.Close(); err != nil {
			log.Printf("Failed to upload %s archive: %v", topic, err)
		}
	}
	return a.inner.Close()
}
