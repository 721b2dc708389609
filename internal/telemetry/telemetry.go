// Package telemetry streams the agent's operational events (pings, queue
// activity, status transitions, online toggles) to a pluggable destination:
// console, JSON files, Kafka or Postgres.
package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lucsky/cuid"

	"github.com/opencourier/driverd/internal/models"
)

const (
	EventLocationPing   = "LocationPing"
	EventLocationQueued = "LocationQueued"
	EventQueueFlushed   = "QueueFlushed"
	EventOrderAccepted  = "OrderAccepted"
	EventStatusChanged  = "StatusChanged"
	EventOnlineToggled  = "OnlineToggled"
)

const Topic = "driver_events"

type Event struct {
	ID        string  `json:"id"`
	Timestamp int64   `json:"timestamp"`
	EventType string  `json:"eventType"`
	DriverID  string  `json:"driverId,omitempty"`
	OrderID   string  `json:"orderId,omitempty"`
	Lat       float64 `json:"lat,omitempty"`
	Lng       float64 `json:"lng,omitempty"`
	Status    string  `json:"status,omitempty"`
	Queued    bool    `json:"queued,omitempty"`
	Flushed   int     `json:"flushed,omitempty"`
	Remaining int     `json:"remaining,omitempty"`
	Online    *bool   `json:"online,omitempty"`
}

type OutputDestination interface {
	WriteMessage(topic string, msg []byte) error
	Close() error
}

// Recorder attaches driver identity to events and forwards them to the
// destination. A nil Recorder drops everything, so call sites stay clean.
type Recorder struct {
	out      OutputDestination
	driverID string
	topic    string
}

func NewRecorder(out OutputDestination, driverID, topic string) *Recorder {
	if topic == "" {
		topic = Topic
	}
	return &Recorder{out: out, driverID: driverID, topic: topic}
}

func (r *Recorder) record(ev Event) {
	if r == nil || r.out == nil {
		return
	}
	ev.ID = cuid.New()
	ev.Timestamp = time.Now().Unix()
	ev.DriverID = r.driverID
	msg, err := json.Marshal(ev)
	if err != nil {
		return
	}
	// telemetry is advisory; a failed write never disturbs the caller
	_ = r.out.WriteMessage(r.topic, msg)
}

func (r *Recorder) Ping(loc models.Location, queued bool) {
	ev := Event{EventType: EventLocationPing, Lat: loc.Lat, Lng: loc.Lng, Queued: queued}
	if queued {
		ev.EventType = EventLocationQueued
	}
	r.record(ev)
}

func (r *Recorder) Flush(flushed, remaining int) {
	r.record(Event{EventType: EventQueueFlushed, Flushed: flushed, Remaining: remaining})
}

func (r *Recorder) Accepted(orderID string) {
	r.record(Event{EventType: EventOrderAccepted, OrderID: orderID})
}

func (r *Recorder) StatusChanged(orderID string, status models.Status) {
	r.record(Event{EventType: EventStatusChanged, OrderID: orderID, Status: string(status)})
}

func (r *Recorder) OnlineToggled(online bool) {
	r.record(Event{EventType: EventOnlineToggled, Online: &online})
}

func (r *Recorder) Close() error {
	if r == nil || r.out == nil {
		return nil
	}
	return r.out.Close()
}

type ConsoleOutput struct{}

func (c *ConsoleOutput) WriteMessage(topic string, msg []byte) error {
	_, err := fmt.Fprintf(os.Stdout, "[%s] %s\n", topic, string(msg))
	return err
}

func (c *ConsoleOutput) Close() error { return nil }

// JSONOutput appends one JSON line per event to a file per topic. Safe for
// concurrent use; the recorder is fed from both the location ticker and the
// connectivity watcher.
type JSONOutput struct {
	basePath string

	mu    sync.Mutex
	files map[string]*os.File
}

func NewJSONOutput(basePath string) *JSONOutput {
	return &JSONOutput{
		basePath: basePath,
		files:    make(map[string]*os.File),
	}
}

func (j *JSONOutput) WriteMessage(topic string, msg []byte) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	f, ok := j.files[topic]
	if !ok {
		if err := os.MkdirAll(j.basePath, 0o755); err != nil {
			return err
		}
		var err error
		f, err = os.OpenFile(filepath.Join(j.basePath, topic+".jsonl"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("failed to create file for topic %s: %w", topic, err)
		}
		j.files[topic] = f
	}
	if _, err := f.Write(append(msg, '\n')); err != nil {
		return fmt.Errorf("failed to write message to topic %s: %w", topic, err)
	}
	return nil
}

func (j *JSONOutput) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	var firstErr error
	for _, f := range j.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
