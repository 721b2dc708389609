package models

import "time"

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// QueuedLocation is a location ping that could not be delivered and sits in
// the durable queue until the next flush.
type QueuedLocation struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
	At  int64   `json:"at"` // epoch millis, when the ping was sampled
}

func NewQueuedLocation(loc Location, at time.Time) QueuedLocation {
	return QueuedLocation{Lat: loc.Lat, Lng: loc.Lng, At: at.UnixMilli()}
}
