package agent

import (
	"context"
	"math"
	"math/rand"
	"sync"

	"github.com/opencourier/driverd/internal/models"
)

// LocationSource supplies device coordinates. Current returns the cached fix
// when one exists; Refresh obtains a fresh one on demand.
type LocationSource interface {
	Current() (models.Location, bool)
	Refresh(ctx context.Context) (models.Location, error)
}

// FixedSource always reports the same coordinates. Useful for depot-bound
// testing and for wiring a single external fix through config.
type FixedSource struct {
	loc models.Location
}

func NewFixedSource(loc models.Location) *FixedSource {
	return &FixedSource{loc: loc}
}

func (f *FixedSource) Current() (models.Location, bool) { return f.loc, true }

func (f *FixedSource) Refresh(ctx context.Context) (models.Location, error) {
	return f.loc, nil
}

// WalkSource simulates a driver moving through the city as a bounded random
// walk from a starting point. Each Refresh advances one step.
type WalkSource struct {
	mu     sync.Mutex
	cur    models.Location
	stepKm float64
	rng    *rand.Rand
	hasFix bool
}

func NewWalkSource(start models.Location, stepKm float64, seed int64) *WalkSource {
	return &WalkSource{
		cur:    start,
		stepKm: stepKm,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

func (w *WalkSource) Current() (models.Location, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cur, w.hasFix
}

func (w *WalkSource) Refresh(ctx context.Context) (models.Location, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	heading := w.rng.Float64() * 2 * math.Pi
	latStep := w.stepKm / 111.0 // approx km per degree of latitude
	lngStep := latStep / math.Cos(w.cur.Lat*math.Pi/180.0)

	w.cur.Lat += math.Sin(heading) * latStep
	w.cur.Lng += math.Cos(heading) * lngStep
	w.hasFix = true
	return w.cur, nil
}
