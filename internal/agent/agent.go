// Package agent runs the driver's daemon loop: online state, order polling,
// the location reporting loop with its durable fallback queue, and the
// dashboard aggregate.
package agent

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/opencourier/driverd/internal/api"
	"github.com/opencourier/driverd/internal/lifecycle"
	"github.com/opencourier/driverd/internal/locqueue"
	"github.com/opencourier/driverd/internal/models"
	"github.com/opencourier/driverd/internal/realtime"
	"github.com/opencourier/driverd/internal/state"
	"github.com/opencourier/driverd/internal/telemetry"
)

type Options struct {
	Config *models.Config
	Client *api.Client
	Orders *lifecycle.Manager
	Queue  *locqueue.Queue
	Socket *realtime.Client // optional
	Store  *state.Store     // optional
	Rec    *telemetry.Recorder
	Source LocationSource
	Driver models.Driver
	Token  string

	// Probe overrides the connectivity check, mainly for tests.
	Probe func(ctx context.Context) bool
}

type Agent struct {
	cfg    *models.Config
	client *api.Client
	orders *lifecycle.Manager
	queue  *locqueue.Queue
	socket *realtime.Client
	store  *state.Store
	rec    *telemetry.Recorder
	source LocationSource
	driver models.Driver
	token  string
	probe  func(ctx context.Context) bool

	mu        sync.Mutex
	online    bool
	dashboard models.Dashboard
	lastLoc   *models.Location
}

func New(opts Options) *Agent {
	a := &Agent{
		cfg:    opts.Config,
		client: opts.Client,
		orders: opts.Orders,
		queue:  opts.Queue,
		socket: opts.Socket,
		store:  opts.Store,
		rec:    opts.Rec,
		source: opts.Source,
		driver: opts.Driver,
		token:  opts.Token,
		probe:  opts.Probe,
	}
	if a.store != nil {
		a.orders.OnChange(func(s lifecycle.Snapshot) {
			if err := a.store.SetOrders(s); err != nil {
				log.Printf("Failed to persist orders: %v", err)
			}
		})
	}
	return a
}

// Run drives the agent until ctx is cancelled: goes online, polls pending
// orders, reports location every interval and watches connectivity for flush
// opportunities. Every loop it owns is torn down exactly once on the way out.
func (a *Agent) Run(ctx context.Context) error {
	if a.socket != nil {
		a.socket.OnDashboardUpdated(func() {
			if err := a.RefreshDashboard(ctx); err != nil {
				log.Printf("Dashboard refresh after push failed: %v", err)
			}
		})
		a.socket.Start(a.token, a.driver.ID)
		defer a.socket.Close()
	}

	if err := a.SetOnline(ctx, true); err != nil {
		return err
	}
	defer func() {
		offCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.SetOnline(offCtx, false); err != nil {
			log.Printf("Failed to go offline: %v", err)
		}
	}()

	if err := a.orders.FetchAccepted(ctx); err != nil {
		log.Printf("Initial accepted-orders fetch failed: %v", err)
	}

	poller := lifecycle.StartPolling(a.cfg.PollInterval, func() {
		if !a.Online() {
			return
		}
		if err := a.orders.FetchPending(ctx); err != nil {
			log.Printf("Pending orders poll failed: %v", err)
		}
	})
	defer poller.Stop()

	watcher := NewConnectivityWatcher(a.connectivityProbe(), a.cfg.PollInterval, func() {
		flushCtx, cancel := context.WithTimeout(ctx, a.cfg.APITimeout)
		defer cancel()
		a.FlushQueue(flushCtx)
	})
	watcher.Start(ctx)
	defer watcher.Stop()

	ticker := time.NewTicker(a.cfg.LocationInterval)
	defer ticker.Stop()

	log.Printf("Agent running for driver %s", a.driver.ID)
	for {
		select {
		case <-ticker.C:
			if !a.Online() {
				continue
			}
			if err := a.ReportLocation(ctx); err != nil {
				log.Printf("Location report rejected: %v", err)
			}
		case <-ctx.Done():
			log.Printf("Agent stopping")
			return nil
		}
	}
}

func (a *Agent) connectivityProbe() func(ctx context.Context) bool {
	if a.probe != nil {
		return a.probe
	}
	return ProbeTCP(apiHostPort(a.cfg.APIBaseURL))
}

// ReportLocation samples a fix and relays it. Transport-level failures defer
// the ping to the durable queue and are not errors; business rejections are
// returned for the caller to surface.
func (a *Agent) ReportLocation(ctx context.Context) error {
	loc, ok := a.source.Current()
	if !ok {
		var err error
		loc, err = a.source.Refresh(ctx)
		if err != nil {
			log.Printf("No location fix available: %v", err)
			return nil
		}
	}

	a.mu.Lock()
	a.lastLoc = &loc
	a.mu.Unlock()

	err := a.client.UpdateLocation(ctx, loc.Lat, loc.Lng)
	if err == nil {
		a.rec.Ping(loc, false)
		if a.socket != nil && a.socket.Connected() {
			activeID := ""
			if active := a.orders.Active(); active != nil {
				activeID = active.ID
			}
			if err := a.socket.EmitLocation(activeID, loc.Lat, loc.Lng); err != nil {
				log.Printf("Socket location emit failed: %v", err)
			}
		}
		return nil
	}

	if api.IsNetwork(err) {
		if _, qerr := a.queue.Enqueue(ctx, models.NewQueuedLocation(loc, time.Now())); qerr != nil {
			log.Printf("Failed to queue location: %v", qerr)
		} else {
			a.rec.Ping(loc, true)
		}
		return nil
	}
	return err
}

// FlushQueue drains the durable queue through the REST client. Partial
// success is normal; only storage failures are logged as errors.
func (a *Agent) FlushQueue(ctx context.Context) locqueue.FlushResult {
	res, err := a.queue.Flush(ctx, a.client.UpdateLocation)
	if err != nil {
		log.Printf("Queue flush failed: %v", err)
		return locqueue.FlushResult{}
	}
	if res.Flushed > 0 || len(res.Remaining) > 0 {
		log.Printf("Flushed %d queued locations, %d remaining", res.Flushed, len(res.Remaining))
		a.rec.Flush(res.Flushed, len(res.Remaining))
	}
	return res
}

func (a *Agent) SetOnline(ctx context.Context, online bool) error {
	confirmed, err := a.client.SetOnline(ctx, online)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.online = confirmed
	a.mu.Unlock()
	a.rec.OnlineToggled(confirmed)

	if err := a.RefreshDashboard(ctx); err != nil {
		log.Printf("Dashboard refresh failed: %v", err)
	}
	return nil
}

func (a *Agent) Online() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.online
}

// Accept claims a pending order and refreshes the dependent aggregate.
func (a *Agent) Accept(ctx context.Context, orderID string) (models.Order, error) {
	order, err := a.orders.Accept(ctx, orderID)
	if err != nil {
		return models.Order{}, err
	}
	a.rec.Accepted(order.ID)
	if err := a.RefreshDashboard(ctx); err != nil {
		log.Printf("Dashboard refresh failed: %v", err)
	}
	return order, nil
}

// UpdateStatus progresses an order and refreshes the accepted list and the
// dashboard, the way every status-changing action does.
func (a *Agent) UpdateStatus(ctx context.Context, orderID string, status models.Status) error {
	if err := a.orders.UpdateStatus(ctx, orderID, status); err != nil {
		return err
	}
	a.rec.StatusChanged(orderID, status)

	if err := a.orders.FetchAccepted(ctx); err != nil {
		log.Printf("Accepted orders refresh failed: %v", err)
	}
	if err := a.RefreshDashboard(ctx); err != nil {
		log.Printf("Dashboard refresh failed: %v", err)
	}
	return nil
}

// RefreshDashboard replaces the aggregate wholesale from the backend.
func (a *Agent) RefreshDashboard(ctx context.Context) error {
	d, err := a.client.Dashboard(ctx, a.driver.ID)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.dashboard = d
	a.mu.Unlock()
	return nil
}

func (a *Agent) Dashboard() models.Dashboard {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dashboard
}

func (a *Agent) LastLocation() *models.Location {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.lastLoc == nil {
		return nil
	}
	l := *a.lastLoc
	return &l
}
