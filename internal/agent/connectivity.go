package agent

import (
	"context"
	"net"
	"net/url"
	"sync"
	"time"
)

// ConnectivityWatcher observes reachability and fires onOnline exactly once
// per offline-to-online transition. Edge-triggered on purpose: a flush storm
// while already online would be pure waste.
type ConnectivityWatcher struct {
	probe    func(ctx context.Context) bool
	interval time.Duration
	onOnline func()

	stop chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

func NewConnectivityWatcher(probe func(ctx context.Context) bool, interval time.Duration, onOnline func()) *ConnectivityWatcher {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &ConnectivityWatcher{
		probe:    probe,
		interval: interval,
		onOnline: onOnline,
		stop:     make(chan struct{}),
	}
}

func (w *ConnectivityWatcher) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		// starts as "offline" so a reachable backend at startup triggers one
		// flush of whatever the previous run left behind
		was := false
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			connected := w.probe(ctx)
			if connected && !was {
				w.onOnline()
			}
			was = connected

			select {
			case <-ticker.C:
			case <-w.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop tears the watcher down; calling it again is a no-op.
func (w *ConnectivityWatcher) Stop() {
	w.once.Do(func() { close(w.stop) })
	w.wg.Wait()
}

// apiHostPort extracts a dialable host:port from the API base URL.
func apiHostPort(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return baseURL
	}
	if u.Port() != "" {
		return u.Host
	}
	if u.Scheme == "https" {
		return u.Host + ":443"
	}
	return u.Host + ":80"
}

// ProbeTCP returns a probe that dials the given host:port.
func ProbeTCP(addr string) func(ctx context.Context) bool {
	dialer := &net.Dialer{Timeout: 3 * time.Second}
	return func(ctx context.Context) bool {
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return false
		}
		_ = conn.Close()
		return true
	}
}
