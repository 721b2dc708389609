package lifecycle

import (
	"sync"
	"time"
)

// Poller is an owned polling handle: whoever starts it stops it. Stop is safe
// to call more than once and after the poller already stopped.
type Poller struct {
	stop chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// StartPolling runs fn immediately and then on every interval tick until
// Stop is called.
func StartPolling(interval time.Duration, fn func()) *Poller {
	p := &Poller{stop: make(chan struct{})}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		fn()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fn()
			case <-p.stop:
				return
			}
		}
	}()
	return p
}

// Stop tears the poller down exactly once and waits for the loop to exit.
func (p *Poller) Stop() {
	p.once.Do(func() { close(p.stop) })
	p.wg.Wait()
}
