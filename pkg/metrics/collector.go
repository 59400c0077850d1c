package metrics

import (
	"sync"
	"time"
)

// StatsProvider is satisfied by anything that can report a point-in-time
// snapshot of its queueing state. pkg/stage.Stage implements this
// structurally (no import back into this package is needed).
type StatsProvider interface {
	Stats() (bufferLen, pendingDemand, consumers int)
}

// Collector periodically samples a set of registered stages and updates
// the occupancy/demand gauges. Unlike the counters in metrics.go, which
// are incremented inline at the point an event is dispatched, dropped,
// or delivered, occupancy and demand are point-in-time values that only
// a poll can observe correctly.
type Collector struct {
	mu       sync.Mutex
	named    map[string]StatsProvider
	interval time.Duration
	stopCh   chan struct{}
}

// NewCollector creates a collector that samples every interval.
func NewCollector(interval time.Duration) *Collector {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Collector{
		named:    make(map[string]StatsProvider),
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Register adds a stage to the sampling set under a human-readable name
// (usually the pipeline topology name from the applied config, not the
// runtime mailbox address).
func (c *Collector) Register(name string, provider StatsProvider) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.named[name] = provider
}

// Unregister removes a stage, e.g. once its subscription has been
// cancelled and it has terminated.
func (c *Collector) Unregister(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.named, name)
	BufferOccupancy.DeleteLabelValues(name)
	DemandPending.DeleteLabelValues(name)
}

// Start begins the sampling loop in its own goroutine.
func (c *Collector) Start() {
	ticker := time.NewTicker(c.interval)
	go func() {
		c.sample()
		for {
			select {
			case <-ticker.C:
				c.sample()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop ends the sampling loop.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) sample() {
	c.mu.Lock()
	snapshot := make(map[string]StatsProvider, len(c.named))
	for name, p := range c.named {
		snapshot[name] = p
	}
	c.mu.Unlock()

	active := 0
	for name, p := range snapshot {
		bufferLen, pendingDemand, consumers := p.Stats()
		BufferOccupancy.WithLabelValues(name).Set(float64(bufferLen))
		DemandPending.WithLabelValues(name).Set(float64(pendingDemand))
		active += consumers
	}
	SubscriptionsActive.Set(float64(active))
}
