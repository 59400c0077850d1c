package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeStats struct {
	bufferLen     int
	pendingDemand int
	consumers     int
}

func (f fakeStats) Stats() (bufferLen, pendingDemand, consumers int) {
	return f.bufferLen, f.pendingDemand, f.consumers
}

func TestCollectorSampleUpdatesGauges(t *testing.T) {
	c := NewCollector(10 * time.Millisecond)
	c.Register("source", fakeStats{bufferLen: 42, pendingDemand: 7, consumers: 2})
	c.Register("sink", fakeStats{bufferLen: 0, pendingDemand: 3, consumers: 1})

	c.sample()

	if got := testutil.ToFloat64(BufferOccupancy.WithLabelValues("source")); got != 42 {
		t.Errorf("BufferOccupancy[source] = %v, want 42", got)
	}
	if got := testutil.ToFloat64(DemandPending.WithLabelValues("sink")); got != 3 {
		t.Errorf("DemandPending[sink] = %v, want 3", got)
	}
	if got := testutil.ToFloat64(SubscriptionsActive); got != 3 {
		t.Errorf("SubscriptionsActive = %v, want 3 (2+1 across registered stages)", got)
	}
}

func TestCollectorUnregisterStopsSampling(t *testing.T) {
	c := NewCollector(10 * time.Millisecond)
	c.Register("gone", fakeStats{bufferLen: 5, consumers: 1})
	c.sample()

	c.Unregister("gone")
	c.Register("stays", fakeStats{bufferLen: 1, consumers: 1})
	c.sample()

	if got := testutil.ToFloat64(SubscriptionsActive); got != 1 {
		t.Errorf("SubscriptionsActive = %v, want 1 after unregistering", got)
	}
}

func TestCollectorStartStopDoesNotPanic(t *testing.T) {
	c := NewCollector(5 * time.Millisecond)
	c.Register("ticking", fakeStats{bufferLen: 1, consumers: 1})
	c.Start()
	time.Sleep(20 * time.Millisecond)
	c.Stop()
}

func TestNewCollectorDefaultsInterval(t *testing.T) {
	c := NewCollector(0)
	if c.interval != 5*time.Second {
		t.Errorf("NewCollector(0).interval = %v, want 5s default", c.interval)
	}
}
