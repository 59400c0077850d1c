package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// StagesActive tracks how many stage goroutines are currently running,
	// broken down by role (producer, consumer, producer_consumer).
	StagesActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stagepipe_stages_active",
			Help: "Number of running stages by role",
		},
		[]string{"role"},
	)

	// SubscriptionsActive tracks live producer<->consumer subscriptions.
	SubscriptionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "stagepipe_subscriptions_active",
			Help: "Total number of active subscriptions across all stages",
		},
	)

	// BufferOccupancy reports how many events a named stage's buffer is
	// currently holding, sampled by the collector.
	BufferOccupancy = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stagepipe_buffer_occupancy",
			Help: "Number of events currently held in a stage's buffer",
		},
		[]string{"stage"},
	)

	// DemandPending reports outstanding consumer-side pending demand for a
	// named stage, summed across its subscriptions.
	DemandPending = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stagepipe_demand_pending",
			Help: "Outstanding pending demand on a stage's subscriptions",
		},
		[]string{"stage"},
	)

	// EventsDispatchedTotal counts events handed directly from a producer
	// to a consumer without touching the buffer.
	EventsDispatchedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stagepipe_events_dispatched_total",
			Help: "Total events dispatched straight to a subscribed consumer",
		},
	)

	// EventsDeliveredTotal counts events delivered to consumers, including
	// those first drained from a buffer.
	EventsDeliveredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stagepipe_events_delivered_total",
			Help: "Total events delivered to consumers",
		},
	)

	// EventsDroppedTotal counts events discarded by a bounded buffer's
	// keep policy on overflow.
	EventsDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stagepipe_events_dropped_total",
			Help: "Total events discarded by a bounded buffer's keep policy",
		},
	)

	// NotificationsDeliveredTotal counts out-of-band notifications
	// delivered to consumers.
	NotificationsDeliveredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stagepipe_notifications_delivered_total",
			Help: "Total notifications delivered to consumers",
		},
	)

	// StageCrashesTotal counts stages that terminated with a non-nil
	// reason (spec's DOWN propagation), labeled by role.
	StageCrashesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stagepipe_stage_crashes_total",
			Help: "Total stages that terminated with a non-nil reason",
		},
		[]string{"role"},
	)

	// CallDuration tracks round-trip latency of synchronous Call/SyncNotify
	// requests against a stage.
	CallDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stagepipe_call_duration_seconds",
			Help:    "Round-trip latency of synchronous stage calls",
			Buckets: prometheus.DefBuckets,
		},
	)

	// DispatchDuration tracks time spent in a producer's dispatch pipeline
	// per batch (dispatcher.Dispatch through buffer/send).
	DispatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stagepipe_dispatch_duration_seconds",
			Help:    "Time spent routing one batch through the dispatch pipeline",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(StagesActive)
	prometheus.MustRegister(SubscriptionsActive)
	prometheus.MustRegister(BufferOccupancy)
	prometheus.MustRegister(DemandPending)
	prometheus.MustRegister(EventsDispatchedTotal)
	prometheus.MustRegister(EventsDeliveredTotal)
	prometheus.MustRegister(EventsDroppedTotal)
	prometheus.MustRegister(NotificationsDeliveredTotal)
	prometheus.MustRegister(StageCrashesTotal)
	prometheus.MustRegister(CallDuration)
	prometheus.MustRegister(DispatchDuration)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
