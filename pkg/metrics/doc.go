/*
Package metrics provides Prometheus metrics collection and exposition for
the stage pipeline runtime.

The package defines and registers every runtime metric through the
Prometheus client library, giving visibility into buffer occupancy,
demand flow, event throughput, and stage lifecycle. Metrics are exposed
over HTTP for scraping by a Prometheus server.

# Metric categories

Stage lifecycle:

  - stagepipe_stages_active{role}: gauge, stages currently running
  - stagepipe_stage_crashes_total{role}: counter, stages that terminated
    with a non-nil reason

Subscriptions and queueing:

  - stagepipe_subscriptions_active: gauge, live producer<->consumer links
  - stagepipe_buffer_occupancy{stage}: gauge, events held in a stage's
    buffer, sampled by Collector
  - stagepipe_demand_pending{stage}: gauge, outstanding pending demand,
    sampled by Collector

Event flow:

  - stagepipe_events_dispatched_total: counter, events sent straight to a
    consumer without touching the buffer
  - stagepipe_events_delivered_total: counter, events delivered to
    consumers overall (including buffer drains)
  - stagepipe_events_dropped_total: counter, events discarded by a
    bounded buffer's keep policy on overflow
  - stagepipe_notifications_delivered_total: counter, out-of-band
    notifications delivered to consumers

Latency:

  - stagepipe_call_duration_seconds: histogram, synchronous Call/
    SyncNotify round-trip time
  - stagepipe_dispatch_duration_seconds: histogram, time spent routing
    one batch through a producer's dispatch pipeline

# Two instrumentation styles

Counters and histograms are incremented inline, at the call site where
the event actually happens (a dropped batch, a delivered notification,
a completed Call) - this is the cheapest and most accurate way to track
monotonic totals and durations.

Gauges that represent a point-in-time snapshot of a stage's internal
state (buffer occupancy, pending demand) cannot be tracked this way
without adding contention to the stage's single-goroutine loop. Instead
Collector polls a registered set of stages on an interval, using the
StatsProvider interface so this package never imports pkg/stage.

# Usage

	collector := metrics.NewCollector(5 * time.Second)
	collector.Register("ingest", ingestStage)
	collector.Start()
	defer collector.Stop()

	http.Handle("/metrics", metrics.Handler())
	http.ListenAndServe(":9090", nil)
*/
package metrics
