/*
Package dispatcher implements the producer-side event routing contract
(spec.md §6, §9) and three built-in strategies.

# Architecture

	┌────────────────────── DISPATCH PIPELINE ───────────────────────┐
	│                                                                   │
	│   buffered events ──▶ Dispatcher.Dispatch(events) ──▶ plan       │
	│                              │                                    │
	│            ┌─────────────────┼──────────────────┐                │
	│            ▼                 ▼                   ▼                │
	│      DemandFair          Broadcast           Partition            │
	│   (default; spreads   (same events to    (routes by a user      │
	│    events to whoever   every subscriber,   supplied key func     │
	│    has the most        capped by the        across N fixed       │
	│    pending demand)      slowest subscriber)  partitions)          │
	│            │                 │                   │                │
	│            └─────────────────┴──────────────────┘                │
	│                              ▼                                    │
	│                    DispatchPlan{Deliveries, Undispatched}         │
	└───────────────────────────────────────────────────────────────────┘

Every strategy keeps its own per-subscription demand bookkeeping and is
otherwise stateless with respect to the stage kernel: the kernel owns
buffering, buffer eviction, and the actual message sends, while the
dispatcher only ever decides *who* gets *what*.
*/
package dispatcher
