/*
Package log provides structured logging for the stage runtime using zerolog.

The log package wraps zerolog to give every stage, subscription, and
dispatcher a structured, component-tagged logger with timestamps and
level filtering. The runtime's diagnostics — wrong-role and duplicated
subscription messages, buffer drops, excess-event clamps, a stage stopping
on an error — flow through this package rather than fmt.Printf, so they
can be filtered and aggregated in production.

# Architecture

	┌──────────────────── LOGGING SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │            Global Logger                    │          │
	│  │  - zerolog.Logger instance                  │          │
	│  │  - Initialized via log.Init()               │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │         Component Loggers                   │          │
	│  │  - WithComponent("dispatcher")               │          │
	│  │  - WithStage("producer-1")                  │          │
	│  │  - WithSubscription("sub-7f2a")              │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │            Log Output                       │          │
	│  │  JSON:    {"level":"warn","stage":"p1",...} │          │
	│  │  Console: 10:30AM WRN buffer overflow ...   │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Levels

  - Debug: not emitted by the runtime
  - Info: per-batch receipt in the CLI's print sink; the stage runtime
    emits none
  - Warn: buffer overflow, wrong-role and duplicated-subscription
    messages, unexpected call replies, events returned by a consumer-side
    handle_subscribe
  - Error: excess-event clamps, a stage stopping on an error (including
    BAD_RETURN), events returned by a pure consumer's handle_events

# Usage

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})
	logger := log.WithStage(addr.String())
	logger.Warn().Int("dropped", n).Msg("buffer overflow, events discarded")
*/
package log
