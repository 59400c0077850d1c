/*
Package actor provides the goroutine-and-channel substitute for a host
actor runtime that the stage pipeline is built on top of.

Go has no built-in notion of an isolated, monitorable process, so this
package supplies the minimal pieces spec.md's design notes ask for: an
opaque, send-only Address; a bounded Mailbox owned by exactly one
goroutine; and a System that plays the role of a process monitor table,
delivering a Down envelope to watchers when a monitored address's owning
goroutine returns or panics.

# Architecture

	┌─────────────────────── ACTOR RUNTIME ───────────────────────┐
	│                                                                │
	│   Spawn(sys, size, fn) ──────────────┐                        │
	│                                       ▼                        │
	│                              ┌─────────────────┐               │
	│                              │    goroutine     │              │
	│                              │  fn(mailbox)     │              │
	│                              └───────┬─────────┘               │
	│                                      │ recv / send              │
	│                              ┌───────▼─────────┐               │
	│                              │     Mailbox      │              │
	│                              │  bounded chan    │              │
	│                              └───────┬─────────┘               │
	│                                      │ Address.Send(Envelope)   │
	│              ┌───────────────────────┴──────────────────┐      │
	│              │                                            │      │
	│       other stage's Address                        System.Monitor │
	│                                                      (watch table) │
	│                                                            │      │
	│                                           goroutine exits/panics  │
	│                                                            ▼      │
	│                                              System.MarkDown(addr)│
	│                                                            │      │
	│                                          Down{} delivered to every │
	│                                          watcher's mailbox          │
	└────────────────────────────────────────────────────────────┘

Stages never hold a pointer to a peer's state, only its Address — the
"weak reference" cyclic-relations design spec §9 calls for. All cleanup is
driven by explicit Cancel messages or a Down delivery, never by reaching
across a goroutine boundary.
*/
package actor
