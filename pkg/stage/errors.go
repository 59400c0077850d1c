package stage

import "errors"

var (
	// ErrBadOpts is returned by NewProducer, NewConsumer,
	// NewProducerConsumer and Subscribe when subscription or stage
	// options fail validation (spec §6, §7: "BAD_OPTS{msg} — fatal at
	// init"), and by Stage.Ask for a non-positive count.
	ErrBadOpts = errors.New("stage: bad options")

	// ErrUnknownSubscription is sent back to a peer, and returned to a
	// local caller, when a protocol message references a ref the
	// receiving side has no record of (spec §4.2, §7).
	ErrUnknownSubscription = errors.New("stage: unknown subscription")

	// ErrDuplicateSubscription is sent to a consumer that reuses a ref
	// already registered on the producer (spec §4.2).
	ErrDuplicateSubscription = errors.New("stage: duplicated subscription")

	// ErrNotAProducer is returned by SyncNotify when called against a
	// pure consumer (spec §4.6).
	ErrNotAProducer = errors.New("stage: not a producer")

	// ErrBadReturn is the STOP reason when a callback returns a shape
	// outside its documented contract (spec §4.1, §7).
	ErrBadReturn = errors.New("stage: callback returned an invalid value")

	// ErrNoProc is the STOP reason when a PERMANENT consumer's
	// subscribe target cannot be resolved (spec §4.2).
	ErrNoProc = errors.New("stage: producer address could not be resolved")

	// ErrStopped names a stage that has already terminated. No client
	// call in this package returns it: a synchronous call to a stopped
	// stage gets no reply and reports ErrTimeout.
	ErrStopped = errors.New("stage: already stopped")

	// ErrTimeout is returned by synchronous calls (Call, SyncNotify,
	// Subscribe, CancelSubscription) that do not receive a reply before their deadline
	// (spec §5, "Timeouts").
	ErrTimeout = errors.New("stage: synchronous call timed out")
)
