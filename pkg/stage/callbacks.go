package stage

// Events is a batch of opaque application events flowing between stages.
// Producers emit them, consumers ingest them; the runtime never inspects
// their contents.
type Events []interface{}

// CancelKind distinguishes a locally/peer-initiated cancel from one
// synthesized out of a Down delivery (spec §5, "Cancellation semantics").
type CancelKind int

const (
	CancelExplicit CancelKind = iota
	CancelDown
)

// CancelReason is passed to HandleCancel (spec §4.1: "handle_cancel(reason, from, state)").
type CancelReason struct {
	Kind CancelKind
	Err  error
}

// Producer is implemented by a module driving a PRODUCER stage. Unlike the
// Erlang contract's functional (events, new_state) return — which threads
// state through every call — a Go module simply owns its state as fields
// on the receiver; only emitted events and errors travel back to the
// kernel (spec §4.1: "user_state: opaque application state threaded
// through callbacks").
type Producer interface {
	// HandleDemand is called with the number of additional events the
	// kernel needs to satisfy outstanding demand once the buffer has
	// been drained (spec §4.4, point 2).
	HandleDemand(n int) (Events, error)
}

// Consumer is implemented by a module driving a CONSUMER stage, and also
// by a PRODUCER_CONSUMER module (which additionally implements Producer's
// demand side implicitly through the bridge rather than HandleDemand).
type Consumer interface {
	// HandleEvents processes one sub-batch, already split to at most
	// max-min events (spec §4.3). A pure consumer normally returns nil
	// events; a producer-consumer returns the events it derived from
	// the batch, which the kernel immediately dispatches downstream.
	HandleEvents(events Events, from Address) (Events, error)
}

// SubscriptionHandler is optionally implemented to observe or veto a new
// subscription and choose automatic vs. manual demand mode (spec §4.1,
// §4.2: "handle_subscribe(role, opts, from, state)"). If a module does not
// implement it, Automatic mode is assumed.
type SubscriptionHandler interface {
	HandleSubscribe(role Role, opts SubscriptionOptions, from Address) (SubscribeMode, Events, error)
}

// CancelHandler is optionally implemented to react to a subscription
// ending, emitting final events if useful (spec §4.1, §4.2). If absent,
// cancellation is silent.
type CancelHandler interface {
	HandleCancel(reason CancelReason, from Address) (Events, error)
}

// CallHandler is optionally implemented to answer synchronous requests
// (spec §4.1: "handle_call").
type CallHandler interface {
	HandleCall(request interface{}, from Address) (reply interface{}, events Events, err error)
}

// CastHandler is optionally implemented to react to fire-and-forget
// messages (spec §4.1: "handle_cast").
type CastHandler interface {
	HandleCast(message interface{}) (Events, error)
}

// InfoHandler is optionally implemented to react to any other message
// delivered to the stage's mailbox (spec §4.1: "handle_info", folded here
// into the generic handle_call/cast/info row of the callback table).
type InfoHandler interface {
	HandleInfo(message interface{}) (Events, error)
}

// Terminator is optionally implemented to run cleanup when a stage stops
// (spec §4.1: "terminate(reason, state) — ignored").
type Terminator interface {
	Terminate(reason error)
}

// Stop lets any callback request the stage stop after it returns, with
// a reason (spec §4.1: "Any callback ... may return STOP with a reason.").
// A module signals this by returning the error Stop builds, unwrapped,
// from a callback; an error that wraps it is not recognised as a stop
// request and is treated as a bad return.
func Stop(reason error) error {
	return &stopRequest{reason: reason}
}

type stopRequest struct{ reason error }

func (s *stopRequest) Error() string {
	if s.reason == nil {
		return "stage: stop requested"
	}
	return s.reason.Error()
}

func (s *stopRequest) Unwrap() error { return s.reason }

// asStopRequest reports whether err requests a stage stop, and its reason.
func asStopRequest(err error) (reason error, stop bool) {
	if sr, ok := err.(*stopRequest); ok {
		return sr.reason, true
	}
	return nil, false
}
