// Package dispatcher implements the producer-side routing contract a stage
// plugs in to decide, for a batch of events, which subscriber(s) receive
// what (spec.md §6, "Dispatcher contract", and §9's request to "ship three
// built-in implementations").
//
// A Dispatcher owns its own per-subscription demand bookkeeping. The stage
// kernel never inspects it directly: every interaction goes through this
// interface, and the kernel performs the actual send once the dispatcher
// has returned a DispatchPlan (from Dispatch) or a ref-to-message map
// (from Notify).
package dispatcher

// Ref identifies a subscription from the dispatcher's point of view. It is
// an alias of the stage package's SubscriptionRef kept here as a plain
// string to avoid a circular import between pkg/stage and pkg/dispatcher;
// pkg/stage converts to/from its own named type at the call boundary.
type Ref string

// Subscriber describes one consumer subscription the dispatcher must route
// for, as seen at Subscribe/Cancel time.
type Subscriber struct {
	Ref      Ref
	Consumer string // address identifier, for logging only
	Options  map[string]interface{}
	Min      int
	Max      int
}

// DispatchPlan is the result of routing a batch of events across
// subscribers: Deliveries maps each subscription that should receive
// events to the exact slice it should receive, in order; Undispatched is
// whatever the dispatcher could not place (typically: beyond any
// subscriber's remaining demand), which the kernel buffers per keep-policy.
type DispatchPlan struct {
	Deliveries   map[Ref][]interface{}
	Undispatched []interface{}
}

// Dispatcher is the six-method contract from spec §6, adapted to Go: a
// constructor (e.g. NewDemandFair) replaces the `init(opts)` callback,
// since Go dispatchers are ordinary constructed values rather than
// (atom, opts) pairs resolved at runtime.
type Dispatcher interface {
	// Subscribe registers a new subscriber and returns demand newly
	// satisfiable as a result (almost always 0 until the first Ask).
	Subscribe(sub Subscriber) (granted int, err error)

	// Cancel removes a subscriber. Any returned granted count is demand
	// freed up for the remaining subscribers (used by dispatchers, like
	// broadcast, whose grantable count depends on the slowest subscriber).
	Cancel(ref Ref) (granted int, err error)

	// Ask records n additional demand from ref and returns how much new
	// demand the kernel should now try to satisfy by draining its buffer.
	Ask(n int, ref Ref) (granted int, err error)

	// Dispatch routes events across current subscribers per dispatcher
	// policy, returning a delivery plan plus whatever it could not place.
	Dispatch(events []interface{}) (DispatchPlan, error)

	// Notify decides which subscribers should receive an out-of-band
	// notification, and in what shape.
	Notify(msg interface{}) (map[Ref]interface{}, error)
}
