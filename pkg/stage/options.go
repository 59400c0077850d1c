package stage

import "fmt"

// Role identifies what a stage may do on the wire (spec §3: "type: one of
// {PRODUCER, CONSUMER, PRODUCER_CONSUMER} — immutable").
type Role int

const (
	RoleProducer Role = iota
	RoleConsumer
	RoleProducerConsumer
)

func (r Role) String() string {
	switch r {
	case RoleProducer:
		return "producer"
	case RoleConsumer:
		return "consumer"
	case RoleProducerConsumer:
		return "producer_consumer"
	default:
		return "unknown"
	}
}

// CancelMode governs what happens to a consumer when it loses its
// producer (spec §6, "Subscription options").
type CancelMode int

const (
	// CancelPermanent: losing the producer stops the consumer with the
	// producer's exit reason. Default.
	CancelPermanent CancelMode = iota
	// CancelTemporary: losing the producer is reported to handle_cancel
	// but the consumer keeps running.
	CancelTemporary
)

// KeepPolicy governs which events survive when the producer buffer
// overflows (spec §4.4, §8).
type KeepPolicy int

const (
	// KeepLast evicts the oldest buffered events to make room for new
	// ones. Default for producers.
	KeepLast KeepPolicy = iota
	// KeepFirst drops incoming events once the buffer is full,
	// preserving whatever was enqueued first.
	KeepFirst
)

// Unbounded marks a buffer with no size limit (producer-consumer default).
const Unbounded = -1

// DefaultMaxDemand is the default max_demand for a subscription (spec §6).
const DefaultMaxDemand = 1000

// DefaultBufferSize is the default producer buffer_size (spec §6).
const DefaultBufferSize = 10000

// SubscribeMode is returned by a HandleSubscribe callback to pick between
// the automatic demand engine and fully user-driven manual mode (spec §3,
// "Manual").
type SubscribeMode int

const (
	Automatic SubscribeMode = iota
	Manual
)

// SubscriptionOptions configures one consumer->producer subscription
// (spec §6, "Subscription options").
type SubscriptionOptions struct {
	Cancel     CancelMode
	MinDemand  int
	MaxDemand  int
	HasMin     bool // whether MinDemand was explicitly set; else derived from MaxDemand/2
	Opts       map[string]interface{}
}

// Validate fills in defaults and checks the invariants spec §6 and §4.3
// require: `0 ≤ min < max`, `max ∈ [1, ∞)`.
func (o *SubscriptionOptions) Validate() error {
	if o.MaxDemand == 0 {
		o.MaxDemand = DefaultMaxDemand
	}
	if o.MaxDemand < 1 {
		return fmt.Errorf("%w: max_demand must be >= 1, got %d", ErrBadOpts, o.MaxDemand)
	}
	if !o.HasMin {
		o.MinDemand = o.MaxDemand / 2
	}
	if o.MinDemand < 0 || o.MinDemand >= o.MaxDemand {
		return fmt.Errorf("%w: min_demand must be in [0, max_demand-1], got min=%d max=%d", ErrBadOpts, o.MinDemand, o.MaxDemand)
	}
	if o.Opts == nil {
		o.Opts = map[string]interface{}{}
	}
	return nil
}

// ProducerOptions configures a producer or producer-consumer's buffer
// (spec §6, "Init options").
type ProducerOptions struct {
	BufferSize int
	BufferKeep KeepPolicy
}

// Validate fills in defaults and checks the buffer_size invariant.
func (o *ProducerOptions) Validate() error {
	if o.BufferSize == 0 {
		o.BufferSize = DefaultBufferSize
	}
	if o.BufferSize < 0 && o.BufferSize != Unbounded {
		return fmt.Errorf("%w: buffer_size must be >= 0 or Unbounded, got %d", ErrBadOpts, o.BufferSize)
	}
	return nil
}

// SubscribeTo pairs a producer address with the options to subscribe
// with, used by a consumer or producer-consumer's `subscribe_to` init
// option (spec §6).
type SubscribeTo struct {
	Producer Address
	Options  SubscriptionOptions
}
