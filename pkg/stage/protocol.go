package stage

import (
	"github.com/cuemby/stagepipe/pkg/actor"
	"github.com/google/uuid"
)

// Address re-exports actor.Address so callers of this package never need
// to import pkg/actor directly.
type Address = actor.Address

// SubscriptionRef is the globally unique identifier a consumer mints for
// each subscription it opens (spec §3: "ref is globally unique and chosen
// by the consumer").
type SubscriptionRef string

// NewSubscriptionRef mints a fresh, globally unique ref.
func NewSubscriptionRef() SubscriptionRef {
	return SubscriptionRef(uuid.NewString())
}

// Wire message tags (spec §6: "Every message is a 3-tuple (TAG, from, payload)").
const (
	TagSubscribe        = "subscribe"    // consumer -> producer
	TagAsk              = "ask"          // consumer -> producer
	TagCancel           = "cancel"       // either direction
	TagAck              = "ack"          // producer -> consumer
	TagEvents           = "events"       // producer -> consumer
	TagNotification     = "notification" // producer -> consumer
	TagRedirect         = "redirect"     // reserved, see spec §9 Open Question (a); unused
	TagCall             = "call"         // sync request, either direction
	TagCallReply        = "call_reply"
	TagCast             = "cast"
	TagInfo             = "info"
	TagSyncNotify       = "sync_notify"       // external caller -> producer
	TagSubscribeRequest = "subscribe_request" // external caller -> consumer
	TagCancelRequest    = "cancel_request"    // external caller -> consumer or producer
)

// SubscribePayload is sent consumer->producer to open a subscription.
type SubscribePayload struct {
	Ref     SubscriptionRef
	Options SubscriptionOptions
}

// AskPayload is sent consumer->producer to grant additional demand.
type AskPayload struct {
	Ref   SubscriptionRef
	Count int
}

// CancelPayload is sent by either side to tear down a subscription.
type CancelPayload struct {
	Ref    SubscriptionRef
	Reason error
	// FromDown is set when this Cancel was synthesized locally from a
	// Down delivery rather than sent by the peer over the wire.
	FromDown bool
}

// AckPayload is sent producer->consumer once a subscription is accepted.
type AckPayload struct {
	Ref SubscriptionRef
}

// EventsPayload is sent producer->consumer carrying a batch of events.
type EventsPayload struct {
	Ref    SubscriptionRef
	Events []interface{}
}

// NotificationPayload is sent producer->consumer carrying an out-of-band
// message, interleaved in order with EVENTS (spec §4.6).
type NotificationPayload struct {
	Ref SubscriptionRef
	Msg interface{}
}

// CallPayload is a synchronous request (spec §4.1, "handle_call").
type CallPayload struct {
	ID      string
	Request interface{}
	ReplyTo Address
}

// CallReplyPayload answers a CallPayload.
type CallReplyPayload struct {
	ID    string
	Reply interface{}
	Err   error
}

// CastPayload is an asynchronous message (spec §4.1, "handle_cast").
type CastPayload struct {
	Message interface{}
}

// InfoPayload is any out-of-band message not part of the subscription
// protocol (spec §4.1, "handle_info" / "handle_call/cast/info").
type InfoPayload struct {
	Message interface{}
}

// SyncNotifyPayload requests a producer enqueue (or immediately deliver)
// an out-of-band notification (spec §4.6, "sync_notify"). The reply
// travels back as a CallReplyPayload addressed by ID.
type SyncNotifyPayload struct {
	ID      string
	Msg     interface{}
	ReplyTo Address
}

// SubscribeRequestPayload asks a running consumer (or producer-consumer)
// to open a new subscription from outside its own goroutine. The reply
// carries the minted SubscriptionRef as CallReplyPayload.Reply.
type SubscribeRequestPayload struct {
	ID      string
	To      SubscribeTo
	ReplyTo Address
}

// CancelRequestPayload asks a running consumer (or producer-consumer) to
// cancel one of its own subscriptions from outside its own goroutine.
type CancelRequestPayload struct {
	ID      string
	Ref     SubscriptionRef
	Reason  error
	ReplyTo Address
}
