package actor

// Mailbox is the bounded inbound queue owned by exactly one stage
// goroutine. It is the Go substitute for the host process inbox that
// spec.md §5 assumes ("each stage... owns a private message queue").
type Mailbox struct {
	addr Address
	ch   chan Envelope
}

// DefaultMailboxSize bounds how many pending envelopes a stage tolerates
// before a sender blocks. Control messages (ASK, CANCEL, ACK) and EVENTS
// share the one channel and are received in arrival order.
const DefaultMailboxSize = 256

// NewMailbox allocates a mailbox with the given capacity. A capacity of 0
// yields an unbuffered (synchronous-handoff) mailbox.
func NewMailbox(capacity int) *Mailbox {
	ch := make(chan Envelope, capacity)
	return &Mailbox{ch: ch, addr: newAddress(ch)}
}

// Address returns the mailbox's externally visible send handle.
func (m *Mailbox) Address() Address {
	return m.addr
}

// Receive returns the channel a stage's run loop selects on.
func (m *Mailbox) Receive() <-chan Envelope {
	return m.ch
}

// Close releases the mailbox's channel. Callers must ensure no further
// sends are attempted afterward; Address.Send on a closed mailbox panics,
// matching Go channel semantics rather than silently dropping messages.
func (m *Mailbox) Close() {
	close(m.ch)
}
