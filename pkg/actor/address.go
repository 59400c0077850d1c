package actor

import "github.com/google/uuid"

// Address identifies a mailbox. It is opaque, comparable, and safe to send
// between goroutines; it carries no pointer back to the mailbox itself so
// that a stage can only ever be reached by sending, never by reaching into
// its state directly.
type Address struct {
	id   string
	send chan<- Envelope
}

// Envelope is the unit of delivery between two addresses. Tag identifies
// the message kind (see pkg/stage/protocol.go); Payload is message-specific.
type Envelope struct {
	Tag     string
	From    Address
	Payload interface{}
}

// String returns the address's stable identifier, suitable for logging.
func (a Address) String() string {
	return a.id
}

// IsZero reports whether a is the zero Address (unresolved/absent peer).
func (a Address) IsZero() bool {
	return a.send == nil
}

// Equal reports whether two addresses refer to the same mailbox.
func (a Address) Equal(other Address) bool {
	return a.id == other.id
}

// Send delivers env to a's mailbox. It never blocks the caller beyond the
// mailbox's buffer: a full mailbox applies back-pressure to the sender,
// mirroring the host runtime's synchronous-send semantics referenced in
// spec §5 ("Message order between any two stages is preserved").
func (a Address) Send(env Envelope) {
	if a.IsZero() {
		return
	}
	a.send <- env
}

// newAddress allocates a fresh, globally unique address backed by ch.
func newAddress(ch chan<- Envelope) Address {
	return Address{id: uuid.NewString(), send: ch}
}
