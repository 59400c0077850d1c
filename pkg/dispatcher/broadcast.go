package dispatcher

// Broadcast sends every event to every subscriber. Because all
// subscribers must receive the same events in the same order, the number
// of events it can accept at once is capped by the subscriber with the
// least outstanding demand — mirroring GenStage's BroadcastDispatcher,
// where max_demand effectively becomes min(subscriber demands).
type Broadcast struct {
	entries map[Ref]*broadcastEntry
	order   []Ref
}

type broadcastEntry struct {
	sub     Subscriber
	pending int
}

// NewBroadcast constructs an empty broadcast dispatcher.
func NewBroadcast() *Broadcast {
	return &Broadcast{entries: make(map[Ref]*broadcastEntry)}
}

func (b *Broadcast) Subscribe(sub Subscriber) (int, error) {
	b.entries[sub.Ref] = &broadcastEntry{sub: sub}
	b.order = append(b.order, sub.Ref)
	return 0, nil
}

func (b *Broadcast) Cancel(ref Ref) (int, error) {
	before := b.floor()
	delete(b.entries, ref)
	for i, r := range b.order {
		if r == ref {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	// Removing a slow subscriber may free up capacity for the rest.
	if after := b.floor(); after > before {
		return after - before, nil
	}
	return 0, nil
}

func (b *Broadcast) Ask(n int, ref Ref) (int, error) {
	before := b.floor()
	if e, ok := b.entries[ref]; ok {
		e.pending += n
	}
	after := b.floor()
	if after > before {
		return after - before, nil
	}
	return 0, nil
}

func (b *Broadcast) Dispatch(events []interface{}) (DispatchPlan, error) {
	plan := DispatchPlan{Deliveries: make(map[Ref][]interface{})}
	if len(b.entries) == 0 {
		plan.Undispatched = events
		return plan, nil
	}

	sendable := len(events)
	if f := b.floor(); f < sendable {
		sendable = f
	}
	if sendable <= 0 {
		plan.Undispatched = events
		return plan, nil
	}

	batch := events[:sendable]
	for ref, e := range b.entries {
		plan.Deliveries[ref] = append([]interface{}(nil), batch...)
		e.pending -= sendable
	}
	plan.Undispatched = events[sendable:]
	return plan, nil
}

func (b *Broadcast) Notify(msg interface{}) (map[Ref]interface{}, error) {
	out := make(map[Ref]interface{}, len(b.entries))
	for ref := range b.entries {
		out[ref] = msg
	}
	return out, nil
}

// floor returns the smallest pending demand across all subscribers, or 0
// if there are none.
func (b *Broadcast) floor() int {
	min := -1
	for _, e := range b.entries {
		if min == -1 || e.pending < min {
			min = e.pending
		}
	}
	if min < 0 {
		return 0
	}
	return min
}
