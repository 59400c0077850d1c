package stage

// Buffer holds events a producer has produced ahead of demand, plus any
// out-of-band notifications interleaved with them (spec §4.4, §4.6). It is
// only ever touched from the owning stage's single run-loop goroutine, so
// it needs no internal locking (spec §5: state changes are local to one
// goroutine).
//
// Two representations are kept, matching the two regimes spec §4.6
// describes:
//
//   - Bounded (max >= 0): events live in a plain slice; notifications are
//     anchored into a Wheel keyed by the logical position of the event
//     they trail. This lets a KeepLast eviction drop the oldest event and
//     discover in O(1) whether a notification was riding on it.
//   - Unbounded: there is never an eviction to reason about, so
//     notifications simply ride as tagged entries in one ordered queue
//     alongside the events.
type Buffer struct {
	keep    KeepPolicy
	max     int // Unbounded, or >= 0
	wheel   *Wheel
	events  []interface{}  // bounded mode storage
	entries []bufferEntry  // unbounded mode storage
	headPos int64
	tailPos int64
}

type bufferEntry struct {
	isNotification bool
	event          interface{}
	notification   interface{}
}

// Segment is one contiguous run of events, or a single notification,
// produced by Drain in delivery order.
type Segment struct {
	Events       []interface{}
	Notification interface{}
	IsNotification bool
}

// NewBuffer creates a buffer with the given capacity (Unbounded or >= 0)
// and eviction policy.
func NewBuffer(max int, keep KeepPolicy) *Buffer {
	b := &Buffer{keep: keep, max: max}
	if max != Unbounded {
		b.wheel = NewWheel(maxInt(max, 1))
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Len reports the number of events currently buffered (notifications do
// not count, per spec §4.4 "count" semantics).
func (b *Buffer) Len() int {
	if b.wheel != nil {
		return len(b.events)
	}
	n := 0
	for _, e := range b.entries {
		if !e.isNotification {
			n++
		}
	}
	return n
}

// Append enqueues new events, applying the keep policy if the buffer is
// bounded and full. It returns the number of events dropped and any
// notifications that were anchored to dropped positions and must now be
// surfaced immediately, in order (spec §4.4: "KeepLast... if a dropped
// position had a pending notification anchored to it, that notification
// is surfaced immediately").
func (b *Buffer) Append(events []interface{}) (dropped int, surfaced []interface{}) {
	if len(events) == 0 {
		return 0, nil
	}
	if b.wheel == nil {
		for _, ev := range events {
			b.entries = append(b.entries, bufferEntry{event: ev})
		}
		b.tailPos += int64(len(events))
		return 0, nil
	}

	have := len(b.events)
	switch b.keep {
	case KeepFirst:
		room := b.max - have
		if room < 0 {
			room = 0
		}
		take := len(events)
		if take > room {
			take = room
		}
		b.events = append(b.events, events[:take]...)
		b.tailPos += int64(take)
		return len(events) - take, nil
	default: // KeepLast
		b.events = append(b.events, events...)
		b.tailPos += int64(len(events))
		overflow := len(b.events) - b.max
		if overflow <= 0 {
			return 0, nil
		}
		for i := 0; i < overflow; i++ {
			if msg, ok := b.wheel.Take(b.headPos); ok {
				surfaced = append(surfaced, msg)
			}
			b.headPos++
		}
		b.events = b.events[overflow:]
		return overflow, surfaced
	}
}

// Notify anchors a notification to fire right after the most recently
// buffered event. If the buffer currently holds no events, it reports
// immediate=true and the caller must dispatch msg right away instead
// (spec §4.6: "sync_notify on an empty buffer dispatches immediately").
func (b *Buffer) Notify(msg interface{}) (immediate bool) {
	if b.tailPos == b.headPos {
		return true
	}
	if b.wheel != nil {
		b.wheel.Put(b.tailPos-1, msg)
		return false
	}
	b.entries = append(b.entries, bufferEntry{isNotification: true, notification: msg})
	return false
}

// Drain removes up to n events (plus any notifications interleaved among
// them) from the head of the buffer, returning them as ordered segments.
func (b *Buffer) Drain(n int) []Segment {
	if b.wheel != nil {
		return b.drainBounded(n)
	}
	return b.drainUnbounded(n)
}

func (b *Buffer) drainBounded(n int) []Segment {
	var segs []Segment
	var cur []interface{}
	taken := 0
	for taken < n && len(b.events) > 0 {
		pos := b.headPos
		ev := b.events[0]
		b.events = b.events[1:]
		b.headPos++
		cur = append(cur, ev)
		taken++
		if msg, ok := b.wheel.Take(pos); ok {
			segs = append(segs, Segment{Events: cur})
			cur = nil
			segs = append(segs, Segment{Notification: msg, IsNotification: true})
		}
	}
	if len(cur) > 0 {
		segs = append(segs, Segment{Events: cur})
	}
	return segs
}

func (b *Buffer) drainUnbounded(n int) []Segment {
	var segs []Segment
	var cur []interface{}
	taken := 0
	for taken < n && len(b.entries) > 0 {
		e := b.entries[0]
		b.entries = b.entries[1:]
		if e.isNotification {
			if len(cur) > 0 {
				segs = append(segs, Segment{Events: cur})
				cur = nil
			}
			segs = append(segs, Segment{Notification: e.notification, IsNotification: true})
			continue
		}
		b.headPos++
		cur = append(cur, e.event)
		taken++
	}
	if len(cur) > 0 {
		segs = append(segs, Segment{Events: cur})
	}
	return segs
}
