package stage

import "testing"

func ints(vs ...int) []interface{} {
	out := make([]interface{}, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}

func flatten(segs []Segment) []interface{} {
	var out []interface{}
	for _, s := range segs {
		out = append(out, s.Events...)
	}
	return out
}

func TestBufferUnboundedAppendAndDrain(t *testing.T) {
	b := NewBuffer(Unbounded, KeepLast)
	dropped, surfaced := b.Append(ints(1, 2, 3))
	if dropped != 0 || surfaced != nil {
		t.Fatalf("unbounded append should never drop, got dropped=%d surfaced=%v", dropped, surfaced)
	}
	if b.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", b.Len())
	}
	segs := b.Drain(2)
	if got := flatten(segs); len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("Drain(2) = %v, want [1 2]", got)
	}
	if b.Len() != 1 {
		t.Fatalf("Len() after drain = %d, want 1", b.Len())
	}
}

func TestBufferKeepLastEvictsOldest(t *testing.T) {
	b := NewBuffer(3, KeepLast)
	b.Append(ints(1, 2, 3))
	dropped, surfaced := b.Append(ints(4, 5, 6))
	if dropped != 3 {
		t.Fatalf("dropped = %d, want 3", dropped)
	}
	if surfaced != nil {
		t.Fatalf("surfaced = %v, want nil (no notifications were anchored)", surfaced)
	}
	segs := b.Drain(10)
	if got := flatten(segs); len(got) != 3 || got[0] != 4 || got[1] != 5 || got[2] != 6 {
		t.Fatalf("Drain = %v, want [4 5 6]", got)
	}
}

func TestBufferKeepFirstDropsIncoming(t *testing.T) {
	b := NewBuffer(3, KeepFirst)
	b.Append(ints(1, 2, 3))
	dropped, _ := b.Append(ints(4, 5, 6))
	if dropped != 3 {
		t.Fatalf("dropped = %d, want 3", dropped)
	}
	segs := b.Drain(10)
	if got := flatten(segs); len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("Drain = %v, want [1 2 3]", got)
	}
}

func TestBufferNotifyOnEmptyIsImmediate(t *testing.T) {
	b := NewBuffer(Unbounded, KeepLast)
	if !b.Notify("hello") {
		t.Fatal("Notify on an empty buffer should report immediate=true")
	}
}

func TestBufferNotifyAnchorsAfterLastBufferedEvent(t *testing.T) {
	b := NewBuffer(Unbounded, KeepLast)
	b.Append(ints(1, 2, 3))
	if b.Notify("X") {
		t.Fatal("Notify with events buffered should not be immediate")
	}
	segs := b.Drain(10)
	if len(segs) != 2 {
		t.Fatalf("got %d segments, want 2 (events then notification)", len(segs))
	}
	if got := segs[0].Events; len(got) != 3 || got[2] != 3 {
		t.Fatalf("first segment = %v, want [1 2 3]", got)
	}
	if !segs[1].IsNotification || segs[1].Notification != "X" {
		t.Fatalf("second segment = %+v, want notification X", segs[1])
	}
}

func TestBufferBoundedNotificationInterleavesAtCorrectPosition(t *testing.T) {
	b := NewBuffer(10, KeepLast)
	b.Append(ints(1, 2, 3))
	b.Notify("X")
	b.Append(ints(4, 5))

	segs := b.Drain(10)
	if len(segs) != 3 {
		t.Fatalf("got %d segments, want 3", len(segs))
	}
	if got := segs[0].Events; len(got) != 3 || got[2] != 3 {
		t.Fatalf("segment 0 = %v, want [1 2 3]", got)
	}
	if !segs[1].IsNotification || segs[1].Notification != "X" {
		t.Fatalf("segment 1 = %+v, want notification X", segs[1])
	}
	if got := segs[2].Events; len(got) != 2 || got[0] != 4 || got[1] != 5 {
		t.Fatalf("segment 2 = %v, want [4 5]", got)
	}
}

func TestBufferKeepLastSurfacesEvictedNotification(t *testing.T) {
	b := NewBuffer(2, KeepLast)
	b.Append(ints(1, 2))
	b.Notify("X") // anchored to event 2, the most recently buffered
	dropped, surfaced := b.Append(ints(3, 4))
	if dropped != 2 {
		t.Fatalf("dropped = %d, want 2", dropped)
	}
	if len(surfaced) != 1 || surfaced[0] != "X" {
		t.Fatalf("surfaced = %v, want [X]", surfaced)
	}
}
