package stage

import "testing"

func TestWheelPutTakeRoundTrip(t *testing.T) {
	w := NewWheel(4)
	w.Put(10, "hello")
	msg, ok := w.Take(10)
	if !ok || msg != "hello" {
		t.Fatalf("Take(10) = %v, %v, want hello, true", msg, ok)
	}
	if _, ok := w.Take(10); ok {
		t.Fatal("Take after Take should miss")
	}
}

func TestWheelDistinguishesWrappedPositions(t *testing.T) {
	w := NewWheel(4)
	w.Put(1, "first")
	// position 5 lands on the same ring slot as 1 (5 % 4 == 1), but is a
	// distinct logical position.
	if _, ok := w.Peek(5); ok {
		t.Fatal("Peek(5) should not see the entry anchored at 1")
	}
	msg, ok := w.Peek(1)
	if !ok || msg != "first" {
		t.Fatalf("Peek(1) = %v, %v, want first, true", msg, ok)
	}
}

func TestWheelOverwriteSameSlot(t *testing.T) {
	w := NewWheel(4)
	w.Put(1, "first")
	w.Put(5, "second")
	if _, ok := w.Peek(1); ok {
		t.Fatal("Peek(1) should have been overwritten by the later Put(5)")
	}
	msg, ok := w.Take(5)
	if !ok || msg != "second" {
		t.Fatalf("Take(5) = %v, %v, want second, true", msg, ok)
	}
}
