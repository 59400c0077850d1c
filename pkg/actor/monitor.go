package actor

import (
	"sync"

	"github.com/google/uuid"
)

// MonitorRef identifies one monitor registration. It is handed back by
// System.Monitor and passed to System.Demonitor to cancel it, mirroring
// the producer/consumer monitor bookkeeping in spec §3 ("monitors: mapping
// from monitor_handle -> subscription-ref").
type MonitorRef string

// Down is delivered to a watcher's mailbox, tagged DownTag, when the
// address it monitored terminates. It is the Go stand-in for the host
// runtime's {'DOWN', Ref, process, Pid, Reason} message referenced by
// spec §4.2/§5.
type Down struct {
	Ref    MonitorRef
	Target Address
	Reason error
}

// DownTag is the Envelope.Tag used for Down deliveries.
const DownTag = "DOWN"

type watchEntry struct {
	watcher Address
}

// System is the monitor registry shared by every stage in a pipeline. It
// plays the role the host actor runtime plays for monitor/demonitor in
// languages with built-in actors (spec §9, "Design Notes": "a monitor
// subsystem emitting DOWN on peer termination"). One System is normally
// shared process-wide; pkg/stage stages take it as a constructor argument
// so tests can use isolated instances.
type System struct {
	mu       sync.RWMutex
	watchers map[string]map[MonitorRef]watchEntry // target id -> ref -> watcher
	down     map[string]bool                      // target id -> already marked down
}

// NewSystem creates an empty monitor registry.
func NewSystem() *System {
	return &System{
		watchers: make(map[string]map[MonitorRef]watchEntry),
		down:     make(map[string]bool),
	}
}

// Monitor registers watcher to receive a single Down envelope when target
// terminates. If target is already down, Down is delivered immediately.
func (s *System) Monitor(watcher Address, target Address) MonitorRef {
	ref := MonitorRef(uuid.NewString())

	s.mu.Lock()
	if s.down[target.id] {
		s.mu.Unlock()
		watcher.Send(Envelope{Tag: DownTag, From: target, Payload: Down{Ref: ref, Target: target}})
		return ref
	}
	if s.watchers[target.id] == nil {
		s.watchers[target.id] = make(map[MonitorRef]watchEntry)
	}
	s.watchers[target.id][ref] = watchEntry{watcher: watcher}
	s.mu.Unlock()

	return ref
}

// Demonitor cancels a prior Monitor registration. It is a no-op if the
// monitor already fired or was never registered — cancellation races with
// delivery are expected and harmless, matching the host runtime's
// best-effort demonitor semantics.
func (s *System) Demonitor(target Address, ref MonitorRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m := s.watchers[target.id]; m != nil {
		delete(m, ref)
		if len(m) == 0 {
			delete(s.watchers, target.id)
		}
	}
}

// MarkDown notifies every current watcher of target that it has
// terminated with reason, then forgets them. Calling MarkDown twice for
// the same target is safe: the second call finds no watchers left, and a
// later Monitor call on the now-down target delivers immediately.
func (s *System) MarkDown(target Address, reason error) {
	s.mu.Lock()
	watchers := s.watchers[target.id]
	delete(s.watchers, target.id)
	s.down[target.id] = true
	s.mu.Unlock()

	for ref, entry := range watchers {
		entry.watcher.Send(Envelope{
			Tag:     DownTag,
			From:    target,
			Payload: Down{Ref: ref, Target: target, Reason: reason},
		})
	}
}

// Forget clears target's down marker. Used by tests that reuse an address
// after simulating a crash; production stages never reuse an Address once
// it has gone down.
func (s *System) Forget(target Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.down, target.id)
}
