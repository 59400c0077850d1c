package stage

import (
	"sync"

	"github.com/cuemby/stagepipe/pkg/actor"
	"github.com/cuemby/stagepipe/pkg/dispatcher"
	stagelog "github.com/cuemby/stagepipe/pkg/log"
	"github.com/cuemby/stagepipe/pkg/metrics"
	"github.com/rs/zerolog"
)

// Stage is the runtime record owned by one stage goroutine (spec §3,
// "Stage"). It is never touched from more than one goroutine: every
// field access happens inside the loop run by the goroutine actor.Spawn
// started, which is what lets Buffer, the dispatcher, and the
// subscription maps skip their own locking (spec §5).
type Stage struct {
	role   Role
	self   Address
	sys    *actor.System
	module interface{}
	log    zerolog.Logger

	// Producer / producer-consumer side.
	producerOpts ProducerOptions
	buffer       *Buffer
	disp         dispatcher.Dispatcher
	consumers    map[SubscriptionRef]*consumerSide

	// Consumer / producer-consumer side.
	producers map[SubscriptionRef]*producerSide

	// Shared by both sides: monitor_handle -> subscription ref (spec §3,
	// "monitors").
	monitors map[actor.MonitorRef]SubscriptionRef

	// Producer-consumer only.
	bridge *bridge

	pendingCalls map[string]chan CallReplyPayload

	statsMu sync.RWMutex
	stats   stageStats
}

// stageStats is the point-in-time snapshot metrics.Collector polls
// through Stats(), taken under statsMu rather than the stage's own
// goroutine so a scrape never blocks on the stage's mailbox.
type stageStats struct {
	bufferLen     int
	pendingDemand int
	consumers     int
}

// Stats implements metrics.StatsProvider without this package importing
// metrics' types: the signature match is enough for Go's structural
// interfaces.
func (s *Stage) Stats() (bufferLen, pendingDemand, consumers int) {
	s.statsMu.RLock()
	defer s.statsMu.RUnlock()
	return s.stats.bufferLen, s.stats.pendingDemand, s.stats.consumers
}

// refreshStats recomputes the snapshot. Called at the end of every loop
// iteration, from the stage's own goroutine, where all these fields are
// safe to read without the lock.
func (s *Stage) refreshStats() {
	pending := 0
	for _, p := range s.producers {
		if p.demand != nil {
			pending += p.demand.pending
		}
	}
	bufferLen := 0
	if s.buffer != nil {
		bufferLen = s.buffer.Len()
	}
	s.statsMu.Lock()
	s.stats = stageStats{bufferLen: bufferLen, pendingDemand: pending, consumers: len(s.consumers)}
	s.statsMu.Unlock()
}

// DefaultMailboxSize bounds a stage's inbound channel (spec §9: "a
// goroutine/thread per stage with a bounded inbound channel").
const DefaultMailboxSize = 256

func newStage(role Role, module interface{}) *Stage {
	return &Stage{
		role:         role,
		module:       module,
		monitors:     map[actor.MonitorRef]SubscriptionRef{},
		pendingCalls: map[string]chan CallReplyPayload{},
	}
}

// stageRegistry lets a holder of just an Address (e.g. a CLI that wired a
// pipeline from a topology file) recover a StatsProvider for that stage
// without ever getting the *Stage itself — Address stays reach-only-by-
// sending, per its own doc comment.
var stageRegistry sync.Map // string(Address) -> *Stage

// spawn starts the stage's goroutine: setup runs once, before the stage's
// receive loop begins, so that initial subscriptions are requested from
// the stage's own goroutine rather than the constructor's caller.
func (s *Stage) spawn(sys *actor.System, setup func(*Stage) error) Address {
	s.sys = sys
	metrics.StagesActive.WithLabelValues(s.role.String()).Inc()
	return actor.Spawn(sys, DefaultMailboxSize, func(mb *actor.Mailbox) error {
		s.self = mb.Address()
		s.log = stagelog.WithStage(s.self.String())
		stageRegistry.Store(s.self.String(), s)

		if setup != nil {
			if err := setup(s); err != nil {
				reason, isStop := asStopRequest(err)
				if !isStop {
					reason = err
				}
				s.terminate(reason)
				return reason
			}
		}
		return s.loop(mb)
	})
}

// Address returns the stage's mailbox address, usable by peers to send
// it messages.
func (s *Stage) Address() Address {
	return s.self
}

func (s *Stage) loop(mb *actor.Mailbox) error {
	for env := range mb.Receive() {
		if err := s.handle(env); err != nil {
			reason, isStop := asStopRequest(err)
			if !isStop {
				reason = err
				s.log.Error().Err(err).Msg("stage stopping on error")
			}
			s.refreshStats()
			s.terminate(reason)
			return reason
		}
		s.refreshStats()
	}
	s.terminate(nil)
	return nil
}

func (s *Stage) handle(env actor.Envelope) error {
	switch env.Tag {
	case TagSubscribe:
		return s.handleSubscribe(env)
	case TagAck:
		return s.handleAck(env)
	case TagCancel:
		return s.handleCancelMsg(env)
	case TagAsk:
		return s.handleAsk(env)
	case TagEvents:
		return s.handleEventsMsg(env)
	case actor.DownTag:
		return s.handleDown(env)
	case TagSyncNotify:
		return s.handleSyncNotify(env)
	case TagSubscribeRequest:
		return s.handleSubscribeRequest(env)
	case TagCancelRequest:
		return s.handleCancelRequest(env)
	case TagCall:
		return s.handleCall(env)
	case TagCallReply:
		return s.handleCallReply(env)
	case TagCast:
		return s.handleCast(env)
	default:
		return s.handleInfo(env)
	}
}

func (s *Stage) terminate(reason error) {
	stageRegistry.Delete(s.self.String())
	metrics.StagesActive.WithLabelValues(s.role.String()).Dec()
	if reason != nil {
		metrics.StageCrashesTotal.WithLabelValues(s.role.String()).Inc()
	}
	if t, ok := s.module.(Terminator); ok {
		t.Terminate(reason)
	}
}

// StatsByAddress looks up the running stage behind addr and reports its
// current queueing snapshot. ok is false once the stage has terminated or
// if addr never named a stage spawned in this process.
func StatsByAddress(addr Address) (bufferLen, pendingDemand, consumers int, ok bool) {
	v, found := stageRegistry.Load(addr.String())
	if !found {
		return 0, 0, 0, false
	}
	bufferLen, pendingDemand, consumers = v.(*Stage).Stats()
	return bufferLen, pendingDemand, consumers, true
}

// AddressStats adapts an Address into a metrics.StatsProvider so a caller
// holding only addresses (not *Stage) can still wire a stage into
// metrics.Collector.Register.
type AddressStats struct {
	Addr Address
}

func (a AddressStats) Stats() (bufferLen, pendingDemand, consumers int) {
	bufferLen, pendingDemand, consumers, _ = StatsByAddress(a.Addr)
	return
}
