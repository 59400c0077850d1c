package stage

import (
	"fmt"

	"github.com/cuemby/stagepipe/pkg/actor"
)

// demandWindow is the per-producer subscription state spec §4.3 calls
// `(pending, min, max)`. pending is how many events the producer still
// owes us on this subscription.
type demandWindow struct {
	pending int
	min     int
	max     int
}

// handleEventsMsg implements spec §4.3's "On receiving an event batch of
// size k" algorithm: split into sub-batches no larger than max-min, walk
// the demand window down, schedule top-up asks, and deliver each
// sub-batch to the user callback.
func (s *Stage) handleEventsMsg(env actor.Envelope) error {
	if s.producers == nil {
		s.log.Warn().Str("from", env.From.String()).Msg("events received on a stage with no producers")
		return nil
	}
	payload, ok := env.Payload.(EventsPayload)
	if !ok {
		return nil
	}
	entry, known := s.producers[payload.Ref]
	if !known {
		s.sendCancel(env.From, payload.Ref, ErrUnknownSubscription)
		return nil
	}
	if entry.demand == nil {
		// MANUAL subscription: steps 1 and 3 of spec §4.3 are skipped;
		// the events are handed straight to handle_events.
		return s.deliverSubBatch(payload.Events, env.From, entry)
	}

	batchMax := entry.demand.max - entry.demand.min
	if batchMax <= 0 {
		batchMax = len(payload.Events)
	}
	remaining := payload.Events
	for len(remaining) > 0 {
		n := batchMax
		if n > len(remaining) {
			n = len(remaining)
		}
		sub := remaining[:n]
		remaining = remaining[n:]

		if entry.demand.pending < n {
			s.log.Error().
				Str("ref", string(payload.Ref)).
				Int("pending", entry.demand.pending).
				Int("delivered", n).
				Msg("producer delivered more events than were asked for")
			n = entry.demand.pending
			sub = sub[:n]
			entry.demand.pending = 0
		} else {
			entry.demand.pending -= n
		}

		newPending := entry.demand.pending
		var ask int
		if newPending <= entry.demand.min {
			ask = entry.demand.max - newPending
			entry.demand.pending = entry.demand.max
		}

		if err := s.deliverSubBatch(sub, env.From, entry); err != nil {
			return err
		}

		if ask > 0 {
			s.send(entry.addr, TagAsk, AskPayload{Ref: payload.Ref, Count: ask})
		}
	}
	return nil
}

// deliverSubBatch hands one already-demand-accounted sub-batch to the
// user module. A PRODUCER_CONSUMER routes it through the bridge (spec
// §4.5), since how much of it actually reaches handle_events right now
// depends on outstanding downstream demand, not upstream ask accounting;
// a pure CONSUMER calls handle_events directly and discards any events
// it mistakenly returns.
func (s *Stage) deliverSubBatch(events []interface{}, from Address, entry *producerSide) error {
	if s.role == RoleProducerConsumer {
		return s.bridge.onUpstreamEvents(s, events, from)
	}
	c, ok := s.module.(Consumer)
	if !ok {
		return fmt.Errorf("%w: stage has no Consumer implementation", ErrBadReturn)
	}
	out, err := c.HandleEvents(Events(events), from)
	if err != nil {
		if reason, isStop := asStopRequest(err); isStop {
			return Stop(reason)
		}
		return fmt.Errorf("%w: handle_events: %v", ErrBadReturn, err)
	}
	if len(out) > 0 {
		s.log.Error().Msg("handle_events on a pure consumer returned events; discarding")
	}
	return nil
}

// Ask grants n additional demand on a MANUAL subscription (spec §4.3,
// "MANUAL subscriptions ... the user explicitly calls ask(from, n)").
func (s *Stage) Ask(ref SubscriptionRef, n int) error {
	entry, ok := s.producers[ref]
	if !ok {
		return ErrUnknownSubscription
	}
	if n <= 0 {
		return fmt.Errorf("%w: ask count must be > 0", ErrBadOpts)
	}
	s.send(entry.addr, TagAsk, AskPayload{Ref: ref, Count: n})
	return nil
}
