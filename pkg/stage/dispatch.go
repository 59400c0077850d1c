package stage

import (
	"fmt"

	"github.com/cuemby/stagepipe/pkg/actor"
	"github.com/cuemby/stagepipe/pkg/dispatcher"
	"github.com/cuemby/stagepipe/pkg/metrics"
)

// dispatchEvents is the producer dispatch pipeline's entry point (spec
// §4.4): every event-emitting callback is immediately followed by a call
// here. With no consumers subscribed, everything goes straight to the
// buffer; otherwise the dispatcher decides per-subscription routing and
// whatever it can't place is buffered.
func (s *Stage) dispatchEvents(events Events) error {
	if len(events) == 0 {
		return nil
	}
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.DispatchDuration)
	if len(s.consumers) == 0 {
		return s.bufferEvents([]interface{}(events))
	}
	plan, err := s.disp.Dispatch([]interface{}(events))
	if err != nil {
		return fmt.Errorf("%w: dispatcher.Dispatch: %v", ErrBadReturn, err)
	}
	for ref, evs := range plan.Deliveries {
		c, ok := s.consumers[SubscriptionRef(ref)]
		if !ok {
			continue
		}
		s.send(c.addr, TagEvents, EventsPayload{Ref: c.ref, Events: evs})
		metrics.EventsDispatchedTotal.Add(float64(len(evs)))
		metrics.EventsDeliveredTotal.Add(float64(len(evs)))
	}
	return s.bufferEvents(plan.Undispatched)
}

// bufferEvents applies the keep-policy buffer append (spec §4.4, "Buffer
// keep policy") and surfaces any notification evicted along with dropped
// events.
func (s *Stage) bufferEvents(events []interface{}) error {
	if len(events) == 0 {
		return nil
	}
	dropped, surfaced := s.buffer.Append(events)
	if dropped > 0 {
		s.log.Warn().Int("count", dropped).Msg("buffer overflow: events discarded")
		metrics.EventsDroppedTotal.Add(float64(dropped))
	}
	for _, msg := range surfaced {
		if err := s.deliverNotification(msg); err != nil {
			return err
		}
	}
	return nil
}

// deliverNotification asks the dispatcher which subscribers should see
// msg, in what shape, and sends it to each.
func (s *Stage) deliverNotification(msg interface{}) error {
	targets, err := s.disp.Notify(msg)
	if err != nil {
		return fmt.Errorf("%w: dispatcher.Notify: %v", ErrBadReturn, err)
	}
	for ref, shaped := range targets {
		c, ok := s.consumers[SubscriptionRef(ref)]
		if !ok {
			continue
		}
		s.send(c.addr, TagNotification, NotificationPayload{Ref: c.ref, Msg: shaped})
		metrics.NotificationsDeliveredTotal.Inc()
	}
	return nil
}

// handleAsk is the producer side of the wire protocol's ASK message
// (spec §6): record the consumer's new demand with the dispatcher and
// satisfy whatever it grants.
func (s *Stage) handleAsk(env actor.Envelope) error {
	if s.consumers == nil {
		s.log.Warn().Str("from", env.From.String()).Msg("ask received on a non-producer stage")
		return nil
	}
	payload, ok := env.Payload.(AskPayload)
	if !ok {
		return nil
	}
	if _, known := s.consumers[payload.Ref]; !known {
		s.sendCancel(env.From, payload.Ref, ErrUnknownSubscription)
		return nil
	}
	granted, err := s.disp.Ask(payload.Count, dispatcher.Ref(payload.Ref))
	if err != nil {
		return fmt.Errorf("%w: dispatcher.Ask: %v", ErrBadReturn, err)
	}
	return s.satisfyDemand(granted)
}

// satisfyDemand is the ordering rule from spec §4.4: a dispatcher
// callout (subscribe/ask/cancel) returns newly-grantable demand; the
// kernel drains that much from the buffer first, and only passes a
// residual on to handle_demand (PRODUCER) or the bridge (PRODUCER_CONSUMER).
func (s *Stage) satisfyDemand(counter int) error {
	if counter <= 0 {
		return nil
	}
	drained, err := s.drainAndDispatch(counter)
	if err != nil {
		return err
	}
	residual := counter - drained
	if residual <= 0 {
		return nil
	}
	switch s.role {
	case RoleProducer:
		p, ok := s.module.(Producer)
		if !ok {
			return fmt.Errorf("%w: stage has no Producer implementation", ErrBadReturn)
		}
		events, err := p.HandleDemand(residual)
		if err != nil {
			if reason, isStop := asStopRequest(err); isStop {
				return Stop(reason)
			}
			return fmt.Errorf("%w: handle_demand: %v", ErrBadReturn, err)
		}
		if len(events) > 0 {
			return s.dispatchEvents(events)
		}
		return nil
	case RoleProducerConsumer:
		return s.bridge.onDownstreamDemand(s, residual)
	}
	return nil
}

// drainAndDispatch removes up to counter events (plus interleaved
// notifications) from the buffer and routes each segment, returning how
// many events were actually drained.
func (s *Stage) drainAndDispatch(counter int) (int, error) {
	segs := s.buffer.Drain(counter)
	drained := 0
	for _, seg := range segs {
		if seg.IsNotification {
			if err := s.deliverNotification(seg.Notification); err != nil {
				return drained, err
			}
			continue
		}
		drained += len(seg.Events)
		if len(s.consumers) == 0 {
			// No consumers left by the time we drained (e.g. all
			// cancelled mid-loop): put the events right back.
			s.buffer.Append(seg.Events)
			continue
		}
		plan, err := s.disp.Dispatch(seg.Events)
		if err != nil {
			return drained, fmt.Errorf("%w: dispatcher.Dispatch: %v", ErrBadReturn, err)
		}
		for ref, evs := range plan.Deliveries {
			c, ok := s.consumers[SubscriptionRef(ref)]
			if !ok {
				continue
			}
			s.send(c.addr, TagEvents, EventsPayload{Ref: c.ref, Events: evs})
			metrics.EventsDeliveredTotal.Add(float64(len(evs)))
		}
		if len(plan.Undispatched) > 0 {
			if err := s.bufferEvents(plan.Undispatched); err != nil {
				return drained, err
			}
		}
	}
	return drained, nil
}
