package stage

import (
	"fmt"

	"github.com/cuemby/stagepipe/pkg/actor"
	"github.com/cuemby/stagepipe/pkg/dispatcher"
)

// consumerSide is what a PRODUCER or PRODUCER_CONSUMER remembers about one
// consumer subscribed to it (spec §3: "consumers: mapping from
// subscription-ref -> (consumer_addr, monitor_handle)").
type consumerSide struct {
	ref  SubscriptionRef
	addr Address
	mon  actor.MonitorRef
}

// producerSide is what a CONSUMER or PRODUCER_CONSUMER remembers about one
// producer it subscribed to (spec §3: "producers: mapping from
// subscription-ref -> (producer_addr, cancel_policy, demand_state)").
// acked is false while the subscription is Pending (sent SUBSCRIBE, no ACK
// yet); mode/demand are only meaningful once acked.
type producerSide struct {
	ref    SubscriptionRef
	addr   Address
	mon    actor.MonitorRef
	acked  bool
	cancel CancelMode
	mode   SubscribeMode
	demand *demandWindow
	opts   SubscriptionOptions
}

func (s *Stage) send(to Address, tag string, payload interface{}) {
	if to.IsZero() {
		return
	}
	to.Send(actor.Envelope{Tag: tag, From: s.self, Payload: payload})
}

func (s *Stage) sendCancel(to Address, ref SubscriptionRef, reason error) {
	s.send(to, TagCancel, CancelPayload{Ref: ref, Reason: reason})
}

// --- Producer-side: receiving SUBSCRIBE -----------------------------------

func (s *Stage) handleSubscribe(env actor.Envelope) error {
	if s.consumers == nil {
		// Wrong-role message: this stage is a pure CONSUMER (spec §7,
		// "wrong-role message ... consumer receiving SUBSCRIBE").
		s.log.Warn().Str("from", env.From.String()).Msg("subscribe received on a non-producer stage")
		return nil
	}
	payload, ok := env.Payload.(SubscribePayload)
	if !ok {
		return nil
	}
	if _, exists := s.consumers[payload.Ref]; exists {
		s.log.Warn().Str("ref", string(payload.Ref)).Msg("duplicated subscription")
		s.sendCancel(env.From, payload.Ref, ErrDuplicateSubscription)
		return nil
	}

	mon := s.sys.Monitor(s.self, env.From)
	s.consumers[payload.Ref] = &consumerSide{ref: payload.Ref, addr: env.From, mon: mon}
	s.monitors[mon] = payload.Ref

	s.send(env.From, TagAck, AckPayload{Ref: payload.Ref})

	mode := Automatic
	var events Events
	var err error
	if h, ok := s.module.(SubscriptionHandler); ok {
		mode, events, err = h.HandleSubscribe(RoleConsumer, payload.Options, env.From)
		if err != nil {
			if reason, isStop := asStopRequest(err); isStop {
				return Stop(reason)
			}
			return fmt.Errorf("%w: handle_subscribe: %v", ErrBadReturn, err)
		}
	}
	if len(events) > 0 {
		s.dispatchEvents(events)
	}

	if mode != Automatic {
		return nil
	}
	// Ordering rule (spec §4.4): the dispatcher callout runs after the
	// user callback above, so it observes the subscription already
	// recorded.
	granted, err := s.disp.Subscribe(dispatcher.Subscriber{
		Ref:      dispatcher.Ref(payload.Ref),
		Consumer: env.From.String(),
		Options:  payload.Options.Opts,
		Min:      payload.Options.MinDemand,
		Max:      payload.Options.MaxDemand,
	})
	if err != nil {
		return fmt.Errorf("%w: dispatcher.Subscribe: %v", ErrBadReturn, err)
	}
	return s.satisfyDemand(granted)
}

// --- Consumer-side: sending SUBSCRIBE, receiving ACK ----------------------

// subscribeTo implements the consumer-side half of spec §4.2's "Consumer
// sending SUBSCRIBE": validates options, resolves the producer address,
// and either sends SUBSCRIBE or fabricates a TEMPORARY no-op subscription.
func (s *Stage) subscribeTo(to SubscribeTo) (SubscriptionRef, error) {
	opts := to.Options
	if err := opts.Validate(); err != nil {
		return "", err
	}
	ref := NewSubscriptionRef()

	if to.Producer.IsZero() {
		if opts.Cancel == CancelPermanent {
			return "", fmt.Errorf("%w", ErrNoProc)
		}
		// TEMPORARY: fabricate a ref and report success without ever
		// subscribing (spec §4.2).
		return ref, nil
	}

	mon := s.sys.Monitor(s.self, to.Producer)
	s.producers[ref] = &producerSide{
		ref:    ref,
		addr:   to.Producer,
		mon:    mon,
		cancel: opts.Cancel,
		opts:   opts,
	}
	s.monitors[mon] = ref
	s.send(to.Producer, TagSubscribe, SubscribePayload{Ref: ref, Options: opts})
	return ref, nil
}

func (s *Stage) handleAck(env actor.Envelope) error {
	if s.producers == nil {
		s.log.Warn().Str("from", env.From.String()).Msg("ack received on a stage with no producers")
		return nil
	}
	payload, ok := env.Payload.(AckPayload)
	if !ok {
		return nil
	}
	entry, known := s.producers[payload.Ref]
	if !known {
		s.sendCancel(env.From, payload.Ref, ErrUnknownSubscription)
		return nil
	}
	entry.acked = true

	mode := Automatic
	var events Events
	var err error
	if h, ok := s.module.(SubscriptionHandler); ok {
		mode, events, err = h.HandleSubscribe(RoleProducer, entry.opts, env.From)
		if err != nil {
			if reason, isStop := asStopRequest(err); isStop {
				return Stop(reason)
			}
			return fmt.Errorf("%w: handle_subscribe: %v", ErrBadReturn, err)
		}
	}
	if len(events) > 0 {
		s.log.Warn().Msg("handle_subscribe on the consumer side returned events; discarding")
	}

	entry.mode = mode
	if mode == Automatic {
		entry.demand = &demandWindow{pending: entry.opts.MaxDemand, min: entry.opts.MinDemand, max: entry.opts.MaxDemand}
		s.send(env.From, TagAsk, AskPayload{Ref: payload.Ref, Count: entry.opts.MaxDemand})
	}
	return nil
}

// --- Cancellation -----------------------------------------------------

func (s *Stage) handleCancelMsg(env actor.Envelope) error {
	payload, ok := env.Payload.(CancelPayload)
	if !ok {
		return nil
	}
	return s.processCancel(payload.Ref, env.From, CancelReason{Kind: CancelExplicit, Err: payload.Reason})
}

// processCancel tears down a subscription from whichever side recognises
// ref and runs handle_cancel once (spec §4.2, §8 property 7: "issuing
// cancel twice on the same ref produces at most one handle_cancel call").
func (s *Stage) processCancel(ref SubscriptionRef, from Address, reason CancelReason) error {
	if c, ok := s.consumers[ref]; ok {
		s.sys.Demonitor(c.addr, c.mon)
		delete(s.consumers, ref)
		delete(s.monitors, c.mon)
		s.disp.Cancel(dispatcher.Ref(ref))
		return s.runHandleCancel(reason, from)
	}
	if p, ok := s.producers[ref]; ok {
		s.sys.Demonitor(p.addr, p.mon)
		delete(s.producers, ref)
		delete(s.monitors, p.mon)
		err := s.runHandleCancel(reason, from)
		if err != nil {
			return err
		}
		if p.acked && p.cancel == CancelPermanent {
			return Stop(reason.Err)
		}
		return nil
	}
	// Unknown ref (spec §4.2: "Out-of-order or unknown ref ... -> send
	// CANCEL{UNKNOWN_SUBSCRIPTION} to the peer and drop the message").
	if reason.Kind == CancelExplicit {
		s.sendCancel(from, ref, ErrUnknownSubscription)
	}
	return nil
}

func (s *Stage) runHandleCancel(reason CancelReason, from Address) error {
	h, ok := s.module.(CancelHandler)
	if !ok {
		return nil
	}
	events, err := h.HandleCancel(reason, from)
	if err != nil {
		if r, isStop := asStopRequest(err); isStop {
			return Stop(r)
		}
		return fmt.Errorf("%w: handle_cancel: %v", ErrBadReturn, err)
	}
	if len(events) > 0 {
		s.dispatchEvents(events)
	}
	return nil
}

// --- Peer death ---------------------------------------------------------

func (s *Stage) handleDown(env actor.Envelope) error {
	down, ok := env.Payload.(actor.Down)
	if !ok {
		return nil
	}
	ref, known := s.monitors[down.Ref]
	if !known {
		return nil
	}
	delete(s.monitors, down.Ref)

	if c, ok := s.consumers[ref]; ok {
		delete(s.consumers, ref)
		s.disp.Cancel(dispatcher.Ref(ref))
		return s.runHandleCancel(CancelReason{Kind: CancelDown, Err: down.Reason}, c.addr)
	}
	if p, ok := s.producers[ref]; ok {
		delete(s.producers, ref)
		if !p.acked {
			// Pre-ack DOWN: the subscription never materialised; act
			// per cancel policy without calling handle_cancel (spec §4.2).
			if p.cancel == CancelPermanent {
				return Stop(down.Reason)
			}
			return nil
		}
		err := s.runHandleCancel(CancelReason{Kind: CancelDown, Err: down.Reason}, p.addr)
		if err != nil {
			return err
		}
		if p.cancel == CancelPermanent {
			return Stop(down.Reason)
		}
		return nil
	}
	return nil
}
