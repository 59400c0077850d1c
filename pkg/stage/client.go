package stage

import (
	"fmt"
	"time"

	"github.com/cuemby/stagepipe/pkg/actor"
	"github.com/cuemby/stagepipe/pkg/metrics"
	"github.com/google/uuid"
)

// Call sends a synchronous request to target and waits up to timeout for
// a reply (spec §5, "Timeouts": "expiry causes the caller to fail — the
// stage itself is unaffected"). target must implement CallHandler or the
// reply carries an error.
func Call(target Address, request interface{}, timeout time.Duration) (interface{}, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.CallDuration)
	replyMB := actor.NewMailbox(1)
	id := uuid.NewString()
	target.Send(actor.Envelope{
		Tag:  TagCall,
		From: replyMB.Address(),
		Payload: CallPayload{
			ID:      id,
			Request: request,
			ReplyTo: replyMB.Address(),
		},
	})
	select {
	case env := <-replyMB.Receive():
		r, ok := env.Payload.(CallReplyPayload)
		if !ok || r.ID != id {
			return nil, fmt.Errorf("stage: unexpected reply to call %s", id)
		}
		return r.Reply, r.Err
	case <-time.After(timeout):
		return nil, ErrTimeout
	}
}

// Cast sends a fire-and-forget message to target (spec §4.1, "handle_cast").
func Cast(target Address, message interface{}) {
	target.Send(actor.Envelope{Tag: TagCast, Payload: CastPayload{Message: message}})
}

// SyncNotify requests a producer enqueue (or immediately deliver) an
// out-of-band notification, blocking for confirmation (spec §4.6,
// "sync_notify"). Called against a pure consumer it returns
// ErrNotAProducer.
func SyncNotify(target Address, msg interface{}, timeout time.Duration) error {
	replyMB := actor.NewMailbox(1)
	id := uuid.NewString()
	target.Send(actor.Envelope{
		Tag: TagSyncNotify,
		Payload: SyncNotifyPayload{
			ID:      id,
			Msg:     msg,
			ReplyTo: replyMB.Address(),
		},
	})
	select {
	case env := <-replyMB.Receive():
		r, ok := env.Payload.(CallReplyPayload)
		if !ok || r.ID != id {
			return fmt.Errorf("stage: unexpected reply to sync_notify %s", id)
		}
		return r.Err
	case <-time.After(timeout):
		return ErrTimeout
	}
}

// Subscribe asks a running consumer (or producer-consumer) at addr to
// open a new subscription to a producer, blocking for confirmation.
func Subscribe(consumer Address, to SubscribeTo, timeout time.Duration) (SubscriptionRef, error) {
	replyMB := actor.NewMailbox(1)
	id := uuid.NewString()
	consumer.Send(actor.Envelope{
		Tag: TagSubscribeRequest,
		Payload: SubscribeRequestPayload{
			ID:      id,
			To:      to,
			ReplyTo: replyMB.Address(),
		},
	})
	select {
	case env := <-replyMB.Receive():
		r, ok := env.Payload.(CallReplyPayload)
		if !ok || r.ID != id {
			return "", fmt.Errorf("stage: unexpected reply to subscribe_request %s", id)
		}
		if r.Err != nil {
			return "", r.Err
		}
		ref, _ := r.Reply.(SubscriptionRef)
		return ref, nil
	case <-time.After(timeout):
		return "", ErrTimeout
	}
}

// CancelSubscription asks a running consumer (or producer-consumer) to
// cancel one of its own subscriptions, blocking for confirmation.
func CancelSubscription(holder Address, ref SubscriptionRef, reason error, timeout time.Duration) error {
	replyMB := actor.NewMailbox(1)
	id := uuid.NewString()
	holder.Send(actor.Envelope{
		Tag: TagCancelRequest,
		Payload: CancelRequestPayload{
			ID:      id,
			Ref:     ref,
			Reason:  reason,
			ReplyTo: replyMB.Address(),
		},
	})
	select {
	case env := <-replyMB.Receive():
		r, ok := env.Payload.(CallReplyPayload)
		if !ok || r.ID != id {
			return fmt.Errorf("stage: unexpected reply to cancel_request %s", id)
		}
		return r.Err
	case <-time.After(timeout):
		return ErrTimeout
	}
}

// nonStopError hides a pending Stop request from a synchronous caller:
// the cancel itself succeeded even though it also tears the stage down.
func nonStopError(err error) error {
	if err == nil {
		return nil
	}
	if _, isStop := asStopRequest(err); isStop {
		return nil
	}
	return err
}

func (s *Stage) handleSubscribeRequest(env actor.Envelope) error {
	payload, ok := env.Payload.(SubscribeRequestPayload)
	if !ok {
		return nil
	}
	ref, err := s.subscribeTo(payload.To)
	s.send(payload.ReplyTo, TagCallReply, CallReplyPayload{ID: payload.ID, Reply: ref, Err: err})
	return nil
}

func (s *Stage) handleCancelRequest(env actor.Envelope) error {
	payload, ok := env.Payload.(CancelRequestPayload)
	if !ok {
		return nil
	}
	var targetAddr Address
	if p, ok := s.producers[payload.Ref]; ok {
		targetAddr = p.addr
	} else if c, ok := s.consumers[payload.Ref]; ok {
		targetAddr = c.addr
	}
	if !targetAddr.IsZero() {
		s.sendCancel(targetAddr, payload.Ref, payload.Reason)
	}
	err := s.processCancel(payload.Ref, targetAddr, CancelReason{Kind: CancelExplicit, Err: payload.Reason})
	s.send(payload.ReplyTo, TagCallReply, CallReplyPayload{ID: payload.ID, Err: nonStopError(err)})
	if err != nil {
		return err
	}
	return nil
}

func (s *Stage) handleSyncNotify(env actor.Envelope) error {
	payload, ok := env.Payload.(SyncNotifyPayload)
	if !ok {
		return nil
	}
	if s.buffer == nil {
		s.send(payload.ReplyTo, TagCallReply, CallReplyPayload{ID: payload.ID, Err: ErrNotAProducer})
		return nil
	}
	var err error
	if immediate := s.buffer.Notify(payload.Msg); immediate {
		err = s.deliverNotification(payload.Msg)
	}
	s.send(payload.ReplyTo, TagCallReply, CallReplyPayload{ID: payload.ID, Err: err})
	return err
}

func (s *Stage) handleCall(env actor.Envelope) error {
	payload, ok := env.Payload.(CallPayload)
	if !ok {
		return nil
	}
	h, ok := s.module.(CallHandler)
	if !ok {
		s.send(payload.ReplyTo, TagCallReply, CallReplyPayload{
			ID:  payload.ID,
			Err: fmt.Errorf("stage: module does not implement handle_call"),
		})
		return nil
	}
	reply, events, err := h.HandleCall(payload.Request, env.From)
	if err != nil {
		if reason, isStop := asStopRequest(err); isStop {
			s.send(payload.ReplyTo, TagCallReply, CallReplyPayload{ID: payload.ID, Err: reason})
			return Stop(reason)
		}
		wrapped := fmt.Errorf("%w: handle_call: %v", ErrBadReturn, err)
		s.send(payload.ReplyTo, TagCallReply, CallReplyPayload{ID: payload.ID, Err: wrapped})
		return wrapped
	}
	if len(events) > 0 {
		if err := s.dispatchEvents(events); err != nil {
			return err
		}
	}
	s.send(payload.ReplyTo, TagCallReply, CallReplyPayload{ID: payload.ID, Reply: reply})
	return nil
}

// handleCallReply only fires if a reply is routed through a stage's own
// mailbox rather than the ephemeral reply mailbox Call creates, which
// should not happen in normal use; log and drop defensively.
func (s *Stage) handleCallReply(env actor.Envelope) error {
	s.log.Warn().Str("from", env.From.String()).Msg("unexpected call_reply delivered to stage mailbox")
	return nil
}

func (s *Stage) handleCast(env actor.Envelope) error {
	payload, ok := env.Payload.(CastPayload)
	if !ok {
		return nil
	}
	h, ok := s.module.(CastHandler)
	if !ok {
		return nil
	}
	events, err := h.HandleCast(payload.Message)
	if err != nil {
		if reason, isStop := asStopRequest(err); isStop {
			return Stop(reason)
		}
		return fmt.Errorf("%w: handle_cast: %v", ErrBadReturn, err)
	}
	if len(events) > 0 {
		return s.dispatchEvents(events)
	}
	return nil
}

func (s *Stage) handleInfo(env actor.Envelope) error {
	h, ok := s.module.(InfoHandler)
	if !ok {
		return nil
	}
	message := env.Payload
	if p, ok := env.Payload.(InfoPayload); ok {
		message = p.Message
	}
	events, err := h.HandleInfo(message)
	if err != nil {
		if reason, isStop := asStopRequest(err); isStop {
			return Stop(reason)
		}
		return fmt.Errorf("%w: handle_info: %v", ErrBadReturn, err)
	}
	if len(events) > 0 {
		return s.dispatchEvents(events)
	}
	return nil
}
