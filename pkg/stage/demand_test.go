package stage

import (
	"testing"

	"github.com/cuemby/stagepipe/pkg/actor"
	"github.com/stretchr/testify/require"
)

type recordingConsumer struct {
	batches [][]interface{}
}

func (c *recordingConsumer) HandleEvents(events Events, from Address) (Events, error) {
	c.batches = append(c.batches, append([]interface{}{}, events...))
	return nil, nil
}

func newBareConsumerStage(module interface{}) (*Stage, *producerSide) {
	s := newStage(RoleConsumer, module)
	s.producers = map[SubscriptionRef]*producerSide{}
	s.monitors = map[actor.MonitorRef]SubscriptionRef{}
	s.self = actor.NewMailbox(1).Address()
	s.log = discardLogger()

	ref := SubscriptionRef("p1")
	entry := &producerSide{
		ref:    ref,
		addr:   actor.NewMailbox(1).Address(),
		acked:  true,
		demand: &demandWindow{pending: 10, min: 5, max: 10},
	}
	s.producers[ref] = entry
	return s, entry
}

func TestDemandEngineSplitsBatchesAboveMaxMinusMin(t *testing.T) {
	s, entry := newBareConsumerStage(&recordingConsumer{})
	rec := s.module.(*recordingConsumer)

	events := make([]interface{}, 8)
	for i := range events {
		events[i] = i
	}
	err := s.handleEventsMsg(actor.Envelope{
		Payload: EventsPayload{Ref: entry.ref, Events: events},
	})
	require.NoError(t, err)

	// max-min = 5, so 8 events split into batches of at most 5.
	require.Len(t, rec.batches, 2)
	require.Len(t, rec.batches[0], 5)
	require.Len(t, rec.batches[1], 3)
}

func TestDemandEngineSchedulesTopUpAskAtMin(t *testing.T) {
	s, entry := newBareConsumerStage(&recordingConsumer{})

	events := make([]interface{}, 5)
	for i := range events {
		events[i] = i
	}
	err := s.handleEventsMsg(actor.Envelope{
		Payload: EventsPayload{Ref: entry.ref, Events: events},
	})
	require.NoError(t, err)

	// pending started at 10, dropped to 5 (== min), so an ASK(max-5=5)
	// should have been scheduled and pending reset to max.
	require.Equal(t, 10, entry.demand.pending)
}

func TestDemandEngineClampsExcessEvents(t *testing.T) {
	s, entry := newBareConsumerStage(&recordingConsumer{})
	rec := s.module.(*recordingConsumer)
	entry.demand.pending = 2
	entry.demand.min = 1
	entry.demand.max = 10

	events := make([]interface{}, 5)
	for i := range events {
		events[i] = i
	}
	err := s.handleEventsMsg(actor.Envelope{
		Payload: EventsPayload{Ref: entry.ref, Events: events},
	})
	require.NoError(t, err)

	require.Len(t, rec.batches, 1)
	require.Len(t, rec.batches[0], 2) // clamped to the 2 that were actually owed
}

func TestDemandEngineManualSkipsSplitting(t *testing.T) {
	s, entry := newBareConsumerStage(&recordingConsumer{})
	rec := s.module.(*recordingConsumer)
	entry.demand = nil // MANUAL

	events := make([]interface{}, 20)
	for i := range events {
		events[i] = i
	}
	err := s.handleEventsMsg(actor.Envelope{
		Payload: EventsPayload{Ref: entry.ref, Events: events},
	})
	require.NoError(t, err)
	require.Len(t, rec.batches, 1)
	require.Len(t, rec.batches[0], 20)
}

func TestAskOnManualSubscriptionSendsWireMessage(t *testing.T) {
	s, entry := newBareConsumerStage(&recordingConsumer{})
	entry.demand = nil
	mb := actor.NewMailbox(4)
	entry.addr = mb.Address()

	require.NoError(t, s.Ask(entry.ref, 7))
	env := <-mb.Receive()
	require.Equal(t, TagAsk, env.Tag)
	payload := env.Payload.(AskPayload)
	require.Equal(t, 7, payload.Count)
}
