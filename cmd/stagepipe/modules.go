package main

import (
	"github.com/cuemby/stagepipe/pkg/log"
	"github.com/cuemby/stagepipe/pkg/stage"
)

// sequenceProducer emits an arithmetic sequence start, start+step, ... one
// HandleDemand call at a time, the simplest possible Producer and the
// source stage for both the demo scenarios and any "sequence" stage named
// in an applied topology file.
type sequenceProducer struct {
	next int
	step int
}

func newSequenceProducer(start, step int) *sequenceProducer {
	if step == 0 {
		step = 1
	}
	return &sequenceProducer{next: start, step: step}
}

func (p *sequenceProducer) HandleDemand(n int) (stage.Events, error) {
	out := make(stage.Events, n)
	for i := 0; i < n; i++ {
		out[i] = p.next
		p.next += p.step
	}
	return out, nil
}

// multiplyConsumer is a PRODUCER_CONSUMER transform: every int event that
// arrives is multiplied by factor and immediately re-emitted downstream.
type multiplyConsumer struct {
	factor int
}

func (m multiplyConsumer) HandleEvents(events stage.Events, from stage.Address) (stage.Events, error) {
	out := make(stage.Events, len(events))
	for i, e := range events {
		n, ok := e.(int)
		if !ok {
			out[i] = e
			continue
		}
		out[i] = n * m.factor
	}
	return out, nil
}

// collectSink gathers events into have until it reaches want, then posts
// a copy to done exactly once. Used by the demo command, which needs a
// deterministic point at which to print a scenario's result.
type collectSink struct {
	have Events
	want int
	done chan Events
}

// Events is a short local alias for stage.Events, used throughout this
// package's demo scenarios.
type Events = stage.Events

func newCollectSink(want int) *collectSink {
	return &collectSink{want: want, done: make(chan Events, 1)}
}

func (c *collectSink) HandleEvents(events stage.Events, from stage.Address) (stage.Events, error) {
	before := len(c.have)
	c.have = append(c.have, events...)
	if before < c.want && len(c.have) >= c.want {
		select {
		case c.done <- append(Events(nil), c.have[:c.want]...):
		default:
		}
	}
	return nil, nil
}

// printSink logs every batch it receives through a component logger, the
// terminal stage for a long-running applied topology.
type printSink struct {
	name  string
	count int
}

func (p *printSink) HandleEvents(events stage.Events, from stage.Address) (stage.Events, error) {
	p.count += len(events)
	log.WithComponent("pipeline").Info().
		Str("stage", p.name).
		Int("batch", len(events)).
		Int("total", p.count).
		Interface("sample", firstOf(events)).
		Msg("events received")
	return nil, nil
}

func firstOf(events stage.Events) interface{} {
	if len(events) == 0 {
		return nil
	}
	return events[0]
}
