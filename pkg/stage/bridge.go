package stage

import "fmt"

// bridge is the producer-consumer demand-transfer state from spec §4.5:
// "A PC stage has no handle_demand. Its events field holds either an
// integer outstanding_downstream_demand ... or a FIFO queue of
// upstream-delivered batches waiting for demand."
type bridge struct {
	outstanding int
	queue       []bridgeBatch
}

type bridgeBatch struct {
	events []interface{}
	from   Address
}

func newBridge() *bridge {
	return &bridge{}
}

// onDownstreamDemand handles newly-granted downstream demand (spec §4.5,
// "On downstream demand n"): if nothing is queued it simply grows the
// outstanding counter; otherwise it drains queued upstream batches until
// n is exhausted or the queue empties, at which point it switches back
// to integer form with whatever of n is left over.
func (b *bridge) onDownstreamDemand(s *Stage, n int) error {
	if len(b.queue) == 0 {
		b.outstanding += n
		return nil
	}
	for n > 0 && len(b.queue) > 0 {
		batch := b.queue[0]
		take := n
		if take > len(batch.events) {
			take = len(batch.events)
		}
		head := batch.events[:take]
		rest := batch.events[take:]
		if len(rest) == 0 {
			b.queue = b.queue[1:]
		} else {
			b.queue[0] = bridgeBatch{events: rest, from: batch.from}
		}
		n -= take
		if err := s.runPCHandleEvents(head, batch.from); err != nil {
			return err
		}
	}
	if len(b.queue) == 0 && n > 0 {
		b.outstanding += n
	}
	return nil
}

// onUpstreamEvents handles a batch just delivered by an upstream producer
// (spec §4.5, "On upstream events of size k on ref r"): as much as
// outstanding demand allows is forwarded to handle_events immediately;
// any remainder is queued, never dropped (spec §8 property 9, "PC
// conservation").
func (b *bridge) onUpstreamEvents(s *Stage, events []interface{}, from Address) error {
	if len(b.queue) == 0 && b.outstanding > 0 {
		take := b.outstanding
		if take > len(events) {
			take = len(events)
		}
		head := events[:take]
		rest := events[take:]
		b.outstanding -= take
		if err := s.runPCHandleEvents(head, from); err != nil {
			return err
		}
		if len(rest) > 0 {
			b.queue = append(b.queue, bridgeBatch{events: rest, from: from})
			b.outstanding = 0
		}
		return nil
	}
	b.queue = append(b.queue, bridgeBatch{events: events, from: from})
	return nil
}

// runPCHandleEvents calls the user module's handle_events and immediately
// dispatches whatever downstream events it emits.
func (s *Stage) runPCHandleEvents(events []interface{}, from Address) error {
	if len(events) == 0 {
		return nil
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
		return s.dispatchEvents(out)
	}
	return nil
}
