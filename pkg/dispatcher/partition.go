package dispatcher

// PartitionFunc maps an event to a partition index in [0, partitions).
type PartitionFunc func(event interface{}) int

// Partition routes each event to exactly one subscriber based on a
// user-supplied partitioning function, the way a partitioned topic routes
// messages to consumer groups. Each partition index must be claimed by at
// most one subscriber via the `partition` subscription option; events for
// an unclaimed partition are left undispatched and re-buffered.
type Partition struct {
	keyFunc    PartitionFunc
	partitions int
	byIndex    map[int]*partitionEntry
	refIndex   map[Ref]int
}

type partitionEntry struct {
	sub     Subscriber
	pending int
}

// NewPartition constructs a partition dispatcher with n partitions, using
// keyFunc to assign each event to a partition index.
func NewPartition(n int, keyFunc PartitionFunc) *Partition {
	return &Partition{
		keyFunc:    keyFunc,
		partitions: n,
		byIndex:    make(map[int]*partitionEntry),
		refIndex:   make(map[Ref]int),
	}
}

// Subscribe claims a partition index found in sub.Options["partition"].
// Subscribing without a valid, unclaimed index is a configuration error.
func (p *Partition) Subscribe(sub Subscriber) (int, error) {
	idx, ok := sub.Options["partition"].(int)
	if !ok || idx < 0 || idx >= p.partitions {
		return 0, ErrInvalidPartition
	}
	if _, taken := p.byIndex[idx]; taken {
		return 0, ErrPartitionTaken
	}
	p.byIndex[idx] = &partitionEntry{sub: sub}
	p.refIndex[sub.Ref] = idx
	return 0, nil
}

func (p *Partition) Cancel(ref Ref) (int, error) {
	if idx, ok := p.refIndex[ref]; ok {
		delete(p.byIndex, idx)
		delete(p.refIndex, ref)
	}
	return 0, nil
}

func (p *Partition) Ask(n int, ref Ref) (int, error) {
	idx, ok := p.refIndex[ref]
	if !ok {
		return 0, nil
	}
	p.byIndex[idx].pending += n
	return n, nil
}

func (p *Partition) Dispatch(events []interface{}) (DispatchPlan, error) {
	plan := DispatchPlan{Deliveries: make(map[Ref][]interface{})}

	for _, ev := range events {
		idx := p.keyFunc(ev) % p.partitions
		if idx < 0 {
			idx += p.partitions
		}
		entry, ok := p.byIndex[idx]
		if !ok || entry.pending <= 0 {
			plan.Undispatched = append(plan.Undispatched, ev)
			continue
		}
		entry.pending--
		plan.Deliveries[entry.sub.Ref] = append(plan.Deliveries[entry.sub.Ref], ev)
	}

	return plan, nil
}

func (p *Partition) Notify(msg interface{}) (map[Ref]interface{}, error) {
	out := make(map[Ref]interface{}, len(p.byIndex))
	for _, entry := range p.byIndex {
		out[entry.sub.Ref] = msg
	}
	return out, nil
}
