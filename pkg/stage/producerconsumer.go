package stage

import (
	"github.com/cuemby/stagepipe/pkg/actor"
	"github.com/cuemby/stagepipe/pkg/dispatcher"
)

// NewProducerConsumer starts a PRODUCER_CONSUMER stage running module,
// subscribing to each entry of subscribeTo at startup the same way
// NewConsumer does. Unlike a pure producer, an unset BufferSize (the Go
// zero value) defaults to Unbounded rather than DefaultBufferSize, per
// spec §3: "producer-consumers default max=∞".
func NewProducerConsumer(sys *actor.System, module Consumer, opts ProducerOptions, disp dispatcher.Dispatcher, subscribeTo []SubscribeTo) (Address, error) {
	if opts.BufferSize == 0 {
		opts.BufferSize = Unbounded
	}
	if err := opts.Validate(); err != nil {
		return Address{}, err
	}
	for i := range subscribeTo {
		if err := subscribeTo[i].Options.Validate(); err != nil {
			return Address{}, err
		}
	}
	if disp == nil {
		disp = dispatcher.NewDemandFair()
	}

	s := newStage(RoleProducerConsumer, module)
	s.producerOpts = opts
	s.buffer = NewBuffer(opts.BufferSize, opts.BufferKeep)
	s.disp = disp
	s.consumers = map[SubscriptionRef]*consumerSide{}
	s.producers = map[SubscriptionRef]*producerSide{}
	s.bridge = newBridge()

	addr := s.spawn(sys, func(st *Stage) error {
		for _, to := range subscribeTo {
			if _, err := st.subscribeTo(to); err != nil {
				return err
			}
		}
		return nil
	})
	return addr, nil
}
