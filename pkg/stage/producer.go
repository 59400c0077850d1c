package stage

import (
	"github.com/cuemby/stagepipe/pkg/actor"
	"github.com/cuemby/stagepipe/pkg/dispatcher"
)

// NewProducer starts a PRODUCER stage running module and returns its
// address. disp may be nil, in which case a demand-fair dispatcher is
// used (spec §6, "dispatcher ... default demand-dispatcher").
func NewProducer(sys *actor.System, module Producer, opts ProducerOptions, disp dispatcher.Dispatcher) (Address, error) {
	if err := opts.Validate(); err != nil {
		return Address{}, err
	}
	if disp == nil {
		disp = dispatcher.NewDemandFair()
	}

	s := newStage(RoleProducer, module)
	s.producerOpts = opts
	s.buffer = NewBuffer(opts.BufferSize, opts.BufferKeep)
	s.disp = disp
	s.consumers = map[SubscriptionRef]*consumerSide{}

	return s.spawn(sys, nil), nil
}
