package stage

import "github.com/cuemby/stagepipe/pkg/actor"

// NewConsumer starts a CONSUMER stage running module and returns its
// address, subscribing to each entry of subscribeTo as part of startup
// (spec §6, "Consumer: subscribe_to only"). A producer address left zero
// in an entry is treated as unresolved (spec §4.2): with cancel=PERMANENT
// the stage stops with ErrNoProc once it starts; with TEMPORARY it
// fabricates a ref and continues.
func NewConsumer(sys *actor.System, module Consumer, subscribeTo []SubscribeTo) (Address, error) {
	for i := range subscribeTo {
		if err := subscribeTo[i].Options.Validate(); err != nil {
			return Address{}, err
		}
	}

	s := newStage(RoleConsumer, module)
	s.producers = map[SubscriptionRef]*producerSide{}

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
