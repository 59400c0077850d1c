package stage

import (
	"io"

	"github.com/cuemby/stagepipe/pkg/dispatcher"
	"github.com/rs/zerolog"
)

// noopDispatcher satisfies dispatcher.Dispatcher for unit tests that drive
// Stage internals directly without needing real routing behavior.
type noopDispatcher struct{}

func (noopDispatcher) Subscribe(sub dispatcher.Subscriber) (int, error) { return 0, nil }
func (noopDispatcher) Cancel(ref dispatcher.Ref) (int, error)           { return 0, nil }
func (noopDispatcher) Ask(n int, ref dispatcher.Ref) (int, error)       { return n, nil }
func (noopDispatcher) Dispatch(events []interface{}) (dispatcher.DispatchPlan, error) {
	return dispatcher.DispatchPlan{Undispatched: events}, nil
}
func (noopDispatcher) Notify(msg interface{}) (map[dispatcher.Ref]interface{}, error) {
	return nil, nil
}

func discardLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}
