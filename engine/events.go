package engine

import "github.com/tthiemann260-coder/apex-backtest-sub000/core"

// eventRecorder accumulates every Signal, Order, and Fill a bar produces
// in a strict-FIFO EventQueue, then drains the batch into an append-only
// audit log at the end of the bar. The drained log preserves generation
// order exactly, so a consumer can replay the full causal chain
// (fill -> liquidation -> signal -> order) for any bar after the run.
type eventRecorder struct {
	queue *core.EventQueue
	log   []any
}

func newEventRecorder() *eventRecorder {
	return &eventRecorder{queue: core.NewEventQueue()}
}

// record enqueues one event. Only the four event variants are accepted;
// anything else is a programmer error surfaced by the queue's TypeKind
// rejection.
func (r *eventRecorder) record(event any) error {
	return r.queue.Put(event)
}

// drain moves everything queued during the current bar into the audit log.
func (r *eventRecorder) drain() {
	for {
		event, err := r.queue.Get()
		if err != nil {
			return
		}
		r.log = append(r.log, event)
	}
}

// events returns the audit log accumulated so far.
func (r *eventRecorder) events() []any {
	out := make([]any, len(r.log))
	copy(out, r.log)
	return out
}
