package sim

import "github.com/ardnew/muenipc/platform"

// EventTrigger records triggered event numbers on a buffered channel instead
// of issuing a real hypercall, so tests can assert a writer notified its
// peer without needing a real event/vector pair.
type EventTrigger struct {
	Triggered chan uint8
}

// NewEventTrigger creates an EventTrigger with the given channel capacity.
// With a capacity of 0, Trigger records an event only if a receiver is
// already waiting on Triggered and otherwise drops it, which is rarely what
// a test wants; pass at least 1.
func NewEventTrigger(capacity int) *EventTrigger {
	return &EventTrigger{Triggered: make(chan uint8, capacity)}
}

// Trigger records the event number. It never returns an error; a full
// channel drops the oldest-pending entry in favor of never blocking the
// caller.
func (e *EventTrigger) Trigger(event uint8) error {
	select {
	case e.Triggered <- event:
	default:
		// Channel full: drain one slot and retry so the most recent trigger
		// is never silently lost, without ever blocking the caller.
		select {
		case <-e.Triggered:
		default:
		}
		select {
		case e.Triggered <- event:
		default:
		}
	}
	return nil
}

// Ensure EventTrigger implements platform.EventTrigger.
var _ platform.EventTrigger = (*EventTrigger)(nil)
