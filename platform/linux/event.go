//go:build linux

package linux

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/ardnew/muenipc/platform"
)

// EventDevPath is the control device the Muen event hypercall is issued
// through. A real Muen Linux subject exposes this as a small character
// device registered by the platform glue external to this package, and
// is assumed already present.
const EventDevPath = "/dev/muen-event"

// muenEventTrigger is the ioctl request number for triggering an event.
// The event number is passed as the ioctl argument; there is no return
// value beyond success/failure of the ioctl itself.
const muenEventTrigger = 0x4d01 // 'M' << 8 | 0x01

// EventTrigger issues the event hypercall via ioctl(2) on EventDevPath.
type EventTrigger struct {
	f *os.File
}

// NewEventTrigger opens the event control device.
func NewEventTrigger() (*EventTrigger, error) {
	f, err := os.OpenFile(EventDevPath, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("platform/linux: open %s: %w", EventDevPath, err)
	}
	return &EventTrigger{f: f}, nil
}

// Trigger issues the hypercall for the given event number (0-63).
func (e *EventTrigger) Trigger(event uint8) error {
	return unix.IoctlSetInt(int(e.f.Fd()), muenEventTrigger, int(event))
}

// Close releases the control device.
func (e *EventTrigger) Close() error {
	return e.f.Close()
}

// Ensure EventTrigger implements platform.EventTrigger.
var _ platform.EventTrigger = (*EventTrigger)(nil)
