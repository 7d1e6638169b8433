package affinity

import (
	"context"
	"sync"

	"github.com/ardnew/muenipc/pkg"
	"github.com/ardnew/muenipc/platform"
	"github.com/ardnew/muenipc/sinfo"
)

// Entry binds a sinfo resource record to the CPU the hypervisor's static
// policy has assigned it to.
type Entry struct {
	CPU      int
	Resource sinfo.Record
}

// Registry is the process-wide table of CPU affinities. It is built once
// during boot by calling Build for every CPU, then frozen: all lookup
// methods only ever read the accumulated entries.
type Registry struct {
	mu      sync.RWMutex
	entries []Entry
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{}
}

// Build walks dir and appends an entry for every event, vector, and
// passthrough device resource it finds, binding each to cpu. It is called
// once per CPU during boot; calling it again after boot would violate the
// "frozen after boot" invariant callers rely on, but Build itself does not
// enforce that — callers are expected to stop calling it once boot
// completes.
func (r *Registry) Build(cpu int, dir *sinfo.Directory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dir.ForEach(func(rec sinfo.Record) bool {
		switch rec.Kind {
		case sinfo.ResourceEvent, sinfo.ResourceVector:
			r.entries = append(r.entries, Entry{CPU: cpu, Resource: rec})
		case sinfo.ResourceDevice:
			if rec.Device.IRCount > 0 {
				r.entries = append(r.entries, Entry{CPU: cpu, Resource: rec})
			}
		}
		return true
	})
}

// GetResAffinity copies out every entry for which predicate returns true.
// Safe to call concurrently with other readers; never observes a partial
// Build since Build holds the write lock for its entire walk.
func (r *Registry) GetResAffinity(predicate func(Entry) bool) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Entry
	for _, e := range r.entries {
		if predicate(e) {
			out = append(out, e)
		}
	}
	return out
}

// OneMatch returns the single entry whose resource has the given name and
// kind. It reports false if no entry matches; a caller that needs to
// distinguish "not found" from "ambiguous" should use GetResAffinity
// directly.
func (r *Registry) OneMatch(name string, kind sinfo.ResourceKind) (Entry, bool) {
	matches := r.GetResAffinity(func(e Entry) bool {
		return e.Resource.Name == name && e.Resource.Kind == kind
	})
	if len(matches) != 1 {
		return Entry{}, false
	}
	return matches[0], true
}

// Dispatch runs fn on the given CPU. TriggerEvent given a nil Dispatch for
// a non-local CPU returns an error rather than silently running fn on the
// wrong CPU.
type Dispatch func(cpu int, fn func())

// TriggerEvent issues the event hypercall for event on cpu. If cpu equals
// currentCPU the hypercall is issued directly; otherwise it is routed
// through dispatch, which must arrange for fn to run on cpu (an
// IPI-equivalent in a real kernel; a direct call in tests). Must not be
// invoked with interrupts disabled when cpu differs from currentCPU — the
// dispatch hook may block.
func TriggerEvent(ctx context.Context, trigger platform.EventTrigger, currentCPU, cpu int, event uint8, dispatch Dispatch) error {
	if cpu == currentCPU {
		return trigger.Trigger(event)
	}
	if dispatch == nil {
		return pkg.ErrEventUnavailable
	}

	errCh := make(chan error, 1)
	dispatch(cpu, func() {
		errCh <- trigger.Trigger(event)
	})

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
