package sim

import (
	"sync"

	"github.com/ardnew/muenipc/platform"
)

// Region is an in-process stand-in for a mapped physical page.
type Region struct {
	buf []byte
}

// NewRegion allocates a zeroed region of the given size. Two ends of a test
// that want to share a channel page pass the same *Region (or its Bytes())
// to both a writer and a reader.
func NewRegion(size int) *Region {
	return &Region{buf: make([]byte, size)}
}

// Bytes returns the backing slice.
func (r *Region) Bytes() []byte { return r.buf }

// Close is a no-op; sim regions are reclaimed by the garbage collector.
func (r *Region) Close() error { return nil }

// Bus names regions so a simulated sinfo directory can hand out "physical
// addresses" (here, just names) that both ends of a test resolve to the same
// backing bytes, mirroring how two partitions on Muen are handed the same
// physical channel page by the hypervisor's static policy.
type Bus struct {
	mu      sync.Mutex
	regions map[string]*Region
}

// NewBus creates an empty region bus.
func NewBus() *Bus {
	return &Bus{regions: make(map[string]*Region)}
}

// Region returns the named region, allocating it at the given size on first
// use. Subsequent calls with the same name ignore size and return the
// existing region, so both a writer and a reader can call Region with the
// name from a shared sinfo record and land on the same bytes.
func (b *Bus) Region(name string, size int) *Region {
	b.mu.Lock()
	defer b.mu.Unlock()

	if r, ok := b.regions[name]; ok {
		return r
	}
	r := NewRegion(size)
	b.regions[name] = r
	return r
}

// Ensure Region implements platform.Region.
var _ platform.Region = (*Region)(nil)
