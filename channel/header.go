package channel

import (
	"sync/atomic"
	"unsafe"

	"github.com/ardnew/muenipc/pkg"
)

// Transport is the magic value stamped into a channel's transport field on
// every activation.
const Transport uint64 = 0x487312b6b79a9b6d

// NullEpoch is the reserved epoch value meaning "inactive".
const NullEpoch uint64 = 0

// headerSize is the size in bytes of the channel header: eight 64-bit
// fields (transport, epoch, protocol, element_size, elements, reserved,
// wsc, wc).
const headerSize = 64

// field offsets within the header, in bytes.
const (
	offTransport    = 0
	offEpoch        = 8
	offProtocol     = 16
	offElementSize  = 24
	offElements     = 32
	offReserved     = 40
	offWriteStart   = 48
	offWriteCounter = 56
)

// header is a view over the first 64 bytes of a mapped channel page,
// addressing each field as an atomic uint64. It holds no state of its own;
// every method reads or writes directly through buf.
type header struct {
	buf []byte
}

func newHeader(buf []byte) (header, error) {
	if len(buf) < headerSize {
		return header{}, pkg.ErrChannelInactive
	}
	return header{buf: buf}, nil
}

func (h header) field(off int) *uint64 {
	return (*uint64)(unsafe.Pointer(&h.buf[off]))
}

func (h header) loadTransport() uint64    { return atomic.LoadUint64(h.field(offTransport)) }
func (h header) loadEpoch() uint64        { return atomic.LoadUint64(h.field(offEpoch)) }
func (h header) loadProtocol() uint64     { return atomic.LoadUint64(h.field(offProtocol)) }
func (h header) loadElementSize() uint64  { return atomic.LoadUint64(h.field(offElementSize)) }
func (h header) loadElements() uint64     { return atomic.LoadUint64(h.field(offElements)) }
func (h header) loadWriteStart() uint64   { return atomic.LoadUint64(h.field(offWriteStart)) }
func (h header) loadWriteCounter() uint64 { return atomic.LoadUint64(h.field(offWriteCounter)) }

func (h header) storeTransport(v uint64)    { atomic.StoreUint64(h.field(offTransport), v) }
func (h header) storeEpoch(v uint64)        { atomic.StoreUint64(h.field(offEpoch), v) }
func (h header) storeProtocol(v uint64)     { atomic.StoreUint64(h.field(offProtocol), v) }
func (h header) storeElementSize(v uint64)  { atomic.StoreUint64(h.field(offElementSize), v) }
func (h header) storeElements(v uint64)     { atomic.StoreUint64(h.field(offElements), v) }
func (h header) storeWriteStart(v uint64)   { atomic.StoreUint64(h.field(offWriteStart), v) }
func (h header) storeWriteCounter(v uint64) { atomic.StoreUint64(h.field(offWriteCounter), v) }

// data returns the ring's payload region, following the header.
func (h header) data() []byte {
	return h.buf[headerSize:]
}

// isActive reports whether the channel's epoch is non-zero.
func (h header) isActive() bool {
	return h.loadEpoch() != NullEpoch
}
