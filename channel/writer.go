package channel

import (
	"github.com/ardnew/muenipc/pkg"
)

// Writer is the single-producer side of a channel. It holds no
// synchronization of its own: the protocol guarantees correctness with
// exactly one writer and any number of readers, and it is the caller's
// responsibility to ensure no second writer exists for the same page.
type Writer struct {
	hdr         header
	elementSize uint64
	elements    uint64
}

// InitWriter (re)initializes channel as a writer for protocol, with the
// given element size, over a channel occupying channelSize bytes
// (header included). epoch must be non-zero and must differ from any
// epoch previously used on this page; [NewEpoch] produces a suitable
// value.
//
// Initialization deactivates the channel first so a concurrent reader
// never observes a half-written header, then publishes every field except
// epoch, and finally publishes epoch with release semantics — readers
// that observe the new epoch are guaranteed to see every other field already
// in its final state.
func InitWriter(buf []byte, protocol, elementSize uint64, channelSize int, epoch uint64) (*Writer, error) {
	if epoch == NullEpoch {
		return nil, pkg.ErrIncompatibleInterface
	}
	if elementSize == 0 || channelSize <= headerSize {
		return nil, pkg.ErrIncompatibleInterface
	}

	hdr, err := newHeader(buf[:channelSize])
	if err != nil {
		return nil, err
	}

	hdr.storeEpoch(NullEpoch)

	elements := uint64(channelSize-headerSize) / elementSize
	if elements == 0 {
		return nil, pkg.ErrIncompatibleInterface
	}

	hdr.storeTransport(Transport)
	hdr.storeProtocol(protocol)
	hdr.storeElementSize(elementSize)
	hdr.storeElements(elements)
	hdr.storeWriteStart(0)
	hdr.storeWriteCounter(0)

	hdr.storeEpoch(epoch)

	return &Writer{hdr: hdr, elementSize: elementSize, elements: elements}, nil
}

// Deactivate marks the channel inactive. Any reader synchronized to this
// channel observes epoch 0 on its next read and reports INACTIVE.
func (w *Writer) Deactivate() {
	w.hdr.storeEpoch(NullEpoch)
}

// IsActive reports whether the channel is currently active.
func (w *Writer) IsActive() bool {
	return w.hdr.isActive()
}

// Write copies element into the next ring slot. element must be exactly
// the writer's configured element size.
//
// There is no locking: wsc is raised before the copy and wc after, so a
// reader that observes the new wc is guaranteed the copy has completed,
// and a reader racing the copy itself detects the in-progress write via
// wsc outrunning its own read count.
func (w *Writer) Write(element []byte) error {
	if uint64(len(element)) != w.elementSize {
		return pkg.ErrBufferTooSmall
	}

	wc := w.hdr.loadWriteCounter()
	slot := wc % w.elements
	next := wc + 1

	w.hdr.storeWriteStart(next)
	copy(w.hdr.data()[slot*w.elementSize:(slot+1)*w.elementSize], element)
	w.hdr.storeWriteCounter(next)

	return nil
}

// ElementSize returns the configured element size in bytes.
func (w *Writer) ElementSize() uint64 { return w.elementSize }

// Elements returns the ring's capacity in elements.
func (w *Writer) Elements() uint64 { return w.elements }
