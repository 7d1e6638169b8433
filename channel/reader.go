package channel

import "github.com/ardnew/muenipc/pkg"

// Result is the outcome of a single Read or Drain call.
type Result int

// Results a reader can observe, in the order a read evaluates them.
const (
	ResultInactive Result = iota
	ResultIncompatibleInterface
	ResultEpochChanged
	ResultNoData
	ResultOverrunDetected
	ResultSuccess
)

// String returns a short name for the result.
func (r Result) String() string {
	switch r {
	case ResultInactive:
		return "inactive"
	case ResultIncompatibleInterface:
		return "incompatible_interface"
	case ResultEpochChanged:
		return "epoch_changed"
	case ResultNoData:
		return "no_data"
	case ResultOverrunDetected:
		return "overrun_detected"
	case ResultSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// Error returns the sentinel error corresponding to the result, or nil for
// ResultSuccess.
func (r Result) Error() error {
	switch r {
	case ResultSuccess:
		return nil
	case ResultInactive:
		return pkg.ErrChannelInactive
	case ResultIncompatibleInterface:
		return pkg.ErrIncompatibleInterface
	case ResultEpochChanged:
		return pkg.ErrEpochChanged
	case ResultNoData:
		return pkg.ErrNoData
	case ResultOverrunDetected:
		return pkg.ErrOverrunDetected
	default:
		return pkg.ErrChannelInactive
	}
}

// readerState distinguishes a reader that has never synchronized from one
// that has captured a channel's epoch, element size, and ring capacity.
type readerState int

const (
	stateUnsynced readerState = iota
	stateSynced
)

// Reader is one consumer's private view of a channel. Reader state never
// leaves the goroutine that owns it; nothing here is safe to share across
// goroutines without external synchronization.
type Reader struct {
	protocol uint64
	state    readerState

	epoch       uint64
	elementSize uint64
	elements    uint64
	rc          uint64
}

// NewReader creates a reader expecting the given protocol identifier. It
// starts Unsynced; the first Read call synchronizes it to whatever
// channel it is pointed at.
func NewReader(protocol uint64) *Reader {
	return &Reader{protocol: protocol, state: stateUnsynced}
}

// synchronize validates the channel's transport and protocol against the
// reader's expectation, then captures epoch, element size, and capacity
// and resets rc to 0.
func (r *Reader) synchronize(hdr header) Result {
	if hdr.loadTransport() != Transport || hdr.loadProtocol() != r.protocol {
		return ResultIncompatibleInterface
	}

	r.epoch = hdr.loadEpoch()
	r.elementSize = hdr.loadElementSize()
	r.elements = hdr.loadElements()
	r.rc = 0
	r.state = stateSynced

	return ResultEpochChanged
}

// Read attempts to consume the next element from buf into out, which must
// be at least the reader's synchronized element size once synchronized.
//
// The final re-check of epoch after the copy is mandatory: without it, a
// writer that resets the channel mid-copy could deliver torn data labeled
// SUCCESS instead of EPOCH_CHANGED.
func (r *Reader) Read(buf []byte, out []byte) (Result, error) {
	hdr, err := newHeader(buf)
	if err != nil {
		return ResultInactive, err
	}

	if !hdr.isActive() {
		r.state = stateUnsynced
		r.epoch = NullEpoch
		return ResultInactive, pkg.ErrChannelInactive
	}

	if r.state == stateUnsynced || r.epoch != hdr.loadEpoch() {
		result := r.synchronize(hdr)
		return result, result.Error()
	}

	wc := hdr.loadWriteCounter()
	if r.rc >= wc {
		return ResultNoData, pkg.ErrNoData
	}

	if uint64(len(out)) < r.elementSize {
		return ResultNoData, pkg.ErrBufferTooSmall
	}

	slot := r.rc % r.elements
	copy(out[:r.elementSize], hdr.data()[slot*r.elementSize:(slot+1)*r.elementSize])

	var result Result
	if hdr.loadWriteStart() > r.rc+r.elements {
		r.rc = hdr.loadWriteCounter()
		result = ResultOverrunDetected
	} else {
		r.rc++
		result = ResultSuccess
	}

	if hdr.loadEpoch() != r.epoch {
		result = ResultEpochChanged
	}

	return result, result.Error()
}

// Drain discards any backlog by fast-forwarding rc to the channel's
// current write counter.
func (r *Reader) Drain(buf []byte) error {
	hdr, err := newHeader(buf)
	if err != nil {
		return err
	}
	r.rc = hdr.loadWriteCounter()
	return nil
}

// ElementSize returns the element size captured at the last
// synchronization. Zero until the reader has synchronized at least once.
func (r *Reader) ElementSize() uint64 { return r.elementSize }

// Elements returns the ring capacity captured at the last
// synchronization.
func (r *Reader) Elements() uint64 { return r.elements }

// Synced reports whether the reader has successfully synchronized to a
// channel.
func (r *Reader) Synced() bool { return r.state == stateSynced }
