package muennet

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ardnew/muenipc/channel"
	"github.com/ardnew/muenipc/pkg"
	"github.com/ardnew/muenipc/platform"
)

// maxElementSize bounds the element size a Framer accepts on
// resynchronization (spec: a writer epoch change is only honored if the
// new element size is sane; anything larger suggests a corrupt header
// rather than a legitimate reconfiguration).
const maxElementSize = 1 << 20

// Stats accumulates the counters a muennet interface exposes, mirroring
// the struct net_device_stats fields muennet_xmit and the reader path
// maintain in the original driver.
type Stats struct {
	RxPackets    uint64
	RxBytes      uint64
	RxErrors     uint64
	RxOverErrors uint64
	RxFrameErrors uint64
	TxPackets    uint64
	TxBytes      uint64
	TxDropped    uint64
}

// child is one demultiplexed net-hdr device, identified by its mark.
type child struct {
	mark    uint32
	pmtu    int
	deliver func(protocol uint8, packet []byte)
}

// Framer reads and writes frames across one channel.Reader/channel.Writer
// pair according to a Config's framing mode. In net-hdr mode it also owns
// a table of child devices keyed by mark, each with its own PMTU.
//
// Framer serializes writes with a single mutex, mirroring the original
// driver's one spinlock per parent device (dev_info->writer_lock):
// concurrent transmitters on different child marks still contend for the
// one underlying channel.
type Framer struct {
	cfg     *Config
	writer  *channel.Writer
	reader  *channel.Reader
	trigger platform.EventTrigger

	writeMu sync.Mutex

	childMu  sync.Mutex
	children map[uint32]*child

	statsMu sync.Mutex
	stats   Stats

	logIncompatibleOnce sync.Once

	cancel context.CancelFunc
}

// NewFramer wires a writer/reader channel pair (either may be nil for a
// send-only or receive-only interface) and an optional event trigger used
// to notify the peer after every Write, to cfg.
func NewFramer(cfg *Config, w *channel.Writer, r *channel.Reader, trigger platform.EventTrigger) *Framer {
	return &Framer{
		cfg:      cfg,
		writer:   w,
		reader:   r,
		trigger:  trigger,
		children: make(map[uint32]*child),
	}
}

// AddChild registers a demultiplexing entry for mark, with deliver invoked
// for every frame classified under that mark once Serve's reader loop
// decodes it. pmtu of 0 means no fragmentation limit is enforced for this
// mark beyond the channel's element size.
func (f *Framer) AddChild(mark uint32, pmtu int, deliver func(protocol uint8, packet []byte)) error {
	f.childMu.Lock()
	defer f.childMu.Unlock()

	if _, exists := f.children[mark]; exists {
		return pkg.ErrChildExists
	}
	f.children[mark] = &child{mark: mark, pmtu: pmtu, deliver: deliver}
	return nil
}

// RemoveChild unregisters the child device bound to mark.
func (f *Framer) RemoveChild(mark uint32) {
	f.childMu.Lock()
	defer f.childMu.Unlock()
	delete(f.children, mark)
}

// Serve runs the reader loop until ctx is cancelled, polling at the
// configured interval. Each iteration attempts one Read; SUCCESS decodes
// and dispatches the frame, EPOCH_CHANGED logs the resynchronization at
// info level (the reader already captured new parameters), OVERRUN_DETECTED counts a
// dropped backlog and continues, NO_DATA and INACTIVE both sleep for the
// poll interval before retrying rather than spinning, and
// INCOMPATIBLE_INTERFACE is logged once and leaves the loop parked on
// ctx.Done() since retrying Read cannot change an incompatible header.
func (f *Framer) Serve(ctx context.Context, buf []byte) error {
	if f.reader == nil {
		return pkg.ErrChannelInactive
	}

	ctx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	defer cancel()

	elementSize := int(f.reader.ElementSize())
	if elementSize == 0 {
		// Not yet synchronized; size it generously and let the first
		// EPOCH_CHANGED return correct it on the next call.
		elementSize = len(buf) // the whole channel page bounds any element
	}
	out := make([]byte, elementSize)

	poll := time.Duration(f.cfg.Poll) * time.Microsecond
	if poll <= 0 {
		poll = time.Millisecond
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if sz := int(f.reader.ElementSize()); sz > 0 && sz != len(out) {
			if sz > maxElementSize {
				pkg.LogError(pkg.ComponentMuennet, "refusing oversized element", "size", sz)
				return pkg.ErrFrameTooLarge
			}
			out = make([]byte, sz)
		}

		result, err := f.reader.Read(buf, out)
		switch result {
		case channel.ResultSuccess:
			f.deliverFrame(out[:f.reader.ElementSize()])
		case channel.ResultOverrunDetected:
			f.bumpRxOverrun()
		case channel.ResultEpochChanged:
			pkg.LogInfo(pkg.ComponentMuennet, "channel epoch changed, resynchronized")
		case channel.ResultInactive:
			f.bumpRxError()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(poll):
			}
		case channel.ResultNoData:
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(poll):
			}
		case channel.ResultIncompatibleInterface:
			f.logIncompatibleOnce.Do(func() {
				pkg.LogError(pkg.ComponentMuennet, "channel interface incompatible, suspending", "error", err)
			})
			<-ctx.Done()
			return ctx.Err()
		default:
			if err != nil {
				pkg.LogWarn(pkg.ComponentMuennet, "read error", "error", err)
			}
		}
	}
}

// Close stops a running Serve loop. Safe to call on a Framer whose Serve
// was never started.
func (f *Framer) Close() {
	if f.cancel != nil {
		f.cancel()
	}
}

// deliverFrame decodes slot according to the configured mode and, in
// net-hdr mode, dispatches it to the registered child for its mark.
func (f *Framer) deliverFrame(slot []byte) {
	switch f.cfg.Mode() {
	case ModeRaw:
		f.statsAddRx(len(slot))
		f.dispatchRaw(0, slot)

	case ModeNetHdr:
		hdr, payload, err := decodeNetHdrFrame(slot)
		if err != nil {
			f.bumpRxFrameError()
			return
		}
		f.statsAddRx(len(payload))
		f.dispatchChild(hdr.Mark, hdr.Protocol, payload)

	case ModeEth:
		frame, err := decodeEthFrame(slot)
		if err != nil {
			f.bumpRxFrameError()
			return
		}
		f.statsAddRx(len(frame))
		f.dispatchRaw(ethTypeTrans(frame), frame)
	}
}

// dispatchRaw delivers frame to a nil-mark child if one is registered,
// otherwise it is the interface's only data path and there is nothing
// further to demultiplex. protocol is the network-layer protocol
// classified for frame (ethTypeTrans's result in eth mode, 0 in raw
// mode where there is no Ethernet header to classify).
func (f *Framer) dispatchRaw(protocol uint8, frame []byte) {
	f.childMu.Lock()
	c, ok := f.children[0]
	f.childMu.Unlock()
	if ok {
		c.deliver(protocol, frame)
	}
}

// dispatchChild routes packet to the child registered for mark, counting
// an unknown-child frame as a receive error.
func (f *Framer) dispatchChild(mark uint32, protocol uint8, packet []byte) {
	f.childMu.Lock()
	c, ok := f.children[mark]
	f.childMu.Unlock()
	if !ok {
		f.bumpRxError()
		pkg.LogWarn(pkg.ComponentMuennet, "frame for unknown child", "mark", mark)
		return
	}
	c.deliver(protocol, packet)
}

// Write transmits packet under mark, applying PMTU enforcement exactly as
// muennet_xmit does: a packet within PMTU (or with no registered PMTU) is
// encoded and written directly; a too-large IPv4 packet with DF clear is
// fragmented into multiple writes; a too-large packet that cannot be
// fragmented (DF set, or IPv6) is dropped and the synthesized ICMP error
// is returned to the caller as icmpReply alongside ErrFrameTooLarge.
//
// The write path is single-flight across all marks: Write holds writeMu
// for its entire duration, including any fragmentation loop, so frames
// from different child marks never interleave mid-element.
func (f *Framer) Write(mark uint32, protocol uint8, qos uint8, packet []byte) (icmpReply []byte, err error) {
	if f.writer == nil {
		return nil, pkg.ErrChannelInactive
	}

	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	pmtu := f.pmtuFor(mark)
	gross := f.grossSize(packet)

	if pmtu > 0 && gross > pmtu {
		switch protocol {
		case ProtocolIPv4:
			frags, ferr := fragmentIPv4(packet, pmtu-f.overheadFor())
			if ferr == pkg.ErrFrameTooLarge {
				reply, ierr := icmpFragNeeded(packet, pmtu-f.overheadFor())
				f.bumpTxDropped()
				return reply, errOrJoin(pkg.ErrFrameTooLarge, ierr)
			}
			if ferr != nil {
				f.bumpTxDropped()
				return nil, ferr
			}
			for _, frag := range frags {
				if werr := f.writeOne(mark, protocol, qos, frag); werr != nil {
					f.bumpTxDropped()
					return nil, werr
				}
			}
			return nil, nil

		default:
			reply, ierr := icmpv6PacketTooBig(packet, pmtu-f.overheadFor())
			f.bumpTxDropped()
			if ierr != nil {
				return nil, ierr
			}
			return reply, pkg.ErrFrameTooLarge
		}
	}

	if err := f.writeOne(mark, protocol, qos, packet); err != nil {
		f.bumpTxDropped()
		return nil, err
	}
	return nil, nil
}

// writeOne encodes one frame into a fresh element-sized slot and writes
// it, triggering the configured event afterward.
func (f *Framer) writeOne(mark uint32, protocol, qos uint8, payload []byte) error {
	slot := make([]byte, f.writer.ElementSize())

	var err error
	switch f.cfg.Mode() {
	case ModeRaw:
		err = encodeRawFrame(slot, payload)
	case ModeNetHdr:
		err = encodeNetHdrFrame(slot, mark, protocol, qos, payload)
	case ModeEth:
		err = encodeEthFrame(slot, payload)
	}
	if err != nil {
		return err
	}

	if err := f.writer.Write(slot); err != nil {
		return err
	}

	f.statsAddTx(len(payload))

	if f.trigger != nil {
		if terr := f.trigger.Trigger(0); terr != nil {
			pkg.LogWarn(pkg.ComponentMuennet, "event trigger failed", "error", terr)
		}
	}
	return nil
}

// pmtuFor returns the configured PMTU for mark, or 0 if the mark has no
// child registered (no PMTU enforcement).
func (f *Framer) pmtuFor(mark uint32) int {
	f.childMu.Lock()
	defer f.childMu.Unlock()
	if c, ok := f.children[mark]; ok {
		return c.pmtu
	}
	return 0
}

// overheadFor returns the per-element framing overhead subtracted from
// PMTU before comparing against a packet's length, matching
// gross_packet_size's accounting for the net-hdr prefix.
func (f *Framer) overheadFor() int {
	switch f.cfg.Mode() {
	case ModeNetHdr:
		return netHdrSize
	case ModeEth:
		return ethHdrSize
	default:
		return 0
	}
}

// grossSize returns the total on-wire size a packet would occupy,
// mirroring gross_packet_size in the original driver.
func (f *Framer) grossSize(packet []byte) int {
	return len(packet) + f.overheadFor()
}

func errOrJoin(a, b error) error {
	if b != nil {
		return fmt.Errorf("%w: %v", a, b)
	}
	return a
}

func (f *Framer) statsAddRx(n int) {
	f.statsMu.Lock()
	f.stats.RxPackets++
	f.stats.RxBytes += uint64(n)
	f.statsMu.Unlock()
}

func (f *Framer) statsAddTx(n int) {
	f.statsMu.Lock()
	f.stats.TxPackets++
	f.stats.TxBytes += uint64(n)
	f.statsMu.Unlock()
}

func (f *Framer) bumpRxError() {
	f.statsMu.Lock()
	f.stats.RxErrors++
	f.statsMu.Unlock()
}

func (f *Framer) bumpRxOverrun() {
	f.statsMu.Lock()
	f.stats.RxErrors++
	f.stats.RxOverErrors++
	f.statsMu.Unlock()
}

func (f *Framer) bumpRxFrameError() {
	f.statsMu.Lock()
	f.stats.RxErrors++
	f.stats.RxFrameErrors++
	f.statsMu.Unlock()
}

func (f *Framer) bumpTxDropped() {
	f.statsMu.Lock()
	f.stats.TxDropped++
	f.statsMu.Unlock()
}

// Stats returns a snapshot of the interface's accumulated counters.
func (f *Framer) Stats() Stats {
	f.statsMu.Lock()
	defer f.statsMu.Unlock()
	return f.stats
}

// String renders a one-line human-readable summary, the equivalent of the
// original driver's debugfs statistics file.
func (f *Framer) String() string {
	s := f.Stats()
	return fmt.Sprintf(
		"%s: rx=%d/%dB (err=%d over=%d frame=%d) tx=%d/%dB (dropped=%d)",
		f.cfg.Name, s.RxPackets, s.RxBytes, s.RxErrors, s.RxOverErrors, s.RxFrameErrors,
		s.TxPackets, s.TxBytes, s.TxDropped,
	)
}
