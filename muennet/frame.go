package muennet

import (
	"encoding/binary"

	"github.com/ardnew/muenipc/pkg"
)

// Mode selects how a Framer lays payload bytes out within a channel
// element.
type Mode int

// Framing modes.
const (
	ModeRaw Mode = iota
	ModeNetHdr
	ModeEth
)

// Protocol values carried in a net-hdr frame, matching the IP protocol
// numbers used to mark the embedded packet's address family.
const (
	ProtocolIPv4 uint8 = 4  // IPIP: inner packet is IPv4
	ProtocolIPv6 uint8 = 41 // IPv6: inner packet is IPv6
)

// netHdrSize is the size in bytes of the net-hdr prefix: mark(4) +
// length(2) + protocol(1) + qos(1).
const netHdrSize = 4 + 2 + 1 + 1

// ethHdrSize is the size in bytes of the eth-hdr suffix: length(2).
const ethHdrSize = 2

// netHdr is the prefix written ahead of an IPv4/IPv6 packet in net-hdr
// mode.
type netHdr struct {
	Mark     uint32
	Length   uint16
	Protocol uint8
	QoS      uint8
}

func encodeNetHdr(buf []byte, h netHdr) {
	binary.LittleEndian.PutUint32(buf[0:4], h.Mark)
	binary.LittleEndian.PutUint16(buf[4:6], h.Length)
	buf[6] = h.Protocol
	buf[7] = h.QoS
}

func decodeNetHdr(buf []byte) (netHdr, error) {
	if len(buf) < netHdrSize {
		return netHdr{}, pkg.ErrInvalidHeader
	}
	return netHdr{
		Mark:     binary.LittleEndian.Uint32(buf[0:4]),
		Length:   binary.LittleEndian.Uint16(buf[4:6]),
		Protocol: buf[6],
		QoS:      buf[7],
	}, nil
}

// ethHdr is the suffix written at the tail of a slot in eth mode.
type ethHdr struct {
	Length uint16
}

// ethHeaderLen is the size of an Ethernet II header: dst(6) + src(6) +
// ethertype(2).
const ethHeaderLen = 6 + 6 + 2

// EtherType values this driver recognizes, matching the ones
// eth_type_trans maps to ETH_P_IP/ETH_P_IPV6.
const (
	etherTypeIPv4 uint16 = 0x0800
	etherTypeIPv6 uint16 = 0x86dd
)

// ethTypeTrans derives the network-layer protocol carried by an Ethernet
// frame from its EtherType field, the equivalent of eth_type_trans's
// protocol classification in the original reader path. Frames shorter
// than a full Ethernet header, or carrying an EtherType this driver does
// not recognize, classify as protocol 0 (the raw/unknown dispatch mark).
func ethTypeTrans(frame []byte) uint8 {
	if len(frame) < ethHeaderLen {
		return 0
	}
	switch binary.BigEndian.Uint16(frame[12:14]) {
	case etherTypeIPv4:
		return ProtocolIPv4
	case etherTypeIPv6:
		return ProtocolIPv6
	default:
		return 0
	}
}

// encodeRawFrame writes payload directly into an element-sized slot; the
// caller guarantees len(payload) == len(slot).
func encodeRawFrame(slot, payload []byte) error {
	if len(payload) != len(slot) {
		return pkg.ErrFrameTooLarge
	}
	copy(slot, payload)
	return nil
}

// encodeNetHdrFrame writes a net-hdr prefix followed by payload into slot.
// payload must fit within len(slot) - netHdrSize.
func encodeNetHdrFrame(slot []byte, mark uint32, protocol, qos uint8, payload []byte) error {
	if len(payload) > len(slot)-netHdrSize {
		return pkg.ErrFrameTooLarge
	}
	encodeNetHdr(slot, netHdr{Mark: mark, Length: uint16(len(payload)), Protocol: protocol, QoS: qos})
	copy(slot[netHdrSize:], payload)
	for i := netHdrSize + len(payload); i < len(slot); i++ {
		slot[i] = 0
	}
	return nil
}

// decodeNetHdrFrame parses a net-hdr frame from slot, validating that the
// embedded length fits within the remaining element space.
func decodeNetHdrFrame(slot []byte) (netHdr, []byte, error) {
	h, err := decodeNetHdr(slot)
	if err != nil {
		return netHdr{}, nil, err
	}
	maxPayload := len(slot) - netHdrSize
	if int(h.Length) > maxPayload {
		return netHdr{}, nil, pkg.ErrInvalidHeader
	}
	return h, slot[netHdrSize : netHdrSize+int(h.Length)], nil
}

// encodeEthFrame writes frame into the head of slot and an eth-hdr at the
// tail, zero-padding between the two.
func encodeEthFrame(slot []byte, frame []byte) error {
	if len(frame) > len(slot)-ethHdrSize {
		return pkg.ErrFrameTooLarge
	}
	copy(slot, frame)
	for i := len(frame); i < len(slot)-ethHdrSize; i++ {
		slot[i] = 0
	}
	binary.LittleEndian.PutUint16(slot[len(slot)-ethHdrSize:], uint16(len(frame)))
	return nil
}

// decodeEthFrame reads the eth-hdr tail first, then extracts that many
// leading bytes as the frame.
func decodeEthFrame(slot []byte) ([]byte, error) {
	if len(slot) < ethHdrSize {
		return nil, pkg.ErrInvalidHeader
	}
	length := binary.LittleEndian.Uint16(slot[len(slot)-ethHdrSize:])
	if int(length) > len(slot)-ethHdrSize {
		return nil, pkg.ErrInvalidHeader
	}
	return slot[:length], nil
}
