package muennet

import (
	"encoding/binary"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"

	"github.com/ardnew/muenipc/pkg"
)

// ipv4HeaderMinLen is the minimum IPv4 header length in bytes (no options).
const ipv4HeaderMinLen = 20

// ipv4FlagDF and ipv4FlagMF are the bit positions of the don't-fragment and
// more-fragments flags within the 16-bit flags+fragment-offset field.
const (
	ipv4FlagDF = 0x4000
	ipv4FlagMF = 0x2000
	ipv4FragOffsetMask = 0x1fff
)

// fragmentIPv4 splits an IPv4 packet into fragments no larger than pmtu
// bytes each, mirroring the kernel's ip_do_fragment path taken by
// muennet_xmit when a packet exceeds a child device's PMTU and the
// packet's DF bit is clear. Each fragment is a complete IPv4 packet: the
// original header is copied into every fragment, the total-length field
// is rewritten per fragment, and the flags/fragment-offset field carries
// MF on every fragment but the last.
//
// The payload is split at 8-byte-aligned offsets, since the fragment
// offset field is expressed in 8-byte units per RFC 791.
func fragmentIPv4(packet []byte, pmtu int) ([][]byte, error) {
	if len(packet) < ipv4HeaderMinLen {
		return nil, pkg.ErrInvalidHeader
	}

	ihl := int(packet[0]&0x0f) * 4
	if ihl < ipv4HeaderMinLen || len(packet) < ihl {
		return nil, pkg.ErrInvalidHeader
	}

	flagsFrag := binary.BigEndian.Uint16(packet[6:8])
	if flagsFrag&ipv4FlagDF != 0 {
		return nil, pkg.ErrFrameTooLarge
	}

	header := packet[:ihl]
	payload := packet[ihl:]

	maxPayload := pmtu - ihl
	if maxPayload <= 0 {
		return nil, pkg.ErrFrameTooLarge
	}
	maxPayload -= maxPayload % 8

	baseOffset := int(flagsFrag & ipv4FragOffsetMask * 8)

	var frags [][]byte
	for off := 0; off < len(payload); off += maxPayload {
		end := off + maxPayload
		last := end >= len(payload)
		if last {
			end = len(payload)
		}

		frag := make([]byte, ihl+end-off)
		copy(frag, header)
		copy(frag[ihl:], payload[off:end])

		binary.BigEndian.PutUint16(frag[2:4], uint16(len(frag)))

		fragOffsetUnits := uint16((baseOffset + off) / 8)
		var fl uint16
		if !last {
			fl = ipv4FlagMF
		}
		binary.BigEndian.PutUint16(frag[6:8], fl|fragOffsetUnits)

		// Header checksum must be recomputed per fragment; clear then sum.
		frag[10], frag[11] = 0, 0
		binary.BigEndian.PutUint16(frag[10:12], ipv4Checksum(frag[:ihl]))

		frags = append(frags, frag)
	}

	return frags, nil
}

// ipv4Checksum computes the Internet checksum (RFC 1071) of header.
func ipv4Checksum(header []byte) uint16 {
	var sum uint32
	for i := 0; i+1 < len(header); i += 2 {
		sum += uint32(binary.BigEndian.Uint16(header[i : i+2]))
	}
	if len(header)%2 == 1 {
		sum += uint32(header[len(header)-1]) << 8
	}
	for sum>>16 != 0 {
		sum = sum&0xffff + sum>>16
	}
	return ^uint16(sum)
}

// icmpFragNeeded builds an ICMPv4 "Destination Unreachable / Fragmentation
// Needed" message reporting pmtu as the next-hop MTU, with the offending
// packet's header plus leading octets as its data, mirroring
// icmp_send(skb, ICMP_DEST_UNREACH, ICMP_FRAG_NEEDED, htonl(pmtu)) in
// muennet_xmit.
func icmpFragNeeded(packet []byte, pmtu int) ([]byte, error) {
	if len(packet) < ipv4HeaderMinLen {
		return nil, pkg.ErrInvalidHeader
	}

	quote := packet
	if len(quote) > ipv4HeaderMinLen+8 {
		quote = quote[:ipv4HeaderMinLen+8]
	}

	msg := icmp.Message{
		Type: ipv4.ICMPTypeDestinationUnreachable,
		Code: 4, // fragmentation needed and DF set
		Body: &icmp.PacketTooBig{
			MTU:  pmtu,
			Data: quote,
		},
	}
	return msg.Marshal(nil)
}

// icmpv6PacketTooBig builds an ICMPv6 "Packet Too Big" message reporting
// pmtu, mirroring icmpv6_send(skb, ICMPV6_PKT_TOOBIG, 0, pmtu) in
// muennet_xmit for the IPv6 path (DF-set IPv4 uses icmpFragNeeded).
func icmpv6PacketTooBig(packet []byte, pmtu int) ([]byte, error) {
	quote := packet
	const maxQuote = 1232 // conservative minimum IPv6 path MTU minus headers
	if len(quote) > maxQuote {
		quote = quote[:maxQuote]
	}

	msg := icmp.Message{
		Type: ipv6ICMPTypePacketTooBig,
		Code: 0,
		Body: &icmp.PacketTooBig{
			MTU:  pmtu,
			Data: quote,
		},
	}
	return msg.Marshal(nil)
}

// ipv6ICMPTypePacketTooBig is ICMPv6 type 2, "Packet Too Big" (RFC 4443).
// golang.org/x/net/ipv6 defines the equivalent ICMPTypePacketTooBig, but
// pulling that whole package in for a single constant isn't worth it here.
const ipv6ICMPTypePacketTooBig = icmpType(2)

type icmpType int

func (t icmpType) Protocol() int { return 58 } // IPPROTO_ICMPV6
