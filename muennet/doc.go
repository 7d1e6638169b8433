// Package muennet layers a network interface abstraction on top of one
// write channel and one read channel, each backed by a
// [github.com/ardnew/muenipc/channel].
//
// A [Framer] supports three framing modes, chosen per interface:
//
//   - raw: the element carries the payload directly.
//   - net-hdr: a {mark, length, protocol, qos} prefix carries an IPv4/IPv6
//     packet plus a demultiplexing mark and a QoS tag.
//   - eth: a {length} suffix at the tail of the slot carries a variable
//     length Ethernet frame.
//
// In net-hdr mode a parent device can own any number of child devices,
// each bound to a mark; a second read-only channel can supply a per-mark
// PMTU table that the writer consults before transmitting, fragmenting
// IPv4 packets or synthesizing ICMP "fragmentation needed" /
// "packet too big" messages when a frame exceeds it.
package muennet
