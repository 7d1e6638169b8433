package channel

import (
	"crypto/rand"
	"encoding/binary"
	"sync/atomic"
)

// monotonicEpoch is the fallback counter used when crypto/rand fails,
// guaranteeing every epoch still differs from the last one this process
// issued even if no entropy source is available.
var monotonicEpoch atomic.Uint64

// NewEpoch returns a fresh, non-zero epoch value suitable for activating a
// channel. It prefers a cryptographically random 64-bit value so an
// unrelated reader cannot predict or collide with it; if the system
// entropy source is unavailable it falls back to a monotonically
// increasing counter, which still guarantees the new epoch differs from
// any epoch this process has issued before.
func NewEpoch() uint64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err == nil {
		if v := binary.LittleEndian.Uint64(buf[:]); v != NullEpoch {
			return v
		}
	}
	for {
		if v := monotonicEpoch.Add(1); v != NullEpoch {
			return v
		}
	}
}
