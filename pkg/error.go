package pkg

import "errors"

// Sinfo directory errors.
var (
	// ErrSinfoUnavailable indicates the sinfo directory could not be mapped
	// or does not carry the expected magic value.
	ErrSinfoUnavailable = errors.New("sinfo directory unavailable")

	// ErrDecodeResource indicates a resource record failed to decode, e.g.
	// an unrecognized kind or a name length above the maximum.
	ErrDecodeResource = errors.New("malformed sinfo resource record")

	// ErrResourceNotFound indicates no resource matched the requested name
	// and kind.
	ErrResourceNotFound = errors.New("resource not found")

	// ErrTooManyResources indicates a directory claims more resource
	// records than the format allows.
	ErrTooManyResources = errors.New("too many resources")
)

// Affinity registry errors.
var (
	// ErrAffinityNotBuilt indicates a lookup was attempted before Build.
	ErrAffinityNotBuilt = errors.New("affinity registry not built")

	// ErrNoAffinityMatch indicates no registry entry matched a predicate.
	ErrNoAffinityMatch = errors.New("no matching affinity entry")

	// ErrAmbiguousMatch indicates more than one registry entry matched a
	// predicate expecting exactly one.
	ErrAmbiguousMatch = errors.New("ambiguous affinity match")
)

// Channel protocol errors.
var (
	// ErrChannelInactive indicates the channel has not been initialized by
	// its writer, or has been explicitly deactivated.
	ErrChannelInactive = errors.New("channel inactive")

	// ErrIncompatibleInterface indicates the channel's transport or protocol
	// does not match what the reader expects, or that a writer was given an
	// unusable epoch, element size, or channel size.
	ErrIncompatibleInterface = errors.New("incompatible channel interface")

	// ErrEpochChanged indicates the writer restarted mid-read; the reader
	// must resynchronize.
	ErrEpochChanged = errors.New("channel epoch changed")

	// ErrOverrunDetected indicates the writer has lapped the reader.
	ErrOverrunDetected = errors.New("channel overrun detected")

	// ErrNoData indicates no new element is available.
	ErrNoData = errors.New("no data available")

	// ErrBufferTooSmall indicates the destination buffer cannot hold one
	// element.
	ErrBufferTooSmall = errors.New("buffer too small")
)

// Muennet framer errors.
var (
	// ErrFrameTooLarge indicates a frame exceeds the channel's element
	// size or the configured PMTU.
	ErrFrameTooLarge = errors.New("frame too large")

	// ErrInvalidHeader indicates a net-hdr or eth-hdr could not be parsed.
	ErrInvalidHeader = errors.New("invalid frame header")

	// ErrUnknownChild indicates a frame's mark does not match any
	// registered child device.
	ErrUnknownChild = errors.New("unknown child mark")

	// ErrChildExists indicates a child device was already registered under
	// the given mark.
	ErrChildExists = errors.New("child already registered")

	// ErrConfigInvalid indicates an interface configuration section failed
	// validation (missing name, zero MTU, conflicting marks, …).
	ErrConfigInvalid = errors.New("invalid interface configuration")
)

// Platform HAL errors.
var (
	// ErrRegionUnavailable indicates a physical memory region could not be
	// mapped.
	ErrRegionUnavailable = errors.New("memory region unavailable")

	// ErrEventUnavailable indicates the event-trigger device could not be
	// opened or the hypercall failed.
	ErrEventUnavailable = errors.New("event trigger unavailable")
)
