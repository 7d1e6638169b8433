// Package sinfo reads the Muen subject information (sinfo) directory.
//
// The sinfo page is a fixed, read-only region published by the Separation
// Kernel describing the resources a subject was statically configured
// with: memory regions, events, vectors, PCI devices, and device memory.
// A [Directory] wraps the mapped bytes and exposes bounded linear-scan
// lookups plus a radix-tree index, always built by Open, for name lookups.
//
// Directories are immutable for the lifetime of the partition; callers
// build one at boot from a [platform.Region] and treat it as read-only
// thereafter.
package sinfo
