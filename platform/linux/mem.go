//go:build linux

// Package linux implements the muen platform HAL for a real Linux subject:
// physical memory is mapped via /dev/mem and golang.org/x/sys/unix, and the
// event hypercall is issued via ioctl on the Muen event device node.
package linux

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/ardnew/muenipc/platform"
)

// DevMemPath is the device node mmap maps physical ranges through.
const DevMemPath = "/dev/mem"

// pageSize is assumed 4 KiB, matching every Muen hardware target; physical
// offsets and lengths are rounded out to this boundary before mmap.
const pageSize = 4096

// Region is a mmap of a physical address range.
type Region struct {
	raw    []byte // the page-aligned mmap
	offset int    // byte offset of the caller's range within raw
	length int    // caller's requested length
}

// MapPhysical maps the physical address range [addr, addr+size) read-only,
// or read-write if writable is true. The range need not be page-aligned;
// MapPhysical rounds out to whole pages and returns a [platform.Region]
// whose Bytes() slice reflects exactly the requested range.
func MapPhysical(addr uint64, size int, writable bool) (*Region, error) {
	if size <= 0 {
		return nil, fmt.Errorf("platform/linux: invalid size %d", size)
	}

	f, err := os.OpenFile(DevMemPath, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("platform/linux: open %s: %w", DevMemPath, err)
	}
	defer f.Close()

	aligned := addr &^ uint64(pageSize-1)
	offset := int(addr - aligned)
	mapLen := offset + size
	if rem := mapLen % pageSize; rem != 0 {
		mapLen += pageSize - rem
	}

	prot := unix.PROT_READ
	if writable {
		prot |= unix.PROT_WRITE
	}

	raw, err := unix.Mmap(int(f.Fd()), int64(aligned), mapLen, prot, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("platform/linux: mmap 0x%x (%d bytes): %w", addr, mapLen, err)
	}

	return &Region{raw: raw, offset: offset, length: size}, nil
}

// Bytes returns the caller's requested range within the mapping.
func (r *Region) Bytes() []byte {
	return r.raw[r.offset : r.offset+r.length]
}

// Close unmaps the region.
func (r *Region) Close() error {
	return unix.Munmap(r.raw)
}

// Ensure Region implements platform.Region.
var _ platform.Region = (*Region)(nil)
