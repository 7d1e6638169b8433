package sinfo

import (
	"encoding/binary"

	"github.com/ardnew/muenipc/pkg"
)

// Magic is the fixed value every valid sinfo directory carries at offset 0.
const Magic uint64 = 0x03006f666e69756d

// Wire-format bounds, matching the hypervisor's fixed-size sinfo page.
const (
	MaxResourceCount = 255
	MaxNameLength    = 63
	HashLength       = 32
)

// Wire-format sizes, in bytes.
const (
	nameSize     = 1 + MaxNameLength + 1 // length + data + null terminator
	memRegSize   = 56                    // largest resource-data variant
	resourceSize = 4 + nameSize + 3 + memRegSize
	headerSize   = 8 + 4 + nameSize + 2 + 1
)

// ResourceKind discriminates the variant held by a [Record]'s data.
type ResourceKind uint32

// Resource kinds, matching the hypervisor's resource_kind enumeration.
const (
	ResourceNone   ResourceKind = iota
	ResourceMemory              // memory region
	ResourceEvent               // outgoing signal number, 0-63
	ResourceVector              // incoming interrupt vector, 0-255
	ResourceDevice              // PCI device
	ResourceDevMem              // device MMIO region
)

// String returns a short name for the resource kind.
func (k ResourceKind) String() string {
	switch k {
	case ResourceNone:
		return "none"
	case ResourceMemory:
		return "memory"
	case ResourceEvent:
		return "event"
	case ResourceVector:
		return "vector"
	case ResourceDevice:
		return "device"
	case ResourceDevMem:
		return "devmem"
	default:
		return "unknown"
	}
}

// MemoryKind identifies the purpose a memory region serves.
type MemoryKind uint8

// Known memory region kinds. Not exhaustive: the hypervisor defines more
// than are useful to a Linux subject; unrecognized values are kept as-is
// rather than rejected.
const (
	MemSubj MemoryKind = iota
	MemSubjInfo
	MemSubjBin
	MemSubjZP
	MemSubjInitrd
	MemSubjChannel
	MemSubjState
	MemSubjTimedEvt
	MemSubjIntrs
	MemSubjSchedInfo
	MemSubjBIOS
	MemSubjACPIRSDP
	MemSubjACPIXSDT
	MemSubjACPIFADT
	MemSubjACPIDSDT
	MemSubjDevice
	MemSubjSolo5BootInfo
	MemSubjCrashAudit
	MemKrnlIface
)

// ContentKind identifies what, if anything, initializes a memory region.
type ContentKind uint8

// Memory content kinds.
const (
	ContentUninitialized ContentKind = iota
	ContentFill
	ContentFile
)

// Memory region flag bits.
const (
	MemFlagWritable  uint8 = 1 << 0
	MemFlagExecutable uint8 = 1 << 1
)

// Device flag bits.
const DevFlagMSI uint8 = 1 << 0

// MemoryRegion describes a memory resource: a physical range with a
// purpose, permission flags, and either a fill pattern or a SHA-256 hash
// of its expected contents.
type MemoryRegion struct {
	Kind    MemoryKind
	Content ContentKind
	Flags   uint8
	Pattern uint16
	Address uint64
	Size    uint64
	Hash    [HashLength]byte
}

// Writable reports whether the region's flags permit writes.
func (m MemoryRegion) Writable() bool { return m.Flags&MemFlagWritable != 0 }

// Executable reports whether the region's flags permit execution.
func (m MemoryRegion) Executable() bool { return m.Flags&MemFlagExecutable != 0 }

// DeviceInfo describes a PCI passthrough device.
type DeviceInfo struct {
	SID       uint16 // PCI source-ID
	IRTEStart uint16 // base interrupt-remapping table entry
	IRQStart  uint8  // base IRQ number
	IRCount   uint8  // number of IRQs starting at IRQStart
	Flags     uint8
}

// MSICapable reports whether the device uses message-signaled interrupts.
func (d DeviceInfo) MSICapable() bool { return d.Flags&DevFlagMSI != 0 }

// DevMemRegion describes a device MMIO region.
type DevMemRegion struct {
	Flags   uint8
	Address uint64
	Size    uint64
}

// Record is one entry of the sinfo directory: a name paired with exactly
// one resource variant, selected by Kind. Only the field matching Kind is
// meaningful; the others are zero.
type Record struct {
	Kind   ResourceKind
	Name   string
	Memory MemoryRegion
	Device DeviceInfo
	DevMem DevMemRegion
	Event  uint8
	Vector uint8
}

// decodeName parses a length-prefixed, NUL-terminated name field.
func decodeName(buf []byte) (string, error) {
	if len(buf) < nameSize {
		return "", pkg.ErrDecodeResource
	}
	length := int(buf[0])
	if length > MaxNameLength {
		return "", pkg.ErrDecodeResource
	}
	return string(buf[1 : 1+length]), nil
}

// decodeRecord parses one resourceSize-byte record.
func decodeRecord(buf []byte) (Record, error) {
	if len(buf) < resourceSize {
		return Record{}, pkg.ErrDecodeResource
	}
	rec := Record{Kind: ResourceKind(binary.LittleEndian.Uint32(buf[0:4]))}

	name, err := decodeName(buf[4 : 4+nameSize])
	if err != nil {
		return Record{}, err
	}
	rec.Name = name

	data := buf[4+nameSize+3:]
	switch rec.Kind {
	case ResourceMemory:
		rec.Memory = decodeMemoryRegion(data)
	case ResourceEvent:
		rec.Event = data[0]
	case ResourceVector:
		rec.Vector = data[0]
	case ResourceDevice:
		rec.Device = decodeDeviceInfo(data)
	case ResourceDevMem:
		rec.DevMem = decodeDevMemRegion(data)
	case ResourceNone:
		// nothing to decode
	default:
		return Record{}, pkg.ErrDecodeResource
	}
	return rec, nil
}

func decodeMemoryRegion(data []byte) MemoryRegion {
	var m MemoryRegion
	m.Kind = MemoryKind(data[0])
	m.Content = ContentKind(data[1])
	m.Flags = data[2]
	m.Pattern = binary.LittleEndian.Uint16(data[3:5])
	m.Address = binary.LittleEndian.Uint64(data[8:16])
	m.Size = binary.LittleEndian.Uint64(data[16:24])
	copy(m.Hash[:], data[24:24+HashLength])
	return m
}

func decodeDeviceInfo(data []byte) DeviceInfo {
	var d DeviceInfo
	d.SID = binary.LittleEndian.Uint16(data[0:2])
	d.IRTEStart = binary.LittleEndian.Uint16(data[2:4])
	d.IRQStart = data[4]
	d.IRCount = data[5]
	d.Flags = data[6]
	return d
}

func decodeDevMemRegion(data []byte) DevMemRegion {
	var d DevMemRegion
	d.Flags = data[0]
	d.Address = binary.LittleEndian.Uint64(data[8:16])
	d.Size = binary.LittleEndian.Uint64(data[16:24])
	return d
}
