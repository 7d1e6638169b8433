package sinfo

import (
	"encoding/binary"
	"fmt"

	iradix "github.com/hashicorp/go-immutable-radix"

	"github.com/ardnew/muenipc/pkg"
	"github.com/ardnew/muenipc/platform"
)

// Directory is a parsed, read-only view of a subject's sinfo page. It is
// safe for concurrent use by multiple readers once built: nothing mutates
// after Open returns.
type Directory struct {
	magic     uint64
	tscKHz    uint32
	name      string
	resources []Record

	// index accelerates repeated GetResource lookups (GetDevice and ForEach
	// scan resources linearly); it is built once from resources and never
	// modified, so sharing the same *iradix.Tree across goroutines is safe.
	index *iradix.Tree
}

// indexKey builds the radix-tree key for a (name, kind) pair. Kind is
// appended after a NUL so "eth" with kind Device and "eth\x00x" with kind
// Memory never collide.
func indexKey(name string, kind ResourceKind) []byte {
	key := make([]byte, 0, len(name)+5)
	key = append(key, name...)
	key = append(key, 0)
	return binary.LittleEndian.AppendUint32(key, uint32(kind))
}

// Open parses the sinfo directory backed by region. The region must map at
// least the fixed sinfo page size; Open performs a single bounded linear
// pass over the resource table to build both the resource slice and the
// name index.
func Open(region platform.Region) (*Directory, error) {
	buf := region.Bytes()
	if len(buf) < headerSize {
		return nil, pkg.ErrSinfoUnavailable
	}

	d := &Directory{
		magic:  binary.LittleEndian.Uint64(buf[0:8]),
		tscKHz: binary.LittleEndian.Uint32(buf[8:12]),
	}

	name, err := decodeName(buf[12 : 12+nameSize])
	if err != nil {
		return nil, fmt.Errorf("sinfo: subject name: %w", err)
	}
	d.name = name

	count := int(binary.LittleEndian.Uint16(buf[12+nameSize : 12+nameSize+2]))
	if count > MaxResourceCount {
		return nil, pkg.ErrTooManyResources
	}

	if !d.CheckMagic() {
		return nil, pkg.ErrSinfoUnavailable
	}

	if len(buf) < headerSize+count*resourceSize {
		return nil, pkg.ErrSinfoUnavailable
	}

	d.resources = make([]Record, 0, count)
	txn := iradix.New().Txn()
	for i := 0; i < count; i++ {
		off := headerSize + i*resourceSize
		rec, err := decodeRecord(buf[off : off+resourceSize])
		if err != nil {
			pkg.LogWarn(pkg.ComponentSinfo, "skipping malformed resource", "index", i, "error", err)
			continue
		}
		d.resources = append(d.resources, rec)
		// Keep the first record for a (name, kind) pair so GetResource
		// returns the earliest declaration.
		key := indexKey(rec.Name, rec.Kind)
		if _, dup := txn.Get(key); !dup {
			txn.Insert(key, len(d.resources)-1)
		}
	}
	d.index = txn.Commit()

	return d, nil
}

// CheckMagic reports whether the directory's magic matches the expected
// value. Every other lookup is meaningless if this returns false.
func (d *Directory) CheckMagic() bool {
	return d.magic == Magic
}

// SubjectName returns the partition's own name.
func (d *Directory) SubjectName() string {
	return d.name
}

// TSCKHz returns the TSC tick rate in kHz, maintained by the hypervisor.
func (d *Directory) TSCKHz() uint64 {
	return uint64(d.tscKHz)
}

// GetResource returns the first resource with the given name and kind.
func (d *Directory) GetResource(name string, kind ResourceKind) (Record, bool) {
	v, ok := d.index.Get(indexKey(name, kind))
	if !ok {
		return Record{}, false
	}
	return d.resources[v.(int)], true
}

// GetDevice returns device information for the PCI device with the given
// source-ID, or false if no such device is present.
func (d *Directory) GetDevice(sid uint16) (Record, bool) {
	for _, rec := range d.resources {
		if rec.Kind == ResourceDevice && rec.Device.SID == sid {
			return rec, true
		}
	}
	return Record{}, false
}

// ForEach invokes visit for each resource in declaration order, stopping
// early if visit returns false.
func (d *Directory) ForEach(visit func(Record) bool) {
	for _, rec := range d.resources {
		if !visit(rec) {
			return
		}
	}
}

// LogResources logs one summary line for the directory at info level, then
// one line per resource at debug level, all tagged with the sinfo component.
func (d *Directory) LogResources() {
	pkg.LogInfo(pkg.ComponentSinfo, "subject resources", "subject", d.name, "count", len(d.resources))
	for _, rec := range d.resources {
		pkg.LogDebug(pkg.ComponentSinfo, "resource", "name", rec.Name, "kind", rec.Kind.String())
	}
}

// SchedInfo holds the current minor-frame scheduling window for one CPU,
// read from its scheduling-info page.
type SchedInfo struct {
	Start uint64 // tsc_schedule_start
	End   uint64 // tsc_schedule_end
}

// ReadSchedInfo reads the scheduling-info page backing region. The fields
// are updated concurrently by the hypervisor, so each read reflects the
// latest values visible at the time of the call. The two fields are read
// one after the other, not as an atomic pair; callers wanting a consistent
// (start, end) pair should call again and compare Start.
func ReadSchedInfo(region platform.Region) (SchedInfo, error) {
	buf := region.Bytes()
	if len(buf) < 16 {
		return SchedInfo{}, pkg.ErrSinfoUnavailable
	}
	return SchedInfo{
		Start: binary.LittleEndian.Uint64(buf[0:8]),
		End:   binary.LittleEndian.Uint64(buf[8:16]),
	}, nil
}
