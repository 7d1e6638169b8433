package sinfo

import (
	"encoding/binary"
	"testing"

	"github.com/ardnew/muenipc/platform/sim"
)

// buildName encodes a length-prefixed, NUL-terminated name field.
func buildName(buf []byte, name string) {
	buf[0] = byte(len(name))
	copy(buf[1:], name)
}

// buildDirectory constructs a raw sinfo page from a subject name and a set
// of records, for use as test fixtures.
func buildDirectory(subject string, records []Record) []byte {
	buf := make([]byte, headerSize+len(records)*resourceSize)

	binary.LittleEndian.PutUint64(buf[0:8], Magic)
	binary.LittleEndian.PutUint32(buf[8:12], 1000000)
	buildName(buf[12:12+nameSize], subject)
	binary.LittleEndian.PutUint16(buf[12+nameSize:12+nameSize+2], uint16(len(records)))

	for i, rec := range records {
		off := headerSize + i*resourceSize
		rbuf := buf[off : off+resourceSize]
		binary.LittleEndian.PutUint32(rbuf[0:4], uint32(rec.Kind))
		buildName(rbuf[4:4+nameSize], rec.Name)
		data := rbuf[4+nameSize+3:]
		switch rec.Kind {
		case ResourceMemory:
			data[0] = byte(rec.Memory.Kind)
			data[1] = byte(rec.Memory.Content)
			data[2] = rec.Memory.Flags
			binary.LittleEndian.PutUint16(data[3:5], rec.Memory.Pattern)
			binary.LittleEndian.PutUint64(data[8:16], rec.Memory.Address)
			binary.LittleEndian.PutUint64(data[16:24], rec.Memory.Size)
			copy(data[24:24+HashLength], rec.Memory.Hash[:])
		case ResourceEvent:
			data[0] = rec.Event
		case ResourceVector:
			data[0] = rec.Vector
		case ResourceDevice:
			binary.LittleEndian.PutUint16(data[0:2], rec.Device.SID)
			binary.LittleEndian.PutUint16(data[2:4], rec.Device.IRTEStart)
			data[4] = rec.Device.IRQStart
			data[5] = rec.Device.IRCount
			data[6] = rec.Device.Flags
		case ResourceDevMem:
			data[0] = rec.DevMem.Flags
			binary.LittleEndian.PutUint64(data[8:16], rec.DevMem.Address)
			binary.LittleEndian.PutUint64(data[16:24], rec.DevMem.Size)
		}
	}

	return buf
}

func openTestDirectory(t *testing.T, subject string, records []Record) *Directory {
	t.Helper()
	raw := buildDirectory(subject, records)
	region := sim.NewRegion(len(raw))
	copy(region.Bytes(), raw)
	d, err := Open(region)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	return d
}

func TestOpen_CheckMagic(t *testing.T) {
	d := openTestDirectory(t, "linux", nil)
	if !d.CheckMagic() {
		t.Error("CheckMagic() = false, want true")
	}
}

func TestOpen_BadMagic(t *testing.T) {
	raw := buildDirectory("linux", nil)
	binary.LittleEndian.PutUint64(raw[0:8], 0xdeadbeef)
	region := sim.NewRegion(len(raw))
	copy(region.Bytes(), raw)

	if _, err := Open(region); err == nil {
		t.Error("Open() with bad magic: want error, got nil")
	}
}

func TestOpen_TooShort(t *testing.T) {
	region := sim.NewRegion(10)
	if _, err := Open(region); err == nil {
		t.Error("Open() with short region: want error, got nil")
	}
}

func TestSubjectName(t *testing.T) {
	d := openTestDirectory(t, "net0", nil)
	if got := d.SubjectName(); got != "net0" {
		t.Errorf("SubjectName() = %q, want %q", got, "net0")
	}
}

func TestTSCKHz(t *testing.T) {
	d := openTestDirectory(t, "linux", nil)
	if got := d.TSCKHz(); got != 1000000 {
		t.Errorf("TSCKHz() = %d, want %d", got, 1000000)
	}
}

func TestGetResource(t *testing.T) {
	records := []Record{
		{Kind: ResourceEvent, Name: "net_ch_0_writer", Event: 5},
		{Kind: ResourceVector, Name: "net_ch_0_reader", Vector: 42},
		{Kind: ResourceMemory, Name: "net_ch_0", Memory: MemoryRegion{
			Kind: MemSubjChannel, Address: 0x1000000, Size: 0x1000,
		}},
	}
	d := openTestDirectory(t, "linux", records)

	tests := []struct {
		name    string
		kind    ResourceKind
		wantOK  bool
		checkFn func(t *testing.T, rec Record)
	}{
		{"net_ch_0_writer", ResourceEvent, true, func(t *testing.T, rec Record) {
			if rec.Event != 5 {
				t.Errorf("Event = %d, want 5", rec.Event)
			}
		}},
		{"net_ch_0_reader", ResourceVector, true, func(t *testing.T, rec Record) {
			if rec.Vector != 42 {
				t.Errorf("Vector = %d, want 42", rec.Vector)
			}
		}},
		{"net_ch_0", ResourceMemory, true, func(t *testing.T, rec Record) {
			if rec.Memory.Address != 0x1000000 {
				t.Errorf("Memory.Address = 0x%x, want 0x1000000", rec.Memory.Address)
			}
		}},
		{"net_ch_0", ResourceEvent, false, nil}, // name exists, wrong kind
		{"missing", ResourceEvent, false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.kind.String(), func(t *testing.T) {
			rec, ok := d.GetResource(tt.name, tt.kind)
			if ok != tt.wantOK {
				t.Fatalf("GetResource() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && tt.checkFn != nil {
				tt.checkFn(t, rec)
			}
		})
	}
}

func TestGetDevice(t *testing.T) {
	records := []Record{
		{Kind: ResourceDevice, Name: "eth0", Device: DeviceInfo{SID: 0x0100, IRQStart: 32, IRCount: 1}},
	}
	d := openTestDirectory(t, "linux", records)

	rec, ok := d.GetDevice(0x0100)
	if !ok {
		t.Fatal("GetDevice(0x0100) not found")
	}
	if rec.Device.IRQStart != 32 {
		t.Errorf("IRQStart = %d, want 32", rec.Device.IRQStart)
	}

	if _, ok := d.GetDevice(0xffff); ok {
		t.Error("GetDevice(0xffff) found, want not found")
	}
}

func TestForEach(t *testing.T) {
	records := []Record{
		{Kind: ResourceEvent, Name: "a", Event: 1},
		{Kind: ResourceEvent, Name: "b", Event: 2},
		{Kind: ResourceEvent, Name: "c", Event: 3},
	}
	d := openTestDirectory(t, "linux", records)

	var seen []string
	d.ForEach(func(rec Record) bool {
		seen = append(seen, rec.Name)
		return true
	})
	if len(seen) != 3 {
		t.Fatalf("ForEach visited %d records, want 3", len(seen))
	}

	var stopped []string
	d.ForEach(func(rec Record) bool {
		stopped = append(stopped, rec.Name)
		return rec.Name != "b"
	})
	if len(stopped) != 2 {
		t.Fatalf("ForEach with early stop visited %d records, want 2", len(stopped))
	}
}

func TestReadSchedInfo(t *testing.T) {
	region := sim.NewRegion(16)
	binary.LittleEndian.PutUint64(region.Bytes()[0:8], 1000)
	binary.LittleEndian.PutUint64(region.Bytes()[8:16], 2000)

	info, err := ReadSchedInfo(region)
	if err != nil {
		t.Fatalf("ReadSchedInfo() error: %v", err)
	}
	if info.Start != 1000 || info.End != 2000 {
		t.Errorf("ReadSchedInfo() = %+v, want {1000 2000}", info)
	}
}

func TestReadSchedInfo_TooShort(t *testing.T) {
	region := sim.NewRegion(4)
	if _, err := ReadSchedInfo(region); err == nil {
		t.Error("ReadSchedInfo() with short region: want error, got nil")
	}
}
