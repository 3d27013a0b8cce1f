package adfblk

import (
	"bytes"
	"encoding/binary"

	"github.com/vorteil/adflib/pkg/adfchk"
)

// RDB block ID tags, read straight off disk as ASCII.
var (
	IDRigidDisk     = [4]byte{'R', 'D', 'S', 'K'}
	IDPartition     = [4]byte{'P', 'A', 'R', 'T'}
	IDFileSysHeader = [4]byte{'F', 'S', 'H', 'D'}
	IDLoadSeg       = [4]byte{'L', 'S', 'E', 'G'}
	IDBadBlock      = [4]byte{'B', 'A', 'D', 'B'}
)

// EndOfChain marks the last block in any RDB linked list (next pointers are
// stored as a signed -1 on disk).
const EndOfChain = 0xFFFFFFFF

// RigidDisk is the RDSK block: always logical block 0 on an RDB-partitioned
// device, it anchors the drive geometry and the heads of the partition and
// filesystem-header chains (spec.md §4.2, §6). adflib only consumes this to
// walk those chains; it never rewrites drive geometry it didn't invent.
type RigidDisk struct {
	ID                 [4]byte
	Size               uint32 // block size in 32-bit longs, normally 64
	Checksum           uint32
	HostID             uint32
	BlockBytes         uint32
	Flags              uint32
	BadBlockList       uint32
	PartitionList      uint32
	FileSysHeaderList  uint32
	DriveInit          uint32
	_                  [6]uint32
	Cylinders          uint32
	Sectors            uint32
	Heads              uint32
	Interleave         uint32
	ParkingZone        uint32
	_                  [3]uint32
	WritePreComp       uint32
	ReducedWrite       uint32
	StepRate           uint32
	_                  [5]uint32
	RDBBlocksLo        uint32
	RDBBlocksHi        uint32
	LoCylinder         uint32
	HiCylinder         uint32
	CylBlocks          uint32
	AutoParkSeconds    uint32
	HighRDSKBlock      uint32
	_                  uint32
	DiskVendor         [8]byte
	DiskProduct        [16]byte
	DiskRevision       [4]byte
	ControllerVendor   [8]byte
	ControllerProduct  [16]byte
	ControllerRevision [4]byte
	_                  [10]uint32
	_                  [256]byte
}

// Encode serializes the RDSK block and writes its checksum.
func (r *RigidDisk) Encode() []byte {
	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.BigEndian, r)
	out := buf.Bytes()
	adfchk.WriteChecksum(out, adfchk.ChecksumOffsetRDB)
	return out
}

// DecodeRigidDisk parses and checksum-verifies an RDSK block.
func DecodeRigidDisk(raw []byte) (*RigidDisk, bool, error) {
	if len(raw) != adfchk.BlockSize {
		return nil, false, ErrWrongSize
	}
	r := new(RigidDisk)
	if err := binary.Read(bytes.NewReader(raw), binary.BigEndian, r); err != nil {
		return nil, false, err
	}
	return r, r.ID == IDRigidDisk && adfchk.VerifyChecksum(raw, adfchk.ChecksumOffsetRDB), nil
}

// Partition is a PART block: one entry in the partition list, carrying the
// DOS environment vector the filesystem driver needs (cylinder range, block
// geometry, dosType) verbatim as spec.md §4.2 describes it.
type Partition struct {
	ID          [4]byte
	Size        uint32
	Checksum    uint32
	HostID      uint32
	Next        uint32
	Flags       uint32
	_           [2]uint32
	DevFlags    uint32
	NameLen     uint8
	Name        [31]byte
	_           [15]uint32
	EnvSize     uint32
	BlockSize   uint32 // size of each block, in longs (128 == 512 bytes)
	SecOrg      uint32
	Surfaces    uint32
	SectorsPerBlock uint32
	BlocksPerTrack  uint32
	Reserved    uint32
	PreAlloc    uint32
	Interleave  uint32
	LowCyl      uint32
	HighCyl     uint32
	NumBuffers  uint32
	BufMemType  uint32
	MaxTransfer uint32
	Mask        uint32
	BootPri     uint32
	DosType     [4]byte
	Baud        uint32
	Control     uint32
	BootBlocks  uint32
	_           [304]byte
}

// PartitionName returns the partition's BCPL-style name.
func (p *Partition) PartitionName() string {
	n := int(p.NameLen)
	if n > len(p.Name) {
		n = len(p.Name)
	}
	return string(p.Name[:n])
}

// Encode serializes the PART block and writes its checksum.
func (p *Partition) Encode() []byte {
	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.BigEndian, p)
	out := buf.Bytes()
	adfchk.WriteChecksum(out, adfchk.ChecksumOffsetRDB)
	return out
}

// DecodePartition parses and checksum-verifies a PART block.
func DecodePartition(raw []byte) (*Partition, bool, error) {
	if len(raw) != adfchk.BlockSize {
		return nil, false, ErrWrongSize
	}
	p := new(Partition)
	if err := binary.Read(bytes.NewReader(raw), binary.BigEndian, p); err != nil {
		return nil, false, err
	}
	return p, p.ID == IDPartition && adfchk.VerifyChecksum(raw, adfchk.ChecksumOffsetRDB), nil
}

// FileSysHeader is an FSHD block: identifies a filesystem handler (dosType)
// and points at the LSEG chain carrying its loadable code. adflib only
// walks and validates this chain (spec.md §4.2); it never executes the
// payload.
type FileSysHeader struct {
	ID           [4]byte
	Size         uint32
	Checksum     uint32
	HostID       uint32
	Next         uint32
	Flags        uint32
	_            [2]uint32
	DosType      [4]byte
	Version      uint32
	PatchFlags   uint32
	Type         uint32
	Task         uint32
	Lock         uint32
	Handler      uint32
	StackSize    uint32
	Priority     uint32
	Startup      uint32
	SegListBlock uint32
	GlobalVec    uint32
	_            [23]uint32
	_            [340]byte
}

// Encode serializes the FSHD block and writes its checksum.
func (f *FileSysHeader) Encode() []byte {
	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.BigEndian, f)
	out := buf.Bytes()
	adfchk.WriteChecksum(out, adfchk.ChecksumOffsetRDB)
	return out
}

// DecodeFileSysHeader parses and checksum-verifies an FSHD block.
func DecodeFileSysHeader(raw []byte) (*FileSysHeader, bool, error) {
	if len(raw) != adfchk.BlockSize {
		return nil, false, ErrWrongSize
	}
	f := new(FileSysHeader)
	if err := binary.Read(bytes.NewReader(raw), binary.BigEndian, f); err != nil {
		return nil, false, err
	}
	return f, f.ID == IDFileSysHeader && adfchk.VerifyChecksum(raw, adfchk.ChecksumOffsetRDB), nil
}

// LoadSegPayloadSize is the opaque code/data capacity of a single LSEG
// block once its 20-byte chain header is accounted for.
const LoadSegPayloadSize = adfchk.BlockSize - 20

// LoadSeg is an LSEG block: one link in a filesystem handler's loadable
// code chain. adflib treats the payload as opaque and only follows Next.
type LoadSeg struct {
	ID       [4]byte
	Size     uint32
	Checksum uint32
	HostID   uint32
	Next     uint32
	Data     [LoadSegPayloadSize]byte
}

// Encode serializes the LSEG block and writes its checksum.
func (l *LoadSeg) Encode() []byte {
	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.BigEndian, l)
	out := buf.Bytes()
	adfchk.WriteChecksum(out, adfchk.ChecksumOffsetRDB)
	return out
}

// DecodeLoadSeg parses and checksum-verifies an LSEG block.
func DecodeLoadSeg(raw []byte) (*LoadSeg, bool, error) {
	if len(raw) != adfchk.BlockSize {
		return nil, false, ErrWrongSize
	}
	l := new(LoadSeg)
	if err := binary.Read(bytes.NewReader(raw), binary.BigEndian, l); err != nil {
		return nil, false, err
	}
	return l, l.ID == IDLoadSeg && adfchk.VerifyChecksum(raw, adfchk.ChecksumOffsetRDB), nil
}

// MaxBadBlockPairs is the number of (bad, good) sector pairs a single BADB
// block can carry.
const MaxBadBlockPairs = 61

// BadBlock is a BADB block: a chain of known-bad-sector remap pairs.
// adflib reads this chain to report a drive's known defects; it never
// writes new entries.
type BadBlock struct {
	ID       [4]byte
	Size     uint32
	Checksum uint32
	HostID   uint32
	Next     uint32
	Count    uint32
	Pairs    [MaxBadBlockPairs * 2]uint32
}

// Encode serializes the BADB block and writes its checksum.
func (b *BadBlock) Encode() []byte {
	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.BigEndian, b)
	out := buf.Bytes()
	adfchk.WriteChecksum(out, adfchk.ChecksumOffsetRDB)
	return out
}

// DecodeBadBlock parses and checksum-verifies a BADB block.
func DecodeBadBlock(raw []byte) (*BadBlock, bool, error) {
	if len(raw) != adfchk.BlockSize {
		return nil, false, ErrWrongSize
	}
	b := new(BadBlock)
	if err := binary.Read(bytes.NewReader(raw), binary.BigEndian, b); err != nil {
		return nil, false, err
	}
	return b, b.ID == IDBadBlock && adfchk.VerifyChecksum(raw, adfchk.ChecksumOffsetRDB), nil
}
