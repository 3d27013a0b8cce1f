package adfblk

import (
	"bytes"
	"encoding/binary"

	"github.com/vorteil/adflib/pkg/adfchk"
)

// Root block primary/secondary type tags (T_HEADER / ST_ROOT).
const (
	TypeHeader = 2
	STRoot     = 1
	STDir      = 2
	STFile     = -3
	STLinkDir  = -4
	STLinkFile = 4
	STSoftLink = 3

	// BMValid marks root.BMFlag when the loaded bitmap is known-good.
	BMValid = 0xFFFFFFFF
)

// Root is the volume's top-level directory block: hash table, bitmap
// pointers, and the volume name (spec.md §3).
type Root struct {
	PrimaryType uint32
	HeaderKey   uint32
	HighSeq     uint32
	HTSize      uint32
	FirstData   uint32
	Checksum    uint32
	HashTable   [HashTableSize]uint32
	BMFlag      uint32
	BMPages     [25]uint32
	BMExt       uint32
	RDays       uint32
	RMins       uint32
	RTicks      uint32
	NameLen     uint8
	DiskName    [30]byte
	_           uint8
	_           [8]byte
	VDays       uint32
	VMins       uint32
	VTicks      uint32
	CDays       uint32
	CMins       uint32
	CTicks      uint32
	Extension   uint32 // head of the dir-cache chain, when DIRCACHE is enabled
	_           uint32
	_           uint32
	SecType     int32
}

// Name returns the volume name as a Go string.
func (r *Root) Name() string {
	n := int(r.NameLen)
	if n > len(r.DiskName) {
		n = len(r.DiskName)
	}
	return string(r.DiskName[:n])
}

// SetName stores name (already validated/sanitized by the caller) as the
// volume's disk name.
func (r *Root) SetName(name string) {
	n := len(name)
	if n > len(r.DiskName) {
		n = len(r.DiskName)
	}
	r.NameLen = uint8(n)
	copy(r.DiskName[:], name[:n])
}

// Encode serializes the root block and writes its checksum.
func (r *Root) Encode() []byte {
	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.BigEndian, r)
	out := buf.Bytes()
	adfchk.WriteChecksum(out, adfchk.ChecksumOffsetStandard)
	return out
}

// DecodeRoot parses and checksum-verifies a root block.
func DecodeRoot(raw []byte) (*Root, bool, error) {
	if len(raw) != adfchk.BlockSize {
		return nil, false, ErrWrongSize
	}
	r := new(Root)
	if err := binary.Read(bytes.NewReader(raw), binary.BigEndian, r); err != nil {
		return nil, false, err
	}
	return r, adfchk.VerifyChecksum(raw, adfchk.ChecksumOffsetStandard), nil
}

// UserDir is a subdirectory header block: hash table, parent pointer,
// name, and dates (spec.md §3).
type UserDir struct {
	PrimaryType  uint32
	HeaderKey    uint32
	HighSeq      uint32
	_            uint32
	_            uint32
	Checksum     uint32
	HashTable    [HashTableSize]uint32
	Protect      uint32
	_            uint32
	CommentLen   uint8
	Comment      [79]byte
	DDays        uint32
	DMins        uint32
	DTicks       uint32
	NameLen      uint8
	NameBuf      [30]byte
	_            [45]byte
	RealEntry    uint32
	NextSameHash uint32
	Parent       uint32
	Extension    uint32 // head of this directory's dir-cache chain
	_            uint32
	SecType      int32
}

// Name returns the entry's name as a Go string.
func (u *UserDir) Name() string {
	n := int(u.NameLen)
	if n > len(u.NameBuf) {
		n = len(u.NameBuf)
	}
	return string(u.NameBuf[:n])
}

// SetName stores an already-validated name.
func (u *UserDir) SetName(name string) {
	n := len(name)
	if n > len(u.NameBuf) {
		n = len(u.NameBuf)
	}
	u.NameLen = uint8(n)
	copy(u.NameBuf[:], name[:n])
}

// Encode serializes the userdir block and writes its checksum.
func (u *UserDir) Encode() []byte {
	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.BigEndian, u)
	out := buf.Bytes()
	adfchk.WriteChecksum(out, adfchk.ChecksumOffsetStandard)
	return out
}

// DecodeUserDir parses and checksum-verifies a userdir block.
func DecodeUserDir(raw []byte) (*UserDir, bool, error) {
	if len(raw) != adfchk.BlockSize {
		return nil, false, ErrWrongSize
	}
	u := new(UserDir)
	if err := binary.Read(bytes.NewReader(raw), binary.BigEndian, u); err != nil {
		return nil, false, err
	}
	return u, adfchk.VerifyChecksum(raw, adfchk.ChecksumOffsetStandard), nil
}
