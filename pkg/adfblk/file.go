package adfblk

import (
	"bytes"
	"encoding/binary"

	"github.com/vorteil/adflib/pkg/adfchk"
)

// TypeFileExtension is the primary type tag of a FileExtension block.
const TypeFileExtension = 16

// FileHeader carries byteSize, the first data-block pointers (reverse
// order, slot 71 = first), and the chain head for any FileExtension
// blocks needed once the file outgrows 72 direct pointers (spec.md §4.6).
type FileHeader struct {
	PrimaryType  uint32
	HeaderKey    uint32
	HighSeq      uint32
	_            uint32
	FirstData    uint32
	Checksum     uint32
	DataBlocks   [HashTableSize]uint32
	Access       uint32
	ByteSize     uint32
	CommentLen   uint8
	Comment      [79]byte
	FDays        uint32
	FMins        uint32
	FTicks       uint32
	NameLen      uint8
	NameBuf      [30]byte
	_            [45]byte
	RealEntry    uint32
	NextSameHash uint32
	Parent       uint32
	Extension    uint32 // head of the FileExtension chain, 0 if none
	_            uint32
	SecType      int32
}

// Name returns the entry's name as a Go string.
func (f *FileHeader) Name() string {
	n := int(f.NameLen)
	if n > len(f.NameBuf) {
		n = len(f.NameBuf)
	}
	return string(f.NameBuf[:n])
}

// SetName stores an already-validated name.
func (f *FileHeader) SetName(name string) {
	n := len(name)
	if n > len(f.NameBuf) {
		n = len(f.NameBuf)
	}
	f.NameLen = uint8(n)
	copy(f.NameBuf[:], name[:n])
}

// Encode serializes the file header block and writes its checksum.
func (f *FileHeader) Encode() []byte {
	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.BigEndian, f)
	out := buf.Bytes()
	adfchk.WriteChecksum(out, adfchk.ChecksumOffsetStandard)
	return out
}

// DecodeFileHeader parses and checksum-verifies a file header block.
func DecodeFileHeader(raw []byte) (*FileHeader, bool, error) {
	if len(raw) != adfchk.BlockSize {
		return nil, false, ErrWrongSize
	}
	f := new(FileHeader)
	if err := binary.Read(bytes.NewReader(raw), binary.BigEndian, f); err != nil {
		return nil, false, err
	}
	return f, adfchk.VerifyChecksum(raw, adfchk.ChecksumOffsetStandard), nil
}

// FileExtension carries a further 72 reverse-order data-block pointers and
// chains to the next extension block via its own Extension field.
type FileExtension struct {
	PrimaryType uint32
	HeaderKey   uint32
	HighSeq     uint32
	_           uint32
	_           uint32
	Checksum    uint32
	DataBlocks  [HashTableSize]uint32
	_           [176]byte
	_           uint32
	_           uint32
	Parent      uint32 // owning file header's sector
	Extension   uint32 // next FileExtension block, 0 if last
	_           uint32
	SecType     int32
}

// Encode serializes the file extension block and writes its checksum.
func (f *FileExtension) Encode() []byte {
	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.BigEndian, f)
	out := buf.Bytes()
	adfchk.WriteChecksum(out, adfchk.ChecksumOffsetStandard)
	return out
}

// DecodeFileExtension parses and checksum-verifies a file extension block.
func DecodeFileExtension(raw []byte) (*FileExtension, bool, error) {
	if len(raw) != adfchk.BlockSize {
		return nil, false, ErrWrongSize
	}
	f := new(FileExtension)
	if err := binary.Read(bytes.NewReader(raw), binary.BigEndian, f); err != nil {
		return nil, false, err
	}
	return f, adfchk.VerifyChecksum(raw, adfchk.ChecksumOffsetStandard), nil
}
