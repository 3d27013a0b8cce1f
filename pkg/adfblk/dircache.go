package adfblk

import (
	"bytes"
	"encoding/binary"

	"github.com/vorteil/adflib/pkg/adfchk"
)

// TypeDirCache is the primaryType of a directory-cache block.
const TypeDirCache = 33

// dirCacheEntrySize is the fixed size of one packed DirCacheEntry record:
// HeaderSector+Parent+SecType+Size+Days+Mins+Ticks (7*4) + NameLen+NameBuf
// (1+30) + CommentLen+Comment (1+79).
const dirCacheEntrySize = 7*4 + 1 + 30 + 1 + 79

// dirCacheRecordsPerBlock is how many fixed-size entries fit in a
// DirCache block's payload, after its 28-byte chain header.
const dirCacheRecordsPerBlock = (adfchk.BlockSize - 28) / dirCacheEntrySize

// DirCacheEntry is a compact summary record (spec.md §4.5): enough to
// list a directory without reading each member's own header block.
type DirCacheEntry struct {
	HeaderSector uint32
	Parent       uint32
	SecType      int32
	Size         uint32
	Days         uint32
	Mins         uint32
	Ticks        uint32
	NameLen      uint8
	NameBuf      [30]byte
	CommentLen   uint8
	Comment      [79]byte
}

// Name returns the entry's name as a Go string.
func (e *DirCacheEntry) Name() string {
	n := int(e.NameLen)
	if n > len(e.NameBuf) {
		n = len(e.NameBuf)
	}
	return string(e.NameBuf[:n])
}

// SetName stores an already-validated name.
func (e *DirCacheEntry) SetName(name string) {
	n := len(name)
	if n > len(e.NameBuf) {
		n = len(e.NameBuf)
	}
	e.NameLen = uint8(n)
	copy(e.NameBuf[:], name[:n])
}

// DirCache is a directory-cache block: a chain header plus up to
// dirCacheRecordsPerBlock packed DirCacheEntry records, linked from a
// directory's Extension field and chained via Next (spec.md §4.5).
type DirCache struct {
	PrimaryType uint32
	HeaderKey   uint32
	Parent      uint32
	RecordCount uint32
	_           uint32
	Checksum    uint32
	Next        uint32
	Records     [dirCacheRecordsPerBlock]DirCacheEntry
}

// Encode serializes the dir-cache block and writes its checksum.
func (d *DirCache) Encode() []byte {
	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.BigEndian, d)
	out := buf.Bytes()
	if len(out) < adfchk.BlockSize {
		out = append(out, make([]byte, adfchk.BlockSize-len(out))...)
	}
	out = out[:adfchk.BlockSize]
	adfchk.WriteChecksum(out, adfchk.ChecksumOffsetStandard)
	return out
}

// DecodeDirCache parses and checksum-verifies a dir-cache block.
func DecodeDirCache(raw []byte) (*DirCache, bool, error) {
	if len(raw) != adfchk.BlockSize {
		return nil, false, ErrWrongSize
	}
	d := new(DirCache)
	if err := binary.Read(bytes.NewReader(raw), binary.BigEndian, d); err != nil {
		return nil, false, err
	}
	return d, adfchk.VerifyChecksum(raw, adfchk.ChecksumOffsetStandard), nil
}
