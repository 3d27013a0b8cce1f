package adfblk

import (
	"bytes"
	"encoding/binary"

	"github.com/vorteil/adflib/pkg/adfchk"
)

// LinkEntry is a hard-link block (LinkFile or LinkDir, SecType ±4): it
// stores RealEntry (the target's sector) and NextLink (the next link
// entry in the target's own link list), per spec.md §4.7.
type LinkEntry struct {
	PrimaryType  uint32
	HeaderKey    uint32
	HighSeq      uint32
	_            uint32
	_            uint32
	Checksum     uint32
	_            [288]byte
	Protect      uint32
	_            uint32
	CommentLen   uint8
	Comment      [79]byte
	LDays        uint32
	LMins        uint32
	LTicks       uint32
	NameLen      uint8
	NameBuf      [30]byte
	_            [45]byte
	RealEntry    uint32
	NextSameHash uint32
	Parent       uint32
	NextLink     uint32
	_            uint32
	SecType      int32
}

// Name returns the entry's name as a Go string.
func (l *LinkEntry) Name() string {
	n := int(l.NameLen)
	if n > len(l.NameBuf) {
		n = len(l.NameBuf)
	}
	return string(l.NameBuf[:n])
}

// SetName stores an already-validated name.
func (l *LinkEntry) SetName(name string) {
	n := len(name)
	if n > len(l.NameBuf) {
		n = len(l.NameBuf)
	}
	l.NameLen = uint8(n)
	copy(l.NameBuf[:], name[:n])
}

// Encode serializes the link block and writes its checksum.
func (l *LinkEntry) Encode() []byte {
	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.BigEndian, l)
	out := buf.Bytes()
	adfchk.WriteChecksum(out, adfchk.ChecksumOffsetStandard)
	return out
}

// DecodeLinkEntry parses and checksum-verifies a link block.
func DecodeLinkEntry(raw []byte) (*LinkEntry, bool, error) {
	if len(raw) != adfchk.BlockSize {
		return nil, false, ErrWrongSize
	}
	l := new(LinkEntry)
	if err := binary.Read(bytes.NewReader(raw), binary.BigEndian, l); err != nil {
		return nil, false, err
	}
	return l, adfchk.VerifyChecksum(raw, adfchk.ChecksumOffsetStandard), nil
}

// SoftLinkPathSize is the fixed capacity of a soft link's inline target
// path buffer.
const SoftLinkPathSize = 400

// SoftLink stores an inline target path string; resolving it is a string
// substitution and re-traversal from the link's parent directory
// (spec.md §4.7).
type SoftLink struct {
	PrimaryType  uint32
	HeaderKey    uint32
	HighSeq      uint32
	_            uint32
	_            uint32
	Checksum     uint32
	Path         [SoftLinkPathSize]byte
	SDays        uint32
	SMins        uint32
	STicks       uint32
	NameLen      uint8
	NameBuf      [30]byte
	_            [21]byte
	RealEntry    uint32
	NextSameHash uint32
	Parent       uint32
	_            uint32
	_            uint32
	SecType      int32
}

// Name returns the entry's name as a Go string.
func (s *SoftLink) Name() string {
	n := int(s.NameLen)
	if n > len(s.NameBuf) {
		n = len(s.NameBuf)
	}
	return string(s.NameBuf[:n])
}

// SetName stores an already-validated name.
func (s *SoftLink) SetName(name string) {
	n := len(name)
	if n > len(s.NameBuf) {
		n = len(s.NameBuf)
	}
	s.NameLen = uint8(n)
	copy(s.NameBuf[:], name[:n])
}

// TargetPath returns the soft link's inline target path, reading up to the
// first NUL byte.
func (s *SoftLink) TargetPath() string {
	idx := bytes.IndexByte(s.Path[:], 0)
	if idx < 0 {
		idx = len(s.Path)
	}
	return string(s.Path[:idx])
}

// SetTargetPath stores path as the inline NUL-terminated target.
func (s *SoftLink) SetTargetPath(path string) error {
	if len(path) >= len(s.Path) {
		return ErrWrongSize
	}
	var buf [SoftLinkPathSize]byte
	copy(buf[:], path)
	s.Path = buf
	return nil
}

// Encode serializes the soft link block and writes its checksum.
func (s *SoftLink) Encode() []byte {
	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.BigEndian, s)
	out := buf.Bytes()
	adfchk.WriteChecksum(out, adfchk.ChecksumOffsetStandard)
	return out
}

// DecodeSoftLink parses and checksum-verifies a soft link block.
func DecodeSoftLink(raw []byte) (*SoftLink, bool, error) {
	if len(raw) != adfchk.BlockSize {
		return nil, false, ErrWrongSize
	}
	s := new(SoftLink)
	if err := binary.Read(bytes.NewReader(raw), binary.BigEndian, s); err != nil {
		return nil, false, err
	}
	return s, adfchk.VerifyChecksum(raw, adfchk.ChecksumOffsetStandard), nil
}
