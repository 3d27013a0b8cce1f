// Package adfblk defines the on-disk block layouts of the Amiga Fast File
// System family as fixed-size Go structs, one per block type from spec.md
// §3. Each type is encoded/decoded with encoding/binary against
// binary.BigEndian, the same pattern the teacher uses for its own
// fixed-layout structures (see pkg/ext4.Superblock, pkg/vimg.GPTHeader):
// struct field order *is* the wire layout, so no separate offset table is
// needed to drive the byte swap.
package adfblk

import (
	"bytes"
	"encoding/binary"

	"github.com/vorteil/adflib/pkg/adfchk"
)

// BootBlockSize is the combined size of the two boot blocks (sectors 0-1)
// that make up a single logical boot block record.
const BootBlockSize = 2 * adfchk.BlockSize

// Boot is the filesystem identification block occupying sectors 0 and 1.
// DosType's first three bytes are always "DOS"; the fourth carries the
// FFS/INTL/DIRCACHE flag bits described in spec.md §3.
type Boot struct {
	DosType   [4]byte
	Checksum  uint32
	RootBlock uint32
	BootCode  [BootBlockSize - 12]byte
}

// Encode serializes the boot block and writes its checksum.
func (b *Boot) Encode() []byte {
	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.BigEndian, b)
	out := buf.Bytes()
	adfchk.WriteChecksum(out, adfchk.ChecksumOffsetStandard)
	return out
}

// DecodeBoot parses a boot block from its on-disk bytes. The boot block is
// frequently unformatted (all zero dosType), so checksum verification is
// the caller's responsibility, not automatic here -- an all-zero block is
// a legitimate "not yet formatted" state, not corruption.
func DecodeBoot(raw []byte) (*Boot, error) {
	if len(raw) != BootBlockSize {
		return nil, ErrWrongSize
	}
	b := new(Boot)
	if err := binary.Read(bytes.NewReader(raw), binary.BigEndian, b); err != nil {
		return nil, err
	}
	return b, nil
}

// FSFlags bits packed into DosType[3].
const (
	FlagFFS       = 1 << 0
	FlagINTL      = 1 << 1
	FlagDirCache  = 1 << 2
	dosTypePrefix = "DOS"
)

// IsDOS reports whether the first three dosType bytes spell "DOS".
func (b *Boot) IsDOS() bool {
	return string(b.DosType[:3]) == dosTypePrefix
}

// IsPFS reports whether the dosType identifies a PFS volume, which this
// library recognizes only to refuse mounting it (spec.md §1).
func (b *Boot) IsPFS() bool {
	return string(b.DosType[:3]) == "PFS"
}
