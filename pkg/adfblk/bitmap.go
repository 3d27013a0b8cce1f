package adfblk

import (
	"bytes"
	"encoding/binary"

	"github.com/vorteil/adflib/pkg/adfchk"
)

// BitsPerBitmapBlock is the number of free/used bits a single bitmap
// block's payload can represent (127 words * 32 bits).
const BitsPerBitmapBlock = 127 * 32

// Bitmap is a free-space bitmap block: a checksum at offset 0 followed by
// 127 32-bit words, each bit 1 meaning free (spec.md §3, §4.4).
type Bitmap struct {
	Checksum uint32
	Words    [127]uint32
}

// Encode serializes the bitmap block and writes its checksum at offset 0.
func (b *Bitmap) Encode() []byte {
	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.BigEndian, b)
	out := buf.Bytes()
	adfchk.WriteChecksum(out, adfchk.ChecksumOffsetBitmap)
	return out
}

// DecodeBitmap parses and checksum-verifies a bitmap block.
func DecodeBitmap(raw []byte) (*Bitmap, bool, error) {
	if len(raw) != adfchk.BlockSize {
		return nil, false, ErrWrongSize
	}
	b := new(Bitmap)
	if err := binary.Read(bytes.NewReader(raw), binary.BigEndian, b); err != nil {
		return nil, false, err
	}
	return b, adfchk.VerifyChecksum(raw, adfchk.ChecksumOffsetBitmap), nil
}

// BitmapExt is a bitmap extension block: up to 127 further bitmap-block
// pointers plus a link to the next extension block. Unlike bitmap blocks
// themselves, extension blocks carry no checksum.
type BitmapExt struct {
	Pointers [127]uint32
	Next     uint32
}

// Encode serializes the bitmap extension block.
func (b *BitmapExt) Encode() []byte {
	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.BigEndian, b)
	return buf.Bytes()
}

// DecodeBitmapExt parses a bitmap extension block.
func DecodeBitmapExt(raw []byte) (*BitmapExt, error) {
	if len(raw) != adfchk.BlockSize {
		return nil, ErrWrongSize
	}
	b := new(BitmapExt)
	if err := binary.Read(bytes.NewReader(raw), binary.BigEndian, b); err != nil {
		return nil, err
	}
	return b, nil
}
