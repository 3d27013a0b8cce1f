// Package adfchk implements the Amiga "normal sum" block checksum and the
// block size and checksum offsets every on-disk block layout is built on.
package adfchk

import "encoding/binary"

// BlockSize is the fixed logical sector size every block in the container
// family is built on.
const BlockSize = 512

// NormalSum computes the Amiga normal-sum checksum of a 512-byte block: the
// two's-complement sum of the block's big-endian 32-bit words, with the
// word at checksumOffset read as zero, then negated. A block is valid when
// its stored checksum word equals this value, because doing so makes the
// whole block's words sum to zero.
func NormalSum(block []byte, checksumOffset int) uint32 {
	var sum uint32
	for off := 0; off+4 <= len(block); off += 4 {
		if off == checksumOffset {
			continue
		}
		sum += binary.BigEndian.Uint32(block[off : off+4])
	}
	return -sum
}

// WriteChecksum recomputes and stores the checksum word for block at
// checksumOffset, zeroing it first so the recomputation doesn't fold in a
// stale value.
func WriteChecksum(block []byte, checksumOffset int) {
	binary.BigEndian.PutUint32(block[checksumOffset:checksumOffset+4], 0)
	sum := NormalSum(block, checksumOffset)
	binary.BigEndian.PutUint32(block[checksumOffset:checksumOffset+4], sum)
}

// VerifyChecksum reports whether the block's stored checksum word at
// checksumOffset matches the recomputed normal sum.
func VerifyChecksum(block []byte, checksumOffset int) bool {
	stored := binary.BigEndian.Uint32(block[checksumOffset : checksumOffset+4])
	return NormalSum(block, checksumOffset) == stored
}

// ChecksumOffsetStandard is the checksum word offset used by every block
// type except bitmap blocks and the rigid disk block family (root,
// userdir, file header/extension, OFS data, link, soft link).
const ChecksumOffsetStandard = 0x14

// ChecksumOffsetBitmap is the checksum word offset used by bitmap blocks,
// which place it at the very start of the block instead of at 0x14.
const ChecksumOffsetBitmap = 0

// ChecksumOffsetRDB is the checksum word offset used by the rigid disk
// block family (RDSK/PART/FSHD/LSEG/BADB), which place it as the third
// 32-bit word rather than at 0x14.
const ChecksumOffsetRDB = 8
