package adfchk

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalSumRoundTrip(t *testing.T) {
	block := make([]byte, BlockSize)
	for i := range block {
		block[i] = byte(i * 7)
	}

	WriteChecksum(block, ChecksumOffsetStandard)
	require.True(t, VerifyChecksum(block, ChecksumOffsetStandard))
}

func TestNormalSumBitmapOffset(t *testing.T) {
	block := make([]byte, BlockSize)
	for i := range block {
		block[i] = byte(255 - i)
	}

	WriteChecksum(block, ChecksumOffsetBitmap)
	require.True(t, VerifyChecksum(block, ChecksumOffsetBitmap))
}

func TestSingleBitFlipBreaksChecksum(t *testing.T) {
	block := make([]byte, BlockSize)
	for i := range block {
		block[i] = byte(i * 3)
	}
	WriteChecksum(block, ChecksumOffsetStandard)

	for _, byteIdx := range []int{0, 1, 100, 300, 511} {
		if byteIdx >= ChecksumOffsetStandard && byteIdx < ChecksumOffsetStandard+4 {
			continue
		}
		flipped := append([]byte(nil), block...)
		flipped[byteIdx] ^= 0x01
		require.False(t, VerifyChecksum(flipped, ChecksumOffsetStandard), "byte %d", byteIdx)
	}
}
