package adfblk

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileHeaderRoundTrip(t *testing.T) {
	h := &FileHeader{
		PrimaryType: TypeHeader,
		HeaderKey:   100,
		HighSeq:     3,
		ByteSize:    1234,
		Parent:      10,
		SecType:     STFile,
	}
	h.SetName("hello.txt")
	h.DataBlocks[HashTableSize-1] = 101

	raw := h.Encode()
	require.Len(t, raw, 512)

	decoded, ok, err := DecodeFileHeader(raw)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, h.HeaderKey, decoded.HeaderKey)
	require.Equal(t, h.ByteSize, decoded.ByteSize)
	require.Equal(t, "hello.txt", decoded.Name())
	require.Equal(t, uint32(101), decoded.DataBlocks[HashTableSize-1])
}

func TestFileHeaderChecksumDetectsCorruption(t *testing.T) {
	h := &FileHeader{PrimaryType: TypeHeader, SecType: STFile}
	h.SetName("x")
	raw := h.Encode()
	raw[100] ^= 0xFF

	_, ok, err := DecodeFileHeader(raw)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestFileExtensionRoundTrip(t *testing.T) {
	e := &FileExtension{
		PrimaryType: TypeFileExtension,
		HeaderKey:   200,
		Parent:      100,
		Extension:   300,
		SecType:     STFile,
	}
	e.DataBlocks[0] = 42

	raw := e.Encode()
	decoded, ok, err := DecodeFileExtension(raw)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, e.Parent, decoded.Parent)
	require.Equal(t, e.Extension, decoded.Extension)
	require.Equal(t, uint32(42), decoded.DataBlocks[0])
}

func TestDataOFSRoundTrip(t *testing.T) {
	d := &DataOFS{
		Type:      TypeDataOFS,
		HeaderKey: 100,
		SeqNum:    1,
		DataSize:  10,
		NextData:  101,
	}
	copy(d.Payload[:], "0123456789")

	raw := d.Encode()
	decoded, ok, err := DecodeDataOFS(raw)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, d.DataSize, decoded.DataSize)
	require.Equal(t, d.NextData, decoded.NextData)
	require.Equal(t, "0123456789", string(decoded.Payload[:10]))
}

func TestLinkEntryRoundTrip(t *testing.T) {
	l := &LinkEntry{
		PrimaryType: TypeHeader,
		HeaderKey:   50,
		RealEntry:   100,
		NextLink:    60,
		Parent:      10,
		SecType:     STLinkFile,
	}
	l.SetName("alias")

	raw := l.Encode()
	decoded, ok, err := DecodeLinkEntry(raw)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "alias", decoded.Name())
	require.Equal(t, l.RealEntry, decoded.RealEntry)
	require.Equal(t, l.NextLink, decoded.NextLink)
}

func TestSoftLinkRoundTrip(t *testing.T) {
	s := &SoftLink{
		PrimaryType: TypeHeader,
		HeaderKey:   70,
		Parent:      10,
		SecType:     STSoftLink,
	}
	s.SetName("link")
	require.NoError(t, s.SetTargetPath("some/target/path"))

	raw := s.Encode()
	decoded, ok, err := DecodeSoftLink(raw)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "link", decoded.Name())
	require.Equal(t, "some/target/path", decoded.TargetPath())
}

func TestBitmapRoundTrip(t *testing.T) {
	b := &Bitmap{}
	b.Words[0] = 0xFFFFFFFF
	b.Words[5] = 0x1

	raw := b.Encode()
	decoded, ok, err := DecodeBitmap(raw)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, b.Words[0], decoded.Words[0])
	require.Equal(t, b.Words[5], decoded.Words[5])
}

func TestBitmapExtRoundTrip(t *testing.T) {
	b := &BitmapExt{Next: 999}
	b.Pointers[0] = 123

	raw := b.Encode()
	decoded, err := DecodeBitmapExt(raw)
	require.NoError(t, err)
	require.Equal(t, uint32(999), decoded.Next)
	require.Equal(t, uint32(123), decoded.Pointers[0])
}
