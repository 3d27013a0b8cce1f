package adfdev

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vorteil/adflib/pkg/adfblk"
)

func TestMemDriverReadWriteRoundTrip(t *testing.T) {
	d := NewMemDriver("test", ReadWrite, 10)

	payload := make([]byte, 512*2)
	for i := range payload {
		payload[i] = byte(i)
	}
	require.NoError(t, d.WriteSectors(3, payload))

	got, err := d.ReadSectors(3, 2)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestMemDriverReadOnlyRejectsWrites(t *testing.T) {
	d := NewMemDriver("test", ReadOnly, 10)
	err := d.WriteSectors(0, make([]byte, 512))
	require.ErrorIs(t, err, ErrReadOnly)
}

func TestMemDriverRangeChecked(t *testing.T) {
	d := NewMemDriver("test", ReadWrite, 10)
	_, err := d.ReadSectors(9, 2)
	require.Error(t, err)
}

func TestOpenClassifiesFloppy(t *testing.T) {
	d := NewMemDriver("floppy.adf", ReadWrite, floppyDDBlocks)
	dev, err := Open(d, nil, false)
	require.NoError(t, err)
	require.Equal(t, KindFloppy, dev.Kind)
	require.Len(t, dev.Volumes, 1)
	require.Equal(t, int64(0), dev.Volumes[0].FirstBlock)
	require.Equal(t, int64(floppyDDBlocks-1), dev.Volumes[0].LastBlock)
}

func TestOpenClassifiesHardfileWithRootBlock(t *testing.T) {
	const sizeBlocks = 4000
	d := NewMemDriver("hardfile.hdf", ReadWrite, sizeBlocks)

	rootSector := int64(sizeBlocks / 2)
	root := &adfblk.Root{
		PrimaryType: adfblk.TypeHeader,
		SecType:     adfblk.STRoot,
	}
	require.NoError(t, d.WriteSectors(rootSector, root.Encode()))

	dev, err := Open(d, nil, false)
	require.NoError(t, err)
	require.Equal(t, KindHardfile, dev.Kind)
	require.Len(t, dev.Volumes, 1)
	require.Equal(t, int64(0), dev.Volumes[0].FirstBlock)
	require.Equal(t, 2*rootSector-1, dev.Volumes[0].LastBlock)
}

func TestOpenClassifiesHarddiskWithPartitionChain(t *testing.T) {
	const sizeBlocks = 8000
	d := NewMemDriver("disk.hdf", ReadWrite, sizeBlocks)

	rdsk := &adfblk.RigidDisk{
		ID:            adfblk.IDRigidDisk,
		PartitionList: 1,
	}
	require.NoError(t, d.WriteSectors(0, rdsk.Encode()))

	part := &adfblk.Partition{
		ID:              adfblk.IDPartition,
		Next:            adfblk.EndOfChain,
		Surfaces:        2,
		BlocksPerTrack:  11,
		LowCyl:          1,
		HighCyl:         10,
		DosType:         [4]byte{'D', 'O', 'S', 0},
	}
	part.NameLen = 3
	copy(part.Name[:], "DH0")
	require.NoError(t, d.WriteSectors(1, part.Encode()))

	dev, err := Open(d, nil, false)
	require.NoError(t, err)
	require.Equal(t, KindHarddisk, dev.Kind)
	require.NotNil(t, dev.RDB)
	require.Len(t, dev.Volumes, 1)

	cylBlocks := int64(2 * 11)
	require.Equal(t, cylBlocks*1, dev.Volumes[0].FirstBlock)
	require.Equal(t, cylBlocks*11-1, dev.Volumes[0].LastBlock)
	require.Equal(t, "DH0", dev.Volumes[0].Name)
}

func TestOpenSurfacesRDSKChecksumMismatchUnlessIgnored(t *testing.T) {
	const sizeBlocks = 8000
	d := NewMemDriver("disk.hdf", ReadWrite, sizeBlocks)

	rdsk := &adfblk.RigidDisk{ID: adfblk.IDRigidDisk, PartitionList: adfblk.EndOfChain}
	raw := rdsk.Encode()
	raw[100] ^= 0xff // breaks the checksum without touching the ID field
	require.NoError(t, d.WriteSectors(0, raw))

	_, err := Open(d, nil, false)
	require.ErrorIs(t, err, ErrBlockChecksum)

	dev, err := Open(d, nil, true)
	require.NoError(t, err)
	require.Equal(t, KindHarddisk, dev.Kind)
}

func TestMarkMountedGuardsDoubleMount(t *testing.T) {
	d := NewMemDriver("floppy.adf", ReadWrite, floppyDDBlocks)
	dev, err := Open(d, nil, false)
	require.NoError(t, err)

	require.NoError(t, dev.MarkMounted(0))
	require.ErrorIs(t, dev.MarkMounted(0), ErrAlreadyMounted)

	dev.MarkUnmounted(0)
	require.NoError(t, dev.MarkMounted(0))
}
