package adfvol

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vorteil/adflib/pkg/adfblk"
	"github.com/vorteil/adflib/pkg/adfdev"
)

// TestPropertyBitmapConservation verifies property 3: any allocate/free
// sequence that ends at the same multiset of allocated blocks it started
// from leaves the on-disk bitmap blocks bitwise identical after flush.
func TestPropertyBitmapConservation(t *testing.T) {
	vol, driver := formatTestVolume(t, FormatOptions{FFS: true})
	require.NoError(t, vol.Flush())

	before := snapshotBitmapBlocks(t, vol, driver)

	alloc1, err := vol.bitmap.Allocate(10)
	require.NoError(t, err)
	alloc2, err := vol.bitmap.Allocate(5)
	require.NoError(t, err)
	vol.bitmap.Free(alloc1)
	alloc3, err := vol.bitmap.Allocate(10)
	require.NoError(t, err)
	vol.bitmap.Free(alloc2)
	vol.bitmap.Free(alloc3)

	require.NoError(t, vol.Flush())

	after := snapshotBitmapBlocks(t, vol, driver)
	require.Equal(t, before, after)
}

func snapshotBitmapBlocks(t *testing.T, vol *Volume, driver adfdev.Driver) [][]byte {
	t.Helper()
	out := make([][]byte, len(vol.bitmap.records))
	for i, rec := range vol.bitmap.records {
		raw, err := driver.ReadSectors(rec.sector, 1)
		require.NoError(t, err)
		out[i] = raw
	}
	return out
}

// TestPropertyRoundTripFileSizes verifies property 5: writing N bytes to
// a new file on an OFS volume, closing, reopening, and reading back
// yields the same N bytes, for every size spec.md §8 names.
func TestPropertyRoundTripFileSizes(t *testing.T) {
	for _, n := range []int{0, 1, 487, 488, 489, 10000, 800000} {
		n := n
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			vol, _ := formatTestVolume(t, FormatOptions{FFS: false})
			requireRoundTrip(t, vol, n)
		})
	}
}

// TestPropertyOFSFFSEquivalence verifies property 6: the same byte
// contents round-trip identically whether the volume is OFS or FFS.
func TestPropertyOFSFFSEquivalence(t *testing.T) {
	for _, n := range []int{0, 1, 487, 488, 489, 10000, 800000} {
		n := n
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			ofsVol, _ := formatTestVolume(t, FormatOptions{FFS: false})
			ffsVol, _ := formatTestVolume(t, FormatOptions{FFS: true})

			ofsData := requireRoundTrip(t, ofsVol, n)
			ffsData := requireRoundTrip(t, ffsVol, n)
			require.Equal(t, ofsData, ffsData)
		})
	}
}

func requireRoundTrip(t *testing.T, vol *Volume, n int) []byte {
	t.Helper()

	payload := make([]byte, n)
	for i := range payload {
		payload[i] = byte(i)
	}

	f, err := vol.CreateFile(vol.RootBlock, fmt.Sprintf("f%d", n))
	require.NoError(t, err)
	written, err := f.Write(payload)
	require.NoError(t, err)
	require.Equal(t, n, written)
	require.NoError(t, f.Close())

	entry, ok, err := vol.Lookup(vol.RootBlock, fmt.Sprintf("f%d", n))
	require.NoError(t, err)
	require.True(t, ok)

	f2, err := vol.OpenFile(entry.Sector, true)
	require.NoError(t, err)
	defer f2.Close()
	require.EqualValues(t, n, f2.Size())

	buf := make([]byte, n)
	read, err := f2.Read(buf)
	if n > 0 {
		require.NoError(t, err)
	}
	require.Equal(t, n, read)
	require.Equal(t, payload, buf)
	return buf
}

// TestPropertyFormatIdempotence verifies property 7: formatting a blank
// image twice produces bitwise-identical bitmap blocks and a root block
// differing only in its embedded dates.
func TestPropertyFormatIdempotence(t *testing.T) {
	driver1 := adfdev.NewMemDriver("idem1.adf", adfdev.ReadWrite, testFloppyBlocks)
	vol1, err := Format(driver1, 0, testFloppyBlocks-1, "Empty", FormatOptions{FFS: true})
	require.NoError(t, err)

	driver2 := adfdev.NewMemDriver("idem2.adf", adfdev.ReadWrite, testFloppyBlocks)
	vol2, err := Format(driver2, 0, testFloppyBlocks-1, "Empty", FormatOptions{FFS: true})
	require.NoError(t, err)

	bm1 := snapshotBitmapBlocks(t, vol1, driver1)
	bm2 := snapshotBitmapBlocks(t, vol2, driver2)
	require.Equal(t, bm1, bm2)

	rootRaw1, err := driver1.ReadSectors(vol1.RootBlock, 1)
	require.NoError(t, err)
	rootRaw2, err := driver2.ReadSectors(vol2.RootBlock, 1)
	require.NoError(t, err)

	root1, _, err := adfblk.DecodeRoot(rootRaw1)
	require.NoError(t, err)
	root2, _, err := adfblk.DecodeRoot(rootRaw2)
	require.NoError(t, err)

	// Dates (and the checksum, which covers them) are the only fields
	// spec.md §8 property 7 allows to differ between two formats of the
	// same blank image; zero them before comparing everything else.
	zeroRootDates := func(r *adfblk.Root) {
		r.Checksum = 0
		r.RDays, r.RMins, r.RTicks = 0, 0, 0
		r.VDays, r.VMins, r.VTicks = 0, 0, 0
		r.CDays, r.CMins, r.CTicks = 0, 0, 0
	}
	zeroRootDates(root1)
	zeroRootDates(root2)
	require.Equal(t, root1, root2)
}
