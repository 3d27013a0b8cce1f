package adfvol

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vorteil/adflib/pkg/adfdev"
)

const testFloppyBlocks = 880 * 1024 / 512

func formatTestVolume(t *testing.T, opts FormatOptions) (*Volume, adfdev.Driver) {
	t.Helper()
	driver := adfdev.NewMemDriver("test.adf", adfdev.ReadWrite, testFloppyBlocks)
	vol, err := Format(driver, 0, testFloppyBlocks-1, "Workbench", opts)
	require.NoError(t, err)
	return vol, driver
}

func TestFormatThenMountRoundTrip(t *testing.T) {
	_, driver := formatTestVolume(t, FormatOptions{FFS: true})

	vol, err := Mount(driver, 0, testFloppyBlocks-1, true, nil, false)
	require.NoError(t, err)
	require.Equal(t, "Workbench", vol.Name)
	require.True(t, vol.FFS)
	require.Greater(t, vol.FreeBlocks(), int64(0))
}

func TestMkdirCreateFileWriteReadList(t *testing.T) {
	vol, _ := formatTestVolume(t, FormatOptions{FFS: true})

	dirSector, err := vol.Mkdir(vol.RootBlock, "work")
	require.NoError(t, err)
	require.NotZero(t, dirSector)

	f, err := vol.CreateFile(dirSector, "hello.txt")
	require.NoError(t, err)

	payload := []byte("hello, amiga")
	n, err := f.Write(payload)
	require.NoError(t, err)
	require.Equal(t, len(payload), n)
	require.NoError(t, f.Close())

	entries, err := vol.List(dirSector)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "hello.txt", entries[0].Name)
	require.True(t, entries[0].IsFile)

	f2, err := vol.OpenFile(entries[0].Sector, true)
	require.NoError(t, err)
	require.EqualValues(t, len(payload), f2.Size())

	buf := make([]byte, len(payload))
	n, err = f2.Read(buf)
	require.NoError(t, err)
	require.Equal(t, len(payload), n)
	require.Equal(t, payload, buf)
}

func TestWriteSpanningMultipleDataBlocks(t *testing.T) {
	vol, _ := formatTestVolume(t, FormatOptions{FFS: false})

	f, err := vol.CreateFile(vol.RootBlock, "big")
	require.NoError(t, err)

	payload := make([]byte, 488*3+17)
	for i := range payload {
		payload[i] = byte(i)
	}
	_, err = f.Write(payload)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	entry, ok, err := vol.Lookup(vol.RootBlock, "big")
	require.NoError(t, err)
	require.True(t, ok)

	f2, err := vol.OpenFile(entry.Sector, true)
	require.NoError(t, err)
	buf := make([]byte, len(payload))
	n, err := f2.Read(buf)
	require.NoError(t, err)
	require.Equal(t, len(payload), n)
	require.Equal(t, payload, buf)
}

func TestDeleteRemovesFile(t *testing.T) {
	vol, _ := formatTestVolume(t, FormatOptions{FFS: true})

	_, err := vol.CreateFile(vol.RootBlock, "gone")
	require.NoError(t, err)

	require.NoError(t, vol.Delete(vol.RootBlock, "gone"))

	_, ok, err := vol.Lookup(vol.RootBlock, "gone")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHardLinkResolvesToTarget(t *testing.T) {
	vol, _ := formatTestVolume(t, FormatOptions{FFS: true})

	f, err := vol.CreateFile(vol.RootBlock, "original")
	require.NoError(t, err)
	_, err = f.Write([]byte("data"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	orig, ok, err := vol.Lookup(vol.RootBlock, "original")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, vol.HardLink(vol.RootBlock, "alias", orig.Sector))

	linked, ok, err := vol.Lookup(vol.RootBlock, "alias")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, orig.Sector, linked.Sector)
	require.Equal(t, "alias", linked.Name)
}

func TestOpenFileSurfacesChecksumMismatchUnlessIgnored(t *testing.T) {
	vol, driver := formatTestVolume(t, FormatOptions{FFS: true})

	f, err := vol.CreateFile(vol.RootBlock, "corrupt.txt")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	entry, ok, err := vol.Lookup(vol.RootBlock, "corrupt.txt")
	require.NoError(t, err)
	require.True(t, ok)

	raw, err := driver.ReadSectors(entry.Sector, 1)
	require.NoError(t, err)
	corrupted := append([]byte(nil), raw...)
	corrupted[200] ^= 0xff // inside FileHeader.DataBlocks, an unused slot for this empty file: harmless to decode but breaks the checksum
	require.NoError(t, driver.WriteSectors(entry.Sector, corrupted))

	_, err = vol.OpenFile(entry.Sector, true)
	require.ErrorIs(t, err, ErrBlockChecksum)

	vol.ignoreChecksumErrors = true
	f2, err := vol.OpenFile(entry.Sector, true)
	require.NoError(t, err)
	require.NoError(t, f2.Close())
}

func TestSoftLinkStoresPath(t *testing.T) {
	vol, _ := formatTestVolume(t, FormatOptions{FFS: true, DirCache: true})

	require.NoError(t, vol.SoftLink(vol.RootBlock, "link", "target/file"))

	entry, ok, err := vol.Lookup(vol.RootBlock, "link")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, entry.IsSoftLink)

	path, from, err := vol.ReadSoftLink(entry.Sector)
	require.NoError(t, err)
	require.Equal(t, "target/file", path)
	require.Equal(t, vol.RootBlock, from)
}
