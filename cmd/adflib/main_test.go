package main

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vorteil/adflib/pkg/elog"
)

func TestMain(m *testing.M) {
	log = &elog.CLI{DisableTTY: true}
	os.Exit(m.Run())
}

func newTestImage(t *testing.T) string {
	t.Helper()
	img := filepath.Join(t.TempDir(), "test.adf")

	flagBlocks = 0
	flagFFS = true
	flagINTL = false
	flagDirCache = false
	require.NoError(t, formatCmd.RunE(formatCmd, []string{img, "Workbench"}))

	return img
}

func TestFormatCreatesAnOpenableVolume(t *testing.T) {
	img := newTestImage(t)

	r, f, err := openResolver(img, 0, true)
	require.NoError(t, err)
	defer f.Close()

	entries, err := r.List("/")
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestMkdirCpLsCatRoundTrip(t *testing.T) {
	img := newTestImage(t)

	require.NoError(t, mkdirCmd.RunE(mkdirCmd, []string{img, "/docs"}))

	hostFile := filepath.Join(t.TempDir(), "hello.txt")
	require.NoError(t, ioutil.WriteFile(hostFile, []byte("hello amiga"), 0o644))

	flagExtract = false
	require.NoError(t, cpCmd.RunE(cpCmd, []string{img, hostFile, "/docs/hello.txt"}))

	flagPattern = ""
	r, f, err := openResolver(img, 0, true)
	require.NoError(t, err)
	entries, err := r.List("/docs")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "hello.txt", entries[0].Name)
	require.NoError(t, f.Close())

	af, f, err := func() (string, *os.File, error) {
		r, f, err := openResolver(img, 0, true)
		if err != nil {
			return "", nil, err
		}
		file, err := r.Open("/docs/hello.txt", true)
		if err != nil {
			f.Close()
			return "", nil, err
		}
		defer file.Close()
		buf := make([]byte, 32)
		n, _ := file.Read(buf)
		return string(buf[:n]), f, nil
	}()
	require.NoError(t, err)
	require.Equal(t, "hello amiga", af)
	require.NoError(t, f.Close())
}

func TestCpExtractRoundTrip(t *testing.T) {
	img := newTestImage(t)

	hostFile := filepath.Join(t.TempDir(), "in.txt")
	require.NoError(t, ioutil.WriteFile(hostFile, []byte("round trip"), 0o644))

	flagExtract = false
	require.NoError(t, cpCmd.RunE(cpCmd, []string{img, hostFile, "/in.txt"}))

	outFile := filepath.Join(t.TempDir(), "out.txt")
	flagExtract = true
	require.NoError(t, cpCmd.RunE(cpCmd, []string{img, "/in.txt", outFile}))
	flagExtract = false

	got, err := ioutil.ReadFile(outFile)
	require.NoError(t, err)
	require.Equal(t, "round trip", string(got))
}

func TestLnHardAndSymbolic(t *testing.T) {
	img := newTestImage(t)

	hostFile := filepath.Join(t.TempDir(), "target.txt")
	require.NoError(t, ioutil.WriteFile(hostFile, []byte("linked"), 0o644))

	flagExtract = false
	require.NoError(t, cpCmd.RunE(cpCmd, []string{img, hostFile, "/target.txt"}))

	flagSymbolic = false
	require.NoError(t, lnCmd.RunE(lnCmd, []string{img, "/target.txt", "/hardlink.txt"}))

	flagSymbolic = true
	require.NoError(t, lnCmd.RunE(lnCmd, []string{img, "/target.txt", "/softlink.txt"}))
	flagSymbolic = false

	r, f, err := openResolver(img, 0, true)
	require.NoError(t, err)
	defer f.Close()

	entries, err := r.List("/")
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	require.Contains(t, names, "hardlink.txt")
	require.Contains(t, names, "softlink.txt")
}

func TestRmRemovesFile(t *testing.T) {
	img := newTestImage(t)

	hostFile := filepath.Join(t.TempDir(), "gone.txt")
	require.NoError(t, ioutil.WriteFile(hostFile, []byte("x"), 0o644))

	flagExtract = false
	require.NoError(t, cpCmd.RunE(cpCmd, []string{img, hostFile, "/gone.txt"}))
	require.NoError(t, rmCmd.RunE(rmCmd, []string{img, "/gone.txt"}))

	r, f, err := openResolver(img, 0, true)
	require.NoError(t, err)
	defer f.Close()

	entries, err := r.List("/")
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestMd5SumMatchesContent(t *testing.T) {
	img := newTestImage(t)

	hostFile := filepath.Join(t.TempDir(), "sum.txt")
	require.NoError(t, ioutil.WriteFile(hostFile, []byte("checksum me"), 0o644))

	flagExtract = false
	require.NoError(t, cpCmd.RunE(cpCmd, []string{img, hostFile, "/sum.txt"}))
	require.NoError(t, md5Cmd.RunE(md5Cmd, []string{img, "/sum.txt"}))
}

func TestStatReportsFileSize(t *testing.T) {
	img := newTestImage(t)

	hostFile := filepath.Join(t.TempDir(), "stat.txt")
	require.NoError(t, ioutil.WriteFile(hostFile, []byte("0123456789"), 0o644))

	flagExtract = false
	require.NoError(t, cpCmd.RunE(cpCmd, []string{img, hostFile, "/stat.txt"}))
	require.NoError(t, statCmd.RunE(statCmd, []string{img, "/stat.txt"}))
}

func TestLsPatternFiltersEntries(t *testing.T) {
	img := newTestImage(t)

	for _, name := range []string{"/a.txt", "/b.txt", "/a.bin"} {
		hostFile := filepath.Join(t.TempDir(), "src")
		require.NoError(t, ioutil.WriteFile(hostFile, []byte("x"), 0o644))
		flagExtract = false
		require.NoError(t, cpCmd.RunE(cpCmd, []string{img, hostFile, name}))
	}

	flagPattern = "*.txt"
	require.NoError(t, lsCmd.RunE(lsCmd, []string{img}))
	flagPattern = ""
}
