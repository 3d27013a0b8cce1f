package adfcfg

import (
	"bytes"
	"io"
	"io/ioutil"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vorteil/adflib/pkg/elog"
)

func TestViewWithProgressBarsDisabledReturnsNilProgress(t *testing.T) {
	cfg := Config{UseProgressBar: false}
	view := cfg.View(&elog.CLI{DisableTTY: true})

	p := view.NewProgress("scan", "%", 100)
	require.IsType(t, &nilFlatProgress{}, p)

	n, err := p.Write([]byte("12345"))
	require.NoError(t, err)
	require.Equal(t, 5, n)

	off, err := p.Seek(10, io.SeekStart)
	require.NoError(t, err)
	require.Equal(t, int64(10), off)

	p.Finish(true)
}

func TestViewWithProgressBarsEnabledTracksBytesRead(t *testing.T) {
	cfg := Config{UseProgressBar: true}
	view := cfg.View(&elog.CLI{DisableTTY: true})

	p := view.NewProgress("copy", "KiB", 11)
	fp, ok := p.(*flatProgress)
	require.True(t, ok)

	rc := p.ProxyReader(ioutil.NopCloser(bytes.NewReader([]byte("hello world"))))
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "hello world", string(data))

	require.NoError(t, rc.Close())
	require.Equal(t, int64(11), fp.cursor)
	require.True(t, fp.done)
}

func TestFlatProgressSeekBackwardDoesNotIncrement(t *testing.T) {
	cfg := Config{UseProgressBar: true}
	view := cfg.View(&elog.CLI{DisableTTY: true})

	p := view.NewProgress("seek", "%", 0)
	fp := p.(*flatProgress)

	_, err := p.Seek(20, io.SeekStart)
	require.NoError(t, err)
	require.Equal(t, int64(20), fp.cursor)

	_, err = p.Seek(5, io.SeekStart)
	require.NoError(t, err)
	require.Equal(t, int64(5), fp.cursor)

	p.Finish(true)
}

func TestFlatProgressFinishIsIdempotent(t *testing.T) {
	cfg := Config{UseProgressBar: true}
	view := cfg.View(&elog.CLI{DisableTTY: true})

	p := view.NewProgress("finish", "%", 10)
	p.Finish(true)
	p.Finish(true)
}
