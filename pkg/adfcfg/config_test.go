package adfcfg

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vorteil/adflib/pkg/elog"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	require.False(t, cfg.IgnoreChecksumErrors)
	require.False(t, cfg.UseDirCache)
	require.True(t, cfg.UseProgressBar)
}

func TestLoadWithNoConfigFileReturnsDefaults(t *testing.T) {
	log := &elog.CLI{DisableTTY: true}
	cfg := Load(filepath.Join(t.TempDir(), "missing.yaml"), log)
	require.Equal(t, Default(), cfg)
}

func TestLoadMergesConfigFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "adflibrc.yaml")
	require.NoError(t, ioutil.WriteFile(path, []byte("useProgressBar: false\nignoreChecksumErrors: true\n"), 0o644))

	log := &elog.CLI{DisableTTY: true}
	cfg := Load(path, log)

	require.True(t, cfg.IgnoreChecksumErrors)
	require.False(t, cfg.UseProgressBar)
	require.False(t, cfg.UseDirCache)
}

func TestLoadWithUnparseableConfigFileFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "adflibrc.yaml")
	require.NoError(t, ioutil.WriteFile(path, []byte("not: [valid"), 0o644))

	log := &elog.CLI{DisableTTY: true}
	cfg := Load(path, log)
	require.Equal(t, Default(), cfg)
}
