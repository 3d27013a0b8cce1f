package main

import (
	"fmt"
	"os"

	"github.com/vorteil/adflib/pkg/adfchk"
	"github.com/vorteil/adflib/pkg/adfdev"
	"github.com/vorteil/adflib/pkg/adfpath"
	"github.com/vorteil/adflib/pkg/adfvol"
)

// openVolume opens img read-only or read-write and mounts volume number
// volIdx from whatever it classifies as (a bare floppy dump has exactly
// one; a harddisk image may carry several RDB partitions).
func openVolume(img string, volIdx int, readOnly bool) (*adfvol.Volume, *os.File, error) {
	mode := adfdev.ReadWrite
	flags := os.O_RDWR
	if readOnly {
		mode = adfdev.ReadOnly
		flags = os.O_RDONLY
	}

	f, err := os.OpenFile(img, flags, 0644)
	if err != nil {
		return nil, nil, err
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}

	sizeBlocks := fi.Size() / adfchk.BlockSize
	driver := adfdev.NewFileDriver(img, mode, f, sizeBlocks)

	dev, err := adfdev.Open(driver, log, cfg.IgnoreChecksumErrors)
	if err != nil {
		f.Close()
		return nil, nil, err
	}

	if volIdx < 0 || volIdx >= len(dev.Volumes) {
		f.Close()
		return nil, nil, fmt.Errorf("volume index %d out of range (device has %d)", volIdx, len(dev.Volumes))
	}
	vd := dev.Volumes[volIdx]

	isFloppy := dev.Kind == adfdev.KindFloppy
	vol, err := adfvol.Mount(driver, vd.FirstBlock, vd.LastBlock, isFloppy, log, cfg.IgnoreChecksumErrors)
	if err != nil {
		f.Close()
		return nil, nil, err
	}

	return vol, f, nil
}

// openResolver opens img and wraps the mounted volume in an adfpath
// resolver rooted at the volume's root directory.
func openResolver(img string, volIdx int, readOnly bool) (*adfpath.Resolver, *os.File, error) {
	vol, f, err := openVolume(img, volIdx, readOnly)
	if err != nil {
		return nil, nil, err
	}
	return adfpath.New(vol), f, nil
}
