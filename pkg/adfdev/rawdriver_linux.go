package adfdev

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"os"

	"github.com/vorteil/adflib/pkg/adfchk"
)

// rawDriver backs a Driver with an open host block device node
// (/dev/sdX, /dev/loopX, a floppy controller device, and so on). The
// caller is responsible for supplying sizeBlocks: unlike a plain image
// file, a block device's apparent size via os.Stat is usually 0, so
// there's no portable way to probe it without an ioctl this package
// doesn't shell out for.
type rawDriver struct {
	name       string
	mode       Mode
	f          *os.File
	sizeBlocks int64
}

// OpenRawDevice opens path (e.g. "/dev/sdb") as a Driver. Linux only.
func OpenRawDevice(path string, mode Mode, sizeBlocks int64) (Driver, error) {
	flags := os.O_RDONLY
	if mode == ReadWrite {
		flags = os.O_RDWR
	}
	f, err := os.OpenFile(path, flags, 0)
	if err != nil {
		return nil, err
	}
	return &rawDriver{name: path, mode: mode, f: f, sizeBlocks: sizeBlocks}, nil
}

func (d *rawDriver) Name() string      { return d.name }
func (d *rawDriver) Mode() Mode        { return d.mode }
func (d *rawDriver) SizeBlocks() int64 { return d.sizeBlocks }
func (d *rawDriver) IsNative() bool    { return true }
func (d *rawDriver) Close() error      { return d.f.Close() }

func (d *rawDriver) ReadSectors(firstBlock int64, count int) ([]byte, error) {
	if err := checkRange(d.sizeBlocks, firstBlock, count); err != nil {
		return nil, err
	}
	buf := make([]byte, count*adfchk.BlockSize)
	_, err := d.f.ReadAt(buf, firstBlock*adfchk.BlockSize)
	return buf, err
}

func (d *rawDriver) WriteSectors(firstBlock int64, data []byte) error {
	if d.mode != ReadWrite {
		return ErrReadOnly
	}
	count := len(data) / adfchk.BlockSize
	if err := checkRange(d.sizeBlocks, firstBlock, count); err != nil {
		return err
	}
	_, err := d.f.WriteAt(data, firstBlock*adfchk.BlockSize)
	return err
}
