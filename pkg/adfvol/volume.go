package adfvol

import (
	"time"

	"github.com/kennygrant/sanitize"
	"github.com/pkg/errors"

	"github.com/vorteil/adflib/pkg/adfblk"
	"github.com/vorteil/adflib/pkg/adfdev"
	"github.com/vorteil/adflib/pkg/elog"
)

// FormatOptions controls the flags baked into a newly formatted volume's
// boot block (spec.md §3's type byte, supplemented per SPEC_FULL.md §C
// "adfformat.c").
type FormatOptions struct {
	FFS      bool
	INTL     bool
	DirCache bool // implies INTL
}

func (o FormatOptions) flagByte() byte {
	var b byte
	if o.FFS {
		b |= adfblk.FlagFFS
	}
	if o.INTL || o.DirCache {
		b |= adfblk.FlagINTL
	}
	if o.DirCache {
		b |= adfblk.FlagDirCache
	}
	return b
}

// Volume is a mounted (or about-to-be-formatted) AmigaDOS filesystem: its
// block range, filesystem flags, root sector, current-directory cursor,
// and — once mounted — its in-memory bitmap (spec.md §3).
type Volume struct {
	Driver adfdev.Driver

	FirstBlock int64
	LastBlock  int64
	RootBlock  int64

	FFS      bool
	INTL     bool
	DirCache bool
	ReadOnly bool

	Name string

	CurrentDir int64 // set to the root sector by Mount and Format; adfpath.Resolver keeps its own cursor

	bitmap               *bitmap
	log                  elog.View
	ignoreChecksumErrors bool
}

// DataBlockSize returns 488 for OFS volumes, 512 for FFS (spec.md §3).
func (v *Volume) DataBlockSize() int {
	if v.FFS {
		return 512
	}
	return 488
}

func rootBlockFallback(firstBlock, lastBlock int64) int64 {
	return (firstBlock + lastBlock + 1) / 2
}

// Mount reads the boot and root blocks of the range [firstBlock,
// lastBlock] and loads the bitmap (spec.md §4.3 "Mount").
// ignoreChecksumErrors controls whether a mismatched root or bitmap
// block checksum is downgraded to a warning (true) or surfaced to the
// caller as ErrBlockChecksum (false, the default per spec.md §7).
func Mount(driver adfdev.Driver, firstBlock, lastBlock int64, isFloppy bool, log elog.View, ignoreChecksumErrors bool) (*Volume, error) {
	bootRaw, err := driver.ReadSectors(firstBlock, 2)
	if err != nil {
		return nil, err
	}
	boot, err := adfblk.DecodeBoot(bootRaw)
	if err != nil {
		return nil, err
	}

	if boot.IsPFS() {
		return nil, ErrPFSUnsupported
	}

	rootBlock := rootBlockFallback(firstBlock, lastBlock)
	if isFloppy && boot.RootBlock > 1 {
		rootBlock = int64(boot.RootBlock)
	}

	raw, err := driver.ReadSectors(rootBlock, 1)
	if err != nil {
		return nil, err
	}
	root, ok, err := adfblk.DecodeRoot(raw)
	if err != nil {
		return nil, err
	}
	if !ok {
		if !ignoreChecksumErrors {
			return nil, errors.Wrapf(ErrBlockChecksum, "adfvol: root block at %d", rootBlock)
		}
		if log != nil {
			log.Warnf("adfvol: root block at %d failed checksum, proceeding per ignoreChecksumErrors policy", rootBlock)
		}
	}

	bm, err := loadBitmap(driver, root, firstBlock, lastBlock, log, ignoreChecksumErrors)
	if err != nil {
		return nil, err
	}

	v := &Volume{
		Driver:               driver,
		FirstBlock:           firstBlock,
		LastBlock:            lastBlock,
		RootBlock:            rootBlock,
		FFS:                  boot.DosType[3]&adfblk.FlagFFS != 0,
		INTL:                 boot.DosType[3]&adfblk.FlagINTL != 0,
		DirCache:             boot.DosType[3]&adfblk.FlagDirCache != 0,
		ReadOnly:             driver.Mode() == adfdev.ReadOnly,
		Name:                 root.Name(),
		CurrentDir:           rootBlock,
		bitmap:               bm,
		log:                  log,
		ignoreChecksumErrors: ignoreChecksumErrors,
	}
	return v, nil
}

// overheadBlocks returns the fixed-overhead sectors: the two boot blocks,
// which the free bitmap never tracks, and the root block, which Format
// marks used in it (spec.md §4.4 invariant (c)).
func overheadBlocks(firstBlock, rootBlock int64) []int64 {
	return []int64{firstBlock, firstBlock + 1, rootBlock}
}

// Format builds a zeroed boot block, an initial bitmap marking every
// fixed-overhead block used, and a root block carrying name, and writes
// all three (spec.md §4.3 "Format").
func Format(driver adfdev.Driver, firstBlock, lastBlock int64, name string, opts FormatOptions) (*Volume, error) {
	cleanName, err := validateVolumeName(name)
	if err != nil {
		return nil, err
	}

	rootBlock := rootBlockFallback(firstBlock, lastBlock)

	boot := &adfblk.Boot{
		DosType:   [4]byte{'D', 'O', 'S', opts.flagByte()},
		RootBlock: uint32(rootBlock),
	}
	if err := driver.WriteSectors(firstBlock, boot.Encode()); err != nil {
		return nil, err
	}

	firstDataBlock := firstBlock + 2
	totalBlocks := lastBlock - firstDataBlock + 1
	nBitmapBlocks := int((totalBlocks + adfblk.BitsPerBitmapBlock - 1) / adfblk.BitsPerBitmapBlock)
	if nBitmapBlocks < 1 {
		nBitmapBlocks = 1
	}

	bm := &bitmap{firstDataBlock: firstDataBlock, totalBlocks: totalBlocks}
	bitmapSectors := make([]int64, nBitmapBlocks)
	for i := range bitmapSectors {
		bitmapSectors[i] = rootBlock + 1 + int64(i)
		bm.records = append(bm.records, bitmapRecord{
			sector: bitmapSectors[i],
			block:  &adfblk.Bitmap{},
			dirty:  true,
		})
	}
	for block := firstDataBlock; block <= lastBlock; block++ {
		bm.setFree(block, true)
	}

	var dirCacheSector int64
	for _, b := range overheadBlocks(firstBlock, rootBlock) {
		if b >= firstDataBlock {
			bm.MarkUsed(b)
		}
	}
	for _, s := range bitmapSectors {
		if s >= firstDataBlock {
			bm.MarkUsed(s)
		}
	}
	if opts.DirCache {
		allocated, err := bm.Allocate(1)
		if err != nil {
			return nil, err
		}
		dirCacheSector = allocated[0]
		dc := &adfblk.DirCache{Parent: uint32(rootBlock)}
		if err := driver.WriteSectors(dirCacheSector, dc.Encode()); err != nil {
			return nil, err
		}
	}

	if err := bm.Flush(driver); err != nil {
		return nil, err
	}

	now := time.Now()
	root := &adfblk.Root{
		PrimaryType: adfblk.TypeHeader,
		SecType:     adfblk.STRoot,
		HTSize:      HashTableSize,
		BMFlag:      adfblk.BMValid,
		Extension:   uint32(dirCacheSector),
	}
	for i, s := range bitmapSectors {
		if i >= len(root.BMPages) {
			break
		}
		root.BMPages[i] = uint32(s)
	}
	root.SetName(cleanName)
	stampDate(&root.RDays, &root.RMins, &root.RTicks, now)
	stampDate(&root.VDays, &root.VMins, &root.VTicks, now)
	stampDate(&root.CDays, &root.CMins, &root.CTicks, now)

	if err := driver.WriteSectors(rootBlock, root.Encode()); err != nil {
		return nil, err
	}

	return &Volume{
		Driver:     driver,
		FirstBlock: firstBlock,
		LastBlock:  lastBlock,
		RootBlock:  rootBlock,
		FFS:        opts.FFS,
		INTL:       opts.INTL || opts.DirCache,
		DirCache:   opts.DirCache,
		Name:       cleanName,
		CurrentDir: rootBlock,
		bitmap:     bm,
	}, nil
}

// Unmount releases the in-memory bitmap. Callers must Flush beforehand
// if any mutation is pending.
func (v *Volume) Unmount() {
	v.bitmap = nil
}

// Flush writes every dirty bitmap block.
func (v *Volume) Flush() error {
	if v.bitmap == nil {
		return nil
	}
	return v.bitmap.Flush(v.Driver)
}

// FreeBlocks returns the number of free data blocks currently tracked
// (adfCountFreeBlocks).
func (v *Volume) FreeBlocks() int64 {
	return v.bitmap.CountFree()
}

// amigaEpoch is 1978-01-01, the zero point for Amiga on-disk dates.
var amigaEpoch = time.Date(1978, 1, 1, 0, 0, 0, 0, time.UTC)

func stampDate(days, mins, ticks *uint32, t time.Time) {
	d := t.Sub(amigaEpoch)
	*days = uint32(d.Hours() / 24)
	dayStart := amigaEpoch.Add(time.Duration(*days) * 24 * time.Hour)
	rem := t.Sub(dayStart)
	*mins = uint32(rem.Minutes())
	*ticks = uint32((rem - time.Duration(*mins)*time.Minute).Seconds() * 50)
}

// validateVolumeName replaces accented letters with their unaccented
// forms via github.com/kennygrant/sanitize's Accents, then enforces the
// 1..30 printable-character rule (spec.md §3), rejecting any name that
// still holds a non-printable or non-ASCII character.
func validateVolumeName(name string) (string, error) {
	clean := sanitize.Accents(name)
	if len(clean) < 1 || len(clean) > 30 {
		return "", ErrNameTooLong
	}
	for _, r := range clean {
		if r < 0x20 || r > 0x7e {
			return "", ErrNameInvalid
		}
	}
	return clean, nil
}
