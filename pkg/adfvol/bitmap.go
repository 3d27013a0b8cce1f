package adfvol

import (
	"github.com/pkg/errors"

	"github.com/vorteil/adflib/pkg/adfblk"
	"github.com/vorteil/adflib/pkg/adfdev"
)

// bitsPerWord is the number of free/used bits a single 32-bit bitmap word
// represents.
const bitsPerWord = 32

// bitmap is the in-memory free-space allocator: one parallel record per
// bitmap block (its decoded contents, its on-disk sector, and whether it
// needs flushing), kept as a single slice of records rather than three
// separate arrays so the three always stay aligned (spec.md §9 design
// note), grounded on pkg/ext's blockUsage []uint64 bit-indexing shape
// (block-usage.go).
type bitmap struct {
	firstDataBlock int64 // firstBlock + 2: boot blocks are never representable
	totalBlocks    int64
	records        []bitmapRecord
	cursor         int // rotating allocation cursor, index into the flattened bit space
}

type bitmapRecord struct {
	sector int64
	block  *adfblk.Bitmap
	dirty  bool
}

// loadBitmap walks root.BMPages then the BMExt chain, reading each bitmap
// block into a bitmapRecord (spec.md §4.4 "Load"). A bad bitmap block
// checksum is downgraded to a warning when ignoreChecksumErrors is set;
// otherwise it is surfaced to the caller as ErrBlockChecksum (spec.md §7).
func loadBitmap(driver adfdev.Driver, root *adfblk.Root, firstBlock, lastBlock int64, log warner, ignoreChecksumErrors bool) (*bitmap, error) {
	bm := &bitmap{
		firstDataBlock: firstBlock + 2,
		totalBlocks:    lastBlock - (firstBlock + 2) + 1,
	}

	if root.BMFlag != adfblk.BMValid && log != nil {
		log.Warnf("adfvol: bitmap flag is not VALID; proceeding without reconstruction (use Reconstruct to repair)")
	}

	var sectors []int64
	for _, p := range root.BMPages {
		if p == 0 {
			break
		}
		sectors = append(sectors, int64(p))
	}

	ext := root.BMExt
	for ext != 0 {
		raw, err := driver.ReadSectors(int64(ext), 1)
		if err != nil {
			return nil, err
		}
		be, err := adfblk.DecodeBitmapExt(raw)
		if err != nil {
			return nil, err
		}
		for _, p := range be.Pointers {
			if p == 0 {
				break
			}
			sectors = append(sectors, int64(p))
		}
		ext = be.Next
	}

	for _, sector := range sectors {
		raw, err := driver.ReadSectors(sector, 1)
		if err != nil {
			return nil, err
		}
		block, ok, err := adfblk.DecodeBitmap(raw)
		if err != nil {
			return nil, err
		}
		if !ok {
			if !ignoreChecksumErrors {
				return nil, errors.Wrapf(ErrBlockChecksum, "adfvol: bitmap block at sector %d", sector)
			}
			if log != nil {
				log.Warnf("adfvol: bitmap block at sector %d failed checksum, proceeding per ignoreChecksumErrors policy", sector)
			}
		}
		bm.records = append(bm.records, bitmapRecord{sector: sector, block: block})
	}

	return bm, nil
}

type warner interface {
	Warnf(format string, x ...interface{})
}

func (bm *bitmap) bitPos(dataBlock int64) (recordIdx, word, bit int) {
	n := int(dataBlock - bm.firstDataBlock)
	perBlock := adfblk.BitsPerBitmapBlock
	recordIdx = n / perBlock
	rem := n % perBlock
	word = rem / bitsPerWord
	bit = rem % bitsPerWord
	return
}

func (bm *bitmap) isFree(dataBlock int64) bool {
	r, w, b := bm.bitPos(dataBlock)
	if r < 0 || r >= len(bm.records) {
		return false
	}
	return bm.records[r].block.Words[w]&(1<<uint(b)) != 0
}

func (bm *bitmap) setFree(dataBlock int64, free bool) {
	r, w, b := bm.bitPos(dataBlock)
	rec := &bm.records[r]
	if free {
		rec.block.Words[w] |= 1 << uint(b)
	} else {
		rec.block.Words[w] &^= 1 << uint(b)
	}
	rec.dirty = true
}

// CountFree returns the number of free data blocks currently tracked.
func (bm *bitmap) CountFree() int64 {
	var n int64
	for block := bm.firstDataBlock; block < bm.firstDataBlock+bm.totalBlocks; block++ {
		if bm.isFree(block) {
			n++
		}
	}
	return n
}

// Allocate finds n free data blocks starting from the rotating cursor,
// clears their bits, and returns their sector numbers in the order the
// scan found them, wrapping from the last data block back to the first
// (spec.md §4.4 "Allocate").
func (bm *bitmap) Allocate(n int) ([]int64, error) {
	if n == 0 {
		return nil, nil
	}

	out := make([]int64, 0, n)
	start := bm.cursor
	for i := int64(0); i < bm.totalBlocks && len(out) < n; i++ {
		idx := (int64(start) + i) % bm.totalBlocks
		block := bm.firstDataBlock + idx
		if bm.isFree(block) {
			bm.setFree(block, false)
			out = append(out, block)
		}
	}

	if len(out) < n {
		// roll back whatever was tentatively allocated
		for _, block := range out {
			bm.setFree(block, true)
		}
		return nil, ErrVolFull
	}

	bm.cursor = int((out[len(out)-1] - bm.firstDataBlock + 1) % bm.totalBlocks)
	return out, nil
}

// Free marks blocks as free again (spec.md §4.4 "Free").
func (bm *bitmap) Free(blocks []int64) {
	for _, block := range blocks {
		bm.setFree(block, true)
	}
}

// MarkUsed marks block as used without going through the cursor-based
// allocator, for reserving fixed-overhead blocks (boot, root, bitmap,
// dir-cache) during Format.
func (bm *bitmap) MarkUsed(block int64) {
	bm.setFree(block, false)
}

// Flush recomputes and writes the checksum of every dirty bitmap block
// (spec.md §4.4 "Flush").
func (bm *bitmap) Flush(driver adfdev.Driver) error {
	for i := range bm.records {
		rec := &bm.records[i]
		if !rec.dirty {
			continue
		}
		raw := rec.block.Encode()
		if err := driver.WriteSectors(rec.sector, raw); err != nil {
			return err
		}
		rec.dirty = false
	}
	return nil
}
