package adfvol

import (
	"github.com/vorteil/adflib/pkg/adfblk"
	"github.com/vorteil/adflib/pkg/adfdev"
)

// dirCacheInsert appends a summary record for e to the dir-cache chain
// headed at extension (a directory's Extension field), allocating a new
// DirCache block via alloc if the current tail is full. Returns the
// (possibly unchanged) chain head sector. Every create/delete/rename
// updates the hash chain and the dir-cache from the caller's perspective
// as a single logical step (spec.md §4.5); a crash between the two
// leaves them inconsistent, matching the original format's semantics.
func dirCacheInsert(driver adfdev.Driver, bm *bitmap, extension uint32, e *entry) (uint32, error) {
	if extension == 0 {
		sector, err := bm.Allocate(1)
		if err != nil {
			return 0, err
		}
		dc := &adfblk.DirCache{Parent: e.parent}
		if err := appendDirCacheRecord(dc, e); err != nil {
			return 0, err
		}
		if err := driver.WriteSectors(sector[0], dc.Encode()); err != nil {
			return 0, err
		}
		return uint32(sector[0]), nil
	}

	sector := int64(extension)
	for {
		raw, err := driver.ReadSectors(sector, 1)
		if err != nil {
			return 0, err
		}
		dc, _, err := adfblk.DecodeDirCache(raw)
		if err != nil {
			return 0, err
		}
		if int(dc.RecordCount) < len(dc.Records) {
			if err := appendDirCacheRecord(dc, e); err != nil {
				return 0, err
			}
			if err := driver.WriteSectors(sector, dc.Encode()); err != nil {
				return 0, err
			}
			return extension, nil
		}
		if dc.Next == 0 {
			newSector, err := bm.Allocate(1)
			if err != nil {
				return 0, err
			}
			next := &adfblk.DirCache{Parent: e.parent}
			if err := appendDirCacheRecord(next, e); err != nil {
				return 0, err
			}
			if err := driver.WriteSectors(newSector[0], next.Encode()); err != nil {
				return 0, err
			}
			dc.Next = uint32(newSector[0])
			if err := driver.WriteSectors(sector, dc.Encode()); err != nil {
				return 0, err
			}
			return extension, nil
		}
		sector = int64(dc.Next)
	}
}

func appendDirCacheRecord(dc *adfblk.DirCache, e *entry) error {
	if int(dc.RecordCount) >= len(dc.Records) {
		return newErr(CodeError, "dir-cache block is full")
	}
	rec := &dc.Records[dc.RecordCount]
	rec.HeaderSector = uint32(e.sector)
	rec.Parent = e.parent
	rec.SecType = e.secType
	rec.SetName(string(e.name))
	dc.RecordCount++
	return nil
}

// dirCacheDelete removes the summary record for sector from the chain
// headed at extension, compacting its owning block in place.
func dirCacheDelete(driver adfdev.Driver, extension uint32, sector int64) error {
	cur := int64(extension)
	for cur != 0 {
		raw, err := driver.ReadSectors(cur, 1)
		if err != nil {
			return err
		}
		dc, _, err := adfblk.DecodeDirCache(raw)
		if err != nil {
			return err
		}
		for i := 0; i < int(dc.RecordCount); i++ {
			if int64(dc.Records[i].HeaderSector) == sector {
				last := int(dc.RecordCount) - 1
				dc.Records[i] = dc.Records[last]
				dc.Records[last] = adfblk.DirCacheEntry{}
				dc.RecordCount--
				return driver.WriteSectors(cur, dc.Encode())
			}
		}
		cur = int64(dc.Next)
	}
	return nil
}

// listDirCache reads every summary record reachable from extension, for
// directory listing without reading each member's own header block.
func listDirCache(driver adfdev.Driver, extension uint32) ([]adfblk.DirCacheEntry, error) {
	var out []adfblk.DirCacheEntry
	cur := int64(extension)
	for cur != 0 {
		raw, err := driver.ReadSectors(cur, 1)
		if err != nil {
			return nil, err
		}
		dc, _, err := adfblk.DecodeDirCache(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, dc.Records[:dc.RecordCount]...)
		cur = int64(dc.Next)
	}
	return out, nil
}
