package adfvol

import (
	"time"

	"github.com/vorteil/adflib/pkg/adfblk"
	"github.com/vorteil/adflib/pkg/adfdev"
)

// page is one file-header or file-extension block's pointer table,
// abstracted so the extension-chain walk in this file doesn't need to
// special-case "is this the header or block N of the chain" (spec.md
// §4.6), grounded on pkg/vdecompiler's indirect-block-pointer walk
// (fs.go's dataFromBlockPointers).
type page struct {
	sector int64
	header *adfblk.FileHeader    // set iff this is the header page (page 0)
	ext    *adfblk.FileExtension // set iff this is an extension page
}

func (p *page) pointers() *[HashTableSize]uint32 {
	if p.header != nil {
		return &p.header.DataBlocks
	}
	return &p.ext.DataBlocks
}

func (p *page) highSeq() uint32 {
	if p.header != nil {
		return p.header.HighSeq
	}
	return p.ext.HighSeq
}

func (p *page) setHighSeq(v uint32) {
	if p.header != nil {
		p.header.HighSeq = v
	} else {
		p.ext.HighSeq = v
	}
}

func (p *page) nextExt() uint32 {
	if p.header != nil {
		return p.header.Extension
	}
	return p.ext.Extension
}

func (p *page) setNextExt(v uint32) {
	if p.header != nil {
		p.header.Extension = v
	} else {
		p.ext.Extension = v
	}
}

func (p *page) encode() []byte {
	if p.header != nil {
		return p.header.Encode()
	}
	return p.ext.Encode()
}

// File is an open handle on a file's data: the header, its loaded chain
// of extension pages, and a read/write cursor (spec.md §4.6).
type File struct {
	driver       adfdev.Driver
	bm           *bitmap
	blockSize    int // 488 (OFS) or 512 (FFS) payload bytes per data block
	ffs          bool
	headerSector int64
	pages        []*page // pages[0] is always the header page
	size         int64
	pos          int64
	readOnly     bool
	dirtyHeader  bool
	dirtyPages   map[int]bool
}

// blockPointerSlot maps a 0-based position within a page to its slot in
// the 72-wide reverse-order pointer
// table: the first data block sits at table slot 71, the second at 70,
// and so on (spec.md §4.6 "reverse order"), so a freshly-extended table
// never needs its already-written tail slots rewritten.
func blockPointerSlot(posInPage int) int {
	return HashTableSize - 1 - posInPage
}

// openFile loads the header at headerSector plus every reachable
// extension page, eagerly: the chains this library manages are small
// enough that a lazy page cache buys nothing but complexity. A bad
// header or extension checksum is downgraded to a warning and the chain
// walk proceeds when ignoreChecksumErrors is set; otherwise it is
// surfaced to the caller as ErrBlockChecksum (spec.md §7).
func openFile(driver adfdev.Driver, bm *bitmap, blockSize int, ffs bool, headerSector int64, readOnly bool, ignoreChecksumErrors bool, log warner) (*File, error) {
	raw, err := driver.ReadSectors(headerSector, 1)
	if err != nil {
		return nil, err
	}
	h, ok, err := adfblk.DecodeFileHeader(raw)
	if err != nil {
		return nil, err
	}
	if !ok {
		if !ignoreChecksumErrors {
			return nil, ErrBlockChecksum
		}
		if log != nil {
			log.Warnf("adfvol: file header at sector %d failed checksum, proceeding per ignoreChecksumErrors policy", headerSector)
		}
	}

	f := &File{
		driver:       driver,
		bm:           bm,
		blockSize:    blockSize,
		ffs:          ffs,
		headerSector: headerSector,
		size:         int64(h.ByteSize),
		readOnly:     readOnly,
		dirtyPages:   map[int]bool{},
	}
	f.pages = append(f.pages, &page{sector: headerSector, header: h})

	next := h.Extension
	for next != 0 {
		raw, err := driver.ReadSectors(int64(next), 1)
		if err != nil {
			return nil, err
		}
		e, ok, err := adfblk.DecodeFileExtension(raw)
		if err != nil {
			return nil, err
		}
		if !ok {
			if !ignoreChecksumErrors {
				return nil, ErrBlockChecksum
			}
			if log != nil {
				log.Warnf("adfvol: file extension at sector %d failed checksum, proceeding per ignoreChecksumErrors policy", next)
			}
		}
		f.pages = append(f.pages, &page{sector: int64(next), ext: e})
		next = e.Extension
	}

	return f, nil
}

// createFile allocates a new, empty FileHeader in parentSector's
// directory under name, links it into the hash chain (and the
// dir-cache, when enabled), and returns an open handle on it.
func createFile(driver adfdev.Driver, bm *bitmap, blockSize int, ffs, intl bool, parentSector int64, name string, dircache bool) (*File, error) {
	sector, err := bm.Allocate(1)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	h := &adfblk.FileHeader{
		PrimaryType: adfblk.TypeHeader,
		SecType:     adfblk.STFile,
		HeaderKey:   uint32(sector[0]),
		Parent:      uint32(parentSector),
	}
	h.SetName(name)
	stampDate(&h.FDays, &h.FMins, &h.FTicks, now)

	if err := driver.WriteSectors(sector[0], h.Encode()); err != nil {
		return nil, err
	}

	e := &entry{sector: sector[0], primaryType: adfblk.TypeHeader, secType: adfblk.STFile, name: []byte(name), parent: uint32(parentSector), file: h}
	if err := linkNewEntry(driver, bm, parentSector, e, intl, dircache); err != nil {
		return nil, err
	}

	return &File{
		driver:       driver,
		bm:           bm,
		blockSize:    blockSize,
		ffs:          ffs,
		headerSector: sector[0],
		pages:        []*page{{sector: sector[0], header: h}},
		dirtyPages:   map[int]bool{},
	}, nil
}

// linkNewEntry inserts e into parentSector's hash chain and dir-cache.
// Shared by createFile and Mkdir/link creation in link.go.
func linkNewEntry(driver adfdev.Driver, bm *bitmap, parentSector int64, e *entry, intl, dircache bool) error {
	parent, err := readDirContainer(driver, parentSector)
	if err != nil {
		return err
	}
	ht := parent.HashTable()
	if err := dirInsert(driver, ht, e, intl); err != nil {
		return err
	}
	if dircache {
		ext, err := dirCacheInsert(driver, bm, parent.Extension(), e)
		if err != nil {
			return err
		}
		parent.SetExtension(ext)
	}
	return parent.Write(driver)
}

// ensurePage returns page index idx, allocating a FileExtension block
// (and chaining it onto the previous page's Extension field) if it
// doesn't exist yet.
func (f *File) ensurePage(idx int) (*page, error) {
	for len(f.pages) <= idx {
		sector, err := f.bm.Allocate(1)
		if err != nil {
			return nil, err
		}
		prev := f.pages[len(f.pages)-1]
		ext := &adfblk.FileExtension{
			PrimaryType: adfblk.TypeFileExtension,
			SecType:     adfblk.STFile,
			HeaderKey:   uint32(sector[0]),
			Parent:      uint32(f.headerSector),
		}
		prev.setNextExt(uint32(sector[0]))
		f.dirtyPages[len(f.pages)-1] = true
		newPage := &page{sector: sector[0], ext: ext}
		f.pages = append(f.pages, newPage)
		f.dirtyPages[len(f.pages)-1] = true
	}
	return f.pages[idx], nil
}

// blockAt returns the data-block sector for file-relative block index
// blockIdx, allocating it (and any intervening pages) if necessary.
func (f *File) blockAt(blockIdx int64, allocate bool) (int64, bool, error) {
	pageIdx := int(blockIdx / HashTableSize)
	slot := blockPointerSlot(int(blockIdx % HashTableSize))

	p, err := f.pageAt(pageIdx, allocate)
	if err != nil {
		return 0, false, err
	}
	if p == nil {
		return 0, false, nil
	}

	sector := (*p.pointers())[slot]
	if sector != 0 {
		return int64(sector), false, nil
	}
	if !allocate {
		return 0, false, nil
	}

	newBlocks, err := f.bm.Allocate(1)
	if err != nil {
		return 0, false, err
	}
	(*p.pointers())[slot] = uint32(newBlocks[0])
	posInPage := int(blockIdx % HashTableSize)
	if uint32(posInPage+1) > p.highSeq() {
		p.setHighSeq(uint32(posInPage + 1))
	}
	f.dirtyPages[pageIdx] = true

	if blockIdx > 0 {
		if prevSector, _, err := f.blockAt(blockIdx-1, false); err == nil && prevSector != 0 && !f.ffs {
			_ = f.patchOFSNext(prevSector, uint32(newBlocks[0]))
		}
	}

	return int64(newBlocks[0]), true, nil
}

func (f *File) pageAt(idx int, allocate bool) (*page, error) {
	if idx < len(f.pages) {
		return f.pages[idx], nil
	}
	if !allocate {
		return nil, nil
	}
	return f.ensurePage(idx)
}

// patchOFSNext rewrites an already-written OFS data block's NextData
// pointer once its successor has been allocated (spec.md §4.6's forward
// chain is only knowable after the fact).
func (f *File) patchOFSNext(sector int64, next uint32) error {
	raw, err := f.driver.ReadSectors(sector, 1)
	if err != nil {
		return err
	}
	d, _, err := adfblk.DecodeDataOFS(raw)
	if err != nil {
		return err
	}
	d.NextData = next
	return f.driver.WriteSectors(sector, d.Encode())
}

// Seek repositions the cursor per io.Seeker semantics (whence 0/1/2).
func (f *File) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case 0:
		base = 0
	case 1:
		base = f.pos
	case 2:
		base = f.size
	}
	f.pos = base + offset
	if f.pos < 0 {
		f.pos = 0
	}
	return f.pos, nil
}

// Tell reports the current cursor position.
func (f *File) Tell() int64 { return f.pos }

// Size reports the file's current byte length.
func (f *File) Size() int64 { return f.size }

// Read fills p from the file starting at the current cursor, advancing
// it, per spec.md §4.6 "Read".
func (f *File) Read(p []byte) (int, error) {
	if f.pos >= f.size {
		return 0, nil
	}
	total := 0
	for total < len(p) && f.pos < f.size {
		blockIdx := f.pos / int64(f.blockSize)
		offInBlock := int(f.pos % int64(f.blockSize))

		sector, _, err := f.blockAt(blockIdx, false)
		if err != nil {
			return total, err
		}
		if sector == 0 {
			break
		}

		raw, err := f.driver.ReadSectors(sector, 1)
		if err != nil {
			return total, err
		}

		var payload []byte
		if f.ffs {
			payload = raw
		} else {
			d, _, err := adfblk.DecodeDataOFS(raw)
			if err != nil {
				return total, err
			}
			n := int(d.DataSize)
			if n > len(d.Payload) {
				n = len(d.Payload)
			}
			payload = d.Payload[:n]
		}

		avail := len(payload) - offInBlock
		if avail <= 0 {
			break
		}
		remaining := f.size - f.pos
		n := copy(p[total:], payload[offInBlock:])
		if int64(n) > remaining {
			n = int(remaining)
		}
		total += n
		f.pos += int64(n)
	}
	return total, nil
}

// Write stores p at the current cursor, allocating new data blocks (and
// file-extension pages) as needed, per spec.md §4.6 "Write".
func (f *File) Write(p []byte) (int, error) {
	if f.readOnly {
		return 0, ErrFileReadOnly
	}
	total := 0
	for total < len(p) {
		blockIdx := f.pos / int64(f.blockSize)
		offInBlock := int(f.pos % int64(f.blockSize))

		sector, _, err := f.blockAt(blockIdx, true)
		if err != nil {
			return total, err
		}

		n := f.blockSize - offInBlock
		if remaining := len(p) - total; n > remaining {
			n = remaining
		}
		if err := f.writeBlockBytes(sector, blockIdx, offInBlock, p[total:total+n]); err != nil {
			return total, err
		}

		total += n
		f.pos += int64(n)
		if f.pos > f.size {
			f.size = f.pos
		}
	}
	f.dirtyHeader = true
	return total, nil
}

// writeBlockBytes merges chunk into the block at sector starting at
// offInBlock, preserving whatever bytes already occupy the rest of the
// block, and rewrites the block's header/checksum.
func (f *File) writeBlockBytes(sector int64, blockIdx int64, offInBlock int, chunk []byte) error {
	if f.ffs {
		raw := make([]byte, adfblk.DataFFSPayloadSize)
		if existing, err := f.driver.ReadSectors(sector, 1); err == nil {
			copy(raw, existing)
		}
		copy(raw[offInBlock:], chunk)
		return f.driver.WriteSectors(sector, raw)
	}

	d := &adfblk.DataOFS{Type: adfblk.TypeDataOFS, HeaderKey: uint32(f.headerSector), SeqNum: uint32(blockIdx + 1)}
	if existing, err := f.driver.ReadSectors(sector, 1); err == nil {
		if old, _, err := adfblk.DecodeDataOFS(existing); err == nil {
			d.Payload = old.Payload
			d.DataSize = old.DataSize
			d.NextData = old.NextData
		}
	}
	copy(d.Payload[offInBlock:], chunk)
	used := uint32(offInBlock + len(chunk))
	if used > d.DataSize {
		d.DataSize = used
	}
	return f.driver.WriteSectors(sector, d.Encode())
}

// Truncate frees every data block beyond newSize and shrinks the
// pointer tables, dropping now-empty extension pages (spec.md §4.6
// "Truncate").
func (f *File) Truncate(newSize int64) error {
	if f.readOnly {
		return ErrFileReadOnly
	}
	if newSize >= f.size {
		f.size = newSize
		f.dirtyHeader = true
		return nil
	}

	oldBlocks := (f.size + int64(f.blockSize) - 1) / int64(f.blockSize)
	newBlocks := (newSize + int64(f.blockSize) - 1) / int64(f.blockSize)

	for i := oldBlocks - 1; i >= newBlocks; i-- {
		sector, _, err := f.blockAt(i, false)
		if err != nil {
			return err
		}
		if sector == 0 {
			continue
		}
		f.bm.Free([]int64{sector})
		pageIdx := int(i / HashTableSize)
		slot := blockPointerSlot(int(i % HashTableSize))
		p := f.pages[pageIdx]
		(*p.pointers())[slot] = 0
		posInPage := uint32(i%HashTableSize) + 1
		if p.highSeq() == posInPage {
			p.setHighSeq(posInPage - 1)
		}
		f.dirtyPages[pageIdx] = true
	}

	for len(f.pages) > 1 {
		last := f.pages[len(f.pages)-1]
		if last.highSeq() != 0 {
			break
		}
		f.bm.Free([]int64{last.sector})
		f.pages = f.pages[:len(f.pages)-1]
		prev := f.pages[len(f.pages)-1]
		prev.setNextExt(0)
		f.dirtyPages[len(f.pages)-1] = true
		delete(f.dirtyPages, len(f.pages))
	}

	if f.pos > newSize {
		f.pos = newSize
	}
	f.size = newSize
	f.dirtyHeader = true
	return nil
}

// Flush writes every dirty page (including the header, if its ByteSize
// changed) back to the device without closing the handle.
func (f *File) Flush() error {
	if f.dirtyHeader {
		f.pages[0].header.ByteSize = uint32(f.size)
		f.dirtyPages[0] = true
	}
	for idx := range f.dirtyPages {
		p := f.pages[idx]
		if err := f.driver.WriteSectors(p.sector, p.encode()); err != nil {
			return err
		}
	}
	f.dirtyPages = map[int]bool{}
	f.dirtyHeader = false
	return nil
}

// Close flushes pending changes and releases the handle.
func (f *File) Close() error {
	return f.Flush()
}
