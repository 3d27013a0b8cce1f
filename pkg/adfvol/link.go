package adfvol

import (
	"time"

	"github.com/vorteil/adflib/pkg/adfblk"
	"github.com/vorteil/adflib/pkg/adfdev"
)

// maxLinkChain bounds hard-link resolution against a corrupted disk
// whose RealEntry pointers form a cycle (spec.md §9 Open Question (c)).
// A well-formed volume never needs more than one hop: a LinkEntry's
// RealEntry always names an actual file or directory header, never
// another LinkEntry.
const maxLinkChain = 32

// Deletion policy for hard links (an implementer's choice, spec.md §9
// Open Question (c) being silent on it): this library tracks the head
// of a target's hard-link list in the target's own otherwise-unused
// RealEntry field, and deleting a target by any of its names removes
// every hard link pointing at it along with the underlying content,
// rather than leaving them dangling or attempting to promote one link
// into the target's place.

// CreateHardLink allocates a LinkEntry naming target from parentSector,
// prepends it onto target's link list (held at target's own RealEntry
// field), and links the new entry into the parent's hash chain and
// dir-cache.
func CreateHardLink(driver adfdev.Driver, bm *bitmap, parentSector int64, name string, target *entry, intl, dircache bool) (*entry, error) {
	sector, err := bm.Allocate(1)
	if err != nil {
		return nil, err
	}

	secType := int32(adfblk.STLinkFile)
	if target.IsDir() {
		secType = adfblk.STLinkDir
	}

	now := time.Now()
	l := &adfblk.LinkEntry{
		PrimaryType: adfblk.TypeHeader,
		SecType:     secType,
		HeaderKey:   uint32(sector[0]),
		Parent:      uint32(parentSector),
		RealEntry:   uint32(target.sector),
		NextLink:    target.headOfLinks(),
	}
	l.SetName(name)
	stampDate(&l.LDays, &l.LMins, &l.LTicks, now)

	if err := driver.WriteSectors(sector[0], l.Encode()); err != nil {
		return nil, err
	}

	target.setHeadOfLinks(uint32(sector[0]))
	if err := target.Write(driver); err != nil {
		return nil, err
	}

	e := &entry{sector: sector[0], primaryType: adfblk.TypeHeader, secType: secType, name: []byte(name), parent: uint32(parentSector), link: l}
	if err := linkNewEntry(driver, bm, parentSector, e, intl, dircache); err != nil {
		return nil, err
	}
	return e, nil
}

// CreateSoftLink allocates a SoftLink naming targetPath (an absolute or
// relative slash-path string, resolved by the caller on each traversal
// rather than at creation time) and links it into the parent's hash
// chain and dir-cache.
func CreateSoftLink(driver adfdev.Driver, bm *bitmap, parentSector int64, name, targetPath string, intl, dircache bool) (*entry, error) {
	sector, err := bm.Allocate(1)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	s := &adfblk.SoftLink{
		PrimaryType: adfblk.TypeHeader,
		SecType:     adfblk.STSoftLink,
		HeaderKey:   uint32(sector[0]),
		Parent:      uint32(parentSector),
	}
	if err := s.SetTargetPath(targetPath); err != nil {
		return nil, err
	}
	s.SetName(name)
	stampDate(&s.SDays, &s.SMins, &s.STicks, now)

	if err := driver.WriteSectors(sector[0], s.Encode()); err != nil {
		return nil, err
	}

	e := &entry{sector: sector[0], primaryType: adfblk.TypeHeader, secType: adfblk.STSoftLink, name: []byte(name), parent: uint32(parentSector), softLink: s}
	if err := linkNewEntry(driver, bm, parentSector, e, intl, dircache); err != nil {
		return nil, err
	}
	return e, nil
}

// ResolveHardLink follows e's RealEntry to the file or directory it
// names, bounded by maxLinkChain against a corrupted/cyclic disk.
func ResolveHardLink(driver adfdev.Driver, e *entry) (*entry, error) {
	cur := e
	for i := 0; i < maxLinkChain; i++ {
		if cur.link == nil {
			return cur, nil
		}
		next, _, err := readEntry(driver, int64(cur.link.RealEntry))
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return nil, newErr(CodeError, "hard link chain at sector %d exceeds %d hops", e.sector, maxLinkChain)
}

// LinkChainDepth returns how many hard links point at the file or
// directory underlying sector, resolving through sector's own link
// chain first if it names a hard link rather than the target itself.
// 0 means the target has no other hard links (spec.md §9 Open Question
// (c); supplemented per SPEC_FULL.md §C's adfinfo_link.c, which reports
// this depth in its link info dump).
func (v *Volume) LinkChainDepth(sector int64) (int, error) {
	e, _, err := readEntry(v.Driver, sector)
	if err != nil {
		return 0, err
	}

	target := e
	if e.link != nil {
		target, err = ResolveHardLink(v.Driver, e)
		if err != nil {
			return 0, err
		}
	}

	// A volume cannot hold more link entries than it has blocks, so the
	// walk stops there even if a corrupted NextLink chain forms a cycle.
	maxDepth := int(v.LastBlock - v.FirstBlock + 1)
	depth := 0
	cur := target.headOfLinks()
	for cur != 0 && depth < maxDepth {
		depth++
		next, _, err := readEntry(v.Driver, int64(cur))
		if err != nil {
			return 0, err
		}
		cur = next.nextLink()
	}
	return depth, nil
}

// TargetPath returns a soft link's inline target path string, and the
// sector re-traversal should start from: the link's own parent
// directory (spec.md §4.7).
func TargetPath(e *entry) (path string, fromSector int64, ok bool) {
	if e.softLink == nil {
		return "", 0, false
	}
	return e.softLink.TargetPath(), int64(e.parent), true
}

// headOfLinks reads the head of this entry's hard-link list, stored in
// its RealEntry field when the entry is itself a file or directory
// header (not a link).
func (e *entry) headOfLinks() uint32 {
	switch {
	case e.file != nil:
		return e.file.RealEntry
	case e.userDir != nil:
		return e.userDir.RealEntry
	default:
		return 0
	}
}

func (e *entry) setHeadOfLinks(v uint32) {
	switch {
	case e.file != nil:
		e.file.RealEntry = v
	case e.userDir != nil:
		e.userDir.RealEntry = v
	}
}

func (e *entry) nextLink() uint32 {
	if e.link == nil {
		return 0
	}
	return e.link.NextLink
}

// DeleteEntry removes the entry named name from parentSector's
// directory. If the removed entry is a file or directory header with
// outstanding hard links, every hard link pointing at it is unlinked
// from its own parent (and dir-cache) first, then the target's data
// and header blocks are freed; a lone hard link is simply unlinked from
// both its own parent and the target's link list.
func DeleteEntry(driver adfdev.Driver, bm *bitmap, parentSector int64, name string, intl, dircache bool) error {
	parent, err := readDirContainer(driver, parentSector)
	if err != nil {
		return err
	}
	ht := parent.HashTable()
	sector, err := dirDelete(driver, ht, []byte(name), intl)
	if err != nil {
		return err
	}
	if sector == 0 {
		return ErrFileNotFound
	}
	if dircache {
		if err := dirCacheDelete(driver, parent.Extension(), sector); err != nil {
			return err
		}
	}
	if err := parent.Write(driver); err != nil {
		return err
	}

	removed, _, err := readEntry(driver, sector)
	if err != nil {
		return err
	}

	if removed.link != nil {
		return unlinkHardLink(driver, bm, removed)
	}
	return freeTargetAndLinks(driver, bm, removed, intl, dircache)
}

// unlinkHardLink removes link from its target's NextLink-chained list
// without touching the target itself.
func unlinkHardLink(driver adfdev.Driver, bm *bitmap, link *entry) error {
	target, _, err := readEntry(driver, int64(link.link.RealEntry))
	if err != nil {
		return err
	}

	head := target.headOfLinks()
	if head == uint32(link.sector) {
		target.setHeadOfLinks(link.nextLink())
		if err := target.Write(driver); err != nil {
			return err
		}
	} else {
		cur := head
		for cur != 0 {
			curEntry, _, err := readEntry(driver, int64(cur))
			if err != nil {
				return err
			}
			if curEntry.link != nil && curEntry.link.NextLink == uint32(link.sector) {
				curEntry.link.NextLink = link.nextLink()
				if err := curEntry.Write(driver); err != nil {
					return err
				}
				break
			}
			cur = curEntry.nextLink()
		}
	}

	bm.Free([]int64{link.sector})
	return nil
}

// freeTargetAndLinks unlinks every hard link pointing at target from
// its own parent directory, then frees target's data and header blocks.
func freeTargetAndLinks(driver adfdev.Driver, bm *bitmap, target *entry, intl, dircache bool) error {
	cur := target.headOfLinks()
	for cur != 0 {
		linkEntry, _, err := readEntry(driver, int64(cur))
		if err != nil {
			return err
		}
		next := linkEntry.nextLink()

		linkParent, err := readDirContainer(driver, int64(linkEntry.parent))
		if err != nil {
			return err
		}
		lht := linkParent.HashTable()
		if _, err := dirDelete(driver, lht, linkEntry.name, intl); err != nil {
			return err
		}
		if dircache {
			if err := dirCacheDelete(driver, linkParent.Extension(), linkEntry.sector); err != nil {
				return err
			}
		}
		if err := linkParent.Write(driver); err != nil {
			return err
		}
		bm.Free([]int64{linkEntry.sector})

		cur = next
	}

	if target.file != nil {
		f, err := openFile(driver, bm, 0, false, target.sector, false, true, nil)
		if err == nil {
			for _, p := range f.pages {
				sector := p.sector
				if sector != target.sector {
					bm.Free([]int64{sector})
				}
				for _, ptr := range p.pointers() {
					if ptr != 0 {
						bm.Free([]int64{int64(ptr)})
					}
				}
			}
		}
	}
	bm.Free([]int64{target.sector})
	return nil
}
