package adfvol

import (
	"time"

	"github.com/vorteil/adflib/pkg/adfblk"
	"github.com/vorteil/adflib/pkg/adfdev"
)

// CreateDir allocates a new, empty UserDir under parentSector's
// directory named name, links it into the parent's hash chain and
// dir-cache, and returns the decoded entry.
func CreateDir(driver adfdev.Driver, bm *bitmap, parentSector int64, name string, intl, dircache bool) (*entry, error) {
	sector, err := bm.Allocate(1)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	u := &adfblk.UserDir{
		PrimaryType: adfblk.TypeHeader,
		SecType:     adfblk.STDir,
		HeaderKey:   uint32(sector[0]),
		Parent:      uint32(parentSector),
	}
	u.SetName(name)
	stampDate(&u.DDays, &u.DMins, &u.DTicks, now)

	if err := driver.WriteSectors(sector[0], u.Encode()); err != nil {
		return nil, err
	}

	e := &entry{sector: sector[0], primaryType: adfblk.TypeHeader, secType: adfblk.STDir, name: []byte(name), parent: uint32(parentSector), userDir: u}
	if err := linkNewEntry(driver, bm, parentSector, e, intl, dircache); err != nil {
		return nil, err
	}
	return e, nil
}

// dirLookup walks the singly-linked collision chain rooted at
// hashTable[HashName(name)] until an entry whose folded name matches is
// found (spec.md §4.5 "Lookup").
func dirLookup(driver adfdev.Driver, hashTable [HashTableSize]uint32, name []byte, intl bool) (*entry, error) {
	slot := HashName(name, intl)
	sector := hashTable[slot]
	for sector != 0 {
		e, _, err := readEntry(driver, int64(sector))
		if err != nil {
			return nil, err
		}
		if SameName(e.name, name, intl) {
			return e, nil
		}
		sector = e.nextSameHash
	}
	return nil, nil
}

// dirInsert prepends newSector to its name's collision chain, writing the
// new entry's NextSameHash and updating hashTable[slot] in place (spec.md
// §4.5 "Insertion"). The caller is responsible for persisting whichever
// block owns hashTable afterward.
func dirInsert(driver adfdev.Driver, hashTable *[HashTableSize]uint32, newEntry *entry, intl bool) error {
	slot := HashName(newEntry.name, intl)
	newEntry.SetNextSameHash(hashTable[slot])
	if err := newEntry.Write(driver); err != nil {
		return err
	}
	hashTable[slot] = uint32(newEntry.sector)
	return nil
}

// dirDelete unlinks the entry named name from its collision chain,
// updating either the predecessor's NextSameHash or the hashTable slot
// directly if it was the head (spec.md §4.5 "Deletion"). Returns the
// removed entry's sector, or 0 if not found.
func dirDelete(driver adfdev.Driver, hashTable *[HashTableSize]uint32, name []byte, intl bool) (int64, error) {
	slot := HashName(name, intl)
	sector := hashTable[slot]

	var prev *entry
	for sector != 0 {
		e, _, err := readEntry(driver, int64(sector))
		if err != nil {
			return 0, err
		}
		if SameName(e.name, name, intl) {
			if prev == nil {
				hashTable[slot] = e.nextSameHash
			} else {
				prev.SetNextSameHash(e.nextSameHash)
				if err := prev.Write(driver); err != nil {
					return 0, err
				}
			}
			return e.sector, nil
		}
		prev = e
		sector = e.nextSameHash
	}
	return 0, nil
}

// listChain walks every entry reachable through hashTable, in slot order
// then chain order, for directory listing.
func listChain(driver adfdev.Driver, hashTable [HashTableSize]uint32) ([]*entry, error) {
	var out []*entry
	for _, head := range hashTable {
		sector := head
		for sector != 0 {
			e, _, err := readEntry(driver, int64(sector))
			if err != nil {
				return nil, err
			}
			out = append(out, e)
			sector = e.nextSameHash
		}
	}
	return out, nil
}
