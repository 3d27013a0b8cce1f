package adfvol

import (
	"github.com/vorteil/adflib/pkg/adfblk"
	"github.com/vorteil/adflib/pkg/adfdev"
)

// dirContainer abstracts over the two block types that own a hash table
// of children — the volume Root and a UserDir — so directory mutation
// (create/delete) doesn't need to special-case "am I inside the
// root or a subdirectory" (spec.md §4.5).
type dirContainer struct {
	sector  int64
	root    *adfblk.Root
	userDir *adfblk.UserDir
}

// readDirContainer decodes the directory block at sector, whichever
// concrete type it turns out to be.
func readDirContainer(driver adfdev.Driver, sector int64) (*dirContainer, error) {
	raw, err := driver.ReadSectors(sector, 1)
	if err != nil {
		return nil, err
	}
	primaryType := beUint32(raw[0:4])
	secType := int32(beUint32(raw[508:512]))

	switch {
	case primaryType == adfblk.TypeHeader && secType == adfblk.STRoot:
		r, _, err := adfblk.DecodeRoot(raw)
		if err != nil {
			return nil, err
		}
		return &dirContainer{sector: sector, root: r}, nil
	case primaryType == adfblk.TypeHeader && secType == adfblk.STDir:
		u, _, err := adfblk.DecodeUserDir(raw)
		if err != nil {
			return nil, err
		}
		return &dirContainer{sector: sector, userDir: u}, nil
	default:
		return nil, newErr(CodeDirNotFound, "sector %d is not a directory (primaryType=%d secType=%d)", sector, primaryType, secType)
	}
}

func (d *dirContainer) HashTable() *[HashTableSize]uint32 {
	if d.root != nil {
		return &d.root.HashTable
	}
	return &d.userDir.HashTable
}

func (d *dirContainer) Extension() uint32 {
	if d.root != nil {
		return d.root.Extension
	}
	return d.userDir.Extension
}

func (d *dirContainer) SetExtension(v uint32) {
	if d.root != nil {
		d.root.Extension = v
	} else {
		d.userDir.Extension = v
	}
}

// Write re-encodes and persists whichever concrete block backs this
// container.
func (d *dirContainer) Write(driver adfdev.Driver) error {
	var raw []byte
	if d.root != nil {
		raw = d.root.Encode()
	} else {
		raw = d.userDir.Encode()
	}
	return driver.WriteSectors(d.sector, raw)
}
