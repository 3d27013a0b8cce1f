package adfvol

import "github.com/vorteil/adflib/pkg/adfblk"

// DirEntry is a directory member summary returned by List/Lookup,
// independent of whichever concrete block backs it.
type DirEntry struct {
	Name       string
	Sector     int64
	IsDir      bool
	IsFile     bool
	IsHardLink bool
	IsSoftLink bool
}

func dirEntryOf(e *entry) DirEntry {
	return DirEntry{
		Name:       string(e.name),
		Sector:     e.sector,
		IsDir:      e.secType == adfblk.STDir,
		IsFile:     e.secType == adfblk.STFile,
		IsHardLink: e.secType == adfblk.STLinkFile || e.secType == adfblk.STLinkDir,
		IsSoftLink: e.secType == adfblk.STSoftLink,
	}
}

// Lookup finds name within parentSector's directory, resolving hard
// links to their target transparently.
func (v *Volume) Lookup(parentSector int64, name string) (DirEntry, bool, error) {
	parent, err := readDirContainer(v.Driver, parentSector)
	if err != nil {
		return DirEntry{}, false, err
	}
	e, err := dirLookup(v.Driver, *parent.HashTable(), []byte(name), v.INTL)
	if err != nil {
		return DirEntry{}, false, err
	}
	if e == nil {
		return DirEntry{}, false, nil
	}
	if e.link != nil {
		target, err := ResolveHardLink(v.Driver, e)
		if err != nil {
			return DirEntry{}, false, err
		}
		de := dirEntryOf(target)
		de.Name = string(e.name)
		return de, true, nil
	}
	return dirEntryOf(e), true, nil
}

// List returns every member of parentSector's directory in hash-table
// order.
func (v *Volume) List(parentSector int64) ([]DirEntry, error) {
	parent, err := readDirContainer(v.Driver, parentSector)
	if err != nil {
		return nil, err
	}
	entries, err := listChain(v.Driver, *parent.HashTable())
	if err != nil {
		return nil, err
	}
	out := make([]DirEntry, len(entries))
	for i, e := range entries {
		out[i] = dirEntryOf(e)
	}
	return out, nil
}

// Mkdir creates an empty subdirectory and returns its header sector.
func (v *Volume) Mkdir(parentSector int64, name string) (int64, error) {
	e, err := CreateDir(v.Driver, v.bitmap, parentSector, name, v.INTL, v.DirCache)
	if err != nil {
		return 0, err
	}
	return e.sector, nil
}

// CreateFile creates an empty file and returns an open handle on it.
func (v *Volume) CreateFile(parentSector int64, name string) (*File, error) {
	if v.ReadOnly {
		return nil, ErrDeviceReadOnly
	}
	return createFile(v.Driver, v.bitmap, v.DataBlockSize(), v.FFS, v.INTL, parentSector, name, v.DirCache)
}

// OpenFile opens an existing file by its header sector.
func (v *Volume) OpenFile(headerSector int64, readOnly bool) (*File, error) {
	return openFile(v.Driver, v.bitmap, v.DataBlockSize(), v.FFS, headerSector, readOnly || v.ReadOnly, v.ignoreChecksumErrors, v.log)
}

// Delete removes name from parentSector's directory (file, directory,
// or link), per the policy documented in link.go.
func (v *Volume) Delete(parentSector int64, name string) error {
	if v.ReadOnly {
		return ErrDeviceReadOnly
	}
	return DeleteEntry(v.Driver, v.bitmap, parentSector, name, v.INTL, v.DirCache)
}

// HardLink creates name in parentSector's directory as a hard link to
// targetSector.
func (v *Volume) HardLink(parentSector int64, name string, targetSector int64) error {
	if v.ReadOnly {
		return ErrDeviceReadOnly
	}
	target, _, err := readEntry(v.Driver, targetSector)
	if err != nil {
		return err
	}
	_, err = CreateHardLink(v.Driver, v.bitmap, parentSector, name, target, v.INTL, v.DirCache)
	return err
}

// SoftLink creates name in parentSector's directory as a soft link to
// targetPath (resolved lazily by the caller on traversal).
func (v *Volume) SoftLink(parentSector int64, name, targetPath string) error {
	if v.ReadOnly {
		return ErrDeviceReadOnly
	}
	_, err := CreateSoftLink(v.Driver, v.bitmap, parentSector, name, targetPath, v.INTL, v.DirCache)
	return err
}

// ReadSoftLink returns a soft link's inline target path and the sector
// re-traversal should begin from (its own parent directory).
func (v *Volume) ReadSoftLink(sector int64) (path string, fromSector int64, err error) {
	e, _, err := readEntry(v.Driver, sector)
	if err != nil {
		return "", 0, err
	}
	path, from, ok := TargetPath(e)
	if !ok {
		return "", 0, newErr(CodeError, "sector %d is not a soft link", sector)
	}
	return path, from, nil
}
