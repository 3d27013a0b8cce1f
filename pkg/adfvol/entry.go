package adfvol

import (
	"github.com/vorteil/adflib/pkg/adfblk"
	"github.com/vorteil/adflib/pkg/adfdev"
)

// entry is the decoded form of any directory-chain member (UserDir,
// FileHeader, LinkEntry, SoftLink), abstracting over the concrete block
// type for hash-chain insert/lookup/delete. Re-encoding writes back
// through whichever concrete type it was decoded from.
type entry struct {
	sector       int64
	primaryType  uint32
	secType      int32
	name         []byte
	nextSameHash uint32
	parent       uint32

	userDir  *adfblk.UserDir
	file     *adfblk.FileHeader
	link     *adfblk.LinkEntry
	softLink *adfblk.SoftLink
}

// readEntry decodes the block at sector into whichever concrete entry
// type its primaryType/secType indicate.
func readEntry(driver adfdev.Driver, sector int64) (*entry, bool, error) {
	raw, err := driver.ReadSectors(sector, 1)
	if err != nil {
		return nil, false, err
	}

	primaryType := beUint32(raw[0:4])
	secType := int32(beUint32(raw[508:512]))

	e := &entry{sector: sector, primaryType: primaryType, secType: secType}

	switch {
	case primaryType == adfblk.TypeHeader && secType == adfblk.STDir:
		u, ok, err := adfblk.DecodeUserDir(raw)
		if err != nil {
			return nil, false, err
		}
		e.userDir = u
		e.name = []byte(u.Name())
		e.nextSameHash = u.NextSameHash
		e.parent = u.Parent
		return e, ok, nil
	case primaryType == adfblk.TypeHeader && secType == adfblk.STFile:
		f, ok, err := adfblk.DecodeFileHeader(raw)
		if err != nil {
			return nil, false, err
		}
		e.file = f
		e.name = []byte(f.Name())
		e.nextSameHash = f.NextSameHash
		e.parent = f.Parent
		return e, ok, nil
	case primaryType == adfblk.TypeHeader && (secType == adfblk.STLinkFile || secType == adfblk.STLinkDir):
		l, ok, err := adfblk.DecodeLinkEntry(raw)
		if err != nil {
			return nil, false, err
		}
		e.link = l
		e.name = []byte(l.Name())
		e.nextSameHash = l.NextSameHash
		e.parent = l.Parent
		return e, ok, nil
	case primaryType == adfblk.TypeHeader && secType == adfblk.STSoftLink:
		s, ok, err := adfblk.DecodeSoftLink(raw)
		if err != nil {
			return nil, false, err
		}
		e.softLink = s
		e.name = []byte(s.Name())
		e.nextSameHash = s.NextSameHash
		e.parent = s.Parent
		return e, ok, nil
	default:
		return nil, false, newErr(CodeError, "sector %d is not a recognized directory entry (primaryType=%d secType=%d)", sector, primaryType, secType)
	}
}

func beUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// SetNextSameHash updates the entry's chain-link field in its backing
// concrete type.
func (e *entry) SetNextSameHash(v uint32) {
	e.nextSameHash = v
	switch {
	case e.userDir != nil:
		e.userDir.NextSameHash = v
	case e.file != nil:
		e.file.NextSameHash = v
	case e.link != nil:
		e.link.NextSameHash = v
	case e.softLink != nil:
		e.softLink.NextSameHash = v
	}
}

// Write re-encodes the entry's backing concrete type and writes it back.
func (e *entry) Write(driver adfdev.Driver) error {
	var raw []byte
	switch {
	case e.userDir != nil:
		raw = e.userDir.Encode()
	case e.file != nil:
		raw = e.file.Encode()
	case e.link != nil:
		raw = e.link.Encode()
	case e.softLink != nil:
		raw = e.softLink.Encode()
	default:
		return newErr(CodeError, "entry at sector %d has no backing block", e.sector)
	}
	return driver.WriteSectors(e.sector, raw)
}

// IsDir reports whether this entry is itself a directory (UserDir); it
// does not resolve hard links, so a LinkDir entry reports false.
func (e *entry) IsDir() bool {
	return e.secType == adfblk.STDir
}
