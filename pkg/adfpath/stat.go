package adfpath

import "github.com/vorteil/adflib/pkg/adfvol"

// Stat is a richer summary of a resolved path entry than DirEntry
// alone, supplementing it with file size and hard-link chain depth —
// the distinctions the original's adfinfo.c/adfinfo_link.c examples
// report (SPEC_FULL.md §C).
type Stat struct {
	adfvol.DirEntry
	ParentSector int64
	Size         int64 // valid when IsFile
	// LinkChainDepth is how many hard links point at this entry's
	// target (0 for an entry with no other hard links).
	LinkChainDepth int
}

// Stat resolves p and reports its entry summary, file size, and
// hard-link chain depth.
func (r *Resolver) Stat(p string) (Stat, error) {
	e, parentSector, err := r.Resolve(p)
	if err != nil {
		return Stat{}, err
	}

	st := Stat{DirEntry: e, ParentSector: parentSector}

	if e.IsFile {
		f, err := r.Volume.OpenFile(e.Sector, true)
		if err != nil {
			return Stat{}, err
		}
		st.Size = f.Size()
		if err := f.Close(); err != nil {
			return Stat{}, err
		}
	}

	depth, err := r.Volume.LinkChainDepth(e.Sector)
	if err != nil {
		return Stat{}, err
	}
	st.LinkChainDepth = depth

	return st, nil
}
