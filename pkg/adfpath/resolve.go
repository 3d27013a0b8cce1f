// Package adfpath resolves AmigaDOS-style slash paths against a mounted
// volume's hash-chain directory structure, the way
// pkg/vdecompiler.IO.ResolvePathToInodeNo walks ext4 directories one
// path component at a time rather than indexing a flat table.
package adfpath

import (
	"path"
	"strings"

	"github.com/vorteil/adflib/pkg/adfvol"
)

// maxSoftLinkDepth bounds re-traversal through chained soft links
// against a cyclic or self-referential disk (spec.md §9 Open Question
// (c), same bound rationale as adfvol.maxLinkChain).
const maxSoftLinkDepth = 32

// ErrNotFound is returned when a path component can't be found.
var ErrNotFound = adfvol.ErrFileNotFound

// ErrNotADirectory is returned when a non-final path component isn't a
// directory.
var ErrNotADirectory = adfvol.ErrDirNotFound

// Resolver walks slash paths against a mounted volume, tracking a
// mutable current-directory cursor (spec.md §3).
type Resolver struct {
	Volume *adfvol.Volume
	cwd    int64
}

// New returns a Resolver positioned at the volume's root.
func New(vol *adfvol.Volume) *Resolver {
	return &Resolver{Volume: vol, cwd: vol.RootBlock}
}

// Cwd returns the current-directory cursor's header sector.
func (r *Resolver) Cwd() int64 { return r.cwd }

func (r *Resolver) startSector(p string) int64 {
	if strings.HasPrefix(p, "/") {
		return r.Volume.RootBlock
	}
	return r.cwd
}

// split breaks a slash path into its non-empty, ".")-free components.
func split(p string) []string {
	clean := path.Clean("/" + p)
	clean = strings.TrimPrefix(clean, "/")
	if clean == "." || clean == "" {
		return nil
	}
	return strings.Split(clean, "/")
}

// Resolve walks p (absolute if it starts with "/", otherwise relative
// to the cursor) to the entry it names, following soft links
// transparently. It returns the entry and the sector of the directory
// that directly contains it.
func (r *Resolver) Resolve(p string) (adfvol.DirEntry, int64, error) {
	return r.resolve(r.startSector(p), split(p), 0)
}

func (r *Resolver) resolve(start int64, parts []string, depth int) (adfvol.DirEntry, int64, error) {
	if depth > maxSoftLinkDepth {
		return adfvol.DirEntry{}, 0, ErrNotFound
	}

	if len(parts) == 0 {
		return adfvol.DirEntry{Sector: start, IsDir: true}, start, nil
	}

	dirSector := start
	for _, part := range parts[:len(parts)-1] {
		e, ok, err := r.Volume.Lookup(dirSector, part)
		if err != nil {
			return adfvol.DirEntry{}, 0, err
		}
		if !ok {
			return adfvol.DirEntry{}, 0, ErrNotFound
		}
		if e.IsSoftLink {
			resolved, _, err := r.followSoftLink(e, depth)
			if err != nil {
				return adfvol.DirEntry{}, 0, err
			}
			e = resolved
		}
		if !e.IsDir {
			return adfvol.DirEntry{}, 0, ErrNotADirectory
		}
		dirSector = e.Sector
	}

	last := parts[len(parts)-1]
	e, ok, err := r.Volume.Lookup(dirSector, last)
	if err != nil {
		return adfvol.DirEntry{}, 0, err
	}
	if !ok {
		return adfvol.DirEntry{}, 0, ErrNotFound
	}
	if e.IsSoftLink {
		resolved, resolvedParent, err := r.followSoftLink(e, depth)
		if err != nil {
			return adfvol.DirEntry{}, 0, err
		}
		return resolved, resolvedParent, nil
	}
	return e, dirSector, nil
}

func (r *Resolver) followSoftLink(e adfvol.DirEntry, depth int) (adfvol.DirEntry, int64, error) {
	target, from, err := r.Volume.ReadSoftLink(e.Sector)
	if err != nil {
		return adfvol.DirEntry{}, 0, err
	}
	start := from
	if strings.HasPrefix(target, "/") {
		start = r.Volume.RootBlock
	}
	return r.resolve(start, split(target), depth+1)
}

// ResolveDir resolves p to a directory sector, erroring if it names
// something else.
func (r *Resolver) ResolveDir(p string) (int64, error) {
	e, _, err := r.Resolve(p)
	if err != nil {
		return 0, err
	}
	if !e.IsDir {
		return 0, ErrNotADirectory
	}
	return e.Sector, nil
}

// split2 separates p into its parent directory path and base name, for
// operations (create/delete/link) that need both. A relative p yields a
// relative parent path, so it is resolved against the cursor.
func split2(p string) (dir, base string) {
	clean := path.Clean("/" + p)
	dir, base = path.Split(clean)
	if !strings.HasPrefix(p, "/") {
		dir = strings.TrimPrefix(dir, "/")
	}
	return dir, base
}

// Chdir moves the cursor to the directory named by p.
func (r *Resolver) Chdir(p string) error {
	sector, err := r.ResolveDir(p)
	if err != nil {
		return err
	}
	r.cwd = sector
	return nil
}

// List returns the contents of the directory named by p ("" for the
// current directory).
func (r *Resolver) List(p string) ([]adfvol.DirEntry, error) {
	sector, err := r.ResolveDir(p)
	if err != nil {
		return nil, err
	}
	return r.Volume.List(sector)
}

// Mkdir creates a new subdirectory at p.
func (r *Resolver) Mkdir(p string) error {
	dir, base := split2(p)
	parent, err := r.ResolveDir(dir)
	if err != nil {
		return err
	}
	_, err = r.Volume.Mkdir(parent, base)
	return err
}

// Create creates a new, empty file at p and returns an open handle.
func (r *Resolver) Create(p string) (*adfvol.File, error) {
	dir, base := split2(p)
	parent, err := r.ResolveDir(dir)
	if err != nil {
		return nil, err
	}
	return r.Volume.CreateFile(parent, base)
}

// Open opens the existing file named by p.
func (r *Resolver) Open(p string, readOnly bool) (*adfvol.File, error) {
	e, _, err := r.Resolve(p)
	if err != nil {
		return nil, err
	}
	if !e.IsFile {
		return nil, ErrNotFound
	}
	return r.Volume.OpenFile(e.Sector, readOnly)
}

// Remove deletes the entry named by p.
func (r *Resolver) Remove(p string) error {
	dir, base := split2(p)
	parent, err := r.ResolveDir(dir)
	if err != nil {
		return err
	}
	return r.Volume.Delete(parent, base)
}

// Link creates a hard link at p naming target.
func (r *Resolver) Link(p, target string) error {
	targetEntry, _, err := r.Resolve(target)
	if err != nil {
		return err
	}
	dir, base := split2(p)
	parent, err := r.ResolveDir(dir)
	if err != nil {
		return err
	}
	return r.Volume.HardLink(parent, base, targetEntry.Sector)
}

// Symlink creates a soft link at p pointing at the literal path string
// target (not resolved until traversed).
func (r *Resolver) Symlink(p, target string) error {
	dir, base := split2(p)
	parent, err := r.ResolveDir(dir)
	if err != nil {
		return err
	}
	return r.Volume.SoftLink(parent, base, target)
}
