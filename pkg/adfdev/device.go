package adfdev

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/vorteil/adflib/pkg/adfblk"
	"github.com/vorteil/adflib/pkg/adfchk"
	"github.com/vorteil/adflib/pkg/elog"
)

// Kind classifies a device by how its volumes were discovered (spec.md
// §4.2).
type Kind int

// Device kinds.
const (
	KindFloppy Kind = iota
	KindHardfile
	KindHarddisk
)

func (k Kind) String() string {
	switch k {
	case KindFloppy:
		return "floppy"
	case KindHardfile:
		return "hardfile"
	case KindHarddisk:
		return "harddisk"
	default:
		return "unknown"
	}
}

// Known floppy dump sizes in blocks (DD 880 KiB and HD 1760 KiB), per
// adf_dev_flop.c's geometry probe.
const (
	floppyDDBlocks = 880 * 1024 / adfchk.BlockSize
	floppyHDBlocks = 1760 * 1024 / adfchk.BlockSize
)

// maxVolumes bounds the partition chain walk against a corrupt or
// cyclic PART list (Open Question (b): no protocol maximum is given, so
// adflib picks a generous, clearly-pathological ceiling).
const maxVolumes = 255

// VolumeDescriptor is one entry produced by device classification: a
// candidate volume's block range and (for RDB devices) its declared
// dosType, before anything is mounted.
type VolumeDescriptor struct {
	FirstBlock int64
	LastBlock  int64
	DosType    [4]byte
	Name       string
}

// Device owns a driver handle, its optional decoded RDB chain, and the
// list of volume descriptors produced by classification. Mounting a
// volume is a separate step performed by adfvol.Mount against one of
// these descriptors.
type Device struct {
	ID     uuid.UUID
	Driver Driver
	Mode   Mode
	Kind   Kind

	RDB     *adfblk.RigidDisk
	Volumes []VolumeDescriptor

	log                  elog.View
	ignoreChecksumErrors bool
	mounted              map[int]bool // volume index -> mounted
}

// ErrVolumeIndex is returned when a caller references a volume index
// outside the device's Volumes slice.
var ErrVolumeIndex = errors.New("adfdev: volume index out of range")

// ErrAlreadyMounted is returned by MarkMounted when the volume at that
// index is already tracked as mounted (adf_dev.c's double-mount guard,
// supplemented per SPEC_FULL.md §C).
var ErrAlreadyMounted = errors.New("adfdev: volume already mounted")

// ErrTooManyVolumes guards against a corrupt or cyclic PART chain.
var ErrTooManyVolumes = errors.New("adfdev: partition chain exceeds maximum volume count")

// ErrBlockChecksum is returned for a mismatched RDSK or PART block
// checksum when the caller has not set ignoreChecksumErrors (spec.md §7:
// a checksum mismatch is surfaced to the caller by default, and only
// downgraded to a warning when that flag is set).
var ErrBlockChecksum = errors.New("adfdev: stored checksum does not match recomputed value")

// Open locates sizeBlocks from driver, reads sector 0, and classifies the
// device as floppy, hardfile, or harddisk (spec.md §4.2). Opening never
// mounts; callers mount individual volumes afterward via adfvol.Mount.
// ignoreChecksumErrors controls whether a mismatched RDSK/PART checksum
// is a warning (true) or a returned error (false, the default).
func Open(driver Driver, log elog.View, ignoreChecksumErrors bool) (*Device, error) {
	dev := &Device{
		ID:                   uuid.New(),
		Driver:               driver,
		Mode:                 driver.Mode(),
		log:                  log,
		ignoreChecksumErrors: ignoreChecksumErrors,
		mounted:              make(map[int]bool),
	}

	sector0, err := driver.ReadSectors(0, 1)
	if err != nil {
		return nil, errors.Wrap(err, "adfdev: reading sector 0")
	}

	if len(sector0) >= 4 && string(sector0[:4]) == "RDSK" {
		if err := dev.classifyHarddisk(sector0); err != nil {
			return nil, err
		}
		return dev, nil
	}

	sizeBlocks := driver.SizeBlocks()
	if sizeBlocks == floppyDDBlocks || sizeBlocks == floppyHDBlocks {
		dev.classifyFloppy(sizeBlocks)
		return dev, nil
	}

	if err := dev.classifyHardfile(); err != nil {
		return nil, err
	}

	return dev, nil
}

func (dev *Device) classifyFloppy(sizeBlocks int64) {
	dev.Kind = KindFloppy
	dev.Volumes = []VolumeDescriptor{{FirstBlock: 0, LastBlock: sizeBlocks - 1}}
	if dev.log != nil {
		dev.log.Debugf("adfdev: %s classified as floppy (%d blocks)", dev.Driver.Name(), sizeBlocks)
	}
}

// classifyHardfile scans downward from sizeBlocks/2 for a root block
// (primaryType T_HEADER, secType ROOT), stopping at sector 1, per
// spec.md §4.2.
func (dev *Device) classifyHardfile() error {
	dev.Kind = KindHardfile
	sizeBlocks := dev.Driver.SizeBlocks()

	root, rootBlock, err := dev.scanForRoot(sizeBlocks / 2)
	if err != nil {
		return err
	}

	last := sizeBlocks - 1
	if root != nil {
		last = 2*rootBlock - 1
	}

	dev.Volumes = []VolumeDescriptor{{FirstBlock: 0, LastBlock: last}}
	return nil
}

func (dev *Device) scanForRoot(start int64) (*adfblk.Root, int64, error) {
	for sector := start; sector >= 1; sector-- {
		raw, err := dev.Driver.ReadSectors(sector, 1)
		if err != nil {
			return nil, 0, err
		}
		root, ok, err := adfblk.DecodeRoot(raw)
		if err != nil {
			continue
		}
		if ok && root.PrimaryType == adfblk.TypeHeader && root.SecType == adfblk.STRoot {
			return root, sector, nil
		}
	}
	return nil, 0, nil
}

// classifyHarddisk decodes the RDSK block and walks the PART chain,
// producing one volume descriptor per partition (spec.md §4.2).
func (dev *Device) classifyHarddisk(sector0 []byte) error {
	dev.Kind = KindHarddisk

	rdsk, valid, err := adfblk.DecodeRigidDisk(sector0)
	if err != nil {
		return errors.Wrap(err, "adfdev: decoding RDSK block")
	}
	if !valid {
		if !dev.ignoreChecksumErrors {
			return errors.Wrap(ErrBlockChecksum, "adfdev: RDSK block")
		}
		if dev.log != nil {
			dev.log.Warnf("adfdev: %s RDSK checksum mismatch, proceeding per ignoreChecksumErrors policy", dev.Driver.Name())
		}
	}
	dev.RDB = rdsk

	next := rdsk.PartitionList
	seen := 0
	for next != adfblk.EndOfChain && next != 0 {
		if seen >= maxVolumes {
			return ErrTooManyVolumes
		}
		seen++

		raw, err := dev.Driver.ReadSectors(int64(next), 1)
		if err != nil {
			return errors.Wrap(err, "adfdev: reading PART block")
		}
		part, ok, err := adfblk.DecodePartition(raw)
		if err != nil {
			return errors.Wrap(err, "adfdev: decoding PART block")
		}
		if !ok {
			if !dev.ignoreChecksumErrors {
				return errors.Wrapf(ErrBlockChecksum, "adfdev: PART block at %d", next)
			}
			if dev.log != nil {
				dev.log.Warnf("adfdev: %s PART block at %d failed checksum, proceeding per ignoreChecksumErrors policy", dev.Driver.Name(), next)
			}
		}

		cylBlocks := int64(part.Surfaces) * int64(part.BlocksPerTrack)
		desc := VolumeDescriptor{
			FirstBlock: cylBlocks * int64(part.LowCyl),
			LastBlock:  cylBlocks*int64(part.HighCyl+1) - 1,
			DosType:    part.DosType,
			Name:       part.PartitionName(),
		}
		dev.Volumes = append(dev.Volumes, desc)

		next = part.Next
	}

	if err := dev.validateFSHDChain(); err != nil && dev.log != nil {
		dev.log.Warnf("adfdev: %s FSHD/LSEG chain validation: %v", dev.Driver.Name(), err)
	}

	return nil
}

// validateFSHDChain walks the FSHD list and, for each header, its LSEG
// chain, purely to confirm the links resolve; contents are never needed
// for filesystem I/O (spec.md §4.2).
func (dev *Device) validateFSHDChain() error {
	if dev.RDB == nil {
		return nil
	}
	next := dev.RDB.FileSysHeaderList
	seen := 0
	for next != adfblk.EndOfChain && next != 0 {
		if seen >= maxVolumes {
			return ErrTooManyVolumes
		}
		seen++

		raw, err := dev.Driver.ReadSectors(int64(next), 1)
		if err != nil {
			return err
		}
		fshd, _, err := adfblk.DecodeFileSysHeader(raw)
		if err != nil {
			return err
		}

		seg := fshd.SegListBlock
		segSeen := 0
		for seg != adfblk.EndOfChain && seg != 0 {
			if segSeen >= maxVolumes {
				return ErrTooManyVolumes
			}
			segSeen++
			raw, err := dev.Driver.ReadSectors(int64(seg), 1)
			if err != nil {
				return err
			}
			lseg, _, err := adfblk.DecodeLoadSeg(raw)
			if err != nil {
				return err
			}
			seg = lseg.Next
		}

		next = fshd.Next
	}
	return nil
}

// MountedVolumes reports the indices into Volumes that are currently
// mounted.
func (dev *Device) MountedVolumes() []int {
	out := make([]int, 0, len(dev.mounted))
	for i := range dev.mounted {
		out = append(out, i)
	}
	return out
}

// MarkMounted records volume index as mounted, refusing a double mount
// (adf_dev.c's VolAlreadyMounted guard).
func (dev *Device) MarkMounted(index int) error {
	if index < 0 || index >= len(dev.Volumes) {
		return ErrVolumeIndex
	}
	if dev.mounted[index] {
		return ErrAlreadyMounted
	}
	dev.mounted[index] = true
	return nil
}

// MarkUnmounted clears the mounted marker for index.
func (dev *Device) MarkUnmounted(index int) {
	delete(dev.mounted, index)
}

// Close releases the underlying driver.
func (dev *Device) Close() error {
	return dev.Driver.Close()
}

// Describe returns a short human-readable summary, used by cmd/adflib's
// info command.
func (dev *Device) Describe() string {
	return fmt.Sprintf("%s: %s, %d volume(s)", dev.Driver.Name(), dev.Kind, len(dev.Volumes))
}
