package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/vorteil/adflib/pkg/adfchk"
	"github.com/vorteil/adflib/pkg/adfdev"
)

var infoCmd = &cobra.Command{
	Use:   "info IMAGE [PATH]",
	Short: "Print device and volume information, or details about a path.",
	Long: `info reports the device's classification and volume count, the way the
original adfinfo.c example dumps a device, and a link's hard-link chain
depth the way adfinfo_link.c does when PATH is given.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		img := args[0]

		f, err := os.OpenFile(img, os.O_RDONLY, 0644)
		if err != nil {
			return err
		}
		defer f.Close()

		fi, err := f.Stat()
		if err != nil {
			return err
		}
		sizeBlocks := fi.Size() / adfchk.BlockSize
		driver := adfdev.NewFileDriver(img, adfdev.ReadOnly, f, sizeBlocks)

		dev, err := adfdev.Open(driver, log, cfg.IgnoreChecksumErrors)
		if err != nil {
			return err
		}
		log.Printf("%s", dev.Describe())
		for i, vd := range dev.Volumes {
			log.Printf("  volume %d: blocks %d-%d", i, vd.FirstBlock, vd.LastBlock)
		}

		if len(args) < 2 {
			return nil
		}

		r, vf, err := openResolver(img, flagVolume, true)
		if err != nil {
			return err
		}
		defer vf.Close()

		st, err := r.Stat(args[1])
		if err != nil {
			return err
		}

		log.Printf("name:             %s", st.Name)
		log.Printf("sector:           %d", st.Sector)
		log.Printf("parent:           %d", st.ParentSector)
		switch {
		case st.IsHardLink:
			log.Printf("type:             hard link")
		case st.IsSoftLink:
			log.Printf("type:             soft link")
		case st.IsDir:
			log.Printf("type:             directory")
		case st.IsFile:
			log.Printf("type:             file")
			log.Printf("size:             %d bytes", st.Size)
		}
		log.Printf("link chain depth: %d", st.LinkChainDepth)
		return nil
	},
}

func init() {
	infoCmd.Flags().IntVarP(&flagVolume, "volume", "V", 0, "volume index to mount, for multi-partition devices")
}
