package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vorteil/adflib/pkg/adfchk"
	"github.com/vorteil/adflib/pkg/adfdev"
	"github.com/vorteil/adflib/pkg/adfvol"
)

var (
	flagFFS      bool
	flagINTL     bool
	flagDirCache bool
	flagBlocks   int64
)

var formatCmd = &cobra.Command{
	Use:   "format IMAGE NAME",
	Short: "Create a new floppy-sized ADF image and format it with a Fast File System volume.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		img, name := args[0], args[1]

		// spec.md §6's useDirCache preference defaults newly formatted
		// volumes' dir-cache (and, since dir-cache implies INTL, the
		// INTL flag too) unless the user passed --dircache/--intl
		// explicitly on this invocation.
		if !cmd.Flags().Changed("dircache") {
			flagDirCache = cfg.UseDirCache
		}
		if !cmd.Flags().Changed("intl") {
			flagINTL = cfg.UseDirCache
		}

		sizeBlocks := flagBlocks
		if sizeBlocks == 0 {
			sizeBlocks = 880 * 1024 / adfchk.BlockSize
		}

		f, err := os.OpenFile(img, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		defer f.Close()

		if err := f.Truncate(sizeBlocks * adfchk.BlockSize); err != nil {
			return err
		}

		driver := adfdev.NewFileDriver(img, adfdev.ReadWrite, f, sizeBlocks)

		opts := adfvol.FormatOptions{
			FFS:      flagFFS,
			INTL:     flagINTL,
			DirCache: flagDirCache,
		}

		vol, err := adfvol.Format(driver, 0, sizeBlocks-1, name, opts)
		if err != nil {
			return err
		}

		log.Printf("formatted %s: %d blocks free of %d", img, vol.FreeBlocks(), sizeBlocks)
		return nil
	},
}

func init() {
	f := formatCmd.Flags()
	f.BoolVar(&flagFFS, "ffs", true, "use the Fast File System (OFS when false)")
	f.BoolVar(&flagINTL, "intl", false, "enable the international mode name comparison")
	f.BoolVar(&flagDirCache, "dircache", false, "enable directory caching (implies --intl)")
	f.Int64Var(&flagBlocks, "blocks", 0, fmt.Sprintf("image size in 512-byte blocks (default %d, a DD floppy)", 880*1024/adfchk.BlockSize))
}
