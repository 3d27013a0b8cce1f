package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"
)

var flagExtract bool

var cpCmd = &cobra.Command{
	Use:   "cp IMAGE SRC DEST",
	Short: "Copy a file between the host filesystem and an image.",
	Long: `By default SRC is a path on the host and DEST is a path inside IMAGE.
With --extract the direction is reversed: SRC is read from inside IMAGE
and written to a host path DEST.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		img, src, dest := args[0], args[1], args[2]

		r, f, err := openResolver(img, flagVolume, flagExtract)
		if err != nil {
			return err
		}
		defer f.Close()

		if flagExtract {
			af, err := r.Open(src, true)
			if err != nil {
				return err
			}
			defer af.Close()

			hf, err := os.Create(dest)
			if err != nil {
				return err
			}
			defer hf.Close()

			_, err = io.Copy(hf, af)
			return err
		}

		defer r.Volume.Unmount()

		hf, err := os.Open(src)
		if err != nil {
			return err
		}
		defer hf.Close()

		af, err := r.Create(dest)
		if err != nil {
			return err
		}

		_, err = io.Copy(af, hf)
		if err != nil {
			af.Close()
			return err
		}
		if err := af.Close(); err != nil {
			return err
		}
		return r.Volume.Flush()
	},
}

func init() {
	f := cpCmd.Flags()
	f.IntVarP(&flagVolume, "volume", "V", 0, "volume index to mount, for multi-partition devices")
	f.BoolVarP(&flagExtract, "extract", "x", false, "copy SRC out of the image to host path DEST, instead of in")
}
