package main

import (
	"github.com/spf13/cobra"
)

var mkdirCmd = &cobra.Command{
	Use:   "mkdir IMAGE PATH",
	Short: "Create a directory inside an image.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		img, p := args[0], args[1]

		r, f, err := openResolver(img, flagVolume, false)
		if err != nil {
			return err
		}
		defer f.Close()
		defer r.Volume.Unmount()

		if err := r.Mkdir(p); err != nil {
			return err
		}
		return r.Volume.Flush()
	},
}

func init() {
	mkdirCmd.Flags().IntVarP(&flagVolume, "volume", "V", 0, "volume index to mount, for multi-partition devices")
}
