package main

import (
	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:     "rm IMAGE PATH",
	Short:   "Delete a file, directory, or link from an image.",
	Aliases: []string{"del"},
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		img, p := args[0], args[1]

		r, f, err := openResolver(img, flagVolume, false)
		if err != nil {
			return err
		}
		defer f.Close()
		defer r.Volume.Unmount()

		if err := r.Remove(p); err != nil {
			return err
		}
		return r.Volume.Flush()
	},
}

func init() {
	rmCmd.Flags().IntVarP(&flagVolume, "volume", "V", 0, "volume index to mount, for multi-partition devices")
}
