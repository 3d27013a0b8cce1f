package main

import (
	"github.com/spf13/cobra"
)

var flagSymbolic bool

var lnCmd = &cobra.Command{
	Use:   "ln IMAGE TARGET LINK",
	Short: "Create a hard or (with --symbolic) soft link inside an image.",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		img, target, link := args[0], args[1], args[2]

		r, f, err := openResolver(img, flagVolume, false)
		if err != nil {
			return err
		}
		defer f.Close()
		defer r.Volume.Unmount()

		if flagSymbolic {
			if err := r.Symlink(link, target); err != nil {
				return err
			}
		} else {
			if err := r.Link(link, target); err != nil {
				return err
			}
		}
		return r.Volume.Flush()
	},
}

func init() {
	f := lnCmd.Flags()
	f.IntVarP(&flagVolume, "volume", "V", 0, "volume index to mount, for multi-partition devices")
	f.BoolVarP(&flagSymbolic, "symbolic", "s", false, "create a soft link storing TARGET as a path instead of a hard link")
}
