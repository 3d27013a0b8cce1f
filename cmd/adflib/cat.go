package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"
)

var catCmd = &cobra.Command{
	Use:   "cat IMAGE PATH...",
	Short: "Print the contents of one or more files to standard output.",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		img := args[0]

		r, f, err := openResolver(img, flagVolume, true)
		if err != nil {
			return err
		}
		defer f.Close()

		for _, p := range args[1:] {
			af, err := r.Open(p, true)
			if err != nil {
				return err
			}

			_, err = io.Copy(os.Stdout, af)
			af.Close()
			if err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	catCmd.Flags().IntVarP(&flagVolume, "volume", "V", 0, "volume index to mount, for multi-partition devices")
}
