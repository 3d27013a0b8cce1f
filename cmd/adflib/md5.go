package main

import (
	"crypto/md5"
	"encoding/hex"
	"io"

	"github.com/spf13/cobra"
)

var md5Cmd = &cobra.Command{
	Use:   "md5 IMAGE PATH",
	Short: "Print the MD5 checksum of a file's contents.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		img, p := args[0], args[1]

		r, f, err := openResolver(img, flagVolume, true)
		if err != nil {
			return err
		}
		defer f.Close()

		af, err := r.Open(p, true)
		if err != nil {
			return err
		}
		defer af.Close()

		hasher := md5.New()
		if _, err := io.Copy(hasher, af); err != nil {
			return err
		}

		log.Printf("%s", hex.EncodeToString(hasher.Sum(nil)))
		return nil
	},
}

func init() {
	md5Cmd.Flags().IntVarP(&flagVolume, "volume", "V", 0, "volume index to mount, for multi-partition devices")
}
