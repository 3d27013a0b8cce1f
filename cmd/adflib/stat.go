package main

import (
	"github.com/spf13/cobra"
)

var statCmd = &cobra.Command{
	Use:   "stat IMAGE PATH",
	Short: "Print information about a file, directory, or link.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		img, p := args[0], args[1]

		r, f, err := openResolver(img, flagVolume, true)
		if err != nil {
			return err
		}
		defer f.Close()

		entry, parentSector, err := r.Resolve(p)
		if err != nil {
			return err
		}

		log.Printf("name:      %s", entry.Name)
		log.Printf("sector:    %d", entry.Sector)
		log.Printf("parent:    %d", parentSector)

		switch {
		case entry.IsDir:
			log.Printf("type:      directory")
		case entry.IsSoftLink:
			log.Printf("type:      soft link")
			target, from, err := r.Volume.ReadSoftLink(entry.Sector)
			if err == nil {
				log.Printf("target:    %s (relative to sector %d)", target, from)
			}
		case entry.IsFile:
			log.Printf("type:      file")
			af, err := r.Volume.OpenFile(entry.Sector, true)
			if err == nil {
				log.Printf("size:      %d bytes", af.Size())
				af.Close()
			}
		}
		return nil
	},
}

func init() {
	statCmd.Flags().IntVarP(&flagVolume, "volume", "V", 0, "volume index to mount, for multi-partition devices")
}
