package main

import (
	"github.com/gobwas/glob"
	"github.com/spf13/cobra"
)

var flagVolume int
var flagPattern string

var lsCmd = &cobra.Command{
	Use:   "ls IMAGE [PATH]",
	Short: "List directory contents.",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		img := args[0]
		p := "/"
		if len(args) > 1 {
			p = args[1]
		}

		r, f, err := openResolver(img, flagVolume, true)
		if err != nil {
			return err
		}
		defer f.Close()

		entries, err := r.List(p)
		if err != nil {
			return err
		}

		var g glob.Glob
		if flagPattern != "" {
			g, err = glob.Compile(flagPattern)
			if err != nil {
				return err
			}
		}

		for _, e := range entries {
			if g != nil && !g.Match(e.Name) {
				continue
			}
			kind := "-"
			switch {
			case e.IsDir:
				kind = "d"
			case e.IsHardLink:
				kind = "h"
			case e.IsSoftLink:
				kind = "l"
			}
			log.Printf("%s %s", kind, e.Name)
		}
		return nil
	},
}

func init() {
	lsCmd.Flags().IntVarP(&flagVolume, "volume", "V", 0, "volume index to mount, for multi-partition devices")
	lsCmd.Flags().StringVar(&flagPattern, "pattern", "", "only list names matching this glob pattern")
}
