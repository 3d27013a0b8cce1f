package main

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vorteil/adflib/pkg/adfcfg"
	"github.com/vorteil/adflib/pkg/elog"
)

var (
	release = "0.0.0"
	commit  = ""
)

var log elog.View
var cfg adfcfg.Config

var (
	flagJSON    bool
	flagVerbose bool
	flagDebug   bool
	flagCfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "adflib",
	Short: "Create and inspect Amiga Fast File System disk images",
	Long: `adflib builds, mounts, and inspects Amiga Fast File System (OFS/FFS)
disk images: raw floppy and hardfile ADFs as well as RDB-partitioned
hard disk images.`,
}

func commandInit() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "d", false, "enable debug output")
	rootCmd.PersistentFlags().BoolVarP(&flagJSON, "json", "j", false, "enable json output")
	rootCmd.PersistentFlags().StringVar(&flagCfgFile, "config", "", "path to an adflibrc config file (defaults to ~/.adflibrc)")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		logger := &elog.CLI{}

		isTerminal := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

		if flagJSON {
			logger.DisableTTY = true
			logrus.SetFormatter(&logrus.JSONFormatter{})
		} else {
			if !isTerminal {
				logger.DisableColors = true
			}
			logrus.SetOutput(colorable.NewColorableStdout())
			logrus.SetFormatter(logger)
		}
		if !isTerminal {
			logger.DisableTTY = true
		}
		logrus.SetLevel(logrus.TraceLevel)

		if flagDebug {
			logger.IsDebug = true
			logger.IsVerbose = true
		} else if flagVerbose {
			logger.IsVerbose = true
		}

		cfg = adfcfg.Load(flagCfgFile, logger)
		log = cfg.View(logger)
		return nil
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(formatCmd)
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(catCmd)
	rootCmd.AddCommand(mkdirCmd)
	rootCmd.AddCommand(cpCmd)
	rootCmd.AddCommand(lnCmd)
	rootCmd.AddCommand(statCmd)
	rootCmd.AddCommand(md5Cmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(infoCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the adflib version",
	Run: func(cmd *cobra.Command, args []string) {
		log.Printf("adflib %s (%s)", release, commit)
	},
}

func main() {
	commandInit()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
