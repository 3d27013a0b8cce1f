// Package adfcfg loads the ambient knobs this library's CLI and callers
// tune by environment rather than per-call argument: whether to treat a
// bad block checksum as fatal, whether new volumes get a dir-cache, and
// whether to show a progress bar during long operations. It follows
// pkg/vconvert's initConfig shape: a user config file overrides
// defaults, rather than the other way around.
package adfcfg

import (
	"path/filepath"

	"github.com/imdario/mergo"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/vorteil/adflib/pkg/elog"
)

const configFileName = "adflibrc"

// Config holds every environment-tunable knob this library consults.
type Config struct {
	IgnoreChecksumErrors bool `mapstructure:"ignoreChecksumErrors"`
	UseDirCache          bool `mapstructure:"useDirCache"`
	UseProgressBar       bool `mapstructure:"useProgressBar"`
}

// Default returns the knob values used when no config file is present.
func Default() Config {
	return Config{
		IgnoreChecksumErrors: false,
		UseDirCache:          false,
		UseProgressBar:       true,
	}
}

// Load reads ~/.adflibrc (or cfgFile, if given) and merges it over
// Default(), the user's file taking priority for any key it sets.
func Load(cfgFile string, log elog.View) Config {
	cfg := Default()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			log.Debugf("adfcfg: could not resolve home directory: %s", err.Error())
			return cfg
		}
		viper.SetConfigFile(filepath.Join(home, "."+configFileName))
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		log.Debugf("adfcfg: no config file loaded, using defaults: %s", err.Error())
		return cfg
	}

	// fromFile starts from the defaults, so a key the file leaves out keeps
	// its default value and a key the file sets to false still wins.
	fromFile := cfg
	if err := viper.Unmarshal(&fromFile); err != nil {
		log.Warnf("adfcfg: config file %s could not be parsed: %s", viper.ConfigFileUsed(), err.Error())
		return cfg
	}

	if err := mergo.Merge(&cfg, &fromFile, mergo.WithOverride, mergo.WithOverwriteWithEmptyValue); err != nil {
		log.Warnf("adfcfg: merging config file %s failed: %s", viper.ConfigFileUsed(), err.Error())
		return cfg
	}

	log.Debugf("adfcfg: using config file: %s", viper.ConfigFileUsed())
	return cfg
}
