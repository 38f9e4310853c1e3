package main

import (
	"github.com/spf13/pflag"

	"github.com/taigrr/sitefs/internal/config"
	"github.com/taigrr/sitefs/internal/types"
)

// filterFlags are the traversal flags shared by the tree commands.
type filterFlags struct {
	hidden     bool
	ignore     string
	ignoreGlob string
	exclude    []string
	sync       bool
}

func (f *filterFlags) register(fs *pflag.FlagSet) {
	fs.BoolVar(&f.hidden, "hidden", false, "include hidden entries")
	fs.StringVar(&f.ignore, "ignore", "", "skip entries whose name matches `REGEXP`")
	fs.StringVar(&f.ignoreGlob, "ignore-glob", "", "skip entries whose name matches `GLOB`")
	fs.StringArrayVar(&f.exclude, "exclude", nil, "skip `PATH` relative to the traversal root (repeatable)")
	fs.BoolVar(&f.sync, "sync", false, "traverse sequentially")
}

// filter merges the flags that were set on the command line over cfg.
func (f *filterFlags) filter(fs *pflag.FlagSet, cfg *config.Config) (*types.FilterConfig, error) {
	var merged config.Config
	if cfg != nil {
		merged = *cfg
	}
	if fs.Changed("hidden") {
		ignoreHidden := !f.hidden
		merged.IgnoreHidden = &ignoreHidden
	}
	if fs.Changed("ignore") {
		merged.IgnorePattern = f.ignore
	}
	if fs.Changed("ignore-glob") {
		merged.IgnoreGlob = f.ignoreGlob
	}
	if fs.Changed("exclude") {
		merged.Exclude = f.exclude
	}
	return merged.FilterConfig()
}
