package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taigrr/sitefs/internal/config"
	"github.com/taigrr/sitefs/internal/filelock"
	"github.com/taigrr/sitefs/internal/filesystem"
	"github.com/taigrr/sitefs/internal/fsys"
	"github.com/taigrr/sitefs/internal/logging"
)

// app holds the state shared by every subcommand once the persistent flags
// have been parsed.
type app struct {
	configPath  string
	verbose     bool
	concurrency int
	lock        bool

	cfg    *config.Config
	logger logging.Logger
}

// setup loads the config file, if any, and lets explicitly set flags win
// over its values.
func (a *app) setup(cmd *cobra.Command) error {
	a.cfg = &config.Config{}
	if a.configPath != "" {
		cfg, err := config.Load(fsys.OSFS{}, a.configPath)
		if err != nil {
			return err
		}
		a.cfg = cfg
	}

	flags := cmd.Flags()
	if flags.Changed("verbose") {
		a.cfg.Verbose = a.verbose
	}
	if flags.Changed("concurrency") {
		if a.concurrency < 1 {
			return fmt.Errorf("--concurrency must be at least 1, got %d", a.concurrency)
		}
		a.cfg.Concurrency = a.concurrency
	}

	a.logger = logging.NewConsoleLoggerTo(cmd.ErrOrStderr(), a.cfg.Verbose)
	return nil
}

// service builds a Service rooted at root.
func (a *app) service(root string) *filesystem.Service {
	return filesystem.New(root,
		filesystem.WithLogger(a.logger),
		filesystem.WithConcurrency(a.cfg.Concurrency),
	)
}

// locked runs fn while holding the advisory lock for target when --lock is
// set.
func (a *app) locked(ctx context.Context, target string, fn func() error) error {
	if !a.lock {
		return fn()
	}
	fl, err := filelock.ForTarget(target)
	if err != nil {
		return err
	}
	a.logger.Verbose("waiting for lock %s", fl.Path())
	if err := fl.Lock(ctx); err != nil {
		return err
	}
	defer func() {
		if err := fl.Unlock(); err != nil {
			a.logger.Error("releasing lock %s: %v", fl.Path(), err)
		}
	}()
	return fn()
}
