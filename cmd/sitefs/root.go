package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/taigrr/sitefs/internal/logging"
	"github.com/taigrr/sitefs/internal/types"
	"github.com/taigrr/sitefs/internal/watcher"
)

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitefs",
		Short: "Filtered, concurrent filesystem operations for site builds",
		Long: `sitefs lists, copies, empties and removes directory trees with
hidden-file, pattern and exclude filtering, reads text files with
BOM and line-ending normalization, and watches trees for changes.

Run "sitefs serve" to expose the same operations as MCP tools.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "load settings from a YAML or TOML `FILE`")
	pf.BoolVar(&a.verbose, "verbose", false, "log every operation to stderr")
	pf.IntVar(&a.concurrency, "concurrency", 0, "maximum parallel entries per directory level (default GOMAXPROCS*4)")
	pf.BoolVar(&a.lock, "lock", false, "hold an advisory lock on the target while writing")

	cmd.AddCommand(
		newLsCmd(a),
		newCpCmd(a),
		newEmptyCmd(a),
		newRmCmd(a),
		newCatCmd(a),
		newEnsurePathCmd(a),
		newMkdirsCmd(a),
		newWriteCmd(a),
		newWatchCmd(a),
		newServeCmd(a),
	)
	return cmd
}

func printPaths(w io.Writer, paths []string) error {
	for _, p := range paths {
		if _, err := fmt.Fprintln(w, p); err != nil {
			return err
		}
	}
	return nil
}

func newLsCmd(a *app) *cobra.Command {
	var ff filterFlags
	cmd := &cobra.Command{
		Use:     "ls PATH",
		Short:   "List every file below PATH",
		Example: "sitefs ls content --exclude drafts",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := ff.filter(cmd.Flags(), a.cfg)
			if err != nil {
				return err
			}
			svc := a.service(".")
			var paths []string
			if ff.sync {
				paths, err = svc.ListDirSync(args[0], filter)
			} else {
				paths, err = svc.ListDir(cmd.Context(), args[0], filter)
			}
			if err != nil {
				return err
			}
			return printPaths(cmd.OutOrStdout(), paths)
		},
	}
	ff.register(cmd.Flags())
	return cmd
}

func newCpCmd(a *app) *cobra.Command {
	var ff filterFlags
	cmd := &cobra.Command{
		Use:     "cp SRC DEST",
		Short:   "Copy the files below SRC into DEST",
		Example: "sitefs cp static public",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := ff.filter(cmd.Flags(), a.cfg)
			if err != nil {
				return err
			}
			svc := a.service(".")
			src, dest := args[0], args[1]
			var paths []string
			err = a.locked(cmd.Context(), dest, func() error {
				var err error
				if ff.sync {
					paths, err = svc.CopyDirSync(src, dest, filter)
				} else {
					paths, err = svc.CopyDir(cmd.Context(), src, dest, filter)
				}
				return err
			})
			if err != nil {
				return err
			}
			return printPaths(cmd.OutOrStdout(), paths)
		},
	}
	ff.register(cmd.Flags())
	return cmd
}

func newEmptyCmd(a *app) *cobra.Command {
	var ff filterFlags
	cmd := &cobra.Command{
		Use:   "empty PATH",
		Short: "Delete the files below PATH and prune emptied directories",
		Long: `empty deletes every file below PATH that passes the filter and then
removes subdirectories left empty. PATH itself is kept, as is anything the
filter skips. The removed files are printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := ff.filter(cmd.Flags(), a.cfg)
			if err != nil {
				return err
			}
			svc := a.service(".")
			var paths []string
			err = a.locked(cmd.Context(), args[0], func() error {
				var err error
				if ff.sync {
					paths, err = svc.EmptyDirSync(args[0], filter)
				} else {
					paths, err = svc.EmptyDir(cmd.Context(), args[0], filter)
				}
				return err
			})
			if err != nil {
				return err
			}
			return printPaths(cmd.OutOrStdout(), paths)
		},
	}
	ff.register(cmd.Flags())
	return cmd
}

func newRmCmd(a *app) *cobra.Command {
	var sync bool
	cmd := &cobra.Command{
		Use:   "rm PATH",
		Short: "Remove the directory tree at PATH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := a.service(".")
			return a.locked(cmd.Context(), args[0], func() error {
				if sync {
					return svc.RmdirSync(args[0])
				}
				return svc.Rmdir(cmd.Context(), args[0])
			})
		},
	}
	cmd.Flags().BoolVar(&sync, "sync", false, "remove sequentially")
	return cmd
}

func newCatCmd(a *app) *cobra.Command {
	var opts types.ReadOptions
	cmd := &cobra.Command{
		Use:   "cat PATH",
		Short: "Print a text file with its BOM dropped and CRLF turned into LF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := a.service(".").ReadFile(cmd.Context(), args[0], &opts)
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), text)
			return err
		},
	}
	cmd.Flags().BoolVar(&opts.Raw, "raw", false, "print the decoded text without normalizing it")
	cmd.Flags().StringVar(&opts.Encoding, "encoding", "", "decode the file from `NAME` (for example latin1 or utf-16le)")
	return cmd
}

func newEnsurePathCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ensure-path PATH",
		Short: "Print PATH, or the next free numbered sibling if PATH is taken",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.service(".").EnsurePath(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), p)
			return err
		},
	}
}

func newMkdirsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mkdirs PATH...",
		Short: "Create directories and any missing parents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := a.service(".")
			for _, p := range args {
				if err := svc.Mkdirs(cmd.Context(), p); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newWriteCmd(a *app) *cobra.Command {
	var opts types.StreamOptions
	var mode uint32
	cmd := &cobra.Command{
		Use:     "write PATH",
		Short:   "Copy stdin into PATH, creating parent directories",
		Example: "echo hello | sitefs write public/hello.txt",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Perm = os.FileMode(mode)
			svc := a.service(".")
			return a.locked(cmd.Context(), args[0], func() error {
				w, err := svc.EnsureWriteStream(cmd.Context(), args[0], &opts)
				if err != nil {
					return err
				}
				if _, err := io.Copy(w, cmd.InOrStdin()); err != nil {
					w.Close()
					return fmt.Errorf("writing %s: %w", args[0], err)
				}
				return w.Close()
			})
		},
	}
	cmd.Flags().BoolVarP(&opts.Append, "append", "a", false, "append instead of truncating")
	cmd.Flags().Uint32Var(&mode, "mode", 0o644, "permission bits for a new file")
	return cmd
}

func newWatchCmd(a *app) *cobra.Command {
	var ff filterFlags
	var opts types.WatchOptions
	cmd := &cobra.Command{
		Use:   "watch PATH...",
		Short: "Print add, change and unlink events below each PATH until interrupted",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := ff.filter(cmd.Flags(), a.cfg)
			if err != nil {
				return err
			}
			opts.Filter = filter

			ctx := cmd.Context()
			w, err := a.service(".").Watch(ctx, &opts, args...)
			if err != nil {
				return err
			}
			defer w.Close()
			return printEvents(cmd.OutOrStdout(), w, a.logger)
		},
	}
	ff.register(cmd.Flags())
	cmd.Flags().BoolVar(&opts.EmitInitial, "initial", false, "report existing files as add events first")
	cmd.Flags().DurationVar(&opts.DebounceDelay, "debounce", watcher.DefaultDebounceDelay, "coalesce writes to one file within this window")
	return cmd
}

// printEvents writes one "op path" line per event until the watcher stops.
func printEvents(out io.Writer, w *watcher.Watcher, logger logging.Logger) error {
	for {
		select {
		case event := <-w.Events():
			if _, err := fmt.Fprintf(out, "%s %s\n", event.Op, event.Path); err != nil {
				return err
			}
		case err := <-w.Errors():
			logger.Error("watch: %v", err)
		case <-w.Done():
			return nil
		}
	}
}
