package filesystem

import (
	"context"
	"time"

	"github.com/taigrr/sitefs/internal/pathfilter"
	"github.com/taigrr/sitefs/internal/types"
	"github.com/taigrr/sitefs/internal/watcher"
)

// Watch starts a watcher on paths. It always observes the host filesystem,
// whatever FS the Service was built with. The watcher stops when ctx is
// done or when it is closed.
func (s *Service) Watch(ctx context.Context, opts *types.WatchOptions, paths ...string) (w *watcher.Watcher, err error) {
	if len(paths) == 0 {
		return nil, missing("path")
	}
	for _, p := range paths {
		if p == "" {
			return nil, missing("path")
		}
	}
	defer func(start time.Time) { s.record(ctx, "watch", paths[0], start, len(paths), err) }(time.Now())
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var wopts watcher.Options
	if opts != nil {
		if opts.Filter != nil {
			wopts.Filter = pathfilter.New(opts.Filter)
		}
		wopts.DebounceDelay = opts.DebounceDelay
		wopts.EmitInitial = opts.EmitInitial
	}

	w, err = watcher.New(ctx, wopts, paths...)
	if err != nil {
		return nil, wrap("watch", paths[0], err)
	}
	return w, nil
}
