package filesystem

import (
	"context"
	"path/filepath"
	"time"

	"github.com/taigrr/sitefs/internal/pathfilter"
	"github.com/taigrr/sitefs/internal/types"
)

func (s *Service) newWalker(filter *types.FilterConfig, leaf, postDir visitFunc) *walker {
	return &walker{
		fs:      s.fs,
		filter:  pathfilter.New(filter),
		limit:   s.concurrency,
		leaf:    leaf,
		postDir: postDir,
	}
}

// nonNil keeps empty results as [] rather than null for JSON callers.
func nonNil(paths []string, err error) ([]string, error) {
	if err != nil {
		return nil, err
	}
	if paths == nil {
		paths = []string{}
	}
	return paths, nil
}

// ListDir returns the relative path of every file under p that passes
// filter. A nil filter skips hidden entries.
func (s *Service) ListDir(ctx context.Context, p string, filter *types.FilterConfig) (paths []string, err error) {
	if p == "" {
		return nil, missing("path")
	}
	defer func(start time.Time) { s.record(ctx, "list_dir", p, start, len(paths), err) }(time.Now())
	return nonNil(s.newWalker(filter, nil, nil).walk(ctx, p, ""))
}

// ListDirSync is the sequential form of ListDir.
func (s *Service) ListDirSync(p string, filter *types.FilterConfig) (paths []string, err error) {
	if p == "" {
		return nil, missing("path")
	}
	defer func(start time.Time) { s.record(context.Background(), "list_dir", p, start, len(paths), err) }(time.Now())
	return nonNil(s.newWalker(filter, nil, nil).walkSync(p, ""))
}

// copyWalker mirrors every visited file from src into dest. Directories
// with no copied files are not created.
func (s *Service) copyWalker(dest string, filter *types.FilterConfig) *walker {
	return s.newWalker(filter, func(_ context.Context, path, rel string) error {
		return s.copyFile(path, filepath.Join(dest, rel))
	}, nil)
}

// CopyDir copies every file under src that passes filter to the same
// relative location under dest and returns the copied relative paths.
func (s *Service) CopyDir(ctx context.Context, src, dest string, filter *types.FilterConfig) (paths []string, err error) {
	if src == "" {
		return nil, missing("src")
	}
	if dest == "" {
		return nil, missing("dest")
	}
	defer func(start time.Time) { s.record(ctx, "copy_dir", src, start, len(paths), err) }(time.Now())
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parent := filepath.Dir(dest)
	if err := s.fs.MkdirAll(parent, dirPerm); err != nil {
		return nil, wrap("mkdir", parent, err)
	}
	return nonNil(s.copyWalker(dest, filter).walk(ctx, src, ""))
}

// CopyDirSync is the sequential form of CopyDir.
func (s *Service) CopyDirSync(src, dest string, filter *types.FilterConfig) (paths []string, err error) {
	if src == "" {
		return nil, missing("src")
	}
	if dest == "" {
		return nil, missing("dest")
	}
	defer func(start time.Time) { s.record(context.Background(), "copy_dir", src, start, len(paths), err) }(time.Now())

	parent := filepath.Dir(dest)
	if err := s.fs.MkdirAll(parent, dirPerm); err != nil {
		return nil, wrap("mkdir", parent, err)
	}
	return nonNil(s.copyWalker(dest, filter).walkSync(src, ""))
}

// emptyWalker deletes visited files and prunes directories left empty. The
// prune check lists the directory without the filter: a directory that
// still holds filtered-out entries is kept.
func (s *Service) emptyWalker(filter *types.FilterConfig) *walker {
	return s.newWalker(filter,
		func(_ context.Context, path, _ string) error {
			return wrap("unlink", path, s.fs.Remove(path))
		},
		func(_ context.Context, path, _ string) error {
			entries, err := readEntries(s.fs, path)
			if err != nil {
				return err
			}
			if len(entries) > 0 {
				return nil
			}
			return wrap("rmdir", path, s.fs.Remove(path))
		},
	)
}

// EmptyDir deletes every file under p that passes filter, removes
// subdirectories that end up empty, and returns the deleted relative
// paths. p itself is kept.
func (s *Service) EmptyDir(ctx context.Context, p string, filter *types.FilterConfig) (paths []string, err error) {
	if p == "" {
		return nil, missing("path")
	}
	defer func(start time.Time) { s.record(ctx, "empty_dir", p, start, len(paths), err) }(time.Now())
	return nonNil(s.emptyWalker(filter).walk(ctx, p, ""))
}

// EmptyDirSync is the sequential form of EmptyDir.
func (s *Service) EmptyDirSync(p string, filter *types.FilterConfig) (paths []string, err error) {
	if p == "" {
		return nil, missing("path")
	}
	defer func(start time.Time) { s.record(context.Background(), "empty_dir", p, start, len(paths), err) }(time.Now())
	return nonNil(s.emptyWalker(filter).walkSync(p, ""))
}

// removeWalker deletes everything below a directory, unfiltered.
func (s *Service) removeWalker() *walker {
	return &walker{
		fs:    s.fs,
		limit: s.concurrency,
		leaf: func(_ context.Context, path, _ string) error {
			return wrap("unlink", path, s.fs.Remove(path))
		},
		postDir: func(_ context.Context, path, _ string) error {
			return wrap("rmdir", path, s.fs.Remove(path))
		},
	}
}

// Rmdir removes p and everything below it, hidden entries included.
func (s *Service) Rmdir(ctx context.Context, p string) (err error) {
	if p == "" {
		return missing("path")
	}
	defer func(start time.Time) { s.record(ctx, "rmdir", p, start, 0, err) }(time.Now())
	if _, err := s.removeWalker().walk(ctx, p, ""); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return wrap("rmdir", p, s.fs.Remove(p))
}

// RmdirSync is the sequential form of Rmdir.
func (s *Service) RmdirSync(p string) (err error) {
	if p == "" {
		return missing("path")
	}
	defer func(start time.Time) { s.record(context.Background(), "rmdir", p, start, 0, err) }(time.Now())
	if _, err := s.removeWalker().walkSync(p, ""); err != nil {
		return err
	}
	return wrap("rmdir", p, s.fs.Remove(p))
}
