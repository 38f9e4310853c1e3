package filesystem

import (
	"context"
	"path/filepath"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/taigrr/sitefs/internal/fsys"
	"github.com/taigrr/sitefs/internal/pathfilter"
)

// visitFunc acts on one entry. path is the full path and rel the path
// below the traversal root.
type visitFunc func(ctx context.Context, path, rel string) error

// walker is the recursive traversal shared by ListDir, CopyDir, EmptyDir
// and Rmdir. leaf runs for every non-directory entry. postDir, if set, runs
// for a directory after all of its children are done.
type walker struct {
	fs      fsys.FS
	filter  *pathfilter.PathFilter
	limit   int
	leaf    visitFunc
	postDir visitFunc
}

// walk visits the tree under path, fanning out per directory level, and
// returns the relative paths of every leaf in listing order. Any failure
// cancels the remaining work at every level and no paths are returned.
func (w *walker) walk(ctx context.Context, path, rel string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := listDir(w.fs, path, rel, w.filter)
	if err != nil {
		return nil, err
	}

	// Each entry writes only its own slot, so the level needs no lock and
	// the joined result follows the listing order.
	results := make([][]string, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.limit)
	for i, entry := range entries {
		childPath := filepath.Join(path, entry.Name)
		childRel := filepath.Join(rel, entry.Name)

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if !entry.IsDir {
				if w.leaf != nil {
					if err := w.leaf(gctx, childPath, childRel); err != nil {
						return err
					}
				}
				results[i] = []string{childRel}
				return nil
			}

			sub, err := w.walk(gctx, childPath, childRel)
			if err != nil {
				return err
			}
			if w.postDir != nil {
				if err := w.postDir(gctx, childPath, childRel); err != nil {
					return err
				}
			}
			results[i] = sub
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return slices.Concat(results...), nil
}

// walkSync is the sequential form of walk. The actions receive
// context.Background().
func (w *walker) walkSync(path, rel string) ([]string, error) {
	entries, err := listDir(w.fs, path, rel, w.filter)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, entry := range entries {
		childPath := filepath.Join(path, entry.Name)
		childRel := filepath.Join(rel, entry.Name)

		if !entry.IsDir {
			if w.leaf != nil {
				if err := w.leaf(context.Background(), childPath, childRel); err != nil {
					return nil, err
				}
			}
			out = append(out, childRel)
			continue
		}

		sub, err := w.walkSync(childPath, childRel)
		if err != nil {
			return nil, err
		}
		if w.postDir != nil {
			if err := w.postDir(context.Background(), childPath, childRel); err != nil {
				return nil, err
			}
		}
		out = append(out, sub...)
	}
	return out, nil
}
