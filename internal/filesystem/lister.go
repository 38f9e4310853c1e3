package filesystem

import (
	"github.com/taigrr/sitefs/internal/fsys"
	"github.com/taigrr/sitefs/internal/pathfilter"
	"github.com/taigrr/sitefs/internal/types"
)

// readEntries lists the immediate children of path without filtering.
// Symbolic links keep their own type and are never reported as directories.
func readEntries(fs fsys.FS, path string) ([]types.DirEntry, error) {
	entries, err := fs.ReadDir(path)
	if err != nil {
		return nil, wrap("scandir", path, err)
	}

	out := make([]types.DirEntry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, types.DirEntry{
			Name:  entry.Name(),
			IsDir: entry.IsDir(),
		})
	}
	return out, nil
}

// listDir lists path and drops the entries filter rejects. rel is the
// position of path below the traversal root, empty at the root.
func listDir(fs fsys.FS, path, rel string, filter *pathfilter.PathFilter) ([]types.DirEntry, error) {
	entries, err := readEntries(fs, path)
	if err != nil {
		return nil, err
	}
	return filter.FilterEntries(entries, rel), nil
}
