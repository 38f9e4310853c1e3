package filesystem

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/taigrr/sitefs/internal/types"
)

// EnsurePath returns p if nothing exists there, otherwise the first
// sibling name of the form base-N.ext that is free. N is one more than the
// highest suffix already in use; an unsuffixed name counts as zero.
func (s *Service) EnsurePath(ctx context.Context, p string) (unused string, err error) {
	if p == "" {
		return "", missing("path")
	}
	defer func(start time.Time) { s.record(ctx, "ensure_path", p, start, 0, err) }(time.Now())
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.ensurePath(p)
}

// EnsurePathSync is the sequential form of EnsurePath.
func (s *Service) EnsurePathSync(p string) (unused string, err error) {
	if p == "" {
		return "", missing("path")
	}
	defer func(start time.Time) { s.record(context.Background(), "ensure_path", p, start, 0, err) }(time.Now())
	return s.ensurePath(p)
}

func (s *Service) ensurePath(p string) (string, error) {
	ok, err := s.exists(p)
	if err != nil {
		return "", err
	}
	if !ok {
		return p, nil
	}

	entries, err := readEntries(s.fs, filepath.Dir(p))
	if err != nil {
		return "", err
	}
	names := make([]string, len(entries))
	for i, entry := range entries {
		names[i] = entry.Name
	}
	return findUnusedPath(p, names), nil
}

// splitExt splits name into base and extension. A dotfile with no other
// dot, such as ".gitignore", has no extension.
func splitExt(name string) (base, ext string) {
	ext = filepath.Ext(name)
	if ext == name {
		ext = ""
	}
	return strings.TrimSuffix(name, ext), ext
}

// findUnusedPath picks the next free numbered sibling of p given the names
// already present in its directory.
func findUnusedPath(p string, names []string) string {
	dir := filepath.Dir(p)
	base, ext := splitExt(filepath.Base(p))
	re := regexp.MustCompile("^" + regexp.QuoteMeta(base) + `(?:-(\d+))?` + regexp.QuoteMeta(ext) + "$")

	highest := -1
	for _, name := range names {
		m := re.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		n := 0
		if m[1] != "" {
			// Overlong suffixes fail to parse and count as zero.
			n, _ = strconv.Atoi(m[1])
		}
		highest = max(highest, n)
	}
	return filepath.Join(dir, base+"-"+strconv.Itoa(highest+1)+ext)
}

func streamFlags(opts *types.StreamOptions) (int, os.FileMode) {
	flag := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	mode := os.FileMode(filePerm)
	if opts != nil {
		if opts.Append {
			flag = os.O_WRONLY | os.O_CREATE | os.O_APPEND
		}
		if opts.Perm != 0 {
			mode = opts.Perm
		}
	}
	return flag, mode
}

// EnsureWriteStream creates p's parent directories and opens p for
// writing. The caller must close the returned writer.
func (s *Service) EnsureWriteStream(ctx context.Context, p string, opts *types.StreamOptions) (w io.WriteCloser, err error) {
	if p == "" {
		return nil, missing("path")
	}
	defer func(start time.Time) { s.record(ctx, "ensure_write_stream", p, start, 0, err) }(time.Now())
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.openStream(p, opts)
}

// EnsureWriteStreamSync is the sequential form of EnsureWriteStream.
func (s *Service) EnsureWriteStreamSync(p string, opts *types.StreamOptions) (w io.WriteCloser, err error) {
	if p == "" {
		return nil, missing("path")
	}
	defer func(start time.Time) { s.record(context.Background(), "ensure_write_stream", p, start, 0, err) }(time.Now())
	return s.openStream(p, opts)
}

func (s *Service) openStream(p string, opts *types.StreamOptions) (io.WriteCloser, error) {
	dir := filepath.Dir(p)
	if err := s.fs.MkdirAll(dir, dirPerm); err != nil {
		return nil, wrap("mkdir", dir, err)
	}
	flag, mode := streamFlags(opts)
	w, err := s.fs.OpenFile(p, flag, mode)
	if err != nil {
		return nil, wrap("open", p, err)
	}
	return w, nil
}
