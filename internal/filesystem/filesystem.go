// Package filesystem provides the sitefs file operations. Every operation
// comes in a context form, which fans out over directory trees and honours
// cancellation, and a Sync form, which runs sequentially.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/taigrr/sitefs/internal/fsys"
	"github.com/taigrr/sitefs/internal/logging"
	"github.com/taigrr/sitefs/internal/telemetry"
	"github.com/taigrr/sitefs/internal/types"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Service provides file operations over an fsys.FS.
type Service struct {
	fs          fsys.FS
	root        string
	logger      logging.Logger
	concurrency int
}

// Option configures a Service.
type Option func(*Service)

// WithFS replaces the host filesystem, typically with an fsys.Fake.
func WithFS(fs fsys.FS) Option {
	return func(s *Service) { s.fs = fs }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger logging.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithConcurrency bounds the fan-out of each directory level. Values below
// one keep the default.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// DefaultConcurrency is the per-level fan-out used unless WithConcurrency
// says otherwise.
func DefaultConcurrency() int {
	return runtime.GOMAXPROCS(0) * 4
}

// New creates a Service. root only bounds ResolvePath; the operations
// themselves accept any path.
func New(root string, opts ...Option) *Service {
	absPath, _ := filepath.Abs(root)
	s := &Service{
		fs:          fsys.OSFS{},
		root:        absPath,
		logger:      logging.NewNullLogger(),
		concurrency: DefaultConcurrency(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the absolute root directory.
func (s *Service) Root() string {
	return s.root
}

// ResolvePath resolves a path relative to the root and rejects anything
// that would escape it.
func (s *Service) ResolvePath(relativePath string) (string, error) {
	relativePath = strings.TrimSpace(relativePath)
	normalizedPath := strings.TrimPrefix(relativePath, "/")

	fullPath := filepath.Join(s.root, normalizedPath)
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", err
	}

	// Security check: ensure path is within root
	relPath, err := filepath.Rel(s.root, absPath)
	if err != nil {
		return "", err
	}
	if relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal not allowed: %s", relativePath)
	}

	return absPath, nil
}

// record logs the outcome of an operation and counts it.
func (s *Service) record(ctx context.Context, op, path string, start time.Time, entries int, err error) {
	elapsed := time.Since(start)
	telemetry.RecordOp(ctx, op, entries, elapsed, err)
	if err != nil {
		s.logger.Error("%s %s: %v", op, path, err)
		return
	}
	if entries > 0 {
		s.logger.Verbose("%s %s: %d entries in %s", op, path, entries, elapsed)
		return
	}
	s.logger.Verbose("%s %s in %s", op, path, elapsed)
}

func perm(opts *types.WriteOptions) fs.FileMode {
	if opts == nil || opts.Perm == 0 {
		return filePerm
	}
	return opts.Perm
}

// Exists reports whether p exists. A missing path is not an error.
func (s *Service) Exists(ctx context.Context, p string) (ok bool, err error) {
	if p == "" {
		return false, missing("path")
	}
	defer func(start time.Time) { s.record(ctx, "exists", p, start, 0, err) }(time.Now())
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return s.exists(p)
}

// ExistsSync is the sequential form of Exists.
func (s *Service) ExistsSync(p string) (ok bool, err error) {
	if p == "" {
		return false, missing("path")
	}
	defer func(start time.Time) { s.record(context.Background(), "exists", p, start, 0, err) }(time.Now())
	return s.exists(p)
}

func (s *Service) exists(p string) (bool, error) {
	if _, err := s.fs.Stat(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, wrap("stat", p, err)
	}
	return true, nil
}

// Mkdirs creates p and any missing parents. An existing directory is
// success.
func (s *Service) Mkdirs(ctx context.Context, p string) (err error) {
	if p == "" {
		return missing("path")
	}
	defer func(start time.Time) { s.record(ctx, "mkdirs", p, start, 0, err) }(time.Now())
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.mkdirs(p)
}

// MkdirsSync is the sequential form of Mkdirs.
func (s *Service) MkdirsSync(p string) (err error) {
	if p == "" {
		return missing("path")
	}
	defer func(start time.Time) { s.record(context.Background(), "mkdirs", p, start, 0, err) }(time.Now())
	return s.mkdirs(p)
}

func (s *Service) mkdirs(p string) error {
	err := s.fs.MkdirAll(p, dirPerm)
	if errors.Is(err, fs.ErrExist) {
		// Another writer may have created it first; only a directory counts.
		if info, statErr := s.fs.Stat(p); statErr == nil && info.IsDir() {
			return nil
		}
	}
	return wrap("mkdir", p, err)
}

// WriteFile writes data to p, creating p's parent directories first. Nil
// data writes an empty file.
func (s *Service) WriteFile(ctx context.Context, p string, data []byte, opts *types.WriteOptions) (err error) {
	if p == "" {
		return missing("path")
	}
	defer func(start time.Time) { s.record(ctx, "write_file", p, start, 0, err) }(time.Now())
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.writeFile(p, data, perm(opts), false)
}

// WriteFileSync is the sequential form of WriteFile.
func (s *Service) WriteFileSync(p string, data []byte, opts *types.WriteOptions) (err error) {
	if p == "" {
		return missing("path")
	}
	defer func(start time.Time) { s.record(context.Background(), "write_file", p, start, 0, err) }(time.Now())
	return s.writeFile(p, data, perm(opts), false)
}

// AppendFile appends data to p, creating p and its parents if needed.
func (s *Service) AppendFile(ctx context.Context, p string, data []byte, opts *types.WriteOptions) (err error) {
	if p == "" {
		return missing("path")
	}
	defer func(start time.Time) { s.record(ctx, "append_file", p, start, 0, err) }(time.Now())
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.writeFile(p, data, perm(opts), true)
}

// AppendFileSync is the sequential form of AppendFile.
func (s *Service) AppendFileSync(p string, data []byte, opts *types.WriteOptions) (err error) {
	if p == "" {
		return missing("path")
	}
	defer func(start time.Time) { s.record(context.Background(), "append_file", p, start, 0, err) }(time.Now())
	return s.writeFile(p, data, perm(opts), true)
}

func (s *Service) writeFile(p string, data []byte, mode fs.FileMode, appendTo bool) error {
	dir := filepath.Dir(p)
	if err := s.fs.MkdirAll(dir, dirPerm); err != nil {
		return wrap("mkdir", dir, err)
	}
	if data == nil {
		data = []byte{}
	}
	if appendTo {
		return wrap("append", p, s.fs.AppendFile(p, data, mode))
	}
	return wrap("write", p, s.fs.WriteFile(p, data, mode))
}

// CopyFile copies src to dest, creating dest's parent directories first.
func (s *Service) CopyFile(ctx context.Context, src, dest string) (err error) {
	if src == "" {
		return missing("src")
	}
	if dest == "" {
		return missing("dest")
	}
	defer func(start time.Time) { s.record(ctx, "copy_file", src, start, 0, err) }(time.Now())
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.copyFile(src, dest)
}

// CopyFileSync is the sequential form of CopyFile.
func (s *Service) CopyFileSync(src, dest string) (err error) {
	if src == "" {
		return missing("src")
	}
	if dest == "" {
		return missing("dest")
	}
	defer func(start time.Time) { s.record(context.Background(), "copy_file", src, start, 0, err) }(time.Now())
	return s.copyFile(src, dest)
}

func (s *Service) copyFile(src, dest string) error {
	dir := filepath.Dir(dest)
	if err := s.fs.MkdirAll(dir, dirPerm); err != nil {
		return wrap("mkdir", dir, err)
	}
	return wrap("copy", src, s.fs.CopyFile(src, dest))
}

// Unlink removes the file at p.
func (s *Service) Unlink(ctx context.Context, p string) (err error) {
	if p == "" {
		return missing("path")
	}
	defer func(start time.Time) { s.record(ctx, "unlink", p, start, 0, err) }(time.Now())
	if err := ctx.Err(); err != nil {
		return err
	}
	return wrap("unlink", p, s.fs.Remove(p))
}

// UnlinkSync is the sequential form of Unlink.
func (s *Service) UnlinkSync(p string) (err error) {
	if p == "" {
		return missing("path")
	}
	defer func(start time.Time) { s.record(context.Background(), "unlink", p, start, 0, err) }(time.Now())
	return wrap("unlink", p, s.fs.Remove(p))
}
