package filesystem

import (
	"context"
	"time"

	"github.com/taigrr/sitefs/internal/content"
	"github.com/taigrr/sitefs/internal/types"
)

// ReadFile reads p as text. Unless opts.Raw is set, a leading byte order
// mark is dropped and CRLF line endings become LF.
func (s *Service) ReadFile(ctx context.Context, p string, opts *types.ReadOptions) (text string, err error) {
	if p == "" {
		return "", missing("path")
	}
	defer func(start time.Time) { s.record(ctx, "read_file", p, start, 0, err) }(time.Now())
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.readFile(p, opts)
}

// ReadFileSync is the sequential form of ReadFile.
func (s *Service) ReadFileSync(p string, opts *types.ReadOptions) (text string, err error) {
	if p == "" {
		return "", missing("path")
	}
	defer func(start time.Time) { s.record(context.Background(), "read_file", p, start, 0, err) }(time.Now())
	return s.readFile(p, opts)
}

func (s *Service) readFile(p string, opts *types.ReadOptions) (string, error) {
	if opts == nil {
		opts = &types.ReadOptions{}
	}

	data, err := s.fs.ReadFile(p)
	if err != nil {
		return "", wrap("read", p, err)
	}
	text, err := content.Decode(data, opts.Encoding)
	if err != nil {
		return "", wrap("decode", p, err)
	}
	if opts.Raw {
		return text, nil
	}
	return content.Normalize(text), nil
}
