package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/taigrr/sitefs/internal/config"
	"github.com/taigrr/sitefs/internal/filesystem"
	"github.com/taigrr/sitefs/internal/types"
)

// handlers serves the MCP tools from a Service confined to its root.
type handlers struct {
	svc *filesystem.Service
}

func toolError[Out any](err error) (*mcp.CallToolResult, Out, error) {
	var out Out
	return &mcp.CallToolResult{IsError: true}, out, err
}

func (f FilterInput) filter() (*types.FilterConfig, error) {
	ignoreHidden := !f.IncludeHidden
	cfg := config.Config{
		IgnoreHidden:  &ignoreHidden,
		IgnorePattern: f.IgnorePattern,
		IgnoreGlob:    f.IgnoreGlob,
		Exclude:       f.Exclude,
	}
	return cfg.FilterConfig()
}

// relative turns an absolute path below the root back into the slash
// separated form clients send.
func (h *handlers) relative(p string) string {
	rel, err := filepath.Rel(h.svc.Root(), p)
	if err != nil {
		return p
	}
	return filepath.ToSlash(rel)
}

func (h *handlers) exists(ctx context.Context, req *mcp.CallToolRequest, input PathInput) (*mcp.CallToolResult, ExistsOutput, error) {
	full, err := h.svc.ResolvePath(input.Path)
	if err != nil {
		return toolError[ExistsOutput](err)
	}
	ok, err := h.svc.Exists(ctx, full)
	if err != nil {
		return toolError[ExistsOutput](err)
	}
	return nil, ExistsOutput{Path: input.Path, Exists: ok}, nil
}

func (h *handlers) listDir(ctx context.Context, req *mcp.CallToolRequest, input TreeInput) (*mcp.CallToolResult, PathsOutput, error) {
	full, err := h.svc.ResolvePath(input.Path)
	if err != nil {
		return toolError[PathsOutput](err)
	}
	filter, err := input.Filter.filter()
	if err != nil {
		return toolError[PathsOutput](err)
	}
	paths, err := h.svc.ListDir(ctx, full, filter)
	if err != nil {
		return toolError[PathsOutput](err)
	}
	return nil, pathsOutput(input.Path, paths), nil
}

func (h *handlers) copyDir(ctx context.Context, req *mcp.CallToolRequest, input CopyDirInput) (*mcp.CallToolResult, PathsOutput, error) {
	src, err := h.svc.ResolvePath(input.Src)
	if err != nil {
		return toolError[PathsOutput](err)
	}
	dest, err := h.svc.ResolvePath(input.Dest)
	if err != nil {
		return toolError[PathsOutput](err)
	}
	if dest == src || strings.HasPrefix(dest, src+string(filepath.Separator)) {
		return toolError[PathsOutput](fmt.Errorf("dest %q is inside src %q", input.Dest, input.Src))
	}
	filter, err := input.Filter.filter()
	if err != nil {
		return toolError[PathsOutput](err)
	}
	paths, err := h.svc.CopyDir(ctx, src, dest, filter)
	if err != nil {
		return toolError[PathsOutput](err)
	}
	return nil, pathsOutput(input.Dest, paths), nil
}

func (h *handlers) emptyDir(ctx context.Context, req *mcp.CallToolRequest, input TreeInput) (*mcp.CallToolResult, PathsOutput, error) {
	full, err := h.svc.ResolvePath(input.Path)
	if err != nil {
		return toolError[PathsOutput](err)
	}
	filter, err := input.Filter.filter()
	if err != nil {
		return toolError[PathsOutput](err)
	}
	paths, err := h.svc.EmptyDir(ctx, full, filter)
	if err != nil {
		return toolError[PathsOutput](err)
	}
	return nil, pathsOutput(input.Path, paths), nil
}

func (h *handlers) removeDir(ctx context.Context, req *mcp.CallToolRequest, input PathInput) (*mcp.CallToolResult, SuccessOutput, error) {
	full, err := h.svc.ResolvePath(input.Path)
	if err != nil {
		return toolError[SuccessOutput](err)
	}
	if full == h.svc.Root() {
		return toolError[SuccessOutput](fmt.Errorf("refusing to remove the served root"))
	}
	if err := h.svc.Rmdir(ctx, full); err != nil {
		return toolError[SuccessOutput](err)
	}
	return nil, SuccessOutput{Success: true, Path: input.Path}, nil
}

func (h *handlers) readFile(ctx context.Context, req *mcp.CallToolRequest, input ReadFileInput) (*mcp.CallToolResult, ReadFileOutput, error) {
	full, err := h.svc.ResolvePath(input.Path)
	if err != nil {
		return toolError[ReadFileOutput](err)
	}
	text, err := h.svc.ReadFile(ctx, full, &types.ReadOptions{Encoding: input.Encoding, Raw: input.Raw})
	if err != nil {
		return toolError[ReadFileOutput](err)
	}

	lines := strings.Split(text, "\n")
	totalLines := len(lines)

	offset := max(input.Offset, 0)
	if offset >= totalLines {
		return nil, ReadFileOutput{TotalLines: totalLines, Truncated: true}, nil
	}

	limit := input.Limit
	if limit <= 0 {
		limit = totalLines
	}
	end := min(offset+limit, totalLines)

	return nil, ReadFileOutput{
		Content:    strings.Join(lines[offset:end], "\n"),
		TotalLines: totalLines,
		Truncated:  end < totalLines,
	}, nil
}

func (h *handlers) writeFile(ctx context.Context, req *mcp.CallToolRequest, input WriteFileInput) (*mcp.CallToolResult, SuccessOutput, error) {
	full, err := h.svc.ResolvePath(input.Path)
	if err != nil {
		return toolError[SuccessOutput](err)
	}
	if input.Append {
		err = h.svc.AppendFile(ctx, full, []byte(input.Content), nil)
	} else {
		err = h.svc.WriteFile(ctx, full, []byte(input.Content), nil)
	}
	if err != nil {
		return &mcp.CallToolResult{IsError: true}, SuccessOutput{Success: false, Path: input.Path}, err
	}
	return nil, SuccessOutput{Success: true, Path: input.Path}, nil
}

func (h *handlers) ensurePath(ctx context.Context, req *mcp.CallToolRequest, input PathInput) (*mcp.CallToolResult, EnsurePathOutput, error) {
	full, err := h.svc.ResolvePath(input.Path)
	if err != nil {
		return toolError[EnsurePathOutput](err)
	}
	unused, err := h.svc.EnsurePath(ctx, full)
	if err != nil {
		return toolError[EnsurePathOutput](err)
	}
	return nil, EnsurePathOutput{Path: h.relative(unused)}, nil
}

func (h *handlers) mkdirs(ctx context.Context, req *mcp.CallToolRequest, input PathInput) (*mcp.CallToolResult, SuccessOutput, error) {
	full, err := h.svc.ResolvePath(input.Path)
	if err != nil {
		return toolError[SuccessOutput](err)
	}
	if err := h.svc.Mkdirs(ctx, full); err != nil {
		return toolError[SuccessOutput](err)
	}
	return nil, SuccessOutput{Success: true, Path: input.Path}, nil
}

func pathsOutput(root string, paths []string) PathsOutput {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.ToSlash(p)
	}
	return PathsOutput{Path: root, Paths: out, Count: len(out)}
}
