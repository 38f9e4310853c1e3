package main

import "github.com/modelcontextprotocol/go-sdk/mcp"

type (
	// PathInput names a single path below the served root.
	PathInput struct {
		Path string `json:"path" jsonschema:"Path relative to the served root"`
	}

	// FilterInput selects which entries a traversal visits.
	FilterInput struct {
		IncludeHidden bool     `json:"includeHidden,omitempty" jsonschema:"Visit hidden entries (default: false)"`
		IgnorePattern string   `json:"ignorePattern,omitempty" jsonschema:"Skip entries whose name matches this regular expression"`
		IgnoreGlob    string   `json:"ignoreGlob,omitempty" jsonschema:"Skip entries whose name matches this glob"`
		Exclude       []string `json:"exclude,omitempty" jsonschema:"Paths relative to the traversal root to skip"`
	}

	// TreeInput contains parameters for list_dir and empty_dir.
	TreeInput struct {
		Path string `json:"path" jsonschema:"Directory relative to the served root"`
		Filter FilterInput `json:"filter,omitempty" jsonschema:"Which entries to visit"`
	}

	// CopyDirInput contains parameters for copy_dir.
	CopyDirInput struct {
		Src  string `json:"src" jsonschema:"Source directory relative to the served root"`
		Dest string `json:"dest" jsonschema:"Destination directory relative to the served root"`
		Filter FilterInput `json:"filter,omitempty" jsonschema:"Which entries to visit"`
	}

	// ExistsOutput reports whether a path exists.
	ExistsOutput struct {
		Path   string `json:"path"`
		Exists bool   `json:"exists"`
	}

	// PathsOutput lists the files a traversal visited, relative to its root.
	PathsOutput struct {
		Path  string   `json:"path"`
		Paths []string `json:"paths"`
		Count int      `json:"count"`
	}

	// ReadFileInput contains parameters for read_file.
	ReadFileInput struct {
		Path     string `json:"path" jsonschema:"File relative to the served root"`
		Encoding string `json:"encoding,omitempty" jsonschema:"Encoding label such as latin1 or utf-16le (default: utf-8)"`
		Raw      bool   `json:"raw,omitempty" jsonschema:"Keep the byte order mark and CRLF line endings"`
		Offset   int    `json:"offset,omitempty" jsonschema:"Line offset to start reading from (default: 0)"`
		Limit    int    `json:"limit,omitempty" jsonschema:"Maximum number of lines to return (default: all)"`
	}

	// ReadFileOutput contains the text of a file.
	ReadFileOutput struct {
		Content    string `json:"content"`
		TotalLines int    `json:"totalLines"`
		Truncated  bool   `json:"truncated,omitempty"`
	}

	// WriteFileInput contains parameters for write_file.
	WriteFileInput struct {
		Path    string `json:"path" jsonschema:"File relative to the served root"`
		Content string `json:"content" jsonschema:"Text to write"`
		Append  bool   `json:"append,omitempty" jsonschema:"Append instead of overwriting (default: false)"`
	}

	// SuccessOutput reports a completed write or removal.
	SuccessOutput struct {
		Success bool   `json:"success"`
		Path    string `json:"path"`
	}

	// EnsurePathOutput carries a path that is free to create.
	EnsurePathOutput struct {
		Path string `json:"path"`
	}
)

func registerTools(server *mcp.Server, h *handlers) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "exists",
		Description: "Report whether a file or directory exists.",
	}, h.exists)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_dir",
		Description: "List every file below a directory, relative to it. Hidden entries are skipped unless includeHidden=true.",
	}, h.listDir)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "copy_dir",
		Description: "Copy every file below src into dest, creating directories as needed. Returns the copied paths relative to src.",
	}, h.copyDir)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "empty_dir",
		Description: "Delete every file below a directory and prune subdirectories left empty. The directory itself and filtered entries are kept.",
	}, h.emptyDir)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "remove_dir",
		Description: "Remove a directory and everything in it. The served root cannot be removed.",
	}, h.removeDir)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "read_file",
		Description: "Read a text file. The byte order mark is dropped and CRLF becomes LF unless raw=true. Supports pagination with offset/limit.",
	}, h.readFile)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "write_file",
		Description: "Create, overwrite or append to a file, creating parent directories as needed.",
	}, h.writeFile)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ensure_path",
		Description: "Return the path unchanged if it is free, otherwise the next free numbered sibling such as name-2.ext.",
	}, h.ensurePath)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "mkdirs",
		Description: "Create a directory and any missing parents.",
	}, h.mkdirs)
}
