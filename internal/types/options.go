package types

import (
	"os"
	"time"
)

type (
	// WriteOptions configures WriteFile and AppendFile.
	WriteOptions struct {
		Perm os.FileMode `json:"perm,omitempty"` // default 0o644
	}

	// ReadOptions configures ReadFile.
	ReadOptions struct {
		Encoding string `json:"encoding,omitempty"` // htmlindex name, default utf-8
		Raw      bool   `json:"raw,omitempty"`      // skip BOM stripping and CRLF normalization
	}

	// StreamOptions configures EnsureWriteStream.
	StreamOptions struct {
		Append bool        `json:"append,omitempty"`
		Perm   os.FileMode `json:"perm,omitempty"` // default 0o644
	}

	// WatchOptions configures Watch.
	WatchOptions struct {
		Filter        *FilterConfig // nil watches everything
		DebounceDelay time.Duration // coalescing window for writes, default 100ms
		EmitInitial   bool          // replay existing files as add events before returning
	}
)
