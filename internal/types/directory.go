// Package types defines the data structures shared across sitefs.
package types

import "regexp"

type (
	// DirEntry is one immediate child of a directory.
	DirEntry struct {
		Name  string `json:"name"`
		IsDir bool   `json:"isDir"`
	}

	// FilterConfig controls which entries a traversal includes.
	// The traversal root itself is never filtered.
	FilterConfig struct {
		IgnoreHidden  bool           `json:"ignoreHidden"`
		IgnorePattern *regexp.Regexp `json:"-"`
		Exclude       []string       `json:"exclude,omitempty"` // relative paths from the traversal root
	}
)

// DefaultFilterConfig returns the filter used when a caller passes nil:
// hidden entries are skipped, nothing else is.
func DefaultFilterConfig() *FilterConfig {
	return &FilterConfig{IgnoreHidden: true}
}
