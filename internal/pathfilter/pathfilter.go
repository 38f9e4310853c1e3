// Package pathfilter decides which directory entries a traversal includes.
package pathfilter

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/taigrr/sitefs/internal/types"
)

// PathFilter applies hidden, pattern and exclude rules to directory entries.
// A nil *PathFilter allows everything.
type PathFilter struct {
	ignoreHidden  bool
	ignorePattern *regexp.Regexp
	exclude       map[string]struct{}
}

// New creates a PathFilter from config. A nil config yields the default
// filter, which skips hidden entries only.
func New(config *types.FilterConfig) *PathFilter {
	if config == nil {
		config = types.DefaultFilterConfig()
	}

	pf := &PathFilter{
		ignoreHidden:  config.IgnoreHidden,
		ignorePattern: config.IgnorePattern,
	}

	if len(config.Exclude) > 0 {
		pf.exclude = make(map[string]struct{}, len(config.Exclude))
		for _, p := range config.Exclude {
			pf.exclude[normalize(p)] = struct{}{}
		}
	}

	return pf
}

// normalize rewrites an exclude entry to the platform separator so that
// "folder/i.js" also matches on Windows.
func normalize(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	return filepath.Clean(filepath.FromSlash(path))
}

// IsAllowed reports whether an entry called name, found at relativePath
// from the traversal root, passes every rule. Hidden and pattern rules look
// at the name; the exclude rule looks at the relative path.
func (pf *PathFilter) IsAllowed(name, relativePath string) bool {
	if pf == nil {
		return true
	}

	if pf.ignoreHidden && IsHidden(name) {
		return false
	}

	if pf.ignorePattern != nil && pf.ignorePattern.MatchString(name) {
		return false
	}

	if pf.exclude != nil {
		if _, ok := pf.exclude[relativePath]; ok {
			return false
		}
	}

	return true
}

// FilterEntries returns the entries of the directory at parent (relative to
// the traversal root) that pass the filter, preserving order.
func (pf *PathFilter) FilterEntries(entries []types.DirEntry, parent string) []types.DirEntry {
	if pf == nil {
		return entries
	}

	allowed := make([]types.DirEntry, 0, len(entries))
	for _, entry := range entries {
		if pf.IsAllowed(entry.Name, filepath.Join(parent, entry.Name)) {
			allowed = append(allowed, entry)
		}
	}
	return allowed
}

// IsHidden reports whether name starts with a dot.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// GlobToRegexp converts a glob pattern to an anchored regexp.
// "**" matches anything, "*" matches within one path segment and "?"
// matches a single non-separator character.
func GlobToRegexp(pattern string) (*regexp.Regexp, error) {
	// Normalize pattern path separators (Windows compatibility)
	normalizedPattern := strings.ReplaceAll(pattern, "\\", "/")

	// Escape all regex special chars first
	regexPattern := regexp.QuoteMeta(normalizedPattern)

	regexPattern = strings.ReplaceAll(regexPattern, `\*\*`, ".*")
	regexPattern = strings.ReplaceAll(regexPattern, `\*`, "[^/]*")
	regexPattern = strings.ReplaceAll(regexPattern, `\?`, "[^/]")

	return regexp.Compile("^" + regexPattern + "$")
}
