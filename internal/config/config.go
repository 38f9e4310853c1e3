// Package config loads sitefs settings from a YAML or TOML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/taigrr/sitefs/internal/fsys"
	"github.com/taigrr/sitefs/internal/pathfilter"
	"github.com/taigrr/sitefs/internal/types"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

// Format is a config file syntax.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// Config holds the settings a config file may set. Zero values mean
// "not set"; command-line flags override whatever is present.
type Config struct {
	IgnoreHidden  *bool    `yaml:"ignore_hidden,omitempty" toml:"ignore_hidden,omitempty"` // default true
	IgnorePattern string   `yaml:"ignore_pattern,omitempty" toml:"ignore_pattern,omitempty"`
	IgnoreGlob    string   `yaml:"ignore_glob,omitempty" toml:"ignore_glob,omitempty"`
	Exclude       []string `yaml:"exclude,omitempty" toml:"exclude,omitempty"`
	Concurrency   int      `yaml:"concurrency,omitempty" toml:"concurrency,omitempty"`
	Verbose       bool     `yaml:"verbose,omitempty" toml:"verbose,omitempty"`
}

// FormatOf picks the syntax from the file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unsupported config format %q (want .yaml, .yml or .toml)", filepath.Ext(path))
	}
}

// Load reads and parses the config file at path. All file I/O goes through
// fs.
func Load(fs fsys.FS, path string) (*Config, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("loading config %q: %w", path, err)
	}
	return Parse(data, format)
}

// Parse decodes data in the given format and validates it.
func Parse(data []byte, format Format) (*Config, error) {
	var cfg Config
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		// An empty document leaves cfg at its zero value.
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("parsing config: unknown key %q", undecoded[0].String())
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that decode cleanly but cannot be used.
func (c *Config) Validate() error {
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative, got %d", c.Concurrency)
	}
	if _, err := c.ignoreRegexp(); err != nil {
		return err
	}
	return nil
}

// ignoreRegexp merges ignore_pattern and ignore_glob into one expression.
func (c *Config) ignoreRegexp() (*regexp.Regexp, error) {
	var parts []string
	if c.IgnorePattern != "" {
		if _, err := regexp.Compile(c.IgnorePattern); err != nil {
			return nil, fmt.Errorf("invalid ignore_pattern: %w", err)
		}
		parts = append(parts, c.IgnorePattern)
	}
	if c.IgnoreGlob != "" {
		re, err := pathfilter.GlobToRegexp(c.IgnoreGlob)
		if err != nil {
			return nil, fmt.Errorf("invalid ignore_glob: %w", err)
		}
		parts = append(parts, re.String())
	}

	switch len(parts) {
	case 0:
		return nil, nil
	case 1:
		return regexp.Compile(parts[0])
	default:
		return regexp.Compile("(?:" + strings.Join(parts, ")|(?:") + ")")
	}
}

// FilterConfig compiles the filter settings. A nil Config yields the
// default filter.
func (c *Config) FilterConfig() (*types.FilterConfig, error) {
	fc := types.DefaultFilterConfig()
	if c == nil {
		return fc, nil
	}
	if c.IgnoreHidden != nil {
		fc.IgnoreHidden = *c.IgnoreHidden
	}
	re, err := c.ignoreRegexp()
	if err != nil {
		return nil, err
	}
	fc.IgnorePattern = re
	fc.Exclude = append([]string(nil), c.Exclude...)
	return fc, nil
}
