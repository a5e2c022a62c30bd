package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/bamsammich/purge/internal/filter"
)

// Config represents the optional purge configuration file.
type Config struct {
	Defaults  DefaultsConfig  `toml:"defaults"`
	Whitelist WhitelistConfig `toml:"whitelist"`
	Swap      SwapConfig      `toml:"swap"`
	Theme     ThemeConfig     `toml:"theme"`
}

// DefaultsConfig holds persistent flag defaults.
type DefaultsConfig struct {
	Shred    *bool   `toml:"shred"`
	Verify   *bool   `toml:"verify"`
	SkipOpen *bool   `toml:"skip_open"`
	TUI      *bool   `toml:"tui"`
	BWLimit  *string `toml:"bwlimit"`
}

// WhitelistConfig lists paths that are never destroyed.
type WhitelistConfig struct {
	Paths []string `toml:"paths"`
	File  *string  `toml:"file"`
}

// SwapConfig tunes the swap wipe.
type SwapConfig struct {
	MaxSize *string `toml:"max_size"`
}

// ThemeConfig holds optional color overrides.
type ThemeConfig struct {
	Green  *string `toml:"green"`
	Blue   *string `toml:"blue"`
	Yellow *string `toml:"yellow"`
	Red    *string `toml:"red"`
	Teal   *string `toml:"teal"`
	Mauve  *string `toml:"mauve"`
	Muted  *string `toml:"muted"`
	Dim    *string `toml:"dim"`
	Bright *string `toml:"bright"`
}

// Path returns the resolved path to the config file.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "purge", "config.toml")
}

// Load reads the config file from the XDG path. Returns a zero Config
// (no error) if the file does not exist. Config is always optional.
func Load() (Config, error) {
	path := Path()
	if path == "" {
		return Config{}, nil
	}

	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%s: unknown key %s", path, undecoded[0])
	}
	return cfg, nil
}

// SwapMaxSize returns the configured swap size bound, or 0 when unset.
func (c Config) SwapMaxSize() (int64, error) {
	if c.Swap.MaxSize == nil {
		return 0, nil
	}
	n, err := filter.ParseSize(*c.Swap.MaxSize)
	if err != nil {
		return 0, fmt.Errorf("swap.max_size: %w", err)
	}
	return n, nil
}

// BuildWhitelist compiles the whitelist paths and file into extra, which
// may already hold rules from the command line. A leading ~/ expands to
// the home directory.
func (c Config) BuildWhitelist(extra *filter.Whitelist) (*filter.Whitelist, error) {
	w := extra
	if w == nil {
		w = filter.NewWhitelist()
	}
	for _, p := range c.Whitelist.Paths {
		if err := w.Keep(expandHome(p)); err != nil {
			return nil, fmt.Errorf("whitelist path %q: %w", p, err)
		}
	}
	if c.Whitelist.File != nil {
		if err := w.LoadFile(expandHome(*c.Whitelist.File)); err != nil {
			return nil, err
		}
	}
	return w, nil
}

func expandHome(p string) string {
	if !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	expanded := filepath.Join(home, p[2:])
	if strings.HasSuffix(p, "/") {
		expanded += "/"
	}
	return expanded
}
