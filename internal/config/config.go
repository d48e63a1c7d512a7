package config

import (
	"errors"
	"io/fs"
	"os"
	"runtime"

	"github.com/pelletier/go-toml/v2"

	lgerrors "github.com/standardbeagle/litgrep/internal/errors"
	"github.com/standardbeagle/litgrep/internal/searchtypes"
)

// DefaultConfigName is the config file looked up at the search root.
const DefaultConfigName = ".litgrep.toml"

// Config is the on-disk configuration. CLI flags override anything set
// here; the file only supplies persistent defaults.
type Config struct {
	Version     int         `toml:"version"`
	Project     Project     `toml:"project"`
	Search      Search      `toml:"search"`
	Performance Performance `toml:"performance"`
	Include     []string    `toml:"include"`
	Exclude     []string    `toml:"exclude"`
}

type Project struct {
	Root string `toml:"root"`
	Name string `toml:"name"`
}

type Search struct {
	ChunkSizeKB   int  `toml:"chunk_size_kb"`  // 0 = engine default (512 KiB)
	ContextLines  int  `toml:"context_lines"`  // default -A/-B when flags are absent
	MaxColumns    int  `toml:"max_columns"`    // 0 = unlimited preview width
	IncludeHidden bool `toml:"include_hidden"` // scan dot-files by default
}

type Performance struct {
	Workers       int `toml:"workers"`        // 0 = auto-detect (GOMAXPROCS, capped)
	WatchDebounce int `toml:"watch_debounce"` // milliseconds between watch re-runs
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version: 1,
		Performance: Performance{
			Workers:       0, // auto
			WatchDebounce: 250,
		},
	}
}

// Load reads the config file at path. A missing file is not an error;
// the defaults are returned so litgrep works without any setup.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, lgerrors.NewConfigError("file", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, lgerrors.NewConfigError("file", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyDefaults fills unset search options from the config. Explicitly
// set options always win.
func (c *Config) ApplyDefaults(opts *searchtypes.Options) {
	if opts.ChunkSize == 0 && c.Search.ChunkSizeKB > 0 {
		opts.ChunkSize = c.Search.ChunkSizeKB * 1024
	}
	if opts.ContextBefore == 0 && opts.ContextAfter == 0 && c.Search.ContextLines > 0 {
		opts.ContextBefore = c.Search.ContextLines
		opts.ContextAfter = c.Search.ContextLines
	}
	if opts.MaxColumns == 0 && c.Search.MaxColumns > 0 {
		opts.MaxColumns = c.Search.MaxColumns
	}
	if !opts.IncludeHidden && c.Search.IncludeHidden {
		opts.IncludeHidden = true
	}
	if opts.Workers == 0 && c.Performance.Workers > 0 {
		opts.Workers = c.Performance.Workers
	}
	if len(opts.PathFilters) == 0 && len(c.Include) > 0 {
		opts.PathFilters = append([]string(nil), c.Include...)
	}
	if len(c.Exclude) > 0 {
		opts.Exclude = append(opts.Exclude, c.Exclude...)
	}
}

// EffectiveWorkers resolves the configured worker count for display.
func (c *Config) EffectiveWorkers() int {
	if c.Performance.Workers > 0 {
		return c.Performance.Workers
	}
	return runtime.GOMAXPROCS(0)
}
