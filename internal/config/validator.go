package config

import (
	"fmt"
	"strconv"

	lgerrors "github.com/standardbeagle/litgrep/internal/errors"
)

// Validate checks that configuration values are within reasonable ranges.
// Extreme values are rejected up front rather than clamped silently so a
// broken config file is visible, not mysterious.
func (c *Config) Validate() error {
	if c.Version < 0 {
		return lgerrors.NewConfigError("version", strconv.Itoa(c.Version),
			fmt.Errorf("version must not be negative"))
	}
	if c.Search.ChunkSizeKB < 0 {
		return lgerrors.NewConfigError("search.chunk_size_kb", strconv.Itoa(c.Search.ChunkSizeKB),
			fmt.Errorf("chunk size must not be negative"))
	}
	if c.Search.ChunkSizeKB > 64*1024 {
		return lgerrors.NewConfigError("search.chunk_size_kb", strconv.Itoa(c.Search.ChunkSizeKB),
			fmt.Errorf("chunk size above 64 MiB defeats streaming"))
	}
	if c.Search.ContextLines < 0 {
		return lgerrors.NewConfigError("search.context_lines", strconv.Itoa(c.Search.ContextLines),
			fmt.Errorf("context lines must not be negative"))
	}
	if c.Search.MaxColumns < 0 {
		return lgerrors.NewConfigError("search.max_columns", strconv.Itoa(c.Search.MaxColumns),
			fmt.Errorf("max columns must not be negative"))
	}
	if c.Performance.Workers < 0 {
		return lgerrors.NewConfigError("performance.workers", strconv.Itoa(c.Performance.Workers),
			fmt.Errorf("worker count must not be negative"))
	}
	if c.Performance.Workers > 256 {
		return lgerrors.NewConfigError("performance.workers", strconv.Itoa(c.Performance.Workers),
			fmt.Errorf("worker count above 256 is not useful for I/O-bound scans"))
	}
	if c.Performance.WatchDebounce < 0 {
		return lgerrors.NewConfigError("performance.watch_debounce", strconv.Itoa(c.Performance.WatchDebounce),
			fmt.Errorf("watch debounce must not be negative"))
	}
	return nil
}
