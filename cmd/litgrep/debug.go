package main

import (
	"fmt"
	"os"

	"github.com/standardbeagle/litgrep/internal/debug"
)

// setupDebugLog routes debug output to a timestamped file under the
// system temp directory and announces its location on stderr.
func setupDebugLog() error {
	debug.EnableDebug = "true"
	path, err := debug.InitDebugLogFile()
	if err != nil {
		return fmt.Errorf("failed to initialize debug log: %w", err)
	}
	fmt.Fprintf(os.Stderr, "litgrep: debug log at %s\n", path)
	return nil
}
