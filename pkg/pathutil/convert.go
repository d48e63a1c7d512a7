// Package pathutil provides utilities for converting between absolute and relative paths.
//
// litgrep walks and scans with absolute paths internally for consistency,
// but user-facing output should use relative paths for readability and
// portability. This package provides the conversion layer between the two
// representations.
package pathutil

import (
	"path/filepath"
	"strings"

	"github.com/standardbeagle/litgrep/internal/searchtypes"
)

// ToRelative converts an absolute path to relative based on a root directory.
// Falls back to the original path if conversion fails or path is already relative.
//
// Examples:
//   - ToRelative("/home/user/project/src/main.go", "/home/user/project") → "src/main.go"
//   - ToRelative("/other/location/file.go", "/home/user/project") → "/other/location/file.go" (outside root)
//   - ToRelative("src/main.go", "/home/user/project") → "src/main.go" (already relative)
func ToRelative(absPath, rootDir string) string {
	if absPath == "" || rootDir == "" {
		return absPath
	}

	if !filepath.IsAbs(absPath) {
		return absPath
	}

	absPath = filepath.Clean(absPath)
	rootDir = filepath.Clean(rootDir)

	relPath, err := filepath.Rel(rootDir, absPath)
	if err != nil {
		// Conversion failed (e.g., different drives on Windows) - return absolute
		return absPath
	}

	// A ".." prefix means the file is outside the root; the absolute path
	// is clearer in that case.
	if strings.HasPrefix(relPath, "..") {
		return absPath
	}

	return relPath
}

// ToRelativeMatches converts paths in a Match slice from absolute to relative.
// Creates a new slice without modifying the original results.
//
// Designed for use at output boundaries where results are displayed:
//   - CLI output
//   - JSON serialization
func ToRelativeMatches(matches []searchtypes.Match, rootDir string) []searchtypes.Match {
	if len(matches) == 0 {
		return matches
	}

	converted := make([]searchtypes.Match, len(matches))
	copy(converted, matches)

	for i := range converted {
		converted[i].Path = ToRelative(converted[i].Path, rootDir)
	}

	return converted
}

// ToSlash normalizes a relative path to forward slashes for glob matching.
func ToSlash(path string) string {
	return filepath.ToSlash(path)
}
