// Package vfs supplies the filesystem collaborator consumed by the search
// engine: candidate file enumeration under a root, and per-file byte
// access. The engine never touches the OS filesystem directly, which keeps
// every scan path testable against stub services.
package vfs

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/litgrep/internal/debug"
	"github.com/standardbeagle/litgrep/pkg/pathutil"
)

// ListOptions controls candidate enumeration.
type ListOptions struct {
	// IncludeHidden scans entries whose name starts with ".". When false,
	// a hidden directory excludes its entire subtree.
	IncludeHidden bool

	// Filters is a whitelist of doublestar globs matched against the
	// slash-normalized path relative to the root. Empty means all files.
	Filters []string

	// Exclude removes matching candidates after Filters are applied.
	Exclude []string
}

// FileService is the filesystem contract the engine consumes.
type FileService interface {
	// ListFiles enumerates candidate regular files under root in
	// walk order, honoring hidden-file and glob filtering.
	ListFiles(ctx context.Context, root string, opts ListOptions) ([]string, error)

	// Open returns a sequential, forward-only byte stream for path.
	Open(path string) (io.ReadCloser, error)

	// ReadFile reads the whole file into a buffer (small-file fast path).
	ReadFile(path string) ([]byte, error)

	// Stat returns file metadata (size, mtime).
	Stat(path string) (fs.FileInfo, error)
}

// OSFileService implements FileService against the operating system.
type OSFileService struct{}

// NewOSFileService creates the production file service.
func NewOSFileService() *OSFileService {
	return &OSFileService{}
}

// ListFiles walks root and returns every regular file that survives the
// hidden-entry rule and the glob filters. Unreadable entries are skipped,
// not fatal: a candidate list should degrade, never abort.
func (s *OSFileService) ListFiles(ctx context.Context, root string, opts ListOptions) ([]string, error) {
	var out []string

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if walkErr != nil {
			debug.LogWalk("skipping %s: %v\n", p, walkErr)
			return nil
		}
		if p == root {
			return nil
		}

		name := d.Name()
		if !opts.IncludeHidden && strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return nil
		}
		rel = pathutil.ToSlash(rel)

		if !MatchesFilters(rel, opts.Filters) {
			return nil
		}
		if MatchesAny(rel, opts.Exclude) {
			return nil
		}

		out = append(out, p)
		return nil
	})
	if err != nil {
		return nil, err
	}

	debug.LogWalk("found %d candidate files under %s\n", len(out), root)
	return out, nil
}

// Open returns a sequential byte stream for path.
func (s *OSFileService) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// ReadFile reads the whole file into memory.
func (s *OSFileService) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Stat returns file metadata.
func (s *OSFileService) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// MatchesFilters reports whether rel matches the whitelist. An empty
// whitelist admits everything. Bare patterns without a separator (e.g.
// "*.go") also match against the basename, mirroring gitignore intuition.
func MatchesFilters(rel string, filters []string) bool {
	if len(filters) == 0 {
		return true
	}
	return MatchesAny(rel, filters)
}

// MatchesAny reports whether rel matches any of the doublestar globs.
func MatchesAny(rel string, globs []string) bool {
	for _, g := range globs {
		if ok, err := doublestar.Match(g, rel); err == nil && ok {
			return true
		}
		if !strings.Contains(g, "/") {
			if ok, err := doublestar.Match(g, path.Base(rel)); err == nil && ok {
				return true
			}
		}
	}
	return false
}
