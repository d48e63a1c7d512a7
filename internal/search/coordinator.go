package search

import (
	"bytes"
	"context"
	"errors"
	"runtime"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/litgrep/internal/debug"
	lgerrors "github.com/standardbeagle/litgrep/internal/errors"
	"github.com/standardbeagle/litgrep/internal/searchtypes"
	"github.com/standardbeagle/litgrep/internal/vfs"
)

// Result is the aggregate outcome of a batch search.
type Result struct {
	Matches  []searchtypes.Match
	Files    []searchtypes.FileResult
	Progress searchtypes.Progress
}

// Coordinator enumerates candidate files from the filesystem collaborator,
// fans per-file scan tasks out across a bounded worker pool, and
// aggregates or streams the results.
//
// Workers communicate by return value only; the aggregation goroutine is
// the sole writer of shared state, so the hot scanning path needs no
// locks. All per-search state is discarded when a call returns.
type Coordinator struct {
	fs   vfs.FileService
	root string

	mu           sync.Mutex
	onProgress   func(searchtypes.Progress)
	onFileResult func(searchtypes.FileResult)
}

// NewCoordinator creates a coordinator searching under root.
func NewCoordinator(fs vfs.FileService, root string) *Coordinator {
	return &Coordinator{fs: fs, root: root}
}

// OnProgress registers a callback invoked after each file completes with
// a monotonically increasing progress snapshot.
func (c *Coordinator) OnProgress(fn func(searchtypes.Progress)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onProgress = fn
}

// OnFileResult registers a callback invoked with every per-file outcome,
// including binary skips and I/O failures.
func (c *Coordinator) OnFileResult(fn func(searchtypes.FileResult)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onFileResult = fn
}

// Search runs a batch search and returns every match plus per-file
// outcomes. Option validation errors fail fast before any file is
// touched. On cancellation the accumulated partial result is returned.
// Within a file, matches are in ascending offset order; across files no
// ordering is guaranteed.
func (c *Coordinator) Search(ctx context.Context, opts searchtypes.Options) (*Result, error) {
	if err := validateOptions(opts); err != nil {
		return nil, err
	}

	res := &Result{}
	err := c.forEachResult(ctx, opts, func(fr searchtypes.FileResult, progress searchtypes.Progress) {
		res.Files = append(res.Files, fr)
		res.Matches = append(res.Matches, fr.Matches...)
		res.Progress = progress
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// SearchStream runs the same per-file work as Search but yields matches
// incrementally as each file's scan completes. The returned channel is
// finite, forward-only, and closed when the search finishes or the
// context is cancelled. A consumer that stops reading backpressures the
// workers; in-flight scans still run to completion.
func (c *Coordinator) SearchStream(ctx context.Context, opts searchtypes.Options) (<-chan searchtypes.Match, error) {
	if err := validateOptions(opts); err != nil {
		return nil, err
	}

	out := make(chan searchtypes.Match, streamBuffer)
	go func() {
		defer close(out)
		_ = c.forEachResult(ctx, opts, func(fr searchtypes.FileResult, _ searchtypes.Progress) {
			for _, m := range fr.Matches {
				select {
				case out <- m:
				case <-ctx.Done():
					return
				}
			}
		})
	}()
	return out, nil
}

// forEachResult enumerates candidates, runs the worker pool, and invokes
// handle from a single goroutine for every completed file. Progress
// counters are owned here.
func (c *Coordinator) forEachResult(ctx context.Context, opts searchtypes.Options, handle func(searchtypes.FileResult, searchtypes.Progress)) error {
	paths, err := c.fs.ListFiles(ctx, c.root, vfs.ListOptions{
		IncludeHidden: opts.IncludeHidden,
		Filters:       opts.PathFilters,
		Exclude:       opts.Exclude,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return lgerrors.NewSearchError(opts.Pattern, err)
	}

	debug.LogSearch("scanning %d files with pattern %q\n", len(paths), opts.Pattern)

	workers := effectiveWorkers(opts.Workers)
	tasks := make(chan string)
	results := make(chan searchtypes.FileResult, workers)

	g, gctx := errgroup.WithContext(ctx)

	// Feeder: dispatches no new tasks once cancelled.
	g.Go(func() error {
		defer close(tasks)
		for _, p := range paths {
			select {
			case tasks <- p:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	// Workers: a dispatched scan always runs to completion; cancellation
	// is observed between files, never mid-chunk.
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for path := range tasks {
				fr := c.scanPath(path, opts)
				select {
				case results <- fr:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	go func() {
		_ = g.Wait()
		close(results)
	}()

	var progress searchtypes.Progress
	for fr := range results {
		if ctx.Err() != nil {
			continue // drain without yielding further results
		}
		progress.FilesScanned++
		progress.MatchesFound += fr.MatchCount
		c.notify(fr, progress)
		handle(fr, progress)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return lgerrors.NewSearchError(opts.Pattern, err)
	}
	return nil
}

func (c *Coordinator) notify(fr searchtypes.FileResult, progress searchtypes.Progress) {
	c.mu.Lock()
	onProgress, onFileResult := c.onProgress, c.onFileResult
	c.mu.Unlock()

	if onFileResult != nil {
		onFileResult(fr)
	}
	if onProgress != nil {
		onProgress(progress)
	}
}

// scanPath opens one candidate and scans it. Small files take the
// whole-buffer fast path; anything larger streams through the chunk
// reader. Open failures surface on the file's result, never as a batch
// error.
func (c *Coordinator) scanPath(path string, opts searchtypes.Options) searchtypes.FileResult {
	chunkSize := effectiveChunkSize(opts.ChunkSize, len(opts.Pattern))

	if info, err := c.fs.Stat(path); err == nil && info.Size() <= int64(chunkSize) {
		if buf, rerr := c.fs.ReadFile(path); rerr == nil {
			return scanFile(path, bytes.NewReader(buf), opts)
		}
		// Fall through to the streaming path; it will surface the error.
	}

	rc, err := c.fs.Open(path)
	if err != nil {
		return searchtypes.FileResult{
			Path: path,
			Err:  lgerrors.NewFileError("open", path, err),
		}
	}
	defer func() { _ = rc.Close() }()

	return scanFile(path, rc, opts)
}

// effectiveWorkers resolves the worker pool size.
func effectiveWorkers(requested int) int {
	if requested > 0 {
		return requested
	}
	n := runtime.GOMAXPROCS(0)
	if n > defaultMaxWorkers {
		n = defaultMaxWorkers
	}
	if n < 1 {
		n = 1
	}
	return n
}

// validateOptions rejects invalid queries before any file is touched.
func validateOptions(opts searchtypes.Options) error {
	if len(opts.Pattern) == 0 {
		return lgerrors.NewOptionsError("pattern", "", "pattern must not be empty")
	}
	if opts.ChunkSize < 0 {
		return lgerrors.NewOptionsError("chunk_size", strconv.Itoa(opts.ChunkSize), "chunk size must not be negative")
	}
	if opts.ContextBefore < 0 || opts.ContextAfter < 0 {
		return lgerrors.NewOptionsError("context", "", "context line counts must not be negative")
	}
	if opts.MaxColumns < 0 {
		return lgerrors.NewOptionsError("max_columns", strconv.Itoa(opts.MaxColumns), "max columns must not be negative")
	}
	if opts.MaxCountPerFile < 0 {
		return lgerrors.NewOptionsError("max_count", strconv.Itoa(opts.MaxCountPerFile), "max count must not be negative")
	}
	if opts.Workers < 0 {
		return lgerrors.NewOptionsError("workers", strconv.Itoa(opts.Workers), "worker count must not be negative")
	}
	if opts.CountOnly && opts.OnlyMatching {
		return lgerrors.NewOptionsError("only_matching", "", "count-only and only-matching are mutually exclusive")
	}
	return nil
}
