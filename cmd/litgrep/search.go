package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/litgrep/internal/config"
	"github.com/standardbeagle/litgrep/internal/debug"
	"github.com/standardbeagle/litgrep/internal/display"
	"github.com/standardbeagle/litgrep/internal/search"
	"github.com/standardbeagle/litgrep/internal/searchtypes"
	"github.com/standardbeagle/litgrep/internal/vfs"
	"github.com/standardbeagle/litgrep/internal/watch"
	"github.com/standardbeagle/litgrep/pkg/pathutil"
)

func searchCmd() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Aliases:   []string{"s"},
		Usage:     "Search files for a literal byte pattern",
		ArgsUsage: "PATTERN",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "ignore-case", Aliases: []string{"i"}, Usage: "Case-insensitive matching (ASCII)"},
			&cli.BoolFlag{Name: "word", Aliases: []string{"w"}, Usage: "Match whole words only"},
			&cli.BoolFlag{Name: "invert", Aliases: []string{"v"}, Usage: "Report lines that do not contain the pattern"},
			&cli.BoolFlag{Name: "count", Aliases: []string{"c"}, Usage: "Print per-file match counts instead of lines"},
			&cli.BoolFlag{Name: "files-with-matches", Aliases: []string{"l"}, Usage: "Print only names of files containing matches"},
			&cli.BoolFlag{Name: "only-matching", Aliases: []string{"o"}, Usage: "Print only the matched text"},
			&cli.IntFlag{Name: "after-context", Aliases: []string{"A"}, Usage: "Lines of trailing context"},
			&cli.IntFlag{Name: "before-context", Aliases: []string{"B"}, Usage: "Lines of leading context"},
			&cli.IntFlag{Name: "context", Aliases: []string{"C"}, Usage: "Lines of context before and after"},
			&cli.IntFlag{Name: "max-count", Aliases: []string{"m"}, Usage: "Stop each file after N matches"},
			&cli.IntFlag{Name: "max-columns", Usage: "Truncate preview lines longer than N bytes"},
			&cli.BoolFlag{Name: "hidden", Usage: "Scan hidden files and directories"},
			&cli.IntFlag{Name: "chunk-size", Usage: "Chunk size in bytes (0 = default)"},
			&cli.IntFlag{Name: "workers", Usage: "Parallel file scanners (0 = auto)"},
			&cli.BoolFlag{Name: "column", Usage: "Show 1-based column of each match"},
			&cli.BoolFlag{Name: "json", Usage: "Emit results as JSON"},
			&cli.BoolFlag{Name: "stats", Usage: "Print scan statistics after the results"},
			&cli.BoolFlag{Name: "watch", Aliases: []string{"W"}, Usage: "Re-run the search when files change"},
		},
		Action: runSearch,
	}
}

func runSearch(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("missing pattern argument (usage: litgrep search PATTERN)")
	}
	pattern := c.Args().First()

	root, err := resolveRoot(c)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(c, root)
	if err != nil {
		return err
	}

	opts := buildOptions(c, pattern)
	cfg.ApplyDefaults(&opts)

	coord := search.NewCoordinator(vfs.NewOSFileService(), root)

	if c.Bool("watch") {
		return runWatch(c, coord, cfg, root, opts)
	}
	return runOnce(c, coord, root, opts)
}

// buildOptions maps CLI flags onto engine options. Config defaults are
// layered in afterwards, so zero values here mean "unset".
func buildOptions(c *cli.Context, pattern string) searchtypes.Options {
	opts := searchtypes.Options{
		Pattern:          pattern,
		CaseInsensitive:  c.Bool("ignore-case"),
		WordBoundary:     c.Bool("word"),
		InvertMatch:      c.Bool("invert"),
		CountOnly:        c.Bool("count"),
		FilesWithMatches: c.Bool("files-with-matches"),
		OnlyMatching:     c.Bool("only-matching"),
		ContextBefore:    c.Int("before-context"),
		ContextAfter:     c.Int("after-context"),
		MaxColumns:       c.Int("max-columns"),
		MaxCountPerFile:  c.Int("max-count"),
		ChunkSize:        c.Int("chunk-size"),
		IncludeHidden:    c.Bool("hidden"),
		PathFilters:      c.StringSlice("include"),
		Exclude:          c.StringSlice("exclude"),
		Workers:          c.Int("workers"),
	}
	if n := c.Int("context"); n > 0 {
		if opts.ContextBefore == 0 {
			opts.ContextBefore = n
		}
		if opts.ContextAfter == 0 {
			opts.ContextAfter = n
		}
	}
	return opts
}

func runOnce(c *cli.Context, coord *search.Coordinator, root string, opts searchtypes.Options) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	start := time.Now()
	result, err := coord.Search(ctx, opts)
	if err != nil {
		return err
	}

	writeResult(c, result, root)
	if c.Bool("stats") {
		display.WriteStats(os.Stderr, result, time.Since(start).Milliseconds())
	}
	return nil
}

// runWatch runs an initial full search, then re-runs after each debounced
// burst of filesystem changes. Files whose content checksum is unchanged
// are dropped from re-run output so only genuinely new results print.
func runWatch(c *cli.Context, coord *search.Coordinator, cfg *config.Config, root string, opts searchtypes.Options) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	changes := watch.NewChangeSet()
	firstPass := true

	runPass := func() {
		result, err := coord.Search(ctx, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "litgrep: %v\n", err)
			return
		}

		if !firstPass {
			result = filterUnchanged(result, changes)
		} else {
			for _, fr := range result.Files {
				if fr.Err == nil {
					changes.Update(fr.Path, fr.Checksum)
				}
			}
		}

		if firstPass || len(result.Matches) > 0 || hasReportableFiles(result) {
			writeResult(c, result, root)
		}
		firstPass = false
	}

	runPass()

	debounce := time.Duration(cfg.Performance.WatchDebounce) * time.Millisecond
	w, err := watch.New(root, debounce)
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	fmt.Fprintf(os.Stderr, "litgrep: watching %s for changes (Ctrl-C to stop)\n", root)
	err = w.Run(ctx, func() {
		debug.LogWatch("change burst, re-running search\n")
		runPass()
	})
	if err == context.Canceled {
		return nil
	}
	return err
}

// filterUnchanged keeps only files whose checksum moved since the last
// pass, rebuilding the aggregate match list from the survivors.
func filterUnchanged(result *search.Result, changes *watch.ChangeSet) *search.Result {
	out := &search.Result{Progress: result.Progress}
	for _, fr := range result.Files {
		if fr.Err != nil {
			continue
		}
		if !changes.Update(fr.Path, fr.Checksum) {
			continue
		}
		out.Files = append(out.Files, fr)
		out.Matches = append(out.Matches, fr.Matches...)
	}
	return out
}

func hasReportableFiles(result *search.Result) bool {
	for _, fr := range result.Files {
		if fr.MatchCount > 0 {
			return true
		}
	}
	return false
}

func writeResult(c *cli.Context, result *search.Result, root string) {
	shown := *result
	shown.Matches = pathutil.ToRelativeMatches(result.Matches, root)
	shown.Files = relativizeFiles(result.Files, root)

	if c.Bool("json") {
		if err := display.WriteJSON(os.Stdout, &shown); err != nil {
			fmt.Fprintf(os.Stderr, "litgrep: %v\n", err)
		}
		return
	}

	display.WriteText(os.Stdout, &shown, display.TextOptions{
		ShowColumn: c.Bool("column"),
		CountOnly:  c.Bool("count"),
		FilesOnly:  c.Bool("files-with-matches"),
	})
}

func relativizeFiles(files []searchtypes.FileResult, root string) []searchtypes.FileResult {
	if len(files) == 0 {
		return files
	}
	out := make([]searchtypes.FileResult, len(files))
	copy(out, files)
	for i := range out {
		out[i].Path = pathutil.ToRelative(out[i].Path, root)
	}
	return out
}
