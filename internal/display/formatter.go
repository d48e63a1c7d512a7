// Package display renders search results for the CLI: grep-style text
// with optional context blocks, per-file counts, and JSON for machine
// consumption.
package display

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/standardbeagle/litgrep/internal/search"
	"github.com/standardbeagle/litgrep/internal/searchtypes"
)

// TextOptions controls grep-style rendering.
type TextOptions struct {
	ShowColumn bool
	CountOnly  bool
	FilesOnly  bool
}

// WriteText renders a batch result the way grep would: path:line:text for
// matches, "--" separators between context blocks, one "path:count" line
// per file in count mode, and bare paths in files-with-matches mode.
// Skipped and failed files are reported on their own lines so nothing is
// silently swallowed.
func WriteText(w io.Writer, result *search.Result, opts TextOptions) {
	if opts.FilesOnly {
		writeFilesOnly(w, result)
		return
	}
	if opts.CountOnly {
		writeCounts(w, result)
		return
	}

	for i, m := range result.Matches {
		if len(m.Before) > 0 || len(m.After) > 0 {
			if i > 0 {
				fmt.Fprintln(w, "--")
			}
			for _, c := range m.Before {
				fmt.Fprintf(w, "%s-%d-%s\n", m.Path, c.LineNumber, c.Content)
			}
		}

		if opts.ShowColumn {
			fmt.Fprintf(w, "%s:%d:%d:%s\n", m.Path, m.LineNumber, m.Column+1, m.Line)
		} else {
			fmt.Fprintf(w, "%s:%d:%s\n", m.Path, m.LineNumber, m.Line)
		}

		for _, c := range m.After {
			fmt.Fprintf(w, "%s-%d-%s\n", m.Path, c.LineNumber, c.Content)
		}
	}

	writeFileErrors(w, result)
}

func writeFilesOnly(w io.Writer, result *search.Result) {
	paths := make([]string, 0, len(result.Files))
	for _, fr := range result.Files {
		if fr.MatchCount > 0 {
			paths = append(paths, fr.Path)
		}
	}
	sort.Strings(paths)
	for _, p := range paths {
		fmt.Fprintln(w, p)
	}
	writeFileErrors(w, result)
}

func writeCounts(w io.Writer, result *search.Result) {
	files := append([]searchtypes.FileResult(nil), result.Files...)
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	for _, fr := range files {
		if fr.Err != nil {
			continue
		}
		fmt.Fprintf(w, "%s:%d\n", fr.Path, fr.MatchCount)
	}
	writeFileErrors(w, result)
}

func writeFileErrors(w io.Writer, result *search.Result) {
	for _, fr := range result.Files {
		switch {
		case fr.Binary:
			fmt.Fprintf(w, "litgrep: %s: binary file skipped\n", fr.Path)
		case fr.Err != nil:
			fmt.Fprintf(w, "litgrep: %s: %v\n", fr.Path, fr.Err)
		}
	}
}

// jsonResult is the machine-readable envelope for --json output.
type jsonResult struct {
	Matches  []searchtypes.Match  `json:"matches"`
	Progress searchtypes.Progress `json:"progress"`
	Skipped  []jsonSkip           `json:"skipped,omitempty"`
}

type jsonSkip struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// WriteJSON renders the result as a single JSON document.
func WriteJSON(w io.Writer, result *search.Result) error {
	out := jsonResult{
		Matches:  result.Matches,
		Progress: result.Progress,
	}
	if out.Matches == nil {
		out.Matches = []searchtypes.Match{}
	}
	for _, fr := range result.Files {
		switch {
		case fr.Binary:
			out.Skipped = append(out.Skipped, jsonSkip{Path: fr.Path, Reason: "binary"})
		case fr.Err != nil:
			out.Skipped = append(out.Skipped, jsonSkip{Path: fr.Path, Reason: fr.Err.Error()})
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// WriteStats prints scan statistics for --stats.
func WriteStats(w io.Writer, result *search.Result, elapsedMillis int64) {
	var bytes int64
	for _, fr := range result.Files {
		bytes += fr.BytesScanned
	}
	fmt.Fprintf(w, "files scanned:  %d\n", result.Progress.FilesScanned)
	fmt.Fprintf(w, "bytes scanned:  %d\n", bytes)
	fmt.Fprintf(w, "matches found:  %d\n", result.Progress.MatchesFound)
	fmt.Fprintf(w, "elapsed:        %dms\n", elapsedMillis)
}
