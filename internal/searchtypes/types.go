package searchtypes

// DefaultChunkSize is the default size of a scan chunk.
// Rationale: 512 KiB keeps per-worker memory bounded while amortizing
// read syscalls; larger chunks showed no measurable win on SSDs.
const DefaultChunkSize = 512 * 1024

// Options configures a single search invocation. Options values are
// immutable once submitted; every mode flag maps to a grep-style switch.
type Options struct {
	Pattern          string   // literal byte pattern, never a regex
	CaseInsensitive  bool     // ASCII-range case folding (-i)
	WordBoundary     bool     // neither adjacent byte may be alnum/underscore (-w)
	InvertMatch      bool     // report lines without the pattern (-v)
	CountOnly        bool     // count matches, materialize no records (-c)
	FilesWithMatches bool     // stop a file after its first match (-l)
	OnlyMatching     bool     // report the matched bytes, not the line (-o)
	ContextBefore    int      // lines of leading context (-B)
	ContextAfter     int      // lines of trailing context (-A)
	MaxColumns       int      // truncate longer preview lines, 0 = unlimited
	MaxCountPerFile  int      // stop a file after N matches, 0 = unlimited (-m)
	ChunkSize        int      // bytes per chunk, 0 = DefaultChunkSize; clamped up, never down
	IncludeHidden    bool     // scan dot-files and dot-directories
	PathFilters      []string // doublestar globs; empty means all files
	Exclude          []string // doublestar globs removed from candidates
	Workers          int      // parallel file scanners, 0 = auto
}

// DefaultOptions returns search options with sensible defaults
func DefaultOptions(pattern string) Options {
	return Options{
		Pattern:   pattern,
		ChunkSize: DefaultChunkSize,
	}
}

// LineInfo locates a match within its line.
type LineInfo struct {
	LineNumber   int    // 1-based
	LineContent  string // the line without its terminating newline
	ColumnOffset int    // 0-based byte offset of the match within the line
}

// ContextLine is one line of surrounding context for display purposes.
type ContextLine struct {
	LineNumber int    `json:"line_number"`
	Content    string `json:"content"`
}

// Match is a single reported occurrence of the pattern.
type Match struct {
	Path       string        `json:"path"`
	LineNumber int           `json:"line_number"`
	Line       string        `json:"line"`
	Column     int           `json:"column"` // 0-based byte offset within the line
	Before     []ContextLine `json:"before,omitempty"`
	After      []ContextLine `json:"after,omitempty"`
}

// FileResult is the outcome of scanning one file. Err carries binary
// skips and I/O failures; matches collected before a failure are kept.
type FileResult struct {
	Path         string
	Matches      []Match
	MatchCount   int
	BytesScanned int64
	Checksum     uint64 // xxhash over the file's bytes, used by watch mode
	Binary       bool
	Err          error
}

// Progress is a monotonically increasing snapshot emitted after each
// file completes.
type Progress struct {
	FilesScanned int `json:"files_scanned"`
	MatchesFound int `json:"matches_found"`
}
