package search

import (
	"io"

	"github.com/cespare/xxhash/v2"

	lgerrors "github.com/standardbeagle/litgrep/internal/errors"
	"github.com/standardbeagle/litgrep/internal/searchtypes"
)

// fileScanner runs one file end-to-end against one set of options. It is
// owned exclusively by a single worker; no state is shared across files.
//
// States: idle -> scanning -> completed | binary-skipped | failed. All
// failures are captured into the result; scanFile never returns a Go
// error and never aborts the batch.
type fileScanner struct {
	path    string
	pattern []byte
	opts    searchtypes.Options

	res         searchtypes.FileResult
	hasher      *xxhash.Digest
	linesBefore int
	chunkIndex  int
	stopped     bool

	// Word-boundary seam state: a match ending flush at a non-last
	// chunk's edge is held here until the next chunk reveals the byte
	// after it; prevEdge is the byte immediately before the current
	// chunk's first byte.
	pending     pendingMatch
	prevEdge    byte
	hasPrevEdge bool
}

// pendingMatch is a word-boundary match awaiting its trailing neighbor
// byte. The record is prebuilt from the chunk that found it; modes that
// materialize no records leave it zero.
type pendingMatch struct {
	valid bool
	match searchtypes.Match
}

// effectiveChunkSize clamps the configured chunk size up so a chunk can
// always hold a match plus enough context to verify it. Never clamps down.
func effectiveChunkSize(configured, patternLen int) int {
	size := configured
	if size <= 0 {
		size = searchtypes.DefaultChunkSize
	}
	if min := patternLen * minChunkFactor; size < min {
		size = min
	}
	return size
}

// scanFile scans a single byte source. The caller owns src and closes it.
func scanFile(path string, src io.Reader, opts searchtypes.Options) searchtypes.FileResult {
	s := &fileScanner{
		path:    path,
		pattern: []byte(opts.Pattern),
		opts:    opts,
		res:     searchtypes.FileResult{Path: path},
		hasher:  xxhash.New(),
	}
	s.run(src)
	return s.res
}

func (s *fileScanner) run(src io.Reader) {
	overlap := len(s.pattern) - 1
	if s.opts.WordBoundary {
		// Word judgment needs both neighbor bytes of a seam-adjacent
		// match visible in the chunk that judges it.
		overlap = len(s.pattern) + 1
	}
	chunkSize := effectiveChunkSize(s.opts.ChunkSize, len(s.pattern))
	reader := NewChunkReader(src, chunkSize, overlap)

	for !s.stopped {
		chunk, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Matches collected so far are preserved; the failure is
			// surfaced on this file's result only.
			s.res.Err = lgerrors.NewFileError("read", s.path, err)
			break
		}

		if s.chunkIndex == 0 && IsBinaryChunk(chunk.Data) {
			s.res.Binary = true
			s.res.Err = lgerrors.NewFileError("scan", s.path, lgerrors.ErrBinaryFile)
			return
		}

		newBytes := chunk.Data[chunk.Overlap:]
		s.res.BytesScanned += int64(len(newBytes))
		_, _ = s.hasher.Write(newBytes)

		s.processChunk(chunk)

		if !chunk.Last {
			// Only the non-overlapping prefix counts toward the running
			// line total; the trailing overlap is re-scanned as the next
			// chunk's leading context.
			s.linesBefore += CountByte(chunk.Data, '\n', 0, len(chunk.Data)-s.trailingOverlap(overlap))
			s.rememberEdge(chunk, chunkSize, overlap)
		}
		s.chunkIndex++
	}

	s.res.Checksum = s.hasher.Sum64()
}

// trailingOverlap is how many trailing bytes of the current chunk will
// reappear as the next chunk's leading overlap. The first chunk is
// consumed whole, so nothing of it repeats.
func (s *fileScanner) trailingOverlap(overlap int) int {
	if s.chunkIndex == 0 {
		return 0
	}
	return overlap
}

// rememberEdge records the byte that will sit immediately before the
// next chunk's first byte, mirroring the reader's advance rule.
func (s *fileScanner) rememberEdge(chunk Chunk, chunkSize, overlap int) {
	adv := chunkSize
	if s.chunkIndex > 0 {
		adv = chunkSize - overlap
	}
	if adv > 0 && adv <= len(chunk.Data) {
		s.prevEdge = chunk.Data[adv-1]
		s.hasPrevEdge = true
	}
}

func (s *fileScanner) processChunk(chunk Chunk) {
	if s.opts.InvertMatch {
		s.processInvertedChunk(chunk)
		return
	}

	s.resolvePending(chunk)
	if s.stopped {
		return
	}

	if s.opts.FilesWithMatches {
		s.processExistsChunk(chunk)
		return
	}

	offsets := s.findOffsets(chunk)
	for _, off := range offsets {
		if s.deferToNextChunk(chunk, off) {
			s.stashPending(chunk, off)
			continue
		}
		s.recordMatch(chunk, off)
		if s.stopped {
			return
		}
	}
}

// deferToNextChunk reports whether a word-boundary match ends flush at
// a non-last chunk's edge. Its trailing neighbor byte is only visible
// in the next chunk, whose leading overlap re-surfaces the whole match.
func (s *fileScanner) deferToNextChunk(chunk Chunk, off int) bool {
	return s.opts.WordBoundary && !chunk.Last && off+len(s.pattern) == len(chunk.Data)
}

func (s *fileScanner) stashPending(chunk Chunk, off int) {
	s.pending = pendingMatch{valid: true}
	if !s.opts.CountOnly && !s.opts.FilesWithMatches {
		s.pending.match = s.buildMatch(chunk, off)
	}
}

// resolvePending settles a deferred flush-edge match against the first
// byte after it. That byte is the current chunk's first non-overlap
// byte; when the overlap covers the whole chunk the match ended at end
// of file and the boundary holds.
func (s *fileScanner) resolvePending(chunk Chunk) {
	if !s.pending.valid {
		return
	}
	s.pending.valid = false
	if idx := chunk.Overlap; idx < len(chunk.Data) && IsWordByte(chunk.Data[idx]) {
		return
	}
	s.commitPending()
}

func (s *fileScanner) commitPending() {
	if s.opts.FilesWithMatches {
		s.res.MatchCount = 1
		s.res.Matches = append(s.res.Matches, searchtypes.Match{Path: s.path})
		s.stopped = true
		return
	}
	s.res.MatchCount++
	if s.opts.CountOnly {
		s.checkMaxCount()
		return
	}
	s.res.Matches = append(s.res.Matches, s.pending.match)
	s.checkMaxCount()
}

// processExistsChunk implements files-with-matches mode: a single "has
// match" flag per file, stopping the scan on the first hit. Without a
// word-boundary filter the early-exit Exists scan suffices; starting past
// the overlap-duplicate region keeps boundary matches counted once.
func (s *fileScanner) processExistsChunk(chunk Chunk) {
	found := false
	if s.opts.WordBoundary {
		for _, off := range s.findOffsets(chunk) {
			if s.deferToNextChunk(chunk, off) {
				s.stashPending(chunk, off)
				continue
			}
			found = true
			break
		}
	} else {
		start := chunk.Overlap - len(s.pattern) + 1
		if start < 0 {
			start = 0
		}
		if s.opts.CaseInsensitive {
			found = ExistsFold(chunk.Data, s.pattern, start)
		} else {
			found = Exists(chunk.Data, s.pattern, start)
		}
	}
	if found {
		s.res.MatchCount = 1
		s.res.Matches = append(s.res.Matches, searchtypes.Match{Path: s.path})
		s.stopped = true
	}
}

// findOffsets returns the surviving match offsets for a chunk: raw
// occurrences, minus boundary duplicates, minus word-boundary rejects.
func (s *fileScanner) findOffsets(chunk Chunk) []int {
	var raw []int
	if s.opts.CaseInsensitive {
		raw = FindAllFold(chunk.Data, s.pattern, 0)
	} else {
		raw = FindAll(chunk.Data, s.pattern, 0)
	}
	if len(raw) == 0 {
		return nil
	}

	kept := raw[:0]
	for _, off := range raw {
		// A match lying entirely inside the leading overlap was already
		// judged while processing the previous chunk, either directly or
		// through its deferred slot. A match merely starting there
		// straddles the boundary and is only visible here.
		if off+len(s.pattern) <= chunk.Overlap {
			continue
		}
		if s.opts.WordBoundary && !s.isWordBounded(chunk, off) {
			continue
		}
		kept = append(kept, off)
	}
	return kept
}

// isWordBounded checks the bytes adjacent to the match. A match at
// offset zero consults the remembered edge byte of the previous chunk;
// a match ending at the chunk edge is the deferred-slot case and its
// trailing byte is judged by resolvePending instead.
func (s *fileScanner) isWordBounded(chunk Chunk, off int) bool {
	data := chunk.Data
	if off > 0 {
		if IsWordByte(data[off-1]) {
			return false
		}
	} else if s.hasPrevEdge && IsWordByte(s.prevEdge) {
		return false
	}
	if end := off + len(s.pattern); end < len(data) && IsWordByte(data[end]) {
		return false
	}
	return true
}

// recordMatch dispatches one surviving offset according to the query mode.
func (s *fileScanner) recordMatch(chunk Chunk, off int) {
	s.res.MatchCount++

	if s.opts.CountOnly {
		s.checkMaxCount()
		return
	}

	s.res.Matches = append(s.res.Matches, s.buildMatch(chunk, off))
	s.checkMaxCount()
}

func (s *fileScanner) buildMatch(chunk Chunk, off int) searchtypes.Match {
	li := ExtractLineInfo(chunk.Data, off, s.linesBefore)
	m := searchtypes.Match{
		Path:       s.path,
		LineNumber: li.LineNumber,
		Line:       s.previewLine(li.LineContent),
		Column:     li.ColumnOffset,
	}
	if s.opts.OnlyMatching {
		m.Line = string(chunk.Data[off : off+len(s.pattern)])
	}
	if s.opts.ContextBefore > 0 || s.opts.ContextAfter > 0 {
		lineStart := off - li.ColumnOffset
		lineEnd := FindByteForward(chunk.Data, '\n', off)
		m.Before = s.contextBefore(chunk.Data, lineStart, li.LineNumber)
		m.After = s.contextAfter(chunk.Data, lineEnd, li.LineNumber)
	}
	return m
}

func (s *fileScanner) checkMaxCount() {
	if s.opts.MaxCountPerFile > 0 && s.res.MatchCount >= s.opts.MaxCountPerFile {
		s.stopped = true
	}
}

// previewLine truncates long lines for display when MaxColumns is set.
func (s *fileScanner) previewLine(line string) string {
	if s.opts.MaxColumns > 0 && len(line) > s.opts.MaxColumns {
		return line[:s.opts.MaxColumns] + "..."
	}
	return line
}

// contextBefore collects up to ContextBefore full lines ending just
// before lineStart, nearest last. Collection stops at the chunk edge.
func (s *fileScanner) contextBefore(data []byte, lineStart, matchLine int) []searchtypes.ContextLine {
	var out []searchtypes.ContextLine
	end := lineStart - 1 // position of the newline terminating the previous line
	line := matchLine - 1
	for i := 0; i < s.opts.ContextBefore && end >= 0; i++ {
		start := FindByteBackward(data, '\n', end-1) + 1
		out = append(out, searchtypes.ContextLine{
			LineNumber: line,
			Content:    s.previewLine(string(data[start:end])),
		})
		end = start - 1
		line--
	}
	// Reverse into ascending line order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// contextAfter collects up to ContextAfter full lines starting just after
// lineEnd. Collection stops at the chunk edge.
func (s *fileScanner) contextAfter(data []byte, lineEnd, matchLine int) []searchtypes.ContextLine {
	var out []searchtypes.ContextLine
	start := lineEnd + 1
	line := matchLine + 1
	for i := 0; i < s.opts.ContextAfter && start < len(data); i++ {
		end := FindByteForward(data, '\n', start)
		out = append(out, searchtypes.ContextLine{
			LineNumber: line,
			Content:    s.previewLine(string(data[start:end])),
		})
		start = end + 1
		line++
	}
	return out
}

// processInvertedChunk walks the chunk line-by-line; a line with zero
// surviving pattern occurrences is itself a match. Lines whose
// terminating newline lies inside the leading overlap were handled by the
// previous chunk; an unterminated trailing line is deferred to the chunk
// that completes it, except on the last chunk.
func (s *fileScanner) processInvertedChunk(chunk Chunk) {
	data := chunk.Data

	var offsets []int
	if s.opts.CaseInsensitive {
		offsets = FindAllFold(data, s.pattern, 0)
	} else {
		offsets = FindAll(data, s.pattern, 0)
	}
	if s.opts.WordBoundary {
		kept := offsets[:0]
		for _, off := range offsets {
			if s.isWordBounded(chunk, off) {
				kept = append(kept, off)
			}
		}
		offsets = kept
	}

	next := 0 // index into offsets of the first occurrence not yet passed
	pos := 0
	for pos < len(data) && !s.stopped {
		nl := FindByteForward(data, '\n', pos)
		terminated := nl < len(data)
		if !terminated && !chunk.Last {
			break // line continues into the next chunk
		}

		for next < len(offsets) && offsets[next] < pos {
			next++
		}
		lineHasMatch := next < len(offsets) && offsets[next] < nl

		if terminated && nl < chunk.Overlap {
			pos = nl + 1
			continue // already judged by the previous chunk
		}

		if !lineHasMatch {
			s.recordInvertedLine(data, pos, nl)
		}
		pos = nl + 1
	}
}

func (s *fileScanner) recordInvertedLine(data []byte, lineStart, lineEnd int) {
	s.res.MatchCount++

	if s.opts.FilesWithMatches {
		s.res.MatchCount = 1
		s.res.Matches = append(s.res.Matches, searchtypes.Match{Path: s.path})
		s.stopped = true
		return
	}
	if s.opts.CountOnly {
		s.checkMaxCount()
		return
	}

	s.res.Matches = append(s.res.Matches, s.invertedMatch(data, lineStart, lineEnd))
	s.checkMaxCount()
}

func (s *fileScanner) invertedMatch(data []byte, lineStart, lineEnd int) searchtypes.Match {
	m := searchtypes.Match{
		Path:       s.path,
		LineNumber: s.linesBefore + CountByte(data, '\n', 0, lineStart) + 1,
		Line:       s.previewLine(string(data[lineStart:lineEnd])),
		Column:     0,
	}
	// Context applies to the non-matching line in this mode too.
	if s.opts.ContextBefore > 0 || s.opts.ContextAfter > 0 {
		m.Before = s.contextBefore(data, lineStart, m.LineNumber)
		m.After = s.contextAfter(data, lineEnd, m.LineNumber)
	}
	return m
}
