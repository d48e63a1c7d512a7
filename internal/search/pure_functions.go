package search

import (
	"bytes"

	"github.com/standardbeagle/litgrep/internal/searchtypes"
)

// Pure functions for byte-level search operations.
// These functions have no side effects and depend only on their inputs,
// making them ideal for property-based testing.

// FindAll returns every starting offset where pattern occurs in
// data[start:]. Occurrences may overlap. An empty pattern or a pattern
// longer than the remaining data yields no offsets.
//
// Single-byte patterns use a direct byte-equality scan; multi-byte
// patterns use a first-byte filter followed by a full verify of the
// remaining bytes. O(N*P) worst case, acceptable because patterns are
// short and chunks are bounded.
func FindAll(data, pattern []byte, start int) []int {
	if len(pattern) == 0 || start < 0 || start+len(pattern) > len(data) {
		return nil
	}

	var offsets []int

	if len(pattern) == 1 {
		b := pattern[0]
		for i := start; i < len(data); i++ {
			if data[i] == b {
				offsets = append(offsets, i)
			}
		}
		return offsets
	}

	first := pattern[0]
	limit := len(data) - len(pattern)
	for i := start; i <= limit; i++ {
		idx := bytes.IndexByte(data[i:limit+1], first)
		if idx < 0 {
			break
		}
		i += idx
		if matchesAt(data, pattern, i) {
			offsets = append(offsets, i)
		}
	}

	return offsets
}

// Exists reports whether pattern occurs in data[start:], returning on the
// first hit. Used by files-with-matches mode to avoid scanning the rest
// of a chunk.
func Exists(data, pattern []byte, start int) bool {
	if len(pattern) == 0 || start < 0 || start+len(pattern) > len(data) {
		return false
	}

	if len(pattern) == 1 {
		return bytes.IndexByte(data[start:], pattern[0]) >= 0
	}

	first := pattern[0]
	limit := len(data) - len(pattern)
	for i := start; i <= limit; i++ {
		idx := bytes.IndexByte(data[i:limit+1], first)
		if idx < 0 {
			return false
		}
		i += idx
		if matchesAt(data, pattern, i) {
			return true
		}
	}

	return false
}

// FindAllFold is FindAll with ASCII-range case folding: bytes in the
// ASCII letter range compare lower-cased, all other bytes compare exact.
func FindAllFold(data, pattern []byte, start int) []int {
	if len(pattern) == 0 || start < 0 || start+len(pattern) > len(data) {
		return nil
	}

	var offsets []int
	limit := len(data) - len(pattern)
	for i := start; i <= limit; i++ {
		if matchesAtFold(data, pattern, i) {
			offsets = append(offsets, i)
		}
	}

	return offsets
}

// ExistsFold is Exists with ASCII-range case folding.
func ExistsFold(data, pattern []byte, start int) bool {
	if len(pattern) == 0 || start < 0 || start+len(pattern) > len(data) {
		return false
	}
	limit := len(data) - len(pattern)
	for i := start; i <= limit; i++ {
		if matchesAtFold(data, pattern, i) {
			return true
		}
	}
	return false
}

// matchesAt verifies pattern at offset i; the caller guarantees bounds.
func matchesAt(data, pattern []byte, i int) bool {
	for j := 1; j < len(pattern); j++ {
		if data[i+j] != pattern[j] {
			return false
		}
	}
	return true
}

func matchesAtFold(data, pattern []byte, i int) bool {
	for j := 0; j < len(pattern); j++ {
		if toLowerASCII(data[i+j]) != toLowerASCII(pattern[j]) {
			return false
		}
	}
	return true
}

func toLowerASCII(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

// CountByte returns the number of occurrences of b in data[start:end).
// Used exclusively for newline counting to maintain running line numbers
// across chunks.
func CountByte(data []byte, b byte, start, end int) int {
	if start < 0 {
		start = 0
	}
	if end > len(data) {
		end = len(data)
	}
	if start >= end {
		return 0
	}
	return bytes.Count(data[start:end], []byte{b})
}

// FindByteBackward returns the largest index <= from where b occurs, or
// -1 when there is none before the position.
func FindByteBackward(data []byte, b byte, from int) int {
	if from >= len(data) {
		from = len(data) - 1
	}
	for i := from; i >= 0; i-- {
		if data[i] == b {
			return i
		}
	}
	return -1
}

// FindByteForward returns the smallest index >= from where b occurs, or
// len(data) when there is none. The sentinel reads as "the boundary is
// at or after the end of this chunk".
func FindByteForward(data []byte, b byte, from int) int {
	if from < 0 {
		from = 0
	}
	for i := from; i < len(data); i++ {
		if data[i] == b {
			return i
		}
	}
	return len(data)
}

// IsWordByte returns true if the byte is a word character (alphanumeric
// or underscore).
func IsWordByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9') || b == '_'
}

// IsBinaryChunk classifies a chunk as binary content: true iff any NUL
// byte occurs in the first binarySampleSize bytes. The check runs once
// per file, on the first chunk, before any pattern search.
func IsBinaryChunk(data []byte) bool {
	sample := data
	if len(sample) > binarySampleSize {
		sample = sample[:binarySampleSize]
	}
	return bytes.IndexByte(sample, 0) >= 0
}

// ExtractLineInfo computes the absolute line number, line text, and
// column offset for a match at matchOffset inside chunk, given the count
// of newlines already seen in prior chunks.
//
// When no newline is found before the match the line starts at the chunk
// boundary; when none is found after, it ends there. A line spanning more
// than one chunk is therefore truncated at the chunk edge - an accepted
// approximation for display purposes.
func ExtractLineInfo(chunk []byte, matchOffset, linesBeforeChunk int) searchtypes.LineInfo {
	start := FindByteBackward(chunk, '\n', matchOffset-1) + 1
	end := FindByteForward(chunk, '\n', matchOffset)

	return searchtypes.LineInfo{
		LineNumber:   linesBeforeChunk + CountByte(chunk, '\n', 0, matchOffset) + 1,
		LineContent:  string(chunk[start:end]),
		ColumnOffset: matchOffset - start,
	}
}
