package search

import (
	"io"
)

// Chunk is a bounded window of file bytes tagged with its absolute
// position, so matches map back to global offsets. A chunk is owned by
// its consumer once yielded and is never mutated afterwards.
type Chunk struct {
	Data    []byte
	Offset  int64 // absolute offset of Data[0] within the file
	Overlap int   // leading bytes duplicated from the previous chunk
	Last    bool  // no further chunks follow
}

// ChunkReader slices a sequential byte source into a finite, forward-only
// sequence of overlapping chunks. It is not restartable; a fresh source is
// required per file scan.
//
// The overlap guarantees that a pattern of length P straddling a chunk
// boundary is fully contained in the following chunk, provided the caller
// requests overlap >= P-1.
type ChunkReader struct {
	src       io.Reader
	chunkSize int
	overlap   int

	buf      []byte // accumulation buffer; buf[0] is at absolute offset
	offset   int64  // absolute offset of buf[0]
	yielded  int    // chunks yielded so far
	srcDone  bool
	finished bool
	readBuf  []byte
}

// NewChunkReader creates a reader producing chunks of at most chunkSize
// bytes with the requested leading overlap between consecutive chunks.
//
// The overlap is clamped to chunkSize-1 before use. This clamp is a
// correctness invariant, not a convenience: an overlap equal to or
// exceeding the chunk size would advance the sliding window by zero or
// negative bytes and never terminate.
func NewChunkReader(src io.Reader, chunkSize, overlap int) *ChunkReader {
	if chunkSize < 1 {
		chunkSize = 1
	}
	if overlap >= chunkSize {
		overlap = chunkSize - 1
	}
	if overlap < 0 {
		overlap = 0
	}
	return &ChunkReader{
		src:       src,
		chunkSize: chunkSize,
		overlap:   overlap,
		readBuf:   make([]byte, chunkReadSize),
	}
}

// Next returns the next chunk. It returns io.EOF after the final chunk
// has been yielded; any other error is an I/O failure from the source.
func (r *ChunkReader) Next() (Chunk, error) {
	if r.finished {
		return Chunk{}, io.EOF
	}

	for {
		// Only emit a buffer-exact chunk once the source state is known;
		// otherwise the final chunk of an exact-multiple file could be
		// yielded without its Last flag.
		if len(r.buf) > r.chunkSize || (r.srcDone && len(r.buf) >= r.chunkSize) {
			last := r.srcDone && r.remainderAfterAdvance() == 0
			if last {
				r.finished = true
			}
			return r.emit(r.chunkSize, last), nil
		}

		if r.srcDone {
			r.finished = true
			if len(r.buf) == 0 {
				return Chunk{}, io.EOF
			}
			// Remainder, possibly shorter than a full chunk. It may even
			// consist entirely of already-seen overlap bytes; it is still
			// yielded so the consumer sees Last exactly once.
			return r.emit(len(r.buf), true), nil
		}

		n, err := r.src.Read(r.readBuf)
		if n > 0 {
			r.buf = append(r.buf, r.readBuf[:n]...)
		}
		if err == io.EOF {
			r.srcDone = true
		} else if err != nil {
			r.finished = true
			return Chunk{}, err
		}
	}
}

// remainderAfterAdvance reports how many buffered bytes would remain
// after the next full chunk is sliced off.
func (r *ChunkReader) remainderAfterAdvance() int {
	return len(r.buf) - r.advance()
}

// advance is how far the window start moves after yielding the next
// chunk. The first chunk has no leading overlap to preserve, so the
// window moves a full chunk; every later chunk retains the trailing
// overlap bytes for the chunk after it. The first two chunks are
// therefore contiguous, and a pattern straddling that first seam is
// not re-surfaced by overlap.
func (r *ChunkReader) advance() int {
	if r.yielded == 0 {
		return r.chunkSize
	}
	return r.chunkSize - r.overlap
}

func (r *ChunkReader) emit(size int, last bool) Chunk {
	data := make([]byte, size)
	copy(data, r.buf[:size])

	chunk := Chunk{
		Data:    data,
		Offset:  r.offset,
		Overlap: r.currentOverlap(size),
		Last:    last,
	}

	adv := r.advance()
	if adv > len(r.buf) {
		adv = len(r.buf)
	}
	r.buf = append(r.buf[:0], r.buf[adv:]...)
	r.offset += int64(adv)
	r.yielded++

	return chunk
}

// currentOverlap computes how many leading bytes of the chunk being
// emitted were already part of the previous chunk.
func (r *ChunkReader) currentOverlap(size int) int {
	if r.yielded == 0 {
		return 0
	}
	// Previous chunk ended chunkSize bytes past the previous window
	// start; anything before that point inside this chunk is overlap.
	ov := r.chunkSize - r.lastAdvance()
	if ov > size {
		ov = size
	}
	if ov < 0 {
		ov = 0
	}
	return ov
}

// lastAdvance is the advance that produced the current window position.
func (r *ChunkReader) lastAdvance() int {
	if r.yielded == 1 {
		return r.chunkSize
	}
	return r.chunkSize - r.overlap
}
