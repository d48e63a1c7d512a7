package search

// Search engine constants
const (
	// binarySampleSize is how many leading bytes the NUL-byte heuristic
	// inspects on a file's first chunk.
	// Rationale: 8 KiB catches virtually all binary formats (magic
	// headers, length fields) without reading past the first chunk.
	binarySampleSize = 8192

	// minChunkFactor floors the effective chunk size at pattern length
	// times this factor, clamping up only. Guarantees every chunk can
	// hold enough context to verify a match and its overlap.
	minChunkFactor = 4

	// chunkReadSize is the read granularity used to fill the chunk
	// reader's accumulation buffer.
	chunkReadSize = 64 * 1024

	// defaultMaxWorkers caps auto-detected parallelism.
	// Rationale: file scanning is I/O bound; beyond ~8 workers the
	// kernel VFS path dominates and extra goroutines only add
	// scheduling overhead.
	defaultMaxWorkers = 8

	// streamBuffer is the match channel capacity in streaming mode. A
	// small buffer decouples workers from a slow consumer without
	// hiding backpressure.
	streamBuffer = 64
)
