package search

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lgerrors "github.com/standardbeagle/litgrep/internal/errors"
	"github.com/standardbeagle/litgrep/internal/searchtypes"
	"github.com/standardbeagle/litgrep/internal/vfs"
	"github.com/standardbeagle/litgrep/testhelpers"
)

func newTestCoordinator(t *testing.T, files map[string]string) *Coordinator {
	t.Helper()
	root := testhelpers.WriteTree(t, files)
	return NewCoordinator(vfs.NewOSFileService(), root)
}

func sortMatches(ms []searchtypes.Match) {
	sort.Slice(ms, func(i, j int) bool {
		if ms[i].Path != ms[j].Path {
			return ms[i].Path < ms[j].Path
		}
		if ms[i].LineNumber != ms[j].LineNumber {
			return ms[i].LineNumber < ms[j].LineNumber
		}
		return ms[i].Column < ms[j].Column
	})
}

func TestCoordinator_SearchAcrossFiles(t *testing.T) {
	coord := newTestCoordinator(t, map[string]string{
		"a.txt": "hello world\nsay hello\n",
		"b.txt": "nothing here\n",
	})

	res, err := coord.Search(context.Background(), searchtypes.DefaultOptions("hello"))
	require.NoError(t, err)

	assert.Equal(t, 2, res.Progress.FilesScanned)
	assert.Equal(t, 2, res.Progress.MatchesFound)

	sortMatches(res.Matches)
	require.Len(t, res.Matches, 2)
	assert.Equal(t, 1, res.Matches[0].LineNumber)
	assert.Equal(t, "hello world", res.Matches[0].Line)
	assert.Equal(t, 2, res.Matches[1].LineNumber)
	assert.Equal(t, "say hello", res.Matches[1].Line)
}

func TestCoordinator_NoMatchesIsNotAnError(t *testing.T) {
	coord := newTestCoordinator(t, map[string]string{"a.txt": "plain\n"})

	res, err := coord.Search(context.Background(), searchtypes.DefaultOptions("absent"))
	require.NoError(t, err)
	assert.Empty(t, res.Matches)
	assert.Equal(t, 1, res.Progress.FilesScanned)
	assert.Equal(t, 0, res.Progress.MatchesFound)
}

func TestCoordinator_EmptyTree(t *testing.T) {
	coord := newTestCoordinator(t, map[string]string{})

	res, err := coord.Search(context.Background(), searchtypes.DefaultOptions("x"))
	require.NoError(t, err)
	assert.Empty(t, res.Matches)
	assert.Equal(t, 0, res.Progress.FilesScanned)
}

func TestCoordinator_StreamEqualsBatch(t *testing.T) {
	files := map[string]string{
		"one.txt":       "needle a\nneedle b\n",
		"two.txt":       "no luck\n",
		"sub/three.txt": "deep needle\n",
	}
	coord := newTestCoordinator(t, files)
	opts := searchtypes.DefaultOptions("needle")

	batch, err := coord.Search(context.Background(), opts)
	require.NoError(t, err)

	stream, err := coord.SearchStream(context.Background(), opts)
	require.NoError(t, err)
	var streamed []searchtypes.Match
	for m := range stream {
		streamed = append(streamed, m)
	}

	sortMatches(batch.Matches)
	sortMatches(streamed)
	assert.Equal(t, batch.Matches, streamed)
	require.Len(t, streamed, 3)
}

func TestCoordinator_RepeatedSearchesAreIdempotent(t *testing.T) {
	coord := newTestCoordinator(t, map[string]string{
		"a.txt": "needle one\nneedle two\n",
	})
	opts := searchtypes.DefaultOptions("needle")

	first, err := coord.Search(context.Background(), opts)
	require.NoError(t, err)
	second, err := coord.Search(context.Background(), opts)
	require.NoError(t, err)

	sortMatches(first.Matches)
	sortMatches(second.Matches)
	assert.Equal(t, first.Matches, second.Matches)
	assert.Equal(t, first.Progress, second.Progress)
}

func TestCoordinator_ValidationFailsFast(t *testing.T) {
	coord := newTestCoordinator(t, map[string]string{"a.txt": "x\n"})

	cases := []struct {
		name string
		opts searchtypes.Options
	}{
		{"empty_pattern", searchtypes.Options{}},
		{"negative_chunk", searchtypes.Options{Pattern: "x", ChunkSize: -1}},
		{"negative_context", searchtypes.Options{Pattern: "x", ContextBefore: -2}},
		{"negative_workers", searchtypes.Options{Pattern: "x", Workers: -4}},
		{"count_and_only_matching", searchtypes.Options{Pattern: "x", CountOnly: true, OnlyMatching: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := coord.Search(context.Background(), tc.opts)
			require.Error(t, err)

			var optsErr *lgerrors.OptionsError
			assert.ErrorAs(t, err, &optsErr)

			_, err = coord.SearchStream(context.Background(), tc.opts)
			assert.Error(t, err)
		})
	}
}

func TestCoordinator_PreCancelledContext(t *testing.T) {
	coord := newTestCoordinator(t, map[string]string{"a.txt": "needle\n"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := coord.Search(ctx, searchtypes.DefaultOptions("needle"))
	require.NoError(t, err, "cancellation yields a partial result, not an error")
	assert.Empty(t, res.Matches)
}

func TestCoordinator_StreamCancellationClosesChannel(t *testing.T) {
	files := make(map[string]string, 50)
	for i := 0; i < 50; i++ {
		files[string(rune('a'+i%26))+"/f"+string(rune('0'+i%10))+".txt"] = "needle\n"
	}
	coord := newTestCoordinator(t, files)

	ctx, cancel := context.WithCancel(context.Background())
	stream, err := coord.SearchStream(ctx, searchtypes.DefaultOptions("needle"))
	require.NoError(t, err)

	cancel()

	done := make(chan struct{})
	go func() {
		for range stream {
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("stream channel was not closed after cancellation")
	}
}

func TestCoordinator_ProgressIsMonotonic(t *testing.T) {
	coord := newTestCoordinator(t, map[string]string{
		"a.txt": "needle\n",
		"b.txt": "needle needle\n",
		"c.txt": "none\n",
	})

	var snapshots []searchtypes.Progress
	coord.OnProgress(func(p searchtypes.Progress) {
		snapshots = append(snapshots, p)
	})

	res, err := coord.Search(context.Background(), searchtypes.DefaultOptions("needle"))
	require.NoError(t, err)

	require.Len(t, snapshots, 3)
	for i := 1; i < len(snapshots); i++ {
		assert.Greater(t, snapshots[i].FilesScanned, snapshots[i-1].FilesScanned)
		assert.GreaterOrEqual(t, snapshots[i].MatchesFound, snapshots[i-1].MatchesFound)
	}
	assert.Equal(t, res.Progress, snapshots[len(snapshots)-1])
}

func TestCoordinator_FileResultCallbackSeesEveryFile(t *testing.T) {
	coord := newTestCoordinator(t, map[string]string{
		"a.txt": "needle\n",
		"b.bin": "junk\x00junk",
	})

	var paths []string
	var sawBinary bool
	coord.OnFileResult(func(fr searchtypes.FileResult) {
		paths = append(paths, fr.Path)
		if fr.Binary {
			sawBinary = true
		}
	})

	_, err := coord.Search(context.Background(), searchtypes.DefaultOptions("needle"))
	require.NoError(t, err)
	assert.Len(t, paths, 2)
	assert.True(t, sawBinary, "binary skip must surface as a per-file outcome")
}

func TestCoordinator_BinaryFilesDoNotPoisonBatch(t *testing.T) {
	coord := newTestCoordinator(t, map[string]string{
		"text.txt": "needle here\n",
		"blob.bin": "\x00\x01\x02needle",
	})

	res, err := coord.Search(context.Background(), searchtypes.DefaultOptions("needle"))
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, 1, res.Progress.MatchesFound)

	var binary int
	for _, fr := range res.Files {
		if fr.Binary {
			binary++
			assert.True(t, lgerrors.IsBinary(fr.Err))
		}
	}
	assert.Equal(t, 1, binary)
}

// erringFS fails byte access for one path and delegates the rest.
type erringFS struct {
	vfs.FileService
	failPath string
}

func (e *erringFS) Open(path string) (io.ReadCloser, error) {
	if path == e.failPath {
		return nil, errors.New("permission denied")
	}
	return e.FileService.Open(path)
}

func (e *erringFS) ReadFile(path string) ([]byte, error) {
	if path == e.failPath {
		return nil, errors.New("permission denied")
	}
	return e.FileService.ReadFile(path)
}

func TestCoordinator_PerFileErrorIsolation(t *testing.T) {
	root := testhelpers.WriteTree(t, map[string]string{
		"good.txt": "needle\n",
		"bad.txt":  "needle\n",
	})
	badPath := filepath.Join(root, "bad.txt")

	fs := &erringFS{FileService: vfs.NewOSFileService(), failPath: badPath}
	coord := NewCoordinator(fs, root)

	res, err := coord.Search(context.Background(), searchtypes.DefaultOptions("needle"))
	require.NoError(t, err, "one unreadable file must not abort the batch")

	require.Len(t, res.Matches, 1)
	assert.Contains(t, res.Matches[0].Path, "good.txt")

	var failed int
	for _, fr := range res.Files {
		if fr.Err != nil && !fr.Binary {
			failed++
			assert.Contains(t, fr.Path, "bad.txt")
		}
	}
	assert.Equal(t, 1, failed)
}

func TestCoordinator_HiddenFilesExcludedByDefault(t *testing.T) {
	coord := newTestCoordinator(t, map[string]string{
		"seen.txt":         "needle\n",
		".hidden.txt":      "needle\n",
		".hiddir/deep.txt": "needle\n",
	})

	res, err := coord.Search(context.Background(), searchtypes.DefaultOptions("needle"))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Progress.FilesScanned)

	opts := searchtypes.DefaultOptions("needle")
	opts.IncludeHidden = true
	res, err = coord.Search(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Progress.FilesScanned)
}

func TestCoordinator_PathFilters(t *testing.T) {
	coord := newTestCoordinator(t, map[string]string{
		"main.go":          "needle\n",
		"readme.md":        "needle\n",
		"src/util.go":      "needle\n",
		"vendor/dep/v.go":  "needle\n",
		"src/data/blob.js": "needle\n",
	})

	opts := searchtypes.DefaultOptions("needle")
	opts.PathFilters = []string{"**/*.go", "*.go"}
	opts.Exclude = []string{"vendor/**"}

	res, err := coord.Search(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Progress.FilesScanned)
	sortMatches(res.Matches)
	assert.Contains(t, res.Matches[0].Path, "main.go")
	assert.Contains(t, res.Matches[1].Path, "util.go")
}

func TestCoordinator_LargeFileStreamsThroughChunks(t *testing.T) {
	// Bigger than the configured chunk so the streaming path is taken.
	var body []byte
	for i := 0; i < 2000; i++ {
		body = append(body, "filler filler filler filler\n"...)
	}
	body = append(body, "the needle at the end\n"...)

	root := testhelpers.WriteTree(t, map[string]string{})
	testhelpers.WriteFile(t, root, "big.txt", body)
	coord := NewCoordinator(vfs.NewOSFileService(), root)

	opts := searchtypes.DefaultOptions("needle")
	opts.ChunkSize = 4096

	res, err := coord.Search(context.Background(), opts)
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, 2001, res.Matches[0].LineNumber)
	require.Len(t, res.Files, 1)
	assert.Equal(t, int64(len(body)), res.Files[0].BytesScanned)
}
