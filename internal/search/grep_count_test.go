package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/litgrep/internal/searchtypes"
)

func TestCountOnly_CountsWithoutRecords(t *testing.T) {
	opts := searchtypes.DefaultOptions("hit")
	opts.CountOnly = true

	res := scanString("hit one\nhit hit two\nmiss\nhit three\n", opts)
	require.NoError(t, res.Err)
	assert.Equal(t, 4, res.MatchCount)
	assert.Empty(t, res.Matches, "count mode must not materialize match records")
}

func TestCountOnly_ZeroMatches(t *testing.T) {
	opts := searchtypes.DefaultOptions("absent")
	opts.CountOnly = true

	res := scanString("nothing relevant\n", opts)
	assert.Equal(t, 0, res.MatchCount)
	assert.Empty(t, res.Matches)
}

func TestCountOnly_ChunkedAgreesWithRecorded(t *testing.T) {
	content := strings.Repeat("one hit per line\n", 300)

	counted := searchtypes.DefaultOptions("hit")
	counted.CountOnly = true
	counted.ChunkSize = 64

	recorded := searchtypes.DefaultOptions("hit")
	recorded.ChunkSize = 64

	assert.Equal(t, scanString(content, recorded).MatchCount,
		scanString(content, counted).MatchCount)
	assert.Equal(t, 300, scanString(content, counted).MatchCount)
}

func TestMaxCountPerFile_StopsEarly(t *testing.T) {
	opts := searchtypes.DefaultOptions("hit")
	opts.MaxCountPerFile = 3

	res := scanString(strings.Repeat("a hit\n", 50), opts)
	require.NoError(t, res.Err)
	assert.Equal(t, 3, res.MatchCount)
	require.Len(t, res.Matches, 3)
	assert.Equal(t, 3, res.Matches[2].LineNumber, "earliest matches win")
}

func TestMaxCountPerFile_CombinesWithCountOnly(t *testing.T) {
	opts := searchtypes.DefaultOptions("hit")
	opts.CountOnly = true
	opts.MaxCountPerFile = 5

	res := scanString(strings.Repeat("a hit\n", 50), opts)
	assert.Equal(t, 5, res.MatchCount)
	assert.Empty(t, res.Matches)
}

func TestMaxCountPerFile_ZeroMeansUnlimited(t *testing.T) {
	opts := searchtypes.DefaultOptions("hit")
	opts.MaxCountPerFile = 0

	res := scanString(strings.Repeat("a hit\n", 50), opts)
	assert.Equal(t, 50, res.MatchCount)
}
