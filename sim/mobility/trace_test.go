package mobility

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radiosim/radiosim/sim/internal/testutil"
)

func TestParseTrace_SkipsCommentsAndMalformedLines(t *testing.T) {
	// GIVEN a trace with comments, blank lines and two bad lines
	input := strings.Join([]string{
		"# index time x y",
		"",
		"0 0 1.5 2.5",
		"1 0.000002 -3 4",
		"not a move",
		"2 -1 0 0",
		"   ",
		"1\t2.25\t10\t20   extra",
	}, "\n")

	// WHEN parsed
	moves, err := ParseTrace(strings.NewReader(input), nil)

	// THEN only the valid moves remain, times in microseconds
	require.NoError(t, err)
	require.Len(t, moves, 3)
	assert.Equal(t, Move{Index: 0, Time: 0, X: 1.5, Y: 2.5}, moves[0])
	assert.Equal(t, int64(2), moves[1].Time)
	assert.Equal(t, Move{Index: 1, Time: 2_250_000, X: 10, Y: 20}, moves[2])
}

func TestParseTrace_RejectsBadTimes(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"negative", "0 -0.5 1 2"},
		{"not a number", "0 soon 1 2"},
		{"nan", "0 NaN 1 2"},
		{"infinite", "0 +Inf 1 2"},
		{"overflows microseconds", "0 1e15 1 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			moves, err := ParseTrace(strings.NewReader(tt.line), nil)
			require.NoError(t, err)
			assert.Empty(t, moves)
		})
	}
}

func TestParseTrace_SortsByTime(t *testing.T) {
	// GIVEN moves out of time order, two sharing a time
	input := "0 2 1 1\n1 0 2 2\n2 1 3 3\n3 0 4 4\n"

	// WHEN parsed
	moves, err := ParseTrace(strings.NewReader(input), nil)

	// THEN they come back in time order, ties in file order
	require.NoError(t, err)
	require.Len(t, moves, 4)
	indexes := make([]int, 0, len(moves))
	for _, m := range moves {
		indexes = append(indexes, m.Index)
	}
	assert.Equal(t, []int{1, 3, 2, 0}, indexes)
	assert.Equal(t, int64(2_000_000), moves[3].Time)
}

func TestLoadTrace_MissingFileIsEmpty(t *testing.T) {
	moves := LoadTrace("/nonexistent/positions.dat", nil)
	assert.NotNil(t, moves)
	assert.Empty(t, moves)
}

func TestLoadTrace_ReadsFile(t *testing.T) {
	path := testutil.WriteFile(t, "positions.dat", "0 1 2 3\n1 2 4 6\n")

	moves := LoadTrace(path, nil)

	require.Len(t, moves, 2)
	assert.Equal(t, int64(2_000_000), moves[1].Time)
}

func TestMove_String(t *testing.T) {
	m := Move{Index: 3, Time: 1_500_000, X: 1, Y: 2}
	assert.Equal(t, "MOVE: radio #3 -> [1,2] @ 1.500000s", m.String())
}
