package topology

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radiosim/radiosim/sim"
	"github.com/radiosim/radiosim/sim/internal/testutil"
)

func TestParseLinks_HeaderCommentsAndBadRows(t *testing.T) {
	// GIVEN a link file with a header, a comment and three bad rows
	input := strings.Join([]string{
		"src,dst,channel,ratio,rssi,lqi",
		"# explicit links",
		"1,2,-1,0.9,-70,105",
		"2, 1, 26, 0.5, -88.5, 80",
		"3,4,26",
		"3,4,26,1.5,-70,100",
		"x,4,26,0.5,-70,100",
	}, "\n")

	// WHEN parsed
	links, err := ParseLinks(strings.NewReader(input), nil)

	// THEN the two good rows are returned in order
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, sim.Link{Src: 1, Dst: 2, Channel: sim.ChannelAny, Ratio: 0.9, RSSI: -70, LQI: 105}, links[0])
	assert.Equal(t, sim.Link{Src: 2, Dst: 1, Channel: 26, Ratio: 0.5, RSSI: -88.5, LQI: 80}, links[1])
}

func TestParseLinks_NoHeader(t *testing.T) {
	links, err := ParseLinks(strings.NewReader("5,6,11,1,-60,110\n"), nil)
	require.NoError(t, err)
	assert.Len(t, links, 1)
}

func TestLoadLinks(t *testing.T) {
	path := testutil.WriteFile(t, "links.csv", "0,1,-1,1,-50,110\n")

	links, err := LoadLinks(path, nil)
	require.NoError(t, err)
	assert.Len(t, links, 1)

	_, err = LoadLinks("/nonexistent/links.csv", nil)
	assert.Error(t, err)
}
