package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lineRegistry registers radios 0..n-1 along the X axis, spacing apart.
func lineRegistry(t *testing.T, n int, spacing float64) *Registry {
	t.Helper()
	reg := NewRegistry()
	for i := 0; i < n; i++ {
		require.NoError(t, reg.Register(NewRadio(RadioID(i), Position{X: float64(i) * spacing})))
	}
	return reg
}

func destIDs(edges []Edge) []RadioID {
	ids := make([]RadioID, len(edges))
	for i, e := range edges {
		ids[i] = e.Dest.ID()
	}
	return ids
}

func TestReachabilityGraph_Candidates_StrictRange(t *testing.T) {
	// GIVEN radios 0, 6, 12 units apart in a line and one exactly 10 away
	reg := NewRegistry()
	r0 := NewRadio(0, Position{})
	require.NoError(t, reg.Register(r0))
	require.NoError(t, reg.Register(NewRadio(1, Position{X: 6})))
	require.NoError(t, reg.Register(NewRadio(2, Position{X: 12})))
	require.NoError(t, reg.Register(NewRadio(3, Position{Y: 10})))
	g := NewReachabilityGraph(reg, DefaultParams(), nil)

	// WHEN candidates of radio 0 are queried
	edges := g.Candidates(r0)

	// THEN only the radio strictly inside the range is a candidate
	assert.Equal(t, []RadioID{1}, destIDs(edges))
	assert.InDelta(t, 6.0, edges[0].Distance, 1e-12)
	assert.Nil(t, edges[0].Link)
}

func TestReachabilityGraph_Gateway_IgnoresDistance(t *testing.T) {
	// GIVEN two gateway radios 500 units apart and a third radio outside the set
	reg := NewRegistry()
	gw0 := NewRadio(0, Position{})
	require.NoError(t, reg.Register(gw0))
	require.NoError(t, reg.Register(NewRadio(1, Position{X: 500})))
	require.NoError(t, reg.Register(NewRadio(5, Position{X: 600})))
	g := NewReachabilityGraph(reg, DefaultParams(), GatewayBelow(2))

	// THEN the gateway pair is connected, the far non-gateway is not
	assert.Equal(t, []RadioID{1}, destIDs(g.Candidates(gw0)))
}

func TestGatewayBelow_DisabledForNonPositive(t *testing.T) {
	assert.Nil(t, GatewayBelow(0))
	assert.Nil(t, GatewayBelow(-5))
	var none GatewayPredicate
	assert.False(t, none.matches(NewRadio(0, Position{}), NewRadio(1, Position{})))
}

func TestReachabilityGraph_LazyRecompute(t *testing.T) {
	// GIVEN a graph that has been queried once
	reg := lineRegistry(t, 3, 5)
	g := NewReachabilityGraph(reg, DefaultParams(), nil)
	r0, _ := reg.At(0)
	g.Candidates(r0)
	require.Equal(t, 1, g.Analyses())

	// WHEN queried again without changes
	g.Candidates(r0)
	g.Edges()

	// THEN nothing is recomputed
	assert.Equal(t, 1, g.Analyses())

	// WHEN a radio moves out of range
	reg.Move(1, Position{X: 50})
	edges := g.Candidates(r0)

	// THEN exactly one recomputation reflects the move
	assert.Equal(t, 2, g.Analyses())
	assert.Empty(t, edges)

	// WHEN marked dirty explicitly
	g.MarkDirty()
	g.Candidates(r0)
	assert.Equal(t, 3, g.Analyses())
}

func TestReachabilityGraph_Candidates_ReturnsCopy(t *testing.T) {
	// GIVEN a cached edge list
	reg := lineRegistry(t, 3, 5)
	g := NewReachabilityGraph(reg, DefaultParams(), nil)
	r0, _ := reg.At(0)
	first := g.Candidates(r0)
	require.NotEmpty(t, first)

	// WHEN the caller overwrites and extends the returned slice
	first[0].Distance = -1
	_ = append(first[:0], Edge{})

	// THEN the cache is unchanged
	again := g.Candidates(r0)
	require.Len(t, again, len(first))
	assert.Positive(t, again[0].Distance)
	assert.Equal(t, 1, g.Analyses())
}

func TestReachabilityGraph_UnregisteredSource_NoCandidates(t *testing.T) {
	reg := lineRegistry(t, 2, 1)
	g := NewReachabilityGraph(reg, DefaultParams(), nil)

	assert.Nil(t, g.Candidates(NewRadio(0, Position{})))
	assert.Nil(t, g.Candidates(nil))
	assert.Equal(t, 0, g.Analyses())
}

func TestReachabilityGraph_ExplicitLink_ReplacesDistanceEdge(t *testing.T) {
	// GIVEN two radios 100 units apart with an explicit link 0→1 on two channels
	reg := lineRegistry(t, 2, 100)
	g := NewReachabilityGraph(reg, DefaultParams(), nil)
	require.NoError(t, g.SetLink(Link{Src: 0, Dst: 1, Channel: ChannelAny, Ratio: 0.5, RSSI: -80}))
	require.NoError(t, g.SetLink(Link{Src: 0, Dst: 1, Channel: 26, Ratio: 0.9, RSSI: -60}))
	r0, _ := reg.At(0)
	r1, _ := reg.At(1)

	// WHEN candidates are computed
	edges := g.Candidates(r0)

	// THEN both link edges exist, the exact channel first; the link is directed
	require.Len(t, edges, 2)
	assert.Equal(t, 26, edges[0].Link.Channel)
	assert.Equal(t, ChannelAny, edges[1].Link.Channel)
	assert.Empty(t, g.Candidates(r1))
}

func TestReachabilityGraph_LinkChanges_MarkDirty(t *testing.T) {
	reg := lineRegistry(t, 2, 100)
	g := NewReachabilityGraph(reg, DefaultParams(), nil)
	r0, _ := reg.At(0)
	g.Candidates(r0)

	require.NoError(t, g.SetLink(Link{Src: 0, Dst: 1, Channel: ChannelAny, Ratio: 1, RSSI: -50}))
	assert.Len(t, g.Candidates(r0), 1)
	assert.Equal(t, 2, g.Analyses())

	assert.True(t, g.RemoveLink(0, 1, ChannelAny))
	assert.False(t, g.RemoveLink(0, 1, ChannelAny))
	assert.Empty(t, g.Candidates(r0))
	assert.Equal(t, 3, g.Analyses())
}

func TestReachabilityGraph_RemoveLinksFor(t *testing.T) {
	reg := lineRegistry(t, 3, 100)
	g := NewReachabilityGraph(reg, DefaultParams(), nil)
	require.NoError(t, g.SetLink(Link{Src: 0, Dst: 1, Channel: ChannelAny, Ratio: 1, RSSI: -50}))
	require.NoError(t, g.SetLink(Link{Src: 2, Dst: 1, Channel: 11, Ratio: 1, RSSI: -50}))
	require.NoError(t, g.SetLink(Link{Src: 0, Dst: 2, Channel: ChannelAny, Ratio: 1, RSSI: -50}))

	assert.Equal(t, 2, g.RemoveLinksFor(1))
	assert.Equal(t, 0, g.RemoveLinksFor(1))
	assert.Equal(t, []Link{{Src: 0, Dst: 2, Channel: ChannelAny, Ratio: 1, RSSI: -50}}, g.Links())
}

func TestReachabilityGraph_Links_Sorted(t *testing.T) {
	reg := lineRegistry(t, 3, 1)
	g := NewReachabilityGraph(reg, DefaultParams(), nil)
	for _, l := range []Link{
		{Src: 2, Dst: 0, Channel: 5},
		{Src: 0, Dst: 2, Channel: 11},
		{Src: 0, Dst: 2, Channel: ChannelAny},
		{Src: 0, Dst: 1, Channel: 3},
	} {
		require.NoError(t, g.SetLink(l))
	}

	links := g.Links()
	require.Len(t, links, 4)
	assert.Equal(t, Link{Src: 0, Dst: 1, Channel: 3}, links[0])
	assert.Equal(t, ChannelAny, links[1].Channel)
	assert.Equal(t, 11, links[2].Channel)
	assert.Equal(t, RadioID(2), links[3].Src)

	l, ok := g.Link(0, 2, 11)
	assert.True(t, ok)
	assert.Equal(t, 11, l.Channel)
}

func TestLink_Validate(t *testing.T) {
	tests := []struct {
		name string
		link Link
		ok   bool
	}{
		{"valid", Link{Src: 0, Dst: 1, Channel: ChannelAny, Ratio: 0.5, RSSI: -70}, true},
		{"self link", Link{Src: 1, Dst: 1, Ratio: 0.5}, false},
		{"ratio above one", Link{Src: 0, Dst: 1, Ratio: 1.5}, false},
		{"negative ratio", Link{Src: 0, Dst: 1, Ratio: -0.1}, false},
		{"bad channel", Link{Src: 0, Dst: 1, Channel: -2}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.link.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidLink)
			}
		})
	}
}
