package sim

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrInvalidLink is returned for explicit links that cannot be stored.
var ErrInvalidLink = errors.New("invalid link")

// GatewayPredicate decides whether a radio pair bypasses distance, channel,
// and probability checks. Nil means no pair is a gateway pair.
type GatewayPredicate func(a, b *Radio) bool

// GatewayBelow treats a pair as gateways when both IDs are strictly below
// threshold. A non-positive threshold disables gateways.
func GatewayBelow(threshold RadioID) GatewayPredicate {
	if threshold <= 0 {
		return nil
	}
	return func(a, b *Radio) bool {
		return a.id < threshold && b.id < threshold
	}
}

func (g GatewayPredicate) matches(a, b *Radio) bool {
	return g != nil && g(a, b)
}

// Link is an explicitly configured directed edge. It replaces the
// distance-derived edge for its pair and carries the reception ratio and
// RSSI used verbatim by the medium.
type Link struct {
	Src     RadioID `yaml:"src" json:"src"`
	Dst     RadioID `yaml:"dst" json:"dst"`
	Channel int     `yaml:"channel" json:"channel"` // ChannelAny matches every channel
	Ratio   float64 `yaml:"ratio" json:"ratio"`
	RSSI    float64 `yaml:"rssi" json:"rssi"`
	LQI     int     `yaml:"lqi" json:"lqi"`
}

// Validate checks that the link can be stored.
func (l Link) Validate() error {
	if l.Src == l.Dst {
		return fmt.Errorf("%w: self link on radio %d", ErrInvalidLink, l.Src)
	}
	if math.IsNaN(l.Ratio) || l.Ratio < 0 || l.Ratio > 1 {
		return fmt.Errorf("%w: ratio must be in [0, 1], got %v", ErrInvalidLink, l.Ratio)
	}
	if math.IsNaN(l.RSSI) || math.IsInf(l.RSSI, 0) {
		return fmt.Errorf("%w: rssi must be finite, got %v", ErrInvalidLink, l.RSSI)
	}
	if l.Channel < ChannelAny {
		return fmt.Errorf("%w: channel must be >= %d, got %d", ErrInvalidLink, ChannelAny, l.Channel)
	}
	return nil
}

// LinkStore is the capability a topology editor needs from the medium.
type LinkStore interface {
	SetLink(l Link) error
	RemoveLink(src, dst RadioID, channel int) bool
	RemoveLinksFor(id RadioID) int
	Link(src, dst RadioID, channel int) (Link, bool)
	Links() []Link
}

// Edge is a directed candidate connection from Source to Dest.
type Edge struct {
	Source   *Radio
	Dest     *Radio
	Distance float64
	// Link is set when the edge comes from an explicit link rather than
	// from distance.
	Link *Link
}

type radioPair struct {
	src, dst RadioID
}

// ReachabilityGraph caches, for every source radio, the radios that could be
// affected by its transmissions.
//
// The graph is recomputed lazily, at most once per dirty period: after
// MarkDirty, after any registry change, or after an explicit link change.
// Recomputation is a full O(N²) pass over the registry.
type ReachabilityGraph struct {
	registry *Registry
	params   Params
	gateway  GatewayPredicate

	dirty       bool
	seenVersion uint64
	edges       map[RadioID][]Edge
	links       map[radioPair]map[int]Link
	analyses    int
}

// NewReachabilityGraph creates a graph over the registry. The graph starts
// dirty.
func NewReachabilityGraph(registry *Registry, params Params, gateway GatewayPredicate) *ReachabilityGraph {
	if registry == nil {
		panic("NewReachabilityGraph: registry must not be nil")
	}
	return &ReachabilityGraph{
		registry: registry,
		params:   params,
		gateway:  gateway,
		dirty:    true,
		edges:    make(map[RadioID][]Edge),
		links:    make(map[radioPair]map[int]Link),
	}
}

// MarkDirty forces recomputation on the next query.
func (g *ReachabilityGraph) MarkDirty() { g.dirty = true }

// Analyses returns how many full recomputations have run.
func (g *ReachabilityGraph) Analyses() int { return g.analyses }

// Candidates returns the outgoing edges of src in registration order of the
// destinations. Unregistered sources have no candidates.
func (g *ReachabilityGraph) Candidates(src *Radio) []Edge {
	if !g.registry.Contains(src) {
		return nil
	}
	g.ensureFresh()
	edges := g.edges[src.id]
	out := make([]Edge, len(edges))
	copy(out, edges)
	return out
}

// Edges returns every edge, grouped by source in registration order.
func (g *ReachabilityGraph) Edges() []Edge {
	g.ensureFresh()
	out := make([]Edge, 0)
	for _, r := range g.registry.radios {
		out = append(out, g.edges[r.id]...)
	}
	return out
}

func (g *ReachabilityGraph) ensureFresh() {
	if !g.dirty && g.seenVersion == g.registry.Version() {
		return
	}
	g.analyze()
}

func (g *ReachabilityGraph) analyze() {
	radios := g.registry.radios
	edges := make(map[RadioID][]Edge, len(radios))
	for _, src := range radios {
		out := make([]Edge, 0)
		for _, dst := range radios {
			if src == dst {
				continue
			}
			d := src.position.DistanceTo(dst.position)
			if explicit := g.links[radioPair{src.id, dst.id}]; len(explicit) > 0 {
				for _, ch := range sortedChannels(explicit) {
					l := explicit[ch]
					out = append(out, Edge{Source: src, Dest: dst, Distance: d, Link: &l})
				}
				continue
			}
			if d < g.params.TransmitRange || g.gateway.matches(src, dst) {
				out = append(out, Edge{Source: src, Dest: dst, Distance: d})
			}
		}
		edges[src.id] = out
	}
	g.edges = edges
	g.dirty = false
	g.seenVersion = g.registry.Version()
	g.analyses++
}

// sortedChannels orders specific channels before ChannelAny so the medium
// prefers an exact-channel link over a wildcard one.
func sortedChannels(m map[int]Link) []int {
	channels := make([]int, 0, len(m))
	for ch := range m {
		channels = append(channels, ch)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(channels)))
	return channels
}

// SetLink stores or replaces an explicit link.
func (g *ReachabilityGraph) SetLink(l Link) error {
	if err := l.Validate(); err != nil {
		return err
	}
	key := radioPair{l.Src, l.Dst}
	if g.links[key] == nil {
		g.links[key] = make(map[int]Link)
	}
	g.links[key][l.Channel] = l
	g.dirty = true
	return nil
}

// RemoveLink deletes an explicit link. Returns false if it did not exist.
func (g *ReachabilityGraph) RemoveLink(src, dst RadioID, channel int) bool {
	key := radioPair{src, dst}
	byChannel, ok := g.links[key]
	if !ok {
		return false
	}
	if _, ok := byChannel[channel]; !ok {
		return false
	}
	delete(byChannel, channel)
	if len(byChannel) == 0 {
		delete(g.links, key)
	}
	g.dirty = true
	return true
}

// RemoveLinksFor deletes every explicit link touching id and returns how
// many were removed.
func (g *ReachabilityGraph) RemoveLinksFor(id RadioID) int {
	removed := 0
	for key, byChannel := range g.links {
		if key.src == id || key.dst == id {
			removed += len(byChannel)
			delete(g.links, key)
		}
	}
	if removed > 0 {
		g.dirty = true
	}
	return removed
}

// Link looks up an explicit link.
func (g *ReachabilityGraph) Link(src, dst RadioID, channel int) (Link, bool) {
	l, ok := g.links[radioPair{src, dst}][channel]
	return l, ok
}

func (g *ReachabilityGraph) linksBetween(src, dst RadioID) []Link {
	byChannel := g.links[radioPair{src, dst}]
	if len(byChannel) == 0 {
		return nil
	}
	out := make([]Link, 0, len(byChannel))
	for _, ch := range sortedChannels(byChannel) {
		out = append(out, byChannel[ch])
	}
	return out
}

// Links returns every explicit link ordered by (src, dst, channel).
func (g *ReachabilityGraph) Links() []Link {
	out := make([]Link, 0)
	for _, byChannel := range g.links {
		for _, l := range byChannel {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Src != out[j].Src {
			return out[i].Src < out[j].Src
		}
		if out[i].Dst != out[j].Dst {
			return out[i].Dst < out[j].Dst
		}
		return out[i].Channel < out[j].Channel
	})
	return out
}
