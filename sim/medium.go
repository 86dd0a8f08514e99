package sim

import (
	"math/rand"

	"github.com/sirupsen/logrus"
)

// RandomSource is the randomness the medium draws from. *rand.Rand
// satisfies it.
type RandomSource interface {
	Float64() float64
	NormFloat64() float64
}

// MediumConfig carries the medium's dependencies.
type MediumConfig struct {
	Params  Params
	Gateway GatewayPredicate
	// Random drives reception draws and RSSI noise. Nil uses a fixed seed.
	Random   RandomSource
	Logger   logrus.FieldLogger
	Recorder MetricsRecorder
}

// ResolutionStats counts how candidates were resolved.
type ResolutionStats struct {
	Connections       int
	GatewayDeliveries int
	ChannelMismatches int
	OutOfRange        int
	OffReceivers      int
	BusyReceivers     int
	FailedDraws       int
	CapturesKept      int
	CapturesDisplaced int
	Collisions        int
	StaleCandidates   int
}

// Medium is the logistic-loss radio medium: it resolves transmissions into
// connections and maintains per-radio signal strengths.
//
// Thread-safety: NOT thread-safe. Must be called from single goroutine.
type Medium struct {
	registry *Registry
	graph    *ReachabilityGraph
	params   Params
	gateway  GatewayPredicate
	rng      RandomSource
	log      logrus.FieldLogger
	recorder MetricsRecorder

	active       []*Connection
	stats        ResolutionStats
	seenAnalyses int
}

// NewMedium creates a medium over the registry. Panics if registry is nil.
func NewMedium(registry *Registry, cfg MediumConfig) *Medium {
	if registry == nil {
		panic("NewMedium: registry must not be nil")
	}
	if cfg.Random == nil {
		cfg.Random = rand.New(rand.NewSource(1))
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if cfg.Recorder == nil {
		cfg.Recorder = noopRecorder{}
	}
	return &Medium{
		registry: registry,
		graph:    NewReachabilityGraph(registry, cfg.Params, cfg.Gateway),
		params:   cfg.Params,
		gateway:  cfg.Gateway,
		rng:      cfg.Random,
		log:      cfg.Logger.WithField("component", "medium"),
		recorder: cfg.Recorder,
		active:   make([]*Connection, 0),
	}
}

func (m *Medium) Params() Params             { return m.params }
func (m *Medium) Graph() *ReachabilityGraph  { return m.graph }
func (m *Medium) Links() LinkStore           { return m.graph }
func (m *Medium) Stats() ResolutionStats     { return m.stats }
func (m *Medium) Registry() *Registry        { return m.registry }
func (m *Medium) ActiveCount() int           { return len(m.active) }
func (m *Medium) IsGateway(a, b *Radio) bool { return m.gateway.matches(a, b) }

// ActiveConnections returns the connections created and not yet retired,
// oldest first.
func (m *Medium) ActiveConnections() []*Connection {
	out := make([]*Connection, len(m.active))
	copy(out, m.active)
	return out
}

// RetireConnection removes c from the active set. Returns false if c was not
// active. Radio flags are left to the caller.
func (m *Medium) RetireConnection(c *Connection) bool {
	for i, a := range m.active {
		if a == c {
			m.active = append(m.active[:i], m.active[i+1:]...)
			m.recorder.SetPopulation(m.registry.Len(), len(m.active))
			return true
		}
	}
	return false
}

// SuccessProbability is the reception probability from src to dst ignoring
// contention. Unregistered radios yield 0.
func (m *Medium) SuccessProbability(src, dst *Radio) float64 {
	if !m.registry.Contains(src) || !m.registry.Contains(dst) || src == dst {
		return 0
	}
	if l, ok := m.linkFor(src, dst); ok {
		return l.Ratio
	}
	return m.params.SuccessProbability(src.position.DistanceTo(dst.position))
}

// CreateConnection resolves a transmission starting now from src. The
// returned connection is active until RetireConnection. An unregistered
// source yields an empty, inactive connection.
func (m *Medium) CreateConnection(src *Radio) *Connection {
	if src == nil || !m.registry.Contains(src) {
		m.log.WithField("radio", radioLabel(src)).Debug("connection requested for unregistered radio")
		conn := newConnection(src)
		conn.finalize()
		return conn
	}

	conn := newConnection(src)
	for _, e := range m.graph.Candidates(src) {
		m.resolveCandidate(conn, e)
	}
	conn.finalize()
	m.noteAnalyses()

	m.active = append(m.active, conn)
	m.stats.Connections++
	m.recorder.RecordConnection(len(conn.destinations), len(conn.interfered))
	m.recorder.SetPopulation(m.registry.Len(), len(m.active))
	return conn
}

func (m *Medium) resolveCandidate(conn *Connection, e Edge) {
	src, recv := conn.source, e.Dest
	if conn.Involves(recv) {
		return
	}
	if !m.registry.Contains(recv) {
		m.stats.StaleCandidates++
		m.log.WithField("radio", recv.id).Debug("skipping candidate no longer registered")
		return
	}

	if m.gateway.matches(src, recv) {
		conn.addDestination(recv)
		m.stats.GatewayDeliveries++
		return
	}
	if e.Link != nil && e.Link.Channel != ChannelAny && channelsConflict(src.channel, e.Link.Channel) {
		return
	}
	if channelsConflict(src.channel, recv.channel) {
		conn.addDormant(recv)
		m.stats.ChannelMismatches++
		return
	}
	if e.Link == nil && e.Distance > m.params.TransmitRange {
		m.stats.OutOfRange++
		return
	}

	switch {
	case !recv.on:
		conn.addInterfered(recv)
		recv.InterfereAnyReception()
		m.stats.OffReceivers++
		return
	case recv.interfered, recv.transmitting:
		conn.addInterfered(recv)
		m.stats.BusyReceivers++
		return
	}

	receiveOK := m.rng.Float64() < m.receptionRatio(e)
	if recv.receiving {
		receiveOK = m.contend(conn, recv, e, receiveOK)
	}
	if receiveOK {
		conn.addDestination(recv)
		return
	}
	conn.addInterfered(recv)
	m.stats.FailedDraws++
}

// contend applies the capture rule for a receiver already busy with an
// earlier connection. Signals are compared on mean RSSI.
func (m *Medium) contend(conn *Connection, recv *Radio, e Edge, receiveOK bool) bool {
	oldSignal, ok := m.strongestReception(recv)
	if !ok {
		oldSignal = recv.signal
	}
	newSignal := m.meanSignal(e)
	margin := m.params.CoChannelRejection

	capture := Capture{Receiver: recv.id, OldSignal: oldSignal, NewSignal: newSignal}
	switch {
	case oldSignal+margin > newSignal:
		capture.Outcome = CaptureKept
		receiveOK = false
		m.stats.CapturesKept++
	case newSignal+margin > oldSignal:
		capture.Outcome = CaptureDisplaced
		capture.Displaced = m.InterfereReceiver(recv)
		m.stats.CapturesDisplaced++
	default:
		capture.Outcome = CaptureCollision
		capture.Displaced = m.InterfereReceiver(recv)
		receiveOK = false
		m.stats.Collisions++
	}
	conn.captures = append(conn.captures, capture)
	m.recorder.RecordCapture(capture.Outcome)
	m.log.WithFields(logrus.Fields{
		"radio":   recv.id,
		"source":  conn.source.id,
		"outcome": capture.Outcome,
	}).Debugf("contended reception old=%.2f new=%.2f", oldSignal, newSignal)
	return receiveOK
}

// InterfereReceiver moves r from destination to interfered in every active
// connection and marks r disrupted. Returns the IDs of the amended
// connections.
func (m *Medium) InterfereReceiver(r *Radio) []string {
	amended := make([]string, 0)
	for _, c := range m.active {
		if c.IsDestination(r) {
			c.addInterfered(r)
			amended = append(amended, c.ID())
		}
	}
	r.InterfereAnyReception()
	return amended
}

// strongestReception returns the highest mean RSSI among active connections
// that have r as a destination.
func (m *Medium) strongestReception(r *Radio) (float64, bool) {
	best, found := 0.0, false
	for _, c := range m.active {
		if !c.IsDestination(r) || !m.registry.Contains(c.source) {
			continue
		}
		s := m.meanSignalBetween(c.source, r)
		if !found || s > best {
			best, found = s, true
		}
	}
	return best, found
}

func (m *Medium) receptionRatio(e Edge) float64 {
	if e.Link != nil {
		return e.Link.Ratio
	}
	return m.params.SuccessProbability(e.Distance)
}

func (m *Medium) meanSignal(e Edge) float64 {
	if e.Link != nil {
		return e.Link.RSSI
	}
	return m.params.MeanRSSI(e.Distance)
}

func (m *Medium) meanSignalBetween(src, dst *Radio) float64 {
	if l, ok := m.linkFor(src, dst); ok {
		return l.RSSI
	}
	return m.params.MeanRSSI(src.position.DistanceTo(dst.position))
}

func (m *Medium) noisySignalBetween(src, dst *Radio) float64 {
	if l, ok := m.linkFor(src, dst); ok {
		return l.RSSI
	}
	return m.params.NoisyRSSI(src.position.DistanceTo(dst.position), m.rng)
}

// linkFor finds the explicit link used for src→dst on src's current channel,
// in the same preference order the graph lists edges.
func (m *Medium) linkFor(src, dst *Radio) (Link, bool) {
	for _, l := range m.graph.linksBetween(src.id, dst.id) {
		if l.Channel == ChannelAny || !channelsConflict(src.channel, l.Channel) {
			return l, true
		}
	}
	return Link{}, false
}

func (m *Medium) noteAnalyses() {
	for m.seenAnalyses < m.graph.Analyses() {
		m.seenAnalyses++
		m.recorder.RecordGraphAnalysis()
	}
}

func radioLabel(r *Radio) any {
	if r == nil {
		return "<nil>"
	}
	return r.id
}
