// sim/simulator.go
package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/radiosim/radiosim/sim/trace"
)

// Config configures a Simulator.
type Config struct {
	Horizon  int64 // microseconds; events after the horizon are not executed
	Seed     int64
	Params   Params
	Gateway  GatewayPredicate
	Logger   logrus.FieldLogger
	Recorder MetricsRecorder
	Trace    trace.TraceConfig
}

// Simulator is the scheduler around the medium: it owns simulated time, the
// event queue, and the transmission lifecycle (start, reception, teardown).
//
// Thread-safety: NOT thread-safe. Independent simulators may run in
// separate goroutines.
type Simulator struct {
	clock   int64
	horizon int64
	events  *EventHeap

	registry *Registry
	medium   *Medium
	rng      *PartitionedRNG
	traffic  map[RadioID]*trafficSource

	metrics  *Metrics
	trace    *trace.SimulationTrace
	recorder MetricsRecorder
	log      logrus.FieldLogger
}

// NewSimulator creates a simulator with an empty registry.
func NewSimulator(cfg Config) (*Simulator, error) {
	if err := cfg.Params.Validate(); err != nil {
		return nil, fmt.Errorf("propagation params: %w", err)
	}
	if !trace.IsValidTraceLevel(string(cfg.Trace.Level)) {
		return nil, fmt.Errorf("unknown trace level %q; valid: none, connections", cfg.Trace.Level)
	}
	if cfg.Horizon <= 0 {
		cfg.Horizon = math.MaxInt64
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if cfg.Recorder == nil {
		cfg.Recorder = noopRecorder{}
	}

	rng := NewPartitionedRNG(NewSimulationKey(cfg.Seed))
	registry := NewRegistry()
	s := &Simulator{
		horizon:  cfg.Horizon,
		events:   NewEventHeap(),
		registry: registry,
		rng:      rng,
		traffic:  make(map[RadioID]*trafficSource),
		metrics:  NewMetrics(),
		recorder: cfg.Recorder,
		log:      cfg.Logger,
	}
	s.medium = NewMedium(registry, MediumConfig{
		Params:   cfg.Params,
		Gateway:  cfg.Gateway,
		Random:   rng.ForSubsystem(SubsystemMedium),
		Logger:   cfg.Logger,
		Recorder: cfg.Recorder,
	})
	if cfg.Trace.Enabled() {
		s.trace = trace.NewSimulationTrace(cfg.Trace)
	}
	registry.OnUnregister(func(r *Radio) {
		delete(s.traffic, r.id)
		s.recorder.SetPopulation(registry.Len(), s.medium.ActiveCount())
	})
	registry.OnRegister(func(r *Radio) {
		s.recorder.SetPopulation(registry.Len(), s.medium.ActiveCount())
	})
	return s, nil
}

func (s *Simulator) Clock() int64                  { return s.clock }
func (s *Simulator) Horizon() int64                { return s.horizon }
func (s *Simulator) Registry() *Registry           { return s.registry }
func (s *Simulator) Medium() *Medium               { return s.medium }
func (s *Simulator) Metrics() *Metrics             { return s.metrics }
func (s *Simulator) Trace() *trace.SimulationTrace { return s.trace }
func (s *Simulator) RNG() *PartitionedRNG          { return s.rng }
func (s *Simulator) Logger() logrus.FieldLogger    { return s.log }

// Schedule pushes an event onto the queue. Events in the past run at the
// current time.
func (s *Simulator) Schedule(ev Event) {
	s.events.Schedule(ev)
}

// Run processes events until the queue drains or the horizon passes.
func (s *Simulator) Run() {
	_ = s.RunContext(context.Background())
}

// RunContext is Run with cancellation, checked between simulated instants.
func (s *Simulator) RunContext(ctx context.Context) error {
	s.log.Infof("[tick %07d] Simulation started with %d radios", s.clock, s.registry.Len())
	for s.events.Len() > 0 {
		if s.events.Peek().Timestamp() > s.horizon {
			break
		}
		ev := s.events.PopNext()
		// advance the clock; events scheduled in the past run now
		s.clock = max(s.clock, ev.Timestamp())
		s.log.Debugf("[tick %07d] Executing %T", s.clock, ev)
		ev.Execute(s)

		if next := s.events.Peek(); next == nil || next.Timestamp() > s.clock {
			s.medium.UpdateSignalStrengths()
			s.metrics.SignalUpdates++
			if err := ctx.Err(); err != nil {
				s.finish()
				return err
			}
		}
	}
	s.finish()
	return nil
}

func (s *Simulator) finish() {
	s.metrics.SimEndedTime = min(s.clock, s.horizon)
	s.metrics.absorb(s.medium)
	s.log.Infof("[tick %07d] Simulation ended", s.clock)
}

// AddRadio registers a radio at the current time.
func (s *Simulator) AddRadio(r *Radio) error {
	return s.registry.Register(r)
}

// Transmit starts a single transmission from a registered radio lasting
// airtime microseconds. Returns the resolved connection.
func (s *Simulator) Transmit(id RadioID, airtime int64) (*Connection, error) {
	r, ok := s.registry.Radio(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrRadioNotFound, id)
	}
	if airtime <= 0 {
		return nil, fmt.Errorf("airtime must be positive, got %d", airtime)
	}
	if !r.on || r.transmitting {
		s.metrics.SkippedTransmissions++
		return nil, fmt.Errorf("radio %d is not ready to transmit", id)
	}
	return s.beginTransmission(r, airtime), nil
}

func (s *Simulator) beginTransmission(r *Radio, airtime int64) *Connection {
	// half-duplex: a receiver that starts transmitting loses its reception
	if r.receiving {
		s.medium.InterfereReceiver(r)
	}
	r.transmitting = true

	conn := s.medium.CreateConnection(r)
	for _, d := range conn.destinations {
		d.receiving = true
		d.interfered = false
	}

	s.metrics.recordConnection(conn)
	if s.trace != nil {
		s.traceConnection(conn)
	}
	s.log.WithField("radio", r.id).Debugf("<< Transmission: %d destinations, %d interfered",
		len(conn.destinations), len(conn.interfered))

	s.Schedule(&TransmissionEndEvent{time: s.clock + airtime, conn: conn})
	return conn
}

func (s *Simulator) endTransmission(conn *Connection) {
	s.medium.RetireConnection(conn)
	src := conn.source
	src.transmitting = false

	delivered := make([]*Radio, 0, len(conn.destinations))
	lost := make([]*Radio, 0, len(conn.interfered))
	for _, d := range conn.destinations {
		if d.on && s.registry.Contains(d) {
			delivered = append(delivered, d)
		} else {
			lost = append(lost, d)
		}
	}
	lost = append(lost, conn.interfered...)

	for _, r := range conn.destinations {
		s.releaseReceiver(r)
	}
	for _, r := range conn.interfered {
		s.releaseReceiver(r)
	}

	s.metrics.recordTeardown(src, delivered, lost)
	s.recorder.RecordDelivery(len(delivered), len(lost))
	if s.trace != nil {
		s.trace.RecordDelivery(trace.DeliveryRecord{
			ConnectionID: conn.ID(),
			Clock:        s.clock,
			Source:       int(src.id),
			Delivered:    radioIDs(delivered),
			Lost:         radioIDs(lost),
		})
	}
}

// releaseReceiver clears reception flags no remaining active connection
// still accounts for.
func (s *Simulator) releaseReceiver(r *Radio) {
	stillDestination, stillDisrupted := false, false
	for _, c := range s.medium.active {
		if c.IsDestination(r) {
			stillDestination = true
		}
		if c.disrupts(r) {
			stillDisrupted = true
		}
	}
	if !stillDestination {
		r.receiving = false
	}
	if !stillDisrupted {
		r.interfered = false
	}
}

// SetPower switches a radio on or off. A receiving radio that goes off
// loses its ongoing receptions.
func (s *Simulator) SetPower(id RadioID, on bool) bool {
	r, ok := s.registry.Radio(id)
	if !ok {
		return false
	}
	r.SetOn(on)
	if !on && r.receiving {
		s.medium.InterfereReceiver(r)
	}
	return true
}

// SetChannel retunes a radio.
func (s *Simulator) SetChannel(id RadioID, channel int) bool {
	r, ok := s.registry.Radio(id)
	if !ok {
		return false
	}
	r.SetChannel(channel)
	return true
}

func (s *Simulator) traceConnection(conn *Connection) {
	s.trace.RecordConnection(trace.ConnectionRecord{
		ConnectionID: conn.ID(),
		Clock:        s.clock,
		Source:       int(conn.source.id),
		Destinations: radioIDs(conn.destinations),
		Interfered:   radioIDs(conn.interfered),
	})
	for _, c := range conn.captures {
		s.trace.RecordCapture(trace.CaptureRecord{
			ConnectionID: conn.ID(),
			Clock:        s.clock,
			Receiver:     int(c.Receiver),
			Outcome:      string(c.Outcome),
			OldSignal:    c.OldSignal,
			NewSignal:    c.NewSignal,
			Displaced:    c.Displaced,
		})
	}
}

func radioIDs(radios []*Radio) []int {
	ids := make([]int, len(radios))
	for i, r := range radios {
		ids[i] = int(r.id)
	}
	return ids
}
