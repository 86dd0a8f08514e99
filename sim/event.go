package sim

// EventType classifies events for same-timestamp ordering.
type EventType int

const (
	EventTypeTransmissionEnd EventType = iota
	EventTypeMove
	EventTypeAction
	EventTypeTransmissionStart
)

// EventTypePriority orders events that share a timestamp: transmissions end
// before radios move, topology actions apply after moves, and new
// transmissions start last so they see the settled state.
var EventTypePriority = map[EventType]int{
	EventTypeTransmissionEnd:   0,
	EventTypeMove:              1,
	EventTypeAction:            2,
	EventTypeTransmissionStart: 3,
}

// Event defines the interface for all simulation events.
// Each event must have a Timestamp (in microseconds) and an Execute method
// that advances simulation state when invoked.
type Event interface {
	Timestamp() int64
	Type() EventType
	Execute(*Simulator)
}

// TransmissionStartEvent starts the next packet of a radio's traffic source.
type TransmissionStartEvent struct {
	time   int64
	radio  RadioID
	source *trafficSource
}

func (e *TransmissionStartEvent) Timestamp() int64 { return e.time }
func (e *TransmissionStartEvent) Type() EventType  { return EventTypeTransmissionStart }

// Execute transmits if the radio is idle and schedules the next start.
// The chain stops once the radio is unregistered or its traffic replaced.
func (e *TransmissionStartEvent) Execute(s *Simulator) {
	if s.traffic[e.radio] != e.source {
		return
	}
	r, ok := s.registry.Radio(e.radio)
	if !ok {
		s.log.WithField("radio", e.radio).Debug("<< TransmissionStart: radio gone, stopping traffic")
		delete(s.traffic, e.radio)
		return
	}
	if !r.on || r.transmitting {
		s.metrics.SkippedTransmissions++
	} else {
		s.beginTransmission(r, e.source.airtime)
	}
	next := e.time + e.source.sampler.NextInterval(e.source.rng)
	s.Schedule(&TransmissionStartEvent{time: next, radio: e.radio, source: e.source})
}

// TransmissionEndEvent retires a connection when its airtime elapses.
type TransmissionEndEvent struct {
	time int64
	conn *Connection
}

func (e *TransmissionEndEvent) Timestamp() int64 { return e.time }
func (e *TransmissionEndEvent) Type() EventType  { return EventTypeTransmissionEnd }

func (e *TransmissionEndEvent) Execute(s *Simulator) {
	s.endTransmission(e.conn)
}

// ActionEvent runs an arbitrary state change at a fixed time. Used for
// scripted power, channel, and topology changes.
type ActionEvent struct {
	time int64
	name string
	fn   func(*Simulator)
}

// NewActionEvent creates an action event.
func NewActionEvent(at int64, name string, fn func(*Simulator)) *ActionEvent {
	return &ActionEvent{time: at, name: name, fn: fn}
}

func (e *ActionEvent) Timestamp() int64 { return e.time }
func (e *ActionEvent) Type() EventType  { return EventTypeAction }
func (e *ActionEvent) Name() string     { return e.name }

func (e *ActionEvent) Execute(s *Simulator) {
	s.log.WithField("action", e.name).Debugf("<< Action at %d us", e.time)
	e.fn(s)
}
