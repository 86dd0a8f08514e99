package sim

import (
	"fmt"
	"math"
)

// RadioID identifies a radio within a simulation. IDs are unique per Registry.
type RadioID int

// Position is a point in 3-D simulation space. Units match the propagation
// transmit range.
type Position struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
	Z float64 `yaml:"z" json:"z"`
}

// DistanceTo returns the Euclidean distance between two positions.
func (p Position) DistanceTo(other Position) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	dz := p.Z - other.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

func (p Position) String() string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", p.X, p.Y, p.Z)
}

// ChannelAny marks a radio (or link) that listens on every channel.
const ChannelAny = -1

// Signal-strength constants in dBm.
const (
	SignalStrong  = -10.0
	SignalWeak    = -95.0
	SignalNothing = -100.0
)

// Radio is a transceiver attached to a simulated node.
//
// Position changes must go through Registry.Move so the reachability graph
// learns about them; the radio itself holds no reference back to the medium.
// Reception flags are written by the medium and the scheduler only.
type Radio struct {
	id       RadioID
	position Position
	channel  int

	on           bool
	transmitting bool
	receiving    bool
	interfered   bool

	signal   float64 // current signal strength (dBm)
	baseRSSI float64 // ambient floor restored before every signal-strength pass
}

// NewRadio creates a powered-on radio listening on every channel with the
// ambient signal floor.
func NewRadio(id RadioID, pos Position) *Radio {
	return &Radio{
		id:       id,
		position: pos,
		channel:  ChannelAny,
		on:       true,
		signal:   SignalNothing,
		baseRSSI: SignalNothing,
	}
}

func (r *Radio) ID() RadioID          { return r.id }
func (r *Radio) Position() Position   { return r.position }
func (r *Radio) Channel() int         { return r.channel }
func (r *Radio) IsOn() bool           { return r.on }
func (r *Radio) IsTransmitting() bool { return r.transmitting }
func (r *Radio) IsReceiving() bool    { return r.receiving }
func (r *Radio) IsInterfered() bool   { return r.interfered }

// SignalStrength returns the signal strength last computed by
// Medium.UpdateSignalStrengths, or the base RSSI before the first pass.
func (r *Radio) SignalStrength() float64 { return r.signal }

// BaseRSSI returns the ambient floor the radio resets to.
func (r *Radio) BaseRSSI() float64 { return r.baseRSSI }

// SetChannel retunes the radio. Connections already resolved are not
// re-evaluated.
func (r *Radio) SetChannel(channel int) { r.channel = channel }

// SetOn powers the radio on or off. Callers that switch a receiving radio
// off should also call Medium.InterfereReceiver.
func (r *Radio) SetOn(on bool) { r.on = on }

// SetBaseRSSI sets the ambient floor. It takes effect at the next
// signal-strength pass.
func (r *Radio) SetBaseRSSI(rssi float64) { r.baseRSSI = rssi }

// InterfereAnyReception marks the receiver disrupted. An ongoing reception
// will not complete, and a radio that powers up mid-transmission still sees
// a corrupted channel.
func (r *Radio) InterfereAnyReception() { r.interfered = true }

func (r *Radio) raiseSignal(rssi float64) {
	if r.signal < rssi {
		r.signal = rssi
	}
}

func (r *Radio) String() string {
	return fmt.Sprintf("radio %d", r.id)
}

// channelsConflict reports whether two channel settings are both set and
// differ.
func channelsConflict(a, b int) bool {
	return a >= 0 && b >= 0 && a != b
}
