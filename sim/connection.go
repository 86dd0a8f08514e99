package sim

import "github.com/rs/xid"

// Connection is the outcome of resolving one transmission: the radios that
// will receive the packet and the radios that will not.
//
// A radio is never both a destination and interfered. Once the medium has
// finished resolving the transmission, the only accepted change is moving a
// destination to interfered (capture by a stronger sender, or the receiver
// powering off).
type Connection struct {
	id     xid.ID
	source *Radio

	destinations []*Radio
	interfered   []*Radio
	destSet      map[*Radio]struct{}
	interfSet    map[*Radio]struct{}
	// dormant holds interfered radios tuned to another channel; their
	// interfered flag is left untouched.
	dormant map[*Radio]struct{}

	captures  []Capture
	finalized bool
}

// Capture records a contended reception decided while the connection was
// resolved.
type Capture struct {
	Receiver  RadioID
	Outcome   CaptureOutcome
	OldSignal float64
	NewSignal float64
	// Displaced lists the earlier connections that lost the receiver.
	Displaced []string
}

func newConnection(source *Radio) *Connection {
	return &Connection{
		id:        xid.New(),
		source:    source,
		destSet:   make(map[*Radio]struct{}),
		interfSet: make(map[*Radio]struct{}),
		dormant:   make(map[*Radio]struct{}),
	}
}

// ID returns the globally-unique connection identifier.
func (c *Connection) ID() string { return c.id.String() }

func (c *Connection) Source() *Radio { return c.source }

// Destinations returns the receiving radios in resolution order.
func (c *Connection) Destinations() []*Radio {
	out := make([]*Radio, len(c.destinations))
	copy(out, c.destinations)
	return out
}

// Interfered returns the radios that will not receive the packet, in the
// order they were marked.
func (c *Connection) Interfered() []*Radio {
	out := make([]*Radio, len(c.interfered))
	copy(out, c.interfered)
	return out
}

func (c *Connection) IsDestination(r *Radio) bool {
	_, ok := c.destSet[r]
	return ok
}

func (c *Connection) IsInterfered(r *Radio) bool {
	_, ok := c.interfSet[r]
	return ok
}

// Involves reports whether r is a destination or interfered.
func (c *Connection) Involves(r *Radio) bool {
	return c.IsDestination(r) || c.IsInterfered(r)
}

func (c *Connection) addDestination(r *Radio) {
	if c.finalized || c.Involves(r) {
		return
	}
	c.destinations = append(c.destinations, r)
	c.destSet[r] = struct{}{}
}

// addInterfered marks r interfered, moving it out of the destinations if
// needed, and raises the radio's interfered flag.
func (c *Connection) addInterfered(r *Radio) {
	if c.IsInterfered(r) {
		return
	}
	if c.IsDestination(r) {
		delete(c.destSet, r)
		for i, d := range c.destinations {
			if d == r {
				c.destinations = append(c.destinations[:i], c.destinations[i+1:]...)
				break
			}
		}
	}
	c.interfered = append(c.interfered, r)
	c.interfSet[r] = struct{}{}
	r.interfered = true
}

// addDormant lists r as interfered without disturbing its receiver: r is
// listening on another channel.
func (c *Connection) addDormant(r *Radio) {
	if c.finalized || c.Involves(r) {
		return
	}
	c.interfered = append(c.interfered, r)
	c.interfSet[r] = struct{}{}
	c.dormant[r] = struct{}{}
}

// disrupts reports whether c holds r's interfered flag raised.
func (c *Connection) disrupts(r *Radio) bool {
	if _, ok := c.dormant[r]; ok {
		return false
	}
	return c.IsInterfered(r)
}

// Captures returns the contention decisions taken while resolving c.
func (c *Connection) Captures() []Capture {
	out := make([]Capture, len(c.captures))
	copy(out, c.captures)
	return out
}

func (c *Connection) finalize() { c.finalized = true }
