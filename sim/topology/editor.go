// Package topology edits the simulated network at runtime: adding and
// removing radios, configuring explicit links, and setting per-radio
// ambient signal floors.
package topology

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/radiosim/radiosim/sim"
)

// DefaultPosition is where AddNode places new radios.
var DefaultPosition = sim.Position{X: 100, Y: 100, Z: 0}

// Editor applies topology changes to a registry and a link store. Links
// naming a radio that is not registered yet are queued and applied once
// both endpoints exist.
//
// Thread-safety: NOT thread-safe. Must be called from single goroutine.
type Editor struct {
	registry *sim.Registry
	links    sim.LinkStore
	log      logrus.FieldLogger
	pending  []sim.Link
}

// NewEditor creates an editor and subscribes it to radio registrations.
// The link store is normally Medium.Links().
func NewEditor(registry *sim.Registry, links sim.LinkStore, log logrus.FieldLogger) *Editor {
	if registry == nil || links == nil {
		panic("topology.NewEditor: registry and link store must not be nil")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	e := &Editor{
		registry: registry,
		links:    links,
		log:      log.WithField("component", "topology"),
		pending:  make([]sim.Link, 0),
	}
	registry.OnRegister(func(*sim.Radio) { e.applyPending() })
	return e
}

// AddNode registers a new radio at DefaultPosition.
func (e *Editor) AddNode(id sim.RadioID) (*sim.Radio, error) {
	return e.AddNodeAt(id, DefaultPosition)
}

// AddNodeAt registers a new radio at pos. Fails if the ID is taken.
func (e *Editor) AddNodeAt(id sim.RadioID, pos sim.Position) (*sim.Radio, error) {
	r := sim.NewRadio(id, pos)
	if err := e.registry.Register(r); err != nil {
		if errors.Is(err, sim.ErrRadioExists) {
			e.log.Infof("Radio %d already exists.", id)
		}
		return nil, err
	}
	e.log.Infof("Adding radio: %d", id)
	return r, nil
}

// RemoveNode drops every explicit link touching id, then unregisters it.
// Returns false if the radio is unknown.
func (e *Editor) RemoveNode(id sim.RadioID) bool {
	if _, ok := e.registry.Radio(id); !ok {
		return false
	}
	if n := e.links.RemoveLinksFor(id); n > 0 {
		e.log.Debugf("removed %d links of radio %d", n, id)
	}
	return e.registry.Unregister(id)
}

// Clear removes every radio.
func (e *Editor) Clear() {
	for _, r := range e.registry.Radios() {
		e.RemoveNode(r.ID())
	}
}

// SetLink stores l, or queues it when an endpoint is not registered yet.
// Returns true when the link was applied immediately.
func (e *Editor) SetLink(l sim.Link) (bool, error) {
	if err := l.Validate(); err != nil {
		return false, err
	}
	if !e.registered(l.Src) || !e.registered(l.Dst) {
		e.log.Debugf("queueing link %d->%d ch %d until both radios exist", l.Src, l.Dst, l.Channel)
		e.pending = append(e.pending, l)
		return false, nil
	}
	if err := e.links.SetLink(l); err != nil {
		return false, fmt.Errorf("setting link %d->%d: %w", l.Src, l.Dst, err)
	}
	return true, nil
}

// RemoveLink deletes an applied or queued link. Returns false if neither
// existed.
func (e *Editor) RemoveLink(src, dst sim.RadioID, channel int) bool {
	removed := e.links.RemoveLink(src, dst, channel)
	kept := e.pending[:0]
	for _, l := range e.pending {
		if l.Src == src && l.Dst == dst && l.Channel == channel {
			removed = true
			continue
		}
		kept = append(kept, l)
	}
	e.pending = kept
	return removed
}

// SetBaseRSSI sets the ambient signal floor of a radio. Returns false if
// the radio is unknown.
func (e *Editor) SetBaseRSSI(id sim.RadioID, rssi float64) bool {
	r, ok := e.registry.Radio(id)
	if !ok {
		return false
	}
	r.SetBaseRSSI(rssi)
	return true
}

// Pending returns the queued links in arrival order.
func (e *Editor) Pending() []sim.Link {
	out := make([]sim.Link, len(e.pending))
	copy(out, e.pending)
	return out
}

// WarnPending logs every link that never found both endpoints.
func (e *Editor) WarnPending() {
	for _, l := range e.pending {
		e.log.Warnf("link %d->%d ch %d never applied: radio missing", l.Src, l.Dst, l.Channel)
	}
}

func (e *Editor) applyPending() {
	if len(e.pending) == 0 {
		return
	}
	old := e.pending
	// SetLink re-queues links whose endpoints are still missing.
	e.pending = make([]sim.Link, 0, len(old))
	for _, l := range old {
		if _, err := e.SetLink(l); err != nil {
			e.log.Warnf("dropping queued link %d->%d: %v", l.Src, l.Dst, err)
		}
	}
}

func (e *Editor) registered(id sim.RadioID) bool {
	_, ok := e.registry.Radio(id)
	return ok
}
