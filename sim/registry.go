package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrRadioExists is returned when registering a duplicate radio ID.
	ErrRadioExists = errors.New("radio already registered")
	// ErrRadioNotFound is returned when a radio ID is not registered.
	ErrRadioNotFound = errors.New("radio not registered")
	// ErrInvalidRadio is returned for nil radios.
	ErrInvalidRadio = errors.New("invalid radio")
)

// Registry is the authoritative, ordered set of radios in a simulation.
//
// Every membership or position change bumps Version. Consumers that cache
// derived state (the reachability graph) compare the version they computed
// against to decide whether they are stale.
//
// Thread-safety: NOT thread-safe. Must be called from single goroutine.
type Registry struct {
	radios  []*Radio
	byID    map[RadioID]*Radio
	version uint64

	onRegister   []func(*Radio)
	onUnregister []func(*Radio)
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		radios: make([]*Radio, 0),
		byID:   make(map[RadioID]*Radio),
	}
}

// Register appends a radio in registration order.
func (reg *Registry) Register(r *Radio) error {
	if r == nil {
		return ErrInvalidRadio
	}
	if _, exists := reg.byID[r.id]; exists {
		return fmt.Errorf("%w: %d", ErrRadioExists, r.id)
	}
	reg.radios = append(reg.radios, r)
	reg.byID[r.id] = r
	reg.version++
	for _, fn := range reg.onRegister {
		fn(r)
	}
	return nil
}

// Unregister removes the radio with the given ID. Returns false when the ID
// is unknown.
func (reg *Registry) Unregister(id RadioID) bool {
	r, ok := reg.byID[id]
	if !ok {
		return false
	}
	delete(reg.byID, id)
	for i, candidate := range reg.radios {
		if candidate == r {
			reg.radios = append(reg.radios[:i], reg.radios[i+1:]...)
			break
		}
	}
	reg.version++
	for _, fn := range reg.onUnregister {
		fn(r)
	}
	return true
}

// Move relocates a registered radio and records the position change.
// Returns false when the ID is unknown.
func (reg *Registry) Move(id RadioID, pos Position) bool {
	r, ok := reg.byID[id]
	if !ok {
		return false
	}
	r.position = pos
	reg.version++
	return true
}

// Radio looks up a registered radio by ID.
func (reg *Registry) Radio(id RadioID) (*Radio, bool) {
	r, ok := reg.byID[id]
	return r, ok
}

// At returns the radio at the given registration index.
func (reg *Registry) At(index int) (*Radio, bool) {
	if index < 0 || index >= len(reg.radios) {
		return nil, false
	}
	return reg.radios[index], true
}

// Contains reports whether r itself (not merely its ID) is registered.
func (reg *Registry) Contains(r *Radio) bool {
	if r == nil {
		return false
	}
	return reg.byID[r.id] == r
}

// Radios returns a copy of the registered radios in registration order.
func (reg *Registry) Radios() []*Radio {
	out := make([]*Radio, len(reg.radios))
	copy(out, reg.radios)
	return out
}

// Len returns the number of registered radios.
func (reg *Registry) Len() int { return len(reg.radios) }

// Version increases on every register, unregister, or move.
func (reg *Registry) Version() uint64 { return reg.version }

// OnRegister adds a hook invoked after each successful Register.
func (reg *Registry) OnRegister(fn func(*Radio)) {
	reg.onRegister = append(reg.onRegister, fn)
}

// OnUnregister adds a hook invoked after each successful Unregister.
func (reg *Registry) OnUnregister(fn func(*Radio)) {
	reg.onUnregister = append(reg.onUnregister, fn)
}
