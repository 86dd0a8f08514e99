// Package scenario loads YAML scenario files and assembles them into a
// runnable simulator.
package scenario

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/radiosim/radiosim/sim"
)

// Scenario is the top-level YAML document.
type Scenario struct {
	Version     string           `yaml:"version"`
	Seed        int64            `yaml:"seed"`
	HorizonUs   int64            `yaml:"horizon_us"`
	Propagation *PropagationSpec `yaml:"propagation,omitempty"`
	Gateway     GatewaySpec      `yaml:"gateway"`
	Radios      []RadioSpec      `yaml:"radios"`
	Links       []sim.Link       `yaml:"links,omitempty"`
	LinksFile   string           `yaml:"links_file,omitempty"`
	Mobility    *MobilitySpec    `yaml:"mobility,omitempty"`
	Events      []EventSpec      `yaml:"events,omitempty"`
	Trace       string           `yaml:"trace,omitempty"`

	// dir resolves relative file paths; set by Load.
	dir string
}

// PropagationSpec overrides individual propagation defaults. Nil fields
// keep the default.
type PropagationSpec struct {
	TransmitRange         *float64 `yaml:"transmit_range,omitempty"`
	InterferenceRange     *float64 `yaml:"interference_range,omitempty"`
	MinRSSI               *float64 `yaml:"min_rssi,omitempty"`
	RSSIRange             *float64 `yaml:"rssi_range,omitempty"`
	PRRFiftyPercentOffset *float64 `yaml:"prr_fifty_percent_offset,omitempty"`
	PRRScalingFactor      *float64 `yaml:"prr_scaling_factor,omitempty"`
	CoChannelRejection    *float64 `yaml:"co_channel_rejection,omitempty"`
}

// GatewaySpec configures the gateway predicate: radios whose IDs are all
// strictly below MaxID form gateway pairs. Zero disables gateways.
type GatewaySpec struct {
	MaxID int `yaml:"max_id"`
}

// RadioSpec declares one radio.
type RadioSpec struct {
	ID       int                `yaml:"id"`
	Position sim.Position       `yaml:"position"`
	Channel  *int               `yaml:"channel,omitempty"`
	Powered  *bool              `yaml:"powered,omitempty"`
	BaseRSSI *float64           `yaml:"base_rssi,omitempty"`
	Traffic  *sim.TrafficConfig `yaml:"traffic,omitempty"`
}

// MobilitySpec points at a mobility trace.
type MobilitySpec struct {
	File string `yaml:"file"`
	Wrap *bool  `yaml:"wrap,omitempty"`
}

// EventSpec is a timed change applied during the run.
type EventSpec struct {
	AtUs     int64              `yaml:"at_us"`
	Kind     string             `yaml:"kind"`
	Radio    int                `yaml:"radio"`
	Channel  *int               `yaml:"channel,omitempty"`
	Position *sim.Position      `yaml:"position,omitempty"`
	BaseRSSI *float64           `yaml:"base_rssi,omitempty"`
	Link     *sim.Link          `yaml:"link,omitempty"`
	Traffic  *sim.TrafficConfig `yaml:"traffic,omitempty"`
}

var validVersions = map[string]bool{
	"":  true, // empty defaults to 1
	"1": true,
}

var validEventKinds = map[string]bool{
	"on":          true,
	"off":         true,
	"channel":     true,
	"add":         true,
	"remove":      true,
	"base_rssi":   true,
	"set_link":    true,
	"remove_link": true,
}

// Load reads a scenario with strict field checking. The result is not
// validated.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	sc.dir = dirOf(path)
	return sc, nil
}

// Parse decodes scenario YAML with strict field checking.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	return &sc, nil
}

// Params applies the propagation overrides to the defaults.
func (s *Scenario) Params() sim.Params {
	p := sim.DefaultParams()
	if s.Propagation == nil {
		return p
	}
	o := s.Propagation
	if o.TransmitRange != nil {
		p.TransmitRange = *o.TransmitRange
		// interference range follows the transmit range unless set
		p.InterferenceRange = *o.TransmitRange
	}
	if o.InterferenceRange != nil {
		p.InterferenceRange = *o.InterferenceRange
	}
	if o.MinRSSI != nil {
		p.MinRSSI = *o.MinRSSI
	}
	if o.RSSIRange != nil {
		p.RSSIRange = *o.RSSIRange
	}
	if o.PRRFiftyPercentOffset != nil {
		p.PRRFiftyPercentOffset = *o.PRRFiftyPercentOffset
	}
	if o.PRRScalingFactor != nil {
		p.PRRScalingFactor = *o.PRRScalingFactor
	}
	if o.CoChannelRejection != nil {
		p.CoChannelRejection = *o.CoChannelRejection
	}
	return p
}

// Validate checks that all fields in the scenario are valid.
func (s *Scenario) Validate() error {
	if !validVersions[s.Version] {
		return fmt.Errorf("unknown version %q; valid: 1", s.Version)
	}
	if s.HorizonUs < 0 {
		return fmt.Errorf("horizon_us must be non-negative, got %d", s.HorizonUs)
	}
	if err := s.Params().Validate(); err != nil {
		return fmt.Errorf("propagation: %w", err)
	}
	if s.Gateway.MaxID < 0 {
		return fmt.Errorf("gateway.max_id must be non-negative, got %d", s.Gateway.MaxID)
	}
	if s.Trace != "" && s.Trace != "none" && s.Trace != "connections" {
		return fmt.Errorf("unknown trace level %q; valid: none, connections", s.Trace)
	}

	seen := make(map[int]bool, len(s.Radios))
	for i, r := range s.Radios {
		if err := validateRadio(&r, i); err != nil {
			return err
		}
		if seen[r.ID] {
			return fmt.Errorf("radio[%d]: duplicate id %d", i, r.ID)
		}
		seen[r.ID] = true
	}
	for i, l := range s.Links {
		if err := l.Validate(); err != nil {
			return fmt.Errorf("links[%d]: %w", i, err)
		}
	}
	if s.Mobility != nil && s.Mobility.File == "" {
		return fmt.Errorf("mobility.file is required when mobility is set")
	}
	for i, e := range s.Events {
		if err := validateEvent(&e, i); err != nil {
			return err
		}
	}
	return nil
}

func validateRadio(r *RadioSpec, idx int) error {
	prefix := fmt.Sprintf("radio[%d]", idx)
	for _, v := range []float64{r.Position.X, r.Position.Y, r.Position.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s: position must be finite, got %v", prefix, r.Position)
		}
	}
	if r.Channel != nil && *r.Channel < sim.ChannelAny {
		return fmt.Errorf("%s: channel must be >= %d, got %d", prefix, sim.ChannelAny, *r.Channel)
	}
	if r.BaseRSSI != nil && (math.IsNaN(*r.BaseRSSI) || math.IsInf(*r.BaseRSSI, 0)) {
		return fmt.Errorf("%s: base_rssi must be finite", prefix)
	}
	if r.Traffic != nil {
		if err := r.Traffic.Validate(); err != nil {
			return fmt.Errorf("%s: %w", prefix, err)
		}
	}
	return nil
}

func validateEvent(e *EventSpec, idx int) error {
	prefix := fmt.Sprintf("events[%d]", idx)
	if !validEventKinds[e.Kind] {
		return fmt.Errorf("%s: unknown kind %q; valid: on, off, channel, add, remove, base_rssi, set_link, remove_link", prefix, e.Kind)
	}
	if e.AtUs < 0 {
		return fmt.Errorf("%s: at_us must be non-negative, got %d", prefix, e.AtUs)
	}
	switch e.Kind {
	case "channel":
		if e.Channel == nil {
			return fmt.Errorf("%s: channel event requires channel", prefix)
		}
	case "base_rssi":
		if e.BaseRSSI == nil {
			return fmt.Errorf("%s: base_rssi event requires base_rssi", prefix)
		}
	case "set_link", "remove_link":
		if e.Link == nil {
			return fmt.Errorf("%s: %s event requires link", prefix, e.Kind)
		}
		if e.Kind == "set_link" {
			if err := e.Link.Validate(); err != nil {
				return fmt.Errorf("%s: %w", prefix, err)
			}
		}
	case "add":
		if e.Traffic != nil {
			if err := e.Traffic.Validate(); err != nil {
				return fmt.Errorf("%s: %w", prefix, err)
			}
		}
	}
	return nil
}
