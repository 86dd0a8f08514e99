package sim

import (
	"fmt"
	"math/rand"
)

// TrafficConfig describes how often a radio transmits.
type TrafficConfig struct {
	// Process is "constant", "poisson", or "none".
	Process    string `yaml:"process" json:"process"`
	IntervalUs int64  `yaml:"interval_us" json:"interval_us"`
	// AirtimeUs is how long each transmission occupies the medium.
	AirtimeUs int64 `yaml:"airtime_us" json:"airtime_us"`
	StartUs   int64 `yaml:"start_us" json:"start_us"`
}

var validTrafficProcesses = map[string]bool{
	"constant": true,
	"poisson":  true,
	"none":     true,
}

// Validate checks the traffic description.
func (c TrafficConfig) Validate() error {
	if !validTrafficProcesses[c.Process] {
		return fmt.Errorf("unknown traffic process %q; valid: constant, poisson, none", c.Process)
	}
	if c.Process == "none" {
		return nil
	}
	if c.IntervalUs <= 0 {
		return fmt.Errorf("interval_us must be positive, got %d", c.IntervalUs)
	}
	if c.AirtimeUs <= 0 {
		return fmt.Errorf("airtime_us must be positive, got %d", c.AirtimeUs)
	}
	if c.StartUs < 0 {
		return fmt.Errorf("start_us must be non-negative, got %d", c.StartUs)
	}
	return nil
}

// IntervalSampler generates the gap between consecutive transmission starts.
type IntervalSampler interface {
	// NextInterval returns the next gap in microseconds. Always >= 1.
	NextInterval(rng *rand.Rand) int64
}

// ConstantSampler transmits at a fixed period.
type ConstantSampler struct {
	interval int64
}

func (s *ConstantSampler) NextInterval(_ *rand.Rand) int64 {
	if s.interval < 1 {
		return 1
	}
	return s.interval
}

// PoissonSampler generates exponentially-distributed gaps (CV=1).
type PoissonSampler struct {
	rateMicros float64 // transmissions per microsecond
}

func (s *PoissonSampler) NextInterval(rng *rand.Rand) int64 {
	iat := int64(rng.ExpFloat64() / s.rateMicros)
	if iat < 1 {
		return 1
	}
	return iat
}

// NewIntervalSampler creates the sampler for a validated config. Returns nil
// for the "none" process.
func NewIntervalSampler(c TrafficConfig) IntervalSampler {
	switch c.Process {
	case "constant":
		return &ConstantSampler{interval: c.IntervalUs}
	case "poisson":
		return &PoissonSampler{rateMicros: 1.0 / float64(c.IntervalUs)}
	default:
		return nil
	}
}

type trafficSource struct {
	sampler IntervalSampler
	airtime int64
	rng     *rand.Rand
}

// AddTraffic starts (or replaces) the traffic source of a registered radio.
// The first transmission happens at StartUs, or now if that has passed.
func (s *Simulator) AddTraffic(id RadioID, c TrafficConfig) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("radio %d traffic: %w", id, err)
	}
	if _, ok := s.registry.Radio(id); !ok {
		return fmt.Errorf("%w: %d", ErrRadioNotFound, id)
	}
	sampler := NewIntervalSampler(c)
	if sampler == nil {
		delete(s.traffic, id)
		return nil
	}
	src := &trafficSource{
		sampler: sampler,
		airtime: c.AirtimeUs,
		rng:     s.rng.ForSubsystem(SubsystemTraffic(id)),
	}
	s.traffic[id] = src
	s.Schedule(&TransmissionStartEvent{time: max(c.StartUs, s.clock), radio: id, source: src})
	return nil
}
