package sim

import (
	"fmt"
	"math"
)

// Params holds the simulation-wide propagation constants. Read-only after
// the medium is constructed.
type Params struct {
	TransmitRange     float64 `yaml:"transmit_range" json:"transmit_range"`
	InterferenceRange float64 `yaml:"interference_range" json:"interference_range"`
	MinRSSI           float64 `yaml:"min_rssi" json:"min_rssi"`
	RSSIRange         float64 `yaml:"rssi_range" json:"rssi_range"`
	// PRRFiftyPercentOffset is the RSSI (dBm) at which the logistic PRR is 0.5.
	PRRFiftyPercentOffset float64 `yaml:"prr_fifty_percent_offset" json:"prr_fifty_percent_offset"`
	PRRScalingFactor      float64 `yaml:"prr_scaling_factor" json:"prr_scaling_factor"`
	// CoChannelRejection is the capture margin added to the stronger-signal
	// comparison (negative dB).
	CoChannelRejection float64 `yaml:"co_channel_rejection" json:"co_channel_rejection"`
}

// DefaultParams returns the logistic-loss defaults.
func DefaultParams() Params {
	return Params{
		TransmitRange:         10.0,
		InterferenceRange:     10.0,
		MinRSSI:               -97.0,
		RSSIRange:             50.0,
		PRRFiftyPercentOffset: -75.0,
		PRRScalingFactor:      0.2,
		CoChannelRejection:    -3.0,
	}
}

// MaxRSSI is the mean RSSI at zero distance.
func (p Params) MaxRSSI() float64 { return p.MinRSSI + p.RSSIRange }

// Validate rejects parameter sets the model cannot evaluate.
func (p Params) Validate() error {
	if p.TransmitRange <= 0 || math.IsNaN(p.TransmitRange) || math.IsInf(p.TransmitRange, 0) {
		return fmt.Errorf("transmit_range must be a finite positive number, got %v", p.TransmitRange)
	}
	if p.InterferenceRange <= 0 || math.IsNaN(p.InterferenceRange) || math.IsInf(p.InterferenceRange, 0) {
		return fmt.Errorf("interference_range must be a finite positive number, got %v", p.InterferenceRange)
	}
	if p.RSSIRange <= 0 || math.IsNaN(p.RSSIRange) {
		return fmt.Errorf("rssi_range must be positive, got %v", p.RSSIRange)
	}
	if p.PRRScalingFactor <= 0 || p.PRRScalingFactor > 1 {
		return fmt.Errorf("prr_scaling_factor must be in (0, 1], got %v", p.PRRScalingFactor)
	}
	if p.CoChannelRejection > 0 {
		return fmt.Errorf("co_channel_rejection must not be positive, got %v", p.CoChannelRejection)
	}
	if math.IsNaN(p.MinRSSI) || math.IsInf(p.MinRSSI, 0) {
		return fmt.Errorf("min_rssi must be finite, got %v", p.MinRSSI)
	}
	if math.IsNaN(p.PRRFiftyPercentOffset) || math.IsInf(p.PRRFiftyPercentOffset, 0) {
		return fmt.Errorf("prr_fifty_percent_offset must be finite, got %v", p.PRRFiftyPercentOffset)
	}
	return nil
}

// NormalizedDistance clamps distance/TransmitRange into [0, 1].
func (p Params) NormalizedDistance(distance float64) float64 {
	if distance <= 0 {
		return 0
	}
	return math.Min(1.0, distance/p.TransmitRange)
}

// MeanRSSI is the noiseless received signal strength at the given distance.
// Linear from MaxRSSI at zero distance down to MinRSSI at the transmit range
// and beyond.
func (p Params) MeanRSSI(distance float64) float64 {
	return p.MinRSSI + (1.0-p.NormalizedDistance(distance))*p.RSSIRange
}

// NoisyRSSI perturbs the mean RSSI with one standard-normal sample (σ = 1 dB).
func (p Params) NoisyRSSI(distance float64, rng RandomSource) float64 {
	return p.MeanRSSI(distance) + rng.NormFloat64()
}

// PRR maps an RSSI (dBm) to a packet reception ratio in [0, 1].
//
// Branches:
//   - rssi <= MinRSSI: 0
//   - rssi <= MinRSSI+1: good-link curve, capped at the logistic value at
//     MinRSSI+1 so the curve never decreases across the boundary
//   - rssi >= MaxRSSI+5: 1
//   - otherwise: logistic centred on PRRFiftyPercentOffset
func (p Params) PRR(rssi float64) float64 {
	switch {
	case math.IsNaN(rssi):
		return 0
	case rssi <= p.MinRSSI:
		return 0
	case rssi <= p.MinRSSI+1:
		return math.Min(p.goodLinkPRR(rssi), p.logisticPRR(p.MinRSSI+1))
	case rssi >= p.MaxRSSI()+5:
		return 1
	default:
		return p.logisticPRR(rssi)
	}
}

func (p Params) logisticPRR(rssi float64) float64 {
	return 1.0 / (1.0 + math.Exp(-(rssi-p.PRRFiftyPercentOffset)*p.PRRScalingFactor))
}

// goodLinkPRR is the steep curve used just above the sensitivity floor.
func (p Params) goodLinkPRR(rssi float64) float64 {
	return 1.0 / (1.0 + math.Exp(-(rssi - (p.MinRSSI + 5))))
}

// SuccessProbability is PRR(MeanRSSI(distance)).
func (p Params) SuccessProbability(distance float64) float64 {
	return p.PRR(p.MeanRSSI(distance))
}
