package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radiosim/radiosim/sim/internal/testutil"
)

func TestParams_MeanRSSI_LinearOverRange(t *testing.T) {
	p := DefaultParams()
	tests := []struct {
		name     string
		distance float64
		want     float64
	}{
		{"co-located", 0, -47},
		{"negative distance clamps to zero", -3, -47},
		{"half range", 5, -72},
		{"at range", 10, -97},
		{"beyond range clamps", 25, -97},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, p.MeanRSSI(tt.distance), 1e-9)
		})
	}
}

func TestParams_PRR_Boundaries(t *testing.T) {
	p := DefaultParams()
	tests := []struct {
		name string
		rssi float64
		want float64
	}{
		{"below sensitivity", -120, 0},
		{"at sensitivity", -97, 0},
		{"fifty percent offset", -75, 0.5},
		{"half range mean", -72, 0.645656},
		{"strong link saturates", -42, 1},
		{"far above saturates", 0, 1},
		{"NaN", math.NaN(), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, p.PRR(tt.rssi), 1e-6)
		})
	}
}

func TestParams_PRR_GoodLinkBranchIsCapped(t *testing.T) {
	// GIVEN default parameters
	p := DefaultParams()

	// WHEN evaluating just above the sensitivity floor
	got := p.PRR(-96.5)

	// THEN the steep curve applies, but never above the logistic value at -96
	assert.InDelta(t, 1.0/(1.0+math.Exp(4.5)), got, 1e-9)
	assert.LessOrEqual(t, p.PRR(-96), p.logisticPRR(-96))
}

func TestParams_PRR_NonDecreasing(t *testing.T) {
	// GIVEN a fine sweep across every branch
	p := DefaultParams()
	prev := p.PRR(-110)

	// THEN no step ever lowers the reception ratio
	for rssi := -110.0; rssi <= -30; rssi += 0.01 {
		cur := p.PRR(rssi)
		require.GreaterOrEqual(t, cur+1e-12, prev, "PRR decreased at %.2f dBm", rssi)
		require.True(t, cur >= 0 && cur <= 1, "PRR out of range at %.2f dBm: %v", rssi, cur)
		prev = cur
	}
}

func TestParams_SuccessProbability_HalfRange(t *testing.T) {
	p := DefaultParams()
	testutil.AssertFloat64Equal(t, "PRR at 5 units", 0.645656, p.SuccessProbability(5), 1e-5)
	assert.Equal(t, 0.0, p.SuccessProbability(10))
	assert.Equal(t, 0.0, p.SuccessProbability(100))
}

func TestParams_NoisyRSSI_AddsOneSample(t *testing.T) {
	p := DefaultParams()
	src := &testutil.FixedSource{Noise: 1.5}
	assert.InDelta(t, -70.5, p.NoisyRSSI(5, src), 1e-9)
}

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
		ok     bool
	}{
		{"defaults", func(*Params) {}, true},
		{"zero range", func(p *Params) { p.TransmitRange = 0 }, false},
		{"infinite range", func(p *Params) { p.TransmitRange = math.Inf(1) }, false},
		{"zero interference range", func(p *Params) { p.InterferenceRange = 0 }, false},
		{"negative rssi range", func(p *Params) { p.RSSIRange = -1 }, false},
		{"scaling above one", func(p *Params) { p.PRRScalingFactor = 1.5 }, false},
		{"positive rejection", func(p *Params) { p.CoChannelRejection = 2 }, false},
		{"NaN sensitivity", func(p *Params) { p.MinRSSI = math.NaN() }, false},
		{"infinite offset", func(p *Params) { p.PRRFiftyPercentOffset = math.Inf(-1) }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			if tt.ok {
				assert.NoError(t, p.Validate())
			} else {
				assert.Error(t, p.Validate())
			}
		})
	}
}
