// Package testutil provides shared test infrastructure for the radio
// medium packages: deterministic random sources, float assertions and
// fixture files.
package testutil

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

// FixedSource is a random source with scripted draws. Float64 returns
// Uniform values in order and then repeats the last one; NormFloat64
// always returns Noise.
type FixedSource struct {
	Uniform []float64
	Noise   float64

	next int
}

// AlwaysReceive returns a source whose reception draws always succeed
// and whose RSSI noise is zero.
func AlwaysReceive() *FixedSource { return &FixedSource{Uniform: []float64{0}} }

// NeverReceive returns a source whose reception draws always fail.
func NeverReceive() *FixedSource { return &FixedSource{Uniform: []float64{1}} }

func (f *FixedSource) Float64() float64 {
	if len(f.Uniform) == 0 {
		return 0
	}
	v := f.Uniform[min(f.next, len(f.Uniform)-1)]
	f.next++
	return v
}

func (f *FixedSource) NormFloat64() float64 { return f.Noise }

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// WriteFile writes content to name inside a fresh temp dir and returns
// the full path.
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
