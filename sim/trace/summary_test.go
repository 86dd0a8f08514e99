package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize_NilTrace_ZeroValues(t *testing.T) {
	s := Summarize(nil)

	assert.Equal(t, 0, s.Transmissions)
	assert.Equal(t, 0.0, s.DeliveryRatio)
	assert.NotNil(t, s.OutcomeCounts)
	assert.NotNil(t, s.SourceDistribution)
}

func TestSummarize_AggregatesRecords(t *testing.T) {
	// GIVEN a trace with four connections from two sources
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelConnections})
	for i, dests := range [][]int{{1}, {1, 2}, {1, 2, 3}, {}} {
		st.RecordConnection(ConnectionRecord{
			ConnectionID: string(rune('a' + i)),
			Source:       i % 2,
			Destinations: dests,
			Interfered:   []int{9},
		})
	}
	st.RecordCapture(CaptureRecord{Outcome: "kept"})
	st.RecordCapture(CaptureRecord{Outcome: "collision"})
	st.RecordCapture(CaptureRecord{Outcome: "kept"})
	st.RecordDelivery(DeliveryRecord{Delivered: []int{1, 2}, Lost: []int{3}})
	st.RecordDelivery(DeliveryRecord{Delivered: []int{1}})

	// WHEN summarized
	s := Summarize(st)

	// THEN counts, means and ratios reflect the records
	assert.Equal(t, 4, s.Transmissions)
	assert.InDelta(t, 1.5, s.MeanDestinations, 1e-12)
	assert.InDelta(t, 1.290994, s.StdDevDestinations, 1e-6)
	assert.Equal(t, 3.0, s.P95Destinations)
	assert.Equal(t, 1.0, s.MeanInterfered)
	assert.Equal(t, map[string]int{"kept": 2, "collision": 1}, s.OutcomeCounts)
	assert.Equal(t, 3, s.Delivered)
	assert.Equal(t, 1, s.Lost)
	assert.Equal(t, 0.75, s.DeliveryRatio)
	assert.Equal(t, 2, s.UniqueSources)
	assert.Equal(t, map[int]int{0: 2, 1: 2}, s.SourceDistribution)
}

func TestSummarize_SingleConnection_ZeroStdDev(t *testing.T) {
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelConnections})
	st.RecordConnection(ConnectionRecord{Source: 1, Destinations: []int{2, 3}})

	s := Summarize(st)

	assert.Equal(t, 2.0, s.MeanDestinations)
	assert.Equal(t, 0.0, s.StdDevDestinations)
	assert.Equal(t, 2.0, s.P95Destinations)
}
