package trace

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	Transmissions      int
	MeanDestinations   float64
	StdDevDestinations float64
	P95Destinations    float64
	MeanInterfered     float64
	Delivered          int
	Lost               int
	DeliveryRatio      float64
	OutcomeCounts      map[string]int // capture outcome → count
	UniqueSources      int
	SourceDistribution map[int]int // source radio → transmissions
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		OutcomeCounts:      make(map[string]int),
		SourceDistribution: make(map[int]int),
	}
	if st == nil {
		return summary
	}

	summary.Transmissions = len(st.Connections)
	if len(st.Connections) > 0 {
		dests := make([]float64, len(st.Connections))
		interfered := make([]float64, len(st.Connections))
		for i, c := range st.Connections {
			dests[i] = float64(len(c.Destinations))
			interfered[i] = float64(len(c.Interfered))
			summary.SourceDistribution[c.Source]++
		}
		summary.MeanDestinations, summary.StdDevDestinations = stat.MeanStdDev(dests, nil)
		if len(dests) < 2 {
			summary.StdDevDestinations = 0
		}
		summary.MeanInterfered = stat.Mean(interfered, nil)
		sort.Float64s(dests)
		summary.P95Destinations = stat.Quantile(0.95, stat.Empirical, dests, nil)
	}

	for _, c := range st.Captures {
		summary.OutcomeCounts[c.Outcome]++
	}

	for _, d := range st.Deliveries {
		summary.Delivered += len(d.Delivered)
		summary.Lost += len(d.Lost)
	}
	if total := summary.Delivered + summary.Lost; total > 0 {
		summary.DeliveryRatio = float64(summary.Delivered) / float64(total)
	}

	summary.UniqueSources = len(summary.SourceDistribution)

	return summary
}
