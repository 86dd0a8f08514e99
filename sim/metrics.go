// Tracks simulation-wide and per-radio radio-medium statistics such as:
// transmissions, deliveries, interference, and capture outcomes.

package sim

import (
	"fmt"
	"io"
	"sort"
)

// RadioMetrics holds per-radio counters.
type RadioMetrics struct {
	Sent       int `json:"sent"`
	Received   int `json:"received"`
	Interfered int `json:"interfered"`
}

// Metrics aggregates statistics about the simulation
// for final reporting. Useful for evaluating medium behavior
// and debugging contention over time.
type Metrics struct {
	Transmissions        int `json:"transmissions"`
	SkippedTransmissions int `json:"skipped_transmissions"` // radio off or still transmitting
	Deliveries           int `json:"deliveries"`
	Lost                 int `json:"lost"`

	// Copied from the medium when the run ends.
	GatewayDeliveries int `json:"gateway_deliveries"`
	ChannelMismatches int `json:"channel_mismatches"`
	OffReceivers      int `json:"off_receivers"`
	BusyReceivers     int `json:"busy_receivers"`
	FailedDraws       int `json:"failed_draws"`
	CapturesKept      int `json:"captures_kept"`
	CapturesDisplaced int `json:"captures_displaced"`
	Collisions        int `json:"collisions"`
	GraphAnalyses     int `json:"graph_analyses"`

	SignalUpdates int   `json:"signal_updates"`
	SimEndedTime  int64 `json:"sim_ended_time_us"`

	PerRadio map[RadioID]*RadioMetrics `json:"per_radio"`
}

// NewMetrics creates an empty Metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		PerRadio: make(map[RadioID]*RadioMetrics),
	}
}

func (m *Metrics) radio(id RadioID) *RadioMetrics {
	rm, ok := m.PerRadio[id]
	if !ok {
		rm = &RadioMetrics{}
		m.PerRadio[id] = rm
	}
	return rm
}

func (m *Metrics) recordConnection(conn *Connection) {
	m.Transmissions++
	m.radio(conn.source.id).Sent++
}

func (m *Metrics) recordTeardown(_ *Radio, delivered, lost []*Radio) {
	m.Deliveries += len(delivered)
	m.Lost += len(lost)
	for _, r := range delivered {
		m.radio(r.id).Received++
	}
	for _, r := range lost {
		m.radio(r.id).Interfered++
	}
}

func (m *Metrics) absorb(medium *Medium) {
	st := medium.Stats()
	m.GatewayDeliveries = st.GatewayDeliveries
	m.ChannelMismatches = st.ChannelMismatches
	m.OffReceivers = st.OffReceivers
	m.BusyReceivers = st.BusyReceivers
	m.FailedDraws = st.FailedDraws
	m.CapturesKept = st.CapturesKept
	m.CapturesDisplaced = st.CapturesDisplaced
	m.Collisions = st.Collisions
	m.GraphAnalyses = medium.Graph().Analyses()
}

// DeliveryRatio is deliveries over all receptions that ended, or 0.
func (m *Metrics) DeliveryRatio() float64 {
	total := m.Deliveries + m.Lost
	if total == 0 {
		return 0
	}
	return float64(m.Deliveries) / float64(total)
}

// Print displays aggregated metrics at the end of the simulation.
func (m *Metrics) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Simulation Metrics ===")
	fmt.Fprintf(w, "Simulated Time       : %d us\n", m.SimEndedTime)
	fmt.Fprintf(w, "Transmissions        : %d (skipped %d)\n", m.Transmissions, m.SkippedTransmissions)
	fmt.Fprintf(w, "Deliveries           : %d\n", m.Deliveries)
	fmt.Fprintf(w, "Lost Receptions      : %d\n", m.Lost)
	fmt.Fprintf(w, "Delivery Ratio       : %.4f\n", m.DeliveryRatio())
	fmt.Fprintf(w, "Captures (kept/new)  : %d/%d\n", m.CapturesKept, m.CapturesDisplaced)
	fmt.Fprintf(w, "Collisions           : %d\n", m.Collisions)
	fmt.Fprintf(w, "Channel Mismatches   : %d\n", m.ChannelMismatches)
	fmt.Fprintf(w, "Off Receivers        : %d\n", m.OffReceivers)
	fmt.Fprintf(w, "Graph Analyses       : %d\n", m.GraphAnalyses)

	if len(m.PerRadio) == 0 {
		return
	}
	ids := make([]RadioID, 0, len(m.PerRadio))
	for id := range m.PerRadio {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	fmt.Fprintln(w, "=== Per-Radio ===")
	for _, id := range ids {
		rm := m.PerRadio[id]
		fmt.Fprintf(w, "radio %-6d sent=%d received=%d interfered=%d\n", id, rm.Sent, rm.Received, rm.Interfered)
	}
}
