package trace

// TraceLevel controls the verbosity of decision tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelConnections captures every connection, capture, and delivery.
	TraceLevelConnections TraceLevel = "connections"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:        true,
	TraceLevelConnections: true,
	"":                    true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// Enabled reports whether records should be collected.
func (c TraceConfig) Enabled() bool {
	return c.Level == TraceLevelConnections
}

// SimulationTrace collects decision records during a simulation.
type SimulationTrace struct {
	Config      TraceConfig
	Connections []ConnectionRecord
	Captures    []CaptureRecord
	Deliveries  []DeliveryRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config:      config,
		Connections: make([]ConnectionRecord, 0),
		Captures:    make([]CaptureRecord, 0),
		Deliveries:  make([]DeliveryRecord, 0),
	}
}

// RecordConnection appends a connection record.
func (st *SimulationTrace) RecordConnection(record ConnectionRecord) {
	st.Connections = append(st.Connections, record)
}

// RecordCapture appends a capture record.
func (st *SimulationTrace) RecordCapture(record CaptureRecord) {
	st.Captures = append(st.Captures, record)
}

// RecordDelivery appends a delivery record.
func (st *SimulationTrace) RecordDelivery(record DeliveryRecord) {
	st.Deliveries = append(st.Deliveries, record)
}
