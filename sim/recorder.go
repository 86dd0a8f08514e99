package sim

// CaptureOutcome names how a contended reception was resolved.
type CaptureOutcome string

const (
	// CaptureKept: the ongoing reception was stronger; the new sender is interfered.
	CaptureKept CaptureOutcome = "kept"
	// CaptureDisplaced: the new sender was stronger; ongoing receptions are interfered.
	CaptureDisplaced CaptureOutcome = "displaced"
	// CaptureCollision: strengths within the rejection margin; nothing gets through.
	CaptureCollision CaptureOutcome = "collision"
)

// MetricsRecorder receives medium and scheduler observations. Implementations
// must tolerate being called once per resolved candidate.
type MetricsRecorder interface {
	RecordConnection(destinations, interfered int)
	RecordCapture(outcome CaptureOutcome)
	RecordDelivery(delivered, lost int)
	RecordGraphAnalysis()
	SetPopulation(radios, activeConnections int)
}

type noopRecorder struct{}

func (noopRecorder) RecordConnection(int, int)    {}
func (noopRecorder) RecordCapture(CaptureOutcome) {}
func (noopRecorder) RecordDelivery(int, int)      {}
func (noopRecorder) RecordGraphAnalysis()         {}
func (noopRecorder) SetPopulation(int, int)       {}
