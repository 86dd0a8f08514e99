// Package trace provides decision-trace recording for radio-medium analysis.
// This package has no dependencies on sim/; it stores pure data types.
package trace

// ConnectionRecord captures how one transmission was resolved.
type ConnectionRecord struct {
	ConnectionID string
	Clock        int64
	Source       int
	Destinations []int
	Interfered   []int
}

// CaptureRecord captures one contended reception. Displaced lists earlier
// connections that lost the receiver.
type CaptureRecord struct {
	ConnectionID string
	Clock        int64
	Receiver     int
	Outcome      string
	OldSignal    float64
	NewSignal    float64
	Displaced    []string
}

// DeliveryRecord captures the fate of a connection when its transmission
// ends: radios that received the packet and radios that did not.
type DeliveryRecord struct {
	ConnectionID string
	Clock        int64
	Source       int
	Delivered    []int
	Lost         []int
}
