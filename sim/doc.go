// Package sim provides the logistic-loss radio medium and the discrete-event
// engine that drives it.
//
// # Reading Guide
//
// Start with these files to understand the medium:
//   - radio.go, registry.go: radios and the ordered set that owns them
//   - graph.go: the lazily recomputed reachability graph and explicit links
//   - propagation.go: distance → mean RSSI → packet reception ratio
//   - medium.go: resolving a transmission into destinations and interfered
//     radios, including the capture rule
//   - signal.go: the per-step signal-strength pass
//   - simulator.go: the event loop and the transmission lifecycle
//
// # Architecture
//
// Sub-packages import sim and plug into the Simulator:
//   - sim/mobility/: position trace replay
//   - sim/topology/: node and link editing with queued links
//   - sim/scenario/: YAML scenarios assembled into a Simulator
//   - sim/trace/: connection decision records (no dependency on sim)
//
// Time is in microseconds. Everything in this package is single-threaded;
// separate Simulators share nothing and may run concurrently.
package sim
