// Package observability exposes radio-medium activity as Prometheus metrics.
package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/radiosim/radiosim/sim"
)

// MediumCollector bundles Prometheus metrics for the radio medium and
// implements sim.MetricsRecorder so a simulator can drive it directly.
type MediumCollector struct {
	gatherer prometheus.Gatherer

	Connections    prometheus.Counter
	Receptions     *prometheus.CounterVec
	Captures       *prometheus.CounterVec
	Deliveries     *prometheus.CounterVec
	GraphAnalyses  prometheus.Counter
	Radios         prometheus.Gauge
	ActiveConns    prometheus.Gauge
	DestsPerTxHist prometheus.Histogram
}

var _ sim.MetricsRecorder = (*MediumCollector)(nil)

// NewMediumCollector registers medium metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewMediumCollector(reg prometheus.Registerer) (*MediumCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	connections, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "medium_connections_total",
		Help: "Total number of transmissions resolved into connections.",
	}), "medium_connections_total")
	if err != nil {
		return nil, err
	}
	receptions, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "medium_candidates_total",
		Help: "Resolved candidate receivers, labeled by role (destination or interfered).",
	}, []string{"role"}), "medium_candidates_total")
	if err != nil {
		return nil, err
	}
	captures, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "medium_captures_total",
		Help: "Contended receptions, labeled by outcome.",
	}, []string{"outcome"}), "medium_captures_total")
	if err != nil {
		return nil, err
	}
	deliveries, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "medium_receptions_completed_total",
		Help: "Receptions at transmission end, labeled by result (delivered or lost).",
	}, []string{"result"}), "medium_receptions_completed_total")
	if err != nil {
		return nil, err
	}
	analyses, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "medium_graph_analyses_total",
		Help: "Full reachability graph recomputations.",
	}), "medium_graph_analyses_total")
	if err != nil {
		return nil, err
	}
	radios, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "medium_radios",
		Help: "Current number of registered radios.",
	}), "medium_radios")
	if err != nil {
		return nil, err
	}
	active, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "medium_active_connections",
		Help: "Current number of active connections.",
	}), "medium_active_connections")
	if err != nil {
		return nil, err
	}
	dests, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "medium_destinations_per_connection",
		Help:    "Number of destinations per resolved connection.",
		Buckets: []float64{0, 1, 2, 4, 8, 16, 32},
	}), "medium_destinations_per_connection")
	if err != nil {
		return nil, err
	}

	return &MediumCollector{
		gatherer:       gatherer,
		Connections:    connections,
		Receptions:     receptions,
		Captures:       captures,
		Deliveries:     deliveries,
		GraphAnalyses:  analyses,
		Radios:         radios,
		ActiveConns:    active,
		DestsPerTxHist: dests,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *MediumCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func (c *MediumCollector) RecordConnection(destinations, interfered int) {
	if c == nil {
		return
	}
	c.Connections.Inc()
	c.Receptions.WithLabelValues("destination").Add(float64(destinations))
	c.Receptions.WithLabelValues("interfered").Add(float64(interfered))
	c.DestsPerTxHist.Observe(float64(destinations))
}

func (c *MediumCollector) RecordCapture(outcome sim.CaptureOutcome) {
	if c == nil {
		return
	}
	c.Captures.WithLabelValues(string(outcome)).Inc()
}

func (c *MediumCollector) RecordDelivery(delivered, lost int) {
	if c == nil {
		return
	}
	c.Deliveries.WithLabelValues("delivered").Add(float64(delivered))
	c.Deliveries.WithLabelValues("lost").Add(float64(lost))
}

func (c *MediumCollector) RecordGraphAnalysis() {
	if c == nil {
		return
	}
	c.GraphAnalyses.Inc()
}

// SetPopulation drives the radio and active-connection gauges.
func (c *MediumCollector) SetPopulation(radios, activeConnections int) {
	if c == nil {
		return
	}
	c.Radios.Set(float64(radios))
	c.ActiveConns.Set(float64(activeConnections))
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}
