package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Command result labels.
const (
	ResultOK      = "ok"
	ResultLookup  = "lookup"
	ResultPolicy  = "policy"
	ResultInvalid = "invalid"
)

// Collector bundles the Prometheus metrics of the designer: command
// throughput of the editing session, the size of the current topology,
// the GPSS generator and the HTTP surface.
type Collector struct {
	gatherer prometheus.Gatherer

	Commands        *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec

	TopologyNodes prometheus.Gauge
	TopologyEdges prometheus.Gauge
	TopologyPorts prometheus.Gauge

	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	CodegenDurations prometheus.Histogram
}

// NewCollector registers all metrics against reg, defaulting to the
// global Prometheus registry when nil. Registering twice against the same
// registry returns the existing collectors.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &Collector{gatherer: gatherer}
	var err error

	if c.Commands, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "satnet_commands_total",
		Help: "Topology commands applied, labeled by command name and result.",
	}, []string{"command", "result"}), "satnet_commands_total"); err != nil {
		return nil, err
	}
	if c.CommandDuration, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "satnet_command_duration_seconds",
		Help:    "Time spent applying a topology command.",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	}, []string{"command"}), "satnet_command_duration_seconds"); err != nil {
		return nil, err
	}

	if c.TopologyNodes, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "satnet_topology_nodes",
		Help: "Nodes in the current topology snapshot.",
	}), "satnet_topology_nodes"); err != nil {
		return nil, err
	}
	if c.TopologyEdges, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "satnet_topology_edges",
		Help: "Edges in the current topology snapshot.",
	}), "satnet_topology_edges"); err != nil {
		return nil, err
	}
	if c.TopologyPorts, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "satnet_topology_ports",
		Help: "Interfaces across all nodes of the current topology snapshot.",
	}), "satnet_topology_ports"); err != nil {
		return nil, err
	}

	if c.HTTPRequests, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "satnet_http_requests_total",
		Help: "HTTP requests served, labeled by route pattern, method and status code.",
	}, []string{"route", "method", "code"}), "satnet_http_requests_total"); err != nil {
		return nil, err
	}
	if c.HTTPDuration, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "satnet_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"route", "method"}), "satnet_http_request_duration_seconds"); err != nil {
		return nil, err
	}
	if c.CodegenDurations, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "satnet_gpss_codegen_duration_seconds",
		Help:    "Duration of GPSS program generation.",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
	}), "satnet_gpss_codegen_duration_seconds"); err != nil {
		return nil, err
	}
	return c, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *Collector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveCommand records one applied command. result is one of the
// Result* labels.
func (c *Collector) ObserveCommand(command, result string, d time.Duration) {
	if c == nil {
		return
	}
	if c.Commands != nil {
		c.Commands.WithLabelValues(command, result).Inc()
	}
	if c.CommandDuration != nil {
		c.CommandDuration.WithLabelValues(command).Observe(d.Seconds())
	}
}

// SetTopologyCounts drives the topology gauges from the session.
func (c *Collector) SetTopologyCounts(nodes, edges, ports int) {
	if c == nil {
		return
	}
	if c.TopologyNodes != nil {
		c.TopologyNodes.Set(float64(nodes))
	}
	if c.TopologyEdges != nil {
		c.TopologyEdges.Set(float64(edges))
	}
	if c.TopologyPorts != nil {
		c.TopologyPorts.Set(float64(ports))
	}
}

// ObserveCodegen records a GPSS generation duration.
func (c *Collector) ObserveCodegen(d time.Duration) {
	if c == nil || c.CodegenDurations == nil {
		return
	}
	c.CodegenDurations.Observe(d.Seconds())
}

// register adds col to reg. When an identical collector is already
// registered the existing one is returned instead.
func register[T prometheus.Collector](reg prometheus.Registerer, col T, name string) (T, error) {
	if err := reg.Register(col); err != nil {
		var zero T
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return zero, err
	}
	return col, nil
}
