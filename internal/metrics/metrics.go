// Package metrics exposes Prometheus instrumentation for rebalancer operations.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Operation results
const (
	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// Registry holds all rebalancer metrics
type Registry struct {
	registry *prometheus.Registry

	OperationDuration *prometheus.HistogramVec
	Operations        *prometheus.CounterVec
	CapitalMoved      *prometheus.CounterVec
	ProtocolFees      *prometheus.CounterVec
	RankingThreshold  *prometheus.GaugeVec
	RankingCandidates *prometheus.GaugeVec
}

// NewRegistry creates a registry with all rebalancer metrics and the
// standard Go and process collectors
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),

		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rebalancer_operation_duration_seconds",
				Help:    "Duration of rebalancer operations in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
			},
			[]string{"operation"},
		),

		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rebalancer_operations_total",
				Help: "Total number of rebalancer operations by result",
			},
			[]string{"operation", "result"},
		),

		CapitalMoved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rebalancer_capital_moved_total",
				Help: "Capital moved in native units by direction",
			},
			[]string{"direction"},
		),

		ProtocolFees: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rebalancer_protocol_fees_total",
				Help: "Fees and penalties lost to protocols on extraction, in native units",
			},
			[]string{"protocol"},
		),

		RankingThreshold: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rebalancer_ranking_threshold_percent",
				Help: "Dynamic threshold of the last ranking cycle",
			},
			[]string{"portfolio"},
		),

		RankingCandidates: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rebalancer_ranking_candidates",
				Help: "Rebalance candidates found by the last ranking cycle",
			},
			[]string{"portfolio"},
		),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.OperationDuration,
		r.Operations,
		r.CapitalMoved,
		r.ProtocolFees,
		r.RankingThreshold,
		r.RankingCandidates,
	)

	return r
}

// Handler serves the registry in the Prometheus exposition format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// OperationTimer tracks execution time for one operation
type OperationTimer struct {
	metrics   *Registry
	operation string
	start     time.Time
}

// StartOperation begins timing an operation. A nil registry yields a no-op timer.
func (r *Registry) StartOperation(operation string) *OperationTimer {
	return &OperationTimer{metrics: r, operation: operation, start: time.Now()}
}

// Stop records the duration and result of the operation
func (t *OperationTimer) Stop(result string) {
	if t == nil || t.metrics == nil {
		return
	}
	t.metrics.OperationDuration.WithLabelValues(t.operation).Observe(time.Since(t.start).Seconds())
	t.metrics.Operations.WithLabelValues(t.operation, result).Inc()
}

// RecordExtraction records realised capital and protocol fees of one extraction
func (r *Registry) RecordExtraction(protocol string, net, fee uint64) {
	if r == nil {
		return
	}
	r.CapitalMoved.WithLabelValues("extracted").Add(float64(net))
	r.ProtocolFees.WithLabelValues(protocol).Add(float64(fee))
}

// RecordRedistribution records capital credited to strategies
func (r *Registry) RecordRedistribution(amount uint64) {
	if r == nil {
		return
	}
	r.CapitalMoved.WithLabelValues("redistributed").Add(float64(amount))
}

// RecordRanking records the outcome of a ranking cycle
func (r *Registry) RecordRanking(portfolio string, threshold uint8, candidates int) {
	if r == nil {
		return
	}
	r.RankingThreshold.WithLabelValues(portfolio).Set(float64(threshold))
	r.RankingCandidates.WithLabelValues(portfolio).Set(float64(candidates))
}
