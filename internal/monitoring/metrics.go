// Package monitoring exposes Prometheus metrics for the scoring engine.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sells-group/compliance-cli/internal/model"
	"github.com/sells-group/compliance-cli/internal/scoring"
)

// Operation status label values.
const (
	StatusSuccess  = "success"
	StatusNotFound = "not_found"
	StatusInvalid  = "invalid_weights"
	StatusError    = "error"
)

// Metrics implements scoring.Recorder on top of Prometheus collectors.
type Metrics struct {
	duration   *prometheus.HistogramVec
	operations *prometheus.CounterVec
	riskBands  *prometheus.CounterVec
}

// NewMetrics registers the scoring collectors with reg. A nil reg uses the
// default Prometheus registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "compliance_scoring_duration_seconds",
				Help:    "Duration of scoring engine operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "compliance_scoring_operations_total",
				Help: "Total scoring engine operations by outcome.",
			},
			[]string{"operation", "status"},
		),
		riskBands: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "compliance_risk_band_total",
				Help: "Overall scores computed per risk band.",
			},
			[]string{"band"},
		),
	}
}

// ObserveOperation records the latency and outcome of one engine operation.
func (m *Metrics) ObserveOperation(op string, elapsed time.Duration, err error) {
	m.duration.WithLabelValues(op).Observe(elapsed.Seconds())
	m.operations.WithLabelValues(op, Status(err)).Inc()
}

// ObserveRiskBand counts a computed overall score's band.
func (m *Metrics) ObserveRiskBand(band model.RiskBand) {
	m.riskBands.WithLabelValues(string(band)).Inc()
}

// Status maps an engine error to its status label.
func Status(err error) string {
	switch {
	case err == nil:
		return StatusSuccess
	case scoring.IsNotFound(err):
		return StatusNotFound
	case scoring.IsInvalidWeights(err):
		return StatusInvalid
	default:
		return StatusError
	}
}

var _ scoring.Recorder = (*Metrics)(nil)
