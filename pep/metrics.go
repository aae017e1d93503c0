package pep

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics wraps the Prometheus collectors an Enforcer reports through.
type Metrics struct {
	decisions      *prometheus.CounterVec
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
	rateLimited    prometheus.Counter
	circuitOpen    prometheus.Counter
	evaluationTime prometheus.Histogram
}

// NewMetrics registers the Enforcer's collectors against reg. Pass
// prometheus.DefaultRegisterer unless the caller wants an isolated registry
// (e.g. in tests).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pdp_authorize_decisions_total",
			Help: "Total authorize decisions, by outcome.",
		}, []string{"decision"}),
		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "pdp_decision_cache_hits_total",
			Help: "Total decision cache hits.",
		}),
		cacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "pdp_decision_cache_misses_total",
			Help: "Total decision cache misses.",
		}),
		rateLimited: factory.NewCounter(prometheus.CounterOpts{
			Name: "pdp_rate_limited_total",
			Help: "Total requests rejected by the rate limiter.",
		}),
		circuitOpen: factory.NewCounter(prometheus.CounterOpts{
			Name: "pdp_circuit_breaker_rejected_total",
			Help: "Total requests rejected because the circuit breaker was open.",
		}),
		evaluationTime: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pdp_authorize_duration_seconds",
			Help:    "Wall-clock time spent in pdp.Engine.Authorize, excluding cache hits.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) recordDecision(decision string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(decision).Inc()
}

func (m *Metrics) recordCacheHit() {
	if m != nil {
		m.cacheHits.Inc()
	}
}

func (m *Metrics) recordCacheMiss() {
	if m != nil {
		m.cacheMisses.Inc()
	}
}

func (m *Metrics) recordRateLimited() {
	if m != nil {
		m.rateLimited.Inc()
	}
}

func (m *Metrics) recordCircuitOpen() {
	if m != nil {
		m.circuitOpen.Inc()
	}
}

func (m *Metrics) recordEvaluationTime(d time.Duration) {
	if m != nil {
		m.evaluationTime.Observe(d.Seconds())
	}
}
