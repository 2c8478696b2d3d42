// Package metrics exposes the Prometheus instrumentation for the matching
// engine: submission counts by resulting order status, rejection counts
// by reason, trade counts, and match latency. The matcher is the only
// writer (the engine facade hands it the Recorder via
// matcher.WithMetrics); the instruments live in whichever registry is
// passed to NewRecorder.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder groups the vectors the matcher updates on every submission. A nil *Recorder is safe to call methods on (no-op), so
// tests that don't care about metrics can omit it.
type Recorder struct {
	submissions   *prometheus.CounterVec
	trades        *prometheus.CounterVec
	rejections    *prometheus.CounterVec
	matchDuration *prometheus.HistogramVec
}

// NewRecorder registers the engine's instruments with reg. Pass
// prometheus.DefaultRegisterer in production, or a fresh
// prometheus.NewRegistry() in tests to avoid collisions across test
// binaries.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matchengine",
			Name:      "orders_submitted_total",
			Help:      "Orders submitted to the matching engine by resulting status.",
		}, []string{"market_id", "status"}),
		trades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matchengine",
			Name:      "trades_total",
			Help:      "Trades produced by the matching engine.",
		}, []string{"market_id"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matchengine",
			Name:      "orders_rejected_total",
			Help:      "Orders rejected before or during matching, by reason.",
		}, []string{"market_id", "reason"}),
		matchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "matchengine",
			Name:      "match_duration_seconds",
			Help:      "Wall-clock time spent in the matcher's critical section.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"market_id"}),
	}
	reg.MustRegister(r.submissions, r.trades, r.rejections, r.matchDuration)
	return r
}

func (r *Recorder) ObserveSubmission(marketID, status string) {
	if r == nil {
		return
	}
	r.submissions.WithLabelValues(marketID, status).Inc()
}

func (r *Recorder) ObserveTrades(marketID string, n int) {
	if r == nil || n == 0 {
		return
	}
	r.trades.WithLabelValues(marketID).Add(float64(n))
}

func (r *Recorder) ObserveRejection(marketID, reason string) {
	if r == nil {
		return
	}
	r.rejections.WithLabelValues(marketID, reason).Inc()
}

func (r *Recorder) ObserveMatchDuration(marketID string, d time.Duration) {
	if r == nil {
		return
	}
	r.matchDuration.WithLabelValues(marketID).Observe(d.Seconds())
}
