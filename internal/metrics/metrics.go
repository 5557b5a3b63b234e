package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the collectors exposed on /metrics. A nil *Metrics is a no-op.
type Metrics struct {
	GenerationAttempts *prometheus.CounterVec
	GenerationDuration prometheus.Histogram
	SessionsActive     prometheus.Gauge
	SessionsCompleted  prometheus.Counter
	ScoreRatio         prometheus.Histogram
}

// New registers collectors on reg (prometheus.DefaultRegisterer in production).
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		GenerationAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "codequiz",
			Name:      "generation_attempts_total",
			Help:      "Quiz generation attempts by outcome (ok or error kind).",
		}, []string{"outcome"}),
		GenerationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "codequiz",
			Name:      "generation_duration_seconds",
			Help:      "Latency of the external generation call.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
		}),
		SessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "codequiz",
			Name:      "sessions_active",
			Help:      "Sessions currently held in memory.",
		}),
		SessionsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "codequiz",
			Name:      "sessions_completed_total",
			Help:      "Sessions that reached the review screen.",
		}),
		ScoreRatio: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "codequiz",
			Name:      "session_score_ratio",
			Help:      "Fraction of questions answered correctly per completed session.",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		}),
	}
}

// RejectAttempt counts an attempt refused before any external call.
func (m *Metrics) RejectAttempt(outcome string) {
	if m == nil {
		return
	}
	m.GenerationAttempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveGeneration(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.GenerationAttempts.WithLabelValues(outcome).Inc()
	m.GenerationDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.SessionsActive.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.SessionsActive.Dec()
}

func (m *Metrics) SessionCompleted(score, total int) {
	if m == nil || total == 0 {
		return
	}
	m.SessionsCompleted.Inc()
	m.ScoreRatio.Observe(float64(score) / float64(total))
}
