// Package metrics holds the Prometheus collectors for vault operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "chessvault"

// Metrics is safe for concurrent use. A nil *Metrics records nothing.
type Metrics struct {
	GamesLogged     *prometheus.CounterVec
	ReplayFailures  *prometheus.CounterVec
	ReplayPlies     prometheus.Histogram
	Aggregations    *prometheus.CounterVec
	RatingChange    prometheus.Histogram
	PlayerLookups   *prometheus.CounterVec
	LedgerCacheHits *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		GamesLogged: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_logged_total",
			Help:      "Games logged, by my_result.",
		}, []string{"result"}),
		ReplayFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "replay",
			Name:      "failures_total",
			Help:      "Transcripts rejected during replay, by error kind.",
		}, []string{"kind"}),
		ReplayPlies: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "replay",
			Name:      "plies",
			Help:      "Length of successfully replayed games in plies.",
			Buckets:   []float64{10, 20, 40, 60, 80, 100, 150, 200, 300},
		}),
		Aggregations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tournament",
			Name:      "aggregations_total",
			Help:      "Tournament aggregations, by outcome (completed, empty).",
		}, []string{"outcome"}),
		RatingChange: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "tournament",
			Name:      "rating_change",
			Help:      "Rating change of completed tournaments.",
			Buckets:   prometheus.LinearBuckets(-50, 10, 11),
		}),
		PlayerLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fide",
			Name:      "lookups_total",
			Help:      "FIDE player lookups, by status.",
		}, []string{"status"}),
		LedgerCacheHits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger_cache",
			Name:      "requests_total",
			Help:      "Ledger cache reads, by hit or miss.",
		}, []string{"result"}),
	}
}

func (m *Metrics) GameLogged(myResult string) {
	if m == nil {
		return
	}
	m.GamesLogged.WithLabelValues(myResult).Inc()
}

func (m *Metrics) ReplayFailed(kind string) {
	if m == nil {
		return
	}
	m.ReplayFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) Replayed(plies int) {
	if m == nil {
		return
	}
	m.ReplayPlies.Observe(float64(plies))
}

func (m *Metrics) Aggregated(empty bool, ratingChange float64) {
	if m == nil {
		return
	}
	if empty {
		m.Aggregations.WithLabelValues("empty").Inc()
		return
	}
	m.Aggregations.WithLabelValues("completed").Inc()
	m.RatingChange.Observe(ratingChange)
}

func (m *Metrics) PlayerLookup(status string) {
	if m == nil {
		return
	}
	m.PlayerLookups.WithLabelValues(status).Inc()
}

func (m *Metrics) LedgerCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.LedgerCacheHits.WithLabelValues("hit").Inc()
	} else {
		m.LedgerCacheHits.WithLabelValues("miss").Inc()
	}
}
