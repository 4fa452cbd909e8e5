// Package metrics holds the Prometheus collectors exported on the metrics
// server.
package metrics

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	SessionsCreated    prometheus.Counter
	SessionsExpired    prometheus.Counter
	ActiveSessions     prometheus.Gauge
	Refills            prometheus.Counter
	Selections         *prometheus.CounterVec
	Exhaustions        prometheus.Counter
	FilterChanges      prometheus.Counter
	RejectedCandidates prometheus.Counter
	PlacesIngested     *prometheus.CounterVec
}

// New builds the collectors and registers them on reg. A nil reg skips
// registration.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "duel",
			Name:      "sessions_created_total",
			Help:      "Sessions created.",
		}),
		SessionsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "duel",
			Name:      "sessions_expired_total",
			Help:      "Sessions removed by the idle reaper.",
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "duel",
			Name:      "active_sessions",
			Help:      "Sessions currently held in memory.",
		}),
		Refills: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "duel",
			Name:      "refills_total",
			Help:      "Refill calls across all sessions.",
		}),
		Selections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "duel",
			Name:      "selections_total",
			Help:      "Select calls by slot index.",
		}, []string{"slot"}),
		Exhaustions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "duel",
			Name:      "exhaustions_total",
			Help:      "Selections that found no replacement candidate.",
		}),
		FilterChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "duel",
			Name:      "filter_changes_total",
			Help:      "SetFilter calls across all sessions.",
		}),
		RejectedCandidates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "duel",
			Name:      "rejected_candidates_total",
			Help:      "Candidates dropped at load for a missing id, missing location or duplicate id.",
		}),
		PlacesIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "duel",
			Name:      "places_ingested_total",
			Help:      "Places received on the ingest subject, by outcome.",
		}, []string{"outcome"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.SessionsCreated,
			m.SessionsExpired,
			m.ActiveSessions,
			m.Refills,
			m.Selections,
			m.Exhaustions,
			m.FilterChanges,
			m.RejectedCandidates,
			m.PlacesIngested,
		)
	}
	return m
}
