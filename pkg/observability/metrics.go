// Package observability exposes the engine's run counters as Prometheus
// metrics. The registry is injected so tests and embedders keep isolated
// metric state.
package observability

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles the engine counters.
type Metrics struct {
	RecordsAccepted  *prometheus.CounterVec
	Rejections       *prometheus.CounterVec
	CandidatesPruned *prometheus.CounterVec
	SearchAttempts   prometheus.Counter
	SearchExhausted  prometheus.Counter
	ScenesSkipped    prometheus.Counter
}

// New registers the engine metrics on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RecordsAccepted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aqa_records_accepted_total",
				Help: "Accepted question records, by template family.",
			},
			[]string{"family"},
		),
		Rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aqa_rejections_total",
				Help: "Candidate instances rejected by the controller, by reason.",
			},
			[]string{"reason"},
		),
		CandidatesPruned: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aqa_candidates_pruned_total",
				Help: "Search candidates discarded before proposal, by reason.",
			},
			[]string{"reason"},
		),
		SearchAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aqa_search_attempts_total",
			Help: "Tentative parameter bindings tried across all searches.",
		}),
		SearchExhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aqa_search_exhausted_total",
			Help: "(scene, template) pairs whose search ended without filling its quota.",
		}),
		ScenesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aqa_scenes_skipped_total",
			Help: "Scenes skipped for unrecognized vocabulary.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.RecordsAccepted, m.Rejections, m.CandidatesPruned,
			m.SearchAttempts, m.SearchExhausted, m.ScenesSkipped)
	}
	return m
}

// NewNop returns unregistered metrics, for callers that don't scrape.
func NewNop() *Metrics { return New(nil) }
