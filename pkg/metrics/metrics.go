// Package metrics exposes Prometheus counters for the bot and the HTTP
// server that serves them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "keyevent"

// Metrics holds the bot's counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	workflowOutcomes *prometheus.CounterVec
	realmResolutions *prometheus.CounterVec
	profileFetches   *prometheus.CounterVec
	rotations        *prometheus.CounterVec
	refreshedRows    *prometheus.CounterVec
}

// New registers the bot's counters with registry
func New(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		workflowOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_outcomes_total",
			Help:      "Registration workflow results by flow and final state",
		}, []string{"flow", "outcome"}),
		realmResolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "realm_resolutions_total",
			Help:      "Realm name resolutions by outcome",
		}, []string{"outcome"}),
		profileFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "profile_fetches_total",
			Help:      "Character profile lookups by result",
		}, []string{"result"}),
		rotations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "table_rotations_total",
			Help:      "Weekly table rotation attempts by outcome",
		}, []string{"outcome"}),
		refreshedRows: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stats_refresh_rows_total",
			Help:      "Rows visited by the nightly stats refresh by result",
		}, []string{"result"}),
	}
}

// WorkflowOutcome counts a finished sign-up, edit or removal flow
func (m *Metrics) WorkflowOutcome(flow, outcome string) {
	if m == nil {
		return
	}
	m.workflowOutcomes.WithLabelValues(flow, outcome).Inc()
}

func (m *Metrics) RealmResolution(outcome string) {
	if m == nil {
		return
	}
	m.realmResolutions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ProfileFetch(result string) {
	if m == nil {
		return
	}
	m.profileFetches.WithLabelValues(result).Inc()
}

func (m *Metrics) Rotation(outcome string) {
	if m == nil {
		return
	}
	m.rotations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RefreshedRow(result string) {
	if m == nil {
		return
	}
	m.refreshedRows.WithLabelValues(result).Inc()
}
