package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iota-uz/orgmatrix/modules/orgchart/domain/orgtree"
)

var (
	projectionBuildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "orgchart",
		Name:      "projection_builds_total",
		Help:      "Total number of view projections built.",
	}, []string{"view", "result"})

	projectionNodes = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "orgchart",
		Name:      "projection_nodes",
		Help:      "Number of nodes in a built view.",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
	}, []string{"view"})

	projectionFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "orgchart",
		Name:      "projection_fallbacks_total",
		Help:      "Business views that fell back to the literal hierarchy.",
	})

	guardDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "orgchart",
		Name:      "guard_decisions_total",
		Help:      "Deletion guard outcomes.",
	}, []string{"entity", "decision"})

	writeConflictsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "orgchart",
		Name:      "write_conflicts_total",
		Help:      "Store constraint violations by kind.",
	}, []string{"kind"})
)

func recordWriteConflict(kind string) {
	writeConflictsTotal.WithLabelValues(kind).Inc()
}

func recordProjection(view orgtree.ViewKind, root *orgtree.Node, err error) {
	if err != nil {
		projectionBuildsTotal.WithLabelValues(string(view), "error").Inc()
		return
	}
	projectionBuildsTotal.WithLabelValues(string(view), "ok").Inc()
	projectionNodes.WithLabelValues(string(view)).Observe(float64(root.Count()))
}

func recordGuardDecision(kind EntityKind, decision string) {
	guardDecisionsTotal.WithLabelValues(string(kind), decision).Inc()
}
