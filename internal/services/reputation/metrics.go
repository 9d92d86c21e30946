package reputation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var eventsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "matzon_reputation_events_total",
	Help: "Reputation events applied, by event type.",
}, []string{"type"})

var trustChanges = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "matzon_trust_level_changes_total",
	Help: "Trust level transitions, by old and new level.",
}, []string{"from", "to"})

var recalculations = promauto.NewCounter(prometheus.CounterOpts{
	Name: "matzon_reputation_recalculations_total",
	Help: "Full reputation recalculations from event history.",
})
