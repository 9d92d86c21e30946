package moderation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var reportsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "matzon_reports_created_total",
	Help: "Reports filed, by reason.",
}, []string{"reason"})

var reportsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "matzon_reports_resolved_total",
	Help: "Reports resolved, by final status.",
}, []string{"status"})

var penaltiesApplied = promauto.NewCounter(prometheus.CounterOpts{
	Name: "matzon_penalties_applied_total",
	Help: "Automatic seven-day restrictions imposed after confirmed reports.",
})

var accountActions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "matzon_account_actions_total",
	Help: "Ban, suspend and reinstate actions.",
}, []string{"action"})
