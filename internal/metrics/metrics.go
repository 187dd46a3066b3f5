// Package metrics exposes Prometheus counters for scan outcomes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MarkOutcomes counts scan-and-mark attempts by result.
var MarkOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "rollcall_mark_attempts_total",
	Help: "Scan-and-mark attempts by outcome.",
}, []string{"outcome"})

const (
	OutcomeAccepted  = "accepted"
	OutcomeDuplicate = "duplicate"
	OutcomeExpired   = "expired"
	OutcomeInvalid   = "invalid"
	OutcomeError     = "error"
)
