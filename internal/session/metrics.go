package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("imitate.session")

var (
	// stepTotal counts steps by mode and outcome
	stepTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "imitate_step_total",
		Help: "Total session steps by mode and outcome",
	}, []string{"mode", "outcome"})

	// choiceTotal counts how the imitator chose its statement
	choiceTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "imitate_choice_total",
		Help: "Imitator statement choices by source",
	}, []string{"source"})

	// sequenceDepth tracks nesting depth of executed sequences
	sequenceDepth = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "imitate_sequence_depth",
		Help:    "Nesting depth of executed sequences",
		Buckets: []float64{1, 2, 3, 5, 8},
	})
)

const (
	outcomeCommit     = "commit"
	outcomeSideEffect = "side_effect"
	outcomeNoResult   = "no_result"
	outcomeError      = "error"

	sourceLearned     = "learned"
	sourceGeneralized = "generalized"
	sourcePerturbed   = "perturbed"
)
