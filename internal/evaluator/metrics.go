package evaluator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Attempt outcomes
const (
	outcomeSuccess    = "success"
	outcomeSkipped    = "skipped"
	outcomeCanceled   = "canceled"
	outcomeTimeout    = "timeout"
	outcomeNetwork    = "network"
	outcomeProvider   = "provider"
	outcomeValidation = "validation"
	outcomeError      = "error"
)

var (
	// tierAttempts counts tier attempts by tier and outcome
	tierAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "verisci_tier_attempts_total",
		Help: "Total evaluation tier attempts by tier and outcome",
	}, []string{"tier", "outcome"})

	// tierDuration tracks provider call latency, limiter wait included
	tierDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "verisci_tier_duration_seconds",
		Help:    "Evaluation tier attempt duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
	}, []string{"tier"})

	// evaluationsTotal counts final verdicts by the tier that produced them
	evaluationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "verisci_evaluations_total",
		Help: "Total evaluations by the tier that produced the verdict",
	}, []string{"tier"})
)
