// Package telemetry records resolver metrics.
package telemetry

import "time"

// Outcome labels how a resolution was satisfied.
type Outcome string

const (
	OutcomeCacheHit Outcome = "cache_hit"
	OutcomeCurated  Outcome = "curated"
	OutcomeProvider Outcome = "provider"
	OutcomeFallback Outcome = "fallback"
	OutcomeFailed   Outcome = "failed"
)

// Extraction sources reported by ObserveExtracted.
const (
	SourceAnswer        = "answer"
	SourceAnswerRelaxed = "answer_relaxed"
	SourceResults       = "results"
)

// Metrics receives resolver observations.
type Metrics interface {
	ObserveResolve(outcome Outcome, duration time.Duration, tools int)
	ObserveProvider(provider string, duration time.Duration, err error)
	ObserveExtracted(source string, count int)
}

// NoopMetrics discards all observations.
type NoopMetrics struct{}

// NewNoopMetrics returns a Metrics that records nothing.
func NewNoopMetrics() *NoopMetrics {
	return &NoopMetrics{}
}

func (n *NoopMetrics) ObserveResolve(_ Outcome, _ time.Duration, _ int) {}

func (n *NoopMetrics) ObserveProvider(_ string, _ time.Duration, _ error) {}

func (n *NoopMetrics) ObserveExtracted(_ string, _ int) {}

var _ Metrics = (*NoopMetrics)(nil)
