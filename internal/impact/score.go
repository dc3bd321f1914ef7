// Package impact combines sentiment with a price move into a single score.
package impact

import (
	"math"

	"news-impact/internal/types"
)

// DefaultDivisor maps a full-confidence sentiment and a 10% move to 1.0.
const DefaultDivisor = 10.0

// Scorer computes impact = |signed sentiment| * |price change %| / Divisor.
type Scorer struct {
	Divisor float64
}

// NewScorer returns a scorer, falling back to DefaultDivisor for non-positive values
func NewScorer(divisor float64) Scorer {
	if divisor <= 0 {
		divisor = DefaultDivisor
	}
	return Scorer{Divisor: divisor}
}

// Score returns 0 when the price change is unknown. The result is never negative.
func (s Scorer) Score(signed float64, m types.EventWindowMetrics) float64 {
	if m.PriceChangePct == nil {
		return 0
	}
	div := s.Divisor
	if div <= 0 {
		div = DefaultDivisor
	}
	return math.Abs(signed) * math.Abs(*m.PriceChangePct) / div
}
