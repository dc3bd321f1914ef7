package impact

import (
	"math"
	"testing"

	"news-impact/internal/types"
)

func TestScoreFormula(t *testing.T) {
	s := NewScorer(DefaultDivisor)
	got := s.Score(0.8, types.EventWindowMetrics{PriceChangePct: types.Float(-5.0)})
	if math.Abs(got-0.4) > 1e-9 {
		t.Errorf("Expected 0.4, got %v", got)
	}
}

func TestScoreSignIndependent(t *testing.T) {
	s := NewScorer(DefaultDivisor)
	a := s.Score(-0.7, types.EventWindowMetrics{PriceChangePct: types.Float(10)})
	b := s.Score(0.7, types.EventWindowMetrics{PriceChangePct: types.Float(-10)})
	if a != b || math.Abs(a-0.7) > 1e-9 {
		t.Errorf("Expected both scores to be 0.7, got %v and %v", a, b)
	}
}

func TestScoreNullMetrics(t *testing.T) {
	s := NewScorer(DefaultDivisor)
	if got := s.Score(1.0, types.EventWindowMetrics{}); got != 0 {
		t.Errorf("Expected 0 for all-null metrics, got %v", got)
	}
}

func TestNewScorerDefaultsDivisor(t *testing.T) {
	if s := NewScorer(0); s.Divisor != DefaultDivisor {
		t.Errorf("Expected divisor %v, got %v", DefaultDivisor, s.Divisor)
	}
	var zero Scorer
	if got := zero.Score(1, types.EventWindowMetrics{PriceChangePct: types.Float(10)}); got != 1 {
		t.Errorf("Expected zero-value scorer to use default divisor, got %v", got)
	}
	if got := NewScorer(20).Score(1, types.EventWindowMetrics{PriceChangePct: types.Float(10)}); got != 0.5 {
		t.Errorf("Expected 0.5 with divisor 20, got %v", got)
	}
}
