// Package events aligns a news event with the price bars around it.
package events

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"news-impact/internal/types"
)

// Window is the span sampled on each side of an event
type Window struct {
	Pre  time.Duration `yaml:"pre"`
	Post time.Duration `yaml:"post"`
}

// DefaultWindow is one day before and three days after the event
var DefaultWindow = Window{Pre: 24 * time.Hour, Post: 72 * time.Hour}

// Align computes before/after statistics for an event at eventTime.
//
// The pre window is [t-Pre, t) and the post window is (t, t+Post]; a bar
// stamped exactly at t belongs to neither. Every metric that cannot be
// computed is left nil.
func Align(series types.PriceSeries, eventTime time.Time, w Window) types.EventWindowMetrics {
	var m types.EventWindowMetrics
	if series.Empty() {
		return m
	}

	t := eventTime.UTC()
	preStart := t.Add(-w.Pre)
	postEnd := t.Add(w.Post)

	var before, after []types.PricePoint
	for _, p := range series.Points {
		ts := p.Timestamp.UTC()
		switch {
		case !ts.Before(preStart) && ts.Before(t):
			before = append(before, p)
		case ts.After(t) && !ts.After(postEnd):
			after = append(after, p)
		}
	}

	m.PriceBefore = mean(before, closeOf)
	m.PriceAfter = mean(after, closeOf)
	m.VolumeBefore = mean(before, volumeOf)
	m.VolumeAfter = mean(after, volumeOf)

	if m.PriceBefore != nil && m.PriceAfter != nil && *m.PriceBefore != 0 {
		m.PriceChangePct = types.Float((*m.PriceAfter - *m.PriceBefore) / *m.PriceBefore * 100)
	}

	volBefore := volatility(before)
	volAfter := volatility(after)
	if volBefore != nil && volAfter != nil {
		m.VolatilityChange = types.Float(*volAfter - *volBefore)
	}

	return m
}

func closeOf(p types.PricePoint) float64  { return p.Close }
func volumeOf(p types.PricePoint) float64 { return p.Volume }

func mean(points []types.PricePoint, field func(types.PricePoint) float64) *float64 {
	if len(points) == 0 {
		return nil
	}
	return types.Float(stat.Mean(values(points, field), nil))
}

func values(points []types.PricePoint, field func(types.PricePoint) float64) []float64 {
	xs := make([]float64, len(points))
	for i, p := range points {
		xs[i] = field(p)
	}
	return xs
}

// volatility is the sample standard deviation (n-1) of close-to-close
// fractional returns. It needs at least two defined returns.
func volatility(points []types.PricePoint) *float64 {
	if len(points) < 3 {
		return nil
	}

	returns := make([]float64, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		prev := points[i-1].Close
		if prev == 0 {
			return nil
		}
		returns = append(returns, (points[i].Close-prev)/prev)
	}
	return types.Float(stat.StdDev(returns, nil))
}
