package engine

import (
	"math"
	"sort"
)

// vitalThreshold holds the good/poor boundaries for one web-vital metric.
// Values between the two rate "needs-improvement".
type vitalThreshold struct {
	good float64
	poor float64
}

var vitalThresholds = map[string]vitalThreshold{
	"LCP":  {good: 2500, poor: 4000},
	"FCP":  {good: 1800, poor: 3000},
	"TTFB": {good: 800, poor: 1800},
	"FID":  {good: 100, poor: 300},
	"INP":  {good: 200, poor: 500},
	"CLS":  {good: 0.1, poor: 0.25},
}

// SummarizeVitals rolls raw web-vital samples up into a per-metric p75 and
// rating. Metrics are returned in first-seen sample order.
func SummarizeVitals(samples []VitalSample) []VitalSummary {
	values := make(map[string][]float64)
	order := make([]string, 0, len(vitalThresholds))

	for _, s := range samples {
		if _, ok := values[s.Metric]; !ok {
			order = append(order, s.Metric)
		}
		values[s.Metric] = append(values[s.Metric], s.Value)
	}

	summaries := make([]VitalSummary, 0, len(order))
	for _, metric := range order {
		vs := values[metric]
		p75 := percentile75(vs)
		summaries = append(summaries, VitalSummary{
			Metric:  metric,
			P75:     p75,
			Samples: len(vs),
			Rating:  rateVital(metric, p75),
		})
	}
	return summaries
}

// percentile75 uses the nearest-rank method over a sorted copy.
func percentile75(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	rank := int(math.Ceil(0.75*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	return sorted[rank]
}

func rateVital(metric string, value float64) string {
	t, ok := vitalThresholds[metric]
	if !ok {
		return "unknown"
	}
	switch {
	case value <= t.good:
		return "good"
	case value <= t.poor:
		return "needs-improvement"
	default:
		return "poor"
	}
}
