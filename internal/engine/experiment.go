package engine

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultConfidenceLevel is the significance threshold used when callers
// pass no override.
const DefaultConfidenceLevel = 0.95

// Evaluator computes per-variant conversion rates and decides whether a
// statistically meaningful winner exists.
//
// Significance uses a pooled two-proportion z-test, two-sided. The verdict is
// true only when the winner's rate differs from every other variant's beyond
// the configured confidence level. The test is symmetric in which variant is
// "A" vs "B" and a larger rate gap at fixed sample sizes never weakens the
// verdict.
type Evaluator struct {
	confidence float64
}

// NewEvaluator creates an evaluator. Confidence outside (0, 1) falls back to
// DefaultConfidenceLevel.
func NewEvaluator(confidence float64) *Evaluator {
	if confidence <= 0 || confidence >= 1 {
		confidence = DefaultConfidenceLevel
	}
	return &Evaluator{confidence: confidence}
}

// Evaluate fills in conversion rates and the significance verdict. Fewer than
// two variants, or any variant without users, degrades gracefully to an
// insignificant result with no winner. Rate ties break by first-seen input
// order.
func (e *Evaluator) Evaluate(experimentID string, variants []VariantStats) ExperimentResult {
	result := ExperimentResult{
		ExperimentID: experimentID,
		Variants:     make([]VariantStats, len(variants)),
	}

	degenerate := len(variants) < 2
	for i, v := range variants {
		if v.Users > 0 {
			v.ConversionRate = float64(v.Conversions) / float64(v.Users) * 100
		} else {
			degenerate = true
		}
		result.Variants[i] = v
	}
	if degenerate {
		return result
	}

	winner := 0
	for i := 1; i < len(result.Variants); i++ {
		if result.Variants[i].ConversionRate > result.Variants[winner].ConversionRate {
			winner = i
		}
	}

	// Winner must beat every challenger; the weakest comparison bounds the
	// reported confidence.
	maxP := 0.0
	for i, v := range result.Variants {
		if i == winner {
			continue
		}
		p := twoProportionPValue(result.Variants[winner], v)
		if p > maxP {
			maxP = p
		}
	}

	alpha := 1 - e.confidence
	result.ConfidenceLevel = roundOneDecimal((1 - maxP) * 100)
	if maxP < alpha {
		result.IsSignificant = true
		result.Winner = result.Variants[winner].VariantID
	}

	return result
}

// twoProportionPValue runs a pooled two-proportion z-test and returns the
// two-sided p-value. A zero standard error (identical degenerate rates)
// yields 1: no evidence of a difference.
func twoProportionPValue(a, b VariantStats) float64 {
	na, nb := float64(a.Users), float64(b.Users)
	pa := float64(a.Conversions) / na
	pb := float64(b.Conversions) / nb

	pooled := float64(a.Conversions+b.Conversions) / (na + nb)
	se := math.Sqrt(pooled * (1 - pooled) * (1/na + 1/nb))
	if se == 0 {
		return 1
	}

	z := math.Abs(pa-pb) / se
	return 2 * distuv.UnitNormal.Survival(z)
}

// ZeroFilledVariants builds the presentation fallback for an experiment with
// no recorded results yet: one zeroed row per configured variant.
func ZeroFilledVariants(variantIDs []string) []VariantStats {
	variants := make([]VariantStats, len(variantIDs))
	for i, id := range variantIDs {
		variants[i] = VariantStats{VariantID: id}
	}
	return variants
}
