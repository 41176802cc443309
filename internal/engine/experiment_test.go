package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateConversionRates(t *testing.T) {
	result := NewEvaluator(0.95).Evaluate("exp-1", []VariantStats{
		{VariantID: "control", Users: 1000, Conversions: 100},
		{VariantID: "treatment", Users: 1000, Conversions: 150},
	})

	require.Len(t, result.Variants, 2)
	assert.InDelta(t, 10.0, result.Variants[0].ConversionRate, 1e-9)
	assert.InDelta(t, 15.0, result.Variants[1].ConversionRate, 1e-9)
}

func TestEvaluateClearWinner(t *testing.T) {
	result := NewEvaluator(0.95).Evaluate("exp-1", []VariantStats{
		{VariantID: "control", Users: 2000, Conversions: 100},
		{VariantID: "treatment", Users: 2000, Conversions: 300},
	})

	assert.True(t, result.IsSignificant)
	assert.Equal(t, "treatment", result.Winner)
	assert.Greater(t, result.ConfidenceLevel, 95.0)
}

func TestEvaluateNoWinnerOnTinySamples(t *testing.T) {
	result := NewEvaluator(0.95).Evaluate("exp-1", []VariantStats{
		{VariantID: "control", Users: 10, Conversions: 1},
		{VariantID: "treatment", Users: 10, Conversions: 2},
	})

	assert.False(t, result.IsSignificant)
	assert.Empty(t, result.Winner)
}

func TestEvaluateSymmetry(t *testing.T) {
	a := VariantStats{VariantID: "a", Users: 1500, Conversions: 120}
	b := VariantStats{VariantID: "b", Users: 1400, Conversions: 210}

	e := NewEvaluator(0.95)
	forward := e.Evaluate("exp-1", []VariantStats{a, b})
	reversed := e.Evaluate("exp-1", []VariantStats{b, a})

	assert.Equal(t, forward.IsSignificant, reversed.IsSignificant)
	assert.Equal(t, forward.Winner, reversed.Winner)
	assert.InDelta(t, forward.ConfidenceLevel, reversed.ConfidenceLevel, 1e-9)
}

func TestEvaluateMonotonicity(t *testing.T) {
	// Holding both sample sizes and variant B fixed, growing A's conversions
	// must never flip a significant verdict back to insignificant.
	e := NewEvaluator(0.95)
	wasSignificant := false
	for conversions := int64(100); conversions <= 500; conversions += 25 {
		result := e.Evaluate("exp-1", []VariantStats{
			{VariantID: "a", Users: 2000, Conversions: conversions},
			{VariantID: "b", Users: 2000, Conversions: 100},
		})
		if wasSignificant {
			assert.True(t, result.IsSignificant,
				"significance lost at %d conversions", conversions)
		}
		if result.IsSignificant {
			wasSignificant = true
		}
	}
	assert.True(t, wasSignificant)
}

func TestEvaluateDegeneracy(t *testing.T) {
	e := NewEvaluator(0.95)

	tests := []struct {
		name     string
		variants []VariantStats
	}{
		{name: "no variants", variants: nil},
		{name: "single variant", variants: []VariantStats{{VariantID: "only", Users: 500, Conversions: 50}}},
		{name: "variant without users", variants: []VariantStats{
			{VariantID: "a", Users: 500, Conversions: 50},
			{VariantID: "b", Users: 0, Conversions: 0},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := e.Evaluate("exp-1", tt.variants)
			assert.False(t, result.IsSignificant)
			assert.Empty(t, result.Winner)
		})
	}
}

func TestEvaluateWinnerTieBreaksFirstSeen(t *testing.T) {
	result := NewEvaluator(0.95).Evaluate("exp-1", []VariantStats{
		{VariantID: "first", Users: 1000, Conversions: 100},
		{VariantID: "second", Users: 1000, Conversions: 100},
	})

	// Identical rates: no significance, and the tie-break candidate is the
	// first-seen variant (observable through the pairwise confidence of 0).
	assert.False(t, result.IsSignificant)
	assert.Empty(t, result.Winner)
	assert.InDelta(t, 0.0, result.ConfidenceLevel, 1e-9)
}

func TestEvaluateThreeVariantsWinnerMustBeatAll(t *testing.T) {
	// Treatment clearly beats control but is indistinguishable from the
	// second treatment, so the overall verdict stays insignificant.
	result := NewEvaluator(0.95).Evaluate("exp-1", []VariantStats{
		{VariantID: "control", Users: 2000, Conversions: 100},
		{VariantID: "t1", Users: 2000, Conversions: 301},
		{VariantID: "t2", Users: 2000, Conversions: 300},
	})

	assert.False(t, result.IsSignificant)
	assert.Empty(t, result.Winner)
}

func TestZeroFilledVariants(t *testing.T) {
	variants := ZeroFilledVariants([]string{"control", "treatment"})
	require.Len(t, variants, 2)
	assert.Equal(t, VariantStats{VariantID: "control"}, variants[0])
	assert.Equal(t, VariantStats{VariantID: "treatment"}, variants[1])

	result := NewEvaluator(0.95).Evaluate("exp-1", variants)
	assert.False(t, result.IsSignificant)
	assert.Empty(t, result.Winner)
}

func TestEvaluatorDefaultConfidence(t *testing.T) {
	// Out-of-range confidence falls back to the default rather than erroring.
	result := NewEvaluator(42).Evaluate("exp-1", []VariantStats{
		{VariantID: "control", Users: 2000, Conversions: 100},
		{VariantID: "treatment", Users: 2000, Conversions: 300},
	})
	assert.True(t, result.IsSignificant)
}
