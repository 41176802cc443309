package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateHoverGroupsAndNormalizes(t *testing.T) {
	rows := []HoverRow{
		{SessionID: "s1", ElementSelector: "#hero-cta", TargetTag: "button", Zone: "hero", DurationMs: 3000, XRelative: 0.4, YRelative: 0.2},
		{SessionID: "s2", ElementSelector: "#hero-cta", TargetTag: "button", Zone: "hero", DurationMs: 1000, XRelative: 0.6, YRelative: 0.4},
		{SessionID: "s1", ElementSelector: "footer .links", TargetTag: "a", Zone: "footer", DurationMs: 1000, XRelative: 0.5, YRelative: 0.95},
	}

	result := AggregateHover(rows)
	assert.Equal(t, int64(5000), result.TotalHoverTimeMs)
	require.Len(t, result.Points, 2)

	cta := result.Points[0] // sorted by total duration descending
	assert.Equal(t, "#hero-cta", cta.ElementSelector)
	assert.Equal(t, int64(4000), cta.TotalTimeMs)
	assert.Equal(t, 2, cta.EventCount)
	assert.Equal(t, 2000.0, cta.AvgTimeMs)
	assert.InDelta(t, 0.5, cta.XRelative, 1e-9)
	assert.InDelta(t, 0.3, cta.YRelative, 1e-9)
	assert.InDelta(t, 0.8, cta.Intensity, 1e-9)

	require.Len(t, result.Zones, 2)
	hero := result.Zones[0]
	assert.Equal(t, "hero", hero.Zone)
	assert.Equal(t, int64(4000), hero.TotalTimeMs)
	assert.Equal(t, 2, hero.UniqueSessions)
	assert.Equal(t, 80.0, hero.Percentage)

	footer := result.Zones[1]
	assert.Equal(t, 1, footer.UniqueSessions)
	assert.Equal(t, 20.0, footer.Percentage)
}

func TestAggregateHoverIntensitiesSumToOne(t *testing.T) {
	rows := []HoverRow{
		{SessionID: "s1", ElementSelector: "#a", Zone: "hero", DurationMs: 137},
		{SessionID: "s1", ElementSelector: "#b", Zone: "hero", DurationMs: 9241},
		{SessionID: "s2", ElementSelector: "#c", Zone: "footer", DurationMs: 77},
		{SessionID: "s3", ElementSelector: "#d", Zone: "above-fold", DurationMs: 3},
	}

	result := AggregateHover(rows)
	sum := 0.0
	for _, p := range result.Points {
		sum += p.Intensity
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestAggregateHoverZeroDurationGuard(t *testing.T) {
	rows := []HoverRow{
		{SessionID: "s1", ElementSelector: "#a", Zone: "hero", DurationMs: 0},
		{SessionID: "s2", ElementSelector: "#b", Zone: "footer", DurationMs: 0},
	}

	result := AggregateHover(rows)
	assert.Equal(t, int64(0), result.TotalHoverTimeMs)
	for _, p := range result.Points {
		assert.Zero(t, p.Intensity)
	}
	for _, z := range result.Zones {
		assert.Zero(t, z.Percentage)
	}
}

func TestAggregateHoverEmptyInput(t *testing.T) {
	result := AggregateHover(nil)
	assert.Empty(t, result.Points)
	assert.Empty(t, result.Zones)
	assert.Equal(t, int64(0), result.TotalHoverTimeMs)
}

func TestAggregateHoverDeterministicOrder(t *testing.T) {
	// Equal totals exercise the stable tie-break: first-seen group first.
	rows := []HoverRow{
		{SessionID: "s1", ElementSelector: "#first", Zone: "hero", DurationMs: 100},
		{SessionID: "s1", ElementSelector: "#second", Zone: "hero", DurationMs: 100},
		{SessionID: "s1", ElementSelector: "#third", Zone: "footer", DurationMs: 100},
	}

	baseline := AggregateHover(rows)
	for i := 0; i < 10; i++ {
		assert.Equal(t, baseline, AggregateHover(rows))
	}
	assert.Equal(t, "#first", baseline.Points[0].ElementSelector)
	assert.Equal(t, "#second", baseline.Points[1].ElementSelector)

	var total float64
	for _, z := range baseline.Zones {
		total += z.Percentage
	}
	assert.False(t, math.IsNaN(total))
}
