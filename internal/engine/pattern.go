package engine

import "math"

// Classifier labels a session's cursor and scroll behavior from aggregate
// counters using a fixed-priority decision tree.
type Classifier struct {
	minEvents       int
	lostDeadClicks  int
	lostScrollDepth float64
	lostEventCount  int
	focusedScroll   float64
	directnessClean float64
	directnessStuck float64
}

// NewClassifier creates a classifier with the default thresholds.
func NewClassifier() *Classifier {
	return &Classifier{
		minEvents:       10,
		lostDeadClicks:  2,
		lostScrollDepth: 0.8,
		lostEventCount:  50,
		focusedScroll:   0.5,
		directnessClean: 0.8,
		directnessStuck: 0.5,
	}
}

// Classify evaluates the decision tree in priority order, first match wins:
//
//  1. too few events                                  -> minimal
//  2. repeated dead clicks, or deep scroll + many events -> lost
//  3. deep enough scroll with zero dead clicks        -> focused
//  4. everything else                                 -> exploring
func (c *Classifier) Classify(m SessionPathMetrics) SessionPathClassification {
	pattern := PatternExploring
	switch {
	case m.EventCount < c.minEvents:
		pattern = PatternMinimal
	case m.DeadClickCount > c.lostDeadClicks ||
		(m.MaxScrollDepth > c.lostScrollDepth && m.EventCount > c.lostEventCount):
		pattern = PatternLost
	case m.MaxScrollDepth > c.focusedScroll && m.DeadClickCount == 0:
		pattern = PatternFocused
	}

	// Placeholder scoring, coarse on purpose: any dead click halves the
	// session's directness.
	directness := c.directnessClean
	if m.DeadClickCount > 0 {
		directness = c.directnessStuck
	}

	return SessionPathClassification{
		SessionID:       m.SessionID,
		Pattern:         pattern,
		DirectnessScore: directness,
	}
}

// Breakdown classifies every session and rolls the labels up into counts.
// ErraticPercentage is the share of sessions with at least one clustered
// erratic cursor segment, rounded to one decimal.
func (c *Classifier) Breakdown(sessions []SessionPathMetrics) PatternBreakdown {
	b := PatternBreakdown{TotalSessions: len(sessions)}
	if len(sessions) == 0 {
		return b
	}

	erratic := 0
	for _, m := range sessions {
		switch c.Classify(m).Pattern {
		case PatternFocused:
			b.Focused++
		case PatternExploring:
			b.Exploring++
		case PatternLost:
			b.Lost++
		case PatternMinimal:
			b.Minimal++
		}
		if m.ErraticSegments > 0 {
			erratic++
		}
	}

	b.ErraticPercentage = roundOneDecimal(float64(erratic) / float64(len(sessions)) * 100)
	return b
}

func roundOneDecimal(v float64) float64 {
	return math.Round(v*10) / 10
}
