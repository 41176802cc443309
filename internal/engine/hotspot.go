package engine

import "math"

// DefaultClusterRadiusPx is the merge radius used when callers pass no
// override.
const DefaultClusterRadiusPx = 50

// Clusterer groups raw rage-click points into spatial hotspots.
//
// Clustering is greedy and single-pass: each point merges into the first
// existing hotspot whose centroid lies within the radius on both axes, a
// square neighborhood. The first point in a cluster anchors its centroid and
// there is no iterative re-centering, so the result depends on input order.
// This is a deliberate approximation, not k-means-quality clustering.
type Clusterer struct {
	radiusPx float64
}

// NewClusterer creates a clusterer with the given merge radius in pixels.
// A non-positive radius falls back to DefaultClusterRadiusPx.
func NewClusterer(radiusPx float64) *Clusterer {
	if radiusPx <= 0 {
		radiusPx = DefaultClusterRadiusPx
	}
	return &Clusterer{radiusPx: radiusPx}
}

// Cluster merges points into hotspots. Empty input yields empty output.
func (c *Clusterer) Cluster(points []RageClickPoint) []Hotspot {
	hotspots := make([]Hotspot, 0, len(points))

	for _, p := range points {
		merged := false
		for i := range hotspots {
			if math.Abs(hotspots[i].X-p.X) < c.radiusPx && math.Abs(hotspots[i].Y-p.Y) < c.radiusPx {
				hotspots[i].Count += p.Count
				if p.FrustrationScore > hotspots[i].FrustrationScore {
					hotspots[i].FrustrationScore = p.FrustrationScore
				}
				merged = true
				break
			}
		}
		if merged {
			continue
		}
		hotspots = append(hotspots, Hotspot{
			X:                p.X,
			Y:                p.Y,
			Count:            p.Count,
			FrustrationScore: p.FrustrationScore,
			ElementSelector:  p.ElementSelector,
		})
	}

	for i := range hotspots {
		hotspots[i].Severity = Severity(hotspots[i].FrustrationScore)
		hotspots[i].MarkerSize = MarkerSize(hotspots[i].Count)
	}

	return hotspots
}

// Severity bands a frustration score (0-100) for presentation.
func Severity(score float64) string {
	switch {
	case score >= 80:
		return "critical"
	case score >= 60:
		return "high"
	case score >= 40:
		return "medium"
	default:
		return "low"
	}
}

// MarkerSize bands a merged click count for presentation.
func MarkerSize(count int) string {
	switch {
	case count >= 10:
		return "large"
	case count >= 5:
		return "medium"
	case count >= 3:
		return "small"
	default:
		return "minimal"
	}
}
