package engine

import "sort"

// hoverKey identifies one heatmap grouping bucket.
type hoverKey struct {
	selector string
	tag      string
	zone     string
}

// AggregateHover converts raw hover rows into per-element heatmap points and
// per-zone attention intensities. Groups are accumulated in first-seen input
// order and the final stable sort is by total duration descending, so the
// same rows always produce the same output.
func AggregateHover(rows []HoverRow) AttentionResult {
	result := AttentionResult{
		Points: []HeatmapPoint{},
		Zones:  []AttentionZone{},
	}
	if len(rows) == 0 {
		return result
	}

	pointIdx := make(map[hoverKey]int)
	zoneIdx := make(map[string]int)
	zoneSessions := make(map[string]map[string]struct{})
	sumX := make(map[hoverKey]float64)
	sumY := make(map[hoverKey]float64)

	for _, row := range rows {
		key := hoverKey{selector: row.ElementSelector, tag: row.TargetTag, zone: row.Zone}
		i, ok := pointIdx[key]
		if !ok {
			i = len(result.Points)
			pointIdx[key] = i
			result.Points = append(result.Points, HeatmapPoint{
				ElementSelector: row.ElementSelector,
				TargetTag:       row.TargetTag,
				Zone:            row.Zone,
			})
		}
		result.Points[i].TotalTimeMs += row.DurationMs
		result.Points[i].EventCount++
		sumX[key] += row.XRelative
		sumY[key] += row.YRelative

		j, ok := zoneIdx[row.Zone]
		if !ok {
			j = len(result.Zones)
			zoneIdx[row.Zone] = j
			result.Zones = append(result.Zones, AttentionZone{Zone: row.Zone})
			zoneSessions[row.Zone] = make(map[string]struct{})
		}
		result.Zones[j].TotalTimeMs += row.DurationMs
		result.Zones[j].EventCount++
		zoneSessions[row.Zone][row.SessionID] = struct{}{}

		result.TotalHoverTimeMs += row.DurationMs
	}

	for i := range result.Points {
		p := &result.Points[i]
		key := hoverKey{selector: p.ElementSelector, tag: p.TargetTag, zone: p.Zone}
		p.AvgTimeMs = float64(p.TotalTimeMs) / float64(p.EventCount)
		p.XRelative = sumX[key] / float64(p.EventCount)
		p.YRelative = sumY[key] / float64(p.EventCount)
		if result.TotalHoverTimeMs > 0 {
			p.Intensity = float64(p.TotalTimeMs) / float64(result.TotalHoverTimeMs)
		}
	}

	for i := range result.Zones {
		z := &result.Zones[i]
		z.UniqueSessions = len(zoneSessions[z.Zone])
		if result.TotalHoverTimeMs > 0 {
			z.Percentage = roundOneDecimal(float64(z.TotalTimeMs) / float64(result.TotalHoverTimeMs) * 100)
		}
	}

	sort.SliceStable(result.Points, func(i, j int) bool {
		return result.Points[i].TotalTimeMs > result.Points[j].TotalTimeMs
	})
	sort.SliceStable(result.Zones, func(i, j int) bool {
		return result.Zones[i].TotalTimeMs > result.Zones[j].TotalTimeMs
	})

	return result
}
