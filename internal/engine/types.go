package engine

import (
	"errors"
	"time"

	"github.com/goccy/go-json"
)

// Sentinel errors shared by all engine components.
var (
	// ErrNotFound means no usable data exists for the requested key. It is a
	// legitimate empty state, not a fault.
	ErrNotFound = errors.New("not found")

	// ErrMalformedChunk means a stored replay chunk could not be parsed. The
	// chunk is skipped; it never fails a whole session.
	ErrMalformedChunk = errors.New("malformed replay chunk")

	// ErrInvalidArgument means a required key (site, session, page,
	// experiment) is missing. Rejected before any store query.
	ErrInvalidArgument = errors.New("invalid argument")
)

// ReplayEvent is one replay-format event inside a chunk. Timestamp is
// embedded by the capture script in milliseconds and is independent of the
// chunk's storage sequence.
type ReplayEvent struct {
	Type      string          `json:"type"`
	Timestamp int64           `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// ReplayChunk is one stored batch of replay events for a (site, session)
// pair. SequenceID is assigned at write time and increases monotonically;
// arrival order over the network is not guaranteed to match event time order.
// Either Events or Payload is populated: Payload holds a still-serialized
// JSON event batch that the reconstructor decodes on demand.
type ReplayChunk struct {
	SequenceID int64
	Events     []ReplayEvent
	Payload    []byte
}

// ReconstructedSession is the merged, time-ordered view of one session's
// replay chunks. Computed per request, never persisted.
type ReconstructedSession struct {
	SiteID      string        `json:"site_id"`
	SessionID   string        `json:"session_id"`
	Events      []ReplayEvent `json:"events"`
	StartTime   int64         `json:"start_time"`
	EndTime     int64         `json:"end_time"`
	DurationMs  int64         `json:"duration_ms"`
	TotalEvents int           `json:"total_events"`
}

// RageClickPoint is one raw rage-click location pulled from the insight
// store, pre-aggregated per point upstream.
type RageClickPoint struct {
	X                float64 `json:"x"`
	Y                float64 `json:"y"`
	Count            int     `json:"count"`
	FrustrationScore float64 `json:"frustration_score"`
	ElementSelector  string  `json:"element_selector"`
}

// Hotspot is a merged cluster of rage-click points. The first point in a
// cluster anchors its centroid.
type Hotspot struct {
	X                float64 `json:"x"`
	Y                float64 `json:"y"`
	Count            int     `json:"count"`
	FrustrationScore float64 `json:"frustration_score"`
	ElementSelector  string  `json:"element_selector"`
	Severity         string  `json:"severity"`
	MarkerSize       string  `json:"marker_size"`
}

// SessionPathMetrics are the per-session aggregate counters the classifier
// consumes. ErraticSegments counts thrashed-cursor insights recorded against
// the session.
type SessionPathMetrics struct {
	SessionID       string  `json:"session_id"`
	EventCount      int     `json:"event_count"`
	MaxScrollDepth  float64 `json:"max_scroll_depth"`
	DeadClickCount  int     `json:"dead_click_count"`
	ErraticSegments int     `json:"erratic_segments"`
}

// PathPattern labels a session's movement behavior.
type PathPattern string

const (
	PatternFocused   PathPattern = "focused"
	PatternExploring PathPattern = "exploring"
	PatternLost      PathPattern = "lost"
	PatternMinimal   PathPattern = "minimal"
)

// SessionPathClassification is the classifier output for one session.
type SessionPathClassification struct {
	SessionID       string      `json:"session_id"`
	Pattern         PathPattern `json:"pattern"`
	DirectnessScore float64     `json:"directness_score"`
}

// PatternBreakdown is the per-site rollup over classified sessions.
type PatternBreakdown struct {
	Focused           int     `json:"focused"`
	Exploring         int     `json:"exploring"`
	Lost              int     `json:"lost"`
	Minimal           int     `json:"minimal"`
	TotalSessions     int     `json:"total_sessions"`
	ErraticPercentage float64 `json:"erratic_percentage"`
}

// HoverRow is one raw hover event as returned by the store.
type HoverRow struct {
	SessionID       string
	ElementSelector string
	TargetTag       string
	Zone            string
	DurationMs      int64
	XRelative       float64
	YRelative       float64
}

// HeatmapPoint is a per-selector hover aggregate. Intensity is the share of
// total hover time, 0-1.
type HeatmapPoint struct {
	ElementSelector string  `json:"element_selector"`
	TargetTag       string  `json:"target_tag"`
	Zone            string  `json:"zone"`
	TotalTimeMs     int64   `json:"total_time_ms"`
	EventCount      int     `json:"event_count"`
	AvgTimeMs       float64 `json:"avg_time_ms"`
	XRelative       float64 `json:"x_relative"`
	YRelative       float64 `json:"y_relative"`
	Intensity       float64 `json:"intensity"`
}

// AttentionZone buckets hover time into a named structural page region.
type AttentionZone struct {
	Zone           string  `json:"zone"`
	TotalTimeMs    int64   `json:"total_time_ms"`
	EventCount     int     `json:"event_count"`
	UniqueSessions int     `json:"unique_sessions"`
	Percentage     float64 `json:"percentage"`
}

// AttentionResult is the full hover aggregation for one query window.
type AttentionResult struct {
	Points           []HeatmapPoint  `json:"points"`
	Zones            []AttentionZone `json:"zones"`
	TotalHoverTimeMs int64           `json:"total_hover_time_ms"`
}

// VariantStats holds pre-aggregated counts for one experiment variant.
// ConversionRate is a percentage, filled in by the evaluator.
type VariantStats struct {
	VariantID      string  `json:"variant_id"`
	Users          int64   `json:"users"`
	Conversions    int64   `json:"conversions"`
	ConversionRate float64 `json:"conversion_rate"`
}

// ExperimentResult is the evaluator's verdict for one experiment. Winner is
// empty when no statistically meaningful winner exists.
type ExperimentResult struct {
	ExperimentID    string         `json:"experiment_id"`
	Variants        []VariantStats `json:"variants"`
	Winner          string         `json:"winner,omitempty"`
	ConfidenceLevel float64        `json:"confidence_level"`
	IsSignificant   bool           `json:"is_significant"`
}

// VitalSample is one observed web-vital measurement.
type VitalSample struct {
	Metric string
	Value  float64
}

// VitalSummary is the per-metric rollup for a page.
type VitalSummary struct {
	Metric  string  `json:"metric"`
	P75     float64 `json:"p75"`
	Samples int     `json:"samples"`
	Rating  string  `json:"rating"`
}

// TimeRange bounds a store query. A zero bound is open on that side.
type TimeRange struct {
	From time.Time
	To   time.Time
}
