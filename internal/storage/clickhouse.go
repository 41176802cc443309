package storage

import (
	"context"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/sitepulse/sitepulse/internal/config"
	"github.com/sitepulse/sitepulse/internal/engine"
)

// ClickHouse is the read-side event store adapter. It owns every query the
// engine components consume; the engine never sees SQL.
type ClickHouse struct {
	conn    driver.Conn
	maxRows int
}

func NewClickHouse(cfg config.ClickHouseConfig, maxRows int) (*ClickHouse, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		MaxOpenConns: cfg.MaxOpenConns,
		MaxIdleConns: cfg.MaxIdleConns,
	})
	if err != nil {
		return nil, err
	}

	// Test connection
	if err := conn.Ping(context.Background()); err != nil {
		return nil, err
	}

	return &ClickHouse{conn: conn, maxRows: maxRows}, nil
}

// GetReplayChunks returns every stored chunk for the session, ordered by
// sequence id ascending. Payloads stay serialized; the reconstructor decodes
// them.
func (c *ClickHouse) GetReplayChunks(ctx context.Context, siteID, sessionID string) ([]engine.ReplayChunk, error) {
	rows, err := c.conn.Query(ctx, `
		SELECT sequence_id, payload
		FROM replay_chunks
		WHERE site_id = ? AND session_id = ?
		ORDER BY sequence_id ASC
		LIMIT ?
	`, siteID, sessionID, c.maxRows)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []engine.ReplayChunk
	for rows.Next() {
		var (
			sequenceID uint64
			payload    string
		)
		if err := rows.Scan(&sequenceID, &payload); err != nil {
			return nil, err
		}
		chunks = append(chunks, engine.ReplayChunk{
			SequenceID: int64(sequenceID),
			Payload:    []byte(payload),
		})
	}
	return chunks, rows.Err()
}

// GetHoverEvents returns raw hover rows for one page. An empty deviceType
// matches all devices.
func (c *ClickHouse) GetHoverEvents(ctx context.Context, siteID, pagePath, deviceType string, tr engine.TimeRange) ([]engine.HoverRow, error) {
	from, to := bounds(tr)
	rows, err := c.conn.Query(ctx, `
		SELECT session_id, element_selector, target_tag, zone, duration_ms, x_relative, y_relative
		FROM hover_events
		WHERE site_id = ? AND page_path = ?
		  AND (? = '' OR device_type = ?)
		  AND timestamp >= ? AND timestamp < ?
		ORDER BY timestamp ASC
		LIMIT ?
	`, siteID, pagePath, deviceType, deviceType, from, to, c.maxRows)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hovers []engine.HoverRow
	for rows.Next() {
		var (
			row        engine.HoverRow
			durationMs uint64
		)
		if err := rows.Scan(&row.SessionID, &row.ElementSelector, &row.TargetTag, &row.Zone,
			&durationMs, &row.XRelative, &row.YRelative); err != nil {
			return nil, err
		}
		row.DurationMs = int64(durationMs)
		hovers = append(hovers, row)
	}
	return hovers, rows.Err()
}

// GetSessionAggregates returns the per-session counters the classifier
// consumes, for sessions that touched the given page.
func (c *ClickHouse) GetSessionAggregates(ctx context.Context, siteID, pagePath string, tr engine.TimeRange) ([]engine.SessionPathMetrics, error) {
	from, to := bounds(tr)
	rows, err := c.conn.Query(ctx, `
		SELECT session_id, events_count, max_scroll_depth, dead_click_count, erratic_segments
		FROM sessions
		WHERE site_id = ? AND (? = '' OR entry_page = ? OR exit_page = ?)
		  AND started_at >= ? AND started_at < ?
		ORDER BY started_at ASC
		LIMIT ?
	`, siteID, pagePath, pagePath, pagePath, from, to, c.maxRows)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []engine.SessionPathMetrics
	for rows.Next() {
		var (
			m              engine.SessionPathMetrics
			eventsCount    uint32
			deadClicks     uint32
			erraticSegment uint32
		)
		if err := rows.Scan(&m.SessionID, &eventsCount, &m.MaxScrollDepth, &deadClicks, &erraticSegment); err != nil {
			return nil, err
		}
		m.EventCount = int(eventsCount)
		m.DeadClickCount = int(deadClicks)
		m.ErraticSegments = int(erraticSegment)
		sessions = append(sessions, m)
	}
	return sessions, rows.Err()
}

// GetRageClickPoints returns pre-aggregated rage-click locations for one
// page, in insight timestamp order so clustering stays reproducible.
func (c *ClickHouse) GetRageClickPoints(ctx context.Context, siteID, pagePath, deviceType string, tr engine.TimeRange) ([]engine.RageClickPoint, error) {
	from, to := bounds(tr)
	rows, err := c.conn.Query(ctx, `
		SELECT x, y, click_count, frustration_score, element_selector
		FROM insights
		WHERE site_id = ? AND page_path = ? AND insight_type = 'rage_click'
		  AND (? = '' OR device_type = ?)
		  AND timestamp >= ? AND timestamp < ?
		ORDER BY timestamp ASC
		LIMIT ?
	`, siteID, pagePath, deviceType, deviceType, from, to, c.maxRows)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []engine.RageClickPoint
	for rows.Next() {
		var (
			p          engine.RageClickPoint
			x, y       int32
			clickCount uint32
		)
		if err := rows.Scan(&x, &y, &clickCount, &p.FrustrationScore, &p.ElementSelector); err != nil {
			return nil, err
		}
		p.X = float64(x)
		p.Y = float64(y)
		p.Count = int(clickCount)
		points = append(points, p)
	}
	return points, rows.Err()
}

// GetVariantCounts returns pre-aggregated users and conversions per variant
// for one experiment, in first-exposure order.
func (c *ClickHouse) GetVariantCounts(ctx context.Context, experimentID string, tr engine.TimeRange) ([]engine.VariantStats, error) {
	from, to := bounds(tr)
	rows, err := c.conn.Query(ctx, `
		SELECT
			variant_id,
			uniqExact(user_id) AS users,
			uniqExactIf(user_id, event_type = 'conversion') AS conversions,
			min(timestamp) AS first_seen
		FROM experiment_events
		WHERE experiment_id = ?
		  AND timestamp >= ? AND timestamp < ?
		GROUP BY variant_id
		ORDER BY first_seen ASC
	`, experimentID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var variants []engine.VariantStats
	for rows.Next() {
		var (
			v           engine.VariantStats
			users       uint64
			conversions uint64
			firstSeen   time.Time
		)
		if err := rows.Scan(&v.VariantID, &users, &conversions, &firstSeen); err != nil {
			return nil, err
		}
		v.Users = int64(users)
		v.Conversions = int64(conversions)
		variants = append(variants, v)
	}
	return variants, rows.Err()
}

// GetVitalSamples unpivots the web_vitals columns into one row per observed
// metric for the page.
func (c *ClickHouse) GetVitalSamples(ctx context.Context, siteID, pagePath string, tr engine.TimeRange) ([]engine.VitalSample, error) {
	from, to := bounds(tr)
	rows, err := c.conn.Query(ctx, `
		SELECT metric, assumeNotNull(value) AS sample
		FROM web_vitals
		ARRAY JOIN
			['LCP', 'FID', 'CLS', 'TTFB', 'FCP', 'INP'] AS metric,
			[lcp, fid, cls, ttfb, fcp, inp] AS value
		WHERE site_id = ? AND page_path = ?
		  AND timestamp >= ? AND timestamp < ?
		  AND isNotNull(value)
		ORDER BY timestamp ASC
		LIMIT ?
	`, siteID, pagePath, from, to, c.maxRows)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []engine.VitalSample
	for rows.Next() {
		var s engine.VitalSample
		if err := rows.Scan(&s.Metric, &s.Value); err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

func (c *ClickHouse) Close() error {
	return c.conn.Close()
}

// bounds normalizes an open time range into concrete query bounds.
func bounds(tr engine.TimeRange) (time.Time, time.Time) {
	from, to := tr.From, tr.To
	if from.IsZero() {
		from = time.Unix(0, 0)
	}
	if to.IsZero() {
		to = time.Now()
	}
	return from, to
}
