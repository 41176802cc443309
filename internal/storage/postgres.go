package storage

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sitepulse/sitepulse/internal/config"
)

// Postgres reads experiment configuration from the control-plane database.
// Raw behavioral data lives in ClickHouse; experiment definitions (which
// variants a published experiment has) are dashboard-managed rows.
type Postgres struct {
	db *pgxpool.Pool
}

func NewPostgres(ctx context.Context, cfg config.PostgresConfig) (*Postgres, error) {
	db, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return &Postgres{db: db}, nil
}

// GetExperimentVariants returns the configured variant ids for a published
// experiment, in definition order. An unknown experiment yields an empty
// slice, not an error.
func (p *Postgres) GetExperimentVariants(ctx context.Context, experimentID string) ([]string, error) {
	rows, err := p.db.Query(ctx, `
		SELECT variant_id FROM experiment_variants
		WHERE experiment_id = $1
		ORDER BY position ASC
	`, experimentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var variants []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		variants = append(variants, id)
	}
	return variants, rows.Err()
}

func (p *Postgres) Close() {
	p.db.Close()
}
