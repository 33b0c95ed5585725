// Package reportstore persists completed impact reports to Postgres so
// repeated analyses over the same coastline can be compared later. Entirely
// optional; the pipeline itself never touches storage.
package reportstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/mohammed-shakir/coastal-risk/internal/assess"
)

const schema = `
CREATE TABLE IF NOT EXISTS flood_reports (
	id                     BIGSERIAL PRIMARY KEY,
	created_at             TIMESTAMPTZ NOT NULL DEFAULT now(),
	region                 TEXT NOT NULL,
	model                  TEXT NOT NULL,
	sea_level              DOUBLE PRECISION NOT NULL,
	flooded_cells          BIGINT NOT NULL,
	flooded_buildings      INTEGER NOT NULL,
	flooded_road_km        DOUBLE PRECISION NOT NULL,
	flooded_critical_sites INTEGER NOT NULL,
	skipped_features       INTEGER NOT NULL,
	category_pct           JSONB NOT NULL DEFAULT '{}'
)`

type Record struct {
	ID                   int64     `db:"id"`
	CreatedAt            time.Time `db:"created_at"`
	Region               string    `db:"region"`
	Model                string    `db:"model"`
	SeaLevel             float64   `db:"sea_level"`
	FloodedCells         int64     `db:"flooded_cells"`
	FloodedBuildings     int       `db:"flooded_buildings"`
	FloodedRoadKm        float64   `db:"flooded_road_km"`
	FloodedCriticalSites int       `db:"flooded_critical_sites"`
	SkippedFeatures      int       `db:"skipped_features"`
	CategoryPct          []byte    `db:"category_pct"`
}

type Store struct {
	db *sqlx.DB
}

func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("reportstore: connect: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("reportstore: init schema: %w", err)
	}
	return nil
}

// Save stores one completed report and returns its row id.
func (s *Store) Save(ctx context.Context, region, model string, seaLevel float64, floodedCells int, rep assess.Report) (int64, error) {
	pct, err := json.Marshal(rep.CategoryPct)
	if err != nil {
		return 0, fmt.Errorf("reportstore: encode category pct: %w", err)
	}
	var id int64
	err = s.db.QueryRowxContext(ctx, `
		INSERT INTO flood_reports
			(region, model, sea_level, flooded_cells, flooded_buildings,
			 flooded_road_km, flooded_critical_sites, skipped_features, category_pct)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id`,
		region, model, seaLevel, floodedCells, rep.FloodedBuildings,
		rep.FloodedRoadKm, rep.FloodedCriticalSites, rep.SkippedFeatures, pct,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("reportstore: save: %w", err)
	}
	return id, nil
}

// Recent returns the newest reports for a region, newest first.
func (s *Store) Recent(ctx context.Context, region string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	var recs []Record
	err := s.db.SelectContext(ctx, &recs, `
		SELECT * FROM flood_reports
		WHERE region = $1
		ORDER BY created_at DESC
		LIMIT $2`, region, limit)
	if err != nil {
		return nil, fmt.Errorf("reportstore: recent: %w", err)
	}
	return recs, nil
}

func (s *Store) Close() error { return s.db.Close() }
