package prices

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/heatmap/internal/analytics"
	"github.com/wonny/heatmap/internal/contracts"
	"github.com/wonny/heatmap/pkg/database"
)

const schema = `
	CREATE TABLE IF NOT EXISTS index_prices (
		index_name TEXT             NOT NULL,
		trade_date DATE             NOT NULL,
		value      DOUBLE PRECISION NOT NULL,
		updated_at TIMESTAMPTZ      NOT NULL DEFAULT now(),
		PRIMARY KEY (index_name, trade_date)
	)
`

// Repository stores daily index prices in PostgreSQL and serves them as a Source
// ⭐ SSOT: 지수 가격 저장소는 여기서만
type Repository struct {
	db *database.DB
}

// NewRepository creates a new price repository
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// EnsureSchema creates the index_prices table when missing
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create index_prices: %w", err)
	}
	return nil
}

// SaveSeries upserts every observation of a series in one transaction
func (r *Repository) SaveSeries(ctx context.Context, series contracts.DailySeries) (int, error) {
	if len(series.Observations) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO index_prices (index_name, trade_date, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (index_name, trade_date) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = now()
	`

	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, o := range series.Observations {
			batch.Queue(query, series.Index, o.Date, o.Value)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return 0, fmt.Errorf("failed to save %s: %w", series.Index, err)
	}

	return len(series.Observations), nil
}

// ListIndices returns the stored index names, alphabetically
func (r *Repository) ListIndices(ctx context.Context) ([]string, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT DISTINCT index_name FROM index_prices ORDER BY index_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query indices: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// DeleteIndex removes every row of one index
func (r *Repository) DeleteIndex(ctx context.Context, index string) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM index_prices WHERE index_name = $1`, index)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Name implements ingest.Source
func (r *Repository) Name() string {
	return "postgres:index_prices"
}

// Load implements ingest.Source
func (r *Repository) Load(ctx context.Context) (*contracts.Dataset, error) {
	query := `
		SELECT index_name, trade_date, value
		FROM index_prices
		ORDER BY index_name, trade_date
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query index_prices: %w", err)
	}
	defer rows.Close()

	ds := &contracts.Dataset{
		Series:   make(map[string]contracts.DailySeries),
		Source:   r.Name(),
		LoadedAt: time.Now(),
	}

	byIndex := make(map[string]*contracts.DailySeries)
	var names []string
	for rows.Next() {
		var (
			name  string
			date  time.Time
			value float64
		)
		if err := rows.Scan(&name, &date, &value); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		s, ok := byIndex[name]
		if !ok {
			s = &contracts.DailySeries{Index: name}
			byIndex[name] = s
			names = append(names, name)
		}
		s.Observations = append(s.Observations, contracts.DailyObservation{Date: date, Value: value})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	for _, name := range names {
		prepared, err := analytics.PrepareSeries(*byIndex[name])
		ds.Add(name, prepared, err)
	}

	return ds, nil
}
