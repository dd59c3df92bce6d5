package ingest

import (
	"context"

	"github.com/wonny/heatmap/internal/contracts"
)

// Source loads the full set of daily index series
type Source interface {
	// Name identifies the source in logs and Dataset.Source (e.g. "csv:data/indices.csv")
	Name() string
	Load(ctx context.Context) (*contracts.Dataset, error)
}

// DefaultDateColumn is the header of the date column in wide tables
const DefaultDateColumn = "DATE"
