package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/heatmap/internal/contracts"
	"github.com/wonny/heatmap/pkg/logger"
)

// Loader holds the dataset of a Source: loaded on first use, reused until Invalidate
// ⭐ SSOT: 데이터셋 캐시 슬롯은 여기서만
type Loader struct {
	source Source
	logger *logger.Logger

	mu      sync.Mutex
	data    *contracts.Dataset
	version uint64
}

// NewLoader creates a loader over source
func NewLoader(source Source, log *logger.Logger) *Loader {
	if log == nil {
		log = logger.Nop()
	}
	return &Loader{
		source: source,
		logger: log.WithComponent("ingest"),
	}
}

// Dataset returns the cached dataset, loading it on first use.
// Concurrent callers wait for a single load.
func (l *Loader) Dataset(ctx context.Context) (*contracts.Dataset, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.data != nil {
		return l.data, nil
	}
	return l.loadLocked(ctx)
}

// Snapshot returns the dataset together with the version it was loaded as
func (l *Loader) Snapshot(ctx context.Context) (*contracts.Dataset, uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.data != nil {
		return l.data, l.version, nil
	}
	ds, err := l.loadLocked(ctx)
	if err != nil {
		return nil, 0, err
	}
	return ds, l.version, nil
}

// Invalidate drops the cached dataset; the next Dataset call reloads
func (l *Loader) Invalidate() {
	l.mu.Lock()
	l.data = nil
	l.mu.Unlock()

	l.logger.Debug("Dataset invalidated")
}

// Reload loads the source again and replaces the cached dataset.
// On failure the cache is left empty so the next call retries.
func (l *Loader) Reload(ctx context.Context) (*contracts.Dataset, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.data = nil
	return l.loadLocked(ctx)
}

// Version counts successful loads; it changes whenever the dataset does
func (l *Loader) Version() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.version
}

// Indices returns the index names of the dataset in source order
func (l *Loader) Indices(ctx context.Context) ([]string, error) {
	ds, err := l.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), ds.Names...), nil
}

// Series returns one daily series; MissingIndexError when absent
func (l *Loader) Series(ctx context.Context, index string) (contracts.DailySeries, error) {
	ds, err := l.Dataset(ctx)
	if err != nil {
		return contracts.DailySeries{}, err
	}
	return ds.Get(index)
}

func (l *Loader) loadLocked(ctx context.Context) (*contracts.Dataset, error) {
	start := time.Now()

	ds, err := l.source.Load(ctx)
	if err != nil {
		l.logger.WithError(err).WithField("source", l.source.Name()).Error("Dataset load failed")
		return nil, fmt.Errorf("load %s: %w", l.source.Name(), err)
	}

	l.data = ds
	l.version++

	for name, indexErr := range ds.Invalid {
		l.logger.WithError(indexErr).WithField("index", name).Warn("Index failed to load")
	}

	l.logger.WithFields(map[string]interface{}{
		"source":   l.source.Name(),
		"indices":  ds.Count(),
		"invalid":  len(ds.Invalid),
		"version":  l.version,
		"duration": time.Since(start),
	}).Info("Dataset loaded")

	return ds, nil
}
