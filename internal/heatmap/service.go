package heatmap

import (
	"context"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"

	"github.com/wonny/heatmap/internal/analytics"
	"github.com/wonny/heatmap/internal/contracts"
	"github.com/wonny/heatmap/internal/engineconfig"
	"github.com/wonny/heatmap/internal/ingest"
	"github.com/wonny/heatmap/pkg/logger"
	"github.com/wonny/heatmap/pkg/redis"
)

// Observer receives cache and compute events (Prometheus in the API)
type Observer interface {
	CacheHit(tier string)
	CacheMiss()
	Computed(index string, d time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) CacheHit(string) {}
func (nopObserver) CacheMiss() {}
func (nopObserver) Computed(string, time.Duration, error) {}

// ReloadListener is notified after a successful dataset reload
type ReloadListener func(ds *contracts.Dataset)

// Cache tiers reported to the Observer
const (
	TierLocal  = "local"
	TierShared = "redis"
)

// Config configures a Service
type Config struct {
	Defaults analytics.Options
	CacheTTL time.Duration // 0 = redis.TTLMedium
	Workers  int           // ComputeAll parallelism, 0 = 4
}

// Service serves heatmaps for the indices of one dataset
// ⭐ SSOT: 데이터셋 → 엔진 → 캐시 흐름은 여기서만
type Service struct {
	loader   *ingest.Loader
	defaults analytics.Options
	ttl      time.Duration
	workers  int

	local  *gocache.Cache
	shared *redis.Cache

	base     *logger.Logger // engines tag their own component
	logger   *logger.Logger
	observer Observer

	mu        sync.RWMutex
	listeners []ReloadListener
}

// NewService creates a service; shared may be nil when Redis is not used
func NewService(loader *ingest.Loader, shared *redis.Cache, cfg Config, log *logger.Logger) (*Service, error) {
	if err := cfg.Defaults.Validate(); err != nil {
		return nil, err
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = redis.TTLMedium
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if log == nil {
		log = logger.Nop()
	}

	return &Service{
		loader:   loader,
		defaults: cfg.Defaults,
		ttl:      cfg.CacheTTL,
		workers:  cfg.Workers,
		local:    gocache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		shared:   shared,
		base:     log,
		logger:   log.WithComponent("heatmap"),
		observer: nopObserver{},
	}, nil
}

// SetObserver installs an event observer
func (s *Service) SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	s.observer = o
}

// OnReload registers a listener called after every successful Reload
func (s *Service) OnReload(fn ReloadListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Defaults returns the default engine options
func (s *Service) Defaults() analytics.Options {
	return s.defaults
}

// Options overlays mode/horizon overrides on the defaults; empty keeps the default.
// A horizon alone implies forward mode.
func (s *Service) Options(mode, horizon string) (analytics.Options, error) {
	opts := s.defaults
	if horizon != "" {
		opts.Horizon = analytics.Horizon(horizon)
		if mode == "" {
			opts.Mode = analytics.ModeForward
		}
	}
	if mode != "" {
		opts.Mode = analytics.Mode(mode)
	}

	if err := opts.Validate(); err != nil {
		return analytics.Options{}, err
	}

	// "MoM", "1y" → 정규화된 키
	parsedMode, _ := analytics.ParseMode(string(opts.Mode))
	horizonSpec, _ := analytics.ParseHorizon(string(opts.Horizon))
	opts.Mode = parsedMode
	opts.Horizon = horizonSpec.Key
	return opts, nil
}

// Indices lists the index names of the dataset
func (s *Service) Indices(ctx context.Context) ([]string, error) {
	return s.loader.Indices(ctx)
}

// Dataset returns the current dataset
func (s *Service) Dataset(ctx context.Context) (*contracts.Dataset, error) {
	return s.loader.Dataset(ctx)
}

// Heatmap returns the result for one index, computing it on a cache miss.
// The returned result is a copy; callers may modify it.
func (s *Service) Heatmap(ctx context.Context, index string, opts analytics.Options) (*contracts.HeatmapResult, error) {
	engine, err := analytics.NewEngine(opts, s.base)
	if err != nil {
		return nil, err
	}

	// 데이터셋과 버전은 한 번에 읽음 (Reload 사이에 섞이지 않도록)
	ds, version, err := s.loader.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.heatmap(ctx, engine, ds, version, index)
}

func (s *Service) heatmap(ctx context.Context, engine *analytics.Engine, ds *contracts.Dataset, version uint64, index string) (*contracts.HeatmapResult, error) {
	series, err := ds.Get(index)
	if err != nil {
		return nil, err
	}

	key, err := s.cacheKey(engine.Options(), version, index)
	if err != nil {
		return nil, err
	}

	// 캐시 항목은 공유되므로 항상 복사본 반환
	if v, ok := s.local.Get(key); ok {
		s.observer.CacheHit(TierLocal)
		return v.(*contracts.HeatmapResult).Clone(), nil
	}

	cached := new(contracts.HeatmapResult)
	found, err := s.shared.Get(ctx, key, cached)
	if err != nil {
		// Redis 장애는 계산으로 대체
		s.logger.WithError(err).Warn("Shared cache read failed")
	}
	if found {
		s.observer.CacheHit(TierShared)
		s.local.Set(key, cached, gocache.DefaultExpiration)
		return cached.Clone(), nil
	}
	s.observer.CacheMiss()

	start := time.Now()
	result, err := engine.Compute(series)
	s.observer.Computed(index, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("compute %s: %w", index, err)
	}

	s.local.Set(key, result, gocache.DefaultExpiration)
	if err := s.shared.Set(ctx, key, result, s.ttl); err != nil {
		s.logger.WithError(err).Warn("Shared cache write failed")
	}

	return result.Clone(), nil
}

// ComputeAll computes every valid index of one dataset snapshot in parallel;
// the first error cancels the rest. Indices that failed to load are skipped.
func (s *Service) ComputeAll(ctx context.Context, opts analytics.Options) (map[string]*contracts.HeatmapResult, error) {
	engine, err := analytics.NewEngine(opts, s.base)
	if err != nil {
		return nil, err
	}

	ds, version, err := s.loader.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	for name, loadErr := range ds.Invalid {
		s.logger.WithError(loadErr).WithField("index", name).Warn("Skipping invalid index")
	}

	names := ds.Valid()
	results := make([]*contracts.HeatmapResult, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := s.heatmap(gctx, engine, ds, version, name)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]*contracts.HeatmapResult, len(names))
	for i, name := range names {
		out[name] = results[i]
	}
	return out, nil
}

// Reload invalidates the dataset and every cached result, then loads again
func (s *Service) Reload(ctx context.Context) (*contracts.Dataset, error) {
	ds, err := s.loader.Reload(ctx)
	if err != nil {
		return nil, err
	}

	s.local.Flush()
	if n, err := s.shared.DeletePrefix(ctx, redis.HeatmapPrefix); err != nil {
		s.logger.WithError(err).Warn("Shared cache flush failed")
	} else if n > 0 {
		s.logger.WithField("keys", n).Debug("Shared cache flushed")
	}

	s.mu.RLock()
	listeners := append([]ReloadListener(nil), s.listeners...)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn(ds)
	}

	s.logger.WithFields(map[string]interface{}{
		"source":  ds.Source,
		"indices": ds.Count(),
	}).Info("Dataset reloaded")

	return ds, nil
}

// Version returns the dataset version (changes on every load)
func (s *Service) Version() uint64 {
	return s.loader.Version()
}

// cacheKey = dataset version + engine config hash + index
func (s *Service) cacheKey(opts analytics.Options, version uint64, index string) (string, error) {
	hash, err := engineconfig.Hash(engineconfig.FromOptions(opts))
	if err != nil {
		return "", fmt.Errorf("hash options: %w", err)
	}
	return redis.HeatmapKey(version, hash[:16], index), nil
}
