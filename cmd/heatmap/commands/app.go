package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/wonny/heatmap/internal/engineconfig"
	"github.com/wonny/heatmap/internal/heatmap"
	"github.com/wonny/heatmap/internal/ingest"
	"github.com/wonny/heatmap/internal/prices"
	"github.com/wonny/heatmap/pkg/config"
	"github.com/wonny/heatmap/pkg/database"
	"github.com/wonny/heatmap/pkg/httputil"
	"github.com/wonny/heatmap/pkg/logger"
	"github.com/wonny/heatmap/pkg/redis"
)

// cachePrefix namespaces heatmap keys in Redis
const cachePrefix = "hm"

// app holds the wired dependencies shared by the commands
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	engine  *engineconfig.Config
	db      *database.DB  // nil unless the postgres source or import needs it
	redis   *redis.Client // disabled client when REDIS_ENABLED=false
	source  ingest.Source
	loader  *ingest.Loader
	service *heatmap.Service
}

type appOptions struct {
	// stdoutLogs keeps the configured logger on stdout (servers);
	// CLI commands log JSON to stderr so their output stays clean
	stdoutLogs bool
	// needDB connects to PostgreSQL even when the source is a file
	needDB bool
}

// loadConfig applies the global flags on top of the environment
func loadConfig() (*config.Config, error) {
	overrides := map[string]string{}
	if engineConfigPath != "" {
		overrides["ANALYTICS_CONFIG"] = engineConfigPath
	}
	if dataSource != "" {
		overrides["DATA_SOURCE"] = dataSource
	}
	if dataPath != "" {
		overrides["DATA_PATH"] = dataPath
		overrides["DATA_URL"] = dataPath
	}
	if verbose {
		overrides["LOG_LEVEL"] = "debug"
	}
	for k, v := range overrides {
		if err := os.Setenv(k, v); err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// newApp wires config → logger → engine config → connections → source → service
func newApp(ctx context.Context, opts appOptions) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log := logger.NewWithWriter(os.Stderr, cfg.LogLevel)
	if opts.stdoutLogs {
		log = logger.New(cfg)
	}

	engine, err := engineconfig.Resolve(cfg.Analytics)
	if err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}

	a := &app{cfg: cfg, log: log, engine: engine}

	if opts.needDB || cfg.Data.Source == config.SourcePostgres {
		a.db, err = database.New(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		log.Debug("Connected to database")
	}

	a.redis, err = redis.New(ctx, cfg.Redis)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	httpClient := httputil.New(log, httputil.WithRateLimit(2, 1), httputil.WithTimeout(time.Minute))
	a.source, err = newSource(cfg.Data, a.db, httpClient)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.loader = ingest.NewLoader(a.source, log)
	a.service, err = heatmap.NewService(a.loader, redis.NewCache(a.redis, cachePrefix), heatmap.Config{
		Defaults: engine.Options(),
		CacheTTL: cfg.CacheTTL,
	}, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	hash, _ := engineconfig.Hash(engine)
	log.WithFields(map[string]interface{}{
		"source":      a.source.Name(),
		"mode":        engine.Calculation.Mode,
		"horizon":     engine.Calculation.Horizon,
		"config_hash": shortHash(hash),
		"redis":       a.redis.Enabled(),
	}).Debug("Application initialized")

	return a, nil
}

// Close releases connections
func (a *app) Close() {
	if a.redis != nil {
		a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}

// newSource builds the ingest source named by DATA_SOURCE
// ⭐ SSOT: 데이터 소스 선택은 여기서만
func newSource(cfg config.DataConfig, db *database.DB, client *httputil.Client) (ingest.Source, error) {
	switch cfg.Source {
	case config.SourceCSV:
		return ingest.NewCSVSource(cfg.Path, cfg.DateColumn), nil
	case config.SourceXLSX:
		return ingest.NewXLSXSource(cfg.Path, cfg.Sheet, cfg.DateColumn), nil
	case config.SourceHTML:
		return ingest.NewHTMLSource(cfg.Path, cfg.DateColumn), nil
	case config.SourceURL:
		return ingest.NewRemoteCSVSource(cfg.URL, cfg.DateColumn, client), nil
	case config.SourcePostgres:
		if db == nil {
			return nil, fmt.Errorf("postgres source requires a database connection")
		}
		return prices.NewRepository(db), nil
	default:
		return nil, fmt.Errorf("unknown data source %q", cfg.Source)
	}
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
