package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/taskboard-backend/internal/cache"
	"github.com/yungbote/taskboard-backend/internal/data/db"
	"github.com/yungbote/taskboard-backend/internal/data/repos"
	httpserver "github.com/yungbote/taskboard-backend/internal/http"
	"github.com/yungbote/taskboard-backend/internal/observability"
	"github.com/yungbote/taskboard-backend/internal/platform/envutil"
	"github.com/yungbote/taskboard-backend/internal/platform/logger"
	"github.com/yungbote/taskboard-backend/internal/realtime"
	"github.com/yungbote/taskboard-backend/internal/realtime/bus"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *httpserver.Server
	Cfg      Config
	Repos    repos.Repos
	Services Services
	Clients  Clients
	Metrics  *observability.Metrics
	Hub      *realtime.Hub

	dbService    *db.Service
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

// NewLogger builds the process logger from LOG_MODE and LOG_LEVEL before config is loaded.
func NewLogger() (*logger.Logger, error) {
	log, err := logger.New(
		envutil.String("LOG_MODE", "development"),
		logger.WithLevel(envutil.String("LOG_LEVEL", "debug")),
		logger.WithRedaction(envutil.Bool("LOG_REDACTION_ENABLED", true), envutil.String("LOG_HASH_SALT", "")),
	)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return log, nil
}

func New() (*App, error) {
	log, err := NewLogger()
	if err != nil {
		return nil, err
	}

	log.Info("Loading configuration...")
	cfg, err := LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("load config: %w", err)
	}

	otelShutdown := observability.InitOTel(context.Background(), log, cfg.OtelSettings())
	metrics := observability.Init(cfg.MetricsEnabled)

	dbService, err := OpenDatabase(cfg, log)
	if err != nil {
		log.Sync()
		return nil, err
	}
	theDB := dbService.DB()

	clients, err := wireClients(log, cfg, metrics)
	if err != nil {
		_ = dbService.Close()
		log.Sync()
		return nil, err
	}

	// Without redis the hub is the publisher; with it, events round-trip
	// through pub/sub so every instance's subscribers see them.
	hub := realtime.NewHub(log)
	if clients.Publisher == nil {
		clients.Publisher = hub
	}

	reposet := wireRepos(theDB, log, nil)
	serviceset := wireServices(theDB, log, cfg, reposet, clients, metrics, nil)
	server := wireServer(log, cfg, theDB, serviceset, clients, metrics, hub)

	return &App{
		Log:          log,
		DB:           theDB,
		Server:       server,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Clients:      clients,
		Metrics:      metrics,
		Hub:          hub,
		dbService:    dbService,
		otelShutdown: otelShutdown,
	}, nil
}

// OpenDatabase connects and migrates the schema.
func OpenDatabase(cfg Config, log *logger.Logger) (*db.Service, error) {
	dbService, err := db.Open(cfg.DBConfig(), log)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := db.AutoMigrateAll(dbService.DB()); err != nil {
		_ = dbService.Close()
		return nil, fmt.Errorf("database automigrate: %w", err)
	}
	return dbService, nil
}

// Start launches the metric collectors and, with redis, the realtime forwarder.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	a.Metrics.StartDBCollector(ctx, a.Log, a.DB)
	if backend, ok := a.Clients.Cache.(interface{ Stats() cache.Stats }); ok {
		a.Metrics.StartCacheCollector(ctx, func() (map[string]float64, float64) {
			stats := backend.Stats()
			return stats.Counts(), stats.HitRate()
		})
	}
	if a.Clients.Redis != nil {
		a.Metrics.StartRedisCollector(ctx, a.Log, a.Clients.Redis)
		if err := bus.StartForwarder(ctx, a.Log, a.Clients.Redis, a.Cfg.Redis.Channel, a.Hub); err != nil {
			a.Log.Warn("realtime forwarder not started", "error", err)
		}
	}
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Server.Run(ctx, a.Cfg.Addr())
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(context.Background()); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		a.otelShutdown = nil
	}
	if err := a.Clients.Close(); err != nil {
		a.Log.Warn("redis close failed", "error", err)
	}
	a.Clients = Clients{}
	if a.dbService != nil {
		if err := a.dbService.Close(); err != nil {
			a.Log.Warn("database close failed", "error", err)
		}
		a.dbService = nil
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
