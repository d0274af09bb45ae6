package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	server "github.com/yungbote/neurobridge-assessment/internal/http"
	"github.com/yungbote/neurobridge-assessment/internal/observability"
	"github.com/yungbote/neurobridge-assessment/internal/platform/logger"
)

const serviceName = "neurobridge-assessment"

type App struct {
	Log      *logger.Logger
	Cfg      Config
	Clients  Clients
	Repos    Repos
	Services Services
	Metrics  *observability.Metrics
	Router   *gin.Engine

	otelShutdown func(context.Context) error
}

// New wires the whole service from the environment. Callers own Close.
func New(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: serviceName,
		Environment: cfg.Environment,
	})
	metrics := observability.Init(log)

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		return nil, err
	}
	if clients.DB != nil {
		if err := clients.DB.AutoMigrateAll(); err != nil {
			clients.Close(ctx)
			return nil, fmt.Errorf("automigrate: %w", err)
		}
	}
	reposet := wireRepos(dbOf(clients), log)
	serviceset, err := wireServices(ctx, log, cfg, clients, reposet, metrics)
	if err != nil {
		clients.Close(ctx)
		return nil, err
	}
	handlerset := wireHandlers(log, serviceset)
	router := wireRouter(log, cfg, handlerset, metrics)

	return &App{
		Log:          log,
		Cfg:          cfg,
		Clients:      clients,
		Repos:        reposet,
		Services:     serviceset,
		Metrics:      metrics,
		Router:       router,
		otelShutdown: otelShutdown,
	}, nil
}

// Run serves HTTP and the background collectors until ctx is cancelled or one of them fails.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	g, gctx := errgroup.WithContext(ctx)

	if a.Metrics != nil {
		a.Metrics.StartServer(gctx, a.Log, a.Cfg.MetricsAddr)
		if a.Clients.DB != nil {
			a.Metrics.StartDBCollector(gctx, a.Log, a.Clients.DB.DB())
		}
		if a.Clients.Redis != nil {
			a.Metrics.StartRedisCollector(gctx, a.Log, a.Clients.Redis)
		}
		if a.Clients.Mongo != nil {
			a.Metrics.StartMongoCollector(gctx, a.Log, a.Clients.Mongo)
		}
	}

	g.Go(func() error {
		a.Log.Info("http server listening", "addr", a.Cfg.HTTPAddr)
		return (&server.Server{Engine: a.Router}).Run(gctx, a.Cfg.HTTPAddr)
	})
	return g.Wait()
}

func (a *App) Close(ctx context.Context) {
	if a == nil {
		return
	}
	if a.otelShutdown != nil {
		_ = a.otelShutdown(ctx)
	}
	a.Clients.Close(ctx)
	if a.Log != nil {
		a.Log.Sync()
	}
}
