// Package app wires configuration, connections, caching and the HTTP API
// into a runnable dashboard.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"cnes-dashboard/internal/backend"
	"cnes-dashboard/internal/cache"
	"cnes-dashboard/internal/common/config"
	"cnes-dashboard/internal/common/credentials"
	"cnes-dashboard/internal/common/database"
	apperrors "cnes-dashboard/internal/common/errors"
	"cnes-dashboard/internal/common/logger"
	"cnes-dashboard/internal/common/observability"
	"cnes-dashboard/internal/dashboard"
	"cnes-dashboard/internal/fetcher"
	"cnes-dashboard/internal/lookup"
	"cnes-dashboard/pkg/registry"
)

// Options overrides collaborators that are normally derived from config.
type Options struct {
	Credentials     credentials.Provider
	Registerer      promclient.Registerer
	BigQueryOptions []option.ClientOption
	ConnectRetries  int
	ConnectDelay    time.Duration
}

func (o Options) withDefaults(cfg *config.Config) Options {
	if o.Credentials == nil {
		o.Credentials = credentials.NewEnvProvider(cfg)
	}
	if o.Registerer == nil {
		o.Registerer = promclient.DefaultRegisterer
	}
	if o.ConnectRetries <= 0 {
		o.ConnectRetries = 5
	}
	if o.ConnectDelay <= 0 {
		o.ConnectDelay = time.Second
	}
	return o
}

type App struct {
	Config    *config.Config
	Fetcher   *fetcher.Fetcher
	Lookup    *lookup.Client
	Registry  *registry.FieldRegistry
	Readiness *dashboard.Readiness
	Errors    *apperrors.ErrorHandler

	log   logger.Logger
	zap   *zap.Logger
	obs   *observability.Observability
	conns *connections
	redis *database.RedisClient
	stop  context.CancelFunc
}

// New opens every connection the configured backend needs. The returned App
// must be closed.
func New(ctx context.Context, cfg *config.Config, zapLog *zap.Logger, opts Options) (*App, error) {
	if cfg == nil {
		return nil, apperrors.NewConfigurationError("configuration is required")
	}
	opts = opts.withDefaults(cfg)
	log := logger.NewZapAdapter(zapLog)

	reg, err := loadRegistry(cfg.App.RegistryPath)
	if err != nil {
		return nil, err
	}

	lookupClient, err := lookup.NewClient(lookup.LoadConfig(cfg), log.With(map[string]interface{}{"component": "lookup"}))
	if err != nil {
		return nil, err
	}

	obs, err := observability.NewWithRegisterer(cfg.App.Name, opts.Registerer)
	if err != nil {
		zapLog.Warn("observability disabled", zap.Error(err))
		obs = nil
	}

	a := &App{
		Config:   cfg,
		Lookup:   lookupClient,
		Registry: reg,
		log:      log,
		zap:      zapLog,
		obs:      obs,
	}

	conns, err := openConnections(ctx, cfg, opts.Credentials, opts, zapLog)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.conns = conns

	deps := conns.dependencies(cfg)
	deps.Logger = log.With(map[string]interface{}{"component": "backend"})
	dataBackend, err := backend.New(cfg.Backend.Kind, deps)
	if err != nil {
		a.Close()
		return nil, err
	}

	store, err := a.openCache(ctx, opts)
	if err != nil {
		a.Close()
		return nil, err
	}
	memo := cache.NewMemo(store, cfg.CacheTTL(), log.With(map[string]interface{}{"component": "cache"}))

	var recorder fetcher.Recorder
	if obs != nil {
		recorder = obs
	}
	a.Fetcher = fetcher.New(fetcher.LoadConfig(cfg), dataBackend, memo, recorder, log.With(map[string]interface{}{"component": "fetcher"}))

	a.Readiness = dashboard.NewReadiness()
	a.Errors = dashboard.NewErrorHandler(log, a.Readiness)

	zapLog.Info("dashboard initialized",
		zap.String("backend", a.Fetcher.Backend()),
		zap.String("cache", cfg.Cache.Driver),
		zap.Duration("cacheTTL", cfg.CacheTTL()),
	)
	return a, nil
}

// openCache returns the memo store. The memory store gets a janitor that
// runs until Close.
func (a *App) openCache(ctx context.Context, opts Options) (cache.Store, error) {
	cfg := a.Config
	switch cfg.Cache.Driver {
	case config.CacheDriverRedis:
		client, err := database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return nil, apperrors.WrapConfigurationError("create redis client", err)
		}
		a.redis = client
		err = retryWithBackoff(ctx, client.Ping, opts.ConnectRetries, opts.ConnectDelay, a.zap, "redis connection")
		if err != nil {
			return nil, apperrors.NewCacheUnavailableError(err)
		}
		return cache.NewRedisStore(client.GetClient(), cfg.Cache.KeyPrefix), nil
	default:
		store := cache.NewMemoryStore(cfg.Cache.MaxEntries)
		janitorCtx, stop := context.WithCancel(context.Background())
		a.stop = stop
		go store.Run(janitorCtx, cfg.CacheTTL())
		return store, nil
	}
}

func loadRegistry(path string) (*registry.FieldRegistry, error) {
	if path == "" {
		return registry.Default(), nil
	}
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return nil, apperrors.WrapConfigurationError("load field registry", err)
	}
	if err := reg.Validate(); err != nil {
		return nil, apperrors.WrapConfigurationError("invalid field registry", err)
	}
	return reg, nil
}

// Handler returns the API router.
func (a *App) Handler() http.Handler {
	h := dashboard.NewHandler(a.Fetcher, a.Lookup, a.Registry, a.Errors, a.Readiness)
	return dashboard.NewRouter(h, a.obs.Handler(), a.zap)
}

// Serve runs the HTTP server until ctx is done, then shuts it down
// gracefully within server.shutdown_timeout.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:         a.Config.Server.Address,
		Handler:      a.Handler(),
		ReadTimeout:  config.GetDuration(a.Config.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(a.Config.Server.WriteTimeout),
	}

	errCh := make(chan error, 1)
	go func() {
		a.zap.Info("HTTP server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.zap.Info("Shutdown signal received, stopping server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(a.Config.Server.ShutdownTimeout))
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	a.zap.Info("Server stopped gracefully")
	return nil
}

func (a *App) Close() {
	if a.stop != nil {
		a.stop()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.conns != nil {
		a.conns.Close()
	}
	a.obs.Shutdown()
}
