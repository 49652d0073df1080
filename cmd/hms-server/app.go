package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/riteshgharti333/hospital-management-app-sub002/internal/config"
	"github.com/riteshgharti333/hospital-management-app-sub002/internal/domain/billing"
	"github.com/riteshgharti333/hospital-management-app-sub002/internal/domain/ledger"
	"github.com/riteshgharti333/hospital-management-app-sub002/internal/domain/patient"
	"github.com/riteshgharti333/hospital-management-app-sub002/internal/platform/cache"
	"github.com/riteshgharti333/hospital-management-app-sub002/internal/platform/db"
	"github.com/riteshgharti333/hospital-management-app-sub002/internal/platform/middleware"
	"github.com/riteshgharti333/hospital-management-app-sub002/internal/platform/modules"
	"github.com/riteshgharti333/hospital-management-app-sub002/internal/platform/paging"
	"github.com/riteshgharti333/hospital-management-app-sub002/internal/platform/records"
	"github.com/riteshgharti333/hospital-management-app-sub002/internal/platform/sandbox"
	"github.com/riteshgharti333/hospital-management-app-sub002/internal/platform/search"
	"github.com/riteshgharti333/hospital-management-app-sub002/pkg/validation"
)

const version = "0.1.0"

// app holds everything built from the configuration.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger

	pool   *pgxpool.Pool
	store  records.Store
	remote cache.RemoteStore
	cache  *cache.Client
	tiers  *cache.Tiers

	patients *patient.Service
	invoices *billing.Service
	ledger   *ledger.Service
	modules  *modules.Registry
}

func newLogger(cfg *config.Config, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if cfg.IsDev() {
		out = zerolog.ConsoleWriter{Out: out}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func newRemoteStore(cfg *config.Config) (cache.RemoteStore, error) {
	switch cfg.CacheBackend {
	case config.CacheREST:
		return cache.NewRESTStore(cfg.CacheRESTURL, cfg.CacheRESTToken), nil
	case config.CacheRedis:
		return cache.NewRedisStore(cfg.RedisURL)
	case config.CacheLocal:
		return cache.NewLocalStore(), nil
	default:
		return cache.NopStore{}, nil
	}
}

func newCacheClient(cfg *config.Config, remote cache.RemoteStore, logger zerolog.Logger) *cache.Client {
	return cache.NewClient(remote, cache.ClientConfig{
		Timeout:    cfg.CacheTimeout,
		Retries:    cfg.CacheRetries,
		RetryDelay: cfg.CacheRetryDelay,
		Cooldown:   cfg.CacheCooldown,
	}, logger)
}

func openPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	return db.NewPool(ctx, db.PoolConfig{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
}

func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger}

	var (
		patientRepo patient.Repository
		invoiceRepo billing.InvoiceRepository
		ledgerRepo  ledger.Repository
	)
	switch cfg.StoreBackend {
	case config.StorePostgres:
		pool, err := openPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.pool = pool
		a.store = db.NewRecordStore(pool)
		patientRepo = patient.NewRepo(pool)
		invoiceRepo = billing.NewInvoiceRepo(pool)
		ledgerRepo = ledger.NewRepo(pool)
	default:
		mem := records.NewMemoryStore()
		a.store = mem
		patientRepo = patient.NewMemoryRepo(mem)
		invoiceRepo = billing.NewMemoryInvoiceRepo(mem)
		ledgerRepo = ledger.NewMemoryRepo(mem)
		logger.Warn().Msg("using in-memory store, data is lost on exit")
	}

	remote, err := newRemoteStore(cfg)
	if err != nil {
		a.close()
		return nil, err
	}
	a.remote = remote
	a.cache = newCacheClient(cfg, remote, logger)
	a.tiers = cache.NewTiers(a.cache, cfg.MemoryCacheSize, logger)

	pages := paging.New(a.store, a.tiers, paging.Options{
		MemoryTTL: cfg.PageMemoryTTL,
		RemoteTTL: cfg.PageRemoteTTL,
	}, logger)
	searcher := search.NewService(a.store, a.tiers, search.Options{
		MemoryTTL:   cfg.SearchMemoryTTL,
		RemoteTTL:   cfg.SearchRemoteTTL,
		FastTimeout: cfg.CacheFastTimeout,
	}, logger)

	a.patients = patient.NewService(patientRepo, pages, searcher, a.tiers.Versions)
	a.invoices = billing.NewService(invoiceRepo, pages, searcher, a.tiers.Versions)
	a.ledger = ledger.NewService(ledgerRepo, pages, searcher, a.tiers.Versions)

	a.modules = modules.NewRegistry()
	for _, m := range domainModules(a) {
		if err := a.modules.Register(m); err != nil {
			a.close()
			return nil, err
		}
	}

	logger.Info().
		Str("store", cfg.StoreBackend).
		Str("cache", cfg.CacheBackend).
		Int("memory_cache_size", cfg.MemoryCacheSize).
		Msg("application wired")
	return a, nil
}

// domainModules lists the served domains. With a nil app the handlers are
// left unset.
func domainModules(a *app) []modules.Module {
	mods := []modules.Module{
		{Name: "patients", Collection: patient.Collection},
		{Name: "invoices", Collection: billing.Collection},
		{Name: "ledger", Collection: ledger.Collection},
	}
	if a != nil {
		mods[0].Handler = patient.NewHandler(a.patients)
		mods[1].Handler = billing.NewHandler(a.invoices)
		mods[2].Handler = ledger.NewHandler(a.ledger)
	}
	return mods
}

func (a *app) seeder() *sandbox.Seeder {
	return sandbox.NewSeeder(a.patients, a.invoices, a.ledger, a.logger)
}

// close waits for pending cache writes, then releases connections.
func (a *app) close() {
	if a.tiers != nil {
		a.tiers.Writer.Wait()
	}
	if c, ok := a.remote.(io.Closer); ok {
		if err := c.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("closing remote cache")
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

func (a *app) checkCache(ctx context.Context) error {
	if !a.cache.Healthy() {
		return fmt.Errorf("remote cache breaker is %s", a.cache.State())
	}
	if p, ok := a.remote.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (a *app) checkStore(ctx context.Context) error {
	if a.pool == nil {
		return nil
	}
	return a.pool.Ping(ctx)
}

// newServer builds the echo instance with middleware and routes.
func (a *app) newServer() *echo.Echo {
	cfg, logger := a.cfg, a.logger

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.New()
	e.HTTPErrorHandler = middleware.ErrorHandler(logger)

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.Metrics())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:  cfg.CORSOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:  []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Link", middleware.RequestIDHeader, "Retry-After"},
	}))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit("1M"))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout, "/metrics"))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": version})
	})
	if a.pool != nil {
		e.GET("/health/db", db.HealthHandler(a.pool))
	} else {
		e.GET("/health/db", db.CheckHandler(a.checkStore, func() interface{} {
			return map[string]string{"backend": cfg.StoreBackend}
		}))
	}
	e.GET("/health/cache", db.CheckHandler(a.checkCache, func() interface{} {
		return map[string]interface{}{
			"backend":        cfg.CacheBackend,
			"breaker":        a.cache.State(),
			"memory_entries": a.tiers.Memory.Len(),
		}
	}))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	rl := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
		IdleTTL:           middleware.DefaultRateLimitConfig().IdleTTL,
	}
	if rl.RequestsPerSecond <= 0 {
		rl = middleware.DefaultRateLimitConfig()
	}
	api := e.Group("/api/v1", middleware.RateLimit(rl))
	a.modules.RegisterRoutes(api)

	if cfg.IsDev() {
		sandbox.NewSeedHandler(a.seeder()).RegisterRoutes(api)
	}
	return e
}

func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, newLogger(cfg, os.Stdout), nil
}

var errUnknownDomain = errors.New("unknown cache domain")
