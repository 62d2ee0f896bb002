package main

import (
	"context"
	crypto_rand "crypto/rand"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/csrf"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/mentalcheck/screening-admin/internal/config"
	"github.com/mentalcheck/screening-admin/internal/domain/screening"
	"github.com/mentalcheck/screening-admin/internal/platform/cache"
	"github.com/mentalcheck/screening-admin/internal/platform/db"
	"github.com/mentalcheck/screening-admin/internal/platform/middleware"
	"github.com/mentalcheck/screening-admin/internal/platform/sandbox"
)

const cacheKeyPrefix = "screening-admin:"

// sourceHandle is the configured screening source plus what it holds open.
type sourceHandle struct {
	screening.Source
	// pool is set for the postgres source only.
	pool    *pgxpool.Pool
	closers []func()
}

func (h *sourceHandle) Close() {
	for i := len(h.closers) - 1; i >= 0; i-- {
		h.closers[i]()
	}
}

// buildSource opens the configured screening source, wrapped in a cache when
// CACHE_TTL is positive.
func buildSource(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*sourceHandle, error) {
	h := &sourceHandle{}

	switch cfg.ScreeningSource {
	case config.SourceHTTP:
		h.Source = screening.NewHTTPSource(cfg.ScreeningsAPIURL,
			screening.WithBearerToken(cfg.ScreeningsToken),
			screening.WithHTTPClient(&http.Client{Timeout: cfg.FetchTimeout}),
		)
	case config.SourceDemo:
		h.Source = sandbox.Source(sandbox.DefaultSeedConfig())
	default:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, err
		}
		h.pool = pool
		h.closers = append(h.closers, pool.Close)
		h.Source = screening.NewPGSource(pool)
	}

	if cfg.CacheTTL <= 0 {
		return h, nil
	}

	var store cache.Store
	if cfg.RedisURL != "" {
		rs, err := cache.NewRedisStore(ctx, cfg.RedisURL, cacheKeyPrefix)
		if err != nil {
			h.Close()
			return nil, err
		}
		h.closers = append(h.closers, func() { rs.Close() })
		store = rs
	} else {
		mem := cache.NewInMemoryStore()
		cctx, cancel := context.WithCancel(context.Background())
		mem.StartCleanup(cctx, cfg.CacheTTL)
		h.closers = append(h.closers, cancel)
		store = mem
	}
	h.Source = screening.NewCachedSource(h.Source, store, cfg.CacheTTL, logger)
	return h, nil
}

// resolveCSRFKey returns the configured CSRF key, or a random one when none
// is set. random reports whether the key was generated; sessions signed with
// it do not survive a restart.
func resolveCSRFKey(cfg *config.Config) (key []byte, random bool, err error) {
	if cfg.CSRFKey != "" {
		key, err := cfg.CSRFKeyBytes()
		return key, false, err
	}
	key = make([]byte, 32)
	if _, err := crypto_rand.Read(key); err != nil {
		return nil, false, err
	}
	return key, true, nil
}

// csrfMiddleware adapts gorilla/csrf to echo. Outside production requests
// are marked plaintext so the Referer check accepts http:// origins.
func csrfMiddleware(key []byte, secure bool) echo.MiddlewareFunc {
	protect := echo.WrapMiddleware(csrf.Protect(key,
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteStrictMode),
	))
	if secure {
		return protect
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		protected := protect(next)
		return func(c echo.Context) error {
			c.SetRequest(csrf.PlaintextHTTPRequest(c.Request()))
			return protected(c)
		}
	}
}

func rateLimitConfig(cfg *config.Config) middleware.RateLimitConfig {
	rl := middleware.DefaultRateLimitConfig()
	if cfg.RefreshRateLimit > 0 {
		rl.RequestsPerSecond = cfg.RefreshRateLimit
	}
	if cfg.RefreshRateBurst > 0 {
		rl.BurstSize = cfg.RefreshRateBurst
	}
	return rl
}

// newServer wires middleware and routes around an already built fetcher.
func newServer(cfg *config.Config, logger zerolog.Logger, fetcher *screening.Fetcher, csrfKey []byte) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Content-Type", middleware.RequestIDHeader},
	}))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	e.Use(middleware.ReportAccess(logger, "/api/v1"))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusFound, screening.PagePath)
	})

	refreshLimit := middleware.RateLimit(rateLimitConfig(cfg))
	admin := e.Group("/admin", csrfMiddleware(csrfKey, cfg.IsProduction()), refreshLimit)
	api := e.Group("/api/v1", refreshLimit)

	screening.NewHandler(fetcher, screening.NewFormatter(cfg.DisplayTimezone)).RegisterRoutes(admin, api)
	return e
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := zerolog.New(os.Stderr)
		bootLogger.Fatal().Err(err).Msg("failed to load config")
	}
	logger := newLogger(cfg.Env, cfg.LogLevel, os.Stdout)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	src, err := buildSource(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("source", cfg.ScreeningSource).Msg("failed to open screening source")
	}
	defer src.Close()
	logger.Info().Str("source", cfg.ScreeningSource).Dur("cache_ttl", cfg.CacheTTL).Msg("screening source ready")

	csrfKey, random, err := resolveCSRFKey(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid CSRF key")
	}
	if random {
		logger.Warn().Msg("CSRF_KEY not set, using a random key; forms break across restarts")
	}

	fetcher := screening.NewFetcher(src, cfg.FetchLimit, logger,
		screening.WithMaxAge(cfg.CacheTTL),
		screening.WithFetchTimeout(cfg.FetchTimeout),
	)
	e := newServer(cfg, logger, fetcher, csrfKey)

	if src.pool != nil {
		e.GET("/health/db", db.PoolHealthHandler(src.pool))
	}

	// Warm the list so the first page view does not wait on the source.
	go fetcher.EnsureLoaded(context.Background())

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(sctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
