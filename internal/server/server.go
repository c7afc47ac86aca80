package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/yashsmehta/auto-apply/config"
	"github.com/yashsmehta/auto-apply/internal/archive"
	"github.com/yashsmehta/auto-apply/internal/auth"
	"github.com/yashsmehta/auto-apply/internal/cache"
	"github.com/yashsmehta/auto-apply/internal/extract"
	"github.com/yashsmehta/auto-apply/internal/fetch"
	"github.com/yashsmehta/auto-apply/internal/pipeline"
	"github.com/yashsmehta/auto-apply/internal/state"
	"github.com/yashsmehta/auto-apply/internal/state/inmemory"
	redis_state "github.com/yashsmehta/auto-apply/internal/state/redis"
	"github.com/yashsmehta/auto-apply/internal/store"
	"github.com/yashsmehta/auto-apply/models"
	"github.com/yashsmehta/auto-apply/provider"
)

// Run wires the pipeline behind an HTTP API and blocks serving it. Redis and
// Postgres are optional: without redis, run state lives in process memory;
// without Postgres the auth, tracked-application and scheduler surfaces stay
// off.
func Run(cfg *config.Config) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		var errorType string
		var se *models.StageError
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		} else if errors.As(err, &se) {
			code = statusForKind(se.Kind)
			msg = se.Message
			errorType = string(se.Kind)
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			body := map[string]interface{}{"error": msg}
			if errorType != "" {
				body["error_type"] = errorType
			}
			_ = c.JSON(code, body)
		}
	}
	origins := cfg.Server.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Cookie", "Authorization"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	registerDocs(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	ctx := context.Background()

	// Shared pipeline dependencies (top-level DI)
	prov, err := provider.New(provider.Client(cfg.LLM.Provider), provider.Settings{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
	})
	if err != nil {
		return err
	}
	fetcher, err := fetch.New(fetch.Mode(cfg.Fetch.Mode), fetch.Config{
		Timeout:    cfg.Fetch.Timeout,
		RetryCount: cfg.Fetch.RetryCount,
		UserAgent:  cfg.Fetch.UserAgent,
	})
	if err != nil {
		return err
	}
	var respCache *cache.Cache
	if cfg.Cache.Enabled {
		respCache = cache.New(cfg.Cache.TTL)
		fetcher = fetch.NewCached(fetcher, respCache)
	}
	svc := extract.NewService(prov, respCache, cfg.LLM.Timeout, nil)
	proc := pipeline.New(fetcher, svc, nil)

	arch, err := archive.New(cfg.Storage.File.OutputDir, nil)
	if err != nil {
		return err
	}

	// Run state: redis when configured so state survives restarts and is
	// shared across instances, in-process memory otherwise.
	var runState state.Store
	var rdb *redis.Client
	if cfg.Storage.Redis.Configured() {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Storage.Redis.Addr(),
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis connection failed (%s): %w", cfg.Storage.Redis.Addr(), err)
		}
		runState = redis_state.New(rdb, cfg.Storage.Redis.RunTTL)
	} else {
		runState = inmemory.New()
	}

	api := e.Group("/api")

	rh := &RunsHandler{Runner: proc, State: runState, Archive: arch, Logger: baseLogger}
	rh.Register(api)
	sh := &StagesHandler{Fetcher: fetcher, Extract: svc}
	sh.Register(api)
	resh := &ResultsHandler{Archive: arch}
	resh.Register(api)

	if cfg.Storage.Postgres.Configured() {
		dsn := cfg.Storage.Postgres.DSN()
		if err := store.Migrate("file://migrations", dsn, "up", 0); err != nil {
			baseLogger.Printf("migrate: %v", err)
		}
		st, err := store.NewWithDSN(ctx, dsn)
		if err != nil {
			return err
		}
		secret, err := auth.LoadSecret(cfg)
		if err != nil {
			return err
		}
		ah := &AuthHandler{Store: st, Secret: secret}
		ah.Register(api.Group("/auth"))
		apps := &ApplicationsHandler{Store: st}
		apps.Register(api.Group("/applications"), secret)

		if cfg.Scheduler.Enabled {
			sched := &Scheduler{
				Store:    st,
				Runner:   proc,
				Archive:  arch,
				Rdb:      rdb,
				Interval: cfg.Scheduler.Interval,
				LockTTL:  cfg.Scheduler.LockTTL,
				Stop:     make(chan struct{}),
			}
			sched.Start()
		}
	} else {
		baseLogger.Printf("postgres not configured; auth, tracked applications and scheduler are off")
	}

	addr := cfg.Server.Address
	if addr == "" {
		addr = ":8080"
	}
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}
	log.Printf("listening on %s", addr)
	return e.Start(addr)
}

// statusForKind maps a stage error classification onto an HTTP status.
func statusForKind(kind models.ErrorKind) int {
	switch kind {
	case models.ErrorKindValidation:
		return http.StatusBadRequest
	case models.ErrorKindTimeout:
		return http.StatusGatewayTimeout
	case models.ErrorKindNetwork, models.ErrorKindScrapeFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
