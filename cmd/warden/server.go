package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/bluesky-social/chatmod/automod/contextstore"
	"github.com/bluesky-social/chatmod/automod/engine"
	"github.com/bluesky-social/chatmod/automod/pendingstore"
	"github.com/bluesky-social/chatmod/automod/policy"
	"github.com/bluesky-social/chatmod/automod/ratestore"
	"github.com/bluesky-social/chatmod/automod/rules"
	"github.com/bluesky-social/chatmod/automod/setstore"
	"github.com/bluesky-social/chatmod/automod/strikestore"
	"github.com/bluesky-social/chatmod/pkg/robusthttp"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	slogecho "github.com/samber/slog-echo"
	"golang.org/x/time/rate"
)

// registers collectors on creation, so there is only one per process
var httpMetrics = echoprometheus.NewMiddleware("warden")

type Server struct {
	engine *engine.Engine
	echo   *echo.Echo
	httpd  *http.Server
	logger *slog.Logger

	// events accepted but not yet processed
	inflight sync.WaitGroup
}

type Config struct {
	Logger           *slog.Logger
	Bind             string
	RedisURL         string
	BindingURL       string
	BindingToken     string
	BindingRateLimit int
	AdminIDs         []string
	RolesFileJSON    string
	ContextTTL       time.Duration
	SlackWebhookURL  string
}

func NewServer(config Config) (*Server, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	if config.BindingURL == "" {
		return nil, fmt.Errorf("chat platform binding URL is required")
	}
	limit := rate.Inf
	if config.BindingRateLimit > 0 {
		limit = rate.Limit(config.BindingRateLimit)
	}
	enforcer := &HTTPEnforcer{
		Host:    config.BindingURL,
		Token:   config.BindingToken,
		Client:  robusthttp.NewClient(robusthttp.WithLogger(logger.With("subsystem", "binding-client"))),
		Limiter: rate.NewLimiter(limit, 1),
	}

	var contexts contextstore.ContextStore
	var strikes strikestore.StrikeStore
	var pending pendingstore.PendingStore
	var sets setstore.SetStore
	var rates ratestore.RateStore
	if config.RedisURL != "" {
		ctxs, err := contextstore.NewRedisContextStore(config.RedisURL, config.ContextTTL)
		if err != nil {
			return nil, fmt.Errorf("initializing redis contextstore: %v", err)
		}
		contexts = ctxs

		stk, err := strikestore.NewRedisStrikeStore(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("initializing redis strikestore: %v", err)
		}
		strikes = stk

		pnd, err := pendingstore.NewRedisPendingStore(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("initializing redis pendingstore: %v", err)
		}
		pending = pnd

		rss, err := setstore.NewRedisSetStore(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("initializing redis setstore: %v", err)
		}
		if config.RolesFileJSON != "" {
			if err := loadRolesJSON(context.TODO(), rss, config.RolesFileJSON); err != nil {
				return nil, fmt.Errorf("loading roles into redis setstore: %v", err)
			}
			logger.Info("loaded role sets from JSON", "path", config.RolesFileJSON)
		}
		sets = rss

		rts, err := ratestore.NewRedisRateStore(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("initializing redis ratestore: %v", err)
		}
		rates = rts
	} else {
		logger.Warn("redis not configured, ledgers are kept in memory only")
		contexts = contextstore.NewMemContextStore()
		strikes = strikestore.NewMemStrikeStore()
		pending = pendingstore.NewMemPendingStore()
		mss := setstore.NewMemSetStore()
		if config.RolesFileJSON != "" {
			if err := mss.LoadFromFileJSON(config.RolesFileJSON); err != nil {
				return nil, fmt.Errorf("initializing in-process setstore: %v", err)
			}
			logger.Info("loaded role sets from JSON", "path", config.RolesFileJSON)
		}
		sets = mss
		rates = ratestore.NewMemRateStore(100_000, policy.MaxDuration(policy.RateLimitWarnS, time.Second))
	}

	for _, raw := range config.AdminIDs {
		uid, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || uid == 0 {
			return nil, fmt.Errorf("invalid admin user ID: %q", raw)
		}
		if err := sets.Add(context.TODO(), engine.SetAdmins, raw); err != nil {
			return nil, fmt.Errorf("seeding admins: %v", err)
		}
	}

	var notifier engine.Notifier
	if config.SlackWebhookURL != "" {
		notifier = &engine.SlackNotifier{
			SlackWebhookURL: config.SlackWebhookURL,
			Client:          robusthttp.NewClient(robusthttp.WithLogger(logger.With("subsystem", "slack-client"))),
		}
	}

	eng, err := engine.NewEngine(engine.EngineConfig{
		Logger:   logger,
		Rules:    rules.DefaultRules(),
		Contexts: contexts,
		Strikes:  strikes,
		Pending:  pending,
		Sets:     sets,
		Rates:    rates,
		Enforcer: enforcer,
		Notifier: notifier,
	})
	if err != nil {
		return nil, err
	}

	return newServer(eng, logger, config.Bind), nil
}

func newServer(eng *engine.Engine, logger *slog.Logger, bind string) *Server {
	e := echo.New()

	// httpd
	var (
		httpTimeout        = 1 * time.Minute
		httpMaxHeaderBytes = 1 * (1024 * 1024)
	)

	srv := &Server{
		engine: eng,
		echo:   e,
		logger: logger,
	}
	srv.httpd = &http.Server{
		Handler:        srv,
		Addr:           bind,
		WriteTimeout:   httpTimeout,
		ReadTimeout:    httpTimeout,
		MaxHeaderBytes: httpMaxHeaderBytes,
	}

	e.HideBanner = true
	e.Use(slogecho.New(logger))
	e.Use(middleware.Recover())
	e.Use(httpMetrics)
	e.Use(middleware.BodyLimit("1M"))
	e.HTTPErrorHandler = srv.errorHandler

	e.GET("/_health", srv.HandleHealthCheck)
	e.POST("/v1/events/join", srv.HandleJoinEvent)
	e.POST("/v1/events/message", srv.HandleMessageEvent)
	e.POST("/v1/admin/command", srv.HandleAdminCommand)

	return srv
}

func (srv *Server) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	srv.echo.ServeHTTP(rw, req)
}

// Serves the HTTP API until the context is cancelled or the process gets an exit signal, then drains in-flight events.
func (srv *Server) RunAPI(ctx context.Context) error {
	srv.logger.Info("starting server", "bind", srv.httpd.Addr)
	errCh := make(chan error, 1)
	go func() {
		if err := srv.httpd.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		srv.logger.Error("HTTP server shutting down unexpectedly", "err", err)
		return err
	case <-ctx.Done():
		srv.logger.Info("received exit signal")
	}

	if err := srv.Shutdown(); err != nil {
		srv.logger.Error("HTTP server shutdown error", "err", err)
	}
	srv.logger.Info("graceful shutdown complete")
	return nil
}

func (srv *Server) Shutdown() error {
	srv.logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := srv.httpd.Shutdown(ctx)
	srv.inflight.Wait()
	return err
}
