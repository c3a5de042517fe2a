package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/sweedalp/smart-bookmark-app/internal/auth"
	"github.com/sweedalp/smart-bookmark-app/internal/bookmarks"
	"github.com/sweedalp/smart-bookmark-app/internal/config"
	"github.com/sweedalp/smart-bookmark-app/internal/connect"
	"github.com/sweedalp/smart-bookmark-app/internal/feed"
	"github.com/sweedalp/smart-bookmark-app/internal/httpserver"
	"github.com/sweedalp/smart-bookmark-app/internal/httpserver/deps"
	"github.com/sweedalp/smart-bookmark-app/internal/httpserver/view"
	"github.com/sweedalp/smart-bookmark-app/internal/live"
	"github.com/sweedalp/smart-bookmark-app/internal/logger"
	"github.com/sweedalp/smart-bookmark-app/internal/scheduler"
	pgstore "github.com/sweedalp/smart-bookmark-app/internal/store/postgres"
	redisstore "github.com/sweedalp/smart-bookmark-app/internal/store/redis"
	"github.com/sweedalp/smart-bookmark-app/internal/utils"
	"github.com/sweedalp/smart-bookmark-app/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	pool        *pgxpool.Pool
	registry    *live.Registry
	probe       *scheduler.HealthProbe
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Connect both backends in parallel - fail fast if either is unavailable
	redisClient, pool, err := connectBackends(cfg, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to connect backends: %v", err)
		os.Exit(1)
	}
	loggerClient.Info("Redis and Postgres initialized successfully")

	bookmarkStore := pgstore.NewStore(pool, loggerClient)
	if cfg.DBEnsureSchema {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
		err := bookmarkStore.EnsureSchema(ctx)
		cancel()
		if err != nil {
			loggerClient.Errorf("Failed to ensure schema: %v", err)
			os.Exit(1)
		}
	}

	redisStore := redisstore.NewStore(redisClient)
	changes := feed.NewRedis(redisClient, loggerClient)
	svc := bookmarks.NewService(bookmarkStore, changes, loggerClient)

	tokens := auth.NewTokens(auth.TokenConfig{Secret: cfg.SessionSecret, Issuer: "markd"})
	sessions := auth.NewManager(redisStore, tokens, auth.SessionConfig{
		TTL:           cfg.SessionTTL,
		RefreshWindow: cfg.SessionRefreshWindow,
	}, loggerClient)
	provider := auth.NewProvider(auth.ProviderConfig{
		ClientID:     cfg.OAuthClientID,
		ClientSecret: cfg.OAuthClientSecret,
		AuthURL:      cfg.OAuthAuthURL,
		TokenURL:     cfg.OAuthTokenURL,
		UserInfoURL:  cfg.OAuthUserInfoURL,
		RedirectURL:  cfg.RedirectURL(),
		Scopes:       cfg.OAuthScopes,
	})
	flow := auth.NewFlow(provider, redisStore, cfg.OAuthStateTTL)

	registry := live.NewRegistry()
	liveHandler := live.NewHandler(svc, changes, registry, live.Config{
		PingInterval: cfg.LivePingInterval,
		ReadTimeout:  cfg.LiveReadTimeout,
		WriteTimeout: cfg.LiveWriteTimeout,
		MaxInFlight:  cfg.LiveMaxInFlight,
	}, append([]string{cfg.PublicURL}, cfg.AllowedOrigins...), loggerClient)

	probe := scheduler.NewHealthProbe(map[string]scheduler.Check{
		"redis":    redisStore.Ping,
		"postgres": pool.Ping,
	}, loggerClient, cfg.HealthInterval, cfg.PingTimeout)

	// Dependencies passed to routes.
	d := deps.Deps{
		Logger:         loggerClient,
		StartTime:      time.Now(),
		Version:        version.Version,
		Commit:         version.Commit,
		BuildDate:      version.BuildDate,
		GoVersion:      version.GoVersion,
		TimeNow:        time.Now,
		AllowedHosts:   cfg.AllowedHosts,
		AllowedCIDRS:   cfg.AllowedCIDRS,
		TrustProxy:     cfg.TrustProxy,
		RequestTimeout: cfg.RequestTimeout,
		AuthRateBurst:  cfg.AuthRateBurst,
		AuthRatePerMin: cfg.AuthRatePerMinute,
		Sessions:       sessions,
		Flow:           flow,
		Cookies:        auth.Cookies{Secure: cfg.SecureCookies},
		Bookmarks:      svc,
		Live:           liveHandler,
		Registry:       registry,
		Health:         probe,
		Renderer:       view.NewRenderer(version.Version, loggerClient),
	}

	server := httpserver.New(cfg.ListenPort, d, registry.CloseAll)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		pool:        pool,
		registry:    registry,
		probe:       probe,
	}
}

// connectBackends dials Redis and Postgres concurrently with the shared
// retry policy.
func connectBackends(cfg *config.Config, log logger.Logger) (*goredis.Client, *pgxpool.Pool, error) {
	retry := connect.RetryOptions{
		ConnectTimeout: cfg.ConnectTimeout,
		RetryInterval:  cfg.RetryInterval,
		MaxWait:        cfg.RetryMaxWait,
		PingTimeout:    cfg.PingTimeout,
		WarnThreshold:  cfg.WarnThreshold,
	}

	var (
		redisClient *goredis.Client
		pool        *pgxpool.Pool
	)

	g, ctx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		log.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		c, err := connect.Redis(ctx, connect.RedisOptions{
			Addr:         cfg.RedisAddr,
			User:         cfg.RedisUser,
			Password:     cfg.RedisPassword,
			DB:           cfg.RedisDB,
			DialTimeout:  cfg.RedisDT,
			ReadTimeout:  cfg.RedisRT,
			WriteTimeout: cfg.RedisWT,
			PoolSize:     cfg.RedisPoolSize,
			Retry:        retry,
		}, log)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		redisClient = c
		return nil
	})
	g.Go(func() error {
		log.Infof("Connecting to Postgres at %s", connect.RedactURL(cfg.DatabaseURL))
		p, err := connect.Postgres(ctx, connect.PostgresOptions{
			URL:             cfg.DatabaseURL,
			MaxConns:        cfg.DBMaxConns,
			MinConns:        cfg.DBMinConns,
			MaxConnLifetime: cfg.DBMaxConnLife,
			MaxConnIdleTime: cfg.DBMaxConnIdle,
			Retry:           retry,
		}, log)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		pool = p
		return nil
	})

	if err := g.Wait(); err != nil {
		if redisClient != nil {
			utils.Close(redisClient)
		}
		if pool != nil {
			pool.Close()
		}
		return nil, nil, err
	}
	return redisClient, pool, nil
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting markd %s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Info(version.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start health probe (pings both backends and keeps /readyz current)
	if err := a.probe.Start(ctx); err != nil {
		return fmt.Errorf("failed to start health probe: %w", err)
	}
	a.logger.Info("health probe started",
		logger.Duration("interval", a.cfg.HealthInterval))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		a.close()
		return err
	}

	a.probe.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		a.close()
		return fmt.Errorf("failed to stop server: %w", err)
	}
	a.logger.Info("live views closed",
		logger.Int("remaining", a.registry.Count()))

	a.close()
	a.logger.Info("✅ markd stopped cleanly")
	_ = a.logger.Sync()
	return nil
}

// close releases the backend connections.
func (a *App) close() {
	a.probe.Stop()
	if a.redisClient != nil {
		utils.CloseLogged(a.redisClient, a.logger, "redis")
	}
	if a.pool != nil {
		a.pool.Close()
		a.logger.Info("✅ Postgres pool closed")
	}
}
