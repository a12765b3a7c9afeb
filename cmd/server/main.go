package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/placenote/internal/config"
	"github.com/iliyamo/placenote/internal/database"
	"github.com/iliyamo/placenote/internal/geo"
	"github.com/iliyamo/placenote/internal/handler"
	"github.com/iliyamo/placenote/internal/logging"
	"github.com/iliyamo/placenote/internal/metrics"
	"github.com/iliyamo/placenote/internal/middleware"
	"github.com/iliyamo/placenote/internal/queue"
	"github.com/iliyamo/placenote/internal/repository"
	"github.com/iliyamo/placenote/internal/router"
	"github.com/iliyamo/placenote/internal/service"
	"github.com/iliyamo/placenote/internal/token"
	"github.com/iliyamo/placenote/internal/utils"
)

func main() {
	os.Exit(serve())
}

// serve runs the server and returns the process exit code.  Defers run
// before main exits so the logger is flushed on every path.
func serve() int {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("config: %v", err)
		return 1
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Printf("logger: %v", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", zap.Error(err))
		return 1
	}
	return 0
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	db, err := database.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.DBAutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
		logger.Info("schema applied")
	}

	// Redis is optional; the limiter and cache pass through without it.
	rdb, err := config.NewRedisClient(ctx, config.LoadRedisConfig())
	if err != nil {
		logger.Warn("redis unavailable, rate limiting and caching disabled", zap.Error(err))
	}
	if rdb != nil {
		defer rdb.Close()
	}

	m := metrics.New("placenote")

	tokens, err := token.NewService(token.Config{
		Secret:     cfg.JWTSecret,
		Issuer:     cfg.JWTIssuer,
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
	}, token.WithLogger(logger.Named("token")))
	if err != nil {
		return err
	}

	users := repository.NewUserRepo(db)
	memos := repository.NewMemoRepo(db)
	nearby := geo.NewService(memos, geo.Policy{
		DefaultRadius: cfg.NearbyDefaultRadius,
		MaxRadius:     cfg.NearbyMaxRadius,
		DefaultLimit:  cfg.NearbyDefaultLimit,
		MaxLimit:      cfg.NearbyMaxLimit,
	})

	memoOpts := []service.MemoOption{service.WithMetrics(m), service.WithMemoLogger(logger.Named("memo"))}
	qcfg := config.LoadQueueConfig()
	if qcfg.Enabled {
		memoOpts = append(memoOpts, service.WithEvents(queue.NewPublisher(qcfg, logger.Named("publisher"))))
		if qcfg.ConsumerEnabled {
			consumer := queue.NewConsumer(qcfg, logger.Named("consumer"))
			go func() {
				if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("memo consumer exited", zap.Error(err))
				}
			}()
		}
	}

	authSvc := service.NewAuthService(users, tokens, utils.NewPasswordHasher(cfg.BcryptCost), logger.Named("auth"))
	memoSvc := service.NewMemoService(memos, nearby, memoOpts...)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewRequestValidator()
	e.Use(
		echomw.RequestID(),
		echomw.Recover(),
		middleware.RequestLogger(logger.Named("http")),
		middleware.Metrics(m),
	)

	mw := router.Middlewares{
		Gate:        middleware.JWTAuth(tokens, logger.Named("gate"), m),
		RateLimit:   middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, logger),
		AuthLimit:   middleware.NewTokenBucket(config.LoadAuthRateLimitConfig(), rdb, logger),
		NearbyCache: middleware.NewRedisCache(config.LoadCacheConfig(), rdb, logger, m),
	}
	router.RegisterRoutes(e, handler.Health(db), m.Handler())
	router.RegisterAuth(e, handler.NewAuthHandler(authSvc, logger, cfg.RequestTimeout), mw)
	router.RegisterMemos(e, handler.NewMemoHandler(memoSvc, logger, cfg.RequestTimeout), mw)

	errc := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
