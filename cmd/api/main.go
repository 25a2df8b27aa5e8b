package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/KiiTuNp/SUPERvote/internal/adapter/handler"
	"github.com/KiiTuNp/SUPERvote/internal/adapter/repository"
	"github.com/KiiTuNp/SUPERvote/internal/adapter/repository/memory"
	"github.com/KiiTuNp/SUPERvote/internal/domain/events"
	"github.com/KiiTuNp/SUPERvote/internal/domain/repositories"
	"github.com/KiiTuNp/SUPERvote/internal/infrastructure/broadcast"
	"github.com/KiiTuNp/SUPERvote/internal/infrastructure/cache"
	"github.com/KiiTuNp/SUPERvote/internal/infrastructure/database"
	httpmw "github.com/KiiTuNp/SUPERvote/internal/infrastructure/http/middleware"
	"github.com/KiiTuNp/SUPERvote/internal/usecase/poll"
	"github.com/KiiTuNp/SUPERvote/internal/usecase/room"
	"github.com/KiiTuNp/SUPERvote/internal/usecase/scheduler"
	"github.com/KiiTuNp/SUPERvote/pkg/clock"
	"github.com/KiiTuNp/SUPERvote/pkg/config"
	"github.com/KiiTuNp/SUPERvote/pkg/idgen"
	"github.com/KiiTuNp/SUPERvote/pkg/jwt"
	"github.com/KiiTuNp/SUPERvote/pkg/metrics"
	pkgvalidator "github.com/KiiTuNp/SUPERvote/pkg/validator"
)

// @title           SUPERvote API
// @version         1.0
// @description     Real-time polling rooms: organizers run polls, approved participants vote, every client sees results live.

// @BasePath  /v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the organizer token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Println("🔧 Initializing dependencies...")
	checks := map[string]handler.HealthCheck{}

	// Store
	var store repositories.Store
	switch cfg.Database.Driver {
	case config.StoreDriverPostgres:
		log.Println("📦 Connecting to database...")
		db, err := database.NewPostgresDB(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer func() { _ = database.CloseDB(db) }()

		if cfg.Database.AutoMigrate {
			if err := database.AutoMigrate(db); err != nil {
				log.Fatalf("Failed to run migrations: %v", err)
			}
		} else {
			log.Println("🔄 Skipping migrations; run cmd/migrate before starting the service")
		}

		store = repository.NewStore(db)
		checks["database"] = func(ctx context.Context) error { return database.Ping(ctx, db) }
	default:
		log.Println("⚠️  Using in-memory store; data is lost on restart")
		store = memory.NewStore()
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	hub := broadcast.NewHub(broadcast.Options{
		MaxConnsPerAddr: cfg.Realtime.MaxConnectionsPerIP,
		QueueSize:       cfg.Realtime.SendQueueSize,
	}, logger, m)
	defer hub.Close()

	// Redis, when enabled, caches room lookups and relays events between instances
	var (
		publisher events.Publisher = hub
		relay     *broadcast.RedisRelay
	)
	if cfg.Redis.Enabled {
		log.Println("📦 Connecting to Redis...")
		redisClient, err := cache.NewRedisClient(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer func() { _ = redisClient.Close() }()

		store = repository.WithRoomCache(store, cache.NewRedisStore(redisClient), cfg.Redis.CacheTTL, logger)
		relay = broadcast.NewRedisRelay(redisClient, hub, cfg.Redis.EventsChannel, logger)
		publisher = relay
		checks["redis"] = redisCheck(redisClient)
	} else if cfg.Database.Driver == config.StoreDriverPostgres {
		roomCache := cache.NewMemoryStore(nil)
		defer roomCache.Close()
		store = repository.WithRoomCache(store, roomCache, cfg.Redis.CacheTTL, logger)
	}

	clk := clock.System{}
	ids := idgen.Random{}
	jwtManager := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Expiry)

	log.Println("🏠 Initializing services...")
	roomService := room.NewRoomService(store, publisher, clk, ids, logger,
		room.WithTokenIssuer(jwtManager),
		room.WithConnectionCounter(hub),
	)
	pollService := poll.NewPollService(store, publisher, clk, ids, logger, m)

	sched := scheduler.New(roomService, pollService, clk, scheduler.Config{
		RoomSweepInterval: cfg.Scheduler.RoomSweepInterval,
		PollSweepInterval: cfg.Scheduler.PollSweepInterval,
		RoomTTL:           cfg.Scheduler.RoomTTL,
		SweepTimeout:      cfg.Scheduler.SweepTimeout,
		ListRetries:       3,
	}, logger, m)

	// Initialize Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = pkgvalidator.New()
	e.HTTPErrorHandler = handler.ErrorHandler(logger)
	ipExtractor, err := handler.NewIPExtractor(cfg.Server.TrustedProxies)
	if err != nil {
		log.Fatalf("Failed to configure client address extraction: %v", err)
	}
	e.IPExtractor = ipExtractor

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "X-Participant-Token"},
	}))
	if cfg.Server.RateLimitPerMinute > 0 {
		e.Use(handler.RateLimiter(cfg.Server.RateLimitPerMinute))
	}

	roomHandler := handler.NewRoomHandler(roomService, jwtManager.GetExpiry(), logger)
	pollHandler := handler.NewPollHandler(pollService, logger)
	realtimeHandler := handler.NewRealtimeHandler(hub, roomService, handler.RealtimeOptions{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		WriteTimeout:   cfg.Realtime.WriteTimeout,
		PongWait:       cfg.Realtime.PongWait,
		ReadLimit:      cfg.Realtime.ReadLimit,
	}, logger)
	healthHandler := handler.NewHealthHandler(cfg.Server.Environment, checks, logger)

	log.Println("🛣️  Setting up routes...")
	router := handler.NewRouter(roomHandler, pollHandler, realtimeHandler, healthHandler, httpmw.EchoOrganizerAuth(jwtManager))
	router.Setup(e)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sched.Run(gctx)
	})
	if relay != nil {
		g.Go(func() error {
			return relay.Run(gctx)
		})
	}
	g.Go(func() error {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting server on %s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("🛑 Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("service stopped with error", zap.Error(err))
		return
	}
	log.Println("✅ Server stopped gracefully")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func redisCheck(client *redis.Client) handler.HealthCheck {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}
