package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/promata/reservas-gateway/internal/cache"
	"github.com/promata/reservas-gateway/internal/config"
	"github.com/promata/reservas-gateway/internal/database"
	"github.com/promata/reservas-gateway/internal/dto"
	"github.com/promata/reservas-gateway/internal/events"
	"github.com/promata/reservas-gateway/internal/handler"
	"github.com/promata/reservas-gateway/internal/middleware"
	"github.com/promata/reservas-gateway/internal/models"
	"github.com/promata/reservas-gateway/internal/observability"
	"github.com/promata/reservas-gateway/internal/repository"
	"github.com/promata/reservas-gateway/internal/router"
	"github.com/promata/reservas-gateway/internal/service"
	"github.com/promata/reservas-gateway/internal/upstream"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.AppName, cfg.AppEnv, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("failed to configure tracing: %v", err)
	}
	observability.RegisterMetrics()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := db.AutoMigrate(&models.CartItem{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	probes := map[string]handler.Pinger{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(ctx, cfg.RedisURL, cfg.BackendTimeout)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, query cache disabled")
		} else {
			defer redisClient.Close()
			probes["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		}
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL, nats.Name(cfg.AppName), nats.MaxReconnects(-1))
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, cache invalidation stays local")
		} else {
			defer natsConn.Drain()
			probes["nats"] = func(context.Context) error {
				if !natsConn.IsConnected() {
					return errors.New("nats disconnected")
				}
				return nil
			}
		}
	}

	backend, err := upstream.NewClient(upstream.Config{
		BaseURL:     cfg.BackendURL,
		Timeout:     cfg.BackendTimeout,
		ListTimeout: cfg.BackendListTimeout,
		Retries:     cfg.BackendRetries,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create backend client: %v", err)
	}
	viaCEP := upstream.NewViaCEP(cfg.ViaCEPURL, cfg.BackendTimeout, nil, logger)

	queryCache := cache.NewQueryCache(redisClient, logger)
	bus := events.NewBus(queryCache, natsConn, cfg.NATSSubject, logger)
	go func() {
		if err := bus.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("invalidation bus stopped")
		}
	}()

	validate := validator.New(validator.WithRequiredStructEnabled())
	resolver := dto.NewImageResolver(cfg.AssetsBaseURL)
	ttl := service.CacheTTL{List: cfg.ListCacheTTL, Detail: cfg.DetailCacheTTL}

	experienceService := service.NewExperienceService(backend, queryCache, bus, resolver, validate, ttl, logger)
	highlightService := service.NewHighlightService(backend, queryCache, bus, resolver, validate, ttl, logger)
	reservationService := service.NewReservationService(backend, queryCache, bus, resolver, validate, ttl, logger)
	requestService := service.NewRequestService(backend, queryCache, bus, resolver, validate, ttl, logger)
	userService := service.NewUserService(backend, queryCache, ttl, logger)
	addressService := service.NewAddressService(viaCEP, queryCache, cfg.AddressCacheTTL, logger)
	cartService := service.NewCartService(repository.NewCartRepository(db), experienceService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    service.DefaultMaxUploadBytes + 1<<20,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.AllowOrigins})
	router.Register(app, cfg, router.Dependencies{
		ExperienceHandler:  handler.NewExperienceHandler(experienceService, logger),
		HighlightHandler:   handler.NewHighlightHandler(highlightService, logger),
		ReservationHandler: handler.NewReservationHandler(reservationService, requestService, logger),
		RequestHandler:     handler.NewRequestHandler(requestService, logger),
		UserHandler:        handler.NewUserHandler(userService, logger),
		CartHandler:        handler.NewCartHandler(cartService, validate, logger),
		AddressHandler:     handler.NewAddressHandler(addressService, logger),
		HealthProbes:       probes,
		JWTMiddleware:      middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, cancel, shutdownTracing)
}

func waitForShutdown(app *fiber.App, stopWorkers context.CancelFunc, shutdownTracing func(context.Context) error) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()
	stopWorkers()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
	if err := shutdownTracing(ctx); err != nil {
		log.Printf("tracer shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
