package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anjiri1684/tutor_connect/cache"
	config "github.com/anjiri1684/tutor_connect/configs"
	"github.com/anjiri1684/tutor_connect/database"
	"github.com/anjiri1684/tutor_connect/events"
	"github.com/anjiri1684/tutor_connect/handlers"
	"github.com/anjiri1684/tutor_connect/jobs"
	"github.com/anjiri1684/tutor_connect/logging"
	"github.com/anjiri1684/tutor_connect/metrics"
	"github.com/anjiri1684/tutor_connect/middleware"
	"github.com/anjiri1684/tutor_connect/routes"
	"github.com/anjiri1684/tutor_connect/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	if closer != nil {
		defer closer.Close()
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg *config.Config, logger *zerolog.Logger) error {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	logger.Info().Msg("database connected and migrated")

	metrics.Register()

	bus := events.NewEventBus(logger)
	if len(cfg.Kafka.Brokers) > 0 {
		writer, err := events.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		if err != nil {
			return fmt.Errorf("kafka writer: %w", err)
		}
		sink := events.NewKafkaSink(writer, logger)
		defer sink.Close()
		bus.SubscribeAll(sink.Handle)
		logger.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("kafka event sink enabled")
	}

	deps := services.Deps{
		Bus:       bus,
		Logger:    logger,
		JWTSecret: cfg.Auth.JWTSecret,
		TokenTTL:  cfg.Auth.TokenTTL,
	}
	if cfg.Redis.Address != "" {
		client := cache.NewRedisClient(cfg.Redis)
		defer client.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := client.Ping(ctx).Err()
		cancel()
		if err != nil {
			logger.Warn().Err(err).Str("address", cfg.Redis.Address).Msg("redis unreachable, directory cache disabled")
		} else {
			deps.Cache = cache.NewDirectoryCache(client, cfg.Redis.CacheTTL)
			logger.Info().Str("address", cfg.Redis.Address).Msg("directory cache enabled")
		}
	}
	svc := services.New(db, deps)

	scheduler := cron.New()
	if err := jobs.Schedule(scheduler, cfg.Jobs.ReconcileSchedule, svc.Aggregates, logger); err != nil {
		return fmt.Errorf("schedule jobs: %w", err)
	}
	scheduler.Start()
	defer scheduler.Stop()
	logger.Info().Str("schedule", cfg.Jobs.ReconcileSchedule).Msg("aggregate reconciliation scheduled")

	app := fiber.New(fiber.Config{
		AppName:      "Tutor Connect",
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		ErrorHandler: handlers.ErrorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.HTTP.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
		MaxAge:       86400,
	}))
	app.Use(middleware.RequestLogger(logger))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	routes.Setup(app, handlers.New(svc), routes.Options{
		JWTSecret: cfg.Auth.JWTSecret,
		Limiter:   middleware.NewRateLimiter(cfg.Auth.RateLimitRPS, cfg.Auth.RateLimitBurst),
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info().Msg("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Error().Err(err).Msg("shutdown")
		}
	}()

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	logger.Info().Str("addr", addr).Msg("server listening")
	return app.Listen(addr)
}
