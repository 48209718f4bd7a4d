package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4" // Echo web framework
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/ticket-booking/internal/booking"
	"github.com/iliyamo/ticket-booking/internal/config" // Internal config loader
	"github.com/iliyamo/ticket-booking/internal/database"
	"github.com/iliyamo/ticket-booking/internal/handler"
	"github.com/iliyamo/ticket-booking/internal/metrics"
	"github.com/iliyamo/ticket-booking/internal/middleware"
	"github.com/iliyamo/ticket-booking/internal/model"
	"github.com/iliyamo/ticket-booking/internal/queue"
	"github.com/iliyamo/ticket-booking/internal/repository"
	"github.com/iliyamo/ticket-booking/internal/router" // Internal router setup
	queue_publisher "github.com/iliyamo/ticket-booking/internal/service"
)

func main() {
	cfg := config.Load() // Load environment config
	log := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis backs the limiter whatever the store; it is optional unless it
	// also holds the inventory.
	rdb, err := config.NewRedisClient(config.LoadRedisConfig())
	if err != nil {
		if cfg.StoreDriver == config.DriverRedis {
			log.Fatal().Err(err).Msg("redis required for STORE_DRIVER=redis")
		}
		log.Warn().Err(err).Msg("redis unavailable, rate limiting disabled")
	} else {
		defer rdb.Close()
	}

	store, closeStore := openStore(ctx, cfg, rdb, log)
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := []booking.Option{
		booking.WithLogger(log.With().Str("component", "booking").Logger()),
		booking.WithMetrics(metrics.New(reg)),
		booking.WithMaxAttempts(cfg.MaxAttempts),
		booking.WithRowRetries(cfg.RowRetries),
	}
	if cfg.QueueEnabled {
		opts = append(opts, booking.WithPublisher(queue_publisher.New(cfg.RabbitURL, log.With().Str("component", "publisher").Logger())))
		consumer := &queue.Consumer{URL: cfg.RabbitURL, LogDir: cfg.BookingLogDir, Log: log.With().Str("component", "consumer").Logger()}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("booking consumer stopped")
			}
		}()
	}
	svc := booking.NewService(store, opts...)

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.RequestLogger(log.With().Str("component", "http").Logger()))
	router.RegisterRoutes(e, svc, reg)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg.AdminUser, cfg.AdminPasswordHash, cfg.JWTSecret, cfg.AccessTTLMin))
	router.RegisterSeats(e, handler.NewSeatHandler(svc),
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log), cfg.JWTSecret)

	addr := ":" + cfg.Port
	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.Env).Str("store", cfg.StoreDriver).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	log.Info().Msg("stopped")
}

func newLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano
	var l zerolog.Logger
	if cfg.Env == "dev" {
		l = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	} else {
		l = zerolog.New(os.Stdout)
	}
	return l.Level(level).With().Timestamp().Str("service", "ticket-booking").Logger()
}

// openStore builds the configured inventory and seeds it with the layout
// when empty.  The returned func releases its resources.
func openStore(ctx context.Context, cfg config.Config, rdb *redis.Client, log zerolog.Logger) (booking.Store, func()) {
	layout := cfg.Layout()
	switch cfg.StoreDriver {
	case config.DriverMySQL:
		db, err := database.Open(ctx, database.Options{
			User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("mysql connect")
		}
		if err := database.Migrate(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("mysql migrate")
		}
		repo := repository.NewSeatRepo(db)
		seed(ctx, log, layout, repo.SeedIfEmpty)
		return repo, func() { _ = db.Close() }
	case config.DriverRedis:
		repo := repository.NewRedisSeatRepo(rdb, config.LoadRedisConfig().KeyPrefix)
		seed(ctx, log, layout, repo.SeedIfEmpty)
		return repo, func() {}
	case config.DriverMemory:
		log.Info().Int("seats", layout.Size()).Msg("in-memory inventory")
		return repository.NewMemorySeatRepo(layout.Seats()), func() {}
	}
	log.Fatal().Str("driver", cfg.StoreDriver).Msg("unknown STORE_DRIVER")
	return nil, nil
}

func seed(ctx context.Context, log zerolog.Logger, layout model.Layout, fn func(context.Context, model.Layout) (int, error)) {
	n, err := fn(ctx, layout)
	if err != nil {
		log.Fatal().Err(err).Msg("seed inventory")
	}
	if n > 0 {
		log.Info().Int("seats", n).Msg("inventory seeded")
	}
}
