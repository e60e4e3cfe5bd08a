package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"quickcourt/internal/api"
	"quickcourt/internal/config"
	"quickcourt/internal/database"
	"quickcourt/internal/domain"
	"quickcourt/internal/events"
	"quickcourt/internal/export"
	"quickcourt/internal/logging"
	"quickcourt/internal/metrics"
	"quickcourt/internal/models"
	"quickcourt/internal/notify"
	"quickcourt/internal/payment"
	"quickcourt/internal/repository"
	"quickcourt/internal/service"
	"quickcourt/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const expirySweepInterval = 5 * time.Minute

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	if err := prepareDirectories(cfg, &logger); err != nil {
		return err
	}

	metrics.Register()

	db, err := initDatabase(cfg, &logger)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, holds := initHoldRepository(ctx, cfg, &logger)
	if redisClient != nil {
		defer (func() { _ = repository.Close(redisClient) })()
	}

	gateway := payment.NewRazorpayGateway(cfg.Payment, &logger)

	dispatcher, err := initNotifications(ctx, cfg, &logger)
	if err != nil {
		return err
	}

	eventBus := events.NewEventBus()

	holdTTL := time.Duration(cfg.Booking.HoldTTLSeconds) * time.Second
	bookingService := service.NewBookingService(
		db, holds, gateway, dispatcher, eventBus,
		cfg.Booking.MaxBookingDays, holdTTL, &logger,
	)

	go runExpirySweep(ctx, bookingService, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		go startMetricsServer(cfg.Monitoring.PrometheusPort, &logger)
	}

	exporter := export.NewExporter(cfg.Exports.Path, &logger)
	apiServer := api.NewHTTPServer(cfg.API, bookingService, db, exporter)

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Int("port", cfg.API.HTTP.Port).Msg("HTTP server starting")
		if err := apiServer.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	logger.Info().Msg("Shutdown complete.")
	return nil
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, err
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if cfg == nil {
		return os.ErrInvalid
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Error().Err(err).Msg("failed to create database directory")
		return err
	}
	if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
		logger.Error().Err(err).Msg("failed to create exports directory")
		return err
	}
	return nil
}

func initDatabase(cfg *config.Config, logger *zerolog.Logger) (*database.DB, error) {
	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize database")
		return nil, err
	}

	facilities := make([]*models.Facility, 0, len(cfg.Facilities))
	for i := range cfg.Facilities {
		facilities = append(facilities, &cfg.Facilities[i])
	}
	courts := make([]*models.Court, 0, len(cfg.Courts))
	for i := range cfg.Courts {
		courts = append(courts, &cfg.Courts[i])
	}

	if err := db.SyncCatalog(facilities, courts); err != nil {
		logger.Error().Err(err).Msg("failed to sync facility catalog")
		return nil, err
	}
	return db, nil
}

// initHoldRepository wires the slot-hold layer: redis when configured,
// in-memory otherwise, with failover between the two.
func initHoldRepository(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*redis.Client, domain.HoldRepository) {
	fallback := repository.NewMemoryHoldRepository()
	if !cfg.Redis.Enabled || cfg.Redis.Address == "" {
		return nil, fallback
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("Redis unavailable")
	}

	primary := repository.NewRedisHoldRepository(redisClient)
	return redisClient, repository.NewFailoverHoldRepository(primary, fallback, logger)
}

func initNotifications(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*worker.NotifyDispatcher, error) {
	var sender domain.NotificationSender = notify.NopNotifier{}
	if cfg.Telegram.Enabled {
		notifier, err := notify.NewTelegramNotifier(cfg.Telegram, logger)
		if err != nil {
			logger.Error().Err(err).Msg("failed to create Telegram notifier")
			return nil, err
		}
		sender = notifier
	}

	backoff := worker.Backoff{MaxAttempts: 5, Base: 2 * time.Second, Cap: time.Minute}
	dispatcher := worker.NewNotifyDispatcher(sender, backoff, log.New(os.Stdout, "notify: ", log.LstdFlags))
	go dispatcher.Start(ctx)
	return dispatcher, nil
}

// runExpirySweep periodically flips confirmed bookings whose window has
// passed to completed.
func runExpirySweep(ctx context.Context, svc *service.BookingService, logger *zerolog.Logger) {
	ticker := time.NewTicker(expirySweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := svc.CompleteExpired(ctx)
			if err != nil {
				logger.Error().Err(err).Msg("expiry sweep failed")
				continue
			}
			if n > 0 {
				logger.Info().Int("completed", n).Msg("expired bookings completed")
			}
		}
	}
}

func startMetricsServer(port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Info().Int("port", port).Msg("Prometheus metrics server starting")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
