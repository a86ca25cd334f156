package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"investra/configs"
	"investra/internal/cache"
	"investra/internal/database"
	deliveryhttp "investra/internal/delivery/http"
	"investra/internal/infra"
	"investra/internal/kafka"
	"investra/internal/repository"
	"investra/internal/service"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logger.Warn(".env file not found, using environment variables")
	}

	// Load configuration
	cfg := configs.Load()
	if cfg.Server.Env == "production" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	ctx := context.Background()

	// Initialize database
	db, err := infra.NewDatabase(ctx, cfg.Database.URL, logger)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.RunMigrations(db, logger); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	// Kafka is optional: no brokers means no notifications.
	var producer *kafka.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.Threshold, logger)
		defer producer.Close()
	} else {
		logger.Warn("KAFKA_BROKERS not set, large-activity notifications disabled")
	}

	// Initialize services
	ratesCache := cache.NewRatesCache(cfg.Rates.CacheTTL)
	rateService := service.NewRateService(cfg.Rates.BaseURL, cfg.Rates.BaseCurrency, ratesCache, logger)
	accountService := service.NewAccountService(userRepo, activityRepo, producer, logger)

	// Initialize background jobs
	scheduler := infra.NewScheduler(accountService, rateService, cfg.Rates.PendingMaxAge, logger)
	if err := scheduler.Start(); err != nil {
		logger.Fatalf("Failed to start scheduler: %v", err)
	}
	defer scheduler.Stop()

	// Public API
	e := echo.New()
	e.HideBanner = true
	deliveryhttp.SetupRoutes(e, &deliveryhttp.RouterConfig{
		AuthHandler:  deliveryhttp.NewAuthHandler(accountService),
		UserHandler:  deliveryhttp.NewUserHandler(accountService),
		AdminHandler: deliveryhttp.NewAdminHandler(accountService),
		RateHandler:  deliveryhttp.NewRateHandler(rateService),
	})

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Infof("API server starting on %s (env=%s)", addr, cfg.Server.Env)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start API server: %v", err)
		}
	}()

	// Ops listener: health and manual job triggers, kept off the public
	// port.
	opsSrv := newOpsServer(cfg.Server.OpsPort, db, accountService, cfg.Rates.PendingMaxAge, logger)
	go func() {
		logger.Infof("Ops server starting on %s", opsSrv.Addr)
		if err := opsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start ops server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down servers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("API server forced to shutdown: %v", err)
	}
	if err := opsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Ops server forced to shutdown: %v", err)
	}

	logger.Info("Servers exited gracefully")
}

func newOpsServer(port string, db interface{ Ping(context.Context) error }, accounts *service.AccountService, pendingMaxAge time.Duration, logger *logrus.Logger) *http.Server {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()

		dbStatus := "healthy"
		if err := db.Ping(ctx); err != nil {
			dbStatus = "unhealthy"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status": "healthy", "service": "investra-ops", "database": %q, "timestamp": %q}`,
			dbStatus, time.Now().Format(time.RFC3339))
	})

	r.Post("/jobs/expire-pending", func(w http.ResponseWriter, req *http.Request) {
		logger.Info("Manual stale-pending sweep triggered via ops API")

		ctx, cancel := context.WithTimeout(req.Context(), time.Minute)
		defer cancel()

		expired, err := accounts.ExpireStalePending(ctx, pendingMaxAge)
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprintf(w, `{"error": %q}`, err.Error())
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"expired": %d}`, expired)
	})

	return &http.Server{
		Addr:         fmt.Sprintf(":%s", port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
