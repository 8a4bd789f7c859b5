package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/intake-api/internal/config"
	"github.com/jwalitptl/intake-api/internal/handler"
	patienthandler "github.com/jwalitptl/intake-api/internal/handler/patient"
	"github.com/jwalitptl/intake-api/internal/middleware"
	"github.com/jwalitptl/intake-api/internal/repository"
	"github.com/jwalitptl/intake-api/internal/repository/memory"
	"github.com/jwalitptl/intake-api/internal/repository/postgres"
	"github.com/jwalitptl/intake-api/internal/router"
	"github.com/jwalitptl/intake-api/internal/service/event"
	"github.com/jwalitptl/intake-api/internal/service/patient"
	"github.com/jwalitptl/intake-api/pkg/logger"
	"github.com/jwalitptl/intake-api/pkg/messaging"
	"github.com/jwalitptl/intake-api/pkg/messaging/redis"
	"github.com/jwalitptl/intake-api/pkg/metrics"
)

func runServer(ctx context.Context, cfgPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return err
	}

	log := logger.NewLogger(&logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
		Output: os.Stdout,
	}).WithFields(map[string]interface{}{
		"service": "intake-api",
		"version": version,
	})
	zl := log.Zerolog()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(cfg.Metrics.Namespace, reg)

	var (
		repo   repository.PatientRepository
		pinger handler.Pinger
	)
	switch cfg.Database.Driver {
	case "memory":
		log.Warn("using in-memory storage; records are lost on exit")
		repo = memory.NewPatientRepository(nil)
	default:
		var db *sqlx.DB
		db, err = postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()
		repo = postgres.NewPatientRepository(postgres.NewExecutor(db, zl, m))
		pinger = db
	}

	var broker messaging.Broker = messaging.NopBroker{}
	if cfg.Events.Enabled {
		rb, err := redis.NewRedisBroker(redis.Config{
			URL:              cfg.Redis.URL,
			ChannelPrefix:    cfg.Events.ChannelPrefix,
			MaxRetries:       cfg.Redis.MaxRetries,
			RetryBackoff:     cfg.Redis.RetryBackoff,
			PoolSize:         cfg.Redis.PoolSize,
			MinIdleConns:     cfg.Redis.MinIdleConns,
			FailureThreshold: cfg.Events.FailureThreshold,
			OpenTimeout:      cfg.Events.OpenTimeout,
		}, zl, m)
		if err != nil {
			return err
		}
		broker = rb
	}
	defer broker.Close()

	patientService := patient.NewService(repo, event.NewEventService(broker, zl, cfg.Events.PublishTimeout))

	gin.SetMode(gin.ReleaseMode)
	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.Security.AllowedOrigins
	cors.AllowMethods = cfg.Security.AllowedMethods
	cors.AllowHeaders = cfg.Security.AllowedHeaders

	r := router.NewRouter(log, m, handler.NewHandler(pinger, reg), patienthandler.NewHandler(patientService), router.RouterConfig{
		RateLimitEnabled: cfg.RateLimit.Enabled,
		RateLimiter: middleware.RateLimiterConfig{
			Rate:  rate.Limit(cfg.RateLimit.RequestsPerSecond),
			Burst: cfg.RateLimit.Burst,
			TTL:   cfg.RateLimit.ClientTTL,
		},
		CORSConfig:     cors,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsPath:    cfg.Metrics.Path,
	})

	// Create server
	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        r.Engine(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-sigCtx.Done():
	}

	log.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("server exited properly")
	return nil
}
