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
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"lifetrack/pkg/bus"
	"lifetrack/pkg/db"
	gos3 "lifetrack/pkg/s3"
	"lifetrack/pkg/telemetry"
	"lifetrack/services/llp"
	"lifetrack/services/llp/internal/config"
)

func main() {
	if err := run("lifetrackd"); err != nil {
		log.New(os.Stderr, "", log.LstdFlags).Fatal(err)
	}
}

func run(serviceName string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, middleware, logger, err := telemetry.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownTelemetry != nil {
			if err := shutdownTelemetry(shutdownCtx); err != nil {
				fmt.Fprintf(os.Stderr, "%s: telemetry shutdown error: %v\n", serviceName, err)
			}
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	pool, err := db.Open(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	orm, err := gorm.Open(postgres.Open(cfg.Database.URL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return fmt.Errorf("open orm: %w", err)
	}

	store := &llp.Store{DB: pool, ORM: orm}

	if cfg.Bus.Enabled {
		eventBus, err := bus.New(cfg.Bus.URL)
		if err != nil {
			return fmt.Errorf("connect bus: %w", err)
		}
		defer eventBus.Close()

		if err := eventBus.EnsureStream(cfg.Bus.Stream, "lifetrack.llp.>"); err != nil {
			return fmt.Errorf("ensure stream: %w", err)
		}
		store.Bus = eventBus
	} else {
		logger.Printf("WARN NATS_URL not set, event publishing disabled")
	}

	if cfg.S3.Enabled {
		s3Client, err := gos3.NewClientFromEnv()
		if err != nil {
			return fmt.Errorf("init s3 client: %w", err)
		}
		store.S3 = s3Client
	} else {
		logger.Printf("WARN S3_ENDPOINT not set, certification uploads disabled")
	}

	api, err := llp.New(store, llp.Config{
		CertBucket: cfg.S3.Bucket,
		PresignTTL: cfg.S3.PresignTTL,
	})
	if err != nil {
		return fmt.Errorf("init api: %w", err)
	}

	routes, err := api.Routes()
	if err != nil {
		return fmt.Errorf("build routes: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", healthHandler)
	mux.HandleFunc("/readyz", readyHandler(pool))
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", routes)

	server := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: middleware(mux),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "%s: server shutdown error: %v\n", serviceName, err)
		}
	}()

	logger.Printf("INFO listening on %s", server.Addr)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Printf("ERROR server failed: %v", err)
		return err
	}

	return nil
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func readyHandler(pool interface {
	Ping(context.Context) error
}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}
