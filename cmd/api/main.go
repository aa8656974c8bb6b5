package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dunamismax/upright/internal/api"
	"github.com/dunamismax/upright/internal/config"
	"github.com/dunamismax/upright/internal/pipeline"
	"github.com/dunamismax/upright/internal/ratelimit"
	"github.com/dunamismax/upright/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.Lmsgprefix)

	shutdownTracing, err := telemetry.SetupTracing(context.Background(), cfg.Tracing, logger)
	if err != nil {
		logger.Fatalf("tracing setup failed: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Printf("tracing shutdown error: %v", err)
		}
	}()

	registry := prometheus.NewRegistry()
	transformer, err := pipeline.NewOrientTransformer(
		log.New(os.Stdout, "[pipeline] ", log.LstdFlags|log.Lmsgprefix),
		cfg.Normalize,
		pipeline.NewMetrics(registry),
	)
	if err != nil {
		logger.Fatalf("build transformer: %v", err)
	}

	var opts []api.Option
	if cfg.RateLimit.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RateLimit.RedisAddr,
			Password: cfg.RateLimit.RedisPassword,
			DB:       cfg.RateLimit.RedisDB,
		})
		defer redisClient.Close()

		limiter, err := ratelimit.NewRedisTokenBucket(redisClient, cfg.RateLimit.Capacity, cfg.RateLimit.Window, "")
		if err != nil {
			logger.Fatalf("build rate limiter: %v", err)
		}
		opts = append(opts, api.WithRateLimit(limiter, cfg.RateLimit.SubjectHeader, cfg.RateLimit.CostUnitBytes))
		logger.Printf(
			"rate limiting enabled redis=%s capacity=%d window=%s",
			cfg.RateLimit.RedisAddr,
			cfg.RateLimit.Capacity,
			cfg.RateLimit.Window,
		)
	}
	app := api.NewServer(logger, transformer, registry, cfg.API.MaxBodyBytes, opts...)

	httpServer := &http.Server{
		Addr:         cfg.API.Addr,
		Handler:      app.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Printf(
			"listening on %s max_dimension=%d interpolation=%s",
			cfg.API.Addr,
			cfg.Normalize.MaxDimension,
			cfg.Normalize.Interpolation,
		)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Println("shutting down")
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	}
}
