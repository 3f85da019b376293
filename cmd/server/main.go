// Command server starts the Mocksy feedback API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hari200698/Mocksy/internal/adapter/ai/openrouter"
	httpserver "github.com/hari200698/Mocksy/internal/adapter/httpserver"
	redislock "github.com/hari200698/Mocksy/internal/adapter/lock"
	"github.com/hari200698/Mocksy/internal/adapter/observability"
	"github.com/hari200698/Mocksy/internal/adapter/queue/redpanda"
	"github.com/hari200698/Mocksy/internal/adapter/repo/postgres"
	"github.com/hari200698/Mocksy/internal/adapter/telemetry"
	"github.com/hari200698/Mocksy/internal/app"
	"github.com/hari200698/Mocksy/internal/config"
	"github.com/hari200698/Mocksy/internal/evaluation"
	"github.com/hari200698/Mocksy/internal/prompts"
	"github.com/hari200698/Mocksy/internal/usecase"
)

// redisAdapter narrows *redis.Client to the readiness interface.
type redisAdapter struct{ *redis.Client }

func (r redisAdapter) Ping(ctx context.Context) app.RedisPingResult { return r.Client.Ping(ctx) }

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	interviewRepo := postgres.NewInterviewRepo(pool)
	feedbackRepo := postgres.NewFeedbackRepo(pool)
	jobRepo := postgres.NewJobRepo(pool)

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() { _ = rdb.Close() }()
	genLock := redislock.NewRedisLock(rdb)

	producer, err := redpanda.NewProducer(cfg.KafkaBrokers)
	if err != nil {
		slog.Error("redpanda producer connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer producer.Close()

	registry, err := prompts.Load()
	if err != nil {
		slog.Error("prompt registry load failed", slog.Any("error", err))
		os.Exit(1)
	}

	aiClient := openrouter.New(cfg)
	star := evaluation.NewSTARAnalyzer(aiClient, registry, cfg.AIModel)
	plan := evaluation.NewPlanGenerator(aiClient, registry)
	orchestrator := evaluation.NewOrchestrator(star, plan)
	summarizer := evaluation.NewSummarizer()

	genSvc := usecase.NewGenerateService(
		interviewRepo, feedbackRepo, jobRepo, producer, genLock,
		telemetry.New(logger), orchestrator, summarizer,
		cfg.GenerationLockTTL, cfg.EvalConcurrency,
	)
	fbSvc := usecase.NewFeedbackService(feedbackRepo, jobRepo)

	dbCheck, redisCheck, kafkaCheck := app.BuildReadinessChecks(pool, redisAdapter{rdb}, producer)
	srv := httpserver.NewServer(cfg, genSvc, fbSvc, dbCheck, redisCheck, kafkaCheck)
	handler := app.BuildRouter(cfg, srv)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	_ = srvHTTP.Shutdown(shutdownCtx)
}
