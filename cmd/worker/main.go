// Command worker consumes feedback generation tasks from the Redpanda queue
// and runs the evaluation pipeline.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/hari200698/Mocksy/internal/adapter/ai/openrouter"
	redislock "github.com/hari200698/Mocksy/internal/adapter/lock"
	"github.com/hari200698/Mocksy/internal/adapter/observability"
	"github.com/hari200698/Mocksy/internal/adapter/queue/redpanda"
	"github.com/hari200698/Mocksy/internal/adapter/repo/postgres"
	"github.com/hari200698/Mocksy/internal/adapter/telemetry"
	"github.com/hari200698/Mocksy/internal/config"
	"github.com/hari200698/Mocksy/internal/evaluation"
	"github.com/hari200698/Mocksy/internal/prompts"
	"github.com/hari200698/Mocksy/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	observability.InitMetrics()
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(":9090", mux); err != nil {
			slog.Error("worker metrics server error", slog.Any("error", err))
		}
	}()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	slog.Info("starting worker", slog.String("env", cfg.AppEnv))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("database connection failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	interviewRepo := postgres.NewInterviewRepo(pool)
	feedbackRepo := postgres.NewFeedbackRepo(pool)
	jobRepo := postgres.NewJobRepo(pool)

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() { _ = rdb.Close() }()
	genLock := redislock.NewRedisLock(rdb)

	// Distinct transactional id keeps the worker's producer from conflicting
	// with the HTTP server's producer.
	producer, err := redpanda.NewProducerWithTransactionalID(cfg.KafkaBrokers, "mocksy-worker-producer")
	if err != nil {
		slog.Error("queue producer init failed", slog.Any("error", err))
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

	consumer, err := redpanda.NewConsumer(cfg.KafkaBrokers, cfg.ConsumerGroup, cfg.ConsumerMaxConcurrency, genSvc.ProcessGeneration)
	if err != nil {
		slog.Error("consumer init failed", slog.Any("error", err))
		os.Exit(1)
	}

	if err := consumer.Start(ctx); err != nil && err != context.Canceled {
		slog.Error("consumer stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("worker shut down cleanly")
}
