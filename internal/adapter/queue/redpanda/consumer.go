package redpanda

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kotel"
	"go.opentelemetry.io/otel"

	"github.com/hari200698/Mocksy/internal/domain"
)

// Handler processes one decoded generation task. A returned error means the
// job failed; the handler itself owns job status bookkeeping.
type Handler func(ctx context.Context, payload domain.GenerateTaskPayload) error

// Consumer polls the generation topic and dispatches tasks to a bounded
// worker pool.
type Consumer struct {
	client  *kgo.Client
	handler Handler
	groupID string
	workers int
}

// NewConsumer constructs a group consumer for the generation topic with
// tracing hooks installed.
func NewConsumer(brokers []string, groupID string, workers int, handler Handler) (*Consumer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("no seed brokers provided")
	}
	if groupID == "" {
		return nil, fmt.Errorf("missing required group ID")
	}
	if workers < 1 {
		workers = 1
	}

	kotelService := kotel.NewKotel(kotel.WithTracer(
		kotel.NewTracer(kotel.TracerProvider(otel.GetTracerProvider())),
	))

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(groupID),
		kgo.ConsumeTopics(TopicGenerate),
		kgo.FetchIsolationLevel(kgo.ReadCommitted()),
		kgo.WithHooks(kotelService.Hooks()...),
		kgo.DialTimeout(10*time.Second),
		kgo.SessionTimeout(30*time.Second),
		kgo.HeartbeatInterval(3*time.Second),
		kgo.AutoCommitMarks(),
		kgo.AutoCommitInterval(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("redpanda consumer client: %w", err)
	}

	if err := createTopicIfNotExists(context.Background(), client, TopicGenerate, 1, 1); err != nil {
		slog.Warn("topic creation failed", slog.String("topic", TopicGenerate), slog.Any("error", err))
	}

	return &Consumer{client: client, handler: handler, groupID: groupID, workers: workers}, nil
}

// Start consumes until the context is cancelled. Records fan out to at most
// c.workers concurrent handler calls; offsets are marked only after the
// handler returns so a crash replays unfinished tasks.
func (c *Consumer) Start(ctx context.Context) error {
	slog.Info("consumer started",
		slog.String("group_id", c.groupID),
		slog.String("topic", TopicGenerate),
		slog.Int("workers", c.workers))

	sem := make(chan struct{}, c.workers)
	var wg sync.WaitGroup

	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			break
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			slog.Error("fetch error", slog.String("topic", topic), slog.Int("partition", int(partition)), slog.Any("error", err))
		})
		fetches.EachRecord(func(record *kgo.Record) {
			wg.Add(1)
			sem <- struct{}{}
			go func() {
				defer wg.Done()
				defer func() { <-sem }()
				c.processRecord(ctx, record)
			}()
		})
	}

	wg.Wait()
	c.client.Close()
	slog.Info("consumer stopped", slog.String("group_id", c.groupID))
	return ctx.Err()
}

func (c *Consumer) processRecord(ctx context.Context, record *kgo.Record) {
	var payload domain.GenerateTaskPayload
	if err := json.Unmarshal(record.Value, &payload); err != nil {
		// Undecodable records cannot be retried; mark and move on.
		slog.Error("discarding malformed task",
			slog.String("topic", record.Topic),
			slog.Int64("offset", record.Offset),
			slog.Any("error", err))
		c.client.MarkCommitRecords(record)
		return
	}

	if err := c.handler(ctx, payload); err != nil {
		// The handler already failed the job; replaying would rerun a
		// pipeline that deterministically fails the same way.
		slog.Error("generation task failed",
			slog.String("job_id", payload.JobID),
			slog.Any("error", err))
	}
	c.client.MarkCommitRecords(record)
}
