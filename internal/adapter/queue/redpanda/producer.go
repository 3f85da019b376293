// Package redpanda provides the Redpanda/Kafka queue adapter for feedback
// generation tasks.
package redpanda

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/hari200698/Mocksy/internal/domain"
)

// TopicGenerate is the topic carrying feedback generation tasks.
const TopicGenerate = "feedback-generate"

// Producer wraps a transactional Kafka producer and implements domain.Queue.
type Producer struct {
	client *kgo.Client
	// transactions on one client must not interleave
	txMu chan struct{}
}

// NewProducer constructs a transactional Producer and ensures the task topic
// exists.
func NewProducer(brokers []string) (*Producer, error) {
	return NewProducerWithTransactionalID(brokers, "mocksy-producer")
}

// NewProducerWithTransactionalID constructs a Producer with a custom
// transactional id so tests can run producers side by side.
func NewProducerWithTransactionalID(brokers []string, transactionalID string) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("no seed brokers provided")
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.TransactionalID(transactionalID),
		kgo.RequestRetries(10),
		kgo.ProducerBatchMaxBytes(1_000_000),
	)
	if err != nil {
		return nil, fmt.Errorf("redpanda client: %w", err)
	}

	if err := createTopicIfNotExists(context.Background(), client, TopicGenerate, 1, 1); err != nil {
		// The topic may exist already or the broker may lag; production
		// will surface real connectivity errors.
		slog.Warn("topic creation failed", slog.String("topic", TopicGenerate), slog.Any("error", err))
	}

	return &Producer{client: client, txMu: make(chan struct{}, 1)}, nil
}

// EnqueueGenerate enqueues a generation task and returns the task id.
func (p *Producer) EnqueueGenerate(ctx domain.Context, payload domain.GenerateTaskPayload) (string, error) {
	select {
	case p.txMu <- struct{}{}:
		defer func() { <-p.txMu }()
	case <-ctx.Done():
		return "", ctx.Err()
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	if err := p.client.BeginTransaction(); err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}

	record := &kgo.Record{
		Topic: TopicGenerate,
		// interview id as key keeps runs for one interview in order
		Key:   []byte(payload.InterviewID),
		Value: b,
		Headers: []kgo.RecordHeader{
			{Key: "job_id", Value: []byte(payload.JobID)},
			{Key: "interview_id", Value: []byte(payload.InterviewID)},
		},
	}

	e := kgo.AbortingFirstErrPromise(p.client)
	p.client.Produce(ctx, record, e.Promise())
	if err := e.Err(); err != nil {
		if abortErr := p.client.EndTransaction(ctx, kgo.TryAbort); abortErr != nil {
			slog.Error("transaction abort failed", slog.Any("error", abortErr))
		}
		return "", fmt.Errorf("produce: %w", err)
	}

	if err := p.client.EndTransaction(ctx, kgo.TryCommit); err != nil {
		return "", fmt.Errorf("commit transaction: %w", err)
	}

	slog.Info("generation task enqueued",
		slog.String("job_id", payload.JobID),
		slog.String("interview_id", payload.InterviewID),
		slog.String("topic", TopicGenerate))
	return payload.JobID, nil
}

// Ping checks broker connectivity for readiness probes.
func (p *Producer) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

// Close closes the underlying client.
func (p *Producer) Close() {
	if p.client != nil {
		p.client.Close()
	}
}
