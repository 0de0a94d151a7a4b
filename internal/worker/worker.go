// Package worker relays job change notifications from Postgres to the RabbitMQ fanout exchange.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cuongbtq/chauffer-be/internal/domain"
)

// Source yields raw change payloads until ctx is done
type Source interface {
	Run(ctx context.Context, handle func(payload []byte)) error
}

// Publisher delivers an encoded change event, retrying with backoff
type Publisher interface {
	PublishWithRetry(ctx context.Context, body []byte, contentType string) error
}

// Config holds worker configuration
type Config struct {
	Logger      *slog.Logger
	Source      Source
	Publisher   Publisher
	Concurrency int
	// QueueSize is split evenly across the workers
	QueueSize int
	// JobTimeout bounds one publish including its retries
	JobTimeout time.Duration
}

// Stats counts what the relay did with each payload
type Stats struct {
	Published uint64
	Dropped   uint64
	Failed    uint64
}

// Worker is the change relay: one dispatcher feeding a pool of publishers.
// Events are sharded by job id, so each job's changes are published in commit order.
type Worker struct {
	logger      *slog.Logger
	source      Source
	publisher   Publisher
	concurrency int
	jobTimeout  time.Duration
	workerID    string

	shards     []chan domain.ChangeEvent
	stopChan   chan struct{}
	sourceDone chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup

	published atomic.Uint64
	dropped   atomic.Uint64
	failed    atomic.Uint64
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = concurrency * 16
	}
	jobTimeout := cfg.JobTimeout
	if jobTimeout <= 0 {
		jobTimeout = 5 * time.Second
	}

	shardSize := (queueSize + concurrency - 1) / concurrency
	shards := make([]chan domain.ChangeEvent, concurrency)
	for i := range shards {
		shards[i] = make(chan domain.ChangeEvent, shardSize)
	}

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "relay"
	}

	return &Worker{
		logger:      cfg.Logger,
		source:      cfg.Source,
		publisher:   cfg.Publisher,
		concurrency: concurrency,
		jobTimeout:  jobTimeout,
		workerID:    fmt.Sprintf("%s-%d", hostname, os.Getpid()),
		shards:      shards,
		stopChan:    make(chan struct{}),
		sourceDone:  make(chan struct{}),
	}
}

// Start spawns the pool and relays notifications until ctx is done or the source fails
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
		slog.Duration("job_timeout", w.jobTimeout),
	)

	w.spawnWorkerPool()

	defer close(w.sourceDone)
	err := w.source.Run(ctx, w.dispatch)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("change source failed: %w", err)
	}

	w.logger.Info("Worker context canceled, stopping...")
	return nil
}

// Stop stops accepting payloads and waits for queued ones to be published
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		w.logger.Info("Stopping worker...")
		close(w.stopChan)
		<-w.sourceDone
		for _, shard := range w.shards {
			close(shard)
		}
		w.wg.Wait()
		w.logger.Info("Worker stopped",
			slog.Uint64("published", w.published.Load()),
			slog.Uint64("dropped", w.dropped.Load()),
			slog.Uint64("failed", w.failed.Load()),
		)
	})
}

// Stats returns the relay counters
func (w *Worker) Stats() Stats {
	return Stats{
		Published: w.published.Load(),
		Dropped:   w.dropped.Load(),
		Failed:    w.failed.Load(),
	}
}
