package payroll

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/period"
)

type recalculator interface {
	Recalculate(ctx context.Context, monthKey string) (payroll.MonthlyRecord, error)
}

type QueueConfig struct {
	Workers    int
	BufferSize int
	// RetryDelay re-queues a month another instance was rebuilding.
	RetryDelay time.Duration
}

// RecalcQueue runs month rebuilds in the background. A month already waiting
// in the queue is not queued twice.
type RecalcQueue struct {
	manager recalculator
	cfg     QueueConfig
	queue   chan string

	mu      sync.Mutex
	pending map[string]struct{}
	wg      sync.WaitGroup
}

func NewRecalcQueue(manager recalculator, cfg QueueConfig) *RecalcQueue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 64
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 5 * time.Second
	}
	return &RecalcQueue{
		manager: manager,
		cfg:     cfg,
		queue:   make(chan string, cfg.BufferSize),
		pending: make(map[string]struct{}),
	}
}

// Start launches the workers. They stop when ctx is done.
func (q *RecalcQueue) Start(ctx context.Context) {
	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}
	slog.Info("Payroll recalculation queue started", "workers", q.cfg.Workers)
}

// Wait blocks until every worker has returned.
func (q *RecalcQueue) Wait() {
	q.wg.Wait()
}

// Enqueue schedules a rebuild of monthKey without blocking. It reports false
// when the key is invalid or the queue is full.
func (q *RecalcQueue) Enqueue(monthKey string) bool {
	year, month, err := period.ParseMonthKey(monthKey)
	if err != nil {
		slog.Warn("Rejected payroll recalculation", "month_key", monthKey, "error", err)
		return false
	}
	key := period.MonthKey(year, month)

	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.pending[key]; ok {
		return true
	}

	select {
	case q.queue <- key:
		q.pending[key] = struct{}{}
		return true
	default:
		slog.Warn("Payroll recalculation queue full", "month_key", key, "error", payroll.ErrQueueFull)
		return false
	}
}

// Pending reports how many months wait to be rebuilt.
func (q *RecalcQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *RecalcQueue) worker(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case key := <-q.queue:
			// triggers arriving while this runs queue one follow-up rebuild
			q.mu.Lock()
			delete(q.pending, key)
			q.mu.Unlock()

			q.run(ctx, key)
		}
	}
}

func (q *RecalcQueue) run(ctx context.Context, key string) {
	_, err := q.manager.Recalculate(ctx, key)
	switch {
	case err == nil:
	case errors.Is(err, payroll.ErrRecalculationBusy):
		slog.Info("Payroll month busy, retrying later", "month_key", key, "retry_in", q.cfg.RetryDelay)
		time.AfterFunc(q.cfg.RetryDelay, func() {
			if ctx.Err() == nil {
				q.Enqueue(key)
			}
		})
	default:
		slog.Error("Background payroll recalculation failed", "month_key", key, "error", err)
	}
}
