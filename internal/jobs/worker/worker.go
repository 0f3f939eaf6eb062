package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/yungbote/resourcehub-backend/internal/platform/logger"
	"github.com/yungbote/resourcehub-backend/internal/platform/redisbus"
	"github.com/yungbote/resourcehub-backend/internal/services"
)

type Config struct {
	Concurrency  int
	PollInterval time.Duration
}

// Worker runs a pool of goroutines that apply vector outbox tasks. Each loop
// polls on a ticker and also wakes on bus notifications.
type Worker struct {
	log    *logger.Logger
	outbox services.VectorOutbox
	bus    redisbus.Bus
	cfg    Config

	wake chan struct{}
	wg   sync.WaitGroup
}

func NewWorker(baseLog *logger.Logger, outbox services.VectorOutbox, bus redisbus.Bus, cfg Config) *Worker {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if bus == nil {
		bus = redisbus.NoopBus{}
	}
	return &Worker{
		log:    baseLog.With("component", "VectorOutboxWorker"),
		outbox: outbox,
		bus:    bus,
		cfg:    cfg,
		wake:   make(chan struct{}, cfg.Concurrency),
	}
}

func (w *Worker) Start(ctx context.Context) {
	w.log.Info("Starting vector outbox worker pool",
		"concurrency", w.cfg.Concurrency,
		"poll_interval", w.cfg.PollInterval.String(),
	)
	if err := w.bus.StartForwarder(ctx, func(ev redisbus.Event) {
		if ev.Kind == redisbus.KindVectorSync {
			w.Notify()
		}
	}); err != nil {
		w.log.Warn("Outbox wake-up subscription failed; polling only", "error", err)
	}

	for i := 0; i < w.cfg.Concurrency; i++ {
		workerID := i + 1
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.runLoop(ctx, workerID)
		}()
	}
}

// Wait blocks until every loop has exited after ctx is cancelled.
func (w *Worker) Wait() {
	w.wg.Wait()
}

// Notify wakes one idle loop without waiting for its next tick.
func (w *Worker) Notify() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *Worker) runLoop(ctx context.Context, workerID int) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Worker loop stopped", "worker_id", workerID)
			return
		case <-ticker.C:
		case <-w.wake:
		}
		// Keep going while tasks are runnable so a burst drains without waiting on ticks.
		for ctx.Err() == nil {
			processed, err := w.processOne(ctx, workerID)
			if err != nil {
				w.log.Warn("Outbox task processing failed", "worker_id", workerID, "error", err)
				break
			}
			if !processed {
				break
			}
		}
	}
}

func (w *Worker) processOne(ctx context.Context, workerID int) (processed bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("Outbox task panic", "worker_id", workerID, "panic", r)
			err = &panicError{Val: r}
		}
	}()
	return w.outbox.ProcessNext(ctx)
}

type panicError struct{ Val any }

func (e *panicError) Error() string { return fmt.Sprintf("panic: %v", e.Val) }
