package task

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Handler runs one task. Returning an error only logs it; tasks are not retried.
type Handler func(ctx context.Context, args map[string]string) error

// Worker polls a Queue and dispatches due tasks to registered handlers
type Worker struct {
	queue    Queue
	interval time.Duration
	batch    int64
	logger   *zap.Logger
	now      func() time.Time

	mu       sync.RWMutex
	handlers map[string]Handler

	stopOnce sync.Once
	stopChan chan struct{}
}

func NewWorker(q Queue, interval time.Duration, batch int64, logger *zap.Logger) *Worker {
	if batch <= 0 {
		batch = 50
	}
	return &Worker{
		queue:    q,
		interval: interval,
		batch:    batch,
		logger:   logger,
		now:      time.Now,
		handlers: make(map[string]Handler),
		stopChan: make(chan struct{}),
	}
}

// Register binds name to h, replacing any previous handler
func (w *Worker) Register(name string, h Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[name] = h
}

// Start polls until ctx is done or Stop is called. It blocks.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("task worker started", zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.RunOnce(ctx)
		case <-w.stopChan:
			w.logger.Info("task worker stopped")
			return
		case <-ctx.Done():
			w.logger.Info("task worker cancelled")
			return
		}
	}
}

// Stop ends Start; safe to call more than once
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stopChan) })
}

// RunOnce drains one batch of due tasks and returns how many were dispatched
func (w *Worker) RunOnce(ctx context.Context) int {
	tasks, err := w.queue.PopDue(ctx, w.now(), w.batch)
	if err != nil {
		w.logger.Error("pop due tasks", zap.Error(err))
		return 0
	}

	for _, t := range tasks {
		w.dispatch(ctx, t)
	}
	return len(tasks)
}

func (w *Worker) dispatch(ctx context.Context, t Task) {
	w.mu.RLock()
	h, ok := w.handlers[t.Name]
	w.mu.RUnlock()

	if !ok {
		w.logger.Warn("no handler for task", zap.String("task", t.Name), zap.String("task_id", t.ID))
		return
	}

	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("task panicked", zap.String("task", t.Name), zap.String("task_id", t.ID), zap.Any("panic", r))
		}
	}()

	if err := h(ctx, t.Args); err != nil {
		w.logger.Error("task failed", zap.String("task", t.Name), zap.String("task_id", t.ID), zap.Error(err))
		return
	}
	w.logger.Debug("task done", zap.String("task", t.Name), zap.String("task_id", t.ID))
}
