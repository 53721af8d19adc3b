package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"storepay/internal/monitoring"

	"go.uber.org/zap"
)

// Task is one best-effort side effect. Failures are logged and counted.
type Task struct {
	Name  string
	Order string
	Run   func(ctx context.Context) error
}

// Dispatcher runs side effects off the request path on a fixed worker pool.
type Dispatcher struct {
	logger  *zap.SugaredLogger
	timeout time.Duration

	tasks chan Task
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewDispatcher(logger *zap.SugaredLogger, workers, queueSize int, timeout time.Duration) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	d := &Dispatcher{
		logger:  logger,
		timeout: timeout,
		tasks:   make(chan Task, queueSize),
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for t := range d.tasks {
				d.run(t)
			}
		}()
	}
	return d
}

// Enqueue never blocks. When the queue is full the task gets its own goroutine.
func (d *Dispatcher) Enqueue(t Task) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.logger.Warnw("dispatcher closed, dropping side effect", "task", t.Name, "order", t.Order)
		monitoring.TickSideEffectFailed(t.Name)
		return
	}

	select {
	case d.tasks <- t:
	default:
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.run(t)
		}()
	}
}

func (d *Dispatcher) run(t Task) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return t.Run(ctx)
	}()
	if err != nil {
		monitoring.TickSideEffectFailed(t.Name)
		d.logger.Errorw("side effect failed", "task", t.Name, "order", t.Order, "err", err)
	}
}

// Close stops accepting tasks and waits for queued ones until ctx is done.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.tasks)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
