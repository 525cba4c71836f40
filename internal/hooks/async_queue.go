package hooks

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

var (
	// ErrQueueNotStarted is returned when enqueueing before Start
	ErrQueueNotStarted = errors.New("queue not started")
	// ErrQueueShutdown is returned when enqueueing after Shutdown
	ErrQueueShutdown = errors.New("queue shutdown")
)

// AsyncTask is a unit of work for the queue
type AsyncTask struct {
	Name string
	Fn   func(ctx context.Context) error
}

// AsyncQueue runs tasks on a fixed pool of workers
type AsyncQueue struct {
	tasks       chan AsyncTask
	workerCount int
	logger      *zap.Logger
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	started     bool
	shutdown    bool
	mu          sync.Mutex
}

// NewAsyncQueue creates a queue with workerCount workers. A nil logger discards task errors.
func NewAsyncQueue(workerCount int, logger *zap.Logger) *AsyncQueue {
	if workerCount <= 0 {
		workerCount = 2
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &AsyncQueue{
		tasks:       make(chan AsyncTask, 32),
		workerCount: workerCount,
		logger:      logger.Named("hooks"),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start launches the workers
func (q *AsyncQueue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.started {
		return
	}
	for i := 0; i < q.workerCount; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
	q.started = true
}

func (q *AsyncQueue) worker(id int) {
	defer q.wg.Done()

	for {
		select {
		case <-q.ctx.Done():
			return
		case task, ok := <-q.tasks:
			if !ok {
				return
			}
			q.run(id, task)
		}
	}
}

func (q *AsyncQueue) run(id int, task AsyncTask) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("panic in async hook",
				zap.Int("worker", id),
				zap.String("task", task.Name),
				zap.Any("panic", r))
		}
	}()

	if err := task.Fn(q.ctx); err != nil {
		q.logger.Warn("async hook failed",
			zap.Int("worker", id),
			zap.String("task", task.Name),
			zap.Error(err))
	}
}

// Enqueue adds a task
func (q *AsyncQueue) Enqueue(task AsyncTask) error {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return ErrQueueNotStarted
	}
	if q.shutdown {
		q.mu.Unlock()
		return ErrQueueShutdown
	}
	q.mu.Unlock()

	select {
	case q.tasks <- task:
		return nil
	case <-q.ctx.Done():
		return ErrQueueShutdown
	}
}

// Shutdown stops accepting tasks and waits for queued ones to finish
func (q *AsyncQueue) Shutdown() {
	q.mu.Lock()
	if !q.started || q.shutdown {
		q.mu.Unlock()
		return
	}
	q.shutdown = true
	q.mu.Unlock()

	close(q.tasks)
	q.wg.Wait()
}
