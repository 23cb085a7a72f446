package bot

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

type job func(ctx context.Context)

// dispatcher runs jobs on a fixed set of workers. Jobs for the same chat always land on
// the same worker, so one chat is handled strictly in arrival order while different
// chats proceed in parallel.
type dispatcher struct {
	mu     sync.RWMutex
	queues []chan job
	closed bool
	wg     sync.WaitGroup
	logger *zap.Logger
}

func newDispatcher(workers, buffer int, logger *zap.Logger) *dispatcher {
	if workers < 1 {
		workers = 1
	}
	queues := make([]chan job, workers)
	for i := range queues {
		queues[i] = make(chan job, buffer)
	}
	return &dispatcher{queues: queues, logger: logger}
}

func (d *dispatcher) start(ctx context.Context) {
	for i, queue := range d.queues {
		d.wg.Add(1)
		go d.work(ctx, i, queue)
	}
}

func (d *dispatcher) work(ctx context.Context, worker int, queue <-chan job) {
	defer d.wg.Done()
	for j := range queue {
		d.run(ctx, worker, j)
	}
}

func (d *dispatcher) run(ctx context.Context, worker int, j job) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Handler panicked",
				zap.Int("worker", worker),
				zap.Any("panic", r),
				zap.Stack("stack"))
		}
	}()
	j(ctx)
}

// submit queues j behind earlier jobs of the same chat. It reports false once the
// dispatcher is stopped.
func (d *dispatcher) submit(chatID int64, j job) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return false
	}
	d.queues[uint64(chatID)%uint64(len(d.queues))] <- j
	return true
}

// stop lets queued jobs finish and waits for the workers.
func (d *dispatcher) stop() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		for _, queue := range d.queues {
			close(queue)
		}
	}
	d.mu.Unlock()
	d.wg.Wait()
}
