package streaming

import (
	"context"
	"sync"
	"time"

	"github.com/oreeke/twipsybot/internal/logger"
	"github.com/oreeke/twipsybot/internal/model"
)

// queueItem is one normalized event awaiting a dispatch worker. A nil
// *queueItem on the queue is the worker stop sentinel.
type queueItem struct {
	channel  *model.Channel
	wireType string
	payload  map[string]any
	id       string
}

// dispatcher feeds a fixed worker pool from one bounded queue. Enqueue
// blocks at most enqueueTimeout; on timeout the event is dropped so the
// receive loop never stalls behind slow handlers.
type dispatcher struct {
	queue          chan *queueItem
	workers        int
	enqueueTimeout time.Duration
	process        func(ctx context.Context, item *queueItem)
	log            *logger.Logger

	mu      sync.Mutex
	started bool
	wg      sync.WaitGroup
}

func newDispatcher(workers, capacity int, enqueueTimeout time.Duration, process func(ctx context.Context, item *queueItem), log *logger.Logger) *dispatcher {
	return &dispatcher{
		queue:          make(chan *queueItem, capacity),
		workers:        workers,
		enqueueTimeout: enqueueTimeout,
		process:        process,
		log:            log,
	}
}

// start launches the worker pool. It is lazy and idempotent; the worker
// count is fixed for the dispatcher's lifetime.
func (d *dispatcher) start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.started = true

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.workerLoop(ctx)
	}
}

// stop shuts the pool down cooperatively: the queue is drained, one
// sentinel is pushed per worker, and all workers are awaited so in-flight
// handler calls finish.
func (d *dispatcher) stop() {
	d.mu.Lock()
	if !d.started {
		d.mu.Unlock()
		return
	}
	d.started = false
	d.mu.Unlock()

	for {
		select {
		case <-d.queue:
		default:
			goto drained
		}
	}
drained:
	for i := 0; i < d.workers; i++ {
		d.queue <- nil
	}
	d.wg.Wait()
}

// enqueue offers an item to the queue, giving up after the configured
// timeout. Dropped events are logged with a warning.
func (d *dispatcher) enqueue(ctx context.Context, item *queueItem) {
	select {
	case d.queue <- item:
		return
	default:
	}

	timer := time.NewTimer(d.enqueueTimeout)
	defer timer.Stop()

	select {
	case d.queue <- item:
	case <-timer.C:
		d.log.Warn("Event queue congested, dropping event",
			"type", item.wireType, "id", item.id, "channel", item.channel.Name)
	case <-ctx.Done():
		d.log.Warn("Dispatch cancelled, dropping event",
			"type", item.wireType, "id", item.id, "channel", item.channel.Name)
	}
}

func (d *dispatcher) workerLoop(ctx context.Context) {
	defer d.wg.Done()
	for item := range d.queue {
		if item == nil {
			return
		}
		d.process(ctx, item)
	}
}
