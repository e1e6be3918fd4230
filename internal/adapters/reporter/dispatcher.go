package reporter

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// Sender delivers one serialized record
type Sender interface {
	Send(ctx context.Context, id string, payload []byte) error
}

// Stats counts report outcomes since the dispatcher started
type Stats struct {
	Sent    int64
	Failed  int64
	Dropped int64
}

type job struct {
	ctx     context.Context
	id      string
	payload []byte
}

// Dispatcher is a fire-and-forget Reporter backed by a bounded queue and worker pool.
// Report never blocks: when the queue is full the record is dropped and logged.
type Dispatcher struct {
	sender  Sender
	logger  *zap.Logger
	timeout time.Duration
	queue   chan job
	workers *pool.Pool
	done    chan struct{}

	mu     sync.RWMutex
	closed bool

	sent    atomic.Int64
	failed  atomic.Int64
	dropped atomic.Int64
}

// NewDispatcher creates a dispatcher and starts feeding its worker pool
func NewDispatcher(sender Sender, logger *zap.Logger, workers, queueSize int, timeout time.Duration) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	// Report never blocks, so the queue must hold at least one job
	if queueSize < 1 {
		queueSize = 1
	}

	d := &Dispatcher{
		sender:  sender,
		logger:  logger,
		timeout: timeout,
		queue:   make(chan job, queueSize),
		workers: pool.New().WithMaxGoroutines(workers),
		done:    make(chan struct{}),
	}

	go d.dispatch()

	return d
}

// Report queues payload for delivery. The caller's cancellation is not
// propagated; each delivery gets its own timeout instead.
func (d *Dispatcher) Report(ctx context.Context, payload []byte) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	id := uuid.NewString()
	if d.closed {
		d.dropped.Add(1)
		d.logger.Warn("Reporter closed, dropping report", zap.String("report_id", id))
		return
	}

	select {
	case d.queue <- job{ctx: context.WithoutCancel(ctx), id: id, payload: payload}:
		d.logger.Debug("Report queued", zap.String("report_id", id))
	default:
		d.dropped.Add(1)
		d.logger.Warn("Report queue full, dropping report",
			zap.String("report_id", id),
			zap.Int("queue_size", cap(d.queue)))
	}
}

// dispatch hands queued jobs to the pool until the queue is closed
func (d *Dispatcher) dispatch() {
	defer close(d.done)

	for j := range d.queue {
		j := j
		d.workers.Go(func() {
			d.deliver(j)
		})
	}
	d.workers.Wait()
}

// deliver sends one report; every failure ends here
func (d *Dispatcher) deliver(j job) {
	defer func() {
		if r := recover(); r != nil {
			d.failed.Add(1)
			d.logger.Error("Report sender panicked",
				zap.String("report_id", j.id),
				zap.String("panic", fmt.Sprint(r)))
		}
	}()

	ctx := j.ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	start := time.Now()
	if err := d.sender.Send(ctx, j.id, j.payload); err != nil {
		d.failed.Add(1)
		d.logger.Error("Failed to send report",
			zap.String("report_id", j.id),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return
	}

	d.sent.Add(1)
	d.logger.Debug("Report sent",
		zap.String("report_id", j.id),
		zap.Duration("elapsed", time.Since(start)))
}

// Stats returns the current outcome counters
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Sent:    d.sent.Load(),
		Failed:  d.failed.Load(),
		Dropped: d.dropped.Load(),
	}
}

// Close stops accepting reports and waits for queued and in-flight ones
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	<-d.done

	stats := d.Stats()
	d.logger.Info("Reporter stopped",
		zap.Int64("sent", stats.Sent),
		zap.Int64("failed", stats.Failed),
		zap.Int64("dropped", stats.Dropped))
	return nil
}
