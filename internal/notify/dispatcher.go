package notify

import (
	"context"
	"log/slog"
	"sync"
)

type job struct {
	recipients []string
	msg        Message
}

// Dispatcher decouples fan-out from the request path: business
// operations enqueue and return immediately, worker goroutines deliver
// in the background. Enqueue never blocks; when the queue is full the
// job is dropped and counted.
type Dispatcher struct {
	svc    *Service
	jobs   chan job
	logger *slog.Logger

	startOnce sync.Once
	stopOnce  sync.Once
	workers   int
	wg        sync.WaitGroup
}

// NewDispatcher builds a dispatcher with the given queue size and
// worker count. Call Start before enqueueing.
func NewDispatcher(svc *Service, queueSize, workers int, logger *slog.Logger) *Dispatcher {
	if queueSize < 1 {
		queueSize = 1
	}
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{
		svc:     svc,
		jobs:    make(chan job, queueSize),
		logger:  logger,
		workers: workers,
	}
}

// Start launches the worker goroutines.
func (d *Dispatcher) Start() {
	d.startOnce.Do(func() {
		for i := 0; i < d.workers; i++ {
			d.wg.Add(1)
			go d.work()
		}
	})
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	// Deliveries run detached from any request context: an admission
	// is already committed by the time its fan-out job runs.
	for j := range d.jobs {
		d.svc.Fan(context.Background(), j.recipients, j.msg)
	}
}

// Enqueue submits a fan-out job without blocking the caller.
func (d *Dispatcher) Enqueue(recipients []string, msg Message) {
	if len(recipients) == 0 {
		return
	}
	select {
	case d.jobs <- job{recipients: recipients, msg: msg}:
	default:
		d.svc.metrics.FanoutJobsDropped.Inc()
		d.logger.Warn("fan-out queue full, dropping job",
			"recipients", len(recipients), "type", msg.Type)
	}
}

// Stop drains the queue and waits for in-flight deliveries to finish.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.jobs)
		d.wg.Wait()
	})
}
