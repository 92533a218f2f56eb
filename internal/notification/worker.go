package notification

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/roomtin/hyprconnect/internal/metrics"
	"github.com/roomtin/hyprconnect/internal/model"
)

// Sender delivers a reachability transition to one destination.
type Sender interface {
	Name() string
	Notify(ctx context.Context, t model.Transition) error
}

// WorkerPool manages a pool of workers for sending notifications.
type WorkerPool struct {
	size    int
	jobs    chan model.Transition
	senders []Sender
	metrics metrics.Recorder
}

// NewWorkerPool creates a new worker pool. buffer bounds how many
// transitions may wait before Dispatch starts dropping them.
func NewWorkerPool(size, buffer int, rec metrics.Recorder, senders ...Sender) *WorkerPool {
	if size < 1 {
		size = 1
	}
	if buffer < 1 {
		buffer = size
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan model.Transition, buffer),
		senders: senders,
		metrics: rec,
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Debug().Int("worker", id).Msg("notification worker started")
	for {
		select {
		case t := <-wp.jobs:
			wp.deliver(ctx, t)
		case <-ctx.Done():
			log.Debug().Int("worker", id).Msg("notification worker shutting down")
			return
		}
	}
}

// Dispatch queues a transition without blocking. When the queue is full
// the transition is dropped.
func (wp *WorkerPool) Dispatch(t model.Transition) {
	select {
	case wp.jobs <- t:
	default:
		log.Warn().Str("device", t.DeviceID).Str("kind", string(t.Kind)).Msg("notification queue full; dropping")
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan model.Transition {
	return wp.jobs
}

func (wp *WorkerPool) deliver(ctx context.Context, t model.Transition) {
	for _, s := range wp.senders {
		err := s.Notify(ctx, t)
		wp.metrics.IncNotification(s.Name(), err == nil)
		if err != nil {
			log.Warn().Err(err).Str("sender", s.Name()).Str("device", t.DeviceID).Msg("notification failed")
		}
	}
}
