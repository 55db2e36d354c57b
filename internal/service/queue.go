package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog/log"

	"github.com/GabrielCardoz0/evolution-directus-bridge/internal/domain"
)

// ErrDrainTimeout is returned by Close when tasks are still running at the deadline
var ErrDrainTimeout = errors.New("event queue: drain timeout")

// EventQueue runs dispatches in the background, detached from the webhook
// request that delivered them
type EventQueue struct {
	dispatcher *Dispatcher
	pool       *ants.Pool
	wg         sync.WaitGroup
}

// NewEventQueue creates a queue backed by a pool of workers goroutines
func NewEventQueue(dispatcher *Dispatcher, workers int) (*EventQueue, error) {
	pool, err := ants.NewPool(workers, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}
	return &EventQueue{dispatcher: dispatcher, pool: pool}, nil
}

// Enqueue schedules ev for processing and returns immediately. A saturated
// pool does not drop the event: it gets a dedicated goroutine instead.
func (q *EventQueue) Enqueue(ev domain.WebhookEvent) {
	q.wg.Add(1)
	task := func() {
		defer q.wg.Done()
		q.dispatcher.Dispatch(context.Background(), ev)
	}

	if err := q.pool.Submit(task); err != nil {
		log.Warn().
			Err(err).
			Str("event", ev.Event).
			Str("instance", ev.Instance).
			Int("running", q.pool.Running()).
			Msg("Event pool unavailable, dispatching on a dedicated goroutine")
		go task()
	}
}

// Close waits up to timeout for queued events, then releases the pool
func (q *EventQueue) Close(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-time.After(timeout):
		err = ErrDrainTimeout
	}

	q.pool.Release()
	return err
}
