package room

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

type writeJob struct {
	op     string
	roomID string
	fn     func(ctx context.Context, store SessionStore) error
}

// Writer applies durable writes in submission order on its own goroutine.
// Failures are logged and never reach the room.
type Writer struct {
	store   SessionStore
	jobs    chan writeJob
	timeout time.Duration
}

func NewWriter(store SessionStore, queueSize int, timeout time.Duration) *Writer {
	return &Writer{
		store:   store,
		jobs:    make(chan writeJob, queueSize),
		timeout: timeout,
	}
}

// Submit never blocks; a full queue drops the write.
func (w *Writer) Submit(op, roomID string, fn func(ctx context.Context, store SessionStore) error) {
	select {
	case w.jobs <- writeJob{op: op, roomID: roomID, fn: fn}:
	default:
		log.Error().Str("op", op).Str("room_id", roomID).Msg("durable write queue full, write dropped")
	}
}

// Run executes queued writes until ctx is done, then flushes whatever is still queued.
func (w *Writer) Run(ctx context.Context) {
	for {
		select {
		case job := <-w.jobs:
			w.exec(ctx, job)
		case <-ctx.Done():
			w.drain()
			return
		}
	}
}

func (w *Writer) drain() {
	for {
		select {
		case job := <-w.jobs:
			w.exec(context.Background(), job)
		default:
			return
		}
	}
}

func (w *Writer) exec(parent context.Context, job writeJob) {
	ctx, cancel := context.WithTimeout(parent, w.timeout)
	defer cancel()
	if err := job.fn(ctx, w.store); err != nil {
		log.Error().Err(err).Str("op", job.op).Str("room_id", job.roomID).Msg("durable write failed")
	}
}
