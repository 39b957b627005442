package entrance

import (
	"context"
	"sync"

	"github.com/tessro/entrance/internal/metrics"
)

// Queue is an unbounded FIFO of requests. Any number of goroutines may
// Enqueue; exactly one should call Next.
type Queue struct {
	mu      sync.Mutex
	items   []Request
	ready   chan struct{}
	metrics *metrics.Metrics
}

// NewQueue creates an empty queue. m may be nil.
func NewQueue(m *metrics.Metrics) *Queue {
	return &Queue{
		ready:   make(chan struct{}, 1),
		metrics: m,
	}
}

// Enqueue appends req. It never blocks.
func (q *Queue) Enqueue(req Request) {
	q.mu.Lock()
	q.items = append(q.items, req)
	n := len(q.items)
	q.mu.Unlock()

	q.metrics.QueueDepth(n)

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Next removes and returns the oldest request, blocking while the queue is
// empty. It returns ctx.Err() once ctx is done.
func (q *Queue) Next(ctx context.Context) (Request, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			req := q.items[0]
			q.items[0] = Request{}
			q.items = q.items[1:]
			n := len(q.items)
			q.mu.Unlock()
			q.metrics.QueueDepth(n)
			return req, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return Request{}, ctx.Err()
		case <-q.ready:
		}
	}
}

// Len returns the number of waiting requests.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
