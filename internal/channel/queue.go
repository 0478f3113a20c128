package channel

import (
	"sync"

	"github.com/danmuck/xhrcomm/internal/protocol"
)

// TaskQueue buffers outbound tasks until the next exchange drains them.
type TaskQueue struct {
	mu      sync.Mutex
	pending []protocol.Event
}

func NewTaskQueue() *TaskQueue {
	return &TaskQueue{}
}

func (q *TaskQueue) Push(task protocol.Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, task)
}

// Drain swaps the pending batch for an empty one and returns it. Pushes that
// race with a drain land in the next batch.
func (q *TaskQueue) Drain() []protocol.Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.pending
	q.pending = nil
	return out
}

func (q *TaskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
