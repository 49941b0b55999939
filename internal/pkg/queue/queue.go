package queue

import (
	"errors"
	"sync"
)

// Bounded FIFO of URLs waiting to be checked. The whole batch is enqueued
// before workers start, so an empty queue means the batch is drained.
type Queue struct {
	mu       sync.Mutex
	capacity int
	q        []string
}

// Creates an empty queue with a specified capacity.
func CreateQueue(capacity int) (*Queue, error) {
	if capacity <= 0 {
		return nil, errors.New("capacity should be greater than 0")
	}
	return &Queue{
		capacity: capacity,
		q:        make([]string, 0, capacity),
	}, nil
}

// Inserts a URL into the queue.
func (q *Queue) Insert(url string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.q) < q.capacity {
		q.q = append(q.q, url)
		return nil
	}
	return errors.New("queue is full")
}

// Removes the oldest URL from the queue.
func (q *Queue) Remove() (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.q) > 0 {
		url := q.q[0]
		q.q = q.q[1:]
		return url, nil
	}
	return "", errors.New("queue is empty")
}

// Returns the number of URLs in the queue.
func (q *Queue) Length() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.q)
}
