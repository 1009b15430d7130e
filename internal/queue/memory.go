package queue

import (
	"context"
	"sync"
	"time"
)

// Memory is the in-process Queue backend. Queues are unbounded FIFO slices;
// signal delivery is a synchronous fan-out to every registered handler.
type Memory struct {
	mu       sync.Mutex
	queues   map[string]*memQueue
	handlers map[string][]Handler
}

type memQueue struct {
	items []string
	// wake is closed and replaced on every enqueue so all blocked
	// dequeuers re-check the queue.
	wake chan struct{}
}

func NewMemory() *Memory {
	return &Memory{
		queues:   make(map[string]*memQueue),
		handlers: make(map[string][]Handler),
	}
}

func (m *Memory) getOrCreate(name string) *memQueue {
	q, ok := m.queues[name]
	if !ok {
		q = &memQueue{wake: make(chan struct{})}
		m.queues[name] = q
	}
	return q
}

func (m *Memory) Enqueue(_ context.Context, queueName, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	q := m.getOrCreate(queueName)
	q.items = append(q.items, value)
	close(q.wake)
	q.wake = make(chan struct{})

	return nil
}

func (m *Memory) EnqueueBulk(_ context.Context, queueName string, values []string) error {
	if len(values) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	q := m.getOrCreate(queueName)
	q.items = append(q.items, values...)
	close(q.wake)
	q.wake = make(chan struct{})

	return nil
}

func (m *Memory) Dequeue(ctx context.Context, queueName string, timeout time.Duration) (string, bool, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		m.mu.Lock()
		q := m.getOrCreate(queueName)
		if len(q.items) > 0 {
			value := q.items[0]
			q.items = q.items[1:]
			m.mu.Unlock()
			return value, true, nil
		}
		wake := q.wake
		m.mu.Unlock()

		select {
		case <-wake:
		case <-timer.C:
			return "", false, nil
		case <-ctx.Done():
			return "", false, ctx.Err()
		}
	}
}

func (m *Memory) Len(_ context.Context, queueName string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	q, ok := m.queues[queueName]
	if !ok {
		return 0, nil
	}
	return int64(len(q.items)), nil
}

func (m *Memory) PublishSignal(_ context.Context, channel, message string) error {
	m.mu.Lock()
	handlers := make([]Handler, len(m.handlers[channel]))
	copy(handlers, m.handlers[channel])
	m.mu.Unlock()

	// Publishing to zero subscribers is not an error.
	for _, h := range handlers {
		h(message)
	}

	return nil
}

func (m *Memory) SubscribeSignal(_ context.Context, channel string, handler Handler) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.handlers[channel] = append(m.handlers[channel], handler)

	return nil
}

func (m *Memory) Unsubscribe(_ context.Context, channel string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.handlers, channel)

	return nil
}

func (m *Memory) Close() error {
	return nil
}
