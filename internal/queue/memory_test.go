package queue_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veriperu/dniverify/internal/queue"
)

func TestMemory_FIFO(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := queue.NewMemory()

	require.NoError(t, m.Enqueue(ctx, "q", "a"))
	require.NoError(t, m.EnqueueBulk(ctx, "q", []string{"b", "c"}))

	n, err := m.Len(ctx, "q")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	for _, want := range []string{"a", "b", "c"} {
		value, ok, err := m.Dequeue(ctx, "q", time.Second)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, want, value)
	}
}

func TestMemory_DequeueTimeout(t *testing.T) {
	t.Parallel()

	m := queue.NewMemory()

	start := time.Now()
	_, ok, err := m.Dequeue(context.Background(), "empty", 20*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestMemory_DequeueContextCanceled(t *testing.T) {
	t.Parallel()

	m := queue.NewMemory()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok, err := m.Dequeue(ctx, "empty", time.Second)
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, ok)
}

func TestMemory_DequeueWakesOnEnqueue(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := queue.NewMemory()

	type result struct {
		value string
		ok    bool
		err   error
	}

	results := make(chan result, 2)
	for range 2 {
		go func() {
			value, ok, err := m.Dequeue(ctx, "q", time.Second)
			results <- result{value, ok, err}
		}()
	}

	// Both dequeuers are blocked; one enqueue wakes them all, one item
	// wins, the other times out on its own budget.
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, m.Enqueue(ctx, "q", "only"))

	select {
	case r := <-results:
		require.NoError(t, r.err)
		require.True(t, r.ok)
		assert.Equal(t, "only", r.value)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timeout: no dequeuer woke up")
	}
}

func TestMemory_SignalFanOut(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := queue.NewMemory()

	var mu sync.Mutex
	var first, second []string

	require.NoError(t, m.SubscribeSignal(ctx, queue.SignalChannel, func(message string) {
		mu.Lock()
		defer mu.Unlock()
		first = append(first, message)
	}))
	require.NoError(t, m.SubscribeSignal(ctx, queue.SignalChannel, func(message string) {
		mu.Lock()
		defer mu.Unlock()
		second = append(second, message)
	}))

	require.NoError(t, m.PublishSignal(ctx, queue.SignalChannel, queue.SignalPause))
	require.NoError(t, m.PublishSignal(ctx, queue.SignalChannel, queue.SignalResume))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{queue.SignalPause, queue.SignalResume}, first)
	assert.Equal(t, []string{queue.SignalPause, queue.SignalResume}, second)
}

func TestMemory_Unsubscribe(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := queue.NewMemory()

	var mu sync.Mutex
	var got []string

	require.NoError(t, m.SubscribeSignal(ctx, queue.SignalChannel, func(message string) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, message)
	}))
	require.NoError(t, m.Unsubscribe(ctx, queue.SignalChannel))

	require.NoError(t, m.PublishSignal(ctx, queue.SignalChannel, queue.SignalStop))

	mu.Lock()
	defer mu.Unlock()
	assert.Empty(t, got)
}

func TestMemory_PublishWithoutSubscribers(t *testing.T) {
	t.Parallel()

	m := queue.NewMemory()
	require.NoError(t, m.PublishSignal(context.Background(), queue.SignalChannel, queue.SignalStop))
}
