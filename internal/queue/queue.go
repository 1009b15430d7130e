package queue

import (
	"context"
	"time"
)

// Queue names and the control channel. One queue per pipeline stage; the
// channel is broadcast-only and carries the worker control signals.
const (
	UniversityQueue = "queue:university"
	InstituteQueue  = "queue:institute"
	SignalChannel   = "signal:system"
)

const (
	SignalPause  = "PAUSE"
	SignalResume = "RESUME"
	SignalStop   = "STOP"
)

// Handler is invoked for every signal delivered after subscription. Late
// subscribers miss earlier signals; the record store, not signal history,
// is the durable source of truth.
type Handler func(message string)

// Queue is the work-queue and control-signal contract. Two backends satisfy
// it: the in-process one for single-instance deployments and the Redis one
// for multi-instance deployments. The orchestrator does not care which is
// active.
type Queue interface {
	Enqueue(ctx context.Context, queueName, value string) error
	EnqueueBulk(ctx context.Context, queueName string, values []string) error
	// Dequeue blocks up to timeout. It returns ok=false on an empty queue,
	// which is a normal outcome, and an error only on transport failure.
	Dequeue(ctx context.Context, queueName string, timeout time.Duration) (value string, ok bool, err error)
	Len(ctx context.Context, queueName string) (int64, error)
	PublishSignal(ctx context.Context, channel, message string) error
	SubscribeSignal(ctx context.Context, channel string, handler Handler) error
	Unsubscribe(ctx context.Context, channel string) error
	Close() error
}
