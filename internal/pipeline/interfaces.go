package pipeline

import (
	"context"
	"time"

	"github.com/veriperu/dniverify/internal/domain"
	"github.com/veriperu/dniverify/internal/queue"
)

type RecordStore interface {
	ClaimNext(ctx context.Context, from, to domain.Status) (*domain.Record, error)
	ClaimRecord(ctx context.Context, batchID int64, dni string, from, to domain.Status) (*domain.Record, error)
	UpdateStatus(ctx context.Context, id int64, status domain.Status, upd domain.RecordUpdate) error
}

type WorkQueue interface {
	Dequeue(ctx context.Context, queueName string, timeout time.Duration) (string, bool, error)
	Enqueue(ctx context.Context, queueName, value string) error
	SubscribeSignal(ctx context.Context, channel string, handler queue.Handler) error
}
