package service

import (
	"context"

	"github.com/veriperu/dniverify/internal/domain"
)

type BatchCreator interface {
	CreateBatch(ctx context.Context, fileName string, dnis []string) (*domain.Batch, error)
}

type RecordCounter interface {
	CountsByStatus(ctx context.Context) (map[domain.Status]int, error)
	TotalCount(ctx context.Context) (int, error)
	HasActiveWork(ctx context.Context) (bool, error)
	CountRetryable(ctx context.Context) (int, error)
}

type RecordLister interface {
	ListRecords(ctx context.Context, filter domain.RecordFilter, limit, offset uint64) ([]*domain.Record, error)
	CountRecords(ctx context.Context, filter domain.RecordFilter) (int, error)
}

type BatchLister interface {
	ListBatches(ctx context.Context) ([]*domain.Batch, error)
}

type FailedRetrier interface {
	HasActiveWork(ctx context.Context) (bool, error)
	RetryFailed(ctx context.Context) (int64, error)
	ListRecords(ctx context.Context, filter domain.RecordFilter, limit, offset uint64) ([]*domain.Record, error)
}

type StuckRecoverer interface {
	RecoverStuck(ctx context.Context) (int64, []*domain.Record, error)
}

type Purger interface {
	PurgeAll(ctx context.Context) (records, batches int64, err error)
}

type Enqueuer interface {
	Enqueue(ctx context.Context, queueName, value string) error
	EnqueueBulk(ctx context.Context, queueName string, values []string) error
}

type SignalPublisher interface {
	PublishSignal(ctx context.Context, channel, message string) error
}
