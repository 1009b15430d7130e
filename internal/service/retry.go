package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/veriperu/dniverify/internal/domain"
	"github.com/veriperu/dniverify/internal/queue"
)

// ErrPipelineActive is returned when a retry is requested while records are
// still moving through the pipeline.
var ErrPipelineActive = errors.New("pipeline has active records, retry refused")

// requeueLimit caps a single re-enqueue pass. Retried batches larger than
// this are not expected in practice.
const requeueLimit = 50000

type RetryService struct {
	log     *slog.Logger
	records FailedRetrier
	queue   Enqueuer
}

func NewRetryService(log *slog.Logger, records FailedRetrier, enqueuer Enqueuer) *RetryService {
	return &RetryService{
		log:     log,
		records: records,
		queue:   enqueuer,
	}
}

// Retry resets every not-found and failed record back to pending and feeds
// them through the university queue again. Payloads from earlier passes are
// kept; only the error message is cleared. Refused while the pipeline has
// active records, otherwise retried rows would interleave with in-flight ones.
func (s *RetryService) Retry(ctx context.Context) (int64, error) {
	active, err := s.records.HasActiveWork(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to check for active records: %w", err)
	}
	if active {
		return 0, ErrPipelineActive
	}

	reset, err := s.records.RetryFailed(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to reset records: %w", err)
	}
	if reset == 0 {
		return 0, nil
	}

	pending := domain.StatusPending
	records, err := s.records.ListRecords(ctx, domain.RecordFilter{Status: &pending}, requeueLimit, 0)
	if err != nil {
		return 0, fmt.Errorf("failed to list reset records: %w", err)
	}

	items := make([]string, 0, len(records))
	for _, rec := range records {
		items = append(items, queue.EncodeItem(rec.BatchID, rec.DNI))
	}

	if err := s.queue.EnqueueBulk(ctx, queue.UniversityQueue, items); err != nil {
		return 0, fmt.Errorf("failed to enqueue reset records: %w", err)
	}

	s.log.InfoContext(ctx, "failed records queued for retry", slog.Int64("count", reset))

	return reset, nil
}
