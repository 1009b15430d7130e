package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/veriperu/dniverify/internal/queue"
)

type RecoverService struct {
	log     *slog.Logger
	records StuckRecoverer
	queue   Enqueuer
}

func NewRecoverService(log *slog.Logger, records StuckRecoverer, enqueuer Enqueuer) *RecoverService {
	return &RecoverService{
		log:     log,
		records: records,
		queue:   enqueuer,
	}
}

type RecoverResult struct {
	University int64 `json:"university"`
	Institute  int64 `json:"institute"`
}

// Recover returns records orphaned by a crash to the pipeline. Records stuck
// in the university check are reset to pending and picked up from there; a
// retry pass re-enqueues them. Records stuck in the institute check keep
// their status and are put back on the institute queue directly, so the
// university result they already carry is not lost.
func (s *RecoverService) Recover(ctx context.Context) (*RecoverResult, error) {
	university, stuck, err := s.records.RecoverStuck(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to recover stuck records: %w", err)
	}

	items := make([]string, 0, len(stuck))
	for _, rec := range stuck {
		items = append(items, queue.EncodeItem(rec.BatchID, rec.DNI))
	}

	if len(items) > 0 {
		if err := s.queue.EnqueueBulk(ctx, queue.InstituteQueue, items); err != nil {
			return nil, fmt.Errorf("failed to re-enqueue institute records: %w", err)
		}
	}

	result := &RecoverResult{
		University: university,
		Institute:  int64(len(stuck)),
	}

	if result.University > 0 || result.Institute > 0 {
		s.log.InfoContext(ctx, "stuck records recovered",
			slog.Int64("university", result.University),
			slog.Int64("institute", result.Institute),
		)
	}

	return result, nil
}
