package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/veriperu/dniverify/internal/queue"
)

type PurgeService struct {
	log         *slog.Logger
	records     Purger
	signals     SignalPublisher
	gracePeriod time.Duration
}

func NewPurgeService(log *slog.Logger, records Purger, signals SignalPublisher, gracePeriod time.Duration) *PurgeService {
	return &PurgeService{
		log:         log,
		records:     records,
		signals:     signals,
		gracePeriod: gracePeriod,
	}
}

type PurgeResult struct {
	Records int64 `json:"records"`
	Batches int64 `json:"batches"`
}

// Purge stops the workers, waits out the grace period so in-flight lookups
// settle, and deletes every record and batch. Queue leftovers are not
// drained; once their rows are gone a claim on them simply finds nothing.
func (s *PurgeService) Purge(ctx context.Context) (*PurgeResult, error) {
	if err := s.signals.PublishSignal(ctx, queue.SignalChannel, queue.SignalStop); err != nil {
		return nil, fmt.Errorf("failed to publish stop signal: %w", err)
	}

	timer := time.NewTimer(s.gracePeriod)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	records, batches, err := s.records.PurgeAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to purge records: %w", err)
	}

	s.log.InfoContext(ctx, "all data purged",
		slog.Int64("records", records),
		slog.Int64("batches", batches),
	)

	return &PurgeResult{Records: records, Batches: batches}, nil
}
