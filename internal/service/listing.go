package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/veriperu/dniverify/internal/domain"
)

type ListingService struct {
	log     *slog.Logger
	records RecordLister
	batches BatchLister
}

func NewListingService(log *slog.Logger, records RecordLister, batches BatchLister) *ListingService {
	return &ListingService{
		log:     log,
		records: records,
		batches: batches,
	}
}

func (s *ListingService) Records(ctx context.Context, filter domain.RecordFilter, page, limit uint64) ([]*domain.Record, int, error) {
	offset := (page - 1) * limit

	records, err := s.records.ListRecords(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list records: %w", err)
	}

	total, err := s.records.CountRecords(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count records: %w", err)
	}

	return records, total, nil
}

func (s *ListingService) Batches(ctx context.Context) ([]*domain.Batch, error) {
	batches, err := s.batches.ListBatches(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}

	return batches, nil
}
