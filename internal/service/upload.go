package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/veriperu/dniverify/internal/queue"
)

// ErrNoValidDNIs is returned when an upload contains no acceptable values.
// The rejected list in the result still reports what was refused.
var ErrNoValidDNIs = errors.New("no valid DNIs in upload")

type UploadService struct {
	log          *slog.Logger
	batches      BatchCreator
	queue        Enqueuer
	minDNILength int
}

func NewUploadService(log *slog.Logger, batches BatchCreator, enqueuer Enqueuer, minDNILength int) *UploadService {
	return &UploadService{
		log:          log,
		batches:      batches,
		queue:        enqueuer,
		minDNILength: minDNILength,
	}
}

type UploadResult struct {
	BatchID  int64    `json:"batch_id"`
	FileName string   `json:"file_name"`
	Accepted int      `json:"accepted"`
	Rejected []string `json:"rejected"`
}

// Upload validates and deduplicates the raw values, creates the batch with
// its pending records, and enqueues every accepted DNI onto the university
// queue. Rejected values are reported verbatim, never silently dropped.
func (s *UploadService) Upload(ctx context.Context, fileName string, rawDNIs []string) (*UploadResult, error) {
	accepted, rejected := s.validate(rawDNIs)

	result := &UploadResult{
		FileName: fileName,
		Accepted: len(accepted),
		Rejected: rejected,
	}

	if len(accepted) == 0 {
		return result, ErrNoValidDNIs
	}

	batch, err := s.batches.CreateBatch(ctx, fileName, accepted)
	if err != nil {
		return nil, fmt.Errorf("failed to create batch: %w", err)
	}
	result.BatchID = batch.ID

	items := make([]string, 0, len(accepted))
	for _, dni := range accepted {
		items = append(items, queue.EncodeItem(batch.ID, dni))
	}

	if err := s.queue.EnqueueBulk(ctx, queue.UniversityQueue, items); err != nil {
		return nil, fmt.Errorf("failed to enqueue batch: %w", err)
	}

	s.log.InfoContext(ctx, "batch uploaded",
		slog.Int64("batch_id", batch.ID),
		slog.String("file_name", fileName),
		slog.Int("accepted", len(accepted)),
		slog.Int("rejected", len(rejected)),
	)

	return result, nil
}

// validate trims every line, drops blanks, rejects values that are not all
// digits or are shorter than the minimum, and deduplicates the remainder
// preserving order.
func (s *UploadService) validate(rawDNIs []string) (accepted, rejected []string) {
	seen := make(map[string]struct{}, len(rawDNIs))
	rejected = make([]string, 0)

	for _, raw := range rawDNIs {
		dni := strings.TrimSpace(raw)
		if dni == "" {
			continue
		}

		if !isValidDNI(dni, s.minDNILength) {
			rejected = append(rejected, raw)
			continue
		}

		if _, ok := seen[dni]; ok {
			continue
		}
		seen[dni] = struct{}{}
		accepted = append(accepted, dni)
	}

	return accepted, rejected
}

func isValidDNI(dni string, minLength int) bool {
	if len(dni) < minLength {
		return false
	}

	for _, r := range dni {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}
