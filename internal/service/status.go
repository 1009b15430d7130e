package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/veriperu/dniverify/internal/domain"
	"github.com/veriperu/dniverify/internal/queue"
)

type StatusService struct {
	log     *slog.Logger
	records RecordCounter
	queue   QueueInspector
}

type QueueInspector interface {
	Len(ctx context.Context, queueName string) (int64, error)
}

func NewStatusService(log *slog.Logger, records RecordCounter, inspector QueueInspector) *StatusService {
	return &StatusService{
		log:     log,
		records: records,
		queue:   inspector,
	}
}

type StatusReport struct {
	Total           int                   `json:"total"`
	Completed       int                   `json:"completed"`
	InProgress      int                   `json:"in_progress"`
	ProgressPercent float64               `json:"progress_percent"`
	Statuses        map[domain.Status]int `json:"statuses"`
	University      StageReport           `json:"university"`
	Institute       StageReport           `json:"institute"`
	Retry           RetryInfo             `json:"retry"`
}

// StageReport breaks pipeline counts down from one stage's point of view.
// Errors carries the full failed count on both stages: a failed record
// does not remember which stage it failed in.
type StageReport struct {
	Pending       int `json:"pending"`
	Processing    int `json:"processing"`
	Found         int `json:"found"`
	DerivedToNext int `json:"derived_to_next"`
	NotFound      int `json:"not_found"`
	Errors        int `json:"errors"`
}

type RetryInfo struct {
	Retryable    int  `json:"retryable"`
	PipelineIdle bool `json:"pipeline_idle"`
	CanRetry     bool `json:"can_retry"`
}

// Report aggregates record counts into a pipeline-wide progress view.
// Completed covers every terminal status, so progress reaches 100% even
// when some records ended up not found or failed.
func (s *StatusService) Report(ctx context.Context) (*StatusReport, error) {
	counts, err := s.records.CountsByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count records by status: %w", err)
	}

	report := &StatusReport{Statuses: counts}
	for status, n := range counts {
		report.Total += n
		if status.IsTerminal() {
			report.Completed += n
		}
	}

	// In progress means a worker holds the record right now. Pending
	// records are waiting, not in progress.
	report.InProgress = counts[domain.StatusCheckingUniversity] + counts[domain.StatusCheckingInstitute]

	if report.Total > 0 {
		pct := float64(report.Completed) / float64(report.Total) * 100
		report.ProgressPercent = math.Round(pct*10) / 10
	}

	report.University = StageReport{
		Pending:       counts[domain.StatusPending],
		Processing:    counts[domain.StatusCheckingUniversity],
		Found:         counts[domain.StatusFoundUniversity],
		DerivedToNext: counts[domain.StatusCheckingInstitute],
		Errors:        counts[domain.StatusFailed],
	}
	report.Institute = StageReport{
		Pending:    counts[domain.StatusCheckingInstitute],
		Processing: counts[domain.StatusCheckingInstitute],
		Found:      counts[domain.StatusFoundInstitute],
		NotFound:   counts[domain.StatusNotFound],
		Errors:     counts[domain.StatusFailed],
	}

	retryable := counts[domain.StatusNotFound] + counts[domain.StatusFailed]
	active := counts[domain.StatusPending] + report.InProgress
	idle := active == 0 && report.Total > 0
	report.Retry = RetryInfo{
		Retryable:    retryable,
		PipelineIdle: idle,
		CanRetry:     idle && retryable > 0,
	}

	return report, nil
}

type QueueReport struct {
	University int64 `json:"university"`
	Institute  int64 `json:"institute"`
}

// Queues reports the current depth of both work queues.
func (s *StatusService) Queues(ctx context.Context) (*QueueReport, error) {
	university, err := s.queue.Len(ctx, queue.UniversityQueue)
	if err != nil {
		return nil, fmt.Errorf("failed to measure university queue: %w", err)
	}

	institute, err := s.queue.Len(ctx, queue.InstituteQueue)
	if err != nil {
		return nil, fmt.Errorf("failed to measure institute queue: %w", err)
	}

	return &QueueReport{University: university, Institute: institute}, nil
}
