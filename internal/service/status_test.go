package service_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veriperu/dniverify/internal/domain"
	"github.com/veriperu/dniverify/internal/queue"
	"github.com/veriperu/dniverify/internal/service"
)

func TestStatus_Report(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.DiscardHandler)
	store := &fakeRecordStore{counts: map[domain.Status]int{
		domain.StatusPending:            2,
		domain.StatusCheckingUniversity: 1,
		domain.StatusFoundUniversity:    3,
		domain.StatusCheckingInstitute:  1,
		domain.StatusFoundInstitute:     1,
		domain.StatusNotFound:           1,
		domain.StatusFailed:             1,
	}}

	svc := service.NewStatusService(log, store, newFakeQueue())

	report, err := svc.Report(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 10, report.Total)
	assert.Equal(t, 6, report.Completed)
	assert.Equal(t, 2, report.InProgress, "only records held by a worker count as in progress")
	assert.InDelta(t, 60.0, report.ProgressPercent, 0.001)

	assert.Equal(t, service.StageReport{
		Pending:       2,
		Processing:    1,
		Found:         3,
		DerivedToNext: 1,
		Errors:        1,
	}, report.University)
	assert.Equal(t, service.StageReport{
		Pending:    1,
		Processing: 1,
		Found:      1,
		NotFound:   1,
		Errors:     1,
	}, report.Institute)

	assert.Equal(t, 2, report.Retry.Retryable)
	assert.False(t, report.Retry.PipelineIdle)
	assert.False(t, report.Retry.CanRetry, "retry must wait for an idle pipeline")
}

func TestStatus_Report_PendingIsNotInProgress(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.DiscardHandler)
	store := &fakeRecordStore{counts: map[domain.Status]int{
		domain.StatusPending:            5,
		domain.StatusCheckingUniversity: 1,
		domain.StatusCheckingInstitute:  2,
	}}

	svc := service.NewStatusService(log, store, newFakeQueue())

	report, err := svc.Report(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, report.InProgress)
	assert.False(t, report.Retry.PipelineIdle, "pending work keeps the pipeline active")
}

func TestStatus_Report_ProgressRounding(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.DiscardHandler)
	store := &fakeRecordStore{counts: map[domain.Status]int{
		domain.StatusFoundUniversity: 1,
		domain.StatusPending:         2,
	}}

	svc := service.NewStatusService(log, store, newFakeQueue())

	report, err := svc.Report(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, 33.3, report.ProgressPercent, 0.001)
}

func TestStatus_Report_IdleWithRetryable(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.DiscardHandler)
	store := &fakeRecordStore{counts: map[domain.Status]int{
		domain.StatusFoundInstitute: 4,
		domain.StatusNotFound:       2,
		domain.StatusFailed:         1,
	}}

	svc := service.NewStatusService(log, store, newFakeQueue())

	report, err := svc.Report(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 7, report.Total)
	assert.Equal(t, 7, report.Completed)
	assert.InDelta(t, 100.0, report.ProgressPercent, 0.001)
	assert.True(t, report.Retry.PipelineIdle)
	assert.Equal(t, 3, report.Retry.Retryable)
	assert.True(t, report.Retry.CanRetry)
}

func TestStatus_Report_Empty(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.DiscardHandler)
	store := &fakeRecordStore{counts: map[domain.Status]int{}}

	svc := service.NewStatusService(log, store, newFakeQueue())

	report, err := svc.Report(context.Background())
	require.NoError(t, err)

	assert.Zero(t, report.Total)
	assert.Zero(t, report.ProgressPercent)
	assert.False(t, report.Retry.PipelineIdle, "an empty store is not an idle pipeline")
	assert.False(t, report.Retry.CanRetry)
}

func TestStatus_Queues(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.DiscardHandler)
	q := newFakeQueue()
	require.NoError(t, q.EnqueueBulk(context.Background(), queue.UniversityQueue, []string{"1:a", "1:b"}))
	require.NoError(t, q.Enqueue(context.Background(), queue.InstituteQueue, "1:c"))

	svc := service.NewStatusService(log, &fakeRecordStore{}, q)

	report, err := svc.Queues(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(2), report.University)
	assert.Equal(t, int64(1), report.Institute)
}
