package service_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veriperu/dniverify/internal/queue"
	"github.com/veriperu/dniverify/internal/service"
)

func TestPurge_StopsWorkersThenDeletes(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.DiscardHandler)
	store := &fakeRecordStore{purgedRecords: 42, purgedBatches: 3}
	q := newFakeQueue()

	svc := service.NewPurgeService(log, store, q, time.Millisecond)

	result, err := svc.Purge(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(42), result.Records)
	assert.Equal(t, int64(3), result.Batches)
	assert.Equal(t, []string{queue.SignalChannel + "/" + queue.SignalStop}, q.published)
	assert.Equal(t, 1, store.purgeCalls)
}

func TestPurge_CanceledDuringGrace(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.DiscardHandler)
	store := &fakeRecordStore{}
	q := newFakeQueue()

	svc := service.NewPurgeService(log, store, q, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Purge(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, store.purgeCalls, "purge must not run after cancellation")
}
