package service_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veriperu/dniverify/internal/queue"
	"github.com/veriperu/dniverify/internal/service"
)

func TestUpload_ValidatesAndEnqueues(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.DiscardHandler)
	batches := &fakeBatchCreator{}
	q := newFakeQueue()

	svc := service.NewUploadService(log, batches, q, 8)

	result, err := svc.Upload(context.Background(), "dnis.txt", []string{"12345678", "abc", "1234567"})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Accepted)
	assert.Equal(t, []string{"abc", "1234567"}, result.Rejected)
	assert.Equal(t, "dnis.txt", batches.fileName)
	assert.Equal(t, []string{"12345678"}, batches.dnis)
	assert.Equal(t, []string{"1:12345678"}, q.queued(queue.UniversityQueue))
}

func TestUpload_DedupesPreservingOrder(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.DiscardHandler)
	batches := &fakeBatchCreator{}
	q := newFakeQueue()

	svc := service.NewUploadService(log, batches, q, 8)

	result, err := svc.Upload(context.Background(), "dnis.txt", []string{
		"87654321",
		" 12345678 ",
		"12345678",
		"",
		"87654321",
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Accepted)
	assert.Empty(t, result.Rejected)
	assert.Equal(t, []string{"87654321", "12345678"}, batches.dnis)
}

func TestUpload_NoValidDNIs(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.DiscardHandler)
	batches := &fakeBatchCreator{}
	q := newFakeQueue()

	svc := service.NewUploadService(log, batches, q, 8)

	result, err := svc.Upload(context.Background(), "dnis.txt", []string{"abc", "", "  "})
	require.ErrorIs(t, err, service.ErrNoValidDNIs)
	require.NotNil(t, result)

	assert.Equal(t, []string{"abc"}, result.Rejected)
	assert.Empty(t, batches.fileName, "no batch must be created")
	assert.Empty(t, q.queued(queue.UniversityQueue))
}
