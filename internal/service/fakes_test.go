package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/veriperu/dniverify/internal/domain"
)

type fakeQueue struct {
	mu         sync.Mutex
	items      map[string][]string
	enqueues   int
	published  []string
	enqueueErr error
	publishErr error
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{items: make(map[string][]string)}
}

func (q *fakeQueue) Enqueue(_ context.Context, queueName, value string) error {
	return q.EnqueueBulk(context.Background(), queueName, []string{value})
}

func (q *fakeQueue) EnqueueBulk(_ context.Context, queueName string, values []string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.enqueueErr != nil {
		return q.enqueueErr
	}
	q.items[queueName] = append(q.items[queueName], values...)
	q.enqueues++
	return nil
}

func (q *fakeQueue) PublishSignal(_ context.Context, channel, message string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.publishErr != nil {
		return q.publishErr
	}
	q.published = append(q.published, channel+"/"+message)
	return nil
}

func (q *fakeQueue) Len(_ context.Context, queueName string) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.items[queueName])), nil
}

func (q *fakeQueue) queued(queueName string) []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.items[queueName]...)
}

type fakeBatchCreator struct {
	batch    *domain.Batch
	err      error
	fileName string
	dnis     []string
}

func (f *fakeBatchCreator) CreateBatch(_ context.Context, fileName string, dnis []string) (*domain.Batch, error) {
	f.fileName = fileName
	f.dnis = dnis
	if f.err != nil {
		return nil, f.err
	}
	if f.batch == nil {
		f.batch = &domain.Batch{ID: 1, FileName: fileName, TotalDNIs: len(dnis), CreatedAt: time.Now()}
	}
	return f.batch, nil
}

type fakeRecordStore struct {
	counts        map[domain.Status]int
	active        bool
	resetCount    int64
	resetErr      error
	pending       []*domain.Record
	stuckCount    int64
	stuck         []*domain.Record
	recoverErr    error
	purgedRecords int64
	purgedBatches int64
	purgeErr      error
	purgeCalls    int
}

func (f *fakeRecordStore) CountsByStatus(context.Context) (map[domain.Status]int, error) {
	return f.counts, nil
}

func (f *fakeRecordStore) TotalCount(context.Context) (int, error) {
	total := 0
	for _, n := range f.counts {
		total += n
	}
	return total, nil
}

func (f *fakeRecordStore) HasActiveWork(context.Context) (bool, error) {
	return f.active, nil
}

func (f *fakeRecordStore) CountRetryable(context.Context) (int, error) {
	return f.counts[domain.StatusNotFound] + f.counts[domain.StatusFailed], nil
}

func (f *fakeRecordStore) RetryFailed(context.Context) (int64, error) {
	return f.resetCount, f.resetErr
}

func (f *fakeRecordStore) ListRecords(_ context.Context, filter domain.RecordFilter, limit, offset uint64) ([]*domain.Record, error) {
	return f.pending, nil
}

func (f *fakeRecordStore) CountRecords(context.Context, domain.RecordFilter) (int, error) {
	return len(f.pending), nil
}

func (f *fakeRecordStore) RecoverStuck(context.Context) (int64, []*domain.Record, error) {
	if f.recoverErr != nil {
		return 0, nil, f.recoverErr
	}
	return f.stuckCount, f.stuck, nil
}

func (f *fakeRecordStore) PurgeAll(context.Context) (int64, int64, error) {
	f.purgeCalls++
	if f.purgeErr != nil {
		return 0, 0, f.purgeErr
	}
	return f.purgedRecords, f.purgedBatches, nil
}
