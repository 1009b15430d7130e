package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/veriperu/dniverify/internal/config"
	"github.com/veriperu/dniverify/internal/domain"
	"github.com/veriperu/dniverify/internal/lookup"
	"github.com/veriperu/dniverify/internal/queue"
)

func errorUpdate(message string) domain.RecordUpdate {
	return domain.RecordUpdate{ErrorMessage: &message}
}

// StageWorker is the long-lived loop for one pipeline stage: dequeue a work
// item, claim the record, run the lookup, apply the transition. Several
// workers of the same stage may run in parallel; mutual exclusion lives in
// the store's claim, not here.
type StageWorker struct {
	log      *slog.Logger
	stage    Stage
	queue    WorkQueue
	store    RecordStore
	provider lookup.Provider
	cfg      config.Workers
	ctl      controlState
}

func NewStageWorker(
	log *slog.Logger,
	stage Stage,
	workQueue WorkQueue,
	store RecordStore,
	provider lookup.Provider,
	cfg config.Workers,
) *StageWorker {
	return &StageWorker{
		log:      log.With(slog.String("stage", stage.Name)),
		stage:    stage,
		queue:    workQueue,
		store:    store,
		provider: provider,
		cfg:      cfg,
	}
}

// Run keeps the worker alive until the stop signal or context cancellation.
// Transport failures never escape: the worker abandons its session, backs
// off and reconnects, without bound.
func (w *StageWorker) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if w.ctl.stopped.Load() {
			w.log.InfoContext(ctx, "worker stopped")
			return nil
		}

		if err := w.connect(ctx); err != nil {
			w.log.ErrorContext(ctx, "failed to connect, backing off",
				slog.Duration("backoff", w.cfg.ReconnectBackoff),
				slog.String("err", err.Error()),
			)
			if err := w.wait(ctx, w.cfg.ReconnectBackoff); err != nil {
				return err
			}
			continue
		}

		w.log.InfoContext(ctx, "worker connected")

		if err := w.processLoop(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			w.log.ErrorContext(ctx, "transport failure, reconnecting",
				slog.Duration("backoff", w.cfg.ReconnectBackoff),
				slog.String("err", err.Error()),
			)
			if err := w.wait(ctx, w.cfg.ReconnectBackoff); err != nil {
				return err
			}
		}
	}
}

// connect (re)subscribes to the control channel and (re)initializes the
// lookup provider session. Signal handlers are idempotent, so resubscribing
// after a reconnect is harmless.
func (w *StageWorker) connect(ctx context.Context) error {
	if err := w.queue.SubscribeSignal(ctx, queue.SignalChannel, w.ctl.apply); err != nil {
		return err
	}

	return w.provider.Init(ctx)
}

func (w *StageWorker) processLoop(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if w.ctl.stopped.Load() {
			return nil
		}
		if w.ctl.paused.Load() {
			if err := w.wait(ctx, w.cfg.IdleWait); err != nil {
				return err
			}
			continue
		}

		item, ok, err := w.queue.Dequeue(ctx, w.stage.Queue, w.cfg.DequeueTimeout)
		if err != nil {
			return err
		}
		if !ok {
			// Empty queue is a normal loop iteration.
			continue
		}

		batchID, dni, err := queue.ParseItem(item)
		if err != nil {
			w.log.WarnContext(ctx, "discarding malformed work item", slog.String("err", err.Error()))
			continue
		}

		if err := w.processNext(ctx, batchID, dni); err != nil {
			return err
		}
	}
}

// processNext claims a record for the dequeued item and resolves it to a
// next-or-terminal status. A failed claim means another worker took the
// record: expected under concurrency, not an error.
func (w *StageWorker) processNext(ctx context.Context, batchID int64, dni string) error {
	record, err := w.claim(ctx, batchID, dni)
	if err != nil {
		w.log.ErrorContext(ctx, "failed to claim record", slog.String("err", err.Error()))
		return nil
	}
	if record == nil {
		w.log.DebugContext(ctx, "claim returned no record, discarding item")
		return nil
	}

	log := w.log.With(slog.String("dni", record.DNI), slog.Int64("record_id", record.ID))
	log.InfoContext(ctx, "processing record")

	result, err := w.provider.ProcessDNI(ctx, record.DNI)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		msg := err.Error()
		if updErr := w.store.UpdateStatus(ctx, record.ID, domain.StatusFailed, errorUpdate(msg)); updErr != nil {
			log.ErrorContext(ctx, "failed to mark record failed", slog.String("err", updErr.Error()))
		}
		log.ErrorContext(ctx, "lookup failed", slog.String("err", msg))
		return nil
	}

	switch {
	case result.Found:
		payload := string(result.Payload)
		if err := w.store.UpdateStatus(ctx, record.ID, w.stage.Found, w.stage.foundUpdate(payload)); err != nil {
			log.ErrorContext(ctx, "failed to save found result", slog.String("err", err.Error()))
			return nil
		}
		log.InfoContext(ctx, "record found")

	case w.stage.NextQueue != "":
		reason := result.Reason
		if err := w.store.UpdateStatus(ctx, record.ID, w.stage.NextStatus, errorUpdate(reason)); err != nil {
			log.ErrorContext(ctx, "failed to derive record", slog.String("err", err.Error()))
			return nil
		}
		if err := w.queue.Enqueue(ctx, w.stage.NextQueue, queue.EncodeItem(record.BatchID, record.DNI)); err != nil {
			// The record is already derived; losing the item here leaves
			// it for the recover operation. Surface as transport failure.
			return err
		}
		log.InfoContext(ctx, "record not found, derived to next stage", slog.String("reason", reason))

	default:
		if err := w.store.UpdateStatus(ctx, record.ID, domain.StatusNotFound, errorUpdate(result.Reason)); err != nil {
			log.ErrorContext(ctx, "failed to save not-found result", slog.String("err", err.Error()))
			return nil
		}
		log.InfoContext(ctx, "record not found", slog.String("reason", result.Reason))
	}

	return nil
}

// claim resolves the dequeued item to a record in the stage's source
// status. When the stage processes in place (from equals processing)
// the oldest eligible row may belong to another worker, so the claim
// binds to the exact batch and DNI of the item.
func (w *StageWorker) claim(ctx context.Context, batchID int64, dni string) (*domain.Record, error) {
	if w.stage.From == w.stage.Processing {
		return w.store.ClaimRecord(ctx, batchID, dni, w.stage.From, w.stage.Processing)
	}

	return w.store.ClaimNext(ctx, w.stage.From, w.stage.Processing)
}

func (w *StageWorker) wait(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
