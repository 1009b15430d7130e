package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/veriperu/dniverify/internal/config"
	v1 "github.com/veriperu/dniverify/internal/controller/http/v1"
	"github.com/veriperu/dniverify/internal/lookup"
	"github.com/veriperu/dniverify/internal/pipeline"
	"github.com/veriperu/dniverify/internal/queue"
	"github.com/veriperu/dniverify/internal/repository/postgresql"
	"github.com/veriperu/dniverify/internal/service"
	"golang.org/x/sync/errgroup"
)

type App struct {
	log *slog.Logger
	cfg *config.Config
}

func New(log *slog.Logger, cfg *config.Config) *App {
	return &App{
		log: log,
		cfg: cfg,
	}
}

func (a *App) Run(ctx context.Context) error {
	a.log.InfoContext(ctx, "starting app",
		slog.Int("min_dni_length", a.cfg.App.MinDNILength),
		slog.String("university_url", a.cfg.Lookup.UniversityURL),
		slog.String("institute_url", a.cfg.Lookup.InstituteURL),
	)

	a.log.InfoContext(ctx, "establishing postgresql connection",
		slog.String("postgresql_host", a.cfg.PostgreSQL.Host),
		slog.String("postgresql_port", a.cfg.PostgreSQL.Port),
		slog.String("postgresql_dbname", a.cfg.PostgreSQL.DBName),
	)

	pool, err := postgresql.NewConnection(ctx, a.log, a.cfg.PostgreSQL)
	if err != nil {
		return fmt.Errorf("failed to create db connection: %w", err)
	}
	defer pool.Close()

	workQueue, err := a.newQueue(ctx)
	if err != nil {
		return fmt.Errorf("failed to create work queue: %w", err)
	}
	defer workQueue.Close()

	batchesRepository := postgresql.NewBatchesRepository(pool)
	recordsRepository := postgresql.NewRecordsRepository(pool)

	recoverService := service.NewRecoverService(a.log, recordsRepository, workQueue)

	// Records orphaned by a previous crash go back into the pipeline before
	// the workers start consuming.
	recovered, err := recoverService.Recover(ctx)
	if err != nil {
		return fmt.Errorf("failed to recover stuck records: %w", err)
	}
	if recovered.University > 0 || recovered.Institute > 0 {
		a.log.InfoContext(ctx, "startup recovery complete",
			slog.Int64("university", recovered.University),
			slog.Int64("institute", recovered.Institute),
		)
	}

	return a.startPipeline(ctx, workQueue, batchesRepository, recordsRepository, recoverService)
}

func (a *App) newQueue(ctx context.Context) (queue.Queue, error) {
	if a.cfg.Redis.Addr == "" {
		a.log.InfoContext(ctx, "using in-process queue")
		return queue.NewMemory(), nil
	}

	a.log.InfoContext(ctx, "connecting to redis", slog.String("redis_addr", a.cfg.Redis.Addr))

	return queue.NewRedis(ctx, a.cfg.Redis)
}

func (a *App) startPipeline(
	ctx context.Context,
	workQueue queue.Queue,
	batchesRepo *postgresql.BatchesRepository,
	recordsRepo *postgresql.RecordsRepository,
	recoverService *service.RecoverService,
) error {
	universityProvider := lookup.NewHTTPProvider(
		"university",
		a.cfg.Lookup.UniversityURL,
		a.cfg.Lookup.RetryAttempts,
		a.cfg.Lookup.RetryDelay,
	)
	instituteProvider := lookup.NewHTTPProvider(
		"institute",
		a.cfg.Lookup.InstituteURL,
		a.cfg.Lookup.RetryAttempts,
		a.cfg.Lookup.RetryDelay,
	)

	universityWorker := pipeline.NewStageWorker(
		a.log, pipeline.UniversityStage(), workQueue, recordsRepo, universityProvider, a.cfg.Workers,
	)
	instituteWorker := pipeline.NewStageWorker(
		a.log, pipeline.InstituteStage(), workQueue, recordsRepo, instituteProvider, a.cfg.Workers,
	)

	handler := v1.NewPipelineHandler(
		service.NewUploadService(a.log, batchesRepo, workQueue, a.cfg.App.MinDNILength),
		service.NewStatusService(a.log, recordsRepo, workQueue),
		service.NewListingService(a.log, recordsRepo, batchesRepo),
		service.NewControlService(a.log, workQueue),
		service.NewRetryService(a.log, recordsRepo, workQueue),
		recoverService,
		service.NewPurgeService(a.log, recordsRepo, workQueue, a.cfg.App.PurgeGracePeriod),
	)
	server := v1.NewServer(a.cfg.HTTP, handler)

	erg, ctx := errgroup.WithContext(ctx)

	erg.Go(func() error {
		a.log.InfoContext(ctx, "university worker started")
		return universityWorker.Run(ctx)
	})

	erg.Go(func() error {
		a.log.InfoContext(ctx, "institute worker started")
		return instituteWorker.Run(ctx)
	})

	erg.Go(func() error {
		a.log.InfoContext(ctx, "starting http server",
			slog.String("addr", net.JoinHostPort(a.cfg.HTTP.Host, a.cfg.HTTP.Port)),
		)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}

		return nil
	})

	erg.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	a.log.InfoContext(ctx, "all components started")

	if err := erg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		a.log.ErrorContext(ctx, "pipeline stopped with error", slog.String("err", err.Error()))

		return err
	}

	a.log.InfoContext(ctx, "pipeline stopped gracefully")

	return nil
}
