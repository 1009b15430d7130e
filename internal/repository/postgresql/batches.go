package postgresql

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/veriperu/dniverify/internal/domain"
)

const TableBatches = "batches"

type BatchesRepository struct {
	pool       *pgxpool.Pool
	qb         sq.StatementBuilderType
	transactor *TxManager
}

func NewBatchesRepository(pool *pgxpool.Pool) *BatchesRepository {
	return &BatchesRepository{
		pool:       pool,
		qb:         sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		transactor: NewTxManager(pool),
	}
}

// CreateBatch inserts the batch and one pending record per DNI in a single
// transaction. The DNIs are expected to be validated and deduplicated already.
func (r *BatchesRepository) CreateBatch(ctx context.Context, fileName string, dnis []string) (*domain.Batch, error) {
	var batch *domain.Batch

	err := r.transactor.WithTransaction(ctx, func(ctx context.Context) error {
		db := extractDB(ctx, r.pool)

		sql, args, err := r.qb.
			Insert(TableBatches).
			Columns("file_name", "total_dnis").
			Values(fileName, len(dnis)).
			Suffix("RETURNING id, file_name, total_dnis, created_at").
			ToSql()
		if err != nil {
			return createQueryError(err)
		}

		var b domain.Batch
		if err := db.QueryRow(ctx, sql, args...).Scan(&b.ID, &b.FileName, &b.TotalDNIs, &b.CreatedAt); err != nil {
			return scanRowError(err)
		}

		now := time.Now().UTC()
		rows := make([][]any, 0, len(dnis))
		for _, dni := range dnis {
			rows = append(rows, []any{b.ID, dni, domain.StatusPending, 0, now, now})
		}

		_, err = db.CopyFrom(ctx,
			pgx.Identifier{TableRecords},
			[]string{"batch_id", "dni", "status", "retry_count", "created_at", "updated_at"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return executeQueryError(err)
		}

		batch = &b
		return nil
	})
	if err != nil {
		return nil, err
	}

	return batch, nil
}

func (r *BatchesRepository) ListBatches(ctx context.Context) ([]*domain.Batch, error) {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Select(
			"id",
			"file_name",
			"total_dnis",
			"created_at",
		).
		From(TableBatches).
		OrderBy("id DESC").
		ToSql()
	if err != nil {
		return nil, createQueryError(err)
	}

	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, executeQueryError(err)
	}

	batches, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByNameLax[domain.Batch])
	if err != nil {
		return nil, collectRowsError(err)
	}

	return batches, nil
}
