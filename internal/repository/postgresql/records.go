package postgresql

import (
	"context"
	"errors"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/veriperu/dniverify/internal/domain"
)

const TableRecords = "records"

var recordColumns = []string{
	"id",
	"batch_id",
	"dni",
	"status",
	"retry_count",
	"university_payload",
	"institute_payload",
	"error_message",
	"created_at",
	"updated_at",
}

type RecordsRepository struct {
	pool       *pgxpool.Pool
	qb         sq.StatementBuilderType
	transactor *TxManager
}

func NewRecordsRepository(pool *pgxpool.Pool) *RecordsRepository {
	return &RecordsRepository{
		pool:       pool,
		qb:         sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		transactor: NewTxManager(pool),
	}
}

// ClaimNext atomically moves the oldest record in `from` to `to` and returns
// it, or (nil, nil) when no such record exists. The claim is a single
// statement; SKIP LOCKED keeps concurrent claimers from ever selecting the
// same row.
func (r *RecordsRepository) ClaimNext(ctx context.Context, from, to domain.Status) (*domain.Record, error) {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Update(TableRecords).
		Set("status", to).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Expr(
			"id = (SELECT id FROM "+TableRecords+" WHERE status = ? ORDER BY id LIMIT 1 FOR UPDATE SKIP LOCKED)",
			from,
		)).
		Suffix("RETURNING " + strings.Join(recordColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, createQueryError(err)
	}

	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, executeQueryError(err)
	}

	record, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByNameLax[domain.Record])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, collectRowsError(err)
	}

	return record, nil
}

// ClaimRecord atomically claims the record identified by a dequeued work
// item, or returns (nil, nil) when no row matches. The institute stage needs
// it because its claim leaves the status in place: an oldest-first claim
// would re-select a row another worker is still processing, while binding to
// the item's (batch, dni) keeps one queue item mapped to one record.
func (r *RecordsRepository) ClaimRecord(ctx context.Context, batchID int64, dni string, from, to domain.Status) (*domain.Record, error) {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Update(TableRecords).
		Set("status", to).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Expr(
			"id = (SELECT id FROM "+TableRecords+" WHERE batch_id = ? AND dni = ? AND status = ? LIMIT 1 FOR UPDATE SKIP LOCKED)",
			batchID, dni, from,
		)).
		Suffix("RETURNING " + strings.Join(recordColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, createQueryError(err)
	}

	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, executeQueryError(err)
	}

	record, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByNameLax[domain.Record])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, collectRowsError(err)
	}

	return record, nil
}

// UpdateStatus is a targeted, non-atomic update. Only the worker holding the
// claim calls it for in-flight records. Nil update fields are left untouched.
func (r *RecordsRepository) UpdateStatus(ctx context.Context, id int64, status domain.Status, upd domain.RecordUpdate) error {
	db := extractDB(ctx, r.pool)

	q := r.qb.
		Update(TableRecords).
		Set("status", status).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id})

	if upd.UniversityPayload != nil {
		q = q.Set("university_payload", *upd.UniversityPayload)
	}
	if upd.InstitutePayload != nil {
		q = q.Set("institute_payload", *upd.InstitutePayload)
	}
	if upd.ErrorMessage != nil {
		q = q.Set("error_message", *upd.ErrorMessage)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return createQueryError(err)
	}

	_, err = db.Exec(ctx, sql, args...)
	if err != nil {
		return executeQueryError(err)
	}

	return nil
}

func (r *RecordsRepository) CountsByStatus(ctx context.Context) (map[domain.Status]int, error) {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Select("status", "COUNT(*)").
		From(TableRecords).
		GroupBy("status").
		ToSql()
	if err != nil {
		return nil, createQueryError(err)
	}

	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, executeQueryError(err)
	}
	defer rows.Close()

	counts := make(map[domain.Status]int)
	for rows.Next() {
		var raw string
		var count int
		if err := rows.Scan(&raw, &count); err != nil {
			return nil, scanRowError(err)
		}

		status, err := domain.ParseStatus(raw)
		if err != nil {
			return nil, err
		}
		counts[status] = count
	}

	return counts, rows.Err()
}

func (r *RecordsRepository) TotalCount(ctx context.Context) (int, error) {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Select("COUNT(*)").
		From(TableRecords).
		ToSql()
	if err != nil {
		return 0, createQueryError(err)
	}

	var total int
	if err := db.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, scanRowError(err)
	}

	return total, nil
}

// HasActiveWork reports whether any record is pending or mid-stage.
func (r *RecordsRepository) HasActiveWork(ctx context.Context) (bool, error) {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Select("1").
		From(TableRecords).
		Where(sq.Eq{"status": domain.ActiveStatuses}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, createQueryError(err)
	}

	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return false, executeQueryError(err)
	}
	defer rows.Close()

	return rows.Next(), rows.Err()
}

func (r *RecordsRepository) CountRetryable(ctx context.Context) (int, error) {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Select("COUNT(*)").
		From(TableRecords).
		Where(sq.Eq{"status": domain.RetryableStatuses}).
		ToSql()
	if err != nil {
		return 0, createQueryError(err)
	}

	var count int
	if err := db.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, scanRowError(err)
	}

	return count, nil
}

func (r *RecordsRepository) ListRecords(ctx context.Context, filter domain.RecordFilter, limit, offset uint64) ([]*domain.Record, error) {
	db := extractDB(ctx, r.pool)

	q := r.qb.
		Select(recordColumns...).
		From(TableRecords).
		OrderBy("id ASC").
		Limit(limit).
		Offset(offset)

	if filter.Status != nil {
		q = q.Where(sq.Eq{"status": *filter.Status})
	}
	if filter.BatchID != nil {
		q = q.Where(sq.Eq{"batch_id": *filter.BatchID})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, createQueryError(err)
	}

	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, executeQueryError(err)
	}

	records, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByNameLax[domain.Record])
	if err != nil {
		return nil, collectRowsError(err)
	}

	return records, nil
}

func (r *RecordsRepository) CountRecords(ctx context.Context, filter domain.RecordFilter) (int, error) {
	db := extractDB(ctx, r.pool)

	q := r.qb.
		Select("COUNT(*)").
		From(TableRecords)

	if filter.Status != nil {
		q = q.Where(sq.Eq{"status": *filter.Status})
	}
	if filter.BatchID != nil {
		q = q.Where(sq.Eq{"batch_id": *filter.BatchID})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, createQueryError(err)
	}

	var count int
	if err := db.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, scanRowError(err)
	}

	return count, nil
}

// RetryFailed resets every not_found and failed record to pending, bumps the
// retry counter and clears the error message. Prior payloads survive.
func (r *RecordsRepository) RetryFailed(ctx context.Context) (int64, error) {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Update(TableRecords).
		Set("status", domain.StatusPending).
		Set("retry_count", sq.Expr("retry_count + 1")).
		Set("error_message", nil).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"status": domain.RetryableStatuses}).
		ToSql()
	if err != nil {
		return 0, createQueryError(err)
	}

	tag, err := db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, executeQueryError(err)
	}

	return tag.RowsAffected(), nil
}

// RecoverStuck repairs records parked in a processing status by a dead
// worker. checking_university rows restart at pending; checking_institute
// rows keep their status (they already passed the university stage) and are
// returned so the caller can put them back on the institute queue.
func (r *RecordsRepository) RecoverStuck(ctx context.Context) (int64, []*domain.Record, error) {
	var university int64
	var institute []*domain.Record

	err := r.transactor.WithTransaction(ctx, func(ctx context.Context) error {
		db := extractDB(ctx, r.pool)

		sql, args, err := r.qb.
			Update(TableRecords).
			Set("status", domain.StatusPending).
			Set("updated_at", sq.Expr("now()")).
			Where(sq.Eq{"status": domain.StatusCheckingUniversity}).
			ToSql()
		if err != nil {
			return createQueryError(err)
		}

		tag, err := db.Exec(ctx, sql, args...)
		if err != nil {
			return executeQueryError(err)
		}
		university = tag.RowsAffected()

		sql, args, err = r.qb.
			Update(TableRecords).
			Set("updated_at", sq.Expr("now()")).
			Where(sq.Eq{"status": domain.StatusCheckingInstitute}).
			Suffix("RETURNING " + strings.Join(recordColumns, ", ")).
			ToSql()
		if err != nil {
			return createQueryError(err)
		}

		rows, err := db.Query(ctx, sql, args...)
		if err != nil {
			return executeQueryError(err)
		}

		institute, err = pgx.CollectRows(rows, pgx.RowToAddrOfStructByNameLax[domain.Record])
		if err != nil {
			return collectRowsError(err)
		}

		return nil
	})
	if err != nil {
		return 0, nil, err
	}

	return university, institute, nil
}

// PurgeAll removes every record and batch.
func (r *RecordsRepository) PurgeAll(ctx context.Context) (records, batches int64, err error) {
	err = r.transactor.WithTransaction(ctx, func(ctx context.Context) error {
		db := extractDB(ctx, r.pool)

		sql, args, err := r.qb.Delete(TableRecords).ToSql()
		if err != nil {
			return createQueryError(err)
		}

		tag, err := db.Exec(ctx, sql, args...)
		if err != nil {
			return executeQueryError(err)
		}
		records = tag.RowsAffected()

		sql, args, err = r.qb.Delete(TableBatches).ToSql()
		if err != nil {
			return createQueryError(err)
		}

		tag, err = db.Exec(ctx, sql, args...)
		if err != nil {
			return executeQueryError(err)
		}
		batches = tag.RowsAffected()

		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	return records, batches, nil
}
