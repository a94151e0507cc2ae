package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/darasa/darasa/core/batch"
)

type BatchRepo struct {
	db *sqlx.DB
}

var _ batch.Repository = (*BatchRepo)(nil)

func NewBatchRepo(db *sqlx.DB) *BatchRepo {
	return &BatchRepo{db: db}
}

const batchColumns = `
	id, school_id, name, entry_time, exit_time, days_of_week, created_at, updated_at`

func (repo *BatchRepo) scanBatch(row sqlx.ColScanner) (batch.Batch, error) {
	var (
		b    batch.Batch
		days pq.Int64Array
	)
	err := row.Scan(
		&b.ID, &b.SchoolID, &b.Name, &b.EntryTime, &b.ExitTime, &days,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return batch.Batch{}, err
	}
	for _, d := range days {
		b.DaysOfWeek = append(b.DaysOfWeek, time.Weekday(d))
	}
	return b, nil
}

func daysArray(days []time.Weekday) pq.Int64Array {
	arr := make(pq.Int64Array, 0, len(days))
	for _, d := range days {
		arr = append(arr, int64(d))
	}
	return arr
}

func (repo *BatchRepo) CreateBatch(ctx context.Context, b batch.Batch) (batch.Batch, error) {
	query := `
		INSERT INTO batch
		(school_id, name, entry_time, exit_time, days_of_week, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	err := repo.db.QueryRowContext(ctx, query,
		b.SchoolID, b.Name, b.EntryTime, b.ExitTime, daysArray(b.DaysOfWeek),
		b.CreatedAt, b.UpdatedAt,
	).Scan(&b.ID)
	if err != nil {
		return batch.Batch{}, errors.Wrap(err, "inserting batch")
	}
	return b, nil
}

func (repo *BatchRepo) GetBatchByID(ctx context.Context, schoolID, id string) (batch.Batch, error) {
	row := repo.db.QueryRowxContext(ctx,
		`SELECT `+batchColumns+` FROM batch WHERE school_id = $1 AND id = $2`, schoolID, id)
	b, err := repo.scanBatch(row)
	if err == sql.ErrNoRows {
		return batch.Batch{}, batch.ErrNotFound
	}
	return b, err
}

func (repo *BatchRepo) GetBatchesByID(ctx context.Context, schoolID string, ids []string) ([]batch.Batch, error) {
	rows, err := repo.db.QueryxContext(ctx,
		`SELECT `+batchColumns+` FROM batch WHERE school_id = $1 AND id = ANY($2)`,
		schoolID, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return repo.collect(rows)
}

func (repo *BatchRepo) QueryBatches(ctx context.Context, schoolID string) ([]batch.Batch, error) {
	rows, err := repo.db.QueryxContext(ctx,
		`SELECT `+batchColumns+` FROM batch WHERE school_id = $1 ORDER BY name`, schoolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return repo.collect(rows)
}

func (repo *BatchRepo) collect(rows *sqlx.Rows) ([]batch.Batch, error) {
	var batches []batch.Batch
	for rows.Next() {
		b, err := repo.scanBatch(rows)
		if err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

func (repo *BatchRepo) UpdateBatch(ctx context.Context, b batch.Batch) (batch.Batch, error) {
	query := `
		UPDATE batch SET
			name = $1, entry_time = $2, exit_time = $3, days_of_week = $4, updated_at = $5
		WHERE school_id = $6 AND id = $7`
	res, err := repo.db.ExecContext(ctx, query,
		b.Name, b.EntryTime, b.ExitTime, daysArray(b.DaysOfWeek), b.UpdatedAt,
		b.SchoolID, b.ID,
	)
	if err != nil {
		return batch.Batch{}, errors.Wrap(err, "updating batch")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return batch.Batch{}, batch.ErrNotFound
	}
	return b, nil
}

func (repo *BatchRepo) DeleteBatch(ctx context.Context, schoolID, id string) error {
	res, err := repo.db.ExecContext(ctx,
		`DELETE FROM batch WHERE school_id = $1 AND id = $2`, schoolID, id)
	if err != nil {
		return errors.Wrap(err, "deleting batch")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return batch.ErrNotFound
	}
	return nil
}
