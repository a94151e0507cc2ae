package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/darasa/darasa/core/attendance"
)

type AttendanceRepo struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*AttendanceRepo)(nil)

func NewAttendanceRepo(db *sqlx.DB) *AttendanceRepo {
	return &AttendanceRepo{db: db}
}

const entryColumns = `
	id, school_id, student_id, attendance_date, entry_time, exit_time, status,
	is_late, notes, created_at`

func (repo *AttendanceRepo) scanEntry(row sqlx.ColScanner) (attendance.Entry, error) {
	var e attendance.Entry
	err := row.Scan(
		&e.ID, &e.SchoolID, &e.StudentID, &e.Date, &e.EntryTime, &e.ExitTime,
		&e.Status, &e.IsLate, &e.Notes, &e.CreatedAt,
	)
	if err != nil {
		return attendance.Entry{}, err
	}
	e.Date = e.Date.UTC()
	return e, nil
}

func (repo *AttendanceRepo) CreateEntry(ctx context.Context, e attendance.Entry) (attendance.Entry, error) {
	query := `
		INSERT INTO attendance_entry
		(school_id, student_id, attendance_date, entry_time, exit_time, status,
		 is_late, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	err := repo.db.QueryRowContext(ctx, query,
		e.SchoolID, e.StudentID, e.Date, e.EntryTime, e.ExitTime, e.Status,
		e.IsLate, e.Notes, e.CreatedAt,
	).Scan(&e.ID)
	if err != nil {
		return attendance.Entry{}, errors.Wrap(err, "inserting attendance entry")
	}
	return e, nil
}

func (repo *AttendanceRepo) GetOpenEntry(ctx context.Context, schoolID, studentID string, date time.Time) (attendance.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM attendance_entry
		WHERE school_id = $1 AND student_id = $2 AND attendance_date = $3 AND exit_time IS NULL
		ORDER BY created_at DESC
		LIMIT 1`
	row := repo.db.QueryRowxContext(ctx, query, schoolID, studentID, date)
	e, err := repo.scanEntry(row)
	if err == sql.ErrNoRows {
		return attendance.Entry{}, attendance.ErrNoOpenEntry
	}
	return e, err
}

func (repo *AttendanceRepo) UpdateEntry(ctx context.Context, e attendance.Entry) (attendance.Entry, error) {
	query := `
		UPDATE attendance_entry SET
			exit_time = $1, status = $2, is_late = $3, notes = $4
		WHERE id = $5`
	res, err := repo.db.ExecContext(ctx, query, e.ExitTime, e.Status, e.IsLate, e.Notes, e.ID)
	if err != nil {
		return attendance.Entry{}, errors.Wrap(err, "updating attendance entry")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return attendance.Entry{}, attendance.ErrNotFound
	}
	return e, nil
}

func (repo *AttendanceRepo) QueryEntries(ctx context.Context, schoolID string, filter *attendance.QueryFilter) ([]attendance.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM attendance_entry WHERE school_id = $1`
	args := []interface{}{schoolID}

	if filter != nil {
		if filter.StudentID != "" {
			args = append(args, filter.StudentID)
			query += fmt.Sprintf(` AND student_id = $%d`, len(args))
		}
		if !filter.DateFrom.IsZero() {
			args = append(args, filter.DateFrom)
			query += fmt.Sprintf(` AND attendance_date >= $%d`, len(args))
		}
		if !filter.DateTo.IsZero() {
			args = append(args, filter.DateTo)
			query += fmt.Sprintf(` AND attendance_date <= $%d`, len(args))
		}
		if filter.OpenOnly {
			query += ` AND exit_time IS NULL`
		}
	}
	query += ` ORDER BY attendance_date, created_at`

	rows, err := repo.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return repo.collect(rows)
}

func (repo *AttendanceRepo) QueryEntriesForMonth(ctx context.Context, schoolID string, year int, month time.Month) ([]attendance.Entry, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	query := `
		SELECT ` + entryColumns + `
		FROM attendance_entry
		WHERE school_id = $1 AND attendance_date >= $2 AND attendance_date < $3
		ORDER BY attendance_date, created_at`
	rows, err := repo.db.QueryxContext(ctx, query, schoolID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return repo.collect(rows)
}

func (repo *AttendanceRepo) collect(rows *sqlx.Rows) ([]attendance.Entry, error) {
	var entries []attendance.Entry
	for rows.Next() {
		e, err := repo.scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
