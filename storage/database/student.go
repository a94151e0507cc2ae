package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/darasa/darasa/core"
	"github.com/darasa/darasa/core/student"
)

type StudentRepo struct {
	db *sqlx.DB
}

var _ student.Repository = (*StudentRepo)(nil)

func NewStudentRepo(db *sqlx.DB) *StudentRepo {
	return &StudentRepo{db: db}
}

const studentColumns = `
	id, school_id, student_id, full_name, class_name, section, course, batch_ids,
	batch_timings, parent_name, parent_phone, parent_email, photo_url, is_active,
	created_at, updated_at`

func (repo *StudentRepo) scanStudent(row sqlx.ColScanner) (student.Student, error) {
	var (
		st       student.Student
		batchIDs pq.StringArray
		timings  []byte
	)
	err := row.Scan(
		&st.ID, &st.SchoolID, &st.StudentID, &st.FullName, &st.ClassName, &st.Section,
		&st.Course, &batchIDs, &timings, &st.ParentName, &st.ParentPhone,
		&st.ParentEmail, &st.PhotoURL, &st.IsActive, &st.CreatedAt, &st.UpdatedAt,
	)
	if err != nil {
		return student.Student{}, err
	}
	st.BatchIDs = batchIDs
	if len(timings) > 0 {
		if err = json.Unmarshal(timings, &st.BatchTimings); err != nil {
			return student.Student{}, errors.Wrap(err, "decoding batch timings")
		}
	}
	if len(st.BatchTimings) == 0 {
		st.BatchTimings = nil
	}
	return st, nil
}

func (repo *StudentRepo) CheckCodeUniqueness(ctx context.Context, schoolID, code string, excluded ...student.Student) error {
	query := `SELECT COUNT(*) FROM student WHERE school_id = $1 AND student_id = $2`
	args := []interface{}{schoolID, code}
	if len(excluded) > 0 {
		ids := make([]string, 0, len(excluded))
		for _, st := range excluded {
			ids = append(ids, st.ID)
		}
		query += ` AND NOT (id = ANY($3))`
		args = append(args, pq.Array(ids))
	}

	var count int
	if err := repo.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return errors.Wrap(err, "checking student code")
	}
	if count > 0 {
		return student.ErrCodeExists
	}
	return nil
}

func (repo *StudentRepo) CreateStudent(ctx context.Context, st student.Student) (student.Student, error) {
	timings, err := json.Marshal(st.BatchTimings)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "encoding batch timings")
	}
	query := `
		INSERT INTO student
		(school_id, student_id, full_name, class_name, section, course, batch_ids,
		 batch_timings, parent_name, parent_phone, parent_email, photo_url, is_active,
		 created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id`
	err = repo.db.QueryRowContext(ctx, query,
		st.SchoolID, st.StudentID, st.FullName, st.ClassName, st.Section, st.Course,
		pq.Array(st.BatchIDs), timings, st.ParentName, st.ParentPhone, st.ParentEmail,
		st.PhotoURL, st.IsActive, st.CreatedAt, st.UpdatedAt,
	).Scan(&st.ID)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return st, nil
}

func (repo *StudentRepo) GetStudentByID(ctx context.Context, schoolID, id string) (student.Student, error) {
	row := repo.db.QueryRowxContext(ctx,
		`SELECT `+studentColumns+` FROM student WHERE school_id = $1 AND id = $2`, schoolID, id)
	st, err := repo.scanStudent(row)
	if err == sql.ErrNoRows {
		return student.Student{}, student.ErrNotFound
	}
	return st, err
}

func (repo *StudentRepo) GetStudentByCode(ctx context.Context, schoolID, code string) (student.Student, error) {
	row := repo.db.QueryRowxContext(ctx,
		`SELECT `+studentColumns+` FROM student WHERE school_id = $1 AND student_id = $2`, schoolID, code)
	st, err := repo.scanStudent(row)
	if err == sql.ErrNoRows {
		return student.Student{}, student.ErrNotFound
	}
	return st, err
}

func (repo *StudentRepo) QueryStudents(
	ctx context.Context,
	schoolID string,
	filter *student.QueryFilter,
	ordering []core.DBOrdering,
) ([]student.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM student WHERE school_id = $1`
	args := []interface{}{schoolID}

	if filter != nil {
		if filter.Search != "" {
			args = append(args, "%"+filter.Search+"%")
			query += fmt.Sprintf(` AND (full_name ILIKE $%d OR student_id ILIKE $%d)`, len(args), len(args))
		}
		if filter.ClassName != "" {
			args = append(args, filter.ClassName)
			query += fmt.Sprintf(` AND class_name = $%d`, len(args))
		}
		if filter.BatchID != "" {
			args = append(args, filter.BatchID)
			query += fmt.Sprintf(` AND $%d = ANY(batch_ids)`, len(args))
		}
		if filter.IsActive != nil {
			args = append(args, *filter.IsActive)
			query += fmt.Sprintf(` AND is_active = $%d`, len(args))
		}
	}

	query += ` ORDER BY ` + core.OrderByClause(ordering, "student_id ASC")

	rows, err := repo.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []student.Student
	for rows.Next() {
		st, err := repo.scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, st)
	}
	return students, rows.Err()
}

func (repo *StudentRepo) UpdateStudent(ctx context.Context, st student.Student) (student.Student, error) {
	timings, err := json.Marshal(st.BatchTimings)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "encoding batch timings")
	}
	query := `
		UPDATE student SET
			full_name = $1, class_name = $2, section = $3, course = $4, batch_ids = $5,
			batch_timings = $6, parent_name = $7, parent_phone = $8, parent_email = $9,
			photo_url = $10, is_active = $11, updated_at = $12
		WHERE school_id = $13 AND id = $14`
	res, err := repo.db.ExecContext(ctx, query,
		st.FullName, st.ClassName, st.Section, st.Course, pq.Array(st.BatchIDs),
		timings, st.ParentName, st.ParentPhone, st.ParentEmail, st.PhotoURL,
		st.IsActive, st.UpdatedAt, st.SchoolID, st.ID,
	)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return student.Student{}, student.ErrNotFound
	}
	return st, nil
}

func (repo *StudentRepo) DeleteStudentsByID(ctx context.Context, schoolID string, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := repo.db.ExecContext(ctx,
		`DELETE FROM student WHERE school_id = $1 AND id = ANY($2)`, schoolID, pq.Array(ids))
	if err != nil {
		return 0, errors.Wrap(err, "deleting students")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
