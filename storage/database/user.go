package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/darasa/darasa/core/user"
)

type UserRepo struct {
	db *sqlx.DB
}

var _ user.Repository = (*UserRepo)(nil)

func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `
	id, school_id, name, username, email, is_active, roles, student_ids,
	password_hash, last_login, created_at, updated_at`

func (repo *UserRepo) scanUser(row sqlx.ColScanner) (user.User, error) {
	var (
		usr        user.User
		schoolID   sql.NullString
		roles      pq.StringArray
		studentIDs pq.StringArray
		lastLogin  sql.NullTime
	)
	err := row.Scan(
		&usr.ID, &schoolID, &usr.Name, &usr.Username, &usr.Email, &usr.IsActive,
		&roles, &studentIDs, &usr.PasswordHash, &lastLogin, &usr.CreatedAt, &usr.UpdatedAt,
	)
	if err != nil {
		return user.User{}, err
	}
	usr.SchoolID = fromNullStr(schoolID)
	usr.Roles = roles
	usr.StudentIDs = studentIDs
	usr.LastLogin = fromNullTime(lastLogin)
	return usr, nil
}

func (repo *UserRepo) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	excluded := make([]string, 0, len(excludedUsers))
	for _, usr := range excludedUsers {
		excluded = append(excluded, usr.ID)
	}

	check := func(column, value string) (bool, error) {
		query := fmt.Sprintf(`SELECT COUNT(*) FROM "user" WHERE %s = $1 AND NOT (id = ANY($2))`, column)
		var count int
		if err := repo.db.QueryRowContext(ctx, query, value, pq.Array(excluded)).Scan(&count); err != nil {
			return false, errors.Wrapf(err, "checking %s", column)
		}
		return count > 0, nil
	}

	if taken, err := check("username", username); err != nil {
		return err
	} else if taken {
		return user.ErrUsernameExists
	}
	if taken, err := check("email", email); err != nil {
		return err
	} else if taken {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *UserRepo) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	query := `
		INSERT INTO "user"
		(school_id, name, username, email, is_active, roles, student_ids,
		 password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	err := repo.db.QueryRowContext(ctx, query,
		uuidOrNull(usr.SchoolID), usr.Name, usr.Username, usr.Email, usr.IsActive,
		pq.Array(usr.Roles), pq.Array(usr.StudentIDs), usr.PasswordHash,
		usr.CreatedAt, usr.UpdatedAt,
	).Scan(&usr.ID)
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *UserRepo) GetUserByID(ctx context.Context, id string) (user.User, error) {
	row := repo.db.QueryRowxContext(ctx, `SELECT `+userColumns+` FROM "user" WHERE id = $1`, id)
	usr, err := repo.scanUser(row)
	if err == sql.ErrNoRows {
		return user.User{}, user.ErrNotFound
	}
	return usr, err
}

func (repo *UserRepo) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	row := repo.db.QueryRowxContext(ctx, `SELECT `+userColumns+` FROM "user" WHERE email = $1`, email)
	usr, err := repo.scanUser(row)
	if err == sql.ErrNoRows {
		return user.User{}, user.ErrNotFound
	}
	return usr, err
}

func (repo *UserRepo) GetUserByUsernameOrEmail(ctx context.Context, username string) (user.User, error) {
	row := repo.db.QueryRowxContext(ctx,
		`SELECT `+userColumns+` FROM "user" WHERE username = $1 OR email = $1`, username)
	usr, err := repo.scanUser(row)
	if err == sql.ErrNoRows {
		return user.User{}, user.ErrNotFound
	}
	return usr, err
}

func (repo *UserRepo) QueryUsers(ctx context.Context, schoolID string, filter *user.QueryFilter) ([]user.User, error) {
	query := `SELECT ` + userColumns + ` FROM "user" WHERE TRUE`
	var args []interface{}

	if schoolID != "" {
		args = append(args, schoolID)
		query += fmt.Sprintf(` AND school_id = $%d`, len(args))
	}
	if filter != nil {
		if filter.Search != "" {
			args = append(args, "%"+filter.Search+"%")
			query += fmt.Sprintf(` AND (name ILIKE $%d OR username ILIKE $%d OR email ILIKE $%d)`,
				len(args), len(args), len(args))
		}
		if len(filter.Roles) > 0 {
			args = append(args, pq.Array(filter.Roles))
			query += fmt.Sprintf(` AND roles && $%d`, len(args))
		}
		if filter.IsActive != nil {
			args = append(args, *filter.IsActive)
			query += fmt.Sprintf(` AND is_active = $%d`, len(args))
		}
	}
	query += ` ORDER BY username`

	rows, err := repo.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []user.User
	for rows.Next() {
		usr, err := repo.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, usr)
	}
	return users, rows.Err()
}

// UpdateUser patches the user's non-zero fields and returns the stored row.
func (repo *UserRepo) UpdateUser(ctx context.Context, usr user.User, isActive *bool) (user.User, error) {
	sets := []string{"updated_at = $1"}
	args := []interface{}{usr.UpdatedAt}

	set := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if usr.Name != "" {
		set("name", usr.Name)
	}
	if usr.Username != "" {
		set("username", usr.Username)
	}
	if usr.Email != "" {
		set("email", usr.Email)
	}
	if usr.Roles != nil {
		set("roles", pq.Array(usr.Roles))
	}
	if usr.StudentIDs != nil {
		set("student_ids", pq.Array(usr.StudentIDs))
	}
	if usr.PasswordHash != nil {
		set("password_hash", usr.PasswordHash)
	}
	if isActive != nil {
		set("is_active", *isActive)
	}

	args = append(args, usr.ID)
	query := fmt.Sprintf(`UPDATE "user" SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))
	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUserByID(ctx, usr.ID)
}

func (repo *UserRepo) SetLastLogin(ctx context.Context, id string, at time.Time) error {
	res, err := repo.db.ExecContext(ctx, `UPDATE "user" SET last_login = $1 WHERE id = $2`, at, id)
	if err != nil {
		return errors.Wrap(err, "stamping last login")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (repo *UserRepo) DeleteUsersByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := repo.db.ExecContext(ctx, `DELETE FROM "user" WHERE id = ANY($1)`, pq.Array(ids))
	return errors.Wrap(err, "deleting users")
}
