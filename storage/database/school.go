package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/darasa/darasa/core/school"
)

type SchoolRepo struct {
	db *sqlx.DB
}

var _ school.Repository = (*SchoolRepo)(nil)

func NewSchoolRepo(db *sqlx.DB) *SchoolRepo {
	return &SchoolRepo{db: db}
}

const schoolColumns = `
	id, name, institute_type, subscription_status, plan_type, trial_ends_at,
	subscription_expires_at, default_entry_time, default_exit_time, timezone,
	logo_url, created_at, updated_at`

func (repo *SchoolRepo) scanSchool(row sqlx.ColScanner) (school.School, error) {
	var (
		sch          school.School
		trialEnds    sql.NullTime
		subExpires   sql.NullTime
	)
	err := row.Scan(
		&sch.ID, &sch.Name, &sch.InstituteType, &sch.SubscriptionStatus, &sch.PlanType,
		&trialEnds, &subExpires, &sch.DefaultEntryTime, &sch.DefaultExitTime,
		&sch.Timezone, &sch.LogoURL, &sch.CreatedAt, &sch.UpdatedAt,
	)
	if err != nil {
		return school.School{}, err
	}
	sch.TrialEndsAt = fromNullTime(trialEnds)
	sch.SubscriptionExpiresAt = fromNullTime(subExpires)
	return sch, nil
}

func (repo *SchoolRepo) CreateSchool(ctx context.Context, sch school.School) (school.School, error) {
	query := `
		INSERT INTO school
		(name, institute_type, subscription_status, plan_type, trial_ends_at,
		 subscription_expires_at, default_entry_time, default_exit_time, timezone,
		 logo_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`
	err := repo.db.QueryRowContext(ctx, query,
		sch.Name, sch.InstituteType, sch.SubscriptionStatus, sch.PlanType,
		timeOrNull(sch.TrialEndsAt), timeOrNull(sch.SubscriptionExpiresAt),
		sch.DefaultEntryTime, sch.DefaultExitTime, sch.Timezone, sch.LogoURL,
		sch.CreatedAt, sch.UpdatedAt,
	).Scan(&sch.ID)
	if err != nil {
		return school.School{}, errors.Wrap(err, "inserting school")
	}
	return sch, nil
}

func (repo *SchoolRepo) GetSchoolByID(ctx context.Context, id string) (school.School, error) {
	row := repo.db.QueryRowxContext(ctx, `SELECT `+schoolColumns+` FROM school WHERE id = $1`, id)
	sch, err := repo.scanSchool(row)
	if err == sql.ErrNoRows {
		return school.School{}, school.ErrNotFound
	}
	return sch, err
}

func (repo *SchoolRepo) QueryAllSchools(ctx context.Context) ([]school.School, error) {
	rows, err := repo.db.QueryxContext(ctx, `SELECT `+schoolColumns+` FROM school ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schools []school.School
	for rows.Next() {
		sch, err := repo.scanSchool(rows)
		if err != nil {
			return nil, err
		}
		schools = append(schools, sch)
	}
	return schools, rows.Err()
}

func (repo *SchoolRepo) UpdateSchool(ctx context.Context, sch school.School) (school.School, error) {
	query := `
		UPDATE school SET
			name = $1, subscription_status = $2, plan_type = $3, trial_ends_at = $4,
			subscription_expires_at = $5, default_entry_time = $6, default_exit_time = $7,
			timezone = $8, logo_url = $9, updated_at = $10
		WHERE id = $11`
	res, err := repo.db.ExecContext(ctx, query,
		sch.Name, sch.SubscriptionStatus, sch.PlanType,
		timeOrNull(sch.TrialEndsAt), timeOrNull(sch.SubscriptionExpiresAt),
		sch.DefaultEntryTime, sch.DefaultExitTime, sch.Timezone, sch.LogoURL,
		sch.UpdatedAt, sch.ID,
	)
	if err != nil {
		return school.School{}, errors.Wrap(err, "updating school")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return school.School{}, school.ErrNotFound
	}
	return sch, nil
}

func (repo *SchoolRepo) UpdateSubscription(ctx context.Context, id, status, planType string, expiresAt time.Time) error {
	query := `
		UPDATE school SET
			subscription_status = $1, plan_type = $2, subscription_expires_at = $3, updated_at = now()
		WHERE id = $4`
	res, err := repo.db.ExecContext(ctx, query, status, planType, timeOrNull(expiresAt), id)
	if err != nil {
		return errors.Wrap(err, "patching subscription")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return school.ErrNotFound
	}
	return nil
}

const licenseKeyColumns = `
	key, school_id, duration_value, duration_unit, plan_type, email_sent,
	is_activated, activated_at, created_at`

func (repo *SchoolRepo) scanLicenseKey(row sqlx.ColScanner) (school.LicenseKey, error) {
	var (
		lk          school.LicenseKey
		schoolID    sql.NullString
		activatedAt sql.NullTime
	)
	err := row.Scan(
		&lk.Key, &schoolID, &lk.DurationValue, &lk.DurationUnit, &lk.PlanType,
		&lk.EmailSent, &lk.IsActivated, &activatedAt, &lk.CreatedAt,
	)
	if err != nil {
		return school.LicenseKey{}, err
	}
	lk.SchoolID = fromNullStr(schoolID)
	lk.ActivatedAt = fromNullTime(activatedAt)
	return lk, nil
}

func (repo *SchoolRepo) CreateLicenseKey(ctx context.Context, lk school.LicenseKey) (school.LicenseKey, error) {
	query := `
		INSERT INTO license_key
		(key, school_id, duration_value, duration_unit, plan_type, email_sent, is_activated, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := repo.db.ExecContext(ctx, query,
		lk.Key, uuidOrNull(lk.SchoolID), lk.DurationValue, lk.DurationUnit,
		lk.PlanType, lk.EmailSent, lk.IsActivated, lk.CreatedAt,
	)
	if err != nil {
		return school.LicenseKey{}, errors.Wrap(err, "inserting license key")
	}
	return lk, nil
}

func (repo *SchoolRepo) GetLicenseKey(ctx context.Context, key string) (school.LicenseKey, error) {
	row := repo.db.QueryRowxContext(ctx, `SELECT `+licenseKeyColumns+` FROM license_key WHERE key = $1`, key)
	lk, err := repo.scanLicenseKey(row)
	if err == sql.ErrNoRows {
		return school.LicenseKey{}, school.ErrKeyNotFound
	}
	return lk, err
}

func (repo *SchoolRepo) QueryLicenseKeys(ctx context.Context) ([]school.LicenseKey, error) {
	rows, err := repo.db.QueryxContext(ctx, `SELECT `+licenseKeyColumns+` FROM license_key ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []school.LicenseKey
	for rows.Next() {
		lk, err := repo.scanLicenseKey(rows)
		if err != nil {
			return nil, err
		}
		keys = append(keys, lk)
	}
	return keys, rows.Err()
}

func (repo *SchoolRepo) UpdateLicenseKey(ctx context.Context, lk school.LicenseKey) (school.LicenseKey, error) {
	query := `
		UPDATE license_key SET
			school_id = $1, email_sent = $2, is_activated = $3, activated_at = $4
		WHERE key = $5`
	res, err := repo.db.ExecContext(ctx, query,
		uuidOrNull(lk.SchoolID), lk.EmailSent, lk.IsActivated, timeOrNull(lk.ActivatedAt), lk.Key,
	)
	if err != nil {
		return school.LicenseKey{}, errors.Wrap(err, "updating license key")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return school.LicenseKey{}, school.ErrKeyNotFound
	}
	return lk, nil
}
