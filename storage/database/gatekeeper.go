package database

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/darasa/darasa/core/gatekeeper"
)

type GatekeeperRepo struct {
	db *sqlx.DB
}

var _ gatekeeper.Repository = (*GatekeeperRepo)(nil)

func NewGatekeeperRepo(db *sqlx.DB) *GatekeeperRepo {
	return &GatekeeperRepo{db: db}
}

const gatekeeperColumns = `
	id, school_id, account_id, gatekeeper_id, full_name, shift_start, shift_end,
	gate_number, status, created_at, updated_at`

func (repo *GatekeeperRepo) scanGatekeeper(row sqlx.ColScanner) (gatekeeper.Gatekeeper, error) {
	var g gatekeeper.Gatekeeper
	err := row.Scan(
		&g.ID, &g.SchoolID, &g.AccountID, &g.GatekeeperID, &g.FullName,
		&g.ShiftStart, &g.ShiftEnd, &g.GateNumber, &g.Status, &g.CreatedAt, &g.UpdatedAt,
	)
	return g, err
}

func (repo *GatekeeperRepo) CreateGatekeeper(ctx context.Context, g gatekeeper.Gatekeeper) (gatekeeper.Gatekeeper, error) {
	query := `
		INSERT INTO gatekeeper
		(school_id, account_id, gatekeeper_id, full_name, shift_start, shift_end,
		 gate_number, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	err := repo.db.QueryRowContext(ctx, query,
		g.SchoolID, g.AccountID, g.GatekeeperID, g.FullName, g.ShiftStart, g.ShiftEnd,
		g.GateNumber, g.Status, g.CreatedAt, g.UpdatedAt,
	).Scan(&g.ID)
	if err != nil {
		return gatekeeper.Gatekeeper{}, errors.Wrap(err, "inserting gatekeeper")
	}
	return g, nil
}

func (repo *GatekeeperRepo) GetGatekeeperByID(ctx context.Context, schoolID, id string) (gatekeeper.Gatekeeper, error) {
	row := repo.db.QueryRowxContext(ctx,
		`SELECT `+gatekeeperColumns+` FROM gatekeeper WHERE school_id = $1 AND id = $2`, schoolID, id)
	g, err := repo.scanGatekeeper(row)
	if err == sql.ErrNoRows {
		return gatekeeper.Gatekeeper{}, gatekeeper.ErrNotFound
	}
	return g, err
}

func (repo *GatekeeperRepo) GetGatekeeperByAccount(ctx context.Context, accountID string) (gatekeeper.Gatekeeper, error) {
	row := repo.db.QueryRowxContext(ctx,
		`SELECT `+gatekeeperColumns+` FROM gatekeeper WHERE account_id = $1`, accountID)
	g, err := repo.scanGatekeeper(row)
	if err == sql.ErrNoRows {
		return gatekeeper.Gatekeeper{}, gatekeeper.ErrNotFound
	}
	return g, err
}

func (repo *GatekeeperRepo) QueryGatekeepers(ctx context.Context, schoolID string) ([]gatekeeper.Gatekeeper, error) {
	rows, err := repo.db.QueryxContext(ctx,
		`SELECT `+gatekeeperColumns+` FROM gatekeeper WHERE school_id = $1 ORDER BY gatekeeper_id`, schoolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var gatekeepers []gatekeeper.Gatekeeper
	for rows.Next() {
		g, err := repo.scanGatekeeper(rows)
		if err != nil {
			return nil, err
		}
		gatekeepers = append(gatekeepers, g)
	}
	return gatekeepers, rows.Err()
}

func (repo *GatekeeperRepo) UpdateGatekeeper(ctx context.Context, g gatekeeper.Gatekeeper) (gatekeeper.Gatekeeper, error) {
	query := `
		UPDATE gatekeeper SET
			full_name = $1, shift_start = $2, shift_end = $3, gate_number = $4,
			status = $5, updated_at = $6
		WHERE school_id = $7 AND id = $8`
	res, err := repo.db.ExecContext(ctx, query,
		g.FullName, g.ShiftStart, g.ShiftEnd, g.GateNumber, g.Status, g.UpdatedAt,
		g.SchoolID, g.ID,
	)
	if err != nil {
		return gatekeeper.Gatekeeper{}, errors.Wrap(err, "updating gatekeeper")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return gatekeeper.Gatekeeper{}, gatekeeper.ErrNotFound
	}
	return g, nil
}

func (repo *GatekeeperRepo) DeleteGatekeeper(ctx context.Context, schoolID, id string) error {
	res, err := repo.db.ExecContext(ctx,
		`DELETE FROM gatekeeper WHERE school_id = $1 AND id = $2`, schoolID, id)
	if err != nil {
		return errors.Wrap(err, "deleting gatekeeper")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return gatekeeper.ErrNotFound
	}
	return nil
}
