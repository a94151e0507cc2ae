package database

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/darasa/darasa/core/billing"
)

type BillingRepo struct {
	db *sqlx.DB
}

var _ billing.Repository = (*BillingRepo)(nil)

func NewBillingRepo(db *sqlx.DB) *BillingRepo {
	return &BillingRepo{db: db}
}

func (repo *BillingRepo) CreatePlanRequest(ctx context.Context, req billing.CustomPlanRequest) (billing.CustomPlanRequest, error) {
	query := `
		INSERT INTO custom_plan_request
		(school_id, contact_name, contact_email, contact_phone, student_count, message, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	err := repo.db.QueryRowContext(ctx, query,
		req.SchoolID, req.ContactName, req.ContactEmail, req.ContactPhone,
		req.StudentCount, req.Message, req.Status, req.CreatedAt,
	).Scan(&req.ID)
	if err != nil {
		return billing.CustomPlanRequest{}, errors.Wrap(err, "inserting plan request")
	}
	return req, nil
}

func (repo *BillingRepo) QueryPlanRequests(ctx context.Context, schoolID string) ([]billing.CustomPlanRequest, error) {
	query := `
		SELECT id, school_id, contact_name, contact_email, contact_phone, student_count,
		       message, status, created_at
		FROM custom_plan_request
		WHERE school_id = $1
		ORDER BY created_at DESC`
	rows, err := repo.db.QueryContext(ctx, query, schoolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reqs []billing.CustomPlanRequest
	for rows.Next() {
		var req billing.CustomPlanRequest
		err = rows.Scan(&req.ID, &req.SchoolID, &req.ContactName, &req.ContactEmail,
			&req.ContactPhone, &req.StudentCount, &req.Message, &req.Status, &req.CreatedAt)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

const orderColumns = `
	id, school_id, provider_order_id, months, amount_paise, currency, status,
	payment_id, created_at, updated_at`

func (repo *BillingRepo) scanOrder(row sqlx.ColScanner) (billing.PaymentOrder, error) {
	var ord billing.PaymentOrder
	err := row.Scan(
		&ord.ID, &ord.SchoolID, &ord.ProviderOrderID, &ord.Months, &ord.AmountPaise,
		&ord.Currency, &ord.Status, &ord.PaymentID, &ord.CreatedAt, &ord.UpdatedAt,
	)
	return ord, err
}

func (repo *BillingRepo) CreateOrder(ctx context.Context, ord billing.PaymentOrder) (billing.PaymentOrder, error) {
	query := `
		INSERT INTO payment_order
		(school_id, provider_order_id, months, amount_paise, currency, status,
		 payment_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	err := repo.db.QueryRowContext(ctx, query,
		ord.SchoolID, ord.ProviderOrderID, ord.Months, ord.AmountPaise, ord.Currency,
		ord.Status, ord.PaymentID, ord.CreatedAt, ord.UpdatedAt,
	).Scan(&ord.ID)
	if err != nil {
		return billing.PaymentOrder{}, errors.Wrap(err, "inserting payment order")
	}
	return ord, nil
}

func (repo *BillingRepo) GetOrderByID(ctx context.Context, schoolID, id string) (billing.PaymentOrder, error) {
	row := repo.db.QueryRowxContext(ctx,
		`SELECT `+orderColumns+` FROM payment_order WHERE school_id = $1 AND id = $2`, schoolID, id)
	ord, err := repo.scanOrder(row)
	if err == sql.ErrNoRows {
		return billing.PaymentOrder{}, billing.ErrOrderNotFound
	}
	return ord, err
}

func (repo *BillingRepo) UpdateOrder(ctx context.Context, ord billing.PaymentOrder) (billing.PaymentOrder, error) {
	query := `
		UPDATE payment_order SET
			status = $1, payment_id = $2, updated_at = $3
		WHERE id = $4`
	res, err := repo.db.ExecContext(ctx, query, ord.Status, ord.PaymentID, ord.UpdatedAt, ord.ID)
	if err != nil {
		return billing.PaymentOrder{}, errors.Wrap(err, "updating payment order")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return billing.PaymentOrder{}, billing.ErrOrderNotFound
	}
	return ord, nil
}

func (repo *BillingRepo) QueryOrders(ctx context.Context, schoolID string) ([]billing.PaymentOrder, error) {
	rows, err := repo.db.QueryxContext(ctx,
		`SELECT `+orderColumns+` FROM payment_order WHERE school_id = $1 ORDER BY created_at DESC`, schoolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []billing.PaymentOrder
	for rows.Next() {
		ord, err := repo.scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, ord)
	}
	return orders, rows.Err()
}
