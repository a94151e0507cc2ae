package billing

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/darasa/darasa/core"
	"github.com/darasa/darasa/core/school"
)

var (
	// errors
	ErrOrderNotFound    = errors.New("payment order not found")
	ErrOrderClosed      = errors.New("payment order is already settled")
	ErrInvalidSignature = errors.New("payment signature verification failed")
)

type (
	// Gateway is the payment provider. The razorpay implementation lives in
	// services/payment.
	Gateway interface {
		// CreateOrder registers an order with the provider and returns its ID.
		CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string) (string, error)
		// VerifySignature checks the provider's HMAC over (orderID, paymentID).
		VerifySignature(providerOrderID, paymentID, signature string) error
	}

	Repository interface {
		CreatePlanRequest(ctx context.Context, req CustomPlanRequest) (CustomPlanRequest, error)
		QueryPlanRequests(ctx context.Context, schoolID string) ([]CustomPlanRequest, error)

		CreateOrder(ctx context.Context, ord PaymentOrder) (PaymentOrder, error)
		GetOrderByID(ctx context.Context, schoolID, id string) (PaymentOrder, error)
		UpdateOrder(ctx context.Context, ord PaymentOrder) (PaymentOrder, error)
		QueryOrders(ctx context.Context, schoolID string) ([]PaymentOrder, error)
	}

	Service struct {
		repo    Repository
		gateway Gateway
		schools *school.Service
		logger  core.Logger
	}
)

func NewService(repo Repository, gateway Gateway, schools *school.Service, logger core.Logger) *Service {
	return &Service{repo: repo, gateway: gateway, schools: schools, logger: logger}
}

func (svc *Service) RequestCustomPlan(ctx context.Context, schoolID string, nr NewCustomPlanRequest) (CustomPlanRequest, error) {
	req := CustomPlanRequest{
		SchoolID:     schoolID,
		ContactName:  nr.ContactName,
		ContactEmail: nr.ContactEmail,
		ContactPhone: nr.ContactPhone,
		StudentCount: nr.StudentCount,
		Message:      nr.Message,
		Status:       RequestPending,
		CreatedAt:    time.Now().UTC(),
	}
	return svc.repo.CreatePlanRequest(ctx, req)
}

func (svc *Service) QueryPlanRequests(ctx context.Context, schoolID string) ([]CustomPlanRequest, error) {
	return svc.repo.QueryPlanRequests(ctx, schoolID)
}

// CreateOrder registers a regular-plan order with the gateway and stores it.
// Gateway rate limiting surfaces as a RateLimitedError for the API layer to
// translate; nothing is stored in that case.
func (svc *Service) CreateOrder(ctx context.Context, schoolID string, no NewOrder) (PaymentOrder, error) {
	now := time.Now().UTC()
	ord := PaymentOrder{
		SchoolID:    schoolID,
		Months:      no.Months,
		AmountPaise: int64(no.Months) * MonthlyRatePaise,
		Currency:    "INR",
		Status:      OrderCreated,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	receipt := schoolID + "-" + now.Format("20060102150405")
	providerID, err := svc.gateway.CreateOrder(ctx, ord.AmountPaise, ord.Currency, receipt)
	if err != nil {
		return PaymentOrder{}, errors.Wrap(err, "creating gateway order")
	}
	ord.ProviderOrderID = providerID
	return svc.repo.CreateOrder(ctx, ord)
}

func (svc *Service) GetOrder(ctx context.Context, schoolID, id string) (PaymentOrder, error) {
	return svc.repo.GetOrderByID(ctx, schoolID, id)
}

func (svc *Service) QueryOrders(ctx context.Context, schoolID string) ([]PaymentOrder, error) {
	return svc.repo.QueryOrders(ctx, schoolID)
}

// ConfirmPayment verifies the gateway signature and, on success, marks the
// order paid and extends the school's subscription by the order's months.
// A bad signature marks the order failed.
func (svc *Service) ConfirmPayment(ctx context.Context, schoolID string, pc PaymentConfirmation, now time.Time) (PaymentOrder, error) {
	ord, err := svc.repo.GetOrderByID(ctx, schoolID, pc.OrderID)
	if err != nil {
		return PaymentOrder{}, err
	}
	if ord.Status != OrderCreated {
		return PaymentOrder{}, ErrOrderClosed
	}

	if err = svc.gateway.VerifySignature(ord.ProviderOrderID, pc.PaymentID, pc.Signature); err != nil {
		ord.Status = OrderFailed
		ord.UpdatedAt = now.UTC()
		if _, uerr := svc.repo.UpdateOrder(ctx, ord); uerr != nil {
			svc.logger.Warn("marking order failed", uerr)
		}
		return PaymentOrder{}, ErrInvalidSignature
	}

	ord.Status = OrderPaid
	ord.PaymentID = pc.PaymentID
	ord.UpdatedAt = now.UTC()
	ord, err = svc.repo.UpdateOrder(ctx, ord)
	if err != nil {
		return PaymentOrder{}, errors.Wrap(err, "marking order paid")
	}

	if _, err = svc.schools.ExtendSubscription(ctx, schoolID, ord.Months, now); err != nil {
		// the payment is captured; surface the inconsistency loudly
		return ord, errors.Wrap(err, "extending subscription")
	}
	return ord, nil
}
