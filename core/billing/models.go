package billing

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/darasa/darasa/core"
)

// Custom plan request statuses
const (
	RequestPending   = "pending"
	RequestContacted = "contacted"
	RequestClosed    = "closed"
)

// Payment order statuses
const (
	OrderCreated = "created"
	OrderPaid    = "paid"
	OrderFailed  = "failed"
)

// Regular plan price, in paise per month.
const MonthlyRatePaise int64 = 99900

type (
	// CustomPlanRequest is a sales lead: an institute too large or too odd
	// for the regular plan asks to be contacted.
	CustomPlanRequest struct {
		ID           string    `json:"id"`
		SchoolID     string    `json:"school_id"`
		ContactName  string    `json:"contact_name"`
		ContactEmail string    `json:"contact_email"`
		ContactPhone string    `json:"contact_phone"`
		StudentCount int       `json:"student_count"`
		Message      string    `json:"message,omitempty"`
		Status       string    `json:"status"`
		CreatedAt    time.Time `json:"created_at"` // UTC
	}

	// PaymentOrder tracks one gateway order through created > paid/failed.
	PaymentOrder struct {
		ID              string    `json:"id"`
		SchoolID        string    `json:"school_id"`
		ProviderOrderID string    `json:"provider_order_id"`
		Months          int       `json:"months"`
		AmountPaise     int64     `json:"amount_paise"`
		Currency        string    `json:"currency"`
		Status          string    `json:"status"`
		PaymentID       string    `json:"payment_id,omitempty"`
		CreatedAt       time.Time `json:"created_at"` // UTC
		UpdatedAt       time.Time `json:"updated_at"` // UTC
	}
)

type NewCustomPlanRequest struct {
	ContactName  string `json:"contact_name" validate:"required"`
	ContactEmail string `json:"contact_email" validate:"required,email"`
	ContactPhone string `json:"contact_phone"`
	StudentCount int    `json:"student_count" validate:"required,min=1"`
	Message      string `json:"message" validate:"max=2000"`
}

func (nr *NewCustomPlanRequest) Validate(validate *validator.Validate) error {
	nr.ContactName = core.CleanString(nr.ContactName)
	nr.ContactEmail = core.CleanString(nr.ContactEmail, true /* lower */)
	nr.ContactPhone = core.CleanString(nr.ContactPhone)
	nr.Message = core.CleanString(nr.Message)
	return validate.Struct(nr)
}

type NewOrder struct {
	Months int `json:"months" validate:"required,min=1,max=24"`
}

func (no *NewOrder) Validate(validate *validator.Validate) error {
	return validate.Struct(no)
}

// PaymentConfirmation carries the gateway's callback payload back to us.
type PaymentConfirmation struct {
	OrderID   string `json:"order_id" validate:"required"`
	PaymentID string `json:"payment_id" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}

func (pc *PaymentConfirmation) Validate(validate *validator.Validate) error {
	return validate.Struct(pc)
}
