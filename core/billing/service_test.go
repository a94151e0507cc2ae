package billing_test

import (
	"context"
	"fmt"
	"io"
	"log"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/darasa/darasa/core"
	"github.com/darasa/darasa/core/billing"
	"github.com/darasa/darasa/core/school"
	"github.com/darasa/darasa/storage/inmem"
)

type fakeGateway struct {
	orders int
}

func (g *fakeGateway) CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string) (string, error) {
	g.orders++
	return fmt.Sprintf("order_rzp_%d", g.orders), nil
}

func (g *fakeGateway) VerifySignature(providerOrderID, paymentID, signature string) error {
	if signature != "good" {
		return billing.ErrInvalidSignature
	}
	return nil
}

func newBillingFixture(t *testing.T) (*billing.Service, *school.Service, school.School) {
	t.Helper()
	ctx := context.Background()
	logger := core.NewStdLogger(log.New(io.Discard, "", 0))

	schoolRepo := inmem.NewSchoolRepo()
	sch, err := schoolRepo.CreateSchool(ctx, school.School{
		Name:               "Sunrise Coaching",
		InstituteType:      school.TypeCoaching,
		SubscriptionStatus: school.SubTrial,
		PlanType:           school.PlanTrial,
	})
	if err != nil {
		t.Fatal(err)
	}

	schools := school.NewService(schoolRepo, nil, logger)
	svc := billing.NewService(inmem.NewBillingRepo(), &fakeGateway{}, schools, logger)
	return svc, schools, sch
}

func TestCreateOrder(t *testing.T) {
	svc, _, sch := newBillingFixture(t)
	ctx := context.Background()

	ord, err := svc.CreateOrder(ctx, sch.ID, billing.NewOrder{Months: 6})
	if err != nil {
		t.Fatal(err)
	}
	if ord.AmountPaise != 6*billing.MonthlyRatePaise {
		t.Errorf("amount = %d, want %d", ord.AmountPaise, 6*billing.MonthlyRatePaise)
	}
	if ord.Status != billing.OrderCreated {
		t.Errorf("status = %q, want %q", ord.Status, billing.OrderCreated)
	}
	if ord.ProviderOrderID == "" {
		t.Error("provider order ID not set")
	}
}

func TestConfirmPayment(t *testing.T) {
	svc, schools, sch := newBillingFixture(t)
	ctx := context.Background()
	now := time.Date(2024, time.March, 11, 10, 0, 0, 0, time.UTC)

	ord, err := svc.CreateOrder(ctx, sch.ID, billing.NewOrder{Months: 2})
	if err != nil {
		t.Fatal(err)
	}

	ord, err = svc.ConfirmPayment(ctx, sch.ID, billing.PaymentConfirmation{
		OrderID:   ord.ID,
		PaymentID: "pay_123",
		Signature: "good",
	}, now)
	if err != nil {
		t.Fatal(err)
	}
	if ord.Status != billing.OrderPaid || ord.PaymentID != "pay_123" {
		t.Errorf("order = %+v, want paid with pay_123", ord)
	}

	got, err := schools.GetByID(ctx, sch.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.SubscriptionStatus != school.SubActive || got.PlanType != school.PlanRegular {
		t.Errorf("school = %s/%s, want active/regular", got.SubscriptionStatus, got.PlanType)
	}
	if want := now.AddDate(0, 2, 0); !got.SubscriptionExpiresAt.Equal(want) {
		t.Errorf("expiry = %v, want %v", got.SubscriptionExpiresAt, want)
	}

	// a settled order cannot be confirmed twice
	_, err = svc.ConfirmPayment(ctx, sch.ID, billing.PaymentConfirmation{
		OrderID: ord.ID, PaymentID: "pay_123", Signature: "good",
	}, now)
	if errors.Cause(err) != billing.ErrOrderClosed {
		t.Errorf("second confirm = %v, want ErrOrderClosed", err)
	}
}

func TestConfirmPaymentBadSignature(t *testing.T) {
	svc, schools, sch := newBillingFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	ord, err := svc.CreateOrder(ctx, sch.ID, billing.NewOrder{Months: 1})
	if err != nil {
		t.Fatal(err)
	}

	_, err = svc.ConfirmPayment(ctx, sch.ID, billing.PaymentConfirmation{
		OrderID:   ord.ID,
		PaymentID: "pay_123",
		Signature: "tampered",
	}, now)
	if errors.Cause(err) != billing.ErrInvalidSignature {
		t.Fatalf("err = %v, want ErrInvalidSignature", err)
	}

	got, err := svc.GetOrder(ctx, sch.ID, ord.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != billing.OrderFailed {
		t.Errorf("order status = %q, want %q", got.Status, billing.OrderFailed)
	}
	// subscription untouched
	schGot, _ := schools.GetByID(ctx, sch.ID)
	if schGot.SubscriptionStatus != school.SubTrial {
		t.Errorf("school status = %q, want trial", schGot.SubscriptionStatus)
	}
}
