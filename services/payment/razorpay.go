// Package paymentsvc implements the billing gateway on Razorpay Orders.
package paymentsvc

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
	razorpay "github.com/razorpay/razorpay-go"

	"github.com/darasa/darasa/core"
	"github.com/darasa/darasa/core/billing"
)

type razorpayGateway struct {
	client    *razorpay.Client
	keySecret string
	logger    core.Logger
}

var _ billing.Gateway = (*razorpayGateway)(nil)

func NewRazorpayGateway(logger core.Logger) *razorpayGateway {
	conf := core.Conf.Razorpay
	return &razorpayGateway{
		client:    razorpay.NewClient(conf.KeyID, conf.KeySecret),
		keySecret: conf.KeySecret,
		logger:    logger,
	}
}

func (g *razorpayGateway) CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string) (string, error) {
	data := map[string]interface{}{
		"amount":   amountPaise,
		"currency": currency,
		"receipt":  receipt,
	}
	body, err := g.client.Order.Create(data, nil)
	if err != nil {
		if isRateLimited(err) {
			return "", &core.RateLimitedError{Provider: "razorpay"}
		}
		return "", errors.Wrap(err, "razorpay order create")
	}

	id, ok := body["id"].(string)
	if !ok || id == "" {
		return "", errors.Errorf("razorpay order create: no order id in response %v", body)
	}
	return id, nil
}

// VerifySignature recomputes the checkout signature: HMAC-SHA256 of
// "<order_id>|<payment_id>" keyed with the API secret, hex-encoded.
func (g *razorpayGateway) VerifySignature(providerOrderID, paymentID, signature string) error {
	mac := hmac.New(sha256.New, []byte(g.keySecret))
	mac.Write([]byte(providerOrderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return billing.ErrInvalidSignature
	}
	return nil
}

// isRateLimited sniffs the provider error for throttling; razorpay-go does not
// expose the HTTP status code on its error types.
func isRateLimited(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "too many requests")
}
