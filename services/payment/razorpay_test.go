package paymentsvc

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/darasa/darasa/core/billing"
)

func sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	g := &razorpayGateway{keySecret: "test-secret"}

	orderID, paymentID := "order_Ee4X5u7Q", "pay_Jf8a2bC"
	good := sign("test-secret", orderID, paymentID)

	if err := g.VerifySignature(orderID, paymentID, good); err != nil {
		t.Errorf("valid signature rejected: %v", err)
	}
	if err := g.VerifySignature(orderID, paymentID, "deadbeef"); err != billing.ErrInvalidSignature {
		t.Errorf("tampered signature = %v, want ErrInvalidSignature", err)
	}
	if err := g.VerifySignature(orderID, "pay_other", good); err != billing.ErrInvalidSignature {
		t.Errorf("signature for another payment = %v, want ErrInvalidSignature", err)
	}
}
