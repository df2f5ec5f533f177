// Package gateway wraps the external payment provider. Order creation goes
// through an interface so handlers can be exercised without network calls;
// signature verification is pure and shared by both.
package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	razorpay "github.com/razorpay/razorpay-go"
)

var ErrOrderCreate = errors.New("gateway: order creation failed")

type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type Gateway interface {
	// CreateOrder opens an order for amount in the smallest currency unit.
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*Order, error)
}

type Razorpay struct {
	client *razorpay.Client
	secret string
}

// NewRazorpayFromEnv returns a configured gateway or nil when the key pair
// is not set.
func NewRazorpayFromEnv() *Razorpay {
	keyID := os.Getenv("RAZORPAY_KEY_ID")
	secret := os.Getenv("RAZORPAY_SECRET")
	if keyID == "" || secret == "" {
		return nil
	}
	return &Razorpay{client: razorpay.NewClient(keyID, secret), secret: secret}
}

func (r *Razorpay) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*Order, error) {
	data := map[string]interface{}{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
	}
	body, err := r.client.Order.Create(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOrderCreate, err)
	}

	id, _ := body["id"].(string)
	if id == "" {
		return nil, ErrOrderCreate
	}
	return &Order{ID: id, Amount: amount, Currency: currency, Receipt: receipt}, nil
}

// VerifySignature recomputes the keyed hash over "orderID|paymentID" and
// compares it to the signature the client relayed from the gateway. This is
// the sole authenticity check for a completed payment.
func VerifySignature(orderID, paymentID, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
