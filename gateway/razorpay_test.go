package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func sign(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	const secret = "shhh"
	sig := sign("order_123", "pay_456", secret)

	if !VerifySignature("order_123", "pay_456", sig, secret) {
		t.Error("valid signature rejected")
	}
	if VerifySignature("order_123", "pay_457", sig, secret) {
		t.Error("signature accepted for a different payment id")
	}
	if VerifySignature("order_123", "pay_456", sig, "wrong") {
		t.Error("signature accepted under a different secret")
	}
	if VerifySignature("order_123", "pay_456", sig+"00", secret) {
		t.Error("padded signature accepted")
	}
	if VerifySignature("order_123", "pay_456", "", secret) {
		t.Error("empty signature accepted")
	}
}
