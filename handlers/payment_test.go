package handlers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func paymentRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/payment/initiate", InitiatePayment)
	r.POST("/api/payment/verify", VerifyPayment)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func signOrder(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestInitiatePaymentRejectsUnknownPlan(t *testing.T) {
	r := paymentRouter()

	for _, plan := range []string{"gold", "free"} {
		w := postJSON(t, r, "/api/payment/initiate", gin.H{"plan": plan, "userId": "KM1"})
		if w.Code != http.StatusBadRequest {
			t.Errorf("plan %q: status = %d, want 400", plan, w.Code)
		}
	}
}

func TestInitiatePaymentWithoutGateway(t *testing.T) {
	prev := payGateway
	SetGateway(nil)
	defer SetGateway(prev)

	r := paymentRouter()
	w := postJSON(t, r, "/api/payment/initiate", gin.H{"plan": "premium", "userId": "KM1"})
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

// A bad signature is rejected before the order record is ever looked at.
func TestVerifyPaymentRejectsBadSignature(t *testing.T) {
	t.Setenv("RAZORPAY_SECRET", "test-secret")
	r := paymentRouter()

	w := postJSON(t, r, "/api/payment/verify", gin.H{
		"razorpay_order_id":   "order_123",
		"razorpay_payment_id": "pay_456",
		"razorpay_signature":  "forged",
		"paymentId":           "64b0c8f2a1d2e3f405060708",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var resp struct {
		Message string `json:"message"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Message != "Invalid signature" {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestVerifyPaymentMalformedRecordID(t *testing.T) {
	t.Setenv("RAZORPAY_SECRET", "test-secret")
	r := paymentRouter()

	w := postJSON(t, r, "/api/payment/verify", gin.H{
		"razorpay_order_id":   "order_123",
		"razorpay_payment_id": "pay_456",
		"razorpay_signature":  signOrder("order_123", "pay_456", "test-secret"),
		"paymentId":           "not-an-object-id",
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
