package otp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mr-sankar/Sindhuur-backend-latest/models"
)

// fakeStore keys records by identity and lets tests alias an email and a
// user id to the same record, like the users collection does.
type fakeStore struct {
	records map[string]*models.OTPCredential
	aliases map[string]string
	saves   int
}

func newFakeStore(identities ...string) *fakeStore {
	s := &fakeStore{
		records: make(map[string]*models.OTPCredential),
		aliases: make(map[string]string),
	}
	for _, id := range identities {
		s.records[id] = &models.OTPCredential{}
	}
	return s
}

func (s *fakeStore) resolve(identity string) string {
	if canonical, ok := s.aliases[identity]; ok {
		return canonical
	}
	return identity
}

func (s *fakeStore) Credential(_ context.Context, identity string) (*models.OTPCredential, error) {
	rec, ok := s.records[s.resolve(identity)]
	if !ok {
		return nil, ErrNoAccount
	}
	cp := *rec
	return &cp, nil
}

func (s *fakeStore) SaveCredential(_ context.Context, identity string, cred models.OTPCredential) error {
	if _, ok := s.records[s.resolve(identity)]; !ok {
		return ErrNoAccount
	}
	s.records[s.resolve(identity)] = &cred
	s.saves++
	return nil
}

func newTestService(store Store) *Service {
	return NewService(store, []byte("test-secret"))
}

func TestIssueCodeResetsAttempts(t *testing.T) {
	store := newFakeStore("a@example.com")
	store.records["a@example.com"].Attempts = 4

	svc := newTestService(store)
	code, err := svc.IssueCode(context.Background(), "a@example.com")
	if err != nil {
		t.Fatalf("IssueCode: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("code length = %d, want 6", len(code))
	}
	rec := store.records["a@example.com"]
	if rec.Attempts != 0 {
		t.Errorf("attempts = %d, want 0 after issue", rec.Attempts)
	}
	if rec.Code == code {
		t.Error("plaintext code was persisted")
	}
	if rec.ExpiresAt.IsZero() {
		t.Error("expiry not set")
	}
}

func TestVerifyCodeSuccess(t *testing.T) {
	store := newFakeStore("a@example.com")
	svc := newTestService(store)

	code, _ := svc.IssueCode(context.Background(), "a@example.com")
	if err := svc.VerifyCode(context.Background(), "a@example.com", code); err != nil {
		t.Fatalf("VerifyCode: %v", err)
	}
	if !store.records["a@example.com"].Verified {
		t.Error("credential not marked verified")
	}
}

func TestVerifyCodeMismatchIncrementsAttempts(t *testing.T) {
	store := newFakeStore("a@example.com")
	svc := newTestService(store)
	svc.IssueCode(context.Background(), "a@example.com")

	err := svc.VerifyCode(context.Background(), "a@example.com", "000000")
	if !errors.Is(err, ErrMismatch) {
		t.Fatalf("err = %v, want ErrMismatch", err)
	}
	if got := store.records["a@example.com"].Attempts; got != 1 {
		t.Errorf("attempts = %d, want 1", got)
	}
}

func TestVerifyCodeLockoutAfterMaxAttempts(t *testing.T) {
	store := newFakeStore("a@example.com")
	svc := newTestService(store)
	code, _ := svc.IssueCode(context.Background(), "a@example.com")

	for i := 0; i < MaxAttempts; i++ {
		if err := svc.VerifyCode(context.Background(), "a@example.com", "000000"); !errors.Is(err, ErrMismatch) {
			t.Fatalf("attempt %d: err = %v, want ErrMismatch", i, err)
		}
	}

	// Even the correct code is rejected once the ceiling is reached, and the
	// lockout is persisted.
	savesBefore := store.saves
	err := svc.VerifyCode(context.Background(), "a@example.com", code)
	if !errors.Is(err, ErrTooManyAttempts) {
		t.Fatalf("err = %v, want ErrTooManyAttempts", err)
	}
	if store.saves != savesBefore+1 {
		t.Error("lockout state was not persisted")
	}
}

func TestVerifyCodeExpired(t *testing.T) {
	store := newFakeStore("a@example.com")
	svc := newTestService(store)
	code, _ := svc.IssueCode(context.Background(), "a@example.com")

	svc.now = func() time.Time { return time.Now().Add(CodeTTL + time.Minute) }
	if err := svc.VerifyCode(context.Background(), "a@example.com", code); !errors.Is(err, ErrExpired) {
		t.Fatalf("err = %v, want ErrExpired", err)
	}
}

func TestVerifyCodeNoCodePending(t *testing.T) {
	store := newFakeStore("a@example.com")
	svc := newTestService(store)
	if err := svc.VerifyCode(context.Background(), "a@example.com", "123456"); !errors.Is(err, ErrNoCode) {
		t.Fatalf("err = %v, want ErrNoCode", err)
	}
}

func TestResetTokenRoundTrip(t *testing.T) {
	store := newFakeStore("64f000000000000000000001")
	svc := newTestService(store)

	token, err := svc.IssueResetToken(context.Background(), "64f000000000000000000001")
	if err != nil {
		t.Fatalf("IssueResetToken: %v", err)
	}

	uid, err := svc.RedeemResetToken(context.Background(), token)
	if err != nil {
		t.Fatalf("RedeemResetToken: %v", err)
	}
	if uid != "64f000000000000000000001" {
		t.Errorf("uid = %q", uid)
	}
}

func TestResetTokenSingleUse(t *testing.T) {
	store := newFakeStore("64f000000000000000000001")
	svc := newTestService(store)

	token, _ := svc.IssueResetToken(context.Background(), "64f000000000000000000001")
	if _, err := svc.RedeemResetToken(context.Background(), token); err != nil {
		t.Fatalf("first redeem: %v", err)
	}
	if err := svc.ClearCredential(context.Background(), "64f000000000000000000001"); err != nil {
		t.Fatalf("ClearCredential: %v", err)
	}
	if _, err := svc.RedeemResetToken(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("second redeem err = %v, want ErrInvalidToken", err)
	}
}

func TestResetTokenInvalidatedByReissue(t *testing.T) {
	store := newFakeStore("64f000000000000000000001")
	svc := newTestService(store)

	first, _ := svc.IssueResetToken(context.Background(), "64f000000000000000000001")
	second, _ := svc.IssueResetToken(context.Background(), "64f000000000000000000001")

	if _, err := svc.RedeemResetToken(context.Background(), first); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("stale token err = %v, want ErrInvalidToken", err)
	}
	if _, err := svc.RedeemResetToken(context.Background(), second); err != nil {
		t.Fatalf("fresh token: %v", err)
	}
}

func TestResetTokenTampered(t *testing.T) {
	store := newFakeStore("64f000000000000000000001")
	svc := newTestService(store)

	token, _ := svc.IssueResetToken(context.Background(), "64f000000000000000000001")
	tampered := token[:len(token)-2] + "xx"
	if _, err := svc.RedeemResetToken(context.Background(), tampered); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestResetTokenExpired(t *testing.T) {
	store := newFakeStore("64f000000000000000000001")
	svc := newTestService(store)

	token, _ := svc.IssueResetToken(context.Background(), "64f000000000000000000001")
	svc.now = func() time.Time { return time.Now().Add(ResetTokenTTL + time.Minute) }
	if _, err := svc.RedeemResetToken(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}
