// Package otp implements the one-time-code and password-reset-token flows.
// Only one-way hashes of codes and tokens are ever persisted; the plaintext
// code exists just long enough to be emailed, and the reset token is a signed
// JWT whose hash binds it to exactly one account.
package otp

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mr-sankar/Sindhuur-backend-latest/models"
)

const (
	CodeTTL        = 10 * time.Minute
	ResetTokenTTL  = 15 * time.Minute
	MaxAttempts    = 5
	resetTokenType = "pwd_reset"
)

var (
	ErrNoAccount       = errors.New("otp: no such account")
	ErrNoCode          = errors.New("otp: no code pending")
	ErrExpired         = errors.New("otp: code expired")
	ErrTooManyAttempts = errors.New("otp: too many attempts")
	ErrMismatch        = errors.New("otp: code mismatch")
	ErrInvalidToken    = errors.New("otp: invalid reset token")
)

// Store persists per-account credential state. The identity argument is
// either the account email or the account's object id hex, both of which
// must resolve to the same record.
type Store interface {
	Credential(ctx context.Context, identity string) (*models.OTPCredential, error)
	SaveCredential(ctx context.Context, identity string, cred models.OTPCredential) error
}

type Service struct {
	store  Store
	secret []byte

	// now is swappable in tests.
	now func() time.Time
}

func NewService(store Store, secret []byte) *Service {
	return &Service{store: store, secret: secret, now: time.Now}
}

// IssueCode generates a fresh 6-digit code, persists its hash with a new
// expiry and a zeroed attempt counter, and returns the plaintext for
// out-of-band delivery.
func (s *Service) IssueCode(ctx context.Context, identity string) (string, error) {
	cred, err := s.store.Credential(ctx, identity)
	if err != nil {
		return "", err
	}

	code, err := generateCode()
	if err != nil {
		return "", err
	}

	cred.Code = hashString(code)
	cred.ExpiresAt = s.now().Add(CodeTTL)
	cred.Attempts = 0
	cred.ResetTokenHash = ""

	if err := s.store.SaveCredential(ctx, identity, *cred); err != nil {
		return "", err
	}
	return code, nil
}

// VerifyCode checks a candidate against the pending code. The attempt
// counter is persisted on every failure path so the lockout survives
// restarts; success marks the credential verified without reissuing a code.
func (s *Service) VerifyCode(ctx context.Context, identity, candidate string) error {
	cred, err := s.store.Credential(ctx, identity)
	if err != nil {
		return err
	}
	if cred.Code == "" {
		return ErrNoCode
	}
	if cred.ExpiresAt.IsZero() || s.now().After(cred.ExpiresAt) {
		return ErrExpired
	}
	if cred.Attempts >= MaxAttempts {
		if err := s.store.SaveCredential(ctx, identity, *cred); err != nil {
			return err
		}
		return ErrTooManyAttempts
	}
	if subtle.ConstantTimeCompare([]byte(hashString(candidate)), []byte(cred.Code)) != 1 {
		cred.Attempts++
		if err := s.store.SaveCredential(ctx, identity, *cred); err != nil {
			return err
		}
		return ErrMismatch
	}

	cred.Verified = true
	return s.store.SaveCredential(ctx, identity, *cred)
}

type resetClaims struct {
	UID  string `json:"uid"`
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// IssueResetToken mints a short-lived signed credential bound to the user and
// stores only its hash, so a fresh issue (or a completed reset) invalidates
// any previously leaked token.
func (s *Service) IssueResetToken(ctx context.Context, userID string) (string, error) {
	cred, err := s.store.Credential(ctx, userID)
	if err != nil {
		return "", err
	}

	now := s.now()
	claims := resetClaims{
		UID:  userID,
		Type: resetTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ResetTokenTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", err
	}

	cred.ResetTokenHash = hashString(token)
	if err := s.store.SaveCredential(ctx, userID, *cred); err != nil {
		return "", err
	}
	return token, nil
}

// RedeemResetToken validates the signed credential and its stored hash and
// returns the bound user id. The caller must clear the credential after the
// password write; until then the token would still redeem.
func (s *Service) RedeemResetToken(ctx context.Context, token string) (string, error) {
	claims := &resetClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid || claims.Type != resetTokenType || claims.UID == "" {
		return "", ErrInvalidToken
	}

	cred, err := s.store.Credential(ctx, claims.UID)
	if err != nil || cred.ResetTokenHash == "" {
		return "", ErrInvalidToken
	}
	if subtle.ConstantTimeCompare([]byte(hashString(token)), []byte(cred.ResetTokenHash)) != 1 {
		return "", ErrInvalidToken
	}
	return claims.UID, nil
}

// ClearCredential wipes the challenge state after a completed reset. The
// persistent verified flag is retained.
func (s *Service) ClearCredential(ctx context.Context, identity string) error {
	cred, err := s.store.Credential(ctx, identity)
	if err != nil {
		return err
	}
	verified := cred.Verified
	return s.store.SaveCredential(ctx, identity, models.OTPCredential{Verified: verified})
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

func hashString(v string) string {
	sum := sha256.Sum256([]byte(v))
	return hex.EncodeToString(sum[:])
}
