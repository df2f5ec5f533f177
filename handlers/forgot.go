package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/mr-sankar/Sindhuur-backend-latest/database"
	"github.com/mr-sankar/Sindhuur-backend-latest/otp"
)

// ForgotPassword issues a password-reset code. The response is identical
// whether or not the email has an account, to prevent enumeration.
func ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email is required"})
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	generic := gin.H{"message": "If that email exists, a reset code has been sent."}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	code, err := otpService.IssueCode(ctx, email)
	if errors.Is(err, otp.ErrNoAccount) {
		c.JSON(http.StatusOK, generic)
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	if mail != nil {
		body := fmt.Sprintf("Your password reset code is %s. It expires in 10 minutes.", code)
		if err := mail.Send(email, "Your password reset code", body); err != nil {
			log.WithError(err).Error("failed to send reset code email")
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
			return
		}
	} else {
		log.WithField("email", email).Warn("mailer not configured, reset code not delivered")
	}

	c.JSON(http.StatusOK, generic)
}

// VerifyResetOTP checks the reset code and, on success, returns a short-lived
// reset token that authorizes exactly one password change.
func VerifyResetOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
		OTP   string `json:"otp" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email and OTP are required"})
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := otpService.VerifyCode(ctx, email, req.OTP)
	switch {
	case err == nil:
	case errors.Is(err, otp.ErrTooManyAttempts):
		c.JSON(http.StatusTooManyRequests, gin.H{"message": "Too many attempts. Request a new code."})
		return
	case errors.Is(err, otp.ErrMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid code"})
		return
	case errors.Is(err, otp.ErrNoAccount), errors.Is(err, otp.ErrNoCode), errors.Is(err, otp.ErrExpired):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid or expired code"})
		return
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	userID, err := userIDForEmail(ctx, email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	resetToken, err := otpService.IssueResetToken(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "OTP verified", "resetToken": resetToken})
}

// ResetPassword sets a new password. Preferred flow presents the reset token
// from VerifyResetOTP; the fallback re-verifies email plus code server-side.
func ResetPassword(c *gin.Context) {
	var req struct {
		ResetToken string `json:"resetToken"`
		Email      string `json:"email"`
		OTP        string `json:"otp"`
		Password   string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Password) < 8 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Password must be at least 8 characters"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var identity string

	if req.ResetToken != "" {
		uid, err := otpService.RedeemResetToken(ctx, req.ResetToken)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid or expired reset token"})
			return
		}
		identity = uid
	} else {
		if req.Email == "" || req.OTP == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Email and OTP required"})
			return
		}
		email := strings.ToLower(strings.TrimSpace(req.Email))
		err := otpService.VerifyCode(ctx, email, req.OTP)
		switch {
		case err == nil:
			identity = email
		case errors.Is(err, otp.ErrTooManyAttempts):
			c.JSON(http.StatusTooManyRequests, gin.H{"message": "Too many attempts. Request a new code."})
			return
		case errors.Is(err, otp.ErrMismatch):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid code"})
			return
		default:
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid or expired code"})
			return
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	res, err := database.Users.UpdateOne(ctx, credentialFilter(identity),
		bson.M{"$set": bson.M{"credentials.password": string(hashed)}})
	if err != nil || res.MatchedCount == 0 {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	// Invalidate the code and token so neither can authorize a second reset.
	if err := otpService.ClearCredential(ctx, identity); err != nil {
		log.WithError(err).Error("failed to clear reset credential")
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}

func userIDForEmail(ctx context.Context, email string) (string, error) {
	var doc struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	err := database.Users.FindOne(ctx, bson.M{"personalInfo.email": email}).Decode(&doc)
	if err != nil {
		return "", err
	}
	return doc.ID.Hex(), nil
}
