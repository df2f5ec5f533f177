package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/mr-sankar/Sindhuur-backend-latest/database"
	"github.com/mr-sankar/Sindhuur-backend-latest/middleware"
	"github.com/mr-sankar/Sindhuur-backend-latest/models"
	"github.com/mr-sankar/Sindhuur-backend-latest/otp"
)

// SendEmailOTP issues the registration verification code and emails it.
func SendEmailOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email"})
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	code, err := otpService.IssueCode(ctx, email)
	if errors.Is(err, otp.ErrNoAccount) {
		// First contact during registration: seed a stub document so the
		// code has somewhere to live until create-profile fills it in.
		_, insErr := database.Users.InsertOne(ctx, bson.M{"personalInfo": bson.M{"email": email}})
		if insErr != nil && !mongo.IsDuplicateKeyError(insErr) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send OTP"})
			return
		}
		code, err = otpService.IssueCode(ctx, email)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send OTP"})
		return
	}

	body := fmt.Sprintf("Your OTP for Sindhuur verification is %s. It is valid for 10 minutes.", code)
	if mail != nil {
		if err := mail.Send(email, "Sindhuur OTP Verification", body); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send OTP"})
			return
		}
	} else {
		log.WithField("email", email).Warn("mailer not configured, OTP not delivered")
	}

	c.JSON(http.StatusOK, gin.H{"message": "OTP sent successfully"})
}

// VerifyEmailOTP confirms the registration code and marks the account
// verified, the durable gate for showing up in match listings.
func VerifyEmailOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
		OTP   string `json:"otp" binding:"required,len=6"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email or OTP"})
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := otpService.VerifyCode(ctx, email, req.OTP)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "OTP verified successfully"})
	case errors.Is(err, otp.ErrTooManyAttempts):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many attempts. Request a new code."})
	case errors.Is(err, otp.ErrNoAccount), errors.Is(err, otp.ErrNoCode),
		errors.Is(err, otp.ErrExpired), errors.Is(err, otp.ErrMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired code"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify OTP"})
	}
}

type createProfileRequest struct {
	PersonalInfo     models.PersonalInfo     `json:"personalInfo" binding:"required"`
	Demographics     models.Demographics     `json:"demographics" binding:"required"`
	ProfessionalInfo models.ProfessionalInfo `json:"professionalInfo" binding:"required"`
	Location         models.Location         `json:"location" binding:"required"`
	FamilyInfo       models.FamilyInfo       `json:"familyInfo"`
	Hobbies          string                  `json:"hobbies"`
	Password         string                  `json:"password" binding:"required,min=8"`
	AppVersion       string                  `json:"appVersion" binding:"required"`
}

// CreateProfile registers the user document after OTP verification.
func CreateProfile(c *gin.Context) {
	var req createProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.PersonalInfo.Name == "" || req.PersonalInfo.Email == "" || req.PersonalInfo.Gender == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name, email and gender are required"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.PersonalInfo.Email))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var existing models.User
	err := database.Users.FindOne(ctx, bson.M{"personalInfo.email": email}).Decode(&existing)
	if err != nil && err != mongo.ErrNoDocuments {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if err == nil {
		if existing.ProfileID != "" {
			c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
			return
		}
		if !existing.OTP.Verified {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email not verified"})
			return
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	req.PersonalInfo.Email = email
	if req.PersonalInfo.Status == "" {
		req.PersonalInfo.Status = "active"
	}

	user := models.User{
		ID:               primitive.NewObjectID(),
		ProfileID:        fmt.Sprintf("KM%d", time.Now().UnixMilli()),
		Role:             "user",
		PersonalInfo:     req.PersonalInfo,
		Demographics:     req.Demographics,
		ProfessionalInfo: req.ProfessionalInfo,
		Location:         req.Location,
		FamilyInfo:       req.FamilyInfo,
		Hobbies:          req.Hobbies,
		Credentials:      models.Credentials{Password: string(hashed)},
		Subscription:     models.Subscription{Current: "free"},
		RegisteredEvents: []primitive.ObjectID{},
		ProfileCreatedAt: time.Now(),
		AppVersion:       req.AppVersion,
		ProfileStatus:    "active",
		ChatContacts:     []string{},
		FlagReasons:      []string{},
		Notifications:    []models.Notification{},
	}

	if existing.ID != primitive.NilObjectID {
		// Fill in the stub seeded by SendEmailOTP, keeping its id and
		// verified flag.
		user.ID = existing.ID
		user.OTP = existing.OTP
		_, err = database.Users.ReplaceOne(ctx, bson.M{"_id": existing.ID}, user)
	} else {
		_, err = database.Users.InsertOne(ctx, user)
	}
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create profile"})
		return
	}

	token, err := sessionToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   "Profile created successfully",
		"profileId": user.ProfileID,
		"token":     token,
	})
}

// Login authenticates by email and password, returning a session token.
// The failure message never distinguishes an unknown account from a wrong
// password.
func Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err := database.Users.FindOne(ctx, bson.M{
		"personalInfo.email": strings.ToLower(strings.TrimSpace(req.Email)),
	}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Credentials.Password), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	token, err := sessionToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	database.Users.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": bson.M{"lastActive": time.Now()}})

	c.JSON(http.StatusOK, gin.H{
		"token":     token,
		"profileId": user.ProfileID,
		"message":   "Login successful",
	})
}

// ChangePassword rotates the password for the authenticated user.
func ChangePassword(c *gin.Context) {
	var req struct {
		CurrentPassword string `json:"currentPassword" binding:"required"`
		NewPassword     string `json:"newPassword" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 8 characters"})
		return
	}

	userID, err := primitive.ObjectIDFromHex(c.GetString("userId"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	if err := database.Users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Credentials.Password), []byte(req.CurrentPassword)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Current password is incorrect"})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	_, err = database.Users.UpdateOne(ctx, bson.M{"_id": userID},
		bson.M{"$set": bson.M{"credentials.password": string(hashed)}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}

func sessionToken(user models.User) (string, error) {
	claims := &middleware.Claims{
		UserID:    user.ID.Hex(),
		ProfileID: user.ProfileID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(os.Getenv("JWT_SECRET")))
}
