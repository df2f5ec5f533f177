package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProfileID string             `bson:"profileId" json:"profileId"`
	Role      string             `bson:"role" json:"role"` // admin, user

	PersonalInfo     PersonalInfo     `bson:"personalInfo" json:"personalInfo"`
	Demographics     Demographics     `bson:"demographics" json:"demographics"`
	ProfessionalInfo ProfessionalInfo `bson:"professionalInfo" json:"professionalInfo"`
	Location         Location         `bson:"location" json:"location"`
	Hobbies          string           `bson:"hobbies" json:"hobbies"`
	FamilyInfo       FamilyInfo       `bson:"familyInfo" json:"familyInfo"`

	Credentials  Credentials  `bson:"credentials" json:"-"`
	Subscription Subscription `bson:"subscription" json:"subscription"`

	RegisteredEvents []primitive.ObjectID `bson:"registeredEvents" json:"registeredEvents"`
	ProfileCreatedAt time.Time            `bson:"profileCreatedAt" json:"profileCreatedAt"`
	AppVersion       string               `bson:"appVersion" json:"appVersion"`

	OTP OTPCredential `bson:"otp" json:"-"`

	ProfileStatus string         `bson:"profileStatus" json:"profileStatus"` // active, inactive, flagged, under_review
	ChatContacts  []string       `bson:"chatContacts" json:"chatContacts"`
	FlagReasons   []string       `bson:"flagReasons" json:"flagReasons"`
	ProfileViews  int            `bson:"profileViews" json:"profileViews"`
	LastActive    time.Time      `bson:"lastActive,omitempty" json:"lastActive"`
	Notifications []Notification `bson:"notifications" json:"notifications"`
}

type PersonalInfo struct {
	Name            string `bson:"name" json:"name"`
	Email           string `bson:"email" json:"email"`
	Gender          string `bson:"gender" json:"gender"` // male, female
	Mobile          string `bson:"mobile" json:"mobile"`
	LookingFor      string `bson:"lookingFor" json:"lookingFor"`
	Avatar          string `bson:"avatar,omitempty" json:"avatar,omitempty"`
	ProfileComplete int    `bson:"profileComplete" json:"profileComplete"`
	ProfileImage    string `bson:"profileImage,omitempty" json:"profileImage,omitempty"`
	Status          string `bson:"status" json:"status"` // active, inactive, banned
}

type Demographics struct {
	DateOfBirth   string `bson:"dateOfBirth" json:"dateOfBirth"`
	Height        string `bson:"height" json:"height"`
	MaritalStatus string `bson:"maritalStatus" json:"maritalStatus"`
	Religion      string `bson:"religion" json:"religion"`
	Community     string `bson:"community" json:"community"`
	MotherTongue  string `bson:"motherTongue" json:"motherTongue"`
	TimeOfBirth   string `bson:"timeOfBirth,omitempty" json:"timeOfBirth,omitempty"`
	PlaceOfBirth  string `bson:"placeOfBirth,omitempty" json:"placeOfBirth,omitempty"`
}

type ProfessionalInfo struct {
	Education    string `bson:"education" json:"education"`
	FieldOfStudy string `bson:"fieldOfStudy,omitempty" json:"fieldOfStudy,omitempty"`
	Occupation   string `bson:"occupation" json:"occupation"`
	Income       string `bson:"income" json:"income"`
}

type Location struct {
	City  string `bson:"city" json:"city"`
	State string `bson:"state" json:"state"`
}

type FamilyInfo struct {
	Father string `bson:"father,omitempty" json:"father,omitempty"`
	Mother string `bson:"mother,omitempty" json:"mother,omitempty"`
}

type Credentials struct {
	Password   string `bson:"password" json:"-"`
	RememberMe bool   `bson:"rememberMe" json:"-"`
}

// OTPCredential is the embedded one-time-code state for a user. The same
// record backs two flows: the registration gate (Verified stays true once the
// account email is confirmed) and the password-reset challenge (Code/Expiry/
// Attempts/ResetTokenHash are issued fresh per request and cleared on use).
type OTPCredential struct {
	Code           string    `bson:"code,omitempty" json:"-"`
	ExpiresAt      time.Time `bson:"expiresAt,omitempty" json:"-"`
	Verified       bool      `bson:"verified" json:"-"`
	Attempts       int       `bson:"attempts" json:"-"`
	ResetTokenHash string    `bson:"resetTokenHash,omitempty" json:"-"`
}

type Notification struct {
	FromProfileID string    `bson:"fromProfileId" json:"fromProfileId"`
	ToProfileID   string    `bson:"toProfileId" json:"toProfileId"`
	ToUserName    string    `bson:"toUserName,omitempty" json:"toUserName,omitempty"`
	Message       string    `bson:"message,omitempty" json:"message,omitempty"`
	Type          string    `bson:"type" json:"type"` // interest, message, match
	IsRead        bool      `bson:"isRead" json:"isRead"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
}
