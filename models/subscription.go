package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Subscription history statuses.
const (
	SubStatusActive    = "active"
	SubStatusExpired   = "expired"
	SubStatusCancelled = "cancelled"
	SubStatusUpgraded  = "upgraded"
)

type Subscription struct {
	Current string                `bson:"current" json:"current"` // free, premium, premium_plus
	Details SubscriptionDetails   `bson:"details" json:"details"`
	History []SubscriptionHistory `bson:"history" json:"history"`
}

type SubscriptionDetails struct {
	StartDate  time.Time          `bson:"startDate,omitempty" json:"startDate"`
	ExpiryDate time.Time          `bson:"expiryDate,omitempty" json:"expiryDate"`
	PaymentID  primitive.ObjectID `bson:"paymentId,omitempty" json:"paymentId,omitempty"`
	AutoRenew  bool               `bson:"autoRenew" json:"autoRenew"`
}

// SubscriptionHistory records one plan period. At most one entry carries
// status "active"; an upgrade relabels it "upgraded" before the replacement
// entry is appended.
type SubscriptionHistory struct {
	Plan           string             `bson:"type" json:"type"`
	StartDate      time.Time          `bson:"startDate" json:"startDate"`
	ExpiryDate     time.Time          `bson:"expiryDate" json:"expiryDate"`
	PaymentID      primitive.ObjectID `bson:"paymentId,omitempty" json:"paymentId,omitempty"`
	Status         string             `bson:"status" json:"status"`
	UpgradedAt     time.Time          `bson:"upgradedAt,omitempty" json:"upgradedAt,omitempty"`
	IsUpgrade      bool               `bson:"isUpgrade" json:"isUpgrade"`
	OriginalPlan   string             `bson:"originalPlan,omitempty" json:"originalPlan,omitempty"`
	ProratedAmount int                `bson:"proratedAmount,omitempty" json:"proratedAmount,omitempty"`
}
