package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment order statuses. An order never regresses from "paid".
const (
	PaymentCreated = "created"
	PaymentPaid    = "paid"
	PaymentFailed  = "failed"
)

type Payment struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID            primitive.ObjectID `bson:"userId" json:"userId"`
	Plan              string             `bson:"plan" json:"plan"`
	Price             int                `bson:"price" json:"price"`
	RazorpayOrderID   string             `bson:"razorpayOrderId" json:"razorpayOrderId"`
	RazorpayPaymentID string             `bson:"razorpayPaymentId,omitempty" json:"razorpayPaymentId,omitempty"`
	RazorpaySignature string             `bson:"razorpaySignature,omitempty" json:"-"`
	Status            string             `bson:"status" json:"status"`

	// Upgrade metadata, set when the order pays for a plan switch.
	IsUpgrade      bool   `bson:"isUpgrade" json:"isUpgrade"`
	OriginalPlan   string `bson:"originalPlan,omitempty" json:"originalPlan,omitempty"`
	UpgradeType    string `bson:"upgradeType,omitempty" json:"upgradeType,omitempty"`
	ProratedAmount int    `bson:"proratedAmount,omitempty" json:"proratedAmount,omitempty"`
	RemainingDays  int    `bson:"remainingDays,omitempty" json:"remainingDays,omitempty"`
	OriginalPrice  int    `bson:"originalPrice,omitempty" json:"originalPrice,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
