package models

import (
	"github.com/SherClockHolmes/webpush-go"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PushSubscription struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	ProfileID string               `bson:"profileId" json:"profileId"`
	Sub       webpush.Subscription `bson:"sub" json:"sub"`
}
