package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Message struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SenderID   string             `bson:"senderId" json:"senderId"`
	ReceiverID string             `bson:"receiverId" json:"receiverId"`
	Text       string             `bson:"text" json:"text"`
	Time       string             `bson:"time" json:"time"` // client-supplied send time
	Edited     bool               `bson:"edited" json:"edited"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}
