package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event statuses.
const (
	EventUpcoming  = "upcoming"
	EventOngoing   = "ongoing"
	EventCompleted = "completed"
	EventCancelled = "cancelled"
)

type Event struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Date        time.Time          `bson:"date" json:"date"`
	Time        string             `bson:"time" json:"time"` // "HH:MM"
	Location    string             `bson:"location" json:"location"`
	Type        string             `bson:"type" json:"type"` // meetup, webinar, workshop, conference
	Status      string             `bson:"status" json:"status"`

	MaxAttendees     int                  `bson:"maxAttendees" json:"maxAttendees"`
	CurrentAttendees int                  `bson:"currentAttendees" json:"currentAttendees"`
	RegisteredUsers  []primitive.ObjectID `bson:"registeredUsers" json:"registeredUsers"`

	IsOnline    bool      `bson:"isOnline" json:"isOnline"`
	Price       int       `bson:"price" json:"price"`
	Organizer   string    `bson:"organizer" json:"organizer"`
	Image       string    `bson:"image,omitempty" json:"image,omitempty"`
	CreatedDate time.Time `bson:"createdDate" json:"createdDate"`
}
