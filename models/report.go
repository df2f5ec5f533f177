package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Report statuses.
const (
	ReportPending   = "pending"
	ReportReviewed  = "reviewed"
	ReportResolved  = "resolved"
	ReportDismissed = "dismissed"
)

type Report struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ReporterProfileID string             `bson:"reporterProfileId" json:"reporterProfileId"`
	ReportedProfileID string             `bson:"reportedProfileId" json:"reportedProfileId"`
	Reason            string             `bson:"reason" json:"reason"`
	Details           string             `bson:"details,omitempty" json:"details,omitempty"`
	Status            string             `bson:"status" json:"status"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}
