package models

import "time"

// Interest groups everything one profile has expressed about others: the set
// of profiles it sent interest to and the set it passed on. One document per
// source profile, keyed uniquely by userProfileId.
type Interest struct {
	UserProfileID      string          `bson:"userProfileId" json:"userProfileId"`
	InterestedProfiles []InterestEntry `bson:"interestedProfiles" json:"interestedProfiles"`
	PassedProfiles     []InterestEntry `bson:"passedProfiles" json:"passedProfiles"`
	CreatedAt          time.Time       `bson:"createdAt,omitempty" json:"createdAt"`
	UpdatedAt          time.Time       `bson:"updatedAt,omitempty" json:"updatedAt"`
}

type InterestEntry struct {
	ProfileID string    `bson:"profileId" json:"profileId"`
	CreatedAt time.Time `bson:"createdAt,omitempty" json:"createdAt"`
}
