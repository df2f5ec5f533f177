package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mr-sankar/Sindhuur-backend-latest/database"
	"github.com/mr-sankar/Sindhuur-backend-latest/models"
)

// SendInterest records a one-directional interest edge. Sending twice is a
// no-op; the original timestamp is kept.
func SendInterest(c *gin.Context) {
	var req struct {
		UserProfileID       string `json:"userProfileId" binding:"required"`
		InterestedProfileID string `json:"interestedProfileId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userProfileId and interestedProfileId are required"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var target models.User
	err := database.Users.FindOne(ctx, bson.M{"profileId": req.InterestedProfileID}).Decode(&target)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"error": "Interested profile not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send interest"})
		return
	}

	added, err := addGraphEntry(ctx, req.UserProfileID, "interestedProfiles", req.InterestedProfileID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send interest"})
		return
	}

	if added {
		notifyInterest(ctx, req.UserProfileID, target)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Interest sent successfully"})
}

// PassProfile records a pass. Passing and interest are independent lists;
// recording one does not remove the other.
func PassProfile(c *gin.Context) {
	var req struct {
		UserProfileID   string `json:"userProfileId" binding:"required"`
		PassedProfileID string `json:"passedProfileId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userProfileId and passedProfileId are required"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	count, err := database.Users.CountDocuments(ctx, bson.M{"profileId": req.PassedProfileID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to pass profile"})
		return
	}
	if count == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Passed profile not found"})
		return
	}

	if _, err := addGraphEntry(ctx, req.UserProfileID, "passedProfiles", req.PassedProfileID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to pass profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile passed successfully"})
}

// addGraphEntry appends {profileId, createdAt} to the named list unless the
// profile is already present. The guarded filter plus the unique index on
// userProfileId makes the duplicate insert race collapse into a no-op.
func addGraphEntry(ctx context.Context, owner, list, profileID string) (bool, error) {
	entry := models.InterestEntry{ProfileID: profileID, CreatedAt: time.Now()}
	res, err := database.Interests.UpdateOne(ctx,
		bson.M{"userProfileId": owner, list + ".profileId": bson.M{"$ne": profileID}},
		bson.M{"$push": bson.M{list: entry}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Entry already present: the guard excluded the existing doc and
			// the upsert collided with it.
			return false, nil
		}
		return false, err
	}
	return res.ModifiedCount > 0 || res.UpsertedCount > 0, nil
}

// RemoveInterest deletes a single interest edge.
func RemoveInterest(c *gin.Context) {
	var req struct {
		UserProfileID       string `json:"userProfileId" binding:"required"`
		InterestedProfileID string `json:"interestedProfileId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userProfileId and interestedProfileId are required"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	res, err := database.Interests.UpdateOne(ctx,
		bson.M{"userProfileId": req.UserProfileID},
		bson.M{"$pull": bson.M{"interestedProfiles": bson.M{"profileId": req.InterestedProfileID}}},
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove interest"})
		return
	}
	if res.ModifiedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Interest not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Interest removed successfully"})
}

// RemoveAllInterests clears the sent-interest list. Passes are untouched.
func RemoveAllInterests(c *gin.Context) {
	var req struct {
		UserProfileID string `json:"userProfileId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userProfileId is required"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	res, err := database.Interests.UpdateOne(ctx,
		bson.M{"userProfileId": req.UserProfileID},
		bson.M{"$set": bson.M{"interestedProfiles": []models.InterestEntry{}}},
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove all interests"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "All interests removed successfully",
		"modifiedCount": res.ModifiedCount,
	})
}

// InterestedProfiles lists summaries of the profiles this user sent interest
// to. Only verified accounts are included.
func InterestedProfiles(c *gin.Context) {
	listGraphProfiles(c, "interestedProfiles")
}

// PassedProfiles lists summaries of the profiles this user passed on.
func PassedProfiles(c *gin.Context) {
	listGraphProfiles(c, "passedProfiles")
}

func listGraphProfiles(c *gin.Context, list string) {
	userProfileID := c.Query("userProfileId")
	if userProfileID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userProfileId is required"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var doc models.Interest
	err := database.Interests.FindOne(ctx, bson.M{"userProfileId": userProfileID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusOK, []gin.H{})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch profiles"})
		return
	}

	entries := doc.InterestedProfiles
	if list == "passedProfiles" {
		entries = doc.PassedProfiles
	}
	if len(entries) == 0 {
		c.JSON(http.StatusOK, []gin.H{})
		return
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ProfileID)
	}

	profiles, err := verifiedSummaries(ctx, ids)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch profiles"})
		return
	}

	c.JSON(http.StatusOK, profiles)
}

// ReceivedInterests lists summaries of the profiles that sent interest TO
// this user, found by scanning interest documents for an edge pointing here.
func ReceivedInterests(c *gin.Context) {
	userProfileID := c.Query("userProfileId")
	if userProfileID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userProfileId is required"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := database.Interests.Find(ctx, bson.M{"interestedProfiles.profileId": userProfileID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch received interests"})
		return
	}
	var docs []models.Interest
	if err := cursor.All(ctx, &docs); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch received interests"})
		return
	}

	senders := make([]string, 0, len(docs))
	for _, d := range docs {
		senders = append(senders, d.UserProfileID)
	}
	if len(senders) == 0 {
		c.JSON(http.StatusOK, []gin.H{})
		return
	}

	profiles, err := verifiedSummaries(ctx, senders)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch received interests"})
		return
	}

	c.JSON(http.StatusOK, profiles)
}

// verifiedSummaries resolves profile ids into card summaries, silently
// dropping unverified or deleted accounts.
func verifiedSummaries(ctx context.Context, profileIDs []string) ([]gin.H, error) {
	cursor, err := database.Users.Find(ctx, bson.M{
		"profileId":    bson.M{"$in": profileIDs},
		"otp.verified": true,
	})
	if err != nil {
		return nil, err
	}
	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}

	profiles := make([]gin.H, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, gin.H{
			"id":         u.ProfileID,
			"name":       u.PersonalInfo.Name,
			"age":        computeAge(u.Demographics.DateOfBirth),
			"profession": u.ProfessionalInfo.Occupation,
			"location":   u.Location.City,
			"education":  u.ProfessionalInfo.Education,
			"community":  u.Demographics.Community,
			"income":     u.ProfessionalInfo.Income,
			"image":      profileImage(u),
		})
	}
	return profiles, nil
}

func profileImage(u models.User) string {
	if u.PersonalInfo.ProfileImage != "" {
		return u.PersonalInfo.ProfileImage
	}
	return fallbackImage
}

// computeAge returns whole years from an ISO date of birth, or the literal
// "Not specified" when the date is unparsable or outside 0..120.
func computeAge(dateOfBirth string) interface{} {
	const notSpecified = "Not specified"
	if dateOfBirth == "" {
		return notSpecified
	}
	dob, err := time.Parse("2006-01-02", dateOfBirth)
	if err != nil {
		if dob, err = time.Parse(time.RFC3339, dateOfBirth); err != nil {
			return notSpecified
		}
	}
	now := time.Now()
	age := now.Year() - dob.Year()
	if now.YearDay() < dob.YearDay() {
		age--
	}
	if age < 0 || age > 120 {
		return notSpecified
	}
	return age
}

// notifyInterest records an in-app notification on the recipient and fires a
// push if they have a subscription. Failures are logged, never surfaced.
func notifyInterest(ctx context.Context, fromProfileID string, target models.User) {
	note := models.Notification{
		FromProfileID: fromProfileID,
		ToProfileID:   target.ProfileID,
		ToUserName:    target.PersonalInfo.Name,
		Message:       fmt.Sprintf("%s has shown interest in your profile", fromProfileID),
		Type:          "interest",
		CreatedAt:     time.Now(),
	}
	_, err := database.Users.UpdateOne(ctx,
		bson.M{"profileId": target.ProfileID},
		bson.M{"$push": bson.M{"notifications": note}},
	)
	if err != nil {
		log.WithError(err).Warn("failed to store interest notification")
	}

	go sendPush(target.ProfileID, "New Interest", note.Message)
}
