package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mr-sankar/Sindhuur-backend-latest/database"
	"github.com/mr-sankar/Sindhuur-backend-latest/models"
)

// GetProfile returns the public detail view for a profile id.
func GetProfile(c *gin.Context) {
	profileID := c.Param("id")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err := database.Users.FindOne(ctx, bson.M{"profileId": profileID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch profile"})
		return
	}

	images := []string{fallbackImage}
	if user.PersonalInfo.ProfileImage != "" {
		images = []string{user.PersonalInfo.ProfileImage}
	}

	c.JSON(http.StatusOK, gin.H{
		"id":           user.ProfileID,
		"name":         orDefault(user.PersonalInfo.Name, "Unknown"),
		"age":          computeAge(user.Demographics.DateOfBirth),
		"profession":   orDefault(user.ProfessionalInfo.Occupation, "Unknown"),
		"location":     user.Location.City + ", " + user.Location.State,
		"education":    orDefault(user.ProfessionalInfo.Education, "Unknown"),
		"salary":       orDefault(user.ProfessionalInfo.Income, "Not specified"),
		"height":       orDefault(user.Demographics.Height, "Unknown"),
		"community":    orDefault(user.Demographics.Community, "Unknown"),
		"motherTongue": orDefault(user.Demographics.MotherTongue, "Unknown"),
		"religion":     orDefault(user.Demographics.Religion, "Not specified"),
		"dateOfBirth":  orDefault(user.Demographics.DateOfBirth, "Not specified"),
		"placeOfBirth": orDefault(user.Demographics.PlaceOfBirth, "Not specified"),
		"hobbies":      orDefault(user.Hobbies, "Not specified"),
		"images":       images,
		"family": gin.H{
			"father": orDefault(user.FamilyInfo.Father, "Not specified"),
			"mother": orDefault(user.FamilyInfo.Mother, "Not specified"),
		},
	})
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// IncrementProfileViews bumps the view counter for a profile.
func IncrementProfileViews(c *gin.Context) {
	var req struct {
		ProfileID string `json:"profileId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "profileId is required"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := database.Users.UpdateOne(ctx,
		bson.M{"profileId": req.ProfileID},
		bson.M{"$inc": bson.M{"profileViews": 1}},
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record view"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// UpdateProfile overwrites the editable sections of a profile. The document
// as it stood before the write is snapshotted into profile_history first, so
// every revision stays recoverable.
func UpdateProfile(c *gin.Context) {
	var req struct {
		ProfileID   string `json:"profileId" binding:"required"`
		UpdatedData struct {
			PersonalInfo     *models.PersonalInfo     `json:"personalInfo"`
			Demographics     *models.Demographics     `json:"demographics"`
			ProfessionalInfo *models.ProfessionalInfo `json:"professionalInfo"`
			Location         *models.Location         `json:"location"`
			FamilyInfo       *models.FamilyInfo       `json:"familyInfo"`
			Hobbies          *string                  `json:"hobbies"`
		} `json:"updatedData" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Profile ID and updated data are required"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var current models.User
	err := database.Users.FindOne(ctx, bson.M{"profileId": req.ProfileID}).Decode(&current)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	snapshot := bson.M{
		"profileId":  current.ProfileID,
		"snapshot":   current,
		"capturedAt": time.Now(),
	}
	if _, err := database.ProfileHistory.InsertOne(ctx, snapshot); err != nil {
		log.WithError(err).WithField("profileId", req.ProfileID).Error("failed to snapshot profile")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	set := bson.M{}
	if d := req.UpdatedData.PersonalInfo; d != nil {
		// Email is identity; it changes through its own verified flow.
		d.Email = current.PersonalInfo.Email
		set["personalInfo"] = d
	}
	if d := req.UpdatedData.Demographics; d != nil {
		set["demographics"] = d
	}
	if d := req.UpdatedData.ProfessionalInfo; d != nil {
		set["professionalInfo"] = d
	}
	if d := req.UpdatedData.Location; d != nil {
		set["location"] = d
	}
	if d := req.UpdatedData.FamilyInfo; d != nil {
		set["familyInfo"] = d
	}
	if d := req.UpdatedData.Hobbies; d != nil {
		set["hobbies"] = *d
	}
	if len(set) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No updatable fields provided"})
		return
	}

	_, err = database.Users.UpdateOne(ctx, bson.M{"profileId": req.ProfileID}, bson.M{"$set": set})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully"})
}
