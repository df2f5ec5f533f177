package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mr-sankar/Sindhuur-backend-latest/database"
	"github.com/mr-sankar/Sindhuur-backend-latest/models"
)

var reportStatuses = map[string]bool{
	models.ReportPending:   true,
	models.ReportReviewed:  true,
	models.ReportResolved:  true,
	models.ReportDismissed: true,
}

// CreateReport files a moderation report against a profile. One report per
// reporter/reported pair.
func CreateReport(c *gin.Context) {
	var req struct {
		ReporterProfileID string `json:"reporterProfileId" binding:"required"`
		ReportedProfileID string `json:"reportedProfileId" binding:"required"`
		Reason            string `json:"reason" binding:"required"`
		Details           string `json:"details"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reporterProfileId, reportedProfileId and reason are required"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	count, err := database.Users.CountDocuments(ctx, bson.M{"profileId": req.ReportedProfileID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit report"})
		return
	}
	if count == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Reported profile not found"})
		return
	}

	existing, err := database.Reports.CountDocuments(ctx, bson.M{
		"reporterProfileId": req.ReporterProfileID,
		"reportedProfileId": req.ReportedProfileID,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit report"})
		return
	}
	if existing > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You have already reported this profile"})
		return
	}

	now := time.Now()
	report := models.Report{
		ID:                primitive.NewObjectID(),
		ReporterProfileID: req.ReporterProfileID,
		ReportedProfileID: req.ReportedProfileID,
		Reason:            req.Reason,
		Details:           req.Details,
		Status:            models.ReportPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if _, err := database.Reports.InsertOne(ctx, report); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit report"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Report submitted successfully",
		"report":  report,
	})
}

// ListReports returns reports newest first, optionally filtered by status.
func ListReports(c *gin.Context) {
	filter := bson.M{}
	if status := c.Query("status"); status != "" {
		if !reportStatuses[status] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
			return
		}
		filter["status"] = status
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := database.Reports.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch reports"})
		return
	}

	reports := []models.Report{}
	if err := cursor.All(ctx, &reports); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch reports"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

// UpdateReportStatus moves a report through the moderation workflow.
func UpdateReportStatus(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid report ID"})
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || !reportStatuses[req.Status] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var report models.Report
	err = database.Reports.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": req.Status, "updatedAt": time.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&report)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update report"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Report updated successfully", "report": report})
}

// FlagProfile marks an account for moderation and records the reason.
func FlagProfile(c *gin.Context) {
	profileID := c.Param("id")

	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reason is required"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	res, err := database.Users.UpdateOne(ctx,
		bson.M{"profileId": profileID},
		bson.M{
			"$set":  bson.M{"profileStatus": "flagged"},
			"$push": bson.M{"flagReasons": req.Reason},
		},
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to flag profile"})
		return
	}
	if res.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "Profile not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile flagged successfully"})
}

// UnflagProfile restores a flagged account and clears its reasons.
func UnflagProfile(c *gin.Context) {
	profileID := c.Param("id")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	res, err := database.Users.UpdateOne(ctx,
		bson.M{"profileId": profileID},
		bson.M{"$set": bson.M{"profileStatus": "active", "flagReasons": []string{}}},
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to unflag profile"})
		return
	}
	if res.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "Profile not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile unflagged successfully"})
}
