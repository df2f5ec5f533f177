package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mr-sankar/Sindhuur-backend-latest/database"
	"github.com/mr-sankar/Sindhuur-backend-latest/models"
)

// GetMessages returns every persisted message the user sent or received,
// oldest first.
func GetMessages(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := database.Messages.Find(ctx,
		bson.M{"$or": []bson.M{{"senderId": userID}, {"receiverId": userID}}},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}),
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch messages"})
		return
	}

	var msgs []models.Message
	if err := cursor.All(ctx, &msgs); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch messages"})
		return
	}

	formatted := make([]gin.H, 0, len(msgs))
	for _, m := range msgs {
		formatted = append(formatted, gin.H{
			"id":         m.ID.Hex(),
			"text":       m.Text,
			"senderId":   m.SenderID,
			"receiverId": m.ReceiverID,
			"time":       m.Time,
			"edited":     m.Edited,
		})
	}

	c.JSON(http.StatusOK, gin.H{"messages": formatted})
}

// AddChatContact records a one-directional contact entry. The relay adds
// both directions on first message; this endpoint covers contacts opened
// from a profile page before any message is sent.
func AddChatContact(c *gin.Context) {
	var req struct {
		ProfileID string `json:"profileId" binding:"required"`
		ContactID string `json:"contactId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "profileId and contactId are required"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := database.Users.UpdateOne(ctx,
		bson.M{"profileId": req.ProfileID},
		bson.M{"$addToSet": bson.M{"chatContacts": req.ContactID}},
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add chat contact"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Chat contact added"})
}

// GetChatContacts resolves the user's contact list into display entries,
// with live presence from the hub.
func GetChatContacts(c *gin.Context) {
	profileID := c.Query("profileId")
	if profileID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "profileId is required"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err := database.Users.FindOne(ctx, bson.M{"profileId": profileID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch chat contacts"})
		return
	}

	online := map[string]bool{}
	if hub != nil {
		for _, id := range hub.OnlineProfiles() {
			online[id] = true
		}
	}

	contacts := make([]gin.H, 0, len(user.ChatContacts))
	if len(user.ChatContacts) > 0 {
		cursor, err := database.Users.Find(ctx, bson.M{"profileId": bson.M{"$in": user.ChatContacts}})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch chat contacts"})
			return
		}
		var users []models.User
		if err := cursor.All(ctx, &users); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch chat contacts"})
			return
		}
		for _, u := range users {
			contacts = append(contacts, gin.H{
				"id":     u.ProfileID,
				"name":   orDefault(u.PersonalInfo.Name, "Unknown"),
				"avatar": profileImage(u),
				"online": online[u.ProfileID],
			})
		}
	}

	c.JSON(http.StatusOK, gin.H{"contacts": contacts})
}
