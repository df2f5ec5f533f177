package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mr-sankar/Sindhuur-backend-latest/database"
	"github.com/mr-sankar/Sindhuur-backend-latest/models"
)

func init() {
	// Development fallback: generate a throwaway key pair when none is
	// configured. Production sets both keys in the environment.
	if os.Getenv("VAPID_PUBLIC_KEY") == "" || os.Getenv("VAPID_PRIVATE_KEY") == "" {
		privateKey, publicKey, err := webpush.GenerateVAPIDKeys()
		if err != nil {
			log.Warnf("failed to generate VAPID keys: %v", err)
			return
		}
		os.Setenv("VAPID_PUBLIC_KEY", publicKey)
		os.Setenv("VAPID_PRIVATE_KEY", privateKey)
		log.Warn("generated ephemeral VAPID keys; set VAPID_PUBLIC_KEY and VAPID_PRIVATE_KEY for production")
	}
}

// GetVapidPublicKey hands the browser the key it needs to subscribe.
func GetVapidPublicKey(c *gin.Context) {
	publicKey := os.Getenv("VAPID_PUBLIC_KEY")
	if publicKey == "" {
		c.JSON(http.StatusOK, gin.H{
			"error":   "VAPID public key not configured",
			"message": "Contact administrator",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"publicKey": publicKey})
}

// SubscribePush stores the caller's push subscription, one per profile.
func SubscribePush(c *gin.Context) {
	var req struct {
		Endpoint string `json:"endpoint" binding:"required"`
		Keys     struct {
			P256dh string `json:"p256dh" binding:"required"`
			Auth   string `json:"auth" binding:"required"`
		} `json:"keys" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profileID := c.GetString("profileId")
	if profileID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sub := webpush.Subscription{
		Endpoint: req.Endpoint,
		Keys: webpush.Keys{
			P256dh: req.Keys.P256dh,
			Auth:   req.Keys.Auth,
		},
	}

	_, err := database.PushSubs.UpdateOne(ctx,
		bson.M{"profileId": profileID},
		bson.M{"$set": bson.M{"sub": sub}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		log.WithError(err).Error("failed to save push subscription")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save subscription"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Push subscription saved successfully",
		"profileId": profileID,
	})
}

// sendPush delivers a notification to the profile's subscribed browser, if
// any. Expired subscriptions (410) are pruned. Callers run this in a
// goroutine; it never blocks a request.
func sendPush(profileID, title, body string) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("panic in push notification: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var sub models.PushSubscription
	err := database.PushSubs.FindOne(ctx, bson.M{"profileId": profileID}).Decode(&sub)
	if err == mongo.ErrNoDocuments {
		return
	}
	if err != nil {
		log.WithError(err).WithField("profileId", profileID).Warn("push subscription lookup failed")
		return
	}

	payloadBytes, err := json.Marshal(map[string]interface{}{
		"title": title,
		"body":  body,
		"data": map[string]interface{}{
			"timestamp": time.Now().Unix(),
		},
	})
	if err != nil {
		return
	}

	resp, err := webpush.SendNotification(payloadBytes, &sub.Sub, &webpush.Options{
		Subscriber:      "mailto:support@sindhuur.com",
		VAPIDPrivateKey: os.Getenv("VAPID_PRIVATE_KEY"),
		TTL:             30,
	})
	if err != nil {
		log.WithError(err).WithField("profileId", profileID).Warn("push notification failed")
		if resp != nil && resp.StatusCode == http.StatusGone {
			database.PushSubs.DeleteOne(ctx, bson.M{"profileId": profileID})
		}
		return
	}
	resp.Body.Close()
}
