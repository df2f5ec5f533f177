package handlers

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mr-sankar/Sindhuur-backend-latest/database"
	"github.com/mr-sankar/Sindhuur-backend-latest/gateway"
	"github.com/mr-sankar/Sindhuur-backend-latest/models"
	"github.com/mr-sankar/Sindhuur-backend-latest/subscription"
)

// InitiatePayment opens a gateway order for a new subscription or an
// upgrade. The authoritative amount is computed server-side; for upgrades
// the proration quote is frozen onto the order record.
func InitiatePayment(c *gin.Context) {
	var req struct {
		Plan      string `json:"plan" binding:"required"`
		Price     int    `json:"price"`
		UserID    string `json:"userId" binding:"required"`
		IsUpgrade bool   `json:"isUpgrade"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Missing required fields: plan and userId are required",
		})
		return
	}

	plan, ok := subscription.PlanByName(req.Plan)
	if !ok || plan.Name == subscription.Free.Name {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid plan specified"})
		return
	}

	if payGateway == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "Payments are not configured"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var user models.User
	err := database.Users.FindOne(ctx, bson.M{"profileId": req.UserID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Payment initiation failed"})
		return
	}

	now := time.Now()
	currentPlan, _ := subscription.PlanByName(user.Subscription.Current)
	if user.Subscription.Current == "" {
		currentPlan = subscription.Free
	}
	active := subscription.HasActive(user.Subscription, now)

	if req.IsUpgrade {
		initiateUpgrade(c, ctx, user, currentPlan, plan, active, now)
		return
	}

	if active {
		c.JSON(http.StatusForbidden, gin.H{
			"success":     false,
			"message":     "You already have an active subscription. Please upgrade your current plan instead.",
			"currentPlan": user.Subscription.Current,
			"expiryDate":  user.Subscription.Details.ExpiryDate,
			"canUpgrade":  true,
		})
		return
	}

	if req.Price != plan.Price {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid price value"})
		return
	}

	order, err := payGateway.CreateOrder(ctx, int64(plan.Price)*100, "INR", uuid.NewString())
	if err != nil {
		log.WithError(err).Error("payment initiation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Payment initiation failed"})
		return
	}

	payment := models.Payment{
		ID:              primitive.NewObjectID(),
		UserID:          user.ID,
		Plan:            plan.Name,
		Price:           plan.Price,
		RazorpayOrderID: order.ID,
		Status:          models.PaymentCreated,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if _, err := database.Payments.InsertOne(ctx, payment); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Payment initiation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "order": order, "paymentId": payment.ID.Hex()})
}

func initiateUpgrade(c *gin.Context, ctx context.Context, user models.User, current, next subscription.Plan, active bool, now time.Time) {
	if !subscription.UpgradeAllowed(current, next) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": fmt.Sprintf("Invalid upgrade path from %s to %s", current.Name, next.Name),
		})
		return
	}

	quote := subscription.ProrationQuote{Prorated: next.Price, FullPrice: next.Price}
	if active && current.Name != subscription.Free.Name {
		remaining := subscription.RemainingDays(user.Subscription.Details.ExpiryDate, now)
		quote = subscription.Proration(current, next, remaining)
	}

	order, err := payGateway.CreateOrder(ctx, int64(quote.Prorated)*100, "INR", uuid.NewString())
	if err != nil {
		log.WithError(err).Error("upgrade payment initiation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Upgrade payment initiation failed"})
		return
	}

	payment := models.Payment{
		ID:              primitive.NewObjectID(),
		UserID:          user.ID,
		Plan:            next.Name,
		Price:           quote.Prorated,
		RazorpayOrderID: order.ID,
		Status:          models.PaymentCreated,
		IsUpgrade:       true,
		OriginalPlan:    current.Name,
		UpgradeType:     fmt.Sprintf("%s_to_%s", current.Name, next.Name),
		ProratedAmount:  quote.Prorated,
		RemainingDays:   quote.RemainingDays,
		OriginalPrice:   quote.FullPrice,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if _, err := database.Payments.InsertOne(ctx, payment); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Upgrade payment initiation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"order":          order,
		"paymentId":      payment.ID.Hex(),
		"upgradeDetails": quote,
	})
}

// UpgradePreview quotes an upgrade without creating an order.
func UpgradePreview(c *gin.Context) {
	var req struct {
		NewPlan string `json:"newPlan" binding:"required"`
		UserID  string `json:"userId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Missing required fields: newPlan and userId are required",
		})
		return
	}

	next, ok := subscription.PlanByName(req.NewPlan)
	if !ok || next.Name == subscription.Free.Name {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid plan specified"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err := database.Users.FindOne(ctx, bson.M{"profileId": req.UserID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to calculate upgrade details"})
		return
	}

	now := time.Now()
	current, _ := subscription.PlanByName(user.Subscription.Current)
	if user.Subscription.Current == "" {
		current = subscription.Free
	}

	remaining := 0
	if subscription.HasActive(user.Subscription, now) && current.Name != subscription.Free.Name {
		remaining = subscription.RemainingDays(user.Subscription.Details.ExpiryDate, now)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"currentPlan":    current.Name,
		"newPlan":        next.Name,
		"upgradeDetails": subscription.Proration(current, next, remaining),
		"canUpgrade":     subscription.UpgradeAllowed(current, next),
	})
}

// VerifyPayment authenticates the gateway callback and commits the
// subscription. The created→paid transition is a compare-and-swap on the
// order document: only the request that wins it applies the subscription, so
// a replayed callback cannot double-commit.
func VerifyPayment(c *gin.Context) {
	var req struct {
		OrderID   string `json:"razorpay_order_id" binding:"required"`
		GatewayID string `json:"razorpay_payment_id" binding:"required"`
		Signature string `json:"razorpay_signature" binding:"required"`
		PaymentID string `json:"paymentId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Missing required verification fields"})
		return
	}

	if !gateway.VerifySignature(req.OrderID, req.GatewayID, req.Signature, os.Getenv("RAZORPAY_SECRET")) {
		log.Warn("invalid payment signature received")
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid signature"})
		return
	}

	paymentID, err := primitive.ObjectIDFromHex(req.PaymentID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Payment not found"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	now := time.Now()

	var payment models.Payment
	err = database.Payments.FindOneAndUpdate(ctx,
		bson.M{"_id": paymentID, "razorpayOrderId": req.OrderID, "status": models.PaymentCreated},
		bson.M{"$set": bson.M{
			"razorpayPaymentId": req.GatewayID,
			"razorpaySignature": req.Signature,
			"status":            models.PaymentPaid,
			"updatedAt":         now,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&payment)

	if err == mongo.ErrNoDocuments {
		// Lost the swap: either the order id does not match this record, or
		// the order was already paid. A replay of a paid order succeeds
		// without re-committing.
		var existing models.Payment
		ferr := database.Payments.FindOne(ctx, bson.M{"_id": paymentID}).Decode(&existing)
		if ferr == nil && existing.Status == models.PaymentPaid && existing.RazorpayOrderID == req.OrderID {
			c.JSON(http.StatusOK, gin.H{
				"success":   true,
				"message":   "Payment already verified",
				"isUpgrade": existing.IsUpgrade,
				"newPlan":   existing.Plan,
			})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Payment not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Verification failed"})
		return
	}

	var user models.User
	if err := database.Users.FindOne(ctx, bson.M{"_id": payment.UserID}).Decode(&user); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
		return
	}

	updated := subscription.Apply(user.Subscription, payment, now)
	_, err = database.Users.UpdateOne(ctx, bson.M{"_id": payment.UserID},
		bson.M{"$set": bson.M{"subscription": updated}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Verification failed"})
		return
	}

	message := "Payment verified and subscription updated"
	if payment.IsUpgrade {
		message = fmt.Sprintf("Successfully upgraded to %s", payment.Plan)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   message,
		"isUpgrade": payment.IsUpgrade,
		"newPlan":   payment.Plan,
	})
}

// TotalRevenue sums the price of every paid order.
func TotalRevenue(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := database.Payments.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"status": models.PaymentPaid}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$price"}}}},
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to fetch total revenue"})
		return
	}

	var results []struct {
		Total int `bson:"total"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to fetch total revenue"})
		return
	}

	revenue := 0
	if len(results) > 0 {
		revenue = results[0].Total
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "totalRevenue": revenue, "currency": "INR"})
}
