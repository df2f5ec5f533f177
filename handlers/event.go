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
	"github.com/mr-sankar/Sindhuur-backend-latest/scheduler"
)

type eventRequest struct {
	Title        string `json:"title" binding:"required"`
	Description  string `json:"description" binding:"required"`
	Date         string `json:"date" binding:"required"` // "2006-01-02"
	Time         string `json:"time" binding:"required"` // "HH:MM"
	Location     string `json:"location" binding:"required"`
	Type         string `json:"type" binding:"required"`
	MaxAttendees int    `json:"maxAttendees" binding:"required,gt=0"`
	IsOnline     bool   `json:"isOnline"`
	Price        int    `json:"price"`
	Organizer    string `json:"organizer"`
	Image        string `json:"image"`
}

func (r eventRequest) startTime() (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", r.Date+" "+r.Time, time.Local)
}

// ListEvents returns events, optionally filtered by status, type, or a
// registered user's object id.
func ListEvents(c *gin.Context) {
	filter := bson.M{}
	if status := c.Query("status"); status != "" && status != "all" {
		filter["status"] = status
	}
	if typ := c.Query("type"); typ != "" && typ != "all" {
		filter["type"] = typ
	}
	if reg := c.Query("registeredUser"); reg != "" {
		oid, err := primitive.ObjectIDFromHex(reg)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user ID"})
			return
		}
		filter["registeredUsers"] = oid
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := database.Events.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error fetching events"})
		return
	}

	events := []models.Event{}
	if err := cursor.All(ctx, &events); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error fetching events"})
		return
	}

	c.JSON(http.StatusOK, events)
}

// CreateEvent schedules a new event in the upcoming state.
func CreateEvent(c *gin.Context) {
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	start, err := req.startTime()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid date or time"})
		return
	}
	if start.Before(time.Now()) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Event date and time must be in the future"})
		return
	}

	event := models.Event{
		ID:               primitive.NewObjectID(),
		Title:            req.Title,
		Description:      req.Description,
		Date:             start,
		Time:             req.Time,
		Location:         req.Location,
		Type:             req.Type,
		Status:           models.EventUpcoming,
		MaxAttendees:     req.MaxAttendees,
		CurrentAttendees: 0,
		RegisteredUsers:  []primitive.ObjectID{},
		IsOnline:         req.IsOnline,
		Price:            req.Price,
		Organizer:        orDefault(req.Organizer, "Admin"),
		Image:            req.Image,
		CreatedDate:      time.Now(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := database.Events.InsertOne(ctx, event); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error creating event"})
		return
	}

	c.JSON(http.StatusCreated, event)
}

// GetEvent returns one event, with an isRegistered flag when a profileId
// is supplied.
func GetEvent(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid event ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var event models.Event
	err = database.Events.FindOne(ctx, bson.M{"_id": id}).Decode(&event)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"message": "Event not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error fetching event"})
		return
	}

	isRegistered := false
	if profileID := c.Query("userId"); profileID != "" {
		var user models.User
		if database.Users.FindOne(ctx, bson.M{"profileId": profileID}).Decode(&user) == nil {
			for _, uid := range event.RegisteredUsers {
				if uid == user.ID {
					isRegistered = true
					break
				}
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{"event": event, "isRegistered": isRegistered})
}

// UpdateEvent rewrites an event's details. The new start must be in the
// future, so the rewrite always lands the event back in the upcoming state;
// a completed event can only be edited by rescheduling it.
func UpdateEvent(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid event ID"})
		return
	}

	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	start, err := req.startTime()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid date or time"})
		return
	}
	if start.Before(time.Now()) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Event date and time must be in the future"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var event models.Event
	err = database.Events.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"title":        req.Title,
			"description":  req.Description,
			"date":         start,
			"time":         req.Time,
			"location":     req.Location,
			"type":         req.Type,
			"maxAttendees": req.MaxAttendees,
			"isOnline":     req.IsOnline,
			"price":        req.Price,
			"organizer":    orDefault(req.Organizer, "Admin"),
			"image":        req.Image,
			"status":       models.EventUpcoming,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&event)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"message": "Event not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error updating event"})
		return
	}

	c.JSON(http.StatusOK, event)
}

// DeleteEvent removes the event and detaches it from every registrant.
func DeleteEvent(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid event ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	res, err := database.Events.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error deleting event"})
		return
	}
	if res.DeletedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "Event not found"})
		return
	}

	database.Users.UpdateMany(ctx,
		bson.M{"registeredEvents": id},
		bson.M{"$pull": bson.M{"registeredEvents": id}},
	)

	c.JSON(http.StatusOK, gin.H{"message": "Event deleted successfully"})
}

// RegisterEvent toggles the caller's registration. Registering checks
// capacity; both directions keep user.registeredEvents and the event's
// attendee list in step.
func RegisterEvent(c *gin.Context) {
	eventID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid event ID"})
		return
	}

	var req struct {
		UserID string `json:"userId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "User ID (profileId) is required"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err = database.Users.FindOne(ctx, bson.M{"profileId": req.UserID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error registering for event"})
		return
	}

	var event models.Event
	err = database.Events.FindOne(ctx, bson.M{"_id": eventID}).Decode(&event)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"message": "Event not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error registering for event"})
		return
	}

	registered := false
	for _, uid := range event.RegisteredUsers {
		if uid == user.ID {
			registered = true
			break
		}
	}

	if registered {
		// Unregister. The guard on registeredUsers keeps a double submit
		// from decrementing twice.
		res, err := database.Events.UpdateOne(ctx,
			bson.M{"_id": eventID, "registeredUsers": user.ID},
			bson.M{
				"$pull": bson.M{"registeredUsers": user.ID},
				"$inc":  bson.M{"currentAttendees": -1},
			},
		)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Error registering for event"})
			return
		}
		if res.ModifiedCount > 0 {
			database.Users.UpdateOne(ctx, bson.M{"_id": user.ID},
				bson.M{"$pull": bson.M{"registeredEvents": eventID}})
		}
		c.JSON(http.StatusOK, gin.H{"message": "Unregistered from event", "isRegistered": false})
		return
	}

	// Register. The capacity predicate is part of the filter so two racing
	// registrations cannot both take the last seat.
	res, err := database.Events.UpdateOne(ctx,
		bson.M{
			"_id":              eventID,
			"registeredUsers":  bson.M{"$ne": user.ID},
			"currentAttendees": bson.M{"$lt": event.MaxAttendees},
		},
		bson.M{
			"$addToSet": bson.M{"registeredUsers": user.ID},
			"$inc":      bson.M{"currentAttendees": 1},
		},
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error registering for event"})
		return
	}
	if res.ModifiedCount == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Event is full"})
		return
	}

	database.Users.UpdateOne(ctx, bson.M{"_id": user.ID},
		bson.M{"$addToSet": bson.M{"registeredEvents": eventID}})

	c.JSON(http.StatusOK, gin.H{"message": "Registered for event", "isRegistered": true})
}

// RegisteredEvents lists the events a profile is signed up for.
func RegisteredEvents(c *gin.Context) {
	profileID := c.Query("profileId")
	if profileID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "profileId is required"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err := database.Users.FindOne(ctx, bson.M{"profileId": profileID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error fetching events"})
		return
	}

	events := []models.Event{}
	if len(user.RegisteredEvents) > 0 {
		cursor, err := database.Events.Find(ctx, bson.M{"_id": bson.M{"$in": user.RegisteredEvents}})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Error fetching events"})
			return
		}
		if err := cursor.All(ctx, &events); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Error fetching events"})
			return
		}
	}

	c.JSON(http.StatusOK, events)
}

// RunEventSweep applies the lifecycle rule on demand, outside the cron
// cadence.
func RunEventSweep(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	updated, err := scheduler.Sweep(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Sweep failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Sweep completed", "updated": updated})
}
