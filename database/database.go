package database

import (
	"context"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var Client *mongo.Client
var Users *mongo.Collection
var Interests *mongo.Collection
var Payments *mongo.Collection
var Messages *mongo.Collection
var Events *mongo.Collection
var Reports *mongo.Collection
var PushSubs *mongo.Collection
var ProfileHistory *mongo.Collection

func ConnectMongo() error {
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		log.Warn("MONGODB_URI not set, using default localhost")
		uri = "mongodb://127.0.0.1:27017"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var err error
	Client, err = mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return err
	}

	if err := Client.Ping(ctx, nil); err != nil {
		return err
	}

	db := Client.Database("sindhuur")
	Users = db.Collection("users")
	Interests = db.Collection("interests")
	Payments = db.Collection("payments")
	Messages = db.Collection("messages")
	Events = db.Collection("events")
	Reports = db.Collection("reports")
	PushSubs = db.Collection("push_subscriptions")
	ProfileHistory = db.Collection("profile_history")

	log.Info("Connected to MongoDB successfully")
	return nil
}

// EnsureIndexes creates the uniqueness constraints the handlers rely on:
// one user per profileId and email, one interest document per source profile.
func EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	_, err := Users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			// Partial: registration stubs exist before a profileId is minted.
			Keys: bson.D{{Key: "profileId", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(bson.M{"profileId": bson.M{"$type": "string"}}),
		},
		{
			Keys:    bson.D{{Key: "personalInfo.email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return err
	}

	_, err = Interests.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userProfileId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = Messages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "senderId", Value: 1}, {Key: "receiverId", Value: 1}, {Key: "createdAt", Value: 1}},
	})
	return err
}

func DisconnectMongo() error {
	if Client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := Client.Disconnect(ctx); err != nil {
		return err
	}

	log.Info("Disconnected from MongoDB")
	return nil
}
