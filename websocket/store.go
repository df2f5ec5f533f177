package websocket

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mr-sankar/Sindhuur-backend-latest/database"
	"github.com/mr-sankar/Sindhuur-backend-latest/models"
)

// MongoStore backs the hub with the messages and users collections.
type MongoStore struct{}

func NewMongoStore() *MongoStore {
	return &MongoStore{}
}

func (s *MongoStore) SaveMessage(ctx context.Context, msg *models.Message) error {
	msg.ID = primitive.NewObjectID()
	_, err := database.Messages.InsertOne(ctx, msg)
	return err
}

func (s *MongoStore) EditMessage(ctx context.Context, id, newText string) (*models.Message, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var msg models.Message
	err = database.Messages.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"text": newText, "edited": true}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&msg)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (s *MongoStore) DeleteMessage(ctx context.Context, id string) (*models.Message, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var msg models.Message
	err = database.Messages.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&msg)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (s *MongoStore) AddChatContact(ctx context.Context, profileID, contactID string) error {
	_, err := database.Users.UpdateOne(ctx,
		bson.M{"profileId": profileID},
		bson.M{"$addToSet": bson.M{"chatContacts": contactID}},
	)
	return err
}
