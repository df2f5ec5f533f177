package handlers

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mr-sankar/Sindhuur-backend-latest/database"
	"github.com/mr-sankar/Sindhuur-backend-latest/models"
	"github.com/mr-sankar/Sindhuur-backend-latest/otp"
)

// UserCredentialStore adapts the users collection to otp.Store. The identity
// is either the account email or the user's object id hex; both resolve to
// the same embedded credential.
type UserCredentialStore struct{}

func credentialFilter(identity string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(identity); err == nil {
		return bson.M{"_id": oid}
	}
	return bson.M{"personalInfo.email": strings.ToLower(strings.TrimSpace(identity))}
}

func (UserCredentialStore) Credential(ctx context.Context, identity string) (*models.OTPCredential, error) {
	var user models.User
	err := database.Users.FindOne(ctx, credentialFilter(identity)).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, otp.ErrNoAccount
	}
	if err != nil {
		return nil, err
	}
	cred := user.OTP
	return &cred, nil
}

func (UserCredentialStore) SaveCredential(ctx context.Context, identity string, cred models.OTPCredential) error {
	res, err := database.Users.UpdateOne(ctx, credentialFilter(identity), bson.M{"$set": bson.M{"otp": cred}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return otp.ErrNoAccount
	}
	return nil
}
