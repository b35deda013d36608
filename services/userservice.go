package services

import (
	"context"
	"errors"

	"todoapp/model"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func UserExist(ctx context.Context, firestoreClient *firestore.Client, email string) (bool, error) {
	usersCollection := firestoreClient.Collection("Users")
	query := usersCollection.Where("email", "==", email).Limit(1)
	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return false, err
	}
	return len(docs) > 0, nil
}

func GetUserByEmail(ctx context.Context, firestoreClient *firestore.Client, email string) (model.User, error) {
	usersCollection := firestoreClient.Collection("Users")
	query := usersCollection.Where("email", "==", email).Limit(1)
	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return model.User{}, err
	}
	if len(docs) == 0 {
		return model.User{}, errors.New("user not found")
	}

	var user model.User
	if err := docs[0].DataTo(&user); err != nil {
		return model.User{}, err
	}
	return user, nil
}

func GetUserByID(ctx context.Context, firestoreClient *firestore.Client, userID string) (model.User, error) {
	doc, err := firestoreClient.Collection("Users").Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return model.User{}, errors.New("user not found")
		}
		return model.User{}, err
	}

	var user model.User
	if err := doc.DataTo(&user); err != nil {
		return model.User{}, err
	}
	return user, nil
}
