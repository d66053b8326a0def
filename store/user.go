package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"blogapi/models"
)

// CreateUser stores a new user. The password must already be hashed. A
// duplicate email hits the unique index and is surfaced as ErrConflict.
func (s *Store) CreateUser(ctx context.Context, fullname, email, passwordHash, avatar string) (*models.User, error) {
	now := time.Now().UTC()
	user := &models.User{
		ID:        primitive.NewObjectID(),
		Fullname:  fullname,
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Password:  passwordHash,
		Avatar:    avatar,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.users.InsertOne(ctx, user); err != nil {
		if isDuplicateKey(err) {
			return nil, fmt.Errorf("email already registered: %w", ErrConflict)
		}
		return nil, err
	}
	return user, nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.users.FindOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UserUpdate carries the optional profile fields of a partial update; nil
// means leave unchanged. Password must arrive pre-hashed.
type UserUpdate struct {
	Fullname *string
	Email    *string
	Password *string
	Avatar   *string
}

func (s *Store) UpdateUser(ctx context.Context, id primitive.ObjectID, upd UserUpdate) (*models.User, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if upd.Fullname != nil {
		set["fullname"] = *upd.Fullname
	}
	if upd.Email != nil {
		set["email"] = strings.ToLower(strings.TrimSpace(*upd.Email))
	}
	if upd.Password != nil {
		set["password"] = *upd.Password
	}
	if upd.Avatar != nil {
		set["avatar"] = *upd.Avatar
	}

	var updated models.User
	err := s.users.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		if isDuplicateKey(err) {
			return nil, fmt.Errorf("email already registered: %w", ErrConflict)
		}
		return nil, err
	}
	return &updated, nil
}

// DeleteUser runs the deletion cascade: the user's posts and comments are
// anonymized in bulk rather than deleted, their likes are stripped from all
// posts, then the user document itself is removed. Every step is idempotent,
// so a cascade that fails partway can simply be re-run.
func (s *Store) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	n, err := s.users.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}

	anonymize := bson.M{"$set": bson.M{
		"author":          nil,
		"anonymous":       true,
		"anonymousAuthor": models.AnonymousAuthorName,
	}}

	if _, err := s.posts.UpdateMany(ctx, bson.M{"author": id}, anonymize); err != nil {
		return err
	}
	if _, err := s.comments.UpdateMany(ctx, bson.M{"author": id}, anonymize); err != nil {
		return err
	}
	if _, err := s.posts.UpdateMany(ctx,
		bson.M{"likes": id},
		bson.M{"$pull": bson.M{"likes": id}}); err != nil {
		return err
	}

	_, err = s.users.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
