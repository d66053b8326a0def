package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"blogapi/models"
)

// SaveImage stores an immutable image document and returns it.
func (s *Store) SaveImage(ctx context.Context, filename, contentType string, data []byte) (*models.Image, error) {
	img := &models.Image{
		ID:          primitive.NewObjectID(),
		Filename:    filename,
		Data:        data,
		ContentType: contentType,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := s.images.InsertOne(ctx, img); err != nil {
		return nil, err
	}
	return img, nil
}

// GetImage fetches an image document by id, payload included.
func (s *Store) GetImage(ctx context.Context, id primitive.ObjectID) (*models.Image, error) {
	var img models.Image
	err := s.images.FindOne(ctx, bson.M{"_id": id}).Decode(&img)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &img, nil
}
