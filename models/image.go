package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Image documents are immutable once stored and served by id.
type Image struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Filename    string             `bson:"filename" json:"filename"`
	Data        []byte             `bson:"data" json:"-"`
	ContentType string             `bson:"contentType" json:"contentType"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}
