package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	CommentMinLen = 3
	CommentMaxLen = 1000
)

// AnonymousDisplayName is shown for content whose author chose anonymity.
const AnonymousDisplayName = "Anonymous user"

type Comment struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Text            string              `bson:"text" json:"text"`
	Author          *primitive.ObjectID `bson:"author" json:"author,omitempty"`
	Post            primitive.ObjectID  `bson:"post" json:"post"`
	Anonymous       bool                `bson:"anonymous" json:"anonymous"`
	AnonymousAuthor *string             `bson:"anonymousAuthor" json:"anonymousAuthor,omitempty"`
	CreatedAt       time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// CommentWithRefs carries the denormalized author and post for display.
type CommentWithRefs struct {
	Comment    `bson:",inline"`
	AuthorUser *UserPublic `bson:"authorUser" json:"authorUser,omitempty"`
	PostRef    *PostRef    `bson:"postRef" json:"postRef,omitempty"`
}
