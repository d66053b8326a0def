package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AnonymousAuthorName is the display name stamped on content whose author
// account was deleted.
const AnonymousAuthorName = "Deleted user"

type Post struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title           string               `bson:"title" json:"title"`
	Slug            string               `bson:"slug" json:"slug"`
	Description     string               `bson:"description" json:"description"`
	Photo           []string             `bson:"photo" json:"photo"`
	Author          *primitive.ObjectID  `bson:"author" json:"author,omitempty"`
	Tags            []string             `bson:"tags" json:"tags"`
	Likes           []primitive.ObjectID `bson:"likes" json:"likes"`
	Views           int64                `bson:"views" json:"views"`
	IsPublished     bool                 `bson:"isPublished" json:"isPublished"`
	Anonymous       bool                 `bson:"anonymous" json:"anonymous"`
	AnonymousAuthor *string              `bson:"anonymousAuthor" json:"anonymousAuthor,omitempty"`
	Comments        []primitive.ObjectID `bson:"comments" json:"comments"`
	CreatedAt       time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// PostWithAuthor is the joined shape returned by list and detail reads.
type PostWithAuthor struct {
	Post       `bson:",inline"`
	AuthorUser *UserPublic `bson:"authorUser" json:"authorUser,omitempty"`
}

// PostRef is the post projection embedded in comment payloads.
type PostRef struct {
	ID    primitive.ObjectID `bson:"_id" json:"id"`
	Title string             `bson:"title" json:"title"`
	Slug  string             `bson:"slug" json:"slug"`
}
