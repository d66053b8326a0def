package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Fullname  string             `bson:"fullname" json:"fullname"`
	Email     string             `bson:"email" json:"email"`
	Password  string             `bson:"password" json:"-"`
	Avatar    string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// UserPublic is the author projection embedded in post and comment payloads.
type UserPublic struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	Fullname string             `bson:"fullname" json:"fullname"`
	Avatar   string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
}

func (u *User) Public() *UserPublic {
	return &UserPublic{ID: u.ID, Fullname: u.Fullname, Avatar: u.Avatar}
}
