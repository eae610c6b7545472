package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Post is a piece of content published by a user.
type Post struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	UserID    bson.ObjectID `bson:"user_id"`
	Content   string        `bson:"content"`
	Images    []string      `bson:"images"`
	Likes     int64         `bson:"likes"`
	CreatedAt time.Time     `bson:"created_at"`
	UpdatedAt time.Time     `bson:"updated_at"`
}
