package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Comment is a reply of a user to a post.
type Comment struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	UserID    bson.ObjectID `bson:"user_id"`
	PostID    bson.ObjectID `bson:"post_id"`
	Content   string        `bson:"content"`
	Images    []string      `bson:"images"`
	CreatedAt time.Time     `bson:"created_at"`
	UpdatedAt time.Time     `bson:"updated_at"`
}
