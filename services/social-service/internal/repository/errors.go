package repository

import (
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

var (
	// ErrNotFound is returned when no document matches, including malformed ids.
	ErrNotFound = errors.New("document not found")

	// ErrDuplicateKey is returned when a write violates a unique index.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrNotModified is returned when a conditional update matched the document
	// but its condition made the update a no-op.
	ErrNotModified = errors.New("document not modified")
)

// translateError maps driver errors to repository errors. Everything else is
// returned unchanged and should be treated as a transient failure.
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return errors.Join(ErrDuplicateKey, err)
	default:
		return err
	}
}

// parseID converts a hex id to an ObjectID. A malformed id cannot match any
// document, so it is reported as ErrNotFound.
func parseID(id string) (bson.ObjectID, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.ObjectID{}, ErrNotFound
	}
	return objectID, nil
}
