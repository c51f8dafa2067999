package util

import "github.com/google/uuid"

// NewID returns a freshly generated identifier, unique within a collection.
func NewID() string {
	return uuid.NewString()
}
