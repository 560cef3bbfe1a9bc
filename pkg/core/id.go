package core

import "github.com/google/uuid"

// NewID returns a new globally unique identifier. IDs are UUIDv7 strings and
// therefore sort lexicographically in creation order.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// IsID reports whether s has the shape of a generated identifier.
func IsID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
