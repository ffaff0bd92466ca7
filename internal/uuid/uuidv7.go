// Package uuid generates the time-ordered identifiers used as row keys.
package uuid

import (
	googleuuid "github.com/google/uuid"
)

// New returns a UUIDv7 string. Holdings are keyed by these so rows created
// by one import sort by insertion time.
func New() string {
	id, err := googleuuid.NewV7()
	if err != nil {
		// crypto/rand failure; a random v4 still satisfies the uniqueness need
		return googleuuid.New().String()
	}
	return id.String()
}

// IsValid checks if a string is a valid UUID
func IsValid(s string) bool {
	_, err := googleuuid.Parse(s)
	return err == nil
}
