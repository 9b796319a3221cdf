package core

import "github.com/google/uuid"

// GenerateID returns a new random identifier for domain records.
func GenerateID() string {
	return uuid.NewString()
}
