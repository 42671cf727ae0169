package utils

import (
	"github.com/google/uuid"
)

// GenerateID returns a new unique identifier string
func GenerateID() string {
	return uuid.NewString()
}

// GeneratePrefixedID returns a unique identifier tagged with prefix, e.g. "sub-<uuid>"
func GeneratePrefixedID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}
