package utils

import (
	"strings"

	"github.com/google/uuid"
)

// IDLength is the number of hex characters in a client id.
const IDLength = 10

// NewID returns a short random client identifier drawn from a v4 UUID.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:IDLength]
}
