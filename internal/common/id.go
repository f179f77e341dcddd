package common

import (
	"github.com/google/uuid"
)

// NewRequestID generates a unique request correlation ID
// Format: req_<uuid>
func NewRequestID() string {
	return "req_" + uuid.New().String()
}
