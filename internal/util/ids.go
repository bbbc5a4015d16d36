package util

import (
	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// NewRecordID returns a random UUID string. Storage modules only accept UUIDs as record ids.
func NewRecordID() string {
	return uuid.NewString()
}

// NewCorrelationID returns a short id used to follow a sync job through queue and logs.
func NewCorrelationID() string {
	id, err := gonanoid.New()
	if err != nil {
		return uuid.NewString()
	}
	return id
}

// IsRecordID reports whether s parses as a UUID.
func IsRecordID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
