package uuid

import (
	"github.com/segmentio/ksuid"
)

// NewUUID returns a new k-sortable unique identifier.
func NewUUID() string {
	return ksuid.New().String()
}

// IsValid reports whether id was produced by NewUUID.
func IsValid(id string) bool {
	_, err := ksuid.Parse(id)
	return err == nil
}
