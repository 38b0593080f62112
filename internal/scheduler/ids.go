package scheduler

import "github.com/google/uuid"

// IDGenerator produces job ids.
// Implemented by UUIDv7Generator and, in tests, testutil.FixedIDGenerator.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator produces time-sortable UUIDv7 job ids. It is stateless.
type UUIDv7Generator struct{}

// Generate returns a new hyphenated UUIDv7.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
