package registry

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no civil record matches a national ID
var ErrNotFound = errors.New("civil record not found")

// Person is a civil registry record
type Person struct {
	NationalID  string
	FirstName   string
	LastName    string
	DateOfBirth time.Time
	Deceased    bool
}

// Registry provides read access to the national civil registry
type Registry interface {
	// Lookup fetches the civil record for a national ID
	Lookup(ctx context.Context, nationalID string) (*Person, error)

	// Health checks registry connectivity
	Health(ctx context.Context) error

	// Close releases the registry connection
	Close() error
}
