package services

import (
	"errors"

	"gorm.io/gorm"
)

// Sentinel errors mapped by controllers to HTTP statuses. Persistence
// failures are wrapped with %w and surface as 500s; "no data" conditions
// never produce errors, only neutral results.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("invalid input")
)

// notFound translates gorm's record-not-found into the service taxonomy.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
