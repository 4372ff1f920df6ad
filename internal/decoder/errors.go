package decoder

import (
	"fmt"

	"github.com/pkg/errors"
)

// errors
var (
	ErrNotFound          = errors.New("decoder: decoder not found")
	ErrInvalidIdentifier = errors.New("decoder: invalid identifier")
)

// NotFoundError is returned when no decoder exists for the given
// application and device.
type NotFoundError struct {
	ApplicationID string
	DeviceID      string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("decoder: no decoder found for application %q and device %q", e.ApplicationID, e.DeviceID)
}

// Unwrap returns ErrNotFound.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// InvalidIdentifierError is returned when an application or device
// identifier does not match the allowed pattern.
type InvalidIdentifierError struct {
	Field string
	Value string
}

// Error implements the error interface.
func (e *InvalidIdentifierError) Error() string {
	return fmt.Sprintf("decoder: invalid %s identifier %q", e.Field, e.Value)
}

// Unwrap returns ErrInvalidIdentifier.
func (e *InvalidIdentifierError) Unwrap() error {
	return ErrInvalidIdentifier
}
