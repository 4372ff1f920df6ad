package frame

import (
	"fmt"

	"github.com/pkg/errors"
)

// errors
var (
	ErrTooShort  = errors.New("frame: too short")
	ErrMalformed = errors.New("frame: malformed")
)

// ParseError is returned by Parse. It wraps ErrTooShort or ErrMalformed
// and holds the offset at which parsing failed.
type ParseError struct {
	Err    error
	Offset int
	Length int
	Detail string
}

func newParseError(err error, offset, length int, format string, args ...interface{}) *ParseError {
	return &ParseError{
		Err:    err,
		Offset: offset,
		Length: length,
		Detail: fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s (offset: %d, length: %d)", e.Err, e.Detail, e.Offset, e.Length)
}

// Unwrap returns the underlying sentinel error.
func (e *ParseError) Unwrap() error {
	return e.Err
}
