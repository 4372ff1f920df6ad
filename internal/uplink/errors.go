package uplink

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Kind defines the error kind.
type Kind string

// Error kinds.
const (
	KindValidation      Kind = "ValidationError"
	KindParse           Kind = "ParseError"
	KindInvalidMIC      Kind = "InvalidMic"
	KindDecoderNotFound Kind = "DecoderNotFound"
	KindDecodeFailure   Kind = "DecodeFailure"
	KindInternal        Kind = "InternalError"
)

// Error is returned by the Service operations. Fields holds the names of
// the invalid request fields in case of a validation error.
type Error struct {
	Kind    Kind
	Message string
	Fields  []string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Fields) != 0 {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, strings.Join(e.Fields, ", "))
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the error kind of the given error. Errors which are not
// an *Error (anywhere in the wrap chain) are of KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func newError(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

func validationError(fields []string, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: fmt.Sprintf(format, args...),
		Fields:  fields,
	}
}
