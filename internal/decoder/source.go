package decoder

import (
	"context"
	"regexp"

	"github.com/pkg/errors"

	"github.com/brocaar/chirpstack-uplink-decoder/decoder"
)

const maxIdentifierLength = 36

var identifierRegexp = regexp.MustCompile(`^[a-z0-9](?:[-_]?[a-z0-9])*$`)

// Source defines the interface of a decoder source. Open must return an
// error wrapping ErrNotFound when the source has no decoder for the given
// identifiers. The identifiers are validated before Open is called.
type Source interface {
	Open(ctx context.Context, applicationID, deviceID string) (decoder.Decoder, error)
	Close() error
}

// ValidateIdentifier validates the given application or device identifier.
// Only lowercase alphanumerics separated by single dashes or underscores are
// allowed, which rules out path traversal when the identifier is used as
// path element.
func ValidateIdentifier(field, id string) error {
	if len(id) > maxIdentifierLength || !identifierRegexp.MatchString(id) {
		return &InvalidIdentifierError{Field: field, Value: id}
	}
	return nil
}

// ChainSource returns the decoder of the first source that has one.
type ChainSource []Source

// Open implements Source.
func (c ChainSource) Open(ctx context.Context, applicationID, deviceID string) (decoder.Decoder, error) {
	for _, s := range c {
		d, err := s.Open(ctx, applicationID, deviceID)
		if err == nil {
			return d, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return nil, ErrNotFound
}

// Close closes all sources.
func (c ChainSource) Close() error {
	var firstErr error
	for _, s := range c {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
