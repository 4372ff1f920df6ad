package uplink

import (
	"encoding/base64"
	"encoding/hex"

	"github.com/pkg/errors"
)

// Encoding defines the payload encoding.
type Encoding string

// Supported encodings.
const (
	EncodingHex    Encoding = "hex"
	EncodingBase64 Encoding = "base64"
)

// ErrUnknownEncoding is returned for an unsupported payload encoding.
var ErrUnknownEncoding = errors.New("uplink: unknown encoding")

// ParseEncoding returns the Encoding for the given name.
func ParseEncoding(s string) (Encoding, error) {
	switch Encoding(s) {
	case EncodingHex, EncodingBase64:
		return Encoding(s), nil
	default:
		return "", errors.Wrapf(ErrUnknownEncoding, "encoding %q", s)
	}
}

// DecodeString returns the bytes represented by s.
func (e Encoding) DecodeString(s string) ([]byte, error) {
	switch e {
	case EncodingHex:
		return hex.DecodeString(s)
	case EncodingBase64:
		// padding is optional
		if len(s)%4 != 0 {
			return base64.RawStdEncoding.DecodeString(s)
		}
		return base64.StdEncoding.DecodeString(s)
	default:
		return nil, errors.Wrapf(ErrUnknownEncoding, "encoding %q", string(e))
	}
}
