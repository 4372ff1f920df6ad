package uplink

import (
	"crypto/aes"
	"encoding/hex"

	keywrap "github.com/NickBall/go-aes-key-wrap"
	"github.com/pkg/errors"

	"github.com/brocaar/lorawan"
)

// ErrUnknownKEKLabel is returned when a key references an unknown KEK.
var ErrUnknownKEKLabel = errors.New("uplink: unknown kek label")

// KEK defines a key encryption key.
type KEK struct {
	Label string `mapstructure:"label"`
	KEK   string `mapstructure:"kek"`
}

// KEKSet holds the configured key encryption keys by label.
type KEKSet map[string][]byte

// NewKEKSet creates a KEKSet from the given (hex encoded) KEKs.
func NewKEKSet(keks []KEK) (KEKSet, error) {
	set := make(KEKSet)
	for _, k := range keks {
		b, err := hex.DecodeString(k.KEK)
		if err != nil {
			return nil, errors.Wrapf(err, "decode kek %s error", k.Label)
		}
		if _, err := aes.NewCipher(b); err != nil {
			return nil, errors.Wrapf(err, "kek %s", k.Label)
		}
		set[k.Label] = b
	}
	return set, nil
}

// unwrapKey returns the session-key from the given hex string. When the
// label is not empty, the key is expected to be wrapped (RFC 3394) using the
// KEK with the given label.
func (s KEKSet) unwrapKey(label, str string) (lorawan.AES128Key, error) {
	var key lorawan.AES128Key

	if label == "" {
		if err := key.UnmarshalText([]byte(str)); err != nil {
			return key, errors.Wrap(err, "decode key error")
		}
		return key, nil
	}

	kek, ok := s[label]
	if !ok {
		return key, errors.Wrapf(ErrUnknownKEKLabel, "label %s", label)
	}

	b, err := hex.DecodeString(str)
	if err != nil {
		return key, errors.Wrap(err, "decode wrapped key error")
	}

	block, err := aes.NewCipher(kek)
	if err != nil {
		return key, errors.Wrap(err, "new cipher error")
	}

	b, err = keywrap.Unwrap(block, b)
	if err != nil {
		return key, errors.Wrap(err, "unwrap key error")
	}
	if len(b) != len(key) {
		return key, errors.Errorf("expected %d bytes unwrapped key, got %d", len(key), len(b))
	}

	copy(key[:], b)
	return key, nil
}
