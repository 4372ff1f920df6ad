package uplink

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestEncodingDecodeString(t *testing.T) {
	tests := []struct {
		name     string
		encoding Encoding
		in       string
		expected []byte
		err      bool
	}{
		{
			name:     "hex",
			encoding: EncodingHex,
			in:       "01020304",
			expected: []byte{1, 2, 3, 4},
		},
		{
			name:     "base64 padded",
			encoding: EncodingBase64,
			in:       "AQIDBA==",
			expected: []byte{1, 2, 3, 4},
		},
		{
			name:     "base64 unpadded",
			encoding: EncodingBase64,
			in:       "AQIDBA",
			expected: []byte{1, 2, 3, 4},
		},
		{
			name:     "base64 no padding needed",
			encoding: EncodingBase64,
			in:       "AQID",
			expected: []byte{1, 2, 3},
		},
		{
			name:     "base64 invalid length",
			encoding: EncodingBase64,
			in:       "AQIDB",
			err:      true,
		},
		{
			name:     "base64 invalid character",
			encoding: EncodingBase64,
			in:       "AQ!D",
			err:      true,
		},
		{
			name:     "invalid hex",
			encoding: EncodingHex,
			in:       "0g",
			err:      true,
		},
	}

	for _, tst := range tests {
		t.Run(tst.name, func(t *testing.T) {
			assert := require.New(t)

			b, err := tst.encoding.DecodeString(tst.in)
			if tst.err {
				assert.Error(err)
				return
			}
			assert.NoError(err)
			assert.Equal(tst.expected, b)
		})
	}

	t.Run("unknown encoding", func(t *testing.T) {
		assert := require.New(t)
		_, err := Encoding("base32").DecodeString("AA")
		assert.True(errors.Is(err, ErrUnknownEncoding))
	})
}
