package frame

import (
	"testing"

	"github.com/brocaar/lorawan"
	"github.com/stretchr/testify/require"
)

func TestComputeMIC(t *testing.T) {
	tests := []struct {
		name  string
		mType lorawan.MType
		fCnt  uint32
	}{
		{"unconfirmed uplink", lorawan.UnconfirmedDataUp, 1},
		{"confirmed uplink", lorawan.ConfirmedDataUp, 65535},
		{"unconfirmed downlink", lorawan.UnconfirmedDataDown, 12},
		{"confirmed downlink", lorawan.ConfirmedDataDown, 0},
	}

	for _, tst := range tests {
		t.Run(tst.name, func(t *testing.T) {
			assert := require.New(t)

			b := lorawanDataFrame(t, tst.mType, tst.fCnt, 5, []byte{1, 2, 3, 4, 5})
			f, err := Parse(b)
			assert.NoError(err)

			mic, err := ComputeMIC(testNwkSKey, f.Direction(), f.DevAddr, tst.fCnt, b[:len(b)-4])
			assert.NoError(err)
			assert.Equal(f.MIC, mic)
			assert.True(VerifyMIC(f, b, testNwkSKey))
		})
	}
}

func TestVerifyMIC(t *testing.T) {
	plaintext := []byte{0x01, 0x67, 0x00, 0xe1, 0x02, 0x68, 0x50, 0x03, 0x02, 0x01}

	t.Run("23 byte uplink", func(t *testing.T) {
		assert := require.New(t)

		b := lorawanDataFrame(t, lorawan.UnconfirmedDataUp, 1, 1, plaintext)
		assert.Len(b, 23)

		f, err := Parse(b)
		assert.NoError(err)
		assert.True(VerifyMIC(f, b, testNwkSKey))

		mutated := make([]byte, len(b))
		copy(mutated, b)
		mutated[len(mutated)-5] ^= 0x01

		f, err = Parse(mutated)
		assert.NoError(err)
		assert.False(VerifyMIC(f, mutated, testNwkSKey))
	})

	t.Run("deterministic", func(t *testing.T) {
		assert := require.New(t)

		b := lorawanDataFrame(t, lorawan.UnconfirmedDataUp, 7, 1, plaintext)
		f, err := Parse(b)
		assert.NoError(err)

		for i := 0; i < 10; i++ {
			assert.True(VerifyMIC(f, b, testNwkSKey))
			assert.False(VerifyMIC(f, b, testAppSKey))
		}
	})

	t.Run("single bit flips", func(t *testing.T) {
		assert := require.New(t)

		b := lorawanDataFrame(t, lorawan.UnconfirmedDataUp, 3, 1, plaintext)

		for i := 0; i < (len(b)-4)*8; i++ {
			mutated := make([]byte, len(b))
			copy(mutated, b)
			mutated[i/8] ^= 1 << uint(i%8)

			f, err := Parse(mutated)
			if err != nil {
				// FOptsLen bits might make the frame malformed
				continue
			}
			assert.False(VerifyMIC(f, mutated, testNwkSKey), "bit %d", i)
		}
	})

	t.Run("raw does not match frame", func(t *testing.T) {
		assert := require.New(t)

		b := lorawanDataFrame(t, lorawan.UnconfirmedDataUp, 3, 1, plaintext)
		f, err := Parse(b)
		assert.NoError(err)

		assert.False(VerifyMIC(f, b[:len(b)-1], testNwkSKey))
		assert.False(VerifyMIC(f, nil, testNwkSKey))
	})
}
