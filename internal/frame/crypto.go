package frame

import (
	"github.com/brocaar/lorawan"
	"github.com/pkg/errors"
)

// EncryptFRMPayload encrypts the given FRMPayload bytes. As the payload is
// XOR'ed with an AES generated keystream, the same function is used for
// decryption. A new slice of the same length is returned, the input is
// never modified.
func EncryptFRMPayload(key lorawan.AES128Key, dir Direction, devAddr lorawan.DevAddr, fCnt uint32, data []byte) ([]byte, error) {
	// the lorawan package XORs in place and pads to the block size
	out, err := lorawan.EncryptFRMPayload(key, dir == Uplink, devAddr, fCnt, clone(data))
	if err != nil {
		return nil, errors.Wrap(err, "frame: encrypt frmpayload error")
	}
	return out, nil
}

// DecryptFRMPayload returns the plaintext FRMPayload of the given frame.
// FPort 0 payloads (MAC commands) are encrypted with the network session
// key, all other ports with the application session key.
func DecryptFRMPayload(f Frame, appSKey, nwkSKey lorawan.AES128Key) ([]byte, error) {
	if f.FPort == nil || len(f.FRMPayload) == 0 {
		return []byte{}, nil
	}

	key := appSKey
	if *f.FPort == 0 {
		key = nwkSKey
	}

	return EncryptFRMPayload(key, f.Direction(), f.DevAddr, uint32(f.FCnt), f.FRMPayload)
}
