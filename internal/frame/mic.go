package frame

import (
	"crypto/subtle"
	"encoding/binary"

	"github.com/brocaar/lorawan"
	"github.com/jacobsa/crypto/cmac"
	"github.com/pkg/errors"
)

// ComputeMIC calculates the MIC over the given message bytes (MHDR,
// FHDR, FPort and FRMPayload) using the B0 block construction.
func ComputeMIC(key lorawan.AES128Key, dir Direction, devAddr lorawan.DevAddr, fCnt uint32, msg []byte) (lorawan.MIC, error) {
	var mic lorawan.MIC

	if len(msg) > 255 {
		return mic, errors.New("frame: message exceeds 255 bytes")
	}

	b0 := make([]byte, 16)
	b0[0] = 0x49
	b0[5] = byte(dir)
	b, err := devAddr.MarshalBinary()
	if err != nil {
		return mic, err
	}
	copy(b0[6:10], b)
	binary.LittleEndian.PutUint32(b0[10:14], fCnt)
	b0[15] = byte(len(msg))

	hash, err := cmac.New(key[:])
	if err != nil {
		return mic, errors.Wrap(err, "frame: new cmac error")
	}
	if _, err := hash.Write(b0); err != nil {
		return mic, errors.Wrap(err, "frame: write b0 error")
	}
	if _, err := hash.Write(msg); err != nil {
		return mic, errors.Wrap(err, "frame: write message error")
	}

	hb := hash.Sum([]byte{})
	if len(hb) < len(mic) {
		return mic, errors.New("frame: the hash returned less than 4 bytes")
	}
	copy(mic[:], hb)

	return mic, nil
}

// VerifyMIC recomputes the MIC of the given frame over raw (the bytes the
// frame was parsed from) and compares it in constant time with the MIC
// stored in the frame. The upper 16 bits of the frame-counter are assumed
// to be zero.
func VerifyMIC(f Frame, raw []byte, key lorawan.AES128Key) bool {
	if len(raw) < MinLength || len(raw) != f.Len() {
		return false
	}

	mic, err := ComputeMIC(key, f.Direction(), f.DevAddr, uint32(f.FCnt), raw[:len(raw)-micLen])
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare(mic[:], f.MIC[:]) == 1
}
