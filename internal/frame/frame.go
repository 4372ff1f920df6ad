// Package frame implements the LoRaWAN MAC frame codec: parsing of the
// PHYPayload, MIC calculation and FRMPayload encryption.
package frame

import (
	"encoding/binary"

	"github.com/brocaar/lorawan"
)

const (
	mhdrLen    = 1
	devAddrLen = 4
	fCtrlLen   = 1
	fCntLen    = 2
	micLen     = 4

	// fOptsOffset is the offset of the FOpts field (MHDR + DevAddr + FCtrl + FCnt).
	fOptsOffset = mhdrLen + devAddrLen + fCtrlLen + fCntLen

	// MinLength is the minimum length of a data frame (MHDR, FHDR without
	// FOpts and MIC).
	MinLength = fOptsOffset + micLen
)

// Direction defines the frame direction.
type Direction uint8

// Available directions.
const (
	Uplink   Direction = 0
	Downlink Direction = 1
)

// String implements fmt.Stringer.
func (d Direction) String() string {
	if d == Downlink {
		return "downlink"
	}
	return "uplink"
}

// FCtrl holds the frame control octet.
type FCtrl byte

// ADR returns the ADR bit.
func (c FCtrl) ADR() bool {
	return c&(1<<7) != 0
}

// ADRACKReq returns the ADRACKReq bit.
func (c FCtrl) ADRACKReq() bool {
	return c&(1<<6) != 0
}

// ACK returns the ACK bit.
func (c FCtrl) ACK() bool {
	return c&(1<<5) != 0
}

// FPending returns the FPending bit (downlink).
func (c FCtrl) FPending() bool {
	return c&(1<<4) != 0
}

// ClassB returns the Class B bit (uplink). It shares its position with
// FPending.
func (c FCtrl) ClassB() bool {
	return c.FPending()
}

// FOptsLen returns the length of the FOpts field.
func (c FCtrl) FOptsLen() int {
	return int(c & 0x0f)
}

// Frame represents a parsed LoRaWAN data frame. All slices are copies of the
// parsed buffer.
type Frame struct {
	MHDR       lorawan.MHDR
	DevAddr    lorawan.DevAddr
	FCtrl      FCtrl
	FCnt       uint16
	FOpts      []byte
	FPort      *uint8
	FRMPayload []byte
	MIC        lorawan.MIC
}

// Direction returns the direction derived from the message type.
func (f Frame) Direction() Direction {
	switch f.MHDR.MType {
	case lorawan.JoinAccept, lorawan.UnconfirmedDataDown, lorawan.ConfirmedDataDown:
		return Downlink
	default:
		return Uplink
	}
}

// IsDataFrame returns true when the message type is a (un)confirmed data
// up or down frame.
func (f Frame) IsDataFrame() bool {
	switch f.MHDR.MType {
	case lorawan.UnconfirmedDataUp, lorawan.UnconfirmedDataDown, lorawan.ConfirmedDataUp, lorawan.ConfirmedDataDown:
		return true
	default:
		return false
	}
}

// DevAddrUint32 returns the DevAddr as 32 bit identifier.
func (f Frame) DevAddrUint32() uint32 {
	return binary.BigEndian.Uint32(f.DevAddr[:])
}

// NwkID returns the 7 bit NwkID of a type 0 DevAddr.
func (f Frame) NwkID() uint8 {
	return uint8((f.DevAddrUint32() >> 25) & 0x7f)
}

// Len returns the number of bytes the frame occupies on the wire.
func (f Frame) Len() int {
	n := fOptsOffset + len(f.FOpts) + len(f.FRMPayload) + micLen
	if f.FPort != nil {
		n++
	}
	return n
}

// Parse parses the given PHYPayload bytes into a Frame. The given slice is
// not modified nor retained.
func Parse(b []byte) (Frame, error) {
	var f Frame

	if len(b) < MinLength {
		return f, newParseError(ErrTooShort, 0, len(b), "at least %d bytes are expected", MinLength)
	}

	micOffset := len(b) - micLen

	if err := f.MHDR.UnmarshalBinary(b[0:mhdrLen]); err != nil {
		return f, newParseError(ErrMalformed, 0, len(b), "%s", err)
	}
	if err := f.DevAddr.UnmarshalBinary(b[mhdrLen : mhdrLen+devAddrLen]); err != nil {
		return f, newParseError(ErrMalformed, mhdrLen, len(b), "%s", err)
	}
	f.FCtrl = FCtrl(b[mhdrLen+devAddrLen])
	f.FCnt = binary.LittleEndian.Uint16(b[mhdrLen+devAddrLen+fCtrlLen : fOptsOffset])

	fOptsEnd := fOptsOffset + f.FCtrl.FOptsLen()
	if fOptsEnd > micOffset {
		return f, newParseError(ErrMalformed, fOptsOffset, len(b), "FOptsLen %d exceeds the available %d bytes", f.FCtrl.FOptsLen(), micOffset-fOptsOffset)
	}
	f.FOpts = clone(b[fOptsOffset:fOptsEnd])

	if micOffset-fOptsEnd >= 1 {
		fPort := b[fOptsEnd]
		f.FPort = &fPort
		f.FRMPayload = clone(b[fOptsEnd+1 : micOffset])
	} else {
		f.FRMPayload = []byte{}
	}

	copy(f.MIC[:], b[micOffset:])

	return f, nil
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
