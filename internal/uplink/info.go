package uplink

import (
	"encoding/binary"

	"github.com/brocaar/lorawan"
	"github.com/brocaar/lorawan/backend"

	"github.com/brocaar/chirpstack-uplink-decoder/internal/frame"
)

// FrameInfo contains the fields of a parsed frame. Byte fields are HEX
// encoded when marshaled, multi-byte fields in big-endian order.
type FrameInfo struct {
	PHYPayload  backend.HEXBytes `json:"phyPayload"`
	MHDR        backend.HEXBytes `json:"mhdr"`
	MessageType string           `json:"messageType"`
	Major       uint8            `json:"major"`
	Direction   string           `json:"direction"`
	DevAddr     lorawan.DevAddr  `json:"devAddr"`
	NwkID       uint8            `json:"nwkId"`
	FCtrl       backend.HEXBytes `json:"fCtrl"`
	ADR         bool             `json:"adr"`
	ADRACKReq   bool             `json:"adrAckReq"`
	ACK         bool             `json:"ack"`
	FPending    bool             `json:"fPending"`
	ClassB      bool             `json:"classB"`
	FOptsLen    int              `json:"fOptsLen"`
	FCnt        uint16           `json:"fCnt"`
	FCntHex     backend.HEXBytes `json:"fCntHex"`
	FOpts       backend.HEXBytes `json:"fOpts"`
	FPort       *uint8           `json:"fPort"`
	FRMPayload  backend.HEXBytes `json:"frmPayload"`
	MIC         backend.HEXBytes `json:"mic"`
}

// NewFrameInfo returns the FrameInfo for the given frame and the raw bytes
// it was parsed from.
func NewFrameInfo(f frame.Frame, raw []byte) FrameInfo {
	dir := f.Direction()
	fCnt := make([]byte, 2)
	binary.BigEndian.PutUint16(fCnt, f.FCnt)

	info := FrameInfo{
		PHYPayload:  backend.HEXBytes(append([]byte{}, raw...)),
		MHDR:        backend.HEXBytes{raw[0]},
		MessageType: frame.MessageTypeLabel(f.MHDR.MType),
		Major:       uint8(f.MHDR.Major),
		Direction:   dir.String(),
		DevAddr:     f.DevAddr,
		NwkID:       f.NwkID(),
		FCtrl:       backend.HEXBytes{byte(f.FCtrl)},
		ADR:         f.FCtrl.ADR(),
		ADRACKReq:   f.FCtrl.ADRACKReq(),
		ACK:         f.FCtrl.ACK(),
		FOptsLen:    f.FCtrl.FOptsLen(),
		FCnt:        f.FCnt,
		FCntHex:     backend.HEXBytes(fCnt),
		FOpts:       backend.HEXBytes(f.FOpts),
		FPort:       f.FPort,
		FRMPayload:  backend.HEXBytes(f.FRMPayload),
		MIC:         backend.HEXBytes(f.MIC[:]),
	}

	// the same bit means FPending for downlink and ClassB for uplink
	if dir == frame.Downlink {
		info.FPending = f.FCtrl.FPending()
	} else {
		info.ClassB = f.FCtrl.ClassB()
	}

	return info
}
