// Package integration defines the interface for publishing uplink events
// to a message-bus.
package integration

import (
	"context"
	"time"

	"github.com/brocaar/lorawan"
	"github.com/brocaar/lorawan/backend"

	"github.com/brocaar/chirpstack-uplink-decoder/internal/uplink"
)

// Integration defines the interface that an integration must implement.
type Integration interface {
	// PublishUplink publishes the given uplink event.
	PublishUplink(ctx context.Context, event UplinkEvent) error

	// Close closes the integration.
	Close() error
}

// RXInfo contains the radio metadata as reported by the gateway.
type RXInfo struct {
	Time       *time.Time `json:"time,omitempty"`
	Timestamp  uint32     `json:"tmst"`
	Frequency  float64    `json:"freq"`
	Channel    uint8      `json:"chan"`
	RFChain    uint8      `json:"rfch"`
	CRCStatus  int8       `json:"stat"`
	Modulation string     `json:"modu"`
	DataRate   string     `json:"datr"`
	CodingRate string     `json:"codr"`
	RSSI       int16      `json:"rssi"`
	LoRaSNR    float64    `json:"lsnr"`
	Size       uint16     `json:"size"`
}

// UplinkEvent is published for every frame received by a gateway. Frame is
// nil when the frame could not be parsed, in which case Error is set.
type UplinkEvent struct {
	GatewayID  lorawan.EUI64     `json:"gatewayID"`
	ReceivedAt time.Time         `json:"receivedAt"`
	RXInfo     RXInfo            `json:"rxInfo"`
	PHYPayload backend.HEXBytes  `json:"phyPayload"`
	Frame      *uplink.FrameInfo `json:"frame,omitempty"`
	Error      string            `json:"error,omitempty"`
}
