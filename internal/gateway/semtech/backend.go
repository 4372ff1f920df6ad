// Package semtech implements a collector for the Semtech UDP packet-forwarder
// protocol. Received RF packets are inspected and published as uplink events.
package semtech

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/brocaar/lorawan/backend"

	"github.com/brocaar/chirpstack-uplink-decoder/internal/frame"
	"github.com/brocaar/chirpstack-uplink-decoder/internal/integration"
	"github.com/brocaar/chirpstack-uplink-decoder/internal/uplink"
)

const (
	readBufferSize = 65507
	publishTimeout = 5 * time.Second
)

// Backend implements the Semtech UDP collector.
type Backend struct {
	conn        *net.UDPConn
	integration integration.Integration

	wg      sync.WaitGroup
	closed  bool
	closeMu sync.Mutex
}

// NewBackend creates a new Backend listening on the given bind address.
// Received uplinks are published to the given integration.
func NewBackend(bind string, i integration.Integration) (*Backend, error) {
	addr, err := net.ResolveUDPAddr("udp", bind)
	if err != nil {
		return nil, errors.Wrap(err, "gateway/semtech: resolve udp addr error")
	}

	log.WithField("addr", addr).Info("gateway/semtech: starting gateway udp listener")

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, errors.Wrap(err, "gateway/semtech: listen udp error")
	}

	b := Backend{
		conn:        conn,
		integration: i,
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		if err := b.readPackets(); !b.isClosed() {
			log.WithError(err).Error("gateway/semtech: read udp packets error")
		}
	}()

	return &b, nil
}

// Addr returns the local address the backend is listening on.
func (b *Backend) Addr() net.Addr {
	return b.conn.LocalAddr()
}

// Close closes the UDP listener and waits for the read loop to return.
func (b *Backend) Close() error {
	log.Info("gateway/semtech: closing gateway backend")

	b.closeMu.Lock()
	b.closed = true
	b.closeMu.Unlock()

	if err := b.conn.Close(); err != nil {
		return errors.Wrap(err, "gateway/semtech: close udp listener error")
	}

	b.wg.Wait()
	return nil
}

func (b *Backend) isClosed() bool {
	b.closeMu.Lock()
	defer b.closeMu.Unlock()
	return b.closed
}

func (b *Backend) readPackets() error {
	buf := make([]byte, readBufferSize)
	for {
		i, addr, err := b.conn.ReadFromUDP(buf)
		if err != nil {
			return errors.Wrap(err, "read from udp error")
		}

		data := make([]byte, i)
		copy(data, buf[:i])

		if err := b.handlePacket(addr, data); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"data": data,
				"addr": addr,
			}).Error("gateway/semtech: could not handle packet")
		}
	}
}

func (b *Backend) handlePacket(addr *net.UDPAddr, data []byte) error {
	pt, err := GetPacketType(data)
	if err != nil {
		packetCounter("invalid").Inc()
		return err
	}

	packetCounter(pt.String()).Inc()

	log.WithFields(log.Fields{
		"addr":             addr,
		"type":             pt,
		"protocol_version": data[0],
	}).Debug("gateway/semtech: received udp packet from gateway")

	switch pt {
	case PushData:
		return b.handlePushData(addr, data)
	case PullData:
		return b.handlePullData(addr, data)
	default:
		log.WithFields(log.Fields{
			"addr": addr,
			"type": pt,
		}).Warning("gateway/semtech: ignoring unexpected packet type")
		return nil
	}
}

func (b *Backend) handlePullData(addr *net.UDPAddr, data []byte) error {
	var p PullDataPacket
	if err := p.UnmarshalBinary(data); err != nil {
		return errors.Wrap(err, "unmarshal pull_data error")
	}

	ack := PullACKPacket{
		ProtocolVersion: p.ProtocolVersion,
		RandomToken:     p.RandomToken,
	}
	return b.send(addr, ack)
}

func (b *Backend) handlePushData(addr *net.UDPAddr, data []byte) error {
	var p PushDataPacket
	if err := p.UnmarshalBinary(data); err != nil {
		return errors.Wrap(err, "unmarshal push_data error")
	}

	// the ack is sent before the payload is handled
	ack := PushACKPacket{
		ProtocolVersion: p.ProtocolVersion,
		RandomToken:     p.RandomToken,
	}
	if err := b.send(addr, ack); err != nil {
		return err
	}

	receivedAt := time.Now()
	for _, rxpk := range p.Payload.RXPK {
		event := newUplinkEvent(p, rxpk, receivedAt)

		if err := b.publish(event); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"gateway_id": p.GatewayMAC,
			}).Error("gateway/semtech: publish uplink event error")
		}
	}

	return nil
}

func (b *Backend) publish(event integration.UplinkEvent) error {
	if b.integration == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	return b.integration.PublishUplink(ctx, event)
}

func (b *Backend) send(addr *net.UDPAddr, p interface{ MarshalBinary() ([]byte, error) }) error {
	bb, err := p.MarshalBinary()
	if err != nil {
		return errors.Wrap(err, "marshal packet error")
	}

	if _, err := b.conn.WriteToUDP(bb, addr); err != nil {
		return errors.Wrap(err, "write to udp error")
	}
	return nil
}

func newUplinkEvent(p PushDataPacket, rxpk RXPK, receivedAt time.Time) integration.UplinkEvent {
	event := integration.UplinkEvent{
		GatewayID:  p.GatewayMAC,
		ReceivedAt: receivedAt,
		RXInfo: integration.RXInfo{
			Timestamp:  rxpk.Tmst,
			Frequency:  rxpk.Freq,
			Channel:    rxpk.Chan,
			RFChain:    rxpk.RFCh,
			CRCStatus:  rxpk.Stat,
			Modulation: rxpk.Modu,
			DataRate:   rxpk.DatR.String(),
			CodingRate: rxpk.CodR,
			RSSI:       rxpk.RSSI,
			LoRaSNR:    rxpk.LSNR,
			Size:       rxpk.Size,
		},
		PHYPayload: backend.HEXBytes(rxpk.Data),
	}

	if rxpk.Time != nil {
		t := time.Time(*rxpk.Time)
		event.RXInfo.Time = &t
	}

	f, err := frame.Parse(rxpk.Data)
	if err != nil {
		rxpkCounter("error").Inc()
		event.Error = err.Error()
		return event
	}

	rxpkCounter("ok").Inc()
	info := uplink.NewFrameInfo(f, rxpk.Data)
	event.Frame = &info

	log.WithFields(log.Fields{
		"gateway_id":   p.GatewayMAC,
		"dev_addr":     f.DevAddr,
		"f_cnt":        f.FCnt,
		"message_type": info.MessageType,
	}).Info("gateway/semtech: uplink frame received")

	return event
}
