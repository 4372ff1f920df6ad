package test

import (
	"context"

	"github.com/brocaar/chirpstack-uplink-decoder/internal/integration"
)

// Integration is a test integration capturing the published uplink events.
type Integration struct {
	UplinkEventChan chan integration.UplinkEvent
	Err             error
}

// NewIntegration returns a new Integration.
func NewIntegration() *Integration {
	return &Integration{
		UplinkEventChan: make(chan integration.UplinkEvent, 100),
	}
}

// PublishUplink captures the given event and returns Err.
func (i *Integration) PublishUplink(ctx context.Context, event integration.UplinkEvent) error {
	i.UplinkEventChan <- event
	return i.Err
}

// Close closes the uplink event channel.
func (i *Integration) Close() error {
	close(i.UplinkEventChan)
	return nil
}
