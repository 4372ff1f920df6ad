package integration

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// MultiIntegration publishes to all the wrapped integrations.
type MultiIntegration struct {
	integrations []Integration
}

// NewMultiIntegration creates a new MultiIntegration.
func NewMultiIntegration(integrations ...Integration) *MultiIntegration {
	return &MultiIntegration{
		integrations: integrations,
	}
}

// Add adds the given integration.
func (m *MultiIntegration) Add(i Integration) {
	m.integrations = append(m.integrations, i)
}

// Len returns the number of wrapped integrations.
func (m *MultiIntegration) Len() int {
	return len(m.integrations)
}

// PublishUplink publishes the event to all integrations concurrently. A
// failing integration does not prevent the others from publishing, the
// first error is returned.
func (m *MultiIntegration) PublishUplink(ctx context.Context, event UplinkEvent) error {
	var g errgroup.Group

	for _, i := range m.integrations {
		i := i
		g.Go(func() error {
			if err := i.PublishUplink(ctx, event); err != nil {
				log.WithError(err).WithFields(log.Fields{
					"gateway_id":  event.GatewayID,
					"integration": typeName(i),
				}).Error("integration/multi: publish uplink error")
				return err
			}
			return nil
		})
	}

	return g.Wait()
}

// Close closes all integrations.
func (m *MultiIntegration) Close() error {
	var firstErr error
	for _, i := range m.integrations {
		if err := i.Close(); err != nil && firstErr == nil {
			firstErr = errors.Wrap(err, "close integration error")
		}
	}
	return firstErr
}

func typeName(i Integration) string {
	return fmt.Sprintf("%T", i)
}
