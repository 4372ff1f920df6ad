// Package azureservicebus implements an Azure Service Bus integration.
package azureservicebus

import (
	"context"
	"encoding/json"
	"time"

	servicebus "github.com/Azure/azure-service-bus-go"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/brocaar/chirpstack-uplink-decoder/internal/integration"
)

// PublishMode defines if the events are published to a queue or a topic.
type PublishMode string

// Publish modes.
const (
	PublishModeQueue PublishMode = "queue"
	PublishModeTopic PublishMode = "topic"
)

const closeTimeout = 5 * time.Second

// Config holds the Azure Service Bus integration configuration.
type Config struct {
	ConnectionString string
	PublishMode      PublishMode
	PublishName      string
}

type sender interface {
	Send(ctx context.Context, msg *servicebus.Message) error
	Close(ctx context.Context) error
}

type queueSender struct {
	*servicebus.Queue
}

func (s queueSender) Send(ctx context.Context, msg *servicebus.Message) error {
	return s.Queue.Send(ctx, msg)
}

type topicSender struct {
	*servicebus.Topic
}

func (s topicSender) Send(ctx context.Context, msg *servicebus.Message) error {
	return s.Topic.Send(ctx, msg)
}

// Integration implements an Azure Service Bus integration.
type Integration struct {
	sender sender
	name   string
}

// New creates a new Azure Service Bus integration.
func New(conf Config) (*Integration, error) {
	if conf.PublishName == "" {
		return nil, errors.New("integration/azure_service_bus: publish_name must be set")
	}

	ns, err := servicebus.NewNamespace(servicebus.NamespaceWithConnectionString(conf.ConnectionString))
	if err != nil {
		return nil, errors.Wrap(err, "integration/azure_service_bus: new namespace error")
	}

	i := Integration{name: conf.PublishName}

	switch conf.PublishMode {
	case PublishModeTopic:
		t, err := ns.NewTopic(conf.PublishName)
		if err != nil {
			return nil, errors.Wrap(err, "integration/azure_service_bus: new topic client error")
		}
		i.sender = topicSender{t}
	case PublishModeQueue, "":
		q, err := ns.NewQueue(conf.PublishName)
		if err != nil {
			return nil, errors.Wrap(err, "integration/azure_service_bus: new queue client error")
		}
		i.sender = queueSender{q}
	default:
		return nil, errors.Errorf("integration/azure_service_bus: invalid publish_mode: %s", conf.PublishMode)
	}

	log.WithFields(log.Fields{
		"namespace": ns.Name,
		"mode":      conf.PublishMode,
		"name":      conf.PublishName,
	}).Info("integration/azure_service_bus: integration setup completed")

	return &i, nil
}

// PublishUplink publishes the uplink event to the configured queue or topic.
func (i *Integration) PublishUplink(ctx context.Context, event integration.UplinkEvent) error {
	msg, err := newMessage(event)
	if err != nil {
		return err
	}

	if err := i.sender.Send(ctx, msg); err != nil {
		publishCounter("error").Inc()
		return errors.Wrap(err, "integration/azure_service_bus: send message error")
	}

	publishCounter("ok").Inc()
	log.WithFields(log.Fields{
		"gateway_id": event.GatewayID,
		"name":       i.name,
	}).Debug("integration/azure_service_bus: uplink event published")

	return nil
}

// Close closes the queue or topic client.
func (i *Integration) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	return i.sender.Close(ctx)
}

func newMessage(event integration.UplinkEvent) (*servicebus.Message, error) {
	b, err := json.Marshal(event)
	if err != nil {
		return nil, errors.Wrap(err, "marshal event error")
	}

	msg := servicebus.NewMessage(b)
	msg.ContentType = "application/json"
	msg.UserProperties = map[string]interface{}{
		"event":     "up",
		"gatewayID": event.GatewayID.String(),
	}
	if event.Frame != nil {
		msg.UserProperties["nwkID"] = int(event.Frame.NwkID)
	}

	return msg, nil
}
