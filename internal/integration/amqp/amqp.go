// Package amqp implements an AMQP (RabbitMQ) integration.
package amqp

import (
	"bytes"
	"context"
	"encoding/json"
	"text/template"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/streadway/amqp"

	"github.com/brocaar/chirpstack-uplink-decoder/internal/integration"
)

// Defaults used when not configured.
const (
	DefaultExchange           = "amq.topic"
	DefaultRoutingKeyTemplate = "gateway.{{ .GatewayID }}.event.up"
)

// Config holds the AMQP integration configuration.
type Config struct {
	URL                string
	Exchange           string
	RoutingKeyTemplate string
	ChannelPoolSize    int
}

// Integration implements an AMQP integration.
type Integration struct {
	conn   *amqp.Connection
	chPool *channelPool

	exchange   string
	routingKey *template.Template
}

// New creates a new AMQP integration.
func New(conf Config) (*Integration, error) {
	var err error

	i := Integration{
		exchange: conf.Exchange,
	}
	if i.exchange == "" {
		i.exchange = DefaultExchange
	}
	if conf.RoutingKeyTemplate == "" {
		conf.RoutingKeyTemplate = DefaultRoutingKeyTemplate
	}

	i.routingKey, err = template.New("routing_key").Parse(conf.RoutingKeyTemplate)
	if err != nil {
		return nil, errors.Wrap(err, "integration/amqp: parse routing-key template error")
	}

	log.Info("integration/amqp: connecting to AMQP server")
	i.conn, err = amqp.Dial(conf.URL)
	if err != nil {
		return nil, errors.Wrap(err, "integration/amqp: dial error")
	}

	i.chPool, err = newChannelPool(i.conn, conf.ChannelPoolSize)
	if err != nil {
		i.conn.Close()
		return nil, errors.Wrap(err, "integration/amqp: new amqp channel pool error")
	}

	return &i, nil
}

// PublishUplink publishes the uplink event.
func (i *Integration) PublishUplink(ctx context.Context, event integration.UplinkEvent) error {
	routingKey := bytes.NewBuffer(nil)
	if err := i.routingKey.Execute(routingKey, event); err != nil {
		return errors.Wrap(err, "execute routing-key template error")
	}

	b, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal event error")
	}

	ch, err := i.chPool.borrow()
	if err != nil {
		amqpPublishCounter("error").Inc()
		return errors.Wrap(err, "integration/amqp: borrow channel error")
	}
	defer ch.release()

	err = ch.Publish(
		i.exchange,
		routingKey.String(),
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        b,
		},
	)
	if err != nil {
		ch.markBroken()
		amqpPublishCounter("error").Inc()
		return errors.Wrap(err, "integration/amqp: publish uplink event error")
	}

	amqpPublishCounter("ok").Inc()
	log.WithFields(log.Fields{
		"gateway_id":  event.GatewayID,
		"routing_key": routingKey.String(),
	}).Debug("integration/amqp: uplink event published")

	return nil
}

// Close closes the channel pool and the connection.
func (i *Integration) Close() error {
	i.chPool.close()
	return i.conn.Close()
}
