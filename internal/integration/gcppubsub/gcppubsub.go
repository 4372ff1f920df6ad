// Package gcppubsub implements a Google Cloud Pub/Sub integration.
package gcppubsub

import (
	"context"
	"encoding/json"

	"cloud.google.com/go/pubsub"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"github.com/brocaar/chirpstack-uplink-decoder/internal/integration"
)

// Config holds the GCP Pub/Sub integration configuration.
type Config struct {
	CredentialsFile string
	ProjectID       string
	TopicName       string
}

// Integration implements a Google Cloud Pub/Sub integration.
type Integration struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

// New creates a new GCP Pub/Sub integration. The topic must exist.
func New(ctx context.Context, conf Config, opts ...option.ClientOption) (*Integration, error) {
	var i Integration
	var err error

	if conf.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(conf.CredentialsFile))
	}

	log.Info("integration/gcp_pub_sub: setting up client")
	i.client, err = pubsub.NewClient(ctx, conf.ProjectID, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "integration/gcp_pub_sub: new pubsub client error")
	}

	log.WithField("topic", conf.TopicName).Info("integration/gcp_pub_sub: setup topic")
	i.topic = i.client.Topic(conf.TopicName)
	ok, err := i.topic.Exists(ctx)
	if err != nil {
		i.client.Close()
		return nil, errors.Wrap(err, "integration/gcp_pub_sub: topic exists error")
	}
	if !ok {
		i.client.Close()
		return nil, errors.Errorf("integration/gcp_pub_sub: topic '%s' does not exist", conf.TopicName)
	}

	return &i, nil
}

// PublishUplink publishes the uplink event and waits for the server to
// acknowledge it.
func (i *Integration) PublishUplink(ctx context.Context, event integration.UplinkEvent) error {
	b, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal event error")
	}

	res := i.topic.Publish(ctx, &pubsub.Message{
		Data: b,
		Attributes: map[string]string{
			"gatewayID": event.GatewayID.String(),
			"event":     "up",
		},
	})
	id, err := res.Get(ctx)
	if err != nil {
		gcpPublishCounter("error").Inc()
		return errors.Wrap(err, "integration/gcp_pub_sub: publish uplink event error")
	}

	gcpPublishCounter("ok").Inc()
	log.WithFields(log.Fields{
		"gateway_id": event.GatewayID,
		"id":         id,
	}).Debug("integration/gcp_pub_sub: uplink event published")

	return nil
}

// Close stops the topic and closes the client.
func (i *Integration) Close() error {
	i.topic.Stop()
	if err := i.client.Close(); err != nil {
		return errors.Wrap(err, "integration/gcp_pub_sub: close client error")
	}
	return nil
}
