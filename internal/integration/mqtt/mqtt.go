// Package mqtt implements a MQTT integration.
package mqtt

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"io/ioutil"
	"text/template"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/brocaar/chirpstack-uplink-decoder/internal/integration"
)

// DefaultTopicTemplate is the topic template used when none is configured.
const DefaultTopicTemplate = "gateway/{{ .GatewayID }}/event/up"

// Config holds the MQTT integration configuration.
type Config struct {
	Server        string
	Username      string
	Password      string
	QOS           uint8
	CleanSession  bool
	ClientID      string
	CACert        string
	TLSCert       string
	TLSKey        string
	TopicTemplate string
}

// Integration implements a MQTT integration.
type Integration struct {
	conn          paho.Client
	qos           uint8
	topicTemplate *template.Template
}

// New creates a new MQTT integration. It blocks until the connection with
// the broker has been established.
func New(conf Config) (*Integration, error) {
	var err error

	i := Integration{
		qos: conf.QOS,
	}

	if conf.TopicTemplate == "" {
		conf.TopicTemplate = DefaultTopicTemplate
	}
	i.topicTemplate, err = template.New("topic").Parse(conf.TopicTemplate)
	if err != nil {
		return nil, errors.Wrap(err, "integration/mqtt: parse topic template error")
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(conf.Server)
	opts.SetUsername(conf.Username)
	opts.SetPassword(conf.Password)
	opts.SetCleanSession(conf.CleanSession)
	opts.SetClientID(conf.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetOnConnectHandler(i.onConnected)
	opts.SetConnectionLostHandler(i.onConnectionLost)

	tlsconfig, err := newTLSConfig(conf.CACert, conf.TLSCert, conf.TLSKey)
	if err != nil {
		return nil, errors.Wrap(err, "integration/mqtt: load certificate files error")
	}
	if tlsconfig != nil {
		opts.SetTLSConfig(tlsconfig)
	}

	log.WithField("server", conf.Server).Info("integration/mqtt: connecting to mqtt broker")
	i.conn = paho.NewClient(opts)
	for {
		if token := i.conn.Connect(); token.Wait() && token.Error() != nil {
			log.Errorf("integration/mqtt: connecting to mqtt broker failed, will retry in 2s: %s", token.Error())
			time.Sleep(2 * time.Second)
		} else {
			break
		}
	}

	return &i, nil
}

// PublishUplink publishes the uplink event.
func (i *Integration) PublishUplink(ctx context.Context, event integration.UplinkEvent) error {
	topic, err := i.topic(event)
	if err != nil {
		return err
	}

	b, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal event error")
	}

	log.WithFields(log.Fields{
		"topic": topic,
		"qos":   i.qos,
	}).Debug("integration/mqtt: publishing uplink event")

	if token := i.conn.Publish(topic, i.qos, false, b); token.Wait() && token.Error() != nil {
		mqttPublishCounter("error").Inc()
		return errors.Wrap(token.Error(), "integration/mqtt: publish uplink event error")
	}

	mqttPublishCounter("ok").Inc()
	return nil
}

// Close closes the integration.
func (i *Integration) Close() error {
	log.Info("integration/mqtt: closing integration")
	i.conn.Disconnect(250)
	return nil
}

func (i *Integration) topic(event integration.UplinkEvent) (string, error) {
	topic := bytes.NewBuffer(nil)
	if err := i.topicTemplate.Execute(topic, event); err != nil {
		return "", errors.Wrap(err, "execute topic template error")
	}
	return topic.String(), nil
}

func (i *Integration) onConnected(c paho.Client) {
	mqttConnectCounter().Inc()
	log.Info("integration/mqtt: connected to mqtt broker")
}

func (i *Integration) onConnectionLost(c paho.Client, reason error) {
	mqttDisconnectCounter().Inc()
	log.Errorf("integration/mqtt: mqtt connection error: %s", reason)
}

func newTLSConfig(cafile, certFile, certKeyFile string) (*tls.Config, error) {
	if cafile == "" && certFile == "" && certKeyFile == "" {
		return nil, nil
	}

	tlsConfig := &tls.Config{}

	// Import trusted certificates from CAfile.pem.
	if cafile != "" {
		cacert, err := ioutil.ReadFile(cafile)
		if err != nil {
			return nil, errors.Wrap(err, "load ca certificate error")
		}
		certpool := x509.NewCertPool()
		certpool.AppendCertsFromPEM(cacert)

		tlsConfig.RootCAs = certpool // RootCAs = certs used to verify server cert.
	}

	// Import certificate and the key
	if certFile != "" && certKeyFile != "" {
		kp, err := tls.LoadX509KeyPair(certFile, certKeyFile)
		if err != nil {
			return nil, errors.Wrap(err, "load tls key-pair error")
		}
		tlsConfig.Certificates = []tls.Certificate{kp}
	}

	return tlsConfig, nil
}
