package amqp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/brocaar/lorawan"

	"github.com/brocaar/chirpstack-uplink-decoder/internal/integration"
	"github.com/brocaar/chirpstack-uplink-decoder/internal/test"
)

type IntegrationTestSuite struct {
	suite.Suite

	url         string
	integration *Integration

	amqpConn    *amqp.Connection
	amqpChannel *amqp.Channel
	eventChan   <-chan amqp.Delivery
}

func (ts *IntegrationTestSuite) SetupSuite() {
	assert := require.New(ts.T())

	ts.url = test.GetConfig().AMQPURL
	if ts.url == "" {
		ts.T().Skip("TEST_AMQP_URL is not set")
	}

	var err error
	ts.integration, err = New(Config{URL: ts.url, ChannelPoolSize: 2})
	assert.NoError(err)

	ts.amqpConn, err = amqp.Dial(ts.url)
	assert.NoError(err)

	ts.amqpChannel, err = ts.amqpConn.Channel()
	assert.NoError(err)

	_, err = ts.amqpChannel.QueueDeclare("test-uplink-queue", true, false, false, false, nil)
	assert.NoError(err)
	assert.NoError(ts.amqpChannel.QueueBind("test-uplink-queue", "gateway.*.event.up", DefaultExchange, false, nil))

	ts.eventChan, err = ts.amqpChannel.Consume("test-uplink-queue", "", true, false, false, false, nil)
	assert.NoError(err)
}

func (ts *IntegrationTestSuite) TearDownSuite() {
	if ts.integration == nil {
		return
	}
	ts.integration.Close()
	ts.amqpConn.Close()
}

func (ts *IntegrationTestSuite) TestPublishUplink() {
	assert := require.New(ts.T())

	event := integration.UplinkEvent{
		GatewayID:  lorawan.EUI64{1, 2, 3, 4, 5, 6, 7, 8},
		PHYPayload: []byte{1, 2, 3},
	}
	assert.NoError(ts.integration.PublishUplink(context.Background(), event))

	select {
	case msg := <-ts.eventChan:
		assert.Equal("gateway.0102030405060708.event.up", msg.RoutingKey)
		assert.Equal("application/json", msg.ContentType)

		var got integration.UplinkEvent
		assert.NoError(json.Unmarshal(msg.Body, &got))
		assert.Equal(event.GatewayID, got.GatewayID)
	case <-time.After(time.Second):
		ts.T().Fatal("timeout waiting for event")
	}
}

func TestIntegration(t *testing.T) {
	suite.Run(t, new(IntegrationTestSuite))
}
