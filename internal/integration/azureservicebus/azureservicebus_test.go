package azureservicebus

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	servicebus "github.com/Azure/azure-service-bus-go"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/brocaar/lorawan"

	"github.com/brocaar/chirpstack-uplink-decoder/internal/integration"
	"github.com/brocaar/chirpstack-uplink-decoder/internal/test"
	"github.com/brocaar/chirpstack-uplink-decoder/internal/uplink"
)

type testSender struct {
	messages []*servicebus.Message
	err      error
	closed   bool
}

func (s *testSender) Send(ctx context.Context, msg *servicebus.Message) error {
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, msg)
	return nil
}

func (s *testSender) Close(ctx context.Context) error {
	s.closed = true
	return nil
}

func TestPublishUplink(t *testing.T) {
	assert := require.New(t)

	s := testSender{}
	i := Integration{sender: &s, name: "uplinks"}

	event := integration.UplinkEvent{
		GatewayID:  lorawan.EUI64{1, 2, 3, 4, 5, 6, 7, 8},
		PHYPayload: []byte{1, 2, 3},
		Frame:      &uplink.FrameInfo{NwkID: 0x13},
	}
	assert.NoError(i.PublishUplink(context.Background(), event))
	assert.Len(s.messages, 1)

	msg := s.messages[0]
	assert.Equal("application/json", msg.ContentType)
	assert.Equal(map[string]interface{}{
		"event":     "up",
		"gatewayID": "0102030405060708",
		"nwkID":     0x13,
	}, msg.UserProperties)

	var got integration.UplinkEvent
	assert.NoError(json.Unmarshal(msg.Data, &got))
	assert.Equal(event.GatewayID, got.GatewayID)

	t.Run("Send error", func(t *testing.T) {
		assert := require.New(t)
		s.err = errors.New("link detached")
		assert.Error(i.PublishUplink(context.Background(), event))
	})

	assert.NoError(i.Close())
	assert.True(s.closed)
}

func TestNewInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		conf Config
	}{
		{
			name: "no publish name",
			conf: Config{ConnectionString: "Endpoint=sb://test.servicebus.windows.net/;SharedAccessKeyName=test;SharedAccessKey=dGVzdA=="},
		},
		{
			name: "invalid publish mode",
			conf: Config{
				ConnectionString: "Endpoint=sb://test.servicebus.windows.net/;SharedAccessKeyName=test;SharedAccessKey=dGVzdA==",
				PublishMode:      "exchange",
				PublishName:      "uplinks",
			},
		},
	}

	for _, tst := range tests {
		t.Run(tst.name, func(t *testing.T) {
			_, err := New(tst.conf)
			require.Error(t, err)
		})
	}
}

type IntegrationTestSuite struct {
	suite.Suite

	connStr     string
	queue       string
	integration *Integration
}

func (ts *IntegrationTestSuite) SetupSuite() {
	conf := test.GetConfig()
	if conf.AzureServiceBusConnectionString == "" || conf.AzureServiceBusQueue == "" {
		ts.T().Skip("TEST_AZURE_SERVICE_BUS_CONNECTION_STRING or TEST_AZURE_SERVICE_BUS_QUEUE is not set")
	}
	ts.connStr = conf.AzureServiceBusConnectionString
	ts.queue = conf.AzureServiceBusQueue

	var err error
	ts.integration, err = New(Config{
		ConnectionString: ts.connStr,
		PublishMode:      PublishModeQueue,
		PublishName:      ts.queue,
	})
	require.NoError(ts.T(), err)
}

func (ts *IntegrationTestSuite) TearDownSuite() {
	if ts.integration != nil {
		ts.integration.Close()
	}
}

func (ts *IntegrationTestSuite) TestPublishUplink() {
	assert := require.New(ts.T())
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	event := integration.UplinkEvent{
		GatewayID:  lorawan.EUI64{1, 2, 3, 4, 5, 6, 7, 8},
		PHYPayload: []byte{1, 2, 3},
	}
	assert.NoError(ts.integration.PublishUplink(ctx, event))

	ns, err := servicebus.NewNamespace(servicebus.NamespaceWithConnectionString(ts.connStr))
	assert.NoError(err)
	q, err := ns.NewQueue(ts.queue)
	assert.NoError(err)
	defer q.Close(ctx)

	var got integration.UplinkEvent
	assert.NoError(q.ReceiveOne(ctx, servicebus.HandlerFunc(func(ctx context.Context, msg *servicebus.Message) error {
		if err := json.Unmarshal(msg.Data, &got); err != nil {
			return err
		}
		return msg.Complete(ctx)
	})))
	assert.Equal(event.GatewayID, got.GatewayID)
}

func TestIntegration(t *testing.T) {
	suite.Run(t, new(IntegrationTestSuite))
}
