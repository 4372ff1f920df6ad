package semtech

import (
	"encoding/base64"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/brocaar/lorawan"

	"github.com/brocaar/chirpstack-uplink-decoder/internal/integration"
	"github.com/brocaar/chirpstack-uplink-decoder/internal/test"
)

type BackendTestSuite struct {
	suite.Suite

	backend     *Backend
	integration *test.Integration
	gwConn      *net.UDPConn
}

func (ts *BackendTestSuite) SetupTest() {
	assert := ts.Require()
	var err error

	ts.integration = test.NewIntegration()

	ts.backend, err = NewBackend("127.0.0.1:0", ts.integration)
	assert.NoError(err)

	ts.gwConn, err = net.DialUDP("udp", nil, ts.backend.Addr().(*net.UDPAddr))
	assert.NoError(err)
}

func (ts *BackendTestSuite) TearDownTest() {
	ts.Require().NoError(ts.gwConn.Close())
	ts.Require().NoError(ts.backend.Close())
}

func (ts *BackendTestSuite) readAck() []byte {
	assert := ts.Require()

	assert.NoError(ts.gwConn.SetReadDeadline(time.Now().Add(time.Second)))
	buf := make([]byte, 64)
	i, err := ts.gwConn.Read(buf)
	assert.NoError(err)
	return buf[:i]
}

func (ts *BackendTestSuite) TestPullData() {
	assert := ts.Require()

	_, err := ts.gwConn.Write([]byte{2, 0x12, 0x34, 2, 1, 2, 3, 4, 5, 6, 7, 8})
	assert.NoError(err)

	assert.Equal([]byte{2, 0x12, 0x34, 4}, ts.readAck())
}

func (ts *BackendTestSuite) TestPushData() {
	assert := ts.Require()

	phy := []byte{0x40, 0x04, 0x03, 0x02, 0x01, 0x80, 0x02, 0x01, 0x0a, 0xaa, 0xbb, 0x01, 0x02, 0x03, 0x04}
	payload := `{"rxpk":[` +
		`{"tmst":1,"freq":868.1,"modu":"LORA","datr":"SF7BW125","codr":"4/5","rssi":-50,"lsnr":7.5,"size":15,"data":"` + base64.StdEncoding.EncodeToString(phy) + `"},` +
		`{"tmst":2,"freq":868.3,"modu":"LORA","datr":"SF9BW125","data":"AQID"}` +
		`]}`
	_, err := ts.gwConn.Write(append([]byte{2, 0xab, 0xcd, 0, 1, 2, 3, 4, 5, 6, 7, 8}, []byte(payload)...))
	assert.NoError(err)

	assert.Equal([]byte{2, 0xab, 0xcd, 1}, ts.readAck())

	ts.T().Run("parsed frame", func(t *testing.T) {
		assert := require.New(t)

		event := ts.receiveEvent()
		assert.Equal(lorawan.EUI64{1, 2, 3, 4, 5, 6, 7, 8}, event.GatewayID)
		assert.Equal(uint32(1), event.RXInfo.Timestamp)
		assert.Equal("SF7BW125", event.RXInfo.DataRate)
		assert.Equal(int16(-50), event.RXInfo.RSSI)
		assert.Equal(phy, []byte(event.PHYPayload))
		assert.Empty(event.Error)
		assert.NotNil(event.Frame)
		assert.Equal("Unconfirmed Data Up", event.Frame.MessageType)
		assert.Equal(lorawan.DevAddr{1, 2, 3, 4}, event.Frame.DevAddr)
		assert.Equal(uint16(258), event.Frame.FCnt)
		assert.True(event.Frame.ADR)
	})

	ts.T().Run("too short frame", func(t *testing.T) {
		assert := require.New(t)

		event := ts.receiveEvent()
		assert.Equal("SF9BW125", event.RXInfo.DataRate)
		assert.Nil(event.Frame)
		assert.NotEmpty(event.Error)
	})
}

func (ts *BackendTestSuite) TestInvalidPacket() {
	assert := ts.Require()

	// an invalid packet must not stop the read loop
	_, err := ts.gwConn.Write([]byte{9, 1, 2, 0})
	assert.NoError(err)

	_, err = ts.gwConn.Write([]byte{1, 0x01, 0x02, 2, 1, 2, 3, 4, 5, 6, 7, 8})
	assert.NoError(err)
	assert.Equal([]byte{1, 0x01, 0x02, 4}, ts.readAck())
}

func (ts *BackendTestSuite) receiveEvent() integration.UplinkEvent {
	select {
	case event := <-ts.integration.UplinkEventChan:
		return event
	case <-time.After(time.Second):
		ts.T().Fatal("timeout waiting for uplink event")
	}
	return integration.UplinkEvent{}
}

func TestBackend(t *testing.T) {
	suite.Run(t, new(BackendTestSuite))
}
