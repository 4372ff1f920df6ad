package semtech

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/brocaar/lorawan"
)

func TestGetPacketType(t *testing.T) {
	tests := []struct {
		Name          string
		Data          []byte
		PacketType    PacketType
		ExpectedError error
	}{
		{
			Name:          "too short",
			Data:          []byte{2, 1, 2},
			ExpectedError: errorString("gateway: at least 4 bytes of data are expected"),
		},
		{
			Name:          "invalid protocol version",
			Data:          []byte{3, 1, 2, 0},
			ExpectedError: ErrInvalidProtocolVersion,
		},
		{
			Name:       "push data",
			Data:       []byte{2, 1, 2, 0},
			PacketType: PushData,
		},
		{
			Name:       "pull data v1",
			Data:       []byte{1, 1, 2, 2},
			PacketType: PullData,
		},
	}

	for _, tst := range tests {
		t.Run(tst.Name, func(t *testing.T) {
			assert := require.New(t)

			pt, err := GetPacketType(tst.Data)
			if tst.ExpectedError != nil {
				assert.EqualError(err, tst.ExpectedError.Error())
				return
			}
			assert.NoError(err)
			assert.Equal(tst.PacketType, pt)
		})
	}
}

type errorString string

func (e errorString) Error() string { return string(e) }

func TestPacketTypeString(t *testing.T) {
	assert := require.New(t)
	assert.Equal("PushData", PushData.String())
	assert.Equal("PullACK", PullACK.String())
	assert.Equal("PacketType(9)", PacketType(9).String())
}

func TestPushACKPacket(t *testing.T) {
	assert := require.New(t)

	b, err := PushACKPacket{ProtocolVersion: ProtocolVersion2, RandomToken: 0x0201}.MarshalBinary()
	assert.NoError(err)
	assert.Equal([]byte{2, 1, 2, 1}, b)
}

func TestPullACKPacket(t *testing.T) {
	assert := require.New(t)

	b, err := PullACKPacket{ProtocolVersion: ProtocolVersion1, RandomToken: 0x0403}.MarshalBinary()
	assert.NoError(err)
	assert.Equal([]byte{1, 3, 4, 4}, b)
}

func TestPullDataPacket(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert := require.New(t)

		var p PullDataPacket
		assert.NoError(p.UnmarshalBinary([]byte{2, 1, 2, 2, 1, 2, 3, 4, 5, 6, 7, 8}))
		assert.Equal(PullDataPacket{
			ProtocolVersion: ProtocolVersion2,
			RandomToken:     0x0201,
			GatewayMAC:      lorawan.EUI64{1, 2, 3, 4, 5, 6, 7, 8},
		}, p)
	})

	t.Run("wrong length", func(t *testing.T) {
		assert := require.New(t)

		var p PullDataPacket
		assert.EqualError(p.UnmarshalBinary([]byte{2, 1, 2, 2}), "gateway: 12 bytes of data are expected")
	})

	t.Run("wrong identifier", func(t *testing.T) {
		assert := require.New(t)

		var p PullDataPacket
		assert.EqualError(p.UnmarshalBinary([]byte{2, 1, 2, 0, 1, 2, 3, 4, 5, 6, 7, 8}), "gateway: identifier mismatch (PULL_DATA expected)")
	})
}

func TestPushDataPacket(t *testing.T) {
	assert := require.New(t)

	payload := `{"rxpk":[{"time":"2013-03-31T16:21:17.528002Z","tmst":3512348611,"chan":2,"rfch":0,"freq":866.349812,"stat":1,"modu":"LORA","datr":"SF7BW125","codr":"4/6","rssi":-35,"lsnr":5.1,"size":16,"data":"QAEBAQGAAQABqqqqqqqqqg=="},{"tmst":3512348612,"modu":"FSK","datr":50000,"data":""}]}`
	data := append([]byte{2, 0xaa, 0xbb, 0, 1, 2, 3, 4, 5, 6, 7, 8}, []byte(payload)...)

	var p PushDataPacket
	assert.NoError(p.UnmarshalBinary(data))

	assert.Equal(ProtocolVersion2, p.ProtocolVersion)
	assert.Equal(uint16(0xbbaa), p.RandomToken)
	assert.Equal(lorawan.EUI64{1, 2, 3, 4, 5, 6, 7, 8}, p.GatewayMAC)
	assert.Len(p.Payload.RXPK, 2)

	rxpk := p.Payload.RXPK[0]
	assert.NotNil(rxpk.Time)
	assert.True(time.Date(2013, 3, 31, 16, 21, 17, 528002000, time.UTC).Equal(time.Time(*rxpk.Time)))
	assert.Equal(uint32(3512348611), rxpk.Tmst)
	assert.Equal(866.349812, rxpk.Freq)
	assert.Equal(DatR{LoRa: "SF7BW125"}, rxpk.DatR)
	assert.Equal(int16(-35), rxpk.RSSI)
	assert.Len(rxpk.Data, 16)

	assert.Nil(p.Payload.RXPK[1].Time)
	assert.Equal(DatR{FSK: 50000}, p.Payload.RXPK[1].DatR)
	assert.Equal("50000", p.Payload.RXPK[1].DatR.String())
}

func TestPushDataPacketErrors(t *testing.T) {
	assert := require.New(t)

	var p PushDataPacket
	assert.EqualError(p.UnmarshalBinary([]byte{2, 1, 2, 0}), "gateway: at least 13 bytes are expected")
	assert.EqualError(p.UnmarshalBinary([]byte{2, 1, 2, 2, 1, 2, 3, 4, 5, 6, 7, 8, '{'}), "gateway: identifier mismatch (PUSH_DATA expected)")
	assert.Error(p.UnmarshalBinary([]byte{2, 1, 2, 0, 1, 2, 3, 4, 5, 6, 7, 8, '{'}))
}

func TestCompactTime(t *testing.T) {
	assert := require.New(t)

	var ct CompactTime
	assert.NoError(json.Unmarshal([]byte(`""`), &ct))
	assert.True(time.Time(ct).IsZero())

	b, err := json.Marshal(ct)
	assert.NoError(err)
	assert.Equal("null", string(b))

	ct = CompactTime(time.Date(2020, 1, 2, 3, 4, 5, 6000, time.UTC))
	b, err = json.Marshal(ct)
	assert.NoError(err)
	assert.Equal(`"2020-01-02T03:04:05.000006Z"`, string(b))
}

func TestDatR(t *testing.T) {
	assert := require.New(t)

	b, err := json.Marshal(DatR{LoRa: "SF12BW125"})
	assert.NoError(err)
	assert.Equal(`"SF12BW125"`, string(b))

	b, err = json.Marshal(DatR{FSK: 50000})
	assert.NoError(err)
	assert.Equal(`50000`, string(b))
}
