package decoder

import (
	"encoding/json"
	"testing"

	"github.com/hashicorp/go-plugin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestDecoderPlugin(t *testing.T) {
	impl := DecoderFunc(func(req DecodeRequest) (DecodeResponse, error) {
		if req.FPort == 0 {
			return DecodeResponse{}, errors.New("fport 0 is not supported")
		}

		b, err := json.Marshal(map[string]interface{}{
			"fPort": req.FPort,
			"len":   len(req.Bytes),
		})
		if err != nil {
			return DecodeResponse{}, err
		}

		return DecodeResponse{
			Data:     b,
			Warnings: []string{"test warning"},
		}, nil
	})

	client, _ := plugin.TestPluginRPCConn(t, map[string]plugin.Plugin{
		PluginName: &DecoderPlugin{Impl: impl},
	}, nil)
	defer client.Close()

	raw, err := client.Dispense(PluginName)
	require.NoError(t, err)

	d, ok := raw.(Decoder)
	require.True(t, ok)

	t.Run("decode", func(t *testing.T) {
		assert := require.New(t)

		resp, err := d.Decode(DecodeRequest{
			Bytes: []byte{1, 2, 3},
			FPort: 10,
		})
		assert.NoError(err)
		assert.JSONEq(`{"fPort": 10, "len": 3}`, string(resp.Data))
		assert.Equal([]string{"test warning"}, resp.Warnings)
		assert.Empty(resp.Errors)
	})

	t.Run("error", func(t *testing.T) {
		assert := require.New(t)

		_, err := d.Decode(DecodeRequest{
			Bytes: []byte{1},
		})
		assert.Error(err)
		assert.Contains(err.Error(), "fport 0 is not supported")
	})
}
