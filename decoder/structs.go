// Package decoder defines the uplink decoder interface and the plugin
// plumbing to serve decoders as external executables.
package decoder

import (
	"encoding/json"
	"net/rpc"

	"github.com/hashicorp/go-plugin"
)

// PluginName defines the name under which the decoder is dispensed.
const PluginName = "decoder"

// HandshakeConfig for decoder plugins.
var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "DECODER_PLUGIN",
	MagicCookieValue: "DECODER_PLUGIN",
}

// Decoder defines the uplink decoder interface.
type Decoder interface {
	Decode(DecodeRequest) (DecodeResponse, error)
}

// DecoderFunc implements the Decoder interface for a plain function.
type DecoderFunc func(DecodeRequest) (DecodeResponse, error)

// Decode calls f(req).
func (f DecoderFunc) Decode(req DecodeRequest) (DecodeResponse, error) {
	return f(req)
}

// DecodeRequest implements the decode request.
type DecodeRequest struct {
	// Bytes holds the (decrypted) FRMPayload.
	Bytes []byte

	// FPort of the uplink.
	FPort uint8
}

// DecodeResponse implements the decode response.
type DecodeResponse struct {
	// Data holds the JSON encoded decoded object.
	Data json.RawMessage `json:"data,omitempty"`

	// Warnings holds warnings returned by the decoder.
	Warnings []string `json:"warnings,omitempty"`

	// Errors holds the decoding errors. When not empty, decoding failed.
	Errors []string `json:"errors,omitempty"`
}

// DecoderRPCServer implements the RPC server for the Decoder interface.
type DecoderRPCServer struct {
	// Impl holds the interface implementation.
	Impl Decoder
}

// Decode calls the Decode method of the implementation.
func (s *DecoderRPCServer) Decode(req DecodeRequest, resp *DecodeResponse) error {
	var err error
	*resp, err = s.Impl.Decode(req)
	return err
}

// DecoderRPC implements the RPC client for the Decoder interface.
type DecoderRPC struct {
	client *rpc.Client
}

// Decode calls the Decode method of the plugin.
func (r *DecoderRPC) Decode(req DecodeRequest) (DecodeResponse, error) {
	var resp DecodeResponse
	err := r.client.Call("Plugin.Decode", req, &resp)
	return resp, err
}

// DecoderPlugin implements plugin.Plugin.
type DecoderPlugin struct {
	// Impl holds the interface implementation.
	Impl Decoder
}

// Server returns the RPC server.
func (p *DecoderPlugin) Server(*plugin.MuxBroker) (interface{}, error) {
	return &DecoderRPCServer{Impl: p.Impl}, nil
}

// Client returns the RPC client.
func (p *DecoderPlugin) Client(b *plugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &DecoderRPC{client: c}, nil
}

// Serve serves the given decoder as plugin. It is intended to be called
// from the main function of a decoder executable and blocks until the
// host process kills the plugin.
func Serve(d Decoder) {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: HandshakeConfig,
		Plugins: map[string]plugin.Plugin{
			PluginName: &DecoderPlugin{Impl: d},
		},
	})
}
