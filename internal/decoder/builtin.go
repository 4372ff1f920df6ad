package decoder

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"

	"github.com/akhenakh/cayenne"
	"github.com/pkg/errors"

	"github.com/brocaar/chirpstack-uplink-decoder/decoder"
)

// Built-in codec names.
const (
	CodecCayenneLPP  = "cayenne_lpp"
	CodecPassthrough = "passthrough"
)

var builtinCodecs = map[string]decoder.Decoder{
	CodecCayenneLPP:  decoder.DecoderFunc(decodeCayenneLPP),
	CodecPassthrough: decoder.DecoderFunc(decodePassthrough),
}

// BuiltinDecoder returns the built-in codec with the given name.
func BuiltinDecoder(codec string) (decoder.Decoder, bool) {
	d, ok := builtinCodecs[codec]
	return d, ok
}

// BuiltinEntry assigns a built-in codec to an application. When DeviceID is
// empty, the codec is used for all devices of the application.
type BuiltinEntry struct {
	ApplicationID string `mapstructure:"application_id"`
	DeviceID      string `mapstructure:"device_id"`
	Codec         string `mapstructure:"codec"`
}

// BuiltinSource serves built-in codecs for the configured pairs.
type BuiltinSource struct {
	devices      map[registryKey]decoder.Decoder
	applications map[string]decoder.Decoder
}

// NewBuiltinSource creates a new BuiltinSource.
func NewBuiltinSource(entries []BuiltinEntry) (*BuiltinSource, error) {
	s := BuiltinSource{
		devices:      make(map[registryKey]decoder.Decoder),
		applications: make(map[string]decoder.Decoder),
	}

	for _, e := range entries {
		d, ok := BuiltinDecoder(e.Codec)
		if !ok {
			return nil, errors.Errorf("decoder: unknown built-in codec: %s", e.Codec)
		}
		if err := ValidateIdentifier("application", e.ApplicationID); err != nil {
			return nil, err
		}

		if e.DeviceID == "" {
			s.applications[e.ApplicationID] = d
			continue
		}

		if err := ValidateIdentifier("device", e.DeviceID); err != nil {
			return nil, err
		}
		s.devices[registryKey{applicationID: e.ApplicationID, deviceID: e.DeviceID}] = d
	}

	return &s, nil
}

// Open implements Source.
func (s *BuiltinSource) Open(ctx context.Context, applicationID, deviceID string) (decoder.Decoder, error) {
	if d, ok := s.devices[registryKey{applicationID: applicationID, deviceID: deviceID}]; ok {
		return d, nil
	}
	if d, ok := s.applications[applicationID]; ok {
		return d, nil
	}
	return nil, ErrNotFound
}

// Close implements Source.
func (s *BuiltinSource) Close() error {
	return nil
}

func decodeCayenneLPP(req decoder.DecodeRequest) (decoder.DecodeResponse, error) {
	var resp decoder.DecodeResponse

	dec := cayenne.NewDecoder(bytes.NewBuffer(req.Bytes))
	msg, err := dec.DecodeUplink()
	if err != nil {
		resp.Errors = append(resp.Errors, err.Error())
		return resp, nil
	}

	b, err := json.Marshal(msg.Values())
	if err != nil {
		return resp, errors.Wrap(err, "marshal cayenne values error")
	}
	resp.Data = b

	return resp, nil
}

func decodePassthrough(req decoder.DecodeRequest) (decoder.DecodeResponse, error) {
	var resp decoder.DecodeResponse

	b, err := json.Marshal(struct {
		FPort uint8  `json:"fPort"`
		Bytes string `json:"bytes"`
	}{
		FPort: req.FPort,
		Bytes: hex.EncodeToString(req.Bytes),
	})
	if err != nil {
		return resp, errors.Wrap(err, "marshal passthrough error")
	}
	resp.Data = b

	return resp, nil
}
