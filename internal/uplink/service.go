// Package uplink implements the decode, decrypt and inspect operations on
// encoded uplink frames.
package uplink

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/brocaar/lorawan"
	"github.com/brocaar/lorawan/backend"

	"github.com/brocaar/chirpstack-uplink-decoder/decoder"
	registry "github.com/brocaar/chirpstack-uplink-decoder/internal/decoder"
	"github.com/brocaar/chirpstack-uplink-decoder/internal/frame"
	"github.com/brocaar/chirpstack-uplink-decoder/internal/logging"
)

// Resolver resolves the decoder for the given application and device.
type Resolver interface {
	Resolve(ctx context.Context, applicationID, deviceID string) (decoder.Decoder, error)
}

// DecodeRequest defines the decode request.
type DecodeRequest struct {
	ApplicationID string `json:"application"`
	DeviceID      string `json:"device"`
	Payload       string `json:"payload"`
	FPort         *int   `json:"fPort"`
}

// DecryptRequest defines the decrypt request. When KEKLabel is set, the
// session keys are expected to be wrapped with the KEK of this label.
type DecryptRequest struct {
	Payload  string `json:"payload"`
	AppSKey  string `json:"app_s_key"`
	NwkSKey  string `json:"nwk_s_key"`
	KEKLabel string `json:"kek_label"`
}

// DecryptResult contains the decrypted FRMPayload.
type DecryptResult struct {
	Payload backend.HEXBytes `json:"payload"`
	FPort   *uint8           `json:"fPort"`
	DevAddr lorawan.DevAddr  `json:"devAddr"`
	FCnt    uint16           `json:"fCnt"`
}

// InspectRequest defines the inspect request.
type InspectRequest struct {
	Payload string `json:"payload"`
}

// Service implements the uplink operations. Each call is independent, the
// only shared state is the decoder cache of the Resolver.
type Service struct {
	resolver Resolver
	keks     KEKSet
}

// NewService creates a new Service.
func NewService(r Resolver, keks KEKSet) *Service {
	if keks == nil {
		keks = make(KEKSet)
	}

	return &Service{
		resolver: r,
		keks:     keks,
	}
}

// Decode decodes the payload using the decoder of the application and
// device.
func (s *Service) Decode(ctx context.Context, enc Encoding, req DecodeRequest) (resp decoder.DecodeResponse, err error) {
	defer func() { count("decode", err) }()

	var missing []string
	if req.ApplicationID == "" {
		missing = append(missing, "application")
	}
	if req.DeviceID == "" {
		missing = append(missing, "device")
	}
	if req.Payload == "" {
		missing = append(missing, "payload")
	}
	if req.FPort == nil {
		missing = append(missing, "fPort")
	}
	if len(missing) != 0 {
		return resp, validationError(missing, "missing required fields")
	}
	if *req.FPort < 1 || *req.FPort > 255 {
		return resp, validationError([]string{"fPort"}, "fPort must be within 1..255, got %d", *req.FPort)
	}

	b, err := enc.DecodeString(req.Payload)
	if err != nil {
		return resp, validationError([]string{"payload"}, "invalid %s payload: %s", enc, err)
	}

	d, err := s.resolver.Resolve(ctx, req.ApplicationID, req.DeviceID)
	if err != nil {
		var idErr *registry.InvalidIdentifierError
		var nfErr *registry.NotFoundError
		switch {
		case errors.As(err, &idErr):
			return resp, validationError([]string{idErr.Field}, "invalid %s identifier", idErr.Field)
		case errors.As(err, &nfErr):
			return resp, newError(KindDecoderNotFound, err, "no decoder found for application %q and device %q", nfErr.ApplicationID, nfErr.DeviceID)
		default:
			return resp, newError(KindInternal, err, "resolve decoder error")
		}
	}

	resp, err = d.Decode(decoder.DecodeRequest{
		Bytes: b,
		FPort: uint8(*req.FPort),
	})
	if err != nil {
		return resp, newError(KindDecodeFailure, err, "%s", err)
	}
	if len(resp.Errors) != 0 {
		return resp, newError(KindDecodeFailure, nil, "%s", strings.Join(resp.Errors, "; "))
	}

	log.WithFields(log.Fields{
		"application_id": req.ApplicationID,
		"device_id":      req.DeviceID,
		"f_port":         *req.FPort,
		"ctx_id":         logging.ContextID(ctx),
	}).Debug("uplink: payload decoded")

	return resp, nil
}

// Decrypt verifies the MIC of the frame and returns its decrypted
// FRMPayload. Decryption is never attempted when the MIC is invalid.
func (s *Service) Decrypt(ctx context.Context, enc Encoding, req DecryptRequest) (res DecryptResult, err error) {
	defer func() { count("decrypt", err) }()

	var missing []string
	if req.Payload == "" {
		missing = append(missing, "payload")
	}
	if req.AppSKey == "" {
		missing = append(missing, "app_s_key")
	}
	if req.NwkSKey == "" {
		missing = append(missing, "nwk_s_key")
	}
	if len(missing) != 0 {
		return res, validationError(missing, "missing required fields")
	}

	b, err := enc.DecodeString(req.Payload)
	if err != nil {
		return res, validationError([]string{"payload"}, "invalid %s payload: %s", enc, err)
	}

	appSKey, err := s.keks.unwrapKey(req.KEKLabel, req.AppSKey)
	if err != nil {
		return res, keyError("app_s_key", err)
	}
	nwkSKey, err := s.keks.unwrapKey(req.KEKLabel, req.NwkSKey)
	if err != nil {
		return res, keyError("nwk_s_key", err)
	}

	f, err := parse(b)
	if err != nil {
		return res, err
	}
	if !f.IsDataFrame() {
		return res, newError(KindParse, nil, "%s frame does not carry an encrypted payload", frame.MessageTypeLabel(f.MHDR.MType))
	}

	if !frame.VerifyMIC(f, b, nwkSKey) {
		uplinkMICInvalidCount().Inc()
		log.WithFields(log.Fields{
			"dev_addr": f.DevAddr,
			"f_cnt":    f.FCnt,
			"ctx_id":   logging.ContextID(ctx),
		}).Warning("uplink: invalid mic")
		return res, newError(KindInvalidMIC, nil, "invalid mic")
	}

	pl, err := frame.DecryptFRMPayload(f, appSKey, nwkSKey)
	if err != nil {
		return res, newError(KindInternal, err, "decrypt frmpayload error")
	}

	return DecryptResult{
		Payload: backend.HEXBytes(pl),
		FPort:   f.FPort,
		DevAddr: f.DevAddr,
		FCnt:    f.FCnt,
	}, nil
}

// Inspect returns the fields of the given frame.
func (s *Service) Inspect(ctx context.Context, enc Encoding, req InspectRequest) (info FrameInfo, err error) {
	defer func() { count("inspect", err) }()

	if req.Payload == "" {
		return info, validationError([]string{"payload"}, "missing required fields")
	}

	b, err := enc.DecodeString(req.Payload)
	if err != nil {
		return info, validationError([]string{"payload"}, "invalid %s payload: %s", enc, err)
	}

	f, err := parse(b)
	if err != nil {
		return info, err
	}

	return NewFrameInfo(f, b), nil
}

func parse(b []byte) (frame.Frame, error) {
	f, err := frame.Parse(b)
	if err != nil {
		uplinkFrameErrorCount().Inc()
		return f, newError(KindParse, err, "%s", err)
	}
	return f, nil
}

func keyError(field string, err error) error {
	if errors.Is(err, ErrUnknownKEKLabel) {
		return validationError([]string{"kek_label"}, "unknown kek label")
	}
	return validationError([]string{field}, "invalid key: %s", errors.Cause(err))
}

func count(op string, err error) {
	kind := "OK"
	if err != nil {
		kind = string(KindOf(err))
	}
	uplinkCounter(op, kind).Inc()
}
