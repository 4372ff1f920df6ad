package decoder

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/brocaar/chirpstack-uplink-decoder/decoder"
)

// PluginSource loads decoders from plugin executables stored as
// <dir>/<application_id>/<device_id>.
type PluginSource struct {
	dir string

	mu      sync.Mutex
	clients []*plugin.Client
}

// NewPluginSource creates a new PluginSource for the given directory.
func NewPluginSource(dir string) *PluginSource {
	return &PluginSource{
		dir: filepath.Clean(dir),
	}
}

// Open implements Source.
func (s *PluginSource) Open(ctx context.Context, applicationID, deviceID string) (decoder.Decoder, error) {
	p, err := s.path(applicationID, deviceID)
	if err != nil {
		return nil, err
	}

	fi, err := os.Stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "stat plugin error")
	}
	if fi.IsDir() {
		return nil, ErrNotFound
	}
	if fi.Mode()&0111 == 0 {
		return nil, errors.Errorf("plugin %s is not executable", p)
	}

	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig: decoder.HandshakeConfig,
		Plugins: map[string]plugin.Plugin{
			decoder.PluginName: &decoder.DecoderPlugin{},
		},
		Cmd: exec.Command(p),
		Logger: hclog.New(&hclog.LoggerOptions{
			Name:   "decoder-plugin",
			Output: log.StandardLogger().Writer(),
			Level:  hclog.Info,
		}),
	})

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, errors.Wrap(err, "start plugin error")
	}

	raw, err := rpcClient.Dispense(decoder.PluginName)
	if err != nil {
		client.Kill()
		return nil, errors.Wrap(err, "dispense plugin error")
	}

	d, ok := raw.(decoder.Decoder)
	if !ok {
		client.Kill()
		return nil, errors.Errorf("expected decoder.Decoder, got: %T", raw)
	}

	s.mu.Lock()
	s.clients = append(s.clients, client)
	s.mu.Unlock()
	pluginProcessGauge().Inc()

	log.WithFields(log.Fields{
		"application_id": applicationID,
		"device_id":      deviceID,
		"path":           p,
	}).Info("decoder: plugin started")

	return &pluginDecoder{Decoder: d, process: client, path: p}, nil
}

// Close kills all started plugin processes.
func (s *PluginSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.clients {
		c.Kill()
		pluginProcessGauge().Dec()
	}
	s.clients = nil

	return nil
}

type pluginProcess interface {
	Exited() bool
}

// pluginDecoder wraps the RPC decoder of a plugin process. Once the process
// has exited, every call fails without reaching the RPC client.
type pluginDecoder struct {
	decoder.Decoder

	process pluginProcess
	path    string
}

// Decode implements decoder.Decoder.
func (d *pluginDecoder) Decode(req decoder.DecodeRequest) (decoder.DecodeResponse, error) {
	if d.process.Exited() {
		return decoder.DecodeResponse{}, errors.Errorf("decoder plugin process %s has exited", d.path)
	}

	resp, err := d.Decoder.Decode(req)
	if err != nil && d.process.Exited() {
		return decoder.DecodeResponse{}, errors.Wrapf(err, "decoder plugin process %s has exited", d.path)
	}
	return resp, err
}

// path returns the plugin path for the given identifiers. The identifiers
// are validated again as this method is also reachable without the
// registry.
func (s *PluginSource) path(applicationID, deviceID string) (string, error) {
	if err := ValidateIdentifier("application", applicationID); err != nil {
		return "", err
	}
	if err := ValidateIdentifier("device", deviceID); err != nil {
		return "", err
	}

	p := filepath.Join(s.dir, applicationID, deviceID)
	rel, err := filepath.Rel(s.dir, p)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", &InvalidIdentifierError{Field: "application", Value: applicationID}
	}
	return p, nil
}
