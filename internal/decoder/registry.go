// Package decoder implements the decoder registry which resolves an
// (application, device) pair to a decoder.
package decoder

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/brocaar/chirpstack-uplink-decoder/decoder"
)

type registryKey struct {
	applicationID string
	deviceID      string
}

// Registry resolves and caches decoders. A loaded decoder is cached for the
// lifetime of the registry, failed lookups are never cached so that a
// decoder added later is picked up by the next request.
type Registry struct {
	source Source
	group  singleflight.Group

	mu       sync.RWMutex
	decoders map[registryKey]decoder.Decoder
}

// NewRegistry creates a new Registry using the given source.
func NewRegistry(src Source) *Registry {
	return &Registry{
		source:   src,
		decoders: make(map[registryKey]decoder.Decoder),
	}
}

// Resolve returns the decoder for the given application and device.
// A *NotFoundError is returned when the source does not have a decoder,
// an *InvalidIdentifierError when one of the identifiers is invalid.
func (r *Registry) Resolve(ctx context.Context, applicationID, deviceID string) (decoder.Decoder, error) {
	if err := ValidateIdentifier("application", applicationID); err != nil {
		resolveCounter("invalid").Inc()
		return nil, err
	}
	if err := ValidateIdentifier("device", deviceID); err != nil {
		resolveCounter("invalid").Inc()
		return nil, err
	}

	key := registryKey{applicationID: applicationID, deviceID: deviceID}
	if d, ok := r.get(key); ok {
		resolveCounter("hit").Inc()
		return d, nil
	}

	v, err, _ := r.group.Do(applicationID+"/"+deviceID, func() (interface{}, error) {
		// the decoder might have been loaded between the cache lookup and
		// the start of this call
		if d, ok := r.get(key); ok {
			return d, nil
		}

		start := time.Now()
		d, err := r.source.Open(ctx, applicationID, deviceID)
		loadDuration().Observe(time.Since(start).Seconds())
		if err != nil {
			return nil, err
		}
		if d == nil {
			return nil, ErrNotFound
		}

		r.mu.Lock()
		r.decoders[key] = d
		r.mu.Unlock()

		log.WithFields(log.Fields{
			"application_id": applicationID,
			"device_id":      deviceID,
			"duration":       time.Since(start),
		}).Info("decoder: decoder loaded")

		return d, nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			resolveCounter("not_found").Inc()
			return nil, &NotFoundError{ApplicationID: applicationID, DeviceID: deviceID}
		}
		resolveCounter("error").Inc()
		return nil, errors.Wrap(err, "decoder: open decoder error")
	}

	d, ok := v.(decoder.Decoder)
	if !ok || d == nil {
		resolveCounter("not_found").Inc()
		return nil, &NotFoundError{ApplicationID: applicationID, DeviceID: deviceID}
	}

	resolveCounter("load").Inc()
	return d, nil
}

// Close closes the underlying source.
func (r *Registry) Close() error {
	return r.source.Close()
}

func (r *Registry) get(key registryKey) (decoder.Decoder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.decoders[key]
	return d, ok
}
