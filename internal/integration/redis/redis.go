// Package redis implements a Redis pub/sub integration.
package redis

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/brocaar/chirpstack-uplink-decoder/internal/integration"
)

// DefaultChannel is the channel used when none is configured.
const DefaultChannel = "rxpk"

// Config holds the Redis integration configuration.
type Config struct {
	URL     string
	Channel string

	// NwkIDChannels routes parsed frames by the NwkID of their DevAddr.
	// Matching frames are also published on the given channel.
	NwkIDChannels []NwkIDChannel

	// UnmatchedChannel, when set, additionally receives the parsed frames
	// matching none of the NwkIDChannels.
	UnmatchedChannel string
}

// NwkIDChannel maps a NwkID to a Redis channel.
type NwkIDChannel struct {
	NwkID   uint8  `mapstructure:"nwk_id"`
	Channel string `mapstructure:"channel"`
}

// Integration implements a Redis pub/sub integration.
type Integration struct {
	client  redis.UniversalClient
	channel string

	nwkIDChannels    map[uint8]string
	unmatchedChannel string
}

// New creates a new Redis integration.
func New(ctx context.Context, conf Config) (*Integration, error) {
	opt, err := redis.ParseURL(conf.URL)
	if err != nil {
		return nil, errors.Wrap(err, "integration/redis: parse url error")
	}

	i := Integration{
		client:           redis.NewClient(opt),
		channel:          conf.Channel,
		nwkIDChannels:    make(map[uint8]string),
		unmatchedChannel: conf.UnmatchedChannel,
	}
	if i.channel == "" {
		i.channel = DefaultChannel
	}
	for _, c := range conf.NwkIDChannels {
		i.nwkIDChannels[c.NwkID] = c.Channel
	}

	log.WithFields(log.Fields{
		"addr":    opt.Addr,
		"channel": i.channel,
	}).Info("integration/redis: connecting to redis")

	if err := i.Ping(ctx); err != nil {
		i.client.Close()
		return nil, err
	}

	return &i, nil
}

// PublishUplink publishes the uplink event on the configured channel.
func (i *Integration) PublishUplink(ctx context.Context, event integration.UplinkEvent) error {
	b, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal event error")
	}

	channels := i.channels(event)

	pipe := i.client.Pipeline()
	for _, c := range channels {
		pipe.Publish(ctx, c, b)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		redisPublishCounter("error").Inc()
		return errors.Wrap(err, "integration/redis: publish error")
	}

	redisPublishCounter("ok").Inc()
	log.WithFields(log.Fields{
		"gateway_id": event.GatewayID,
		"channels":   channels,
	}).Debug("integration/redis: uplink event published")

	return nil
}

// channels returns the channels on which the given event must be published.
func (i *Integration) channels(event integration.UplinkEvent) []string {
	out := []string{i.channel}

	if event.Frame == nil || (len(i.nwkIDChannels) == 0 && i.unmatchedChannel == "") {
		return out
	}

	if c, ok := i.nwkIDChannels[event.Frame.NwkID]; ok {
		return append(out, c)
	}

	if i.unmatchedChannel != "" {
		out = append(out, i.unmatchedChannel)
	}
	return out
}

// Ping checks the Redis connection.
func (i *Integration) Ping(ctx context.Context) error {
	if err := i.client.Ping(ctx).Err(); err != nil {
		return errors.Wrap(err, "integration/redis: ping error")
	}
	return nil
}

// Close closes the Redis client.
func (i *Integration) Close() error {
	return i.client.Close()
}
