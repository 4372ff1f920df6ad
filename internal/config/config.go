package config

import (
	"time"

	"github.com/brocaar/chirpstack-uplink-decoder/internal/decoder"
	"github.com/brocaar/chirpstack-uplink-decoder/internal/integration/redis"
	"github.com/brocaar/chirpstack-uplink-decoder/internal/uplink"
)

// Version defines the ChirpStack Uplink Decoder version.
var Version string

// Config defines the configuration structure.
type Config struct {
	General struct {
		LogLevel    int  `mapstructure:"log_level"`
		LogToSyslog bool `mapstructure:"log_to_syslog"`
		LogJSON     bool `mapstructure:"log_json"`
	} `mapstructure:"general"`

	API struct {
		Bind             string        `mapstructure:"bind"`
		CORSAllowOrigins []string      `mapstructure:"cors_allow_origins"`
		MaxBodySize      int64         `mapstructure:"max_body_size"`
		ReadTimeout      time.Duration `mapstructure:"read_timeout"`
		WriteTimeout     time.Duration `mapstructure:"write_timeout"`
	} `mapstructure:"api"`

	Decoder struct {
		PluginDirectory string                 `mapstructure:"plugin_directory"`
		Builtin         []decoder.BuiltinEntry `mapstructure:"builtin"`
	} `mapstructure:"decoder"`

	KEKs []uplink.KEK `mapstructure:"keks"`

	Gateway struct {
		SemtechUDP struct {
			Enabled bool   `mapstructure:"enabled"`
			Bind    string `mapstructure:"bind"`
		} `mapstructure:"semtech_udp"`
	} `mapstructure:"gateway"`

	Integration struct {
		Enabled []string `mapstructure:"enabled"`

		Redis struct {
			URL              string               `mapstructure:"url"`
			Channel          string               `mapstructure:"channel"`
			NwkIDChannels    []redis.NwkIDChannel `mapstructure:"nwk_id_channels"`
			UnmatchedChannel string               `mapstructure:"unmatched_channel"`
		} `mapstructure:"redis"`

		MQTT struct {
			Server        string `mapstructure:"server"`
			Username      string `mapstructure:"username"`
			Password      string `mapstructure:"password"`
			QOS           uint8  `mapstructure:"qos"`
			CleanSession  bool   `mapstructure:"clean_session"`
			ClientID      string `mapstructure:"client_id"`
			CACert        string `mapstructure:"ca_cert"`
			TLSCert       string `mapstructure:"tls_cert"`
			TLSKey        string `mapstructure:"tls_key"`
			TopicTemplate string `mapstructure:"topic_template"`
		} `mapstructure:"mqtt"`

		AMQP struct {
			URL                string `mapstructure:"url"`
			Exchange           string `mapstructure:"exchange"`
			RoutingKeyTemplate string `mapstructure:"routing_key_template"`
			ChannelPoolSize    int    `mapstructure:"channel_pool_size"`
		} `mapstructure:"amqp"`

		GCPPubSub struct {
			CredentialsFile string `mapstructure:"credentials_file"`
			ProjectID       string `mapstructure:"project_id"`
			TopicName       string `mapstructure:"topic_name"`
		} `mapstructure:"gcp_pub_sub"`

		PostgreSQL struct {
			DSN                string `mapstructure:"dsn"`
			Automigrate        bool   `mapstructure:"automigrate"`
			MaxOpenConnections int    `mapstructure:"max_open_connections"`
			MaxIdleConnections int    `mapstructure:"max_idle_connections"`
		} `mapstructure:"postgresql"`

		AzureServiceBus struct {
			ConnectionString string `mapstructure:"connection_string"`
			PublishMode      string `mapstructure:"publish_mode"`
			PublishName      string `mapstructure:"publish_name"`
		} `mapstructure:"azure_service_bus"`
	} `mapstructure:"integration"`

	Monitoring struct {
		Bind                string `mapstructure:"bind"`
		PrometheusEndpoint  bool   `mapstructure:"prometheus_endpoint"`
		HealthcheckEndpoint bool   `mapstructure:"healthcheck_endpoint"`
	} `mapstructure:"monitoring"`
}

// C holds the global configuration.
var C Config
