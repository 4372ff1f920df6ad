package cmd

import (
	"context"
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/brocaar/chirpstack-uplink-decoder/internal/api"
	"github.com/brocaar/chirpstack-uplink-decoder/internal/config"
	"github.com/brocaar/chirpstack-uplink-decoder/internal/decoder"
	"github.com/brocaar/chirpstack-uplink-decoder/internal/gateway/semtech"
	"github.com/brocaar/chirpstack-uplink-decoder/internal/integration"
	"github.com/brocaar/chirpstack-uplink-decoder/internal/integration/amqp"
	"github.com/brocaar/chirpstack-uplink-decoder/internal/integration/azureservicebus"
	"github.com/brocaar/chirpstack-uplink-decoder/internal/integration/gcppubsub"
	"github.com/brocaar/chirpstack-uplink-decoder/internal/integration/mqtt"
	"github.com/brocaar/chirpstack-uplink-decoder/internal/integration/postgres"
	"github.com/brocaar/chirpstack-uplink-decoder/internal/integration/redis"
	"github.com/brocaar/chirpstack-uplink-decoder/internal/monitoring"
	"github.com/brocaar/chirpstack-uplink-decoder/internal/uplink"
)

const shutdownTimeout = 10 * time.Second

var (
	registry     *decoder.Registry
	service      *uplink.Service
	integrations = integration.NewMultiIntegration()
	healthChecks []monitoring.HealthCheck
	gateway      *semtech.Backend
	apiServer    *api.Server
)

func run(cmd *cobra.Command, args []string) error {
	if cpuprofile != "" {
		f, err := os.Create(cpuprofile)
		if err != nil {
			return errors.Wrap(err, "could not create cpu profile file")
		}
		defer f.Close()

		if err := pprof.StartCPUProfile(f); err != nil {
			return errors.Wrap(err, "could not start cpu profile")
		}
		defer pprof.StopCPUProfile()
	}

	tasks := []func() error{
		setLogLevel,
		setLogJSON,
		setSyslog,
		printStartMessage,
		setupRegistry,
		setupService,
		setupIntegrations,
		setupMonitoring,
		setupGateway,
		setupAPI,
	}

	for _, t := range tasks {
		if err := t(); err != nil {
			log.Fatal(err)
		}
	}

	sigChan := make(chan os.Signal, 1)
	exitChan := make(chan struct{})
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	log.WithField("signal", <-sigChan).Info("signal received")
	go func() {
		log.Warning("stopping chirpstack-uplink-decoder")
		if err := stop(); err != nil {
			log.Fatal(err)
		}
		exitChan <- struct{}{}
	}()
	select {
	case <-exitChan:
	case s := <-sigChan:
		log.WithField("signal", s).Info("signal received, stopping immediately")
	}

	return nil
}

func stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := apiServer.Stop(ctx); err != nil {
		return err
	}

	if gateway != nil {
		if err := gateway.Close(); err != nil {
			return err
		}
	}

	if err := integrations.Close(); err != nil {
		return errors.Wrap(err, "close integrations error")
	}

	if err := registry.Close(); err != nil {
		return errors.Wrap(err, "close decoder registry error")
	}

	return nil
}

func setLogLevel() error {
	log.SetLevel(log.Level(uint8(config.C.General.LogLevel)))
	return nil
}

func setLogJSON() error {
	if config.C.General.LogJSON {
		log.SetFormatter(&log.JSONFormatter{})
	}
	return nil
}

func printStartMessage() error {
	log.WithFields(log.Fields{
		"version": version,
	}).Info("starting ChirpStack Uplink Decoder")
	return nil
}

func setupRegistry() error {
	builtin, err := decoder.NewBuiltinSource(config.C.Decoder.Builtin)
	if err != nil {
		return errors.Wrap(err, "setup built-in decoders error")
	}

	sources := decoder.ChainSource{builtin}
	if dir := config.C.Decoder.PluginDirectory; dir != "" {
		log.WithField("directory", dir).Info("decoder: loading decoder plugins from directory")
		sources = append(sources, decoder.NewPluginSource(dir))
	}

	registry = decoder.NewRegistry(sources)
	return nil
}

func setupService() error {
	keks, err := uplink.NewKEKSet(config.C.KEKs)
	if err != nil {
		return errors.Wrap(err, "setup key encryption keys error")
	}

	service = uplink.NewService(registry, keks)
	return nil
}

func setupIntegrations() error {
	ctx := context.Background()

	for _, name := range config.C.Integration.Enabled {
		i, err := newIntegration(ctx, name)
		if err != nil {
			return errors.Wrapf(err, "setup integration %s error", name)
		}
		integrations.Add(i)
	}

	return nil
}

func newIntegration(ctx context.Context, name string) (integration.Integration, error) {
	conf := config.C.Integration

	switch name {
	case "redis":
		i, err := redis.New(ctx, redis.Config{
			URL:              conf.Redis.URL,
			Channel:          conf.Redis.Channel,
			NwkIDChannels:    conf.Redis.NwkIDChannels,
			UnmatchedChannel: conf.Redis.UnmatchedChannel,
		})
		if err != nil {
			return nil, err
		}
		healthChecks = append(healthChecks, monitoring.HealthCheck{
			Name:  "redis",
			Check: i.Ping,
		})
		return i, nil
	case "mqtt":
		return mqtt.New(mqtt.Config{
			Server:        conf.MQTT.Server,
			Username:      conf.MQTT.Username,
			Password:      conf.MQTT.Password,
			QOS:           conf.MQTT.QOS,
			CleanSession:  conf.MQTT.CleanSession,
			ClientID:      conf.MQTT.ClientID,
			CACert:        conf.MQTT.CACert,
			TLSCert:       conf.MQTT.TLSCert,
			TLSKey:        conf.MQTT.TLSKey,
			TopicTemplate: conf.MQTT.TopicTemplate,
		})
	case "amqp":
		return amqp.New(amqp.Config{
			URL:                conf.AMQP.URL,
			Exchange:           conf.AMQP.Exchange,
			RoutingKeyTemplate: conf.AMQP.RoutingKeyTemplate,
			ChannelPoolSize:    conf.AMQP.ChannelPoolSize,
		})
	case "gcp_pub_sub":
		return gcppubsub.New(ctx, gcppubsub.Config{
			CredentialsFile: conf.GCPPubSub.CredentialsFile,
			ProjectID:       conf.GCPPubSub.ProjectID,
			TopicName:       conf.GCPPubSub.TopicName,
		})
	case "postgresql":
		i, err := postgres.New(ctx, postgres.Config{
			DSN:                conf.PostgreSQL.DSN,
			Automigrate:        conf.PostgreSQL.Automigrate,
			MaxOpenConnections: conf.PostgreSQL.MaxOpenConnections,
			MaxIdleConnections: conf.PostgreSQL.MaxIdleConnections,
		})
		if err != nil {
			return nil, err
		}
		healthChecks = append(healthChecks, monitoring.HealthCheck{
			Name:  "postgresql",
			Check: i.Ping,
		})
		return i, nil
	case "azure_service_bus":
		return azureservicebus.New(azureservicebus.Config{
			ConnectionString: conf.AzureServiceBus.ConnectionString,
			PublishMode:      azureservicebus.PublishMode(conf.AzureServiceBus.PublishMode),
			PublishName:      conf.AzureServiceBus.PublishName,
		})
	default:
		return nil, errors.Errorf("unknown integration type: %s", name)
	}
}

func setupMonitoring() error {
	if err := monitoring.Setup(config.C, healthChecks...); err != nil {
		return errors.Wrap(err, "setup monitoring error")
	}
	return nil
}

func setupGateway() error {
	if !config.C.Gateway.SemtechUDP.Enabled {
		return nil
	}

	if integrations.Len() == 0 {
		log.Warning("gateway/semtech: no integrations enabled, received uplinks will only be logged")
	}

	var err error
	gateway, err = semtech.NewBackend(config.C.Gateway.SemtechUDP.Bind, integrations)
	if err != nil {
		return errors.Wrap(err, "setup semtech udp gateway backend error")
	}
	return nil
}

func setupAPI() error {
	apiServer = api.NewServer(config.C, service)
	if err := apiServer.Start(); err != nil {
		return errors.Wrap(err, "start api server error")
	}
	return nil
}
