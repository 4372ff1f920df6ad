// Package test contains helpers shared by the tests of the other packages.
package test

import (
	"os"

	log "github.com/sirupsen/logrus"
)

// Config contains the test configuration. Empty values mean that the
// corresponding service is not available and tests depending on it must be
// skipped.
type Config struct {
	RedisURL                        string
	MQTTServer                      string
	AMQPURL                         string
	PostgresDSN                     string
	AzureServiceBusConnectionString string
	AzureServiceBusQueue            string
}

// GetConfig returns the test configuration.
func GetConfig() Config {
	log.SetLevel(log.ErrorLevel)

	return Config{
		RedisURL:                        os.Getenv("TEST_REDIS_URL"),
		MQTTServer:                      os.Getenv("TEST_MQTT_SERVER"),
		AMQPURL:                         os.Getenv("TEST_AMQP_URL"),
		PostgresDSN:                     os.Getenv("TEST_POSTGRES_DSN"),
		AzureServiceBusConnectionString: os.Getenv("TEST_AZURE_SERVICE_BUS_CONNECTION_STRING"),
		AzureServiceBusQueue:            os.Getenv("TEST_AZURE_SERVICE_BUS_QUEUE"),
	}
}
