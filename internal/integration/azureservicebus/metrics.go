package azureservicebus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var pc = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "integration_azure_service_bus_publish_count",
	Help: "The number of uplink events published by the Azure Service Bus integration (per result).",
}, []string{"result"})

func publishCounter(r string) prometheus.Counter {
	return pc.With(prometheus.Labels{"result": r})
}
