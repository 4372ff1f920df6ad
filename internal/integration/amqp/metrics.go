package amqp

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pc = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "integration_amqp_publish_count",
		Help: "The number of uplink events published by the AMQP integration (per result).",
	}, []string{"result"})

	cc = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "integration_amqp_channel_count",
		Help: "The number of AMQP channel pool events (opened, returned, closed or discarded after a publish error).",
	}, []string{"event"})
)

func amqpPublishCounter(r string) prometheus.Counter {
	return pc.With(prometheus.Labels{"result": r})
}

func channelCounter(e string) prometheus.Counter {
	return cc.With(prometheus.Labels{"event": e})
}
