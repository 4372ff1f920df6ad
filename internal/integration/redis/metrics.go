package redis

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pc = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "integration_redis_publish_count",
		Help: "The number of uplink events published by the Redis integration (per result).",
	}, []string{"result"})
)

func redisPublishCounter(r string) prometheus.Counter {
	return pc.With(prometheus.Labels{"result": r})
}
