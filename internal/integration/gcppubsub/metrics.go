package gcppubsub

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pc = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "integration_gcp_pub_sub_publish_count",
		Help: "The number of uplink events published by the GCP Pub/Sub integration (per result).",
	}, []string{"result"})
)

func gcpPublishCounter(r string) prometheus.Counter {
	return pc.With(prometheus.Labels{"result": r})
}
