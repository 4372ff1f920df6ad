package semtech

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pc = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_semtech_packet_count",
		Help: "The number of received UDP packets (per packet type).",
	}, []string{"type"})

	rc = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_semtech_rxpk_count",
		Help: "The number of received RF packets (per parse result).",
	}, []string{"result"})
)

func packetCounter(t string) prometheus.Counter {
	return pc.With(prometheus.Labels{"type": t})
}

func rxpkCounter(r string) prometheus.Counter {
	return rc.With(prometheus.Labels{"result": r})
}
