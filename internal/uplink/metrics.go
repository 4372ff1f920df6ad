package uplink

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	uc = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uplink_counter",
		Help: "The number of handled uplink requests (per operation and error kind).",
	}, []string{"operation", "kind"})
	ufce = promauto.NewCounter(prometheus.CounterOpts{
		Name: "uplink_frame_error_count",
		Help: "The number of frames that failed to parse.",
	})
	umic = promauto.NewCounter(prometheus.CounterOpts{
		Name: "uplink_mic_invalid_count",
		Help: "The number of frames rejected because of an invalid MIC.",
	})
)

func uplinkCounter(op, kind string) prometheus.Counter {
	return uc.With(prometheus.Labels{"operation": op, "kind": kind})
}

func uplinkFrameErrorCount() prometheus.Counter {
	return ufce
}

func uplinkMICInvalidCount() prometheus.Counter {
	return umic
}
