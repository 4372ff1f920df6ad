package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	arc = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "api_request_count",
		Help: "The number of API requests (per route and result kind).",
	}, []string{"route", "kind"})
)

func apiRequestCounter(route, kind string) prometheus.Counter {
	return arc.With(prometheus.Labels{"route": route, "kind": kind})
}
