package postgres

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var ic = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "integration_postgres_insert_count",
	Help: "The number of uplink events stored by the PostgreSQL integration (per result).",
}, []string{"result"})

func insertCounter(r string) prometheus.Counter {
	return ic.With(prometheus.Labels{"result": r})
}
