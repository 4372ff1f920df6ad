package decoder

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rc = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "decoder_registry_resolve_count",
		Help: "The number of decoder resolves (per result).",
	}, []string{"result"})

	ld = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "decoder_registry_load_duration_seconds",
		Help: "The time it took to load a decoder from its source.",
	})

	pc = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "decoder_plugin_process_count",
		Help: "The number of running decoder plugin processes.",
	})
)

func resolveCounter(result string) prometheus.Counter {
	return rc.With(prometheus.Labels{"result": result})
}

func loadDuration() prometheus.Observer {
	return ld
}

func pluginProcessGauge() prometheus.Gauge {
	return pc
}
