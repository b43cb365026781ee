package ethdataset

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	daysBuiltTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dataset_days_built_total",
		Help: "Count of daily ETH price observations appended to the dataset CSV.",
	})
	datasetRowsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dataset_rows",
		Help: "Total rows in the daily ETH price dataset CSV after the last build.",
	})
)
