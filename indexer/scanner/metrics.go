package scanner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	scanBatchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scan_batches_total",
		Help: "Count of log batches fetched across all scan passes.",
	})
	eventsIndexedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scan_events_indexed_total",
		Help: "Count of liquidation rows appended to the master CSV.",
	})
	batchSizeGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scan_batch_size_blocks",
		Help: "Current adaptive batch size in blocks.",
	})
	chainTipGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scan_chain_tip_block",
		Help: "Most recently observed chain tip block number.",
	})
)
