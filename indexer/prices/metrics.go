package prices

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	priceResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "price_resolutions_total",
		Help: "Count of successful price resolutions by source layer.",
	}, []string{"source"})
	priceResolutionMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "price_resolution_misses_total",
		Help: "Count of assets no price source could answer for.",
	})
	capoCapsEngagedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "price_capo_caps_engaged_total",
		Help: "Count of CAPO-capped resolutions where the cap bound the price.",
	})
)
