package providers

import (
	"net/url"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	providerAcquisitionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "provider_pool_acquisitions_total",
		Help: "Count of successful provider acquisitions",
	})
	providerRotationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "provider_pool_rotations_total",
		Help: "Count of forced provider rotations",
	})
	providerRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "provider_pool_requests_total",
		Help: "Count of successful JSON-RPC calls per endpoint host",
	}, []string{"endpoint"})
	providerErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "provider_pool_errors_total",
		Help: "Count of failed JSON-RPC calls per endpoint host",
	}, []string{"endpoint"})
)

// hostLabel reduces an endpoint URL to its host so API keys embedded in
// URL paths never reach the metrics surface.
func hostLabel(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "invalid"
	}
	return u.Host
}
