package providers

import (
	"fmt"

	"github.com/observerlabs/aavewatch/config/params"
)

// BuildEndpoints assembles the endpoint list for a pool: keyed Alchemy and
// Infura URLs first when the corresponding API key is set, then the public
// fallback endpoints from the network configuration. Explicit endpoints
// passed by the operator replace the whole list.
func BuildEndpoints(cfg *params.IndexerConfig, explicit []string, alchemyKey, infuraKey string) []string {
	if len(explicit) > 0 {
		return append([]string{}, explicit...)
	}
	var out []string
	if alchemyKey != "" {
		out = append(out, fmt.Sprintf(cfg.AlchemyURLTemplate, alchemyKey))
	}
	if infuraKey != "" {
		out = append(out, fmt.Sprintf(cfg.InfuraURLTemplate, infuraKey))
	}
	out = append(out, cfg.PublicRPCEndpoints...)
	return out
}
