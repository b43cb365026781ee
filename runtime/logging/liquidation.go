// Package logging includes helpers for assembling consistent log field
// sets from the indexer's domain objects.
package logging

import (
	"github.com/observerlabs/aavewatch/indexer/csvstore"
	"github.com/sirupsen/logrus"
)

// LiquidationFields extracts a standard set of fields from a liquidation
// row into a logrus.Fields struct which can be passed to log.WithFields.
// Pricing columns may be empty when resolution failed at index time.
func LiquidationFields(r *csvstore.Row) logrus.Fields {
	tx := r.Tx
	if len(tx) > 12 {
		tx = tx[:12]
	}
	return logrus.Fields{
		"block":      r.Block,
		"tx":         tx,
		"collateral": r.CollateralSymbol,
		"debt":       r.DebtSymbol,
		"valueUSD":   r.DebtValueUSD,
	}
}
