package providers

import "strings"

// Providers do not agree on an error code for oversized eth_getLogs
// queries, so classification is by message substring.
var rangeLimitMarkers = []string{
	"range",
	"exceeds",
	"too large",
}

var throttleMarkers = []string{
	"400",
	"bad request",
	"429",
	"too many requests",
}

// IsRangeLimitError reports whether the error looks like a block-range cap
// rejection rather than a transient failure. Callers shrink the queried
// range and retry the same span.
func IsRangeLimitError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, m := range rangeLimitMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// IsProviderLimitError reports whether the provider pushed back on request
// size or rate. Callers halve their batch size and keep it from growing
// again for the rest of the pass.
func IsProviderLimitError(err error) bool {
	if err == nil {
		return false
	}
	if IsRangeLimitError(err) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, m := range throttleMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
