package prices

import (
	"context"
	"strings"
	"time"

	"github.com/observerlabs/aavewatch/indexer/providers"
	"github.com/pkg/errors"
)

// errNoData marks an authoritative "nothing here at this block" answer:
// the contract reverted, was not deployed yet, or returned zero. Layers
// give up immediately on it so the next source gets a chance.
var errNoData = errors.New("no data at block")

var noDataMarkers = []string{
	"execution reverted",
	"revert",
	"no contract code",
	"abi:",
}

func isNoDataError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, errNoData) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, m := range noDataMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

func isTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "deadline") ||
		strings.Contains(msg, "connection")
}

// callWithRetries runs op against the sticky client, retrying transport
// failures on the configured backoff schedule and rotating the provider
// after timeouts. A no-data classification aborts immediately.
func (r *Resolver) callWithRetries(ctx context.Context, attempts int, op func(client *providers.ManagedClient) error) error {
	client, err := r.pool.Sticky(ctx)
	if err != nil {
		return err
	}
	var last error
	for attempt := 0; attempt < attempts; attempt++ {
		err = op(client)
		if err == nil {
			return nil
		}
		if isNoDataError(err) {
			return errors.Wrap(errNoData, err.Error())
		}
		last = err
		if attempt == attempts-1 {
			break
		}
		if !r.sleepBackoff(ctx, attempt) {
			return ctx.Err()
		}
		if isTimeoutError(err) {
			if next, rerr := r.pool.Rotate(ctx); rerr == nil {
				client = next
			}
		}
	}
	return last
}

// sleepBackoff waits out the attempt's slot in the backoff schedule,
// returning false if the context ended first.
func (r *Resolver) sleepBackoff(ctx context.Context, attempt int) bool {
	schedule := r.cfg.PriceBackoffSchedule
	if len(schedule) == 0 {
		return true
	}
	if attempt >= len(schedule) {
		attempt = len(schedule) - 1
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(schedule[attempt]):
		return true
	}
}
