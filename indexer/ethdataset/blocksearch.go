package ethdataset

import (
	"context"
	"math/big"
	"time"

	"github.com/observerlabs/aavewatch/indexer/providers"
	"github.com/pkg/errors"
)

// Pause between header probe retries, growing linearly per attempt.
var findBlockRetryDelay = 2 * time.Second

var errRoundTooRecent = errors.New("feed round newer than sample time")

// daySample is one resolved end-of-day observation.
type daySample struct {
	roundID     *big.Int
	updatedAt   uint64
	updateBlock uint64
	updateTime  uint64
	price       *big.Rat
}

// sampleDay resolves the feed state for one sample instant: the last
// block at or before the target time, the round the feed reported there,
// and the block where that round was written. A round that post-dates the
// target is rejected rather than approximated.
func (b *Builder) sampleDay(ctx context.Context, client *providers.ManagedClient, target, searchLo, searchHi uint64) (*daySample, error) {
	blockAt, err := b.findBlockAtTime(ctx, client, target, searchLo, searchHi)
	if err != nil {
		return nil, err
	}
	rd, err := b.prices.EthRound(ctx, blockAt)
	if err != nil {
		return nil, errors.Wrap(err, "could not read ETH feed")
	}
	if rd.UpdatedAt > target {
		return nil, errRoundTooRecent
	}
	updateBlock, err := b.findBlockAtTime(ctx, client, rd.UpdatedAt, searchLo, blockAt)
	if err != nil {
		return nil, err
	}
	updateTime, err := b.blockTime(ctx, client, updateBlock)
	if err != nil {
		return nil, errors.Wrap(err, "could not read update block header")
	}
	return &daySample{
		roundID:     rd.RoundID,
		updatedAt:   rd.UpdatedAt,
		updateBlock: updateBlock,
		updateTime:  updateTime,
		price:       rd.Price,
	}, nil
}

// findBlockAtTime binary-searches [lo, hi] for the last block whose
// timestamp is at or before target. Blocks that cannot be read after
// retries are treated as beyond the tip and the search narrows downward,
// so a pruned or not-yet-propagated upper bound cannot wedge the search.
func (b *Builder) findBlockAtTime(ctx context.Context, client *providers.ManagedClient, target, lo, hi uint64) (uint64, error) {
	left, right := lo, hi
	result := lo
	probes := 0
	for left <= right {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		probes++
		mid := left + (right-left)/2
		ts, err := b.blockTime(ctx, client, mid)
		if err == nil && ts <= target {
			result = mid
			left = mid + 1
			continue
		}
		if err != nil {
			log.WithError(err).WithField("block", mid).Debug("Header probe failed, narrowing search")
		}
		if mid == 0 {
			break
		}
		right = mid - 1
	}
	log.WithField("probes", probes).Debugf("Block at %d resolved to %d", target, result)
	return result, nil
}

// blockTime reads one block header's timestamp with the configured retry
// budget.
func (b *Builder) blockTime(ctx context.Context, client *providers.ManagedClient, number uint64) (uint64, error) {
	var lastErr error
	for attempt := 0; attempt < b.cfg.DatasetFindBlockRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		header, err := client.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
		if err == nil {
			return header.Time, nil
		}
		lastErr = err
		if attempt < b.cfg.DatasetFindBlockRetries-1 {
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(findBlockRetryDelay * time.Duration(attempt+1)):
			}
		}
	}
	return 0, lastErr
}
