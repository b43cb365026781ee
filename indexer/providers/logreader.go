package providers

import (
	"context"
	"math/big"
	"sort"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"
)

// FilterLogsChunked fetches every log matching the filter across
// [fromBlock, toBlock], splitting the span into chunks small enough for
// providers to accept. The span is walked from the top down so that a
// range rejection only retries the newest unfinished chunk with half the
// size. Generic failures rotate the provider and retry the same subrange;
// a subrange is skipped only once the retry budget is spent, leaving a
// hole for the caller's gap detection to re-scan. Returned logs are in
// on-chain order (block number, then log index).
func (p *Pool) FilterLogsChunked(
	ctx context.Context,
	address common.Address,
	topics [][]common.Hash,
	fromBlock, toBlock uint64,
	initialChunk, minChunk uint64,
) ([]types.Log, error) {
	client, err := p.Sticky(ctx)
	if err != nil {
		return nil, err
	}
	if minChunk == 0 {
		minChunk = 1
	}
	chunk := initialChunk
	if chunk < minChunk {
		chunk = minChunk
	}

	var all []types.Log
	toBlk := toBlock
	tries := 0
	for toBlk >= fromBlock {
		if ctx.Err() != nil {
			return all, ctx.Err()
		}
		frm := fromBlock
		if toBlk >= chunk && toBlk-chunk+1 > fromBlock {
			frm = toBlk - chunk + 1
		}

		part, err := client.FilterLogs(ctx, ethereum.FilterQuery{
			FromBlock: new(big.Int).SetUint64(frm),
			ToBlock:   new(big.Int).SetUint64(toBlk),
			Addresses: []common.Address{address},
			Topics:    topics,
		})
		if err != nil {
			if IsRangeLimitError(err) && chunk > minChunk {
				chunk = chunk / 2
				if chunk < minChunk {
					chunk = minChunk
				}
				log.WithField("chunk", chunk).Debug("Reduced log query chunk size")
				continue
			}
			tries++
			if tries < p.attempts {
				log.WithError(err).WithFields(logrus.Fields{
					"fromBlock": frm,
					"toBlock":   toBlk,
				}).Warn("Log fetch failed, rotating provider")
				if next, rerr := p.Rotate(ctx); rerr == nil {
					client = next
					continue
				}
			}
			log.WithError(err).WithFields(logrus.Fields{
				"fromBlock": frm,
				"toBlock":   toBlk,
			}).Warn("Skipping log subrange after repeated failures")
		} else {
			all = append(all, part...)
		}
		tries = 0

		if frm == 0 {
			break
		}
		toBlk = frm - 1
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].BlockNumber != all[j].BlockNumber {
			return all[i].BlockNumber < all[j].BlockNumber
		}
		return all[i].Index < all[j].Index
	})
	return all, nil
}
