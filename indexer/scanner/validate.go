package scanner

import (
	"context"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/observerlabs/aavewatch/indexer/csvstore"
	"github.com/observerlabs/aavewatch/runtime/logging"
	"github.com/pkg/errors"
)

// Progress lines during the deep scan come every this many blocks.
const gapScanProgressStride = 100_000

// ValidateAndFillGaps runs the full repair pass over the master CSV:
// price backfill with numeric re-verification, block coverage analysis,
// a deep re-scan of the whole historical range for events the CSV never
// recorded, and finally a normal scan pass to enrich anything found and
// catch up to the live tip. A missing or empty CSV routes straight to a
// normal scan.
func (s *Scanner) ValidateAndFillGaps(ctx context.Context) error {
	header, records, err := s.store.ReadRecords()
	if err != nil {
		return errors.Wrap(err, "could not read master csv")
	}
	if header == nil {
		log.Warn("Master CSV not found, starting normal scan")
		return s.ScanOnce(ctx, 0)
	}

	log.Info("=== Complete validation and repair mode ===")
	log.Infof("CSV loaded: %s entries from %s", humanize.Comma(int64(len(records))), s.store.Path())

	log.Info("Phase 1/4: backfilling missing prices")
	if err := s.BackfillMissingPrices(ctx); err != nil {
		if ctx.Err() != nil {
			return err
		}
		log.WithError(err).Warn("Price backfill failed")
	}

	log.Info("Phase 2/4: analyzing block coverage")
	// The backfill may have rewritten the file, read it again.
	header, records, err = s.store.ReadRecords()
	if err != nil {
		return errors.Wrap(err, "could not re-read master csv")
	}
	if len(records) == 0 {
		log.Info("CSV is empty, starting fresh scan")
		return s.ScanOnce(ctx, 0)
	}
	minBlock, maxBlock, existing, ok := coverage(header, records)
	if !ok {
		log.Warn("No valid block values found in CSV, aborting gap check")
		return nil
	}
	log.Infof("CSV contains %s events from block %s to %s",
		humanize.Comma(int64(len(records))), humanize.Comma(int64(minBlock)), humanize.Comma(int64(maxBlock)))

	log.Info("Phase 3/4: deep scan for missing events")
	missed, err := s.deepScan(ctx, maxBlock, existing)
	if err != nil {
		return err
	}

	if len(missed) > 0 {
		log.Infof("Found %d new events in gap scan, processing them now", len(missed))
		log.Info("Phase 4/4: processing new events and syncing to latest block")
		appended := 0
		for _, lg := range missed {
			if err := ctx.Err(); err != nil {
				return err
			}
			row, ok := s.indexLog(ctx, lg, existing)
			if !ok {
				continue
			}
			appended++
			log.WithFields(logging.LiquidationFields(row)).Info("Gap event appended")
		}
		log.Infof("Appended %d of %d gap events", appended, len(missed))
		if err := s.ScanOnce(ctx, 0); err != nil {
			return err
		}
	} else {
		log.Info("No gaps found, all historical blocks scanned")
		log.Info("Phase 4/4: syncing to latest block")
		if err := s.syncToTip(ctx, maxBlock); err != nil {
			return err
		}
	}

	log.Info("=== Validation complete ===")
	return nil
}

// deepScan walks the whole historical range with the chunked reader and
// collects logs whose transaction hash the CSV does not know. Detection
// stays lightweight: enrichment and appending happen afterwards.
func (s *Scanner) deepScan(ctx context.Context, maxBlock uint64, existing map[string]struct{}) ([]types.Log, error) {
	from := s.cfg.GenesisBlock
	log.Infof("Scanning range: %s to %s (%s blocks)",
		humanize.Comma(int64(from)), humanize.Comma(int64(maxBlock)),
		humanize.Comma(int64(maxBlock)-int64(from)+1))

	var missed []types.Log
	lastProgress := from
	cursor := from
	for cursor <= maxBlock {
		if err := ctx.Err(); err != nil {
			return missed, err
		}
		if cursor-lastProgress >= gapScanProgressStride {
			done := cursor - from
			total := maxBlock - from + 1
			log.Infof("Gap scan progress: %s/%s (%.1f%%), %d new events found",
				humanize.Comma(int64(cursor)), humanize.Comma(int64(maxBlock)),
				float64(done)/float64(total)*100, len(missed))
			lastProgress = cursor
		}
		to := cursor + s.cfg.ValidateBatchSize - 1
		if to > maxBlock {
			to = maxBlock
		}
		logs, err := s.pool.FilterLogsChunked(ctx,
			s.cfg.PoolContract, [][]common.Hash{{s.topic}},
			cursor, to, s.cfg.ValidateChunk, s.cfg.MinLogChunk)
		if err != nil {
			if ctx.Err() != nil {
				return missed, err
			}
			log.WithError(err).Warnf("Gap scan batch %d-%d skipped", cursor, to)
			cursor = to + 1
			continue
		}
		for _, lg := range logs {
			tx := strings.ToLower(lg.TxHash.Hex())
			if _, known := existing[tx]; known {
				continue
			}
			log.Infof("New event found: block %d tx %s", lg.BlockNumber, shortHash(tx))
			missed = append(missed, lg)
		}
		cursor = to + 1
	}
	return missed, nil
}

// syncToTip runs a normal scan pass when the chain has moved past the
// CSV's last block.
func (s *Scanner) syncToTip(ctx context.Context, maxBlock uint64) error {
	client, err := s.pool.Sticky(ctx)
	if err != nil {
		log.WithError(err).Warn("Could not check latest block")
		return nil
	}
	latest, err := client.BlockNumber(ctx)
	if err != nil {
		log.WithError(err).Warn("Could not check latest block")
		return nil
	}
	if latest <= maxBlock {
		log.Info("Already at latest block, validation complete")
		return nil
	}
	log.Infof("Syncing to latest block (%s new blocks)", humanize.Comma(int64(latest)-int64(maxBlock)))
	return s.ScanOnce(ctx, 0)
}

// coverage extracts the scanned block span and the known transaction
// set from raw CSV records. ok is false when no record carries a
// parseable block number.
func coverage(header []string, records [][]string) (minBlock, maxBlock uint64, existing map[string]struct{}, ok bool) {
	idx := csvstore.HeaderIndex(header)
	existing = make(map[string]struct{})
	for _, rec := range records {
		if tx := strings.ToLower(strings.TrimSpace(csvstore.Field(rec, idx, csvstore.ColTx))); tx != "" {
			existing[tx] = struct{}{}
		}
		b, err := strconv.ParseUint(strings.TrimSpace(csvstore.Field(rec, idx, csvstore.ColBlock)), 10, 64)
		if err != nil {
			continue
		}
		if !ok || b < minBlock {
			minBlock = b
		}
		if b > maxBlock {
			maxBlock = b
		}
		ok = true
	}
	return minBlock, maxBlock, existing, ok
}
