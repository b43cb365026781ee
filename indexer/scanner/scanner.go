// Package scanner drives the resumable liquidation indexing loop: resume
// point from the master CSV, adaptive-batch forward sweep to the chain
// tip, per-event enrichment, duplicate-suppressed appends, gap detection
// with immediate refill, and the status/checkpoint projections consumed
// by dashboards. The CSV is the single source of truth; a crashed pass
// loses at most in-flight work and the next pass resumes exactly where
// the last appended row left off.
package scanner

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/observerlabs/aavewatch/config/params"
	"github.com/observerlabs/aavewatch/indexer/csvstore"
	"github.com/observerlabs/aavewatch/indexer/prices"
	"github.com/observerlabs/aavewatch/indexer/providers"
	"github.com/observerlabs/aavewatch/indexer/tokens"
	"github.com/observerlabs/aavewatch/runtime/logging"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "scanner")

// Rotation ladders and pauses for the adaptive batch loop.
var (
	rotationWaits      = []time.Duration{5 * time.Second, 15 * time.Second, 30 * time.Second, 60 * time.Second}
	limitRotationWaits = []time.Duration{5 * time.Second, 10 * time.Second, 20 * time.Second}
	limitPause         = 2 * time.Second
	retryPause         = 2 * time.Second
	exhaustedWait      = 2 * time.Minute
)

// A pass survives one full exhaustion round (rotation or long wait); a
// second round without a successful batch in between ends the pass with
// an error status so the next tick starts clean.
const maxExhaustedRounds = 2

// Scanner owns one scan pass at a time over the pool contract's
// LiquidationCall logs.
type Scanner struct {
	cfg    *params.IndexerConfig
	pool   *providers.Pool
	tokens *tokens.Registry
	prices *prices.Resolver
	store  *csvstore.Store

	dataDir string
	poolABI abi.ABI
	topic   common.Hash
}

// New wires a scanner against the shared pool, registry, resolver, and
// CSV store. dataDir holds the status, checkpoint, and report files.
func New(cfg *params.IndexerConfig, pool *providers.Pool, registry *tokens.Registry, resolver *prices.Resolver, store *csvstore.Store, dataDir string) (*Scanner, error) {
	parsed, err := abi.JSON(strings.NewReader(poolABIJSON))
	if err != nil {
		return nil, errors.Wrap(err, "could not parse pool ABI")
	}
	return &Scanner{
		cfg:     cfg,
		pool:    pool,
		tokens:  registry,
		prices:  resolver,
		store:   store,
		dataDir: dataDir,
		poolABI: parsed,
		topic:   crypto.Keccak256Hash([]byte(cfg.LiquidationEventSignature)),
	}, nil
}

// Store exposes the scanner's CSV store.
func (s *Scanner) Store() *csvstore.Store {
	return s.store
}

type blockRange struct {
	from, to uint64
}

// ScanOnce runs one complete pass: ensure and reconcile the CSV, derive
// the resume point, sweep forward to the tip (or the given bound; zero
// means the live tip), fill any gaps, and write the completed status and
// checkpoint. Cancel via ctx; the pass stops at the next batch boundary
// or retry sleep.
func (s *Scanner) ScanOnce(ctx context.Context, toBlock uint64) error {
	// Acquiring a client already proves the remote chain: the pool
	// rejects endpoints whose chain id differs from the configured one.
	client, err := s.pool.Sticky(ctx)
	if err != nil {
		return errors.Wrap(err, "no provider available")
	}

	if err := s.store.Ensure(); err != nil {
		return errors.Wrap(err, "could not prepare master csv")
	}
	if _, err := s.store.ReconcileHeader(); err != nil {
		log.WithError(err).Error("Header reconciliation failed")
	}

	latest := toBlock
	if latest == 0 {
		latest, err = client.BlockNumber(ctx)
		if err != nil {
			return errors.Wrap(err, "could not read chain tip")
		}
	}
	chainTipGauge.Set(float64(latest))

	log.WithField("path", s.store.Path()).Info("Checking CSV for resume point")
	sum, err := s.store.Summarize(s.cfg.MaxValidBlock)
	if err != nil {
		log.WithError(err).Warn("Could not digest master CSV, starting fresh")
		sum = &csvstore.Summary{Txs: make(map[string]struct{})}
	}

	resume := s.cfg.GenesisBlock
	firstScan := true
	if sum.HasMax && sum.Rows > 0 {
		resume = sum.MaxBlock + 1
		firstScan = false
		log.Infof("Resuming: CSV has %s rows, last block %s. Scanning %s -> %s (%s blocks)",
			humanize.Comma(int64(sum.Rows)), humanize.Comma(int64(sum.MaxBlock)),
			humanize.Comma(int64(resume)), humanize.Comma(int64(latest)),
			humanize.Comma(int64(latest)-int64(sum.MaxBlock)))
	} else {
		log.Infof("Fresh start: scanning from block %s to %s (%s blocks)",
			humanize.Comma(int64(resume)), humanize.Comma(int64(latest)),
			humanize.Comma(int64(latest)-int64(resume)+1))
	}

	if resume > latest {
		log.Info("Up to date, no new blocks")
		st := s.newStatusWriter(s.cfg.GenesisBlock, latest)
		st.write(statusIdle, latest, 0, "no new blocks to scan")
		s.writeCheckpoint(latest, nil)
		return nil
	}

	fromStatus := s.cfg.GenesisBlock
	if sum.HasMin {
		fromStatus = sum.MinBlock
	}
	st := s.newStatusWriter(fromStatus, latest)

	if firstScan {
		log.Infof("First scan: %s blocks", humanize.Comma(int64(latest)-int64(resume)+1))
	}
	st.write(statusRunning, resume, 0, "scan started")

	existing := sum.Txs
	startEvents := sum.Rows
	events := startEvents
	if events > 0 {
		log.Infof("CSV loaded: %s events (dedupe: %s tx)",
			humanize.Comma(int64(events)), humanize.Comma(int64(len(existing))))
	}

	batch := s.cfg.InitialBatchSize
	limitSeen := false
	consecutive := 0
	exhausted := 0
	var scanned []blockRange
	cursor := resume

	for cursor <= latest {
		if err := ctx.Err(); err != nil {
			return err
		}
		to := cursor + batch - 1
		if to > latest {
			to = latest
		}
		batchSizeGauge.Set(float64(batch))
		st.write(statusRunning, to, events, fmt.Sprintf("fetching logs %d-%d", cursor, to))

		logs, err := client.FilterLogs(ctx, s.filterQuery(cursor, to))
		if err != nil {
			consecutive++
			if consecutive >= s.cfg.MaxConsecutiveRetries {
				exhausted++
				if exhausted >= maxExhaustedRounds {
					st.write(statusError, cursor, events, "all providers failing")
					return errors.New("all providers exhausted")
				}
				log.Warn("Repeated RPC failures, switching provider")
				rotated := false
				for _, wait := range rotationWaits {
					if !sleepCtx(ctx, wait) {
						return ctx.Err()
					}
					next, rerr := s.pool.Rotate(ctx)
					if rerr != nil {
						log.WithError(rerr).Warn("Provider switch failed")
						continue
					}
					client = next
					consecutive = 0
					rotated = true
					log.WithField("pause", wait).Info("Provider switched")
					break
				}
				if !rotated {
					log.Error("All providers failing, waiting 2 minutes before retrying")
					st.write(statusWaiting, cursor, events, "Network issues - waiting to retry")
					if !sleepCtx(ctx, exhaustedWait) {
						return ctx.Err()
					}
					consecutive = 0
				}
				continue
			}
			if providers.IsProviderLimitError(err) {
				if batch > s.cfg.MinBatchSize {
					batch /= 2
					if batch < s.cfg.MinBatchSize {
						batch = s.cfg.MinBatchSize
					}
					// Once a provider pushed back, stop growing for the
					// rest of the pass.
					limitSeen = true
					log.WithField("batchSize", batch).Info("Reducing batch size due to provider limit")
					if !sleepCtx(ctx, limitPause) {
						return ctx.Err()
					}
					continue
				}
				log.Info("Rate limited at minimum batch size, switching provider")
				for _, wait := range limitRotationWaits {
					if !sleepCtx(ctx, wait) {
						return ctx.Err()
					}
					next, rerr := s.pool.Rotate(ctx)
					if rerr != nil {
						continue
					}
					client = next
					consecutive = 0
					batch = s.cfg.InitialBatchSize
					limitSeen = false
					break
				}
				continue
			}
			log.WithError(err).Warnf("Batch error %d-%d, retrying", cursor, to)
			if !sleepCtx(ctx, retryPause) {
				return ctx.Err()
			}
			continue
		}

		scanBatchesTotal.Inc()
		scanned = append(scanned, blockRange{cursor, to})
		consecutive = 0
		exhausted = 0
		if batch < s.cfg.MaxBatchSize && !limitSeen {
			batch *= 2
			if batch > s.cfg.MaxBatchSize {
				batch = s.cfg.MaxBatchSize
			}
		}

		if len(logs) == 0 {
			log.Infof("Batch %d-%d: (empty)", cursor, to)
		} else {
			log.Debugf("Fetched batch %d-%d: %d logs", cursor, to, len(logs))
			appended := 0
			for _, lg := range logs {
				if err := ctx.Err(); err != nil {
					return err
				}
				row, ok := s.indexLog(ctx, lg, existing)
				if !ok {
					continue
				}
				events++
				appended++
				st.write(statusRunning, row.Block, events, fmt.Sprintf("Found liquidation in block %d", row.Block))
				log.Infof("#%d %s/%s @ %d", events, row.CollateralSymbol, row.DebtSymbol, row.Block)
			}
			log.Infof("Batch %d-%d: %d events, new: +%d", cursor, to, len(logs), appended)
		}
		cursor = to + 1
	}

	if len(scanned) > 0 {
		if gaps := detectGaps(scanned); len(gaps) > 0 {
			log.Warnf("Batch gap detected: %d gaps found, filling now", len(gaps))
			events = s.fillGaps(ctx, client, st, gaps, batch, existing, events)
			log.Info("All gaps filled")
		} else {
			log.Info("Batch verification passed, no gaps detected")
		}
	}

	log.Infof("New: +%s (total: %s)",
		humanize.Comma(int64(events-startEvents)), humanize.Comma(int64(events)))
	st.write(statusCompleted, latest, events, "scan complete")
	s.writeCheckpoint(latest, &events)
	return ctx.Err()
}

// indexLog decodes, enriches, and conditionally appends one log, growing
// the dedupe set on success. Returns the written row iff a new row was
// appended.
func (s *Scanner) indexLog(ctx context.Context, lg types.Log, existing map[string]struct{}) (*csvstore.Row, bool) {
	ev, err := s.decodeLiquidation(lg)
	if err != nil {
		log.WithError(err).WithField("block", lg.BlockNumber).Warn("Could not parse log")
		return nil, false
	}
	txKey := strings.ToLower(ev.TxHash.Hex())
	if _, dup := existing[txKey]; dup {
		log.WithFields(logrus.Fields{
			"tx":    shortHash(txKey),
			"block": ev.Block,
		}).Debug("Skipping duplicate transaction")
		return nil, false
	}
	row := s.buildRow(ctx, ev)
	ok, err := s.store.AppendIfNew(row)
	if err != nil {
		log.WithError(err).Error("Could not append row to master CSV")
		return nil, false
	}
	if !ok {
		log.WithField("tx", shortHash(txKey)).Debug("Skipped append, duplicate")
		return nil, false
	}
	if empty := emptyColumns(row.Record()); len(empty) > 0 {
		log.Warnf("[EMPTY] Block %d TX %s: %s", ev.Block, shortHash(txKey), strings.Join(empty, ", "))
	}
	existing[txKey] = struct{}{}
	eventsIndexedTotal.Inc()
	return row, true
}

// fillGaps re-runs the sweep over every hole between successfully scanned
// ranges. Fetch errors here only warn and advance: a hole that survives
// is picked up by the next validate pass.
func (s *Scanner) fillGaps(ctx context.Context, client *providers.ManagedClient, st *statusWriter, gaps []blockRange, batch uint64, existing map[string]struct{}, events int) int {
	for _, gap := range gaps {
		log.Infof("Filling gap: %s - %s (%s blocks)",
			humanize.Comma(int64(gap.from)), humanize.Comma(int64(gap.to)),
			humanize.Comma(int64(gap.to)-int64(gap.from)+1))
		cursor := gap.from
		for cursor <= gap.to {
			if ctx.Err() != nil {
				return events
			}
			to := cursor + batch - 1
			if to > gap.to {
				to = gap.to
			}
			logs, err := client.FilterLogs(ctx, s.filterQuery(cursor, to))
			if err != nil {
				log.WithError(err).Warnf("Gap scan error %d-%d", cursor, to)
			} else {
				if len(logs) > 0 {
					log.Infof("Gap %d-%d: %d events found", cursor, to, len(logs))
				}
				for _, lg := range logs {
					row, ok := s.indexLog(ctx, lg, existing)
					if !ok {
						continue
					}
					events++
					st.write(statusRunning, row.Block, events, "gap-filled event")
					log.WithFields(logging.LiquidationFields(row)).Infof("Gap filled: #%d", events)
				}
			}
			cursor = to + 1
		}
	}
	return events
}

// detectGaps finds holes between consecutive scanned ranges.
func detectGaps(ranges []blockRange) []blockRange {
	if len(ranges) < 2 {
		return nil
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].from < ranges[j].from })
	var gaps []blockRange
	for i := 1; i < len(ranges); i++ {
		prevEnd := ranges[i-1].to
		if ranges[i].from > prevEnd+1 {
			gaps = append(gaps, blockRange{prevEnd + 1, ranges[i].from - 1})
		}
	}
	return gaps
}

func (s *Scanner) filterQuery(from, to uint64) ethereum.FilterQuery {
	return ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: []common.Address{s.cfg.PoolContract},
		Topics:    [][]common.Hash{{s.topic}},
	}
}

// emptyColumns lists the canonical columns a record left blank.
func emptyColumns(rec []string) []string {
	var empty []string
	for i, name := range csvstore.FieldOrder {
		if i < len(rec) && strings.TrimSpace(rec[i]) == "" {
			empty = append(empty, name)
		}
	}
	return empty
}

// sleepCtx waits out d, returning false if the context ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
