// Package ethdataset maintains the daily ETH/USD closing-price series
// used for return and volatility analysis alongside the liquidation CSV.
// Each row samples the Chainlink ETH/USD feed at the configured end-of-day
// instant: a binary search finds the last block at or before the sample
// time, the feed's round as of that block is read, and the block where
// that round landed is resolved the same way. Builds are incremental from
// the last date already in the CSV.
package ethdataset

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/observerlabs/aavewatch/config/params"
	"github.com/observerlabs/aavewatch/indexer/csvstore"
	"github.com/observerlabs/aavewatch/indexer/prices"
	"github.com/observerlabs/aavewatch/indexer/providers"
	"github.com/observerlabs/aavewatch/io/file"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "ethdataset")

// now feeds the series' end bound; a variable so tests can pin the day.
var now = time.Now

const dateLayout = "2006-01-02"

// datasetHeader is the column order of the daily CSV. Downstream analysis
// depends on names and positions; never reorder.
var datasetHeader = []string{
	"date_utc",
	"sample_time_utc",
	"round_id",
	"chainlink_updatedAt_utc",
	"update_block_number",
	"update_block_time_utc",
	"eth_price_usd",
}

// Builder assembles the daily series against the shared provider pool
// and the resolver's ETH feed path.
type Builder struct {
	cfg     *params.IndexerConfig
	pool    *providers.Pool
	prices  *prices.Resolver
	dataDir string

	sampleHour, sampleMin, sampleSec int
}

// New wires a dataset builder. dataDir holds the CSV and its status file.
func New(cfg *params.IndexerConfig, pool *providers.Pool, resolver *prices.Resolver, dataDir string) (*Builder, error) {
	clock, err := time.Parse("15:04:05", cfg.DatasetSampleTime)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid dataset sample time %q", cfg.DatasetSampleTime)
	}
	return &Builder{
		cfg:        cfg,
		pool:       pool,
		prices:     resolver,
		dataDir:    dataDir,
		sampleHour: clock.Hour(),
		sampleMin:  clock.Minute(),
		sampleSec:  clock.Second(),
	}, nil
}

func (b *Builder) csvPath() string {
	return filepath.Join(b.dataDir, b.cfg.EthDatasetName)
}

// BuildOnce runs one incremental build pass: extend the series from the
// day after the CSV's last date (or from the configured lookback before
// the first liquidation on a fresh start) through today, then rewrite the
// CSV atomically. Days whose price cannot be resolved are skipped with a
// warning; setup failures abort the pass and surface in the status file.
func (b *Builder) BuildOnce(ctx context.Context) (err error) {
	defer func() {
		if err != nil && ctx.Err() == nil {
			b.writeStatus(statusError, "", 0, "Error: "+truncate(err.Error(), 100))
		}
	}()

	client, err := b.pool.Sticky(ctx)
	if err != nil {
		return errors.Wrap(err, "no provider available")
	}
	if err := file.MkdirAll(b.dataDir); err != nil {
		return errors.Wrap(err, "could not create data directory")
	}

	firstTime, err := b.blockTime(ctx, client, b.cfg.FirstLiquidationBlock)
	if err != nil {
		return errors.Wrap(err, "could not read first liquidation block header")
	}
	first := time.Unix(int64(firstTime), 0).UTC()
	log.Infof("First liquidation block %s at %s",
		humanize.Comma(int64(b.cfg.FirstLiquidationBlock)), first.Format("2006-01-02 15:04:05 UTC"))

	start := midnightUTC(first.AddDate(0, 0, -b.cfg.DatasetLookbackDays))
	end := midnightUTC(now().UTC())

	existing, lastDate := b.readExisting()
	if lastDate != "" {
		if last, perr := time.Parse(dateLayout, lastDate); perr == nil {
			start = midnightUTC(last.AddDate(0, 0, 1))
			log.Infof("Incremental update: %s existing rows, last date %s",
				humanize.Comma(int64(len(existing))), lastDate)
		} else {
			log.WithError(perr).Warn("Could not parse last dataset date, rebuilding from scratch")
			existing = nil
		}
	}

	if start.After(end) {
		log.Infof("Dataset already up to date (last date %s)", lastDate)
		b.writeStatus(statusIdle, lastDate, 0, "Dataset is up to date")
		return nil
	}

	latest, err := client.BlockNumber(ctx)
	if err != nil {
		return errors.Wrap(err, "could not read chain tip")
	}
	searchLo := b.cfg.FirstLiquidationBlock - b.cfg.DatasetSearchSlack

	total := int(end.Sub(start).Hours()/24) + 1
	log.Infof("Dataset range: %s to %s (%d days)", start.Format(dateLayout), end.Format(dateLayout), total)
	b.writeStatus(statusRunning, start.Format(dateLayout), total, fmt.Sprintf("Scanning %d days", total))

	var added [][]string
	i := 0
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		i++
		if err := ctx.Err(); err != nil {
			return err
		}
		dateStr := day.Format(dateLayout)
		if i%b.cfg.DatasetStatusEveryDays == 1 || i == total {
			b.writeStatus(statusRunning, dateStr, total, fmt.Sprintf("Processing %d/%d days", i, total))
		}

		target := time.Date(day.Year(), day.Month(), day.Day(),
			b.sampleHour, b.sampleMin, b.sampleSec, 0, time.UTC).Unix()
		sample, serr := b.sampleDay(ctx, client, uint64(target), searchLo, latest)
		if serr != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.WithError(serr).Warnf("[%d/%d] %s: no price data, skipping day", i, total, dateStr)
			continue
		}
		added = append(added, []string{
			dateStr,
			b.cfg.DatasetSampleTime,
			sample.roundID.String(),
			csvstore.FormatEventTime(sample.updatedAt),
			strconv.FormatUint(sample.updateBlock, 10),
			csvstore.FormatEventTime(sample.updateTime),
			prices.FormatUSD(sample.price),
		})
		daysBuiltTotal.Inc()
		log.Infof("[%d/%d] %s: $%s (round %s)", i, total, dateStr, sample.price.FloatString(2), sample.roundID)
	}

	all := append(existing, added...)
	if len(all) == 0 {
		return errors.New("no dataset rows collected")
	}
	if err := b.writeDataset(all); err != nil {
		return errors.Wrap(err, "could not write dataset csv")
	}
	datasetRowsGauge.Set(float64(len(all)))

	lastWritten := all[len(all)-1][0]
	b.writeStatus(statusCompleted, lastWritten, len(all),
		fmt.Sprintf("Dataset updated successfully (%d records)", len(all)))
	log.Infof("Dataset updated: %d new observations (total %s)",
		len(added), humanize.Comma(int64(len(all))))
	return nil
}

// readExisting loads the current dataset rows and the last recorded date.
// A missing file, a foreign header, or an unreadable file all start the
// series from scratch.
func (b *Builder) readExisting() ([][]string, string) {
	f, err := os.Open(b.csvPath())
	if err != nil {
		if !os.IsNotExist(err) {
			log.WithError(err).Warn("Could not open dataset CSV, rebuilding from scratch")
		}
		return nil, ""
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			log.WithError(cerr).Debug("Could not close dataset CSV")
		}
	}()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		log.WithError(err).Warn("Could not parse dataset CSV, rebuilding from scratch")
		return nil, ""
	}
	if len(rows) < 2 {
		return nil, ""
	}
	if !headerMatches(rows[0]) {
		log.Warn("Dataset CSV header unexpected, rebuilding from scratch")
		return nil, ""
	}
	records := rows[1:]
	return records, records[len(records)-1][0]
}

func (b *Builder) writeDataset(records [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(datasetHeader); err != nil {
		return err
	}
	if err := w.WriteAll(records); err != nil {
		return err
	}
	return file.WriteFileAtomic(b.csvPath(), buf.Bytes())
}

func headerMatches(header []string) bool {
	if len(header) != len(datasetHeader) {
		return false
	}
	for i := range header {
		if header[i] != datasetHeader[i] {
			return false
		}
	}
	return true
}

func midnightUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
