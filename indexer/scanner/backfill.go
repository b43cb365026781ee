package scanner

import (
	"context"
	"encoding/json"
	"math"
	"math/big"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ethereum/go-ethereum/common"
	"github.com/observerlabs/aavewatch/indexer/csvstore"
	"github.com/observerlabs/aavewatch/indexer/prices"
	"github.com/observerlabs/aavewatch/io/file"
	"github.com/pkg/errors"
)

// Mismatch warnings in the numeric sweep are capped so a badly skewed
// CSV cannot flood the log. All mismatches still land in the report.
const maxMismatchWarnings = 50

type reportIssue struct {
	Type  string            `json:"type"`
	Index int               `json:"index"`
	Error string            `json:"error"`
	Row   map[string]string `json:"row"`
}

type validationReport struct {
	Timestamp    int64         `json:"timestamp"`
	FixedCount   int           `json:"fixed_count"`
	StillMissing int           `json:"still_missing"`
	Issues       []reportIssue `json:"issues"`
}

// BackfillMissingPrices sweeps the master CSV for rows whose collateral,
// debt, or ETH price column is empty or zero, re-resolves each at the
// row's block, recomputes the USD values where the amounts allow it, and
// rewrites the file atomically. A numeric re-verification of every
// stored USD value follows, and both sweeps feed the validation report
// written next to the CSV.
func (s *Scanner) BackfillMissingPrices(ctx context.Context) error {
	if _, err := s.store.ReconcileHeader(); err != nil {
		return errors.Wrap(err, "could not reconcile master csv header")
	}
	header, records, err := s.store.ReadRecords()
	if err != nil {
		return errors.Wrap(err, "could not read master csv")
	}
	if header == nil {
		log.WithField("path", s.store.Path()).Error("Master CSV not found")
		return nil
	}
	idx := csvstore.HeaderIndex(header)
	log.Infof("%s rows loaded", humanize.Comma(int64(len(records))))

	var missing []int
	for i, rec := range records {
		if priceMissing(csvstore.Field(rec, idx, csvstore.ColCollateralPrice)) ||
			priceMissing(csvstore.Field(rec, idx, csvstore.ColDebtPrice)) ||
			priceMissing(csvstore.Field(rec, idx, csvstore.ColEthPrice)) {
			missing = append(missing, i)
		}
	}
	if len(missing) == 0 {
		log.Info("No missing prices")
		return nil
	}
	log.Infof("%d rows with missing prices found", len(missing))

	fixed := 0
	stillMissing := 0
	issues := []reportIssue{}

	for n, i := range missing {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec := records[i]
		colSym := csvstore.Field(rec, idx, csvstore.ColCollateralSymbol)
		debtSym := csvstore.Field(rec, idx, csvstore.ColDebtSymbol)

		block, perr := strconv.ParseUint(strings.TrimSpace(csvstore.Field(rec, idx, csvstore.ColBlock)), 10, 64)
		if perr != nil {
			log.WithError(perr).Warnf("Row %d has a missing or invalid block field", i)
			issues = append(issues, reportIssue{
				Type:  "missing_block",
				Index: i,
				Error: perr.Error(),
				Row:   rowSample(rec, idx),
			})
			stillMissing++
			continue
		}

		fixedRow := false
		if priceMissing(csvstore.Field(rec, idx, csvstore.ColCollateralPrice)) {
			asset := common.HexToAddress(csvstore.Field(rec, idx, csvstore.ColCollateralAsset))
			if price, ok := s.prices.PriceUSD(ctx, colSym, asset, block); ok {
				setField(rec, idx, csvstore.ColCollateralPrice, prices.FormatUSD(price))
				if amt, parsed := parseRat(csvstore.Field(rec, idx, csvstore.ColCollateralOut)); parsed && amt.Sign() > 0 {
					setField(rec, idx, csvstore.ColCollateralValue, csvstore.FormatValue(amt, price))
				}
				fixedRow = true
			}
		}
		if priceMissing(csvstore.Field(rec, idx, csvstore.ColDebtPrice)) {
			asset := common.HexToAddress(csvstore.Field(rec, idx, csvstore.ColDebtAsset))
			if price, ok := s.prices.PriceUSD(ctx, debtSym, asset, block); ok {
				setField(rec, idx, csvstore.ColDebtPrice, prices.FormatUSD(price))
				if amt, parsed := parseRat(csvstore.Field(rec, idx, csvstore.ColDebtToCover)); parsed && amt.Sign() > 0 {
					setField(rec, idx, csvstore.ColDebtValue, csvstore.FormatValue(amt, price))
				}
				fixedRow = true
			}
		}
		if priceMissing(csvstore.Field(rec, idx, csvstore.ColEthPrice)) {
			if price, ok := s.prices.EthPriceUSD(ctx, block); ok {
				setField(rec, idx, csvstore.ColEthPrice, prices.FormatUSD(price))
				fixedRow = true
			}
		}

		if fixedRow {
			fixed++
			log.Infof("[%d/%d] Block %d: %s/%s, fixed", n+1, len(missing), block, colSym, debtSym)
		} else {
			stillMissing++
			log.Warnf("[%d/%d] Block %d: %s/%s, still missing", n+1, len(missing), block, colSym, debtSym)
		}
	}

	issues = append(issues, s.verifyStoredValues(records, idx)...)

	log.Infof("Writing %s rows back", humanize.Comma(int64(len(records))))
	if err := s.store.OverwriteRecords(header, records); err != nil {
		return errors.Wrap(err, "could not rewrite master csv")
	}

	report := validationReport{
		Timestamp:    time.Now().Unix(),
		FixedCount:   fixed,
		StillMissing: stillMissing,
		Issues:       issues,
	}
	buf, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return errors.Wrap(err, "could not marshal validation report")
	}
	reportPath := filepath.Join(s.dataDir, s.cfg.ValidationReportName)
	if err := file.WriteFileAtomic(reportPath, buf); err != nil {
		return errors.Wrap(err, "could not write validation report")
	}
	log.WithField("path", reportPath).Info("Validation report written")
	log.Infof("Backfill complete: %d fixed, %d still missing", fixed, stillMissing)
	return nil
}

// verifyStoredValues recomputes every stored USD value from the row's
// own amount and price columns and reports rows whose stored value
// drifts beyond both the absolute and the relative tolerance.
func (s *Scanner) verifyStoredValues(records [][]string, idx map[string]int) []reportIssue {
	var issues []reportIssue
	mismatches := 0
	for i, rec := range records {
		var reasons []string
		checkValueColumn(rec, idx, csvstore.ColCollateralOut, csvstore.ColCollateralPrice, csvstore.ColCollateralValue,
			"collateral_value", s.cfg.ValueToleranceAbs, s.cfg.ValueTolerancePct, &reasons)
		checkValueColumn(rec, idx, csvstore.ColDebtToCover, csvstore.ColDebtPrice, csvstore.ColDebtValue,
			"debt_value", s.cfg.ValueToleranceAbs, s.cfg.ValueTolerancePct, &reasons)
		if len(reasons) == 0 {
			continue
		}
		mismatches++
		if mismatches <= maxMismatchWarnings {
			log.Warnf("Row %d block %s tx %s: %s", i,
				csvstore.Field(rec, idx, csvstore.ColBlock),
				shortHash(csvstore.Field(rec, idx, csvstore.ColTx)),
				strings.Join(reasons, "; "))
		}
		issues = append(issues, reportIssue{
			Type:  "value_mismatch",
			Index: i,
			Error: strings.Join(reasons, "; "),
			Row:   rowSample(rec, idx),
		})
	}
	log.Infof("Rows checked: %d, mismatches found: %d", len(records), mismatches)
	return issues
}

// checkValueColumn appends a reason when the stored value and the value
// recomputed from amount*price disagree beyond tolerance, or when a
// computable value is missing entirely.
func checkValueColumn(rec []string, idx map[string]int, amountCol, priceCol, valueCol, label string, tolAbs, tolPct float64, reasons *[]string) {
	price, ok := parseFloat(csvstore.Field(rec, idx, priceCol))
	if !ok {
		return
	}
	amount, ok := parseFloat(csvstore.Field(rec, idx, amountCol))
	if !ok {
		amount = 0
	}
	expected := math.Round(amount*price*100) / 100
	stored, hasStored := parseFloat(csvstore.Field(rec, idx, valueCol))
	if !hasStored {
		*reasons = append(*reasons, label+" missing: expected="+strconv.FormatFloat(expected, 'f', 2, 64))
		return
	}
	diff := math.Abs(expected - stored)
	pct := 0.0
	if expected != 0 {
		pct = diff / expected
	}
	if diff > tolAbs && pct > tolPct {
		*reasons = append(*reasons, label+" mismatch: stored="+strconv.FormatFloat(stored, 'f', 2, 64)+
			" expected="+strconv.FormatFloat(expected, 'f', 2, 64))
	}
}

// priceMissing reports whether a stored price column is absent, zero, or
// unparseable. Unparseable values count as missing so the repair pass
// overwrites them with a freshly resolved price.
func priceMissing(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return true
	}
	f, err := strconv.ParseFloat(v, 64)
	return err != nil || f == 0
}

func parseRat(v string) (*big.Rat, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, false
	}
	r, ok := new(big.Rat).SetString(v)
	if !ok {
		return nil, false
	}
	return r, true
}

func parseFloat(v string) (float64, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func setField(rec []string, idx map[string]int, name, v string) {
	if j, ok := idx[name]; ok && j < len(rec) {
		rec[j] = v
	}
}

func rowSample(rec []string, idx map[string]int) map[string]string {
	return map[string]string{
		"block":           csvstore.Field(rec, idx, csvstore.ColBlock),
		"tx":              csvstore.Field(rec, idx, csvstore.ColTx),
		"user":            csvstore.Field(rec, idx, csvstore.ColUser),
		"collateralAsset": csvstore.Field(rec, idx, csvstore.ColCollateralAsset),
		"debtAsset":       csvstore.Field(rec, idx, csvstore.ColDebtAsset),
	}
}
