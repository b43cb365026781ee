package csvstore

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
	"github.com/observerlabs/aavewatch/config/params"
	"github.com/observerlabs/aavewatch/io/file"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "csvstore")

// Store mediates every read and write of the master CSV. Writers hold an
// exclusive advisory lock on a sidecar .lock file so the duplicate check
// and the append are one critical section even across processes; the lock
// lives beside the CSV rather than on it because rewrites replace the
// data file's inode.
type Store struct {
	path string
	lock *flock.Flock
}

// NewStore returns a store for the CSV at path.
func NewStore(path string) *Store {
	return &Store{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Path returns the CSV location.
func (s *Store) Path() string {
	return s.path
}

// Ensure creates the data directory and the CSV with its canonical header
// when the file is missing or empty.
func (s *Store) Ensure() error {
	if err := file.MkdirAll(filepath.Dir(s.path)); err != nil {
		return errors.Wrap(err, "could not create data directory")
	}
	if err := s.lock.Lock(); err != nil {
		return errors.Wrap(err, "could not lock master csv")
	}
	defer s.unlock()
	info, err := os.Stat(s.path)
	if err == nil && info.Size() > 0 {
		return nil
	}
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	log.WithField("path", s.path).Info("Creating master CSV")
	return s.writeAll(FieldOrder, nil)
}

// AppendIfNew appends the row unless its transaction hash is already
// present, holding the exclusive lock across the duplicate check and the
// append. Returns true iff the row was written. Rows without a
// transaction hash are always appended.
func (s *Store) AppendIfNew(row *Row) (bool, error) {
	if err := s.lock.Lock(); err != nil {
		return false, errors.Wrap(err, "could not lock master csv")
	}
	defer s.unlock()

	txVal := strings.ToLower(strings.TrimSpace(row.Tx))
	writeHeader := true
	if info, err := os.Stat(s.path); err == nil && info.Size() > 0 {
		writeHeader = false
		if txVal != "" {
			existing, err := s.readTxSet()
			if err != nil {
				return false, err
			}
			if _, dup := existing[txVal]; dup {
				return false, nil
			}
		}
	} else if err != nil && !os.IsNotExist(err) {
		return false, err
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, params.AavewatchIoConfig().ReadWritePermissions)
	if err != nil {
		return false, errors.Wrap(err, "could not open master csv for append")
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.WithError(err).Error("Could not close master CSV")
		}
	}()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(FieldOrder); err != nil {
			return false, err
		}
	}
	if err := w.Write(row.Record()); err != nil {
		return false, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return false, err
	}
	if err := f.Sync(); err != nil {
		return false, errors.Wrap(err, "could not fsync master csv")
	}
	return true, nil
}

// ReadRecords returns the header and the data records under a shared
// lock. A missing file yields a nil header and no error.
func (s *Store) ReadRecords() ([]string, [][]string, error) {
	if err := s.lock.RLock(); err != nil {
		return nil, nil, errors.Wrap(err, "could not lock master csv")
	}
	defer s.unlock()
	return s.read()
}

// OverwriteRecords atomically replaces the file's contents under the
// exclusive lock.
func (s *Store) OverwriteRecords(header []string, records [][]string) error {
	if err := s.lock.Lock(); err != nil {
		return errors.Wrap(err, "could not lock master csv")
	}
	defer s.unlock()
	return s.writeAll(header, records)
}

// ReconcileHeader rewrites the CSV in the canonical column order when the
// stored header differs, remapping rows by column name and filling absent
// columns with empty strings. No backup copies are kept. Returns true
// when a rewrite happened.
func (s *Store) ReconcileHeader() (bool, error) {
	if err := s.lock.Lock(); err != nil {
		return false, errors.Wrap(err, "could not lock master csv")
	}
	defer s.unlock()

	header, records, err := s.read()
	if err != nil {
		return false, err
	}
	if header == nil {
		return false, nil
	}
	if headersEqual(header, FieldOrder) {
		log.Debug("Master CSV header already canonical")
		return false, nil
	}

	idx := HeaderIndex(header)
	remapped := make([][]string, 0, len(records))
	for _, rec := range records {
		out := make([]string, len(FieldOrder))
		for i, name := range FieldOrder {
			out[i] = Field(rec, idx, name)
		}
		remapped = append(remapped, out)
	}
	if err := s.writeAll(FieldOrder, remapped); err != nil {
		return false, err
	}
	log.WithField("rows", len(remapped)).Info("Rewrote master CSV with canonical header")
	return true, nil
}

// Summary is a one-pass digest of the CSV driving resume and status
// decisions: the row count, the block extremes, and the dedupe set of
// lowercased transaction hashes.
type Summary struct {
	Rows     int
	MinBlock uint64
	MaxBlock uint64 // highest block below the validity limit
	HasMin   bool
	HasMax   bool
	Txs      map[string]struct{}
}

// Summarize reads the whole CSV once under a shared lock. Rows whose
// block column does not parse contribute to the count and tx set but not
// to the block extremes; blocks at or above maxValidBlock are treated as
// corrupt and excluded from MaxBlock so a bad row cannot push the resume
// point past the tip forever.
func (s *Store) Summarize(maxValidBlock uint64) (*Summary, error) {
	header, records, err := s.ReadRecords()
	if err != nil {
		return nil, err
	}
	sum := &Summary{
		Rows: len(records),
		Txs:  make(map[string]struct{}, len(records)),
	}
	idx := HeaderIndex(header)
	for _, rec := range records {
		if tx := strings.ToLower(strings.TrimSpace(Field(rec, idx, ColTx))); tx != "" {
			sum.Txs[tx] = struct{}{}
		}
		b, err := strconv.ParseUint(Field(rec, idx, ColBlock), 10, 64)
		if err != nil || b == 0 {
			continue
		}
		if !sum.HasMin || b < sum.MinBlock {
			sum.MinBlock = b
			sum.HasMin = true
		}
		if b < maxValidBlock && (!sum.HasMax || b > sum.MaxBlock) {
			sum.MaxBlock = b
			sum.HasMax = true
		}
	}
	return sum, nil
}

func (s *Store) readTxSet() (map[string]struct{}, error) {
	header, records, err := s.read()
	if err != nil {
		return nil, err
	}
	txs := make(map[string]struct{}, len(records))
	idx := HeaderIndex(header)
	for _, rec := range records {
		if tx := strings.ToLower(strings.TrimSpace(Field(rec, idx, ColTx))); tx != "" {
			txs[tx] = struct{}{}
		}
	}
	return txs, nil
}

// read loads the whole file; callers hold the lock. Ragged rows are
// tolerated the same way the header remap tolerates short records.
func (s *Store) read() ([]string, [][]string, error) {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, "could not open master csv")
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.WithError(err).Error("Could not close master CSV")
		}
	}()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	all, err := r.ReadAll()
	if err != nil {
		return nil, nil, errors.Wrap(err, "could not parse master csv")
	}
	if len(all) == 0 {
		return nil, nil, nil
	}
	return all[0], all[1:], nil
}

// writeAll renders the full file into memory and installs it with an
// atomic rename; callers hold the lock.
func (s *Store) writeAll(header []string, records [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, rec := range records {
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return file.WriteFileAtomic(s.path, buf.Bytes())
}

func (s *Store) unlock() {
	if err := s.lock.Unlock(); err != nil {
		log.WithError(err).Error("Could not release master CSV lock")
	}
}

func headersEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
