package scanner

import (
	"encoding/json"
	"path/filepath"
	"time"

	"github.com/observerlabs/aavewatch/io/file"
)

// checkpoint records where a pass stopped. It is written opportunistically
// on idle and completed passes but never read back: resume decisions come
// from the CSV alone, so a stale or corrupt checkpoint can do no harm.
type checkpoint struct {
	LastScannedBlock uint64 `json:"last_scanned_block"`
	EventsFound      *int   `json:"events_found,omitempty"`
	Ts               int64  `json:"ts"`
}

// writeCheckpoint persists the checkpoint file. Best effort only; idle
// passes write quietly so the 60s cadence does not flood the log.
func (s *Scanner) writeCheckpoint(lastScanned uint64, events *int) {
	path := filepath.Join(s.dataDir, s.cfg.CheckpointName)
	data, err := json.Marshal(checkpoint{
		LastScannedBlock: lastScanned,
		EventsFound:      events,
		Ts:               time.Now().Unix(),
	})
	if err != nil {
		log.WithError(err).Debug("Could not encode scanner checkpoint")
		return
	}
	if err := file.WriteFileAtomic(path, data); err != nil {
		log.WithError(err).Debug("Could not write scanner checkpoint")
		return
	}
	if events != nil {
		log.WithField("path", path).Info("Scanner checkpoint written")
	}
}
