package scanner

import (
	"encoding/json"
	"path/filepath"
	"time"

	"github.com/observerlabs/aavewatch/io/file"
)

// Scan states surfaced through the status file.
const (
	statusIdle      = "idle"
	statusRunning   = "running"
	statusCompleted = "completed"
	statusWaiting   = "waiting"
	statusError     = "error"
)

// scanStatus is the JSON projection dashboards poll. It is derived, never
// authoritative: from_block and events_found are recomputed from the CSV
// at pass start so the file cannot drift from reality.
type scanStatus struct {
	Status       string `json:"status"`
	FromBlock    uint64 `json:"from_block"`
	ToBlock      uint64 `json:"to_block"`
	CurrentBlock uint64 `json:"current_block"`
	EventsFound  int    `json:"events_found"`
	LastUpdated  int64  `json:"last_updated"`
	Message      string `json:"message"`
}

// statusWriter pins the pass-wide range so every status write within one
// pass reports the same from/to view.
type statusWriter struct {
	path      string
	fromBlock uint64
	toBlock   uint64
}

func (s *Scanner) newStatusWriter(fromBlock, toBlock uint64) *statusWriter {
	return &statusWriter{
		path:      filepath.Join(s.dataDir, s.cfg.ScanStatusName),
		fromBlock: fromBlock,
		toBlock:   toBlock,
	}
}

// write atomically replaces the status file. Status writes are best
// effort and never abort a scan.
func (w *statusWriter) write(status string, currentBlock uint64, events int, message string) {
	payload := scanStatus{
		Status:       status,
		FromBlock:    w.fromBlock,
		ToBlock:      w.toBlock,
		CurrentBlock: currentBlock,
		EventsFound:  events,
		LastUpdated:  time.Now().Unix(),
		Message:      message,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		log.WithError(err).Error("Could not encode scan status")
		return
	}
	if err := file.WriteFileAtomic(w.path, data); err != nil {
		log.WithError(err).Error("Could not write scan status")
	}
}
