package ethdataset

import (
	"encoding/json"
	"path/filepath"
	"time"

	"github.com/observerlabs/aavewatch/io/file"
)

// Build states surfaced through the dataset status file.
const (
	statusIdle      = "idle"
	statusRunning   = "running"
	statusCompleted = "completed"
	statusError     = "error"
)

// datasetStatus is the JSON projection dashboards poll for build
// progress.
type datasetStatus struct {
	Status         string `json:"status"`
	CurrentDate    string `json:"current_date"`
	TotalDays      int    `json:"total_days"`
	LastUpdated    int64  `json:"last_updated"`
	LastUpdatedUTC string `json:"last_updated_utc"`
	Message        string `json:"message"`
}

// writeStatus atomically replaces the status file. Best effort only;
// a failed status write never aborts a build.
func (b *Builder) writeStatus(status, currentDate string, totalDays int, message string) {
	now := time.Now()
	payload := datasetStatus{
		Status:         status,
		CurrentDate:    currentDate,
		TotalDays:      totalDays,
		LastUpdated:    now.Unix(),
		LastUpdatedUTC: now.UTC().Format("2006-01-02 15:04:05"),
		Message:        message,
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		log.WithError(err).Error("Could not encode dataset status")
		return
	}
	path := filepath.Join(b.dataDir, b.cfg.EthDatasetStatusName)
	if err := file.WriteFileAtomic(path, data); err != nil {
		log.WithError(err).Error("Could not write dataset status")
	}
}
