package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerIntegrity is the nightly trial balance scan across tenants.
	TaskLedgerIntegrity = "ledger:integrity"
	// TaskCascadeRecalc rebuilds a quarry's daily chain from a start date.
	TaskCascadeRecalc = "ledger:cascade"
)

// CascadePayload identifies which chain to rebuild and from when.
type CascadePayload struct {
	QuarryID int64  `json:"quarry_id"`
	From     string `json:"from"` // YYYY-MM-DD
}

// FromDate parses the payload date.
func (p CascadePayload) FromDate() (time.Time, error) {
	return time.Parse("2006-01-02", p.From)
}

// NewCascadeTask constructs the cascade task.
func NewCascadeTask(quarryID int64, from time.Time) (*asynq.Task, error) {
	data, err := json.Marshal(CascadePayload{QuarryID: quarryID, From: from.Format("2006-01-02")})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCascadeRecalc, data), nil
}

// NewLedgerIntegrityTask constructs the integrity scan task.
func NewLedgerIntegrityTask() *asynq.Task {
	return asynq.NewTask(TaskLedgerIntegrity, nil)
}
