package domain

import "time"

// Run statuses recorded in the ledger.
const (
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

// StagingRun is the ledger record of one staging run.
type StagingRun struct {
	ID         string
	TargetDate time.Time
	AOIPath    string
	OutputBase string
	Remote     bool
	Status     string
	StartedAt  time.Time
	FinishedAt time.Time
}
