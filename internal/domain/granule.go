package domain

import "time"

// Granule is one source file together with the acquisition date its
// filename encodes. Granules are transient: the locator constructs them
// per call and they are discarded after filtering and copying.
type Granule struct {
	Path string
	Date time.Time
}

// CopyStatus classifies the outcome of staging one artifact.
type CopyStatus string

const (
	CopySuccess        CopyStatus = "success"
	CopySkippedMissing CopyStatus = "skipped-missing"
	CopyFailed         CopyStatus = "failed"
)

// CopyOutcome is the per-artifact result the orchestrator records and
// uses to decide warn-vs-abort.
type CopyOutcome struct {
	Tier    Tier
	Dataset string
	Source  string
	Dest    string
	Status  CopyStatus
	Detail  string
}
