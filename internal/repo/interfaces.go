// Package repo declares the persistence interfaces the pipeline writes
// through. Implementations live in subpackages; a nil ledger disables
// recording entirely.
package repo

import (
	"context"
	"time"

	"github.com/geostage-labs/geostage-go/internal/domain"
)

// Ledger records staging runs and their per-artifact copy outcomes.
type Ledger interface {
	BeginRun(ctx context.Context, run domain.StagingRun) error
	RecordOutcome(ctx context.Context, runID string, outcome domain.CopyOutcome) error
	FinishRun(ctx context.Context, runID string, status string, finishedAt time.Time) error
}
