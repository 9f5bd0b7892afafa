package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/geostage-labs/geostage-go/internal/domain"
)

// DB is the subset of *sql.DB the stores need.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// LedgerStore persists staging runs and copy outcomes.
type LedgerStore struct {
	db DB
}

func NewLedgerStore(db DB) *LedgerStore {
	if db == nil {
		return nil
	}
	return &LedgerStore{db: db}
}

func (s *LedgerStore) BeginRun(ctx context.Context, run domain.StagingRun) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("ledger store not initialized")
	}
	if strings.TrimSpace(run.ID) == "" {
		return fmt.Errorf("run id is required")
	}
	startedAt := run.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}
	status := run.Status
	if status == "" {
		status = domain.RunStatusRunning
	}
	if err := validStatus(status); err != nil {
		return err
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO staging_runs (
			run_id,
			target_date,
			aoi_path,
			output_base,
			remote,
			status,
			started_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		strings.TrimSpace(run.ID),
		run.TargetDate.Format("2006-01-02"),
		run.AOIPath,
		run.OutputBase,
		run.Remote,
		status,
		startedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert staging run: %w", err)
	}
	return nil
}

func (s *LedgerStore) RecordOutcome(ctx context.Context, runID string, outcome domain.CopyOutcome) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("ledger store not initialized")
	}
	if strings.TrimSpace(runID) == "" {
		return fmt.Errorf("run id is required")
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO staged_artifacts (
			run_id,
			tier,
			dataset,
			source,
			dest,
			status,
			detail,
			recorded_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		strings.TrimSpace(runID),
		outcome.Tier.String(),
		outcome.Dataset,
		outcome.Source,
		outcome.Dest,
		string(outcome.Status),
		outcome.Detail,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert staged artifact: %w", err)
	}
	return nil
}

func (s *LedgerStore) FinishRun(ctx context.Context, runID string, status string, finishedAt time.Time) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("ledger store not initialized")
	}
	if strings.TrimSpace(runID) == "" {
		return fmt.Errorf("run id is required")
	}
	if err := validStatus(status); err != nil {
		return err
	}
	if finishedAt.IsZero() {
		finishedAt = time.Now()
	}
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE staging_runs SET status = $2, finished_at = $3 WHERE run_id = $1`,
		strings.TrimSpace(runID),
		status,
		finishedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("update staging run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("staging run not found: %s", runID)
	}
	return nil
}

func validStatus(status string) error {
	switch status {
	case domain.RunStatusRunning, domain.RunStatusSucceeded, domain.RunStatusFailed:
		return nil
	}
	return fmt.Errorf("invalid run status %q", status)
}
