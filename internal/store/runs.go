package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Run statuses in the scrape_runs table.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusHalted    = "halted"
)

// RecordRunStart inserts a scrape_runs row for one project run.
// Table: scrape_runs(id, project, status, start_offset, end_offset,
// samples_written, error, started_at, finished_at).
func (s *Store) RecordRunStart(ctx context.Context, runID uuid.UUID, project string, startOffset int) error {
	if s == nil {
		return nil
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO scrape_runs (id, project, status, start_offset, started_at)
		VALUES ($1, $2, $3, $4, now())`,
		runID, project, RunStatusRunning, startOffset,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun records the outcome of a project run. errMsg is empty for
// completed runs.
func (s *Store) FinishRun(ctx context.Context, runID uuid.UUID, status string, endOffset, samplesWritten int, errMsg string) error {
	if s == nil {
		return nil
	}
	_, err := s.pool.Exec(ctx, `
		UPDATE scrape_runs
		SET status = $1, end_offset = $2, samples_written = $3, error = $4, finished_at = now()
		WHERE id = $5`,
		status, endOffset, samplesWritten, errMsg, runID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return nil
}
