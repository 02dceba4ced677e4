//go:build integration

package store

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}

	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func TestIntegration_RunLifecycle(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	runID := uuid.New()
	if err := s.RecordRunStart(ctx, runID, "HADOOP", 100); err != nil {
		t.Fatalf("RecordRunStart failed: %v", err)
	}
	if err := s.FinishRun(ctx, runID, RunStatusCompleted, 150, 48, ""); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}

	var status string
	var endOffset, samples int
	err := s.pool.QueryRow(ctx,
		`SELECT status, end_offset, samples_written FROM scrape_runs WHERE id = $1`, runID,
	).Scan(&status, &endOffset, &samples)
	if err != nil {
		t.Fatalf("query run: %v", err)
	}
	if status != RunStatusCompleted || endOffset != 150 || samples != 48 {
		t.Errorf("run row = %s/%d/%d", status, endOffset, samples)
	}
}

func TestIntegration_HaltedRunKeepsError(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	runID := uuid.New()
	if err := s.RecordRunStart(ctx, runID, "SPARK", 0); err != nil {
		t.Fatalf("RecordRunStart failed: %v", err)
	}
	if err := s.FinishRun(ctx, runID, RunStatusHalted, 0, 0, "status 404: project does not exist"); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}

	var errMsg string
	if err := s.pool.QueryRow(ctx, `SELECT error FROM scrape_runs WHERE id = $1`, runID).Scan(&errMsg); err != nil {
		t.Fatalf("query run: %v", err)
	}
	if errMsg == "" {
		t.Error("halted run should retain its error message")
	}
}
