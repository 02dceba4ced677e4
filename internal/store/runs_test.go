package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

// The runner carries a nil *Store when no database is configured; every
// method must tolerate that.
func TestNilStoreIsNoOp(t *testing.T) {
	var s *Store
	ctx := context.Background()

	if err := s.RecordRunStart(ctx, uuid.New(), "X", 0); err != nil {
		t.Errorf("nil RecordRunStart = %v", err)
	}
	if err := s.FinishRun(ctx, uuid.New(), RunStatusCompleted, 0, 0, ""); err != nil {
		t.Errorf("nil FinishRun = %v", err)
	}
	s.Close()
}
