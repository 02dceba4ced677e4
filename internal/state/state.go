// Package state persists the resume offset for each project so an
// interrupted run restarts at the last successfully committed batch.
package state

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// resumeState is the on-disk shape: the next unfetched offset.
type resumeState struct {
	StartAt int `json:"startAt"`
}

// Store reads and writes one {project}_state.json file per project.
type Store struct {
	dir    string
	logger *slog.Logger
}

func NewStore(dir string, logger *slog.Logger) *Store {
	return &Store{dir: dir, logger: logger}
}

func (s *Store) path(project string) string {
	return filepath.Join(s.dir, project+"_state.json")
}

// Load returns the resume offset for a project. A missing or unreadable
// state file means "start from the beginning": corruption is logged as a
// warning, not treated as fatal, at the cost of re-fetching records that
// were already scraped.
func (s *Store) Load(project string) int {
	p := s.path(project)

	data, err := os.ReadFile(p)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("state file unreadable, starting from 0", "path", p, "error", err)
		}
		return 0
	}

	var st resumeState
	if err := json.Unmarshal(data, &st); err != nil {
		s.logger.Warn("state file corrupt, starting from 0", "path", p, "error", err)
		return 0
	}
	return st.StartAt
}

// Save writes the next offset to process. The write goes through a temp file
// plus rename so a crash mid-write leaves the previous state intact. Failures
// propagate: silently losing the offset would duplicate or skip work.
func (s *Store) Save(project string, startAt int) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("mkdir state dir: %w", err)
	}

	data, err := json.Marshal(resumeState{StartAt: startAt})
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	p := s.path(project)
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}
