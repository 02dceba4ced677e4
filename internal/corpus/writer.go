// Package corpus writes training samples as newline-delimited JSON, one file
// per project, in append mode so successive runs extend the same corpus.
package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/MikeSquared-Agency/quarry/internal/transform"
)

// Writer appends samples to one project's corpus file.
type Writer struct {
	file *os.File
}

// Open opens (creating if needed) {project}_corpus.jsonl under dir for
// appending.
func Open(dir, project string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir corpus dir: %w", err)
	}

	path := filepath.Join(dir, project+"_corpus.jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open corpus file: %w", err)
	}
	return &Writer{file: f}, nil
}

// AppendAll writes each sample as one JSON line and syncs before returning,
// so the caller can safely advance its resume offset afterwards.
func (w *Writer) AppendAll(samples []*transform.Sample) error {
	for _, s := range samples {
		line, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("marshal sample %s: %w", s.IssueKey, err)
		}
		line = append(line, '\n')
		if _, err := w.file.Write(line); err != nil {
			return fmt.Errorf("write sample %s: %w", s.IssueKey, err)
		}
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("sync corpus file: %w", err)
	}
	return nil
}

func (w *Writer) Close() error {
	return w.file.Close()
}
