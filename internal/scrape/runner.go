// Package scrape drives the fetch, transform, persist loop for each
// configured project. Projects are processed sequentially; one project's
// fatal failure halts that project only and the run moves on.
package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/quarry/internal/corpus"
	"github.com/MikeSquared-Agency/quarry/internal/events"
	"github.com/MikeSquared-Agency/quarry/internal/jira"
	"github.com/MikeSquared-Agency/quarry/internal/slack"
	"github.com/MikeSquared-Agency/quarry/internal/state"
	"github.com/MikeSquared-Agency/quarry/internal/store"
	"github.com/MikeSquared-Agency/quarry/internal/transform"
)

// Searcher is the fetch client the runner drives. Satisfied by *jira.Client.
type Searcher interface {
	SearchIssues(ctx context.Context, project string, startAt, maxResults int) (*jira.SearchResult, error)
}

// Config holds the runner configuration.
type Config struct {
	Projects   []string
	DataDir    string        // corpus and state files live here
	PageSize   int           // records per fetch (default 50)
	BatchDelay time.Duration // courtesy pause between batches (default 500ms)
}

// Status values for a project's progress.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusHalted    = "halted"
)

// Progress is a point-in-time view of one project's scrape, exposed through
// the status API.
type Progress struct {
	RunID          string `json:"run_id"`
	Project        string `json:"project"`
	Status         string `json:"status"`
	Offset         int    `json:"offset"`
	Total          int    `json:"total"`
	SamplesWritten int    `json:"samples_written"`
	Skipped        int    `json:"skipped"`
	Error          string `json:"error,omitempty"`
}

// Runner orchestrates the scrape across all configured projects.
type Runner struct {
	cfg      Config
	searcher Searcher
	state    *state.Store
	events   *events.Publisher
	ledger   *store.Store
	slack    *slack.Poster
	logger   *slog.Logger

	mu       sync.RWMutex
	progress map[string]*Progress
}

// NewRunner wires the orchestrator. events, ledger and slack may be nil.
func NewRunner(cfg Config, searcher Searcher, st *state.Store, pub *events.Publisher, ledger *store.Store, poster *slack.Poster, logger *slog.Logger) *Runner {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 50
	}
	if cfg.BatchDelay <= 0 {
		cfg.BatchDelay = 500 * time.Millisecond
	}

	progress := make(map[string]*Progress, len(cfg.Projects))
	for _, p := range cfg.Projects {
		progress[p] = &Progress{Project: p, Status: StatusPending}
	}

	return &Runner{
		cfg:      cfg,
		searcher: searcher,
		state:    st,
		events:   pub,
		ledger:   ledger,
		slack:    poster,
		logger:   logger,
		progress: progress,
	}
}

// Run scrapes every configured project in order. A halted project is logged
// and skipped, never a whole-run failure; only context cancellation stops the
// run early.
func (r *Runner) Run(ctx context.Context) error {
	for _, project := range r.cfg.Projects {
		if err := ctx.Err(); err != nil {
			return err
		}

		r.logger.Info("starting project scrape", "project", project)
		r.scrapeProject(ctx, project)
	}

	r.postSummary(ctx)
	return ctx.Err()
}

// Progress returns a snapshot of every project's progress in configured order.
func (r *Runner) Progress() []Progress {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Progress, 0, len(r.cfg.Projects))
	for _, p := range r.cfg.Projects {
		out = append(out, *r.progress[p])
	}
	return out
}

func (r *Runner) updateProgress(project string, fn func(*Progress)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.progress[project])
}

// scrapeProject runs the per-project state machine: resume, then fetch,
// transform, persist batches until the source is exhausted or a fatal error
// halts it. The offset is advanced and persisted only after a batch is
// durably written, so a halted or interrupted run resumes cleanly.
func (r *Runner) scrapeProject(ctx context.Context, project string) {
	runID := uuid.New()
	startAt := r.state.Load(project)

	r.updateProgress(project, func(p *Progress) {
		p.RunID = runID.String()
		p.Status = StatusRunning
		p.Offset = startAt
	})

	if err := r.ledger.RecordRunStart(ctx, runID, project, startAt); err != nil {
		r.logger.Warn("failed to record run start", "project", project, "error", err)
	}

	writer, err := corpus.Open(r.cfg.DataDir, project)
	if err != nil {
		r.halt(ctx, runID, project, startAt, fmt.Errorf("open corpus: %w", err))
		return
	}
	defer writer.Close()

	r.logger.Info("resuming scrape", "project", project, "run_id", runID, "start_at", startAt)

	samplesWritten := 0
	for {
		page, err := r.searcher.SearchIssues(ctx, project, startAt, r.cfg.PageSize)
		if err != nil {
			r.halt(ctx, runID, project, startAt, err)
			return
		}

		if len(page.Issues) == 0 {
			r.logger.Info("no more issues", "project", project, "start_at", startAt)
			break
		}

		samples, skipped := r.transformBatch(project, page.Issues)

		if err := writer.AppendAll(samples); err != nil {
			r.halt(ctx, runID, project, startAt, fmt.Errorf("append corpus: %w", err))
			return
		}

		// The offset advances by the raw fetch count, not the sample count:
		// records the transformer rejected are skipped for good rather than
		// re-fetched forever.
		fetched := len(page.Issues)
		startAt += fetched
		if err := r.state.Save(project, startAt); err != nil {
			r.halt(ctx, runID, project, startAt-fetched, fmt.Errorf("save state: %w", err))
			return
		}

		samplesWritten += len(samples)
		r.updateProgress(project, func(p *Progress) {
			p.Offset = startAt
			p.Total = page.Total
			p.SamplesWritten = samplesWritten
			p.Skipped += skipped
		})

		if err := r.events.Publish(events.SubjectBatch, events.BatchEvent{
			RunID:          runID.String(),
			Project:        project,
			StartAt:        startAt - fetched,
			Fetched:        fetched,
			SamplesWritten: len(samples),
			NextOffset:     startAt,
		}); err != nil {
			r.logger.Warn("failed to publish batch event", "project", project, "error", err)
		}

		r.logger.Info("batch persisted",
			"project", project,
			"from", startAt-fetched,
			"to", startAt,
			"samples", len(samples),
			"skipped", skipped,
			"total", page.Total,
		)

		if page.Total > 0 && startAt >= page.Total {
			r.logger.Info("all issues scraped", "project", project, "total", page.Total)
			break
		}

		// Courtesy pause before hitting the API again.
		select {
		case <-ctx.Done():
			r.logger.Info("scrape interrupted", "project", project, "offset", startAt)
			r.updateProgress(project, func(p *Progress) { p.Status = StatusHalted; p.Error = ctx.Err().Error() })
			return
		case <-time.After(r.cfg.BatchDelay):
		}
	}

	r.updateProgress(project, func(p *Progress) { p.Status = StatusCompleted })

	if err := r.ledger.FinishRun(ctx, runID, store.RunStatusCompleted, startAt, samplesWritten, ""); err != nil {
		r.logger.Warn("failed to record run completion", "project", project, "error", err)
	}
	if err := r.events.Publish(events.SubjectCompleted, events.RunEvent{
		RunID:   runID.String(),
		Project: project,
		Offset:  startAt,
		Samples: samplesWritten,
	}); err != nil {
		r.logger.Warn("failed to publish completion event", "project", project, "error", err)
	}

	r.logger.Info("project scrape complete", "project", project, "offset", startAt, "samples", samplesWritten)
}

// transformBatch runs every fetched record through the transformer. A record
// that fails transformation is dropped with a diagnostic; it never halts the
// batch. Order is preserved.
func (r *Runner) transformBatch(project string, issues []jira.RawIssue) ([]*transform.Sample, int) {
	samples := make([]*transform.Sample, 0, len(issues))
	skipped := 0
	for _, raw := range issues {
		sample, err := transform.Transform(raw)
		if err != nil {
			r.logger.Warn("dropping record", "project", project, "error", err)
			skipped++
			continue
		}
		samples = append(samples, sample)
	}
	return samples, skipped
}

// halt stops one project's loop on a fatal error. The last persisted offset
// is left untouched so the next run resumes at the failed batch.
func (r *Runner) halt(ctx context.Context, runID uuid.UUID, project string, offset int, cause error) {
	r.logger.Error("project scrape halted", "project", project, "offset", offset, "error", cause)

	var samples int
	r.updateProgress(project, func(p *Progress) {
		p.Status = StatusHalted
		p.Error = cause.Error()
		samples = p.SamplesWritten
	})

	if err := r.ledger.FinishRun(ctx, runID, store.RunStatusHalted, offset, samples, cause.Error()); err != nil {
		r.logger.Warn("failed to record halted run", "project", project, "error", err)
	}
	if err := r.events.Publish(events.SubjectHalted, events.RunEvent{
		RunID:   runID.String(),
		Project: project,
		Offset:  offset,
		Samples: samples,
		Error:   cause.Error(),
	}); err != nil {
		r.logger.Warn("failed to publish halt event", "project", project, "error", err)
	}
}

// postSummary reports the per-project outcome to Slack when configured, or
// to the log otherwise.
func (r *Runner) postSummary(ctx context.Context) {
	text := r.formatSummary()

	if r.slack == nil {
		r.logger.Info("scrape summary", "summary", text)
		return
	}
	if err := r.slack.PostSummary(ctx, text); err != nil {
		r.logger.Warn("failed to post summary to slack, logging instead", "error", err, "summary", text)
	}
}

func (r *Runner) formatSummary() string {
	var sb strings.Builder
	sb.WriteString("*Corpus Scrape Summary*\n")
	for _, p := range r.Progress() {
		fmt.Fprintf(&sb, "- %s: %s, offset %d/%d, %d samples, %d skipped", p.Project, p.Status, p.Offset, p.Total, p.SamplesWritten, p.Skipped)
		if p.Error != "" {
			fmt.Fprintf(&sb, " (%s)", p.Error)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
