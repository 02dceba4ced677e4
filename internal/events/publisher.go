// Package events publishes scrape progress over NATS so downstream corpus
// consumers can react to new batches without polling output files. The
// publisher is optional: a nil *Publisher is safe to call and does nothing.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	SubjectBatch     = "quarry.scrape.batch"
	SubjectCompleted = "quarry.scrape.completed"
	SubjectHalted    = "quarry.scrape.halted"
)

// BatchEvent is emitted after each successfully persisted batch.
type BatchEvent struct {
	RunID          string `json:"run_id"`
	Project        string `json:"project"`
	StartAt        int    `json:"start_at"`
	Fetched        int    `json:"fetched"`
	SamplesWritten int    `json:"samples_written"`
	NextOffset     int    `json:"next_offset"`
}

// RunEvent is emitted when a project's run completes or halts.
type RunEvent struct {
	RunID   string `json:"run_id"`
	Project string `json:"project"`
	Offset  int    `json:"offset"`
	Samples int    `json:"samples"`
	Error   string `json:"error,omitempty"`
}

type Publisher struct {
	conn   *nats.Conn
	logger *slog.Logger
}

func NewPublisher(url, token string, logger *slog.Logger) (*Publisher, error) {
	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Publisher{conn: nc, logger: logger}, nil
}

// Publish JSON-encodes data onto subject. Nil receivers are no-ops so callers
// do not need to care whether events are configured.
func (p *Publisher) Publish(subject string, data any) error {
	if p == nil {
		return nil
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return p.conn.Publish(subject, payload)
}

func (p *Publisher) Close() {
	if p == nil {
		return
	}
	p.conn.Close()
}
