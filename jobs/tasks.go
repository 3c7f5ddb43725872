// Package jobs wires background processing: audit events are enqueued
// on the request path and persisted by the worker.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/atelier-works/atelier/internal/audit"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeAuditEvent is the task type for persisting audit events.
	TaskTypeAuditEvent = "audit:event"
)

// NewAuditEventTask constructs an Asynq task from an audit event.
func NewAuditEventTask(ev audit.Event) (*asynq.Task, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeAuditEvent, data), nil
}

// NewAuditEventHandler builds the worker-side handler that writes
// audit events through the given writer.
func NewAuditEventHandler(writer audit.Writer, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var ev audit.Event
		if err := json.Unmarshal(t.Payload(), &ev); err != nil {
			// A payload that never parses will never parse; drop it.
			return asynq.SkipRetry
		}
		if err := writer.Write(ctx, ev); err != nil {
			if logger != nil {
				logger.Warn("write audit event", slog.Any("error", err))
			}
			return err
		}
		return nil
	}
}
