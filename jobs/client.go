package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/atelier-works/atelier/internal/audit"
)

// Client submits jobs to the queue. It implements the request gate's
// audit sink: enqueue failures are logged and dropped rather than
// failing the request.
type Client struct {
	client *asynq.Client
	logger *slog.Logger
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt, logger *slog.Logger) *Client {
	return &Client{client: asynq.NewClient(redisOpts), logger: logger}
}

// Record enqueues an audit event for asynchronous persistence.
func (c *Client) Record(ctx context.Context, ev audit.Event) {
	task, err := NewAuditEventTask(ev)
	if err != nil {
		c.warn("build audit task", err)
		return
	}
	if _, err := c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault)); err != nil {
		c.warn("enqueue audit event", err)
	}
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) warn(msg string, err error) {
	if c.logger != nil {
		c.logger.Warn(msg, slog.Any("error", err))
	}
}
