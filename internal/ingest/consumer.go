// Package ingest consumes completed-process events and feeds them into the
// monitoring service.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"fairgate/internal/monitor"
	id "fairgate/pkg/domain"
)

// DefaultTopic is the completed-process event topic.
const DefaultTopic = "hiring.process.completed"

// ProcessEvent is the wire shape of one completed-process event.
type ProcessEvent struct {
	ProcessID   string              `json:"process_id"`
	ProcessType monitor.ProcessType `json:"process_type"`
	Batch       monitor.Batch       `json:"batch"`
}

// Consumer pulls process completion events and triggers evaluations. One
// malformed or failing record is logged and skipped; the poll loop never
// stops for a single bad event.
type Consumer struct {
	client  *kgo.Client
	service *monitor.Service
	topic   string
	logger  *slog.Logger
}

// Option configures the Consumer.
type Option func(*Consumer)

// WithTopic overrides the consumed topic.
func WithTopic(topic string) Option {
	return func(c *Consumer) { c.topic = topic }
}

// WithLogger sets the consumer logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Consumer) { c.logger = logger }
}

// New constructs a consumer over an existing Kafka client. The client is
// expected to be configured with a consumer group and the consumed topic.
func New(client *kgo.Client, service *monitor.Service, opts ...Option) *Consumer {
	c := &Consumer{
		client:  client,
		service: service,
		topic:   DefaultTopic,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EnsureTopic creates the consumed topic when the broker does not have it
// yet, so a fresh environment starts clean.
func (c *Consumer) EnsureTopic(ctx context.Context, partitions int32, replication int16) error {
	admin := kadm.NewClient(c.client)

	topics, err := admin.ListTopics(ctx)
	if err != nil {
		return fmt.Errorf("list topics: %w", err)
	}
	if topics.Has(c.topic) {
		return nil
	}

	if _, err := admin.CreateTopic(ctx, partitions, replication, nil, c.topic); err != nil {
		return fmt.Errorf("create topic %s: %w", c.topic, err)
	}
	c.logger.InfoContext(ctx, "topic created", "topic", c.topic, "partitions", partitions)
	return nil
}

// Run polls until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.ErrorContext(ctx, "fetch error",
				"topic", topic,
				"partition", partition,
				"error", err,
			)
		})

		fetches.EachRecord(func(record *kgo.Record) {
			c.handle(ctx, record)
		})
	}
}

// handle isolates one record: decode, evaluate, log failures.
func (c *Consumer) handle(ctx context.Context, record *kgo.Record) {
	var event ProcessEvent
	if err := json.Unmarshal(record.Value, &event); err != nil {
		c.logger.WarnContext(ctx, "malformed process event skipped",
			"topic", record.Topic,
			"offset", record.Offset,
			"error", err,
		)
		return
	}

	processID, err := id.ParseProcessID(event.ProcessID)
	if err != nil {
		c.logger.WarnContext(ctx, "process event with bad process_id skipped",
			"process_id", event.ProcessID,
			"offset", record.Offset,
			"error", err,
		)
		return
	}

	if _, err := c.service.MonitorProcess(ctx, processID, event.ProcessType, &event.Batch); err != nil {
		c.logger.ErrorContext(ctx, "monitoring error",
			"process_id", processID,
			"process_type", event.ProcessType,
			"offset", record.Offset,
			"error", err,
		)
	}
}
