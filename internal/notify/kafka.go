// Package notify delivers alert lifecycle events to downstream consumers.
// The engine only emits; rendering (UI, email) belongs to the consumers of
// the feed.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"fairgate/internal/monitor"
)

// DefaultAlertTopic is the alert feed topic.
const DefaultAlertTopic = "fairness.alerts"

// AlertEvent is the wire shape of one feed record.
type AlertEvent struct {
	Event string        `json:"event"`
	Alert monitor.Alert `json:"alert"`
	At    time.Time     `json:"at"`
}

// KafkaNotifier publishes alert events to Kafka. Records are keyed by the
// alert's process ID so one process's events stay ordered within a
// partition.
type KafkaNotifier struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// Option configures the KafkaNotifier.
type Option func(*KafkaNotifier)

// WithTopic overrides the alert feed topic.
func WithTopic(topic string) Option {
	return func(n *KafkaNotifier) { n.topic = topic }
}

// WithLogger sets the notifier logger.
func WithLogger(logger *slog.Logger) Option {
	return func(n *KafkaNotifier) { n.logger = logger }
}

// NewKafka constructs a Kafka-backed notifier over an existing client.
func NewKafka(client *kgo.Client, opts ...Option) *KafkaNotifier {
	n := &KafkaNotifier{
		client: client,
		topic:  DefaultAlertTopic,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *KafkaNotifier) AlertCreated(ctx context.Context, alert monitor.Alert) error {
	return n.publish(ctx, "alert.created", alert)
}

func (n *KafkaNotifier) AlertTransitioned(ctx context.Context, alert monitor.Alert) error {
	return n.publish(ctx, "alert."+string(alert.Status), alert)
}

func (n *KafkaNotifier) publish(ctx context.Context, event string, alert monitor.Alert) error {
	payload, err := json.Marshal(AlertEvent{
		Event: event,
		Alert: alert,
		At:    alert.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal alert event: %w", err)
	}

	record := &kgo.Record{
		Topic: n.topic,
		Key:   []byte(alert.Key.ProcessID.String()),
		Value: payload,
	}
	if err := n.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce alert event: %w", err)
	}

	n.logger.InfoContext(ctx, "alert event published",
		"event", event,
		"alert_id", alert.ID,
		"topic", n.topic,
	)
	return nil
}
