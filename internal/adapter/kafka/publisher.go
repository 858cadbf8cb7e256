// Package kafka publishes triggered alerts to a Kafka topic for downstream
// consumers (paging, archival). The publisher is an optional snapshot sink;
// the replay loop runs the same with or without it.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/risk-replay-dashboard/internal/observability"
	"github.com/couchcryptid/risk-replay-dashboard/internal/replay"
)

// Publisher writes alert messages to a Kafka topic. It implements
// replay.SnapshotSink. Writes are asynchronous so a slow broker never stalls
// the session loop; failures are logged and counted.
type Publisher struct {
	writer  *kafkago.Writer
	logger  *slog.Logger
	metrics *observability.Metrics

	// lastKey identifies the alert set most recently published, so an
	// unchanged set is not re-sent every evaluation cycle.
	lastKey string
}

// NewPublisher creates an async Kafka producer for the alert topic.
func NewPublisher(brokers []string, topic string, logger *slog.Logger, metrics *observability.Metrics) *Publisher {
	p := &Publisher{logger: logger, metrics: metrics}
	p.writer = &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
		Async:        true,
		Completion: func(messages []kafkago.Message, err error) {
			if err != nil {
				p.metrics.PublishErrors.Inc()
				p.logger.Error("alert publish failed", "error", err, "messages", len(messages))
			}
		},
	}
	return p
}

// Publish sends the snapshot's alerts when the set differs from the last one
// sent. The session loop only hands over the message batch; delivery happens
// on the writer's own goroutines.
func (p *Publisher) Publish(ctx context.Context, snap replay.Snapshot) {
	if len(snap.Alerts) == 0 {
		p.lastKey = ""
		return
	}
	key := alertSetKey(snap.Alerts)
	if key == p.lastKey {
		return
	}

	msgs := make([]kafkago.Message, len(snap.Alerts))
	for i, alert := range snap.Alerts {
		msg, err := serializeAlert(alert, snap.GeneratedAt)
		if err != nil {
			p.metrics.PublishErrors.Inc()
			p.logger.Error("alert serialize failed", "error", err, "region", alert.Region)
			return
		}
		msgs[i] = msg
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		p.metrics.PublishErrors.Inc()
		p.logger.Error("alert publish failed", "error", err, "messages", len(msgs))
		return
	}
	p.lastKey = key
	p.logger.Info("alerts published", "count", len(msgs))
}

// Close flushes pending writes and releases the producer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeAlert marshals an alert into a Kafka message keyed by region.
func serializeAlert(alert replay.Alert, generatedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(alert)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize alert: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(alert.Region),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "composite", Value: []byte(strconv.FormatFloat(alert.Composite, 'f', 2, 64))},
			{Key: "generated_at", Value: []byte(generatedAt.Format(time.RFC3339))},
		},
	}, nil
}

// alertSetKey builds a fingerprint of an alert list. Two evaluation cycles
// over the same revealed prefix produce the same fingerprint.
func alertSetKey(alerts []replay.Alert) string {
	key := make([]byte, 0, len(alerts)*32)
	for _, a := range alerts {
		key = append(key, a.Region...)
		key = append(key, '@')
		key = strconv.AppendInt(key, a.Timestamp.UnixNano(), 10)
		key = append(key, ';')
	}
	return string(key)
}
