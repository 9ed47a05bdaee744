package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

// Event announces a merged output that is ready for ingestion.
type Event struct {
	JobID       int       `json:"job_id"`
	ExecutionID string    `json:"execution_id"`
	Variable    string    `json:"variable"`
	Kind        string    `json:"kind"`
	RunStart    time.Time `json:"run_start"`
	Member      int       `json:"member"`
	Path        string    `json:"path"`
	ObjectKey   string    `json:"object_key,omitempty"`
	SizeBytes   int64     `json:"size_bytes"`
	ProducedAt  time.Time `json:"produced_at"`
}

// Notifier publishes ready events.
type Notifier interface {
	Notify(ctx context.Context, events ...Event) error
	Close() error
}

// messageWriter is the subset of *kafkago.Writer the notifier uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// KafkaNotifier writes events as JSON messages to a Kafka topic.
type KafkaNotifier struct {
	writer  messageWriter
	timeout time.Duration
}

// NewKafkaNotifier creates a producer for the configured topic.
func NewKafkaNotifier(cfg Config) *KafkaNotifier {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return newKafkaNotifier(w, cfg.TimeoutSeconds)
}

func newKafkaNotifier(w messageWriter, timeoutSeconds int) *KafkaNotifier {
	if timeoutSeconds <= 0 {
		timeoutSeconds = 10
	}
	return &KafkaNotifier{writer: w, timeout: time.Duration(timeoutSeconds) * time.Second}
}

// Notify serializes and publishes the events in a single write.
func (n *KafkaNotifier) Notify(ctx context.Context, events ...Event) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(events))
	for i := range events {
		msg, err := toMessage(events[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	if err := n.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d events: %w", len(msgs), err)
	}
	return nil
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}

// toMessage keys messages by the output's relative path, so a republished
// file lands on the partition of its earlier announcement.
func toMessage(e Event) (kafkago.Message, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(e.Path),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "kind", Value: []byte(e.Kind)},
			{Key: "produced_at", Value: []byte(e.ProducedAt.Format(time.RFC3339))},
		},
	}, nil
}

// Noop discards events. It is used when notifications are disabled.
type Noop struct{}

func (Noop) Notify(context.Context, ...Event) error { return nil }
func (Noop) Close() error                           { return nil }

// New returns a Kafka notifier when enabled, Noop otherwise.
func New(cfg Config) Notifier {
	if !cfg.Enabled {
		return Noop{}
	}
	return NewKafkaNotifier(cfg)
}
