// Package kafka forwards domain events to a Kafka-compatible broker so
// downstream systems (analytics, the city's data warehouse) can consume them.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"civic/internal/platform/config"
	"civic/internal/platform/events"
	"civic/pkg/platform/circuit"
)

var (
	forwardedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "civic_kafka_events_total",
		Help: "Domain events forwarded to Kafka by outcome",
	}, []string{"outcome"})
)

// ErrCircuitOpen is returned while the broker is considered unavailable.
var ErrCircuitOpen = errors.New("kafka circuit open")

const defaultRetryInterval = 10 * time.Second

// Producer is an events.Sink writing JSON envelopes to one topic, keyed by
// the event key so per-aggregate ordering holds within a partition.
type Producer struct {
	client  *kgo.Client
	topic   string
	breaker *circuit.Breaker
	logger  *slog.Logger

	mu            sync.Mutex
	lastAttempt     time.Time
	retryInterval time.Duration
	now           func() time.Time
}

type Option func(*Producer)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Producer) {
		p.logger = logger
	}
}

// WithRetryInterval sets how often a send is attempted while the circuit is open.
func WithRetryInterval(d time.Duration) Option {
	return func(p *Producer) {
		p.retryInterval = d
	}
}

// New connects a producer. It returns nil when no brokers are configured.
func New(cfg config.KafkaConfig, opts ...Option) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.ClientID("civic"),
		kgo.ProducerLinger(5*time.Millisecond),
		kgo.RecordRetries(3),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return newWithClient(client, cfg.Topic, opts...), nil
}

func newWithClient(client *kgo.Client, topic string, opts ...Option) *Producer {
	p := &Producer{
		client:        client,
		topic:         topic,
		breaker:       circuit.New("kafka"),
		logger:        slog.Default(),
		retryInterval: defaultRetryInterval,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// EnsureTopic creates the events topic when it does not exist.
func (p *Producer) EnsureTopic(ctx context.Context, partitions int32, replicationFactor int16) error {
	adm := kadm.NewClient(p.client)
	resp, err := adm.CreateTopics(ctx, partitions, replicationFactor, nil, p.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", p.topic, err)
	}
	for _, r := range resp {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}

// Envelope is the record value written for each event.
type Envelope struct {
	Topic      string          `json:"topic"`
	Key        string          `json:"key"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// Encode renders evt as a record value.
func Encode(evt events.Event) ([]byte, error) {
	payload, err := json.Marshal(evt.Payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", evt.Topic, err)
	}
	return json.Marshal(Envelope{
		Topic:      evt.Topic,
		Key:        evt.Key,
		OccurredAt: evt.OccurredAt.UTC(),
		Payload:    payload,
	})
}

// Forward satisfies events.Sink.
func (p *Producer) Forward(ctx context.Context, evt events.Event) error {
	if !p.allow() {
		forwardedTotal.WithLabelValues("dropped").Inc()
		return ErrCircuitOpen
	}

	value, err := Encode(evt)
	if err != nil {
		forwardedTotal.WithLabelValues("error").Inc()
		return err
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(evt.Key),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(evt.Topic)},
		},
	}

	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		forwardedTotal.WithLabelValues("error").Inc()
		if _, change := p.breaker.RecordFailure(); change.Opened {
			p.logger.WarnContext(ctx, "kafka circuit opened", "error", err)
		}
		return fmt.Errorf("produce %s: %w", evt.Topic, err)
	}
	forwardedTotal.WithLabelValues("ok").Inc()
	if _, change := p.breaker.RecordSuccess(); change.Closed {
		p.logger.InfoContext(ctx, "kafka circuit closed")
	}
	return nil
}

// allow admits every send while closed and one trial send per interval while open.
func (p *Producer) allow() bool {
	if !p.breaker.IsOpen() {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	if now.Sub(p.lastAttempt) < p.retryInterval {
		return false
	}
	p.lastAttempt = now
	return true
}

// Close flushes buffered records and closes the client.
func (p *Producer) Close(ctx context.Context) {
	if err := p.client.Flush(ctx); err != nil {
		p.logger.WarnContext(ctx, "kafka flush failed", "error", err)
	}
	p.client.Close()
}
