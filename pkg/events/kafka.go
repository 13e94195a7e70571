package events

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"

	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/metrics"
	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/tracing"
)

// ErrQueueFull is returned when the publisher cannot keep up
var ErrQueueFull = errors.New("events: publish queue full")

// MaxBatch caps how many queued messages go to the broker in one write. It
// matches the writer's BatchSize so a drained batch is sent as one request.
const MaxBatch = 100

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Brokers   []string
	Topic     string
	QueueSize int
}

// ParseBrokers splits a comma-separated broker string
func ParseBrokers(brokers string) []string {
	var list []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			list = append(list, b)
		}
	}
	return list
}

// MessageWriter is the part of *kafka.Writer the publisher uses
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher exports changes to a topic keyed by collection. Messages are
// queued and written by a background goroutine so storage writes never wait on
// the broker.
type KafkaPublisher struct {
	writer MessageWriter
	logger ectologger.Logger
	queue  chan kafka.Message
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewKafkaWriter builds the writer used in production
func NewKafkaWriter(cfg KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchSize:              MaxBatch,
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

func NewKafkaPublisher(writer MessageWriter, queueSize int, logger ectologger.Logger) *KafkaPublisher {
	if queueSize <= 0 {
		queueSize = 256
	}
	p := &KafkaPublisher{
		writer: writer,
		logger: logger,
		queue:  make(chan kafka.Message, queueSize),
	}
	p.wg.Add(1)
	go p.run()
	return p
}

func (p *KafkaPublisher) Publish(ctx context.Context, change Change) error {
	_, span := tracing.StartSpan(ctx, "KafkaPublisher.Publish")
	defer span.End()

	value, err := json.Marshal(change)
	if err != nil {
		return errors.Wrap(err, "failed to marshal change event")
	}

	msg := kafka.Message{
		Key:   []byte(change.Collection),
		Value: value,
		Time:  change.At,
		Headers: []kafka.Header{
			{Key: "operation", Value: []byte(change.Operation)},
		},
	}
	if traceID := tracing.GetTraceID(ctx); traceID != "" {
		msg.Headers = append(msg.Headers, kafka.Header{Key: "trace_id", Value: []byte(traceID)})
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return errors.New("events: publisher closed")
	}

	select {
	case p.queue <- msg:
		return nil
	default:
		metrics.ChangeEventsPublished.WithLabelValues("dropped").Inc()
		return ErrQueueFull
	}
}

func (p *KafkaPublisher) run() {
	defer p.wg.Done()
	batch := make([]kafka.Message, 0, MaxBatch)
	for msg := range p.queue {
		batch = append(batch[:0], msg)
	drain:
		for len(batch) < MaxBatch {
			select {
			case next, ok := <-p.queue:
				if !ok {
					break drain
				}
				batch = append(batch, next)
			default:
				break drain
			}
		}
		p.write(batch)
	}
}

func (p *KafkaPublisher) write(batch []kafka.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, batch...); err != nil {
		metrics.ChangeEventsPublished.WithLabelValues("error").Add(float64(len(batch)))
		p.logger.WithError(err).WithFields(map[string]any{
			"messages": len(batch),
		}).Error("Failed to write change events to Kafka")
		return
	}
	metrics.ChangeEventsPublished.WithLabelValues("success").Add(float64(len(batch)))
}

// Close drains the queue and closes the writer
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
	return p.writer.Close()
}
