// Package publisher forwards accepted readings to Kafka.
package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"weather_relay/internal/classifier"
	"weather_relay/internal/logger"
	"weather_relay/internal/models"

	"github.com/segmentio/kafka-go"
)

const (
	queueSize    = 256
	writeTimeout = 5 * time.Second
	messageKey   = "weather-station"
)

var (
	ErrQueueFull = errors.New("publisher queue full")
	ErrClosed    = errors.New("publisher closed")
)

type Config struct {
	Brokers []string
	Topic   string
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Event is the record written to the topic.
type Event struct {
	Reading    models.Reading    `json:"reading"`
	Bands      map[string]string `json:"bands"`
	ReceivedAt time.Time         `json:"received_at"`
}

// Kafka queues readings and writes them from a single background loop so
// ingest never waits on the broker.
type Kafka struct {
	writer messageWriter
	topic  string
	log    *logger.Logger

	queue chan kafka.Message
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewKafka(cfg Config, log *logger.Logger) (*Kafka, error) {
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, errors.New("kafka topic must not be empty")
	}
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("at least one kafka broker is required")
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		WriteTimeout:           writeTimeout,
	}
	return newWithWriter(w, cfg.Topic, log), nil
}

func newWithWriter(w messageWriter, topic string, log *logger.Logger) *Kafka {
	if log == nil {
		log = logger.Nop()
	}
	return &Kafka{
		writer: w,
		topic:  topic,
		log:    log,
		queue:  make(chan kafka.Message, queueSize),
		done:   make(chan struct{}),
	}
}

// Publish enqueues the reading. It fails fast when the queue is full.
func (k *Kafka) Publish(_ context.Context, snap models.Snapshot, labels classifier.Labels) error {
	ev := Event{Reading: snap.Reading, Bands: make(map[string]string, len(classifier.Channels)), ReceivedAt: snap.ReceivedAt}
	for _, ch := range classifier.Channels {
		ev.Bands[string(ch)] = labels.Get(ch).Key
	}
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode reading: %w", err)
	}

	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.closed {
		return ErrClosed
	}
	select {
	case k.queue <- kafka.Message{Key: []byte(messageKey), Value: value, Time: snap.ReceivedAt}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run writes queued messages until Close is called or ctx ends.
func (k *Kafka) Run(ctx context.Context) {
	defer close(k.done)
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-k.queue:
			if !ok {
				return
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			if err := k.writer.WriteMessages(wctx, msg); err != nil {
				k.log.Warnw("kafka_write_failed", "err", err, "topic", k.topic)
			}
			cancel()
		}
	}
}

// Close stops accepting readings, drains the queue and closes the writer.
// Run must have been started.
func (k *Kafka) Close() error {
	k.mu.Lock()
	if !k.closed {
		k.closed = true
		close(k.queue)
	}
	k.mu.Unlock()
	<-k.done
	return k.writer.Close()
}
