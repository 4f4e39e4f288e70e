package telemetry

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/chromapath/chromapath/internal/config"
	"github.com/chromapath/chromapath/internal/log"
)

// KafkaConfig holds connection settings for the hazard event stream.
type KafkaConfig struct {
	BootstrapServers string
	SecurityProtocol string
	SASLMechanism    string
	SASLUsername     string
	SASLPassword     string
	Topic            string
	CompressionType  string
}

// KafkaConfigFromEnv reads connection settings from the environment.
// An empty BootstrapServers means telemetry is disabled.
func KafkaConfigFromEnv() KafkaConfig {
	return KafkaConfig{
		BootstrapServers: config.Env("KAFKA_BOOTSTRAP_SERVERS", ""),
		SecurityProtocol: config.Env("KAFKA_SECURITY_PROTOCOL", "SASL_SSL"),
		SASLMechanism:    config.Env("KAFKA_SASL_MECHANISM", "PLAIN"),
		SASLUsername:     config.Env("KAFKA_SASL_USERNAME", ""),
		SASLPassword:     config.Env("KAFKA_SASL_PASSWORD", ""),
		Topic:            config.Env("KAFKA_TOPIC", "hazard-events"),
		CompressionType:  config.Env("KAFKA_COMPRESSION_TYPE", "snappy"),
	}
}

// Enabled reports whether the config points at a real cluster.
func (c KafkaConfig) Enabled() bool {
	return c.BootstrapServers != ""
}

// KafkaPublisher ships hazard events to a Kafka topic. Delivery
// reports are consumed on a background goroutine; failures only ever
// count and log.
type KafkaPublisher struct {
	producer     *kafka.Producer
	topic        string
	deliveryChan chan kafka.Event
	logger       *slog.Logger

	sent   atomic.Int64
	acked  atomic.Int64
	failed atomic.Int64

	wg     sync.WaitGroup
	closed chan struct{}
}

// NewKafkaPublisher connects to the cluster in cfg.
func NewKafkaPublisher(cfg KafkaConfig) (*KafkaPublisher, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("telemetry: no bootstrap servers configured")
	}

	producerConfig := &kafka.ConfigMap{
		"bootstrap.servers":  cfg.BootstrapServers,
		"security.protocol":  cfg.SecurityProtocol,
		"sasl.mechanism":     cfg.SASLMechanism,
		"sasl.username":      cfg.SASLUsername,
		"sasl.password":      cfg.SASLPassword,
		"compression.type":   cfg.CompressionType,
		"acks":               "all",
		"enable.idempotence": true,
		"linger.ms":          10,
	}

	producer, err := kafka.NewProducer(producerConfig)
	if err != nil {
		return nil, fmt.Errorf("telemetry: creating producer: %w", err)
	}

	p := &KafkaPublisher{
		producer:     producer,
		topic:        cfg.Topic,
		deliveryChan: make(chan kafka.Event, 1024),
		logger:       log.Component("telemetry"),
		closed:       make(chan struct{}),
	}

	p.wg.Add(1)
	go p.handleDeliveryReports()

	p.logger.Info("hazard event stream connected",
		"topic", cfg.Topic,
		"servers", cfg.BootstrapServers,
	)
	return p, nil
}

// handleDeliveryReports drains async delivery confirmations.
func (p *KafkaPublisher) handleDeliveryReports() {
	defer p.wg.Done()

	for {
		select {
		case <-p.closed:
			return
		case e := <-p.deliveryChan:
			m, ok := e.(*kafka.Message)
			if !ok {
				continue
			}
			if m.TopicPartition.Error != nil {
				p.failed.Add(1)
				p.logger.Warn("event delivery failed",
					"error", m.TopicPartition.Error,
				)
			} else {
				p.acked.Add(1)
			}
		}
	}
}

// PublishHazard enqueues one event for async delivery.
func (p *KafkaPublisher) PublishHazard(event HazardEvent) error {
	payload, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("telemetry: serializing event: %w", err)
	}

	message := &kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &p.topic,
			Partition: kafka.PartitionAny,
		},
		Key:   []byte(event.SessionID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "class", Value: []byte(event.Class)},
			{Key: "priority", Value: []byte(event.Priority)},
		},
	}

	if err := p.producer.Produce(message, p.deliveryChan); err != nil {
		p.failed.Add(1)
		return fmt.Errorf("telemetry: producing event: %w", err)
	}
	p.sent.Add(1)
	return nil
}

// Counters returns sent/acked/failed totals since startup.
func (p *KafkaPublisher) Counters() (sent, acked, failed int64) {
	return p.sent.Load(), p.acked.Load(), p.failed.Load()
}

// Close flushes pending events, waits briefly for delivery reports,
// and shuts the producer down.
func (p *KafkaPublisher) Close() error {
	remaining := p.producer.Flush(int((10 * time.Second).Milliseconds()))
	if remaining > 0 {
		p.logger.Warn("events still pending after flush", "remaining", remaining)
	}

	close(p.closed)
	p.wg.Wait()
	p.producer.Close()

	sent, acked, failed := p.Counters()
	p.logger.Info("hazard event stream closed",
		"sent", sent,
		"acked", acked,
		"failed", failed,
	)
	return nil
}

var _ Publisher = (*KafkaPublisher)(nil)
