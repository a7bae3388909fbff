package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/cypherlabdev/odds-reconciler-service/internal/metrics"
	"github.com/cypherlabdev/odds-reconciler-service/internal/models"
	"github.com/cypherlabdev/odds-reconciler-service/internal/service"
)

// Transport labels batches that arrived over Kafka
const Transport = "kafka"

// KafkaConsumer consumes raw source payloads from Kafka and queues them for the next cycle
type KafkaConsumer struct {
	reader   *kafka.Reader
	ingester service.Ingester
	logger   zerolog.Logger
}

// KafkaConsumerConfig holds Kafka consumer configuration
type KafkaConsumerConfig struct {
	Brokers []string // e.g., ["localhost:9092"]
	Topic   string   // e.g., "source_odds"
	GroupID string   // e.g., "odds-reconciler"
}

// NewKafkaConsumer creates a new Kafka consumer
func NewKafkaConsumer(
	config KafkaConsumerConfig,
	ingester service.Ingester,
	logger zerolog.Logger,
) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        config.Brokers,
		Topic:          config.Topic,
		GroupID:        config.GroupID,
		MinBytes:       1e3,  // 1KB
		MaxBytes:       10e6, // 10MB
		CommitInterval: 1000, // Commit every 1 second
	})

	return &KafkaConsumer{
		reader:   reader,
		ingester: ingester,
		logger:   logger.With().Str("component", "kafka_consumer").Logger(),
	}
}

// Start begins consuming messages from Kafka
func (c *KafkaConsumer) Start(ctx context.Context) error {
	c.logger.Info().
		Str("topic", c.reader.Config().Topic).
		Str("group_id", c.reader.Config().GroupID).
		Msg("started consuming from Kafka")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("stopping Kafka consumer")
			return c.reader.Close()

		default:
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				c.logger.Error().Err(err).Msg("failed to fetch message")
				continue
			}

			// A payload that fails to decode or normalize fails the same way on
			// redelivery, so it is logged and committed like any other message
			if err := c.processMessage(msg); err != nil {
				c.logger.Error().
					Err(err).
					Int64("offset", msg.Offset).
					Str("key", string(msg.Key)).
					Msg("failed to process message")
			}

			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				c.logger.Error().Err(err).Msg("failed to commit message")
			}
		}
	}
}

// processMessage decodes one source envelope and hands it to the ingester
func (c *KafkaConsumer) processMessage(msg kafka.Message) error {
	var sourceMsg models.SourceMessage
	if err := json.Unmarshal(msg.Value, &sourceMsg); err != nil {
		metrics.SourceFailures.WithLabelValues("unknown").Inc()
		return fmt.Errorf("failed to unmarshal message: %w", err)
	}

	c.logger.Debug().
		Str("source", sourceMsg.Source).
		Str("kind", sourceMsg.Kind).
		Str("batch_id", sourceMsg.BatchID).
		Msg("processing source message")

	batch, err := c.ingester.Ingest(&sourceMsg, Transport)
	if err != nil {
		return fmt.Errorf("failed to ingest %s message: %w", sourceMsg.Source, err)
	}

	c.logger.Info().
		Str("source", batch.Source).
		Str("batch_id", sourceMsg.BatchID).
		Int("events", len(batch.Events)).
		Int("completions", len(batch.Completions)).
		Int("skipped", batch.Skipped).
		Msg("queued source batch")

	return nil
}

// Close closes the Kafka reader
func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}
