package ingest

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cypherlabdev/odds-reconciler-service/internal/metrics"
	"github.com/cypherlabdev/odds-reconciler-service/internal/models"
)

// DefaultCapacity bounds how many batches wait between two cycles
const DefaultCapacity = 1024

// Buffer holds normalized batches until the next cycle drains them. When
// full, the oldest batch is dropped.
type Buffer struct {
	mu       sync.Mutex
	batches  []*models.SourceBatch
	failures []models.SourceFailure
	capacity int
	dropped  int
	logger   zerolog.Logger
}

// NewBuffer creates a buffer holding at most capacity batches
func NewBuffer(capacity int, logger zerolog.Logger) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		capacity: capacity,
		logger:   logger.With().Str("component", "ingest_buffer").Logger(),
	}
}

// Push queues a batch for the next cycle
func (b *Buffer) Push(batch *models.SourceBatch) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.batches) >= b.capacity {
		oldest := b.batches[0]
		b.batches = b.batches[1:]
		b.dropped++
		b.logger.Warn().
			Str("source", oldest.Source).
			Str("batch_id", oldest.BatchID).
			Int("capacity", b.capacity).
			Msg("buffer full, dropped oldest batch")
	}
	b.batches = append(b.batches, batch)
}

// Fail records a source payload that could not be normalized
func (b *Buffer) Fail(source string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = append(b.failures, models.SourceFailure{
		Source: source,
		Err:    err.Error(),
		At:     time.Now().UTC(),
	})
}

// Drain returns and clears everything queued since the last drain
func (b *Buffer) Drain() ([]*models.SourceBatch, []models.SourceFailure) {
	b.mu.Lock()
	defer b.mu.Unlock()

	batches, failures := b.batches, b.failures
	b.batches, b.failures = nil, nil
	return batches, failures
}

// Len returns the number of queued batches
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.batches)
}

// Dropped returns how many batches were evicted because the buffer was full
func (b *Buffer) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// Normalizer decodes a source message into a batch
type Normalizer interface {
	Normalize(msg *models.SourceMessage) (*models.SourceBatch, error)
}

// Ingestor normalizes incoming messages and queues the result. Kafka and the
// HTTP ingest endpoint share it.
type Ingestor struct {
	normalizer Normalizer
	buffer     *Buffer
	logger     zerolog.Logger
}

// NewIngestor creates a new ingestor
func NewIngestor(normalizer Normalizer, buffer *Buffer, logger zerolog.Logger) *Ingestor {
	return &Ingestor{
		normalizer: normalizer,
		buffer:     buffer,
		logger:     logger.With().Str("component", "ingestor").Logger(),
	}
}

// Ingest normalizes msg and queues it. A payload that fails to normalize is
// recorded as a source failure for the next cycle report and returned.
func (i *Ingestor) Ingest(msg *models.SourceMessage, transport string) (*models.SourceBatch, error) {
	batch, err := i.normalizer.Normalize(msg)
	if err != nil {
		i.buffer.Fail(msg.Source, err)
		metrics.SourceFailures.WithLabelValues(msg.Source).Inc()
		return nil, fmt.Errorf("failed to normalize message: %w", err)
	}

	i.buffer.Push(batch)
	metrics.BatchesIngested.WithLabelValues(batch.Source, transport).Inc()

	i.logger.Debug().
		Str("source", batch.Source).
		Str("batch_id", batch.BatchID).
		Str("transport", transport).
		Int("events", len(batch.Events)).
		Int("completions", len(batch.Completions)).
		Int("skipped", batch.Skipped).
		Msg("queued source batch")

	return batch, nil
}
