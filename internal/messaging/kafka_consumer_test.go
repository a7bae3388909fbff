package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/cypherlabdev/odds-reconciler-service/internal/mocks"
	"github.com/cypherlabdev/odds-reconciler-service/internal/models"
)

// testKafkaConsumerSetup is a helper struct to hold test dependencies
type testKafkaConsumerSetup struct {
	mockIngester *mocks.MockIngester
	logger       zerolog.Logger
	ctrl         *gomock.Controller
	config       KafkaConsumerConfig
}

// setupTestKafkaConsumer creates a test consumer setup with mocked dependencies
func setupTestKafkaConsumer(t *testing.T) *testKafkaConsumerSetup {
	ctrl := gomock.NewController(t)

	return &testKafkaConsumerSetup{
		mockIngester: mocks.NewMockIngester(ctrl),
		logger:       zerolog.Nop(),
		ctrl:         ctrl,
		config: KafkaConsumerConfig{
			Brokers: []string{"localhost:9092"},
			Topic:   "source_odds",
			GroupID: "test-group",
		},
	}
}

// cleanup cleans up test resources
func (s *testKafkaConsumerSetup) cleanup() {
	s.ctrl.Finish()
}

func sourceMessage(t *testing.T, source, kind string) kafka.Message {
	value, err := json.Marshal(models.SourceMessage{
		Source:    source,
		Kind:      kind,
		FetchedAt: time.Date(2025, 6, 18, 17, 0, 0, 0, time.UTC),
		BatchID:   "batch-123",
		Payload:   json.RawMessage(`[]`),
	})
	require.NoError(t, err)
	return kafka.Message{Key: []byte(source), Value: value, Offset: 42}
}

// TestNewKafkaConsumer tests consumer creation
func TestNewKafkaConsumer(t *testing.T) {
	setup := setupTestKafkaConsumer(t)
	defer setup.cleanup()

	consumer := NewKafkaConsumer(setup.config, setup.mockIngester, setup.logger)
	defer consumer.Close()

	assert.NotNil(t, consumer.reader)
	assert.NotNil(t, consumer.ingester)

	readerConfig := consumer.reader.Config()
	assert.Equal(t, setup.config.Brokers, readerConfig.Brokers)
	assert.Equal(t, setup.config.Topic, readerConfig.Topic)
	assert.Equal(t, setup.config.GroupID, readerConfig.GroupID)
	assert.Equal(t, 1000, readerConfig.MinBytes)     // 1KB
	assert.Equal(t, 10000000, readerConfig.MaxBytes) // 10MB
}

func TestProcessMessage(t *testing.T) {
	tests := []struct {
		name      string
		message   func(t *testing.T) kafka.Message
		mockSetup func(m *mocks.MockIngester)
		wantErr   string
	}{
		{
			name: "odds message is ingested",
			message: func(t *testing.T) kafka.Message {
				return sourceMessage(t, models.SourcePolymarket, models.PayloadOdds)
			},
			mockSetup: func(m *mocks.MockIngester) {
				m.EXPECT().
					Ingest(gomock.Any(), Transport).
					DoAndReturn(func(msg *models.SourceMessage, _ string) (*models.SourceBatch, error) {
						assert.Equal(t, models.SourcePolymarket, msg.Source)
						assert.Equal(t, "batch-123", msg.BatchID)
						return &models.SourceBatch{Source: msg.Source, Role: models.RoleCreating}, nil
					})
			},
		},
		{
			name: "scores message is ingested",
			message: func(t *testing.T) kafka.Message {
				return sourceMessage(t, models.SourceOddsAPI, models.PayloadScores)
			},
			mockSetup: func(m *mocks.MockIngester) {
				m.EXPECT().
					Ingest(gomock.Any(), Transport).
					Return(&models.SourceBatch{Source: models.SourceOddsAPI, Role: models.RoleAttaching}, nil)
			},
		},
		{
			name: "invalid JSON never reaches the ingester",
			message: func(*testing.T) kafka.Message {
				return kafka.Message{Value: []byte(`{"source":`)}
			},
			mockSetup: func(*mocks.MockIngester) {},
			wantErr:   "failed to unmarshal message",
		},
		{
			name: "ingest failure is reported",
			message: func(t *testing.T) kafka.Message {
				return sourceMessage(t, models.SourceKalshi, models.PayloadScores)
			},
			mockSetup: func(m *mocks.MockIngester) {
				m.EXPECT().
					Ingest(gomock.Any(), Transport).
					Return(nil, errors.New("unsupported payload kind"))
			},
			wantErr: "failed to ingest kalshi message",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setup := setupTestKafkaConsumer(t)
			defer setup.cleanup()

			tt.mockSetup(setup.mockIngester)

			consumer := NewKafkaConsumer(setup.config, setup.mockIngester, setup.logger)
			defer consumer.Close()

			err := consumer.processMessage(tt.message(t))
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

// TestKafkaConsumer_ContextCancellation tests context cancellation handling
func TestKafkaConsumer_ContextCancellation(t *testing.T) {
	setup := setupTestKafkaConsumer(t)
	defer setup.cleanup()

	consumer := NewKafkaConsumer(setup.config, setup.mockIngester, setup.logger)
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error)
	go func() {
		done <- consumer.Start(ctx)
	}()

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Consumer did not stop within timeout")
	}
}
