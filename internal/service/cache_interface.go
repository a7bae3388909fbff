package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/cypherlabdev/odds-reconciler-service/internal/models"
)

// Cache is an interface that abstracts latest-odds cache operations
// This allows for easier testing and mocking
type Cache interface {
	Set(ctx context.Context, odds *models.LatestOdds) error
	Get(ctx context.Context, gameID uuid.UUID, slot string) (*models.LatestOdds, error)
	SetBatch(ctx context.Context, oddsList []*models.LatestOdds) error
	GetByGame(ctx context.Context, gameID uuid.UUID) ([]*models.LatestOdds, error)
	Ping(ctx context.Context) error
	Close() error
}
