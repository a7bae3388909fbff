package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cypherlabdev/odds-reconciler-service/internal/models"
	"github.com/cypherlabdev/odds-reconciler-service/pkg/teams"
)

// Store is an interface that abstracts the reconciliation store.
// InsertSnapshot and CompleteGame carry their check-then-act rules inside
// one store operation; callers never pre-check.
type Store interface {
	SeedTeams(ctx context.Context, list []*teams.Team) error

	FindGames(ctx context.Context, filter models.GameFilter) ([]*models.Game, error)
	CreateGame(ctx context.Context, game *models.Game) error
	GetGame(ctx context.Context, id uuid.UUID) (*models.Game, error)
	CompleteGame(ctx context.Context, id uuid.UUID, homeScore, awayScore int, result models.GameResult) (bool, error)

	GetOrCreatePlatform(ctx context.Context, p *models.Platform) (*models.Platform, error)
	GetOrCreateMarket(ctx context.Context, m *models.Market) (*models.Market, error)
	GetOrCreateOutcome(ctx context.Context, o *models.Outcome) (*models.Outcome, error)

	InsertSnapshot(ctx context.Context, gameID uuid.UUID, snap *models.OddsSnapshot, policy models.DuplicatePolicy) (models.InsertResult, error)
	MarkClosingLines(ctx context.Context, gameID uuid.UUID, window time.Duration) (int, error)
	ListSnapshots(ctx context.Context, outcomeID uuid.UUID) ([]*models.OddsSnapshot, error)
	LatestOdds(ctx context.Context, gameID uuid.UUID) ([]*models.LatestOdds, error)
	ClosingLines(ctx context.Context, gameID uuid.UUID) ([]*models.ClosingLine, error)

	Ping(ctx context.Context) error
	Close() error
}
