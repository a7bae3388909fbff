package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/odds-reconciler-service/internal/models"
	"github.com/cypherlabdev/odds-reconciler-service/pkg/teams"
)

// QueryService serves reads over games, odds and teams
type QueryService struct {
	store    Store
	cache    Cache
	registry *teams.Registry
	logger   zerolog.Logger
}

// NewQueryService creates a new query service
func NewQueryService(store Store, cache Cache, registry *teams.Registry, logger zerolog.Logger) *QueryService {
	return &QueryService{
		store:    store,
		cache:    cache,
		registry: registry,
		logger:   logger.With().Str("component", "query_service").Logger(),
	}
}

// ListGames returns games matching filter
func (s *QueryService) ListGames(ctx context.Context, filter models.GameFilter) ([]*models.Game, error) {
	games, err := s.store.FindGames(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	return games, nil
}

// GetGame returns one game
func (s *QueryService) GetGame(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	return s.store.GetGame(ctx, id)
}

// LatestOdds retrieves the latest de-vigged prices of a game with a cache-first strategy
func (s *QueryService) LatestOdds(ctx context.Context, gameID uuid.UUID) ([]*models.LatestOdds, error) {
	cached, err := s.cache.GetByGame(ctx, gameID)
	if err == nil && len(cached) > 0 {
		s.logger.Debug().
			Str("game_id", gameID.String()).
			Int("count", len(cached)).
			Msg("cache hit for latest odds")
		return cached, nil
	}

	// Log cache errors (but don't fail on them)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("game_id", gameID.String()).
			Msg("cache error, reading latest odds from store")
	}

	if _, err := s.store.GetGame(ctx, gameID); err != nil {
		return nil, err
	}

	latest, err := s.store.LatestOdds(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to read latest odds: %w", err)
	}

	if len(latest) > 0 {
		if err := s.cache.SetBatch(ctx, latest); err != nil {
			s.logger.Warn().
				Err(err).
				Str("game_id", gameID.String()).
				Msg("failed to warm latest odds cache")
		}
	}

	return latest, nil
}

// ClosingLines returns the flagged closing snapshots of a game
func (s *QueryService) ClosingLines(ctx context.Context, gameID uuid.UUID) ([]*models.ClosingLine, error) {
	if _, err := s.store.GetGame(ctx, gameID); err != nil {
		return nil, err
	}

	lines, err := s.store.ClosingLines(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to read closing lines: %w", err)
	}
	return lines, nil
}

// Snapshots returns the price history of one outcome, oldest first
func (s *QueryService) Snapshots(ctx context.Context, outcomeID uuid.UUID) ([]*models.OddsSnapshot, error) {
	snaps, err := s.store.ListSnapshots(ctx, outcomeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return snaps, nil
}

// ResolveTeam resolves a free-form team name
func (s *QueryService) ResolveTeam(name, sport string) (*teams.Team, error) {
	team, ok := s.registry.Resolve(name, sport)
	if !ok {
		return nil, &models.UnknownTeamError{Name: name, Sport: sport}
	}
	return team, nil
}

// Ready checks the store and the cache
func (s *QueryService) Ready(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := s.cache.Ping(ctx); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	return nil
}
