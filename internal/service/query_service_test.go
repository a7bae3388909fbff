package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/cypherlabdev/odds-reconciler-service/internal/mocks"
	"github.com/cypherlabdev/odds-reconciler-service/internal/models"
	"github.com/cypherlabdev/odds-reconciler-service/internal/storage/memory"
	"github.com/cypherlabdev/odds-reconciler-service/pkg/teams"
)

// testQuerySetup is a helper struct to hold test dependencies
type testQuerySetup struct {
	service   *QueryService
	store     *memory.Store
	mockCache *mocks.MockCache
	game      *models.Game
	ctrl      *gomock.Controller
	ctx       context.Context
}

func setupTestQueryService(t *testing.T) *testQuerySetup {
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	registry, err := teams.DefaultRegistry()
	require.NoError(t, err)

	store := memory.NewStore()
	game := &models.Game{
		ID:                 uuid.New(),
		Sport:              "mlb",
		HomeTeam:           "New York Yankees",
		AwayTeam:           "Boston Red Sox",
		HomeTeamID:         2,
		AwayTeamID:         1,
		HomeTeamNormalized: "New York Yankees",
		AwayTeamNormalized: "Boston Red Sox",
		StartTime:          gameStart,
		LocalDate:          "2025-06-18",
		Status:             models.GameStatusScheduled,
	}
	require.NoError(t, store.CreateGame(ctx, game))

	mockCache := mocks.NewMockCache(ctrl)

	return &testQuerySetup{
		service:   NewQueryService(store, mockCache, registry, zerolog.Nop()),
		store:     store,
		mockCache: mockCache,
		game:      game,
		ctrl:      ctrl,
		ctx:       ctx,
	}
}

// cleanup cleans up test resources
func (s *testQuerySetup) cleanup() {
	s.ctrl.Finish()
}

// seedOdds stores one moneyline book for the test game
func (s *testQuerySetup) seedOdds(t *testing.T) {
	platform, err := s.store.GetOrCreatePlatform(s.ctx, &models.Platform{Key: "draftkings", Region: "us", Type: models.PlatformTypeSportsbook})
	require.NoError(t, err)
	market, err := s.store.GetOrCreateMarket(s.ctx, &models.Market{GameID: s.game.ID, PlatformID: platform.ID, Kind: models.MarketKindMoneyline})
	require.NoError(t, err)

	for _, side := range []struct {
		outcome models.OutcomeType
		odds    float64
	}{
		{models.OutcomeHomeWin, 1.8},
		{models.OutcomeAwayWin, 2.1},
	} {
		outcome, err := s.store.GetOrCreateOutcome(s.ctx, &models.Outcome{MarketID: market.ID, Type: side.outcome})
		require.NoError(t, err)
		res, err := s.store.InsertSnapshot(s.ctx, s.game.ID, &models.OddsSnapshot{
			ID:          uuid.New(),
			OutcomeID:   outcome.ID,
			Timestamp:   gameStart.Add(-40 * time.Minute),
			DecimalOdds: side.odds,
		}, DefaultSnapshotParams().policy())
		require.NoError(t, err)
		require.Equal(t, models.InsertResultInserted, res)
	}
}

func TestLatestOdds_CacheHit(t *testing.T) {
	setup := setupTestQueryService(t)
	defer setup.cleanup()

	cached := []*models.LatestOdds{{
		GameID:      setup.game.ID,
		PlatformKey: "polymarket",
		MarketKind:  models.MarketKindPrediction,
		OutcomeType: models.OutcomeHomeWin,
		DecimalOdds: 1.7,
	}}
	setup.mockCache.EXPECT().GetByGame(setup.ctx, setup.game.ID).Return(cached, nil)

	latest, err := setup.service.LatestOdds(setup.ctx, setup.game.ID)
	require.NoError(t, err)
	assert.Equal(t, cached, latest)
}

func TestLatestOdds_CacheMissWarmsCache(t *testing.T) {
	setup := setupTestQueryService(t)
	defer setup.cleanup()
	setup.seedOdds(t)

	gomock.InOrder(
		setup.mockCache.EXPECT().GetByGame(setup.ctx, setup.game.ID).Return(nil, nil),
		setup.mockCache.EXPECT().SetBatch(setup.ctx, gomock.Len(2)).Return(nil),
	)

	latest, err := setup.service.LatestOdds(setup.ctx, setup.game.ID)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, "draftkings-us:moneyline:away_win", latest[0].CacheKey())
	assert.Equal(t, 2.1, latest[0].DecimalOdds)
	assert.Equal(t, "draftkings-us:moneyline:home_win", latest[1].CacheKey())
}

func TestLatestOdds_CacheErrorFallsBackToStore(t *testing.T) {
	setup := setupTestQueryService(t)
	defer setup.cleanup()
	setup.seedOdds(t)

	setup.mockCache.EXPECT().GetByGame(gomock.Any(), gomock.Any()).Return(nil, errors.New("redis down"))
	setup.mockCache.EXPECT().SetBatch(gomock.Any(), gomock.Any()).Return(errors.New("redis down"))

	latest, err := setup.service.LatestOdds(setup.ctx, setup.game.ID)
	require.NoError(t, err)
	assert.Len(t, latest, 2)
}

func TestLatestOdds_UnknownGame(t *testing.T) {
	setup := setupTestQueryService(t)
	defer setup.cleanup()

	setup.mockCache.EXPECT().GetByGame(gomock.Any(), gomock.Any()).Return(nil, nil)

	_, err := setup.service.LatestOdds(setup.ctx, uuid.New())
	assert.ErrorIs(t, err, models.ErrGameNotFound)
}

func TestClosingLines(t *testing.T) {
	setup := setupTestQueryService(t)
	defer setup.cleanup()
	setup.seedOdds(t)

	lines, err := setup.service.ClosingLines(setup.ctx, setup.game.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)

	done, err := setup.store.CompleteGame(setup.ctx, setup.game.ID, 4, 2, models.ResultHomeWin)
	require.NoError(t, err)
	require.True(t, done)
	flagged, err := setup.store.MarkClosingLines(setup.ctx, setup.game.ID, time.Hour)
	require.NoError(t, err)
	require.Equal(t, 2, flagged)

	lines, err = setup.service.ClosingLines(setup.ctx, setup.game.ID)
	require.NoError(t, err)
	assert.Len(t, lines, 2)

	_, err = setup.service.ClosingLines(setup.ctx, uuid.New())
	assert.ErrorIs(t, err, models.ErrGameNotFound)
}

func TestListGames(t *testing.T) {
	setup := setupTestQueryService(t)
	defer setup.cleanup()

	games, err := setup.service.ListGames(setup.ctx, models.GameFilter{Sport: "mlb", LocalDate: "2025-06-18"})
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, setup.game.ID, games[0].ID)

	games, err = setup.service.ListGames(setup.ctx, models.GameFilter{Sport: "mlb", LocalDate: "2025-06-19"})
	require.NoError(t, err)
	assert.Empty(t, games)
}

func TestResolveTeam(t *testing.T) {
	setup := setupTestQueryService(t)
	defer setup.cleanup()

	team, err := setup.service.ResolveTeam("yanks", "mlb")
	require.NoError(t, err)
	assert.Equal(t, "New York Yankees", team.CanonicalName)

	_, err = setup.service.ResolveTeam("Springfield Isotopes", "mlb")
	assert.ErrorIs(t, err, models.ErrUnknownTeam)
}

func TestReady(t *testing.T) {
	setup := setupTestQueryService(t)
	defer setup.cleanup()

	setup.mockCache.EXPECT().Ping(gomock.Any()).Return(nil)
	assert.NoError(t, setup.service.Ready(setup.ctx))

	setup.mockCache.EXPECT().Ping(gomock.Any()).Return(errors.New("connection refused"))
	err := setup.service.Ready(setup.ctx)
	assert.ErrorContains(t, err, "cache")
}
