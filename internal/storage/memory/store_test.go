package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cypherlabdev/odds-reconciler-service/internal/models"
)

var testPolicy = models.DuplicatePolicy{Window: time.Minute, Tolerance: 1e-4}

type testStoreSetup struct {
	store   *Store
	ctx     context.Context
	game    *models.Game
	outcome *models.Outcome
}

func setupTestStore(t *testing.T) *testStoreSetup {
	t.Helper()
	ctx := context.Background()
	store := NewStore()

	game := &models.Game{
		Sport:      "mlb",
		HomeTeamID: 2,
		AwayTeamID: 1,
		StartTime:  time.Date(2025, 6, 18, 23, 5, 0, 0, time.UTC),
		Status:     models.GameStatusScheduled,
	}
	require.NoError(t, store.CreateGame(ctx, game))

	platform, err := store.GetOrCreatePlatform(ctx, &models.Platform{Key: "draftkings", Name: "DraftKings", Type: models.PlatformTypeSportsbook, Region: "us"})
	require.NoError(t, err)
	market, err := store.GetOrCreateMarket(ctx, &models.Market{GameID: game.ID, PlatformID: platform.ID, Kind: models.MarketKindMoneyline, Name: "h2h"})
	require.NoError(t, err)
	outcome, err := store.GetOrCreateOutcome(ctx, &models.Outcome{MarketID: market.ID, Type: models.OutcomeHomeWin, Name: "New York Yankees"})
	require.NoError(t, err)

	return &testStoreSetup{store: store, ctx: ctx, game: game, outcome: outcome}
}

func (s *testStoreSetup) insert(t *testing.T, ts time.Time, odds float64) models.InsertResult {
	t.Helper()
	res, err := s.store.InsertSnapshot(s.ctx, s.game.ID, &models.OddsSnapshot{
		OutcomeID:   s.outcome.ID,
		Timestamp:   ts,
		DecimalOdds: odds,
	}, testPolicy)
	require.NoError(t, err)
	return res
}

func TestGetOrCreate_Idempotent(t *testing.T) {
	setup := setupTestStore(t)

	p1, err := setup.store.GetOrCreatePlatform(setup.ctx, &models.Platform{Key: "kalshi", Name: "Kalshi", Type: models.PlatformTypePredictionMarket})
	require.NoError(t, err)
	p2, err := setup.store.GetOrCreatePlatform(setup.ctx, &models.Platform{Key: "kalshi", Name: "Kalshi", Type: models.PlatformTypePredictionMarket})
	require.NoError(t, err)
	assert.Equal(t, p1.ID, p2.ID)

	eu, err := setup.store.GetOrCreatePlatform(setup.ctx, &models.Platform{Key: "kalshi", Region: "eu"})
	require.NoError(t, err)
	assert.NotEqual(t, p1.ID, eu.ID)

	m1, err := setup.store.GetOrCreateMarket(setup.ctx, &models.Market{GameID: setup.game.ID, PlatformID: p1.ID, Kind: models.MarketKindPrediction, Name: "old"})
	require.NoError(t, err)
	m2, err := setup.store.GetOrCreateMarket(setup.ctx, &models.Market{GameID: setup.game.ID, PlatformID: p1.ID, Kind: models.MarketKindPrediction, Name: "renamed"})
	require.NoError(t, err)
	assert.Equal(t, m1.ID, m2.ID)
	assert.Equal(t, "renamed", m2.Name)

	o1, err := setup.store.GetOrCreateOutcome(setup.ctx, &models.Outcome{MarketID: m1.ID, Type: models.OutcomeAwayWin, Name: "Boston Red Sox"})
	require.NoError(t, err)
	o2, err := setup.store.GetOrCreateOutcome(setup.ctx, &models.Outcome{MarketID: m1.ID, Type: models.OutcomeAwayWin, Name: "Red Sox"})
	require.NoError(t, err)
	assert.Equal(t, o1.ID, o2.ID)

	_, err = setup.store.GetOrCreateMarket(setup.ctx, &models.Market{GameID: uuid.New(), PlatformID: p1.ID, Kind: models.MarketKindPrediction})
	assert.ErrorIs(t, err, models.ErrGameNotFound)
}

func TestInsertSnapshot_DuplicateSuppression(t *testing.T) {
	setup := setupTestStore(t)
	base := time.Date(2025, 6, 18, 20, 0, 0, 0, time.UTC)

	assert.Equal(t, models.InsertResultInserted, setup.insert(t, base, 1.85))
	assert.Equal(t, models.InsertResultDuplicate, setup.insert(t, base.Add(30*time.Second), 1.85))
	assert.Equal(t, models.InsertResultDuplicate, setup.insert(t, base.Add(-30*time.Second), 1.85005))
	assert.Equal(t, models.InsertResultInserted, setup.insert(t, base.Add(30*time.Second), 1.86))
	assert.Equal(t, models.InsertResultInserted, setup.insert(t, base.Add(2*time.Minute), 1.85))

	snaps, err := setup.store.ListSnapshots(setup.ctx, setup.outcome.ID)
	require.NoError(t, err)
	require.Len(t, snaps, 3)
	assert.Equal(t, base, snaps[0].Timestamp)
	assert.Equal(t, 1.86, snaps[1].DecimalOdds)
}

func TestInsertSnapshot_CompletedGame(t *testing.T) {
	setup := setupTestStore(t)

	done, err := setup.store.CompleteGame(setup.ctx, setup.game.ID, 5, 3, models.ResultHomeWin)
	require.NoError(t, err)
	assert.True(t, done)

	assert.Equal(t, models.InsertResultGameCompleted, setup.insert(t, time.Now(), 1.9))

	again, err := setup.store.CompleteGame(setup.ctx, setup.game.ID, 5, 3, models.ResultHomeWin)
	require.NoError(t, err)
	assert.False(t, again)

	game, err := setup.store.GetGame(setup.ctx, setup.game.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GameStatusCompleted, game.Status)
	require.NotNil(t, game.HomeScore)
	assert.Equal(t, 5, *game.HomeScore)
	assert.Equal(t, models.ResultHomeWin, *game.Result)
}

func TestInsertSnapshot_UnknownGame(t *testing.T) {
	setup := setupTestStore(t)

	_, err := setup.store.InsertSnapshot(setup.ctx, uuid.New(), &models.OddsSnapshot{OutcomeID: setup.outcome.ID}, testPolicy)
	assert.ErrorIs(t, err, models.ErrGameNotFound)
}

func TestMarkClosingLines(t *testing.T) {
	setup := setupTestStore(t)
	start := setup.game.StartTime

	setup.insert(t, start.Add(-90*time.Minute), 1.80)
	setup.insert(t, start.Add(-70*time.Minute), 1.81)
	setup.insert(t, start.Add(-40*time.Minute), 1.82)
	setup.insert(t, start.Add(10*time.Minute), 1.83)

	flagged, err := setup.store.MarkClosingLines(setup.ctx, setup.game.ID, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, flagged)

	// re-running is a no-op
	flagged, err = setup.store.MarkClosingLines(setup.ctx, setup.game.ID, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, flagged)

	lines, err := setup.store.ClosingLines(setup.ctx, setup.game.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, start.Add(-40*time.Minute), lines[0].Snapshot.Timestamp)
	assert.Equal(t, 1.82, lines[0].Snapshot.DecimalOdds)
	assert.Equal(t, "draftkings", lines[0].PlatformKey)
	assert.Equal(t, models.OutcomeHomeWin, lines[0].OutcomeType)
}

func TestMarkClosingLines_NoSnapshotInWindow(t *testing.T) {
	setup := setupTestStore(t)
	start := setup.game.StartTime

	setup.insert(t, start.Add(-2*time.Hour), 1.80)
	setup.insert(t, start.Add(time.Minute), 1.83)

	flagged, err := setup.store.MarkClosingLines(setup.ctx, setup.game.ID, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 0, flagged)

	lines, err := setup.store.ClosingLines(setup.ctx, setup.game.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestMarkClosingLines_WindowIsInclusive(t *testing.T) {
	setup := setupTestStore(t)
	start := setup.game.StartTime

	setup.insert(t, start.Add(-time.Hour), 1.80)

	flagged, err := setup.store.MarkClosingLines(setup.ctx, setup.game.ID, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, flagged)

	setup2 := setupTestStore(t)
	setup2.insert(t, setup2.game.StartTime, 1.80)
	flagged, err = setup2.store.MarkClosingLines(setup2.ctx, setup2.game.ID, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, flagged)
}

func TestLatestOdds(t *testing.T) {
	setup := setupTestStore(t)
	base := time.Date(2025, 6, 18, 20, 0, 0, 0, time.UTC)

	setup.insert(t, base, 1.85)
	setup.insert(t, base.Add(5*time.Minute), 1.90)

	latest, err := setup.store.LatestOdds(setup.ctx, setup.game.ID)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, 1.90, latest[0].DecimalOdds)
	assert.Equal(t, "draftkings", latest[0].PlatformKey)
	assert.Equal(t, "us", latest[0].Region)
	assert.Equal(t, "draftkings-us:moneyline:home_win", latest[0].CacheKey())
}

func TestFindGames(t *testing.T) {
	setup := setupTestStore(t)
	start := setup.game.StartTime

	swapped := &models.Game{Sport: "mlb", HomeTeamID: 1, AwayTeamID: 2, StartTime: start.Add(24 * time.Hour), Status: models.GameStatusScheduled}
	require.NoError(t, setup.store.CreateGame(setup.ctx, swapped))

	direct, err := setup.store.FindGames(setup.ctx, models.GameFilter{Sport: "mlb", HomeTeamID: 2, AwayTeamID: 1})
	require.NoError(t, err)
	require.Len(t, direct, 1)
	assert.Equal(t, setup.game.ID, direct[0].ID)

	either, err := setup.store.FindGames(setup.ctx, models.GameFilter{Sport: "mlb", HomeTeamID: 2, AwayTeamID: 1, EitherOrder: true})
	require.NoError(t, err)
	require.Len(t, either, 2)
	assert.Equal(t, setup.game.ID, either[0].ID)
	assert.Equal(t, swapped.ID, either[1].ID)

	windowed, err := setup.store.FindGames(setup.ctx, models.GameFilter{
		Sport:       "mlb",
		HomeTeamID:  1,
		AwayTeamID:  2,
		EitherOrder: true,
		StartFrom:   start.Add(time.Hour),
	})
	require.NoError(t, err)
	require.Len(t, windowed, 1)
	assert.Equal(t, swapped.ID, windowed[0].ID)

	limited, err := setup.store.FindGames(setup.ctx, models.GameFilter{Sport: "mlb", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	_, err = setup.store.GetGame(setup.ctx, uuid.New())
	assert.ErrorIs(t, err, models.ErrGameNotFound)
}
