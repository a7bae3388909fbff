package postgres

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cypherlabdev/odds-reconciler-service/internal/models"
	"github.com/cypherlabdev/odds-reconciler-service/pkg/teams"
)

func TestBuildGameFilter(t *testing.T) {
	from := time.Date(2025, 6, 18, 20, 0, 0, 0, time.UTC)
	to := from.Add(6 * time.Hour)

	tests := []struct {
		name      string
		filter    models.GameFilter
		wantWhere string
		wantArgs  []interface{}
	}{
		{
			name:      "empty",
			filter:    models.GameFilter{},
			wantWhere: "",
		},
		{
			name:      "sport and date",
			filter:    models.GameFilter{Sport: "mlb", LocalDate: "2025-06-18"},
			wantWhere: "g.sport = $1 AND g.local_date = $2",
			wantArgs:  []interface{}{"mlb", "2025-06-18"},
		},
		{
			name:      "given orientation",
			filter:    models.GameFilter{HomeTeamID: 2, AwayTeamID: 1, Status: models.GameStatusScheduled},
			wantWhere: "g.home_team_id = $1 AND g.away_team_id = $2 AND g.status = $3",
			wantArgs:  []interface{}{2, 1, "scheduled"},
		},
		{
			name:      "either orientation in a window",
			filter:    models.GameFilter{Sport: "mlb", HomeTeamID: 2, AwayTeamID: 1, EitherOrder: true, StartFrom: from, StartTo: to},
			wantWhere: "g.sport = $1 AND ((g.home_team_id = $2 AND g.away_team_id = $3) OR (g.home_team_id = $4 AND g.away_team_id = $5)) AND g.start_time >= $6 AND g.start_time <= $7",
			wantArgs:  []interface{}{"mlb", 2, 1, 1, 2, from, to},
		},
		{
			name:      "one team either side",
			filter:    models.GameFilter{HomeTeamID: 2, EitherOrder: true},
			wantWhere: "((g.home_team_id = $1) OR (g.away_team_id = $2))",
			wantArgs:  []interface{}{2, 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := buildGameFilter(tt.filter)
			assert.Equal(t, tt.wantWhere, where)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestNewStore_RequiresDSN(t *testing.T) {
	_, err := NewStore(context.Background(), Config{}, zerolog.Nop())
	assert.Error(t, err)
}

// setupTestStore connects to the database named by ODDS_RECONCILER_TEST_POSTGRES_DSN
func setupTestStore(t *testing.T) (*Store, *models.Game) {
	dsn := os.Getenv("ODDS_RECONCILER_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("ODDS_RECONCILER_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	store, err := NewStore(ctx, Config{DSN: dsn}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	registry, err := teams.DefaultRegistry()
	require.NoError(t, err)
	require.NoError(t, store.SeedTeams(ctx, registry.Teams("mlb")))

	now := time.Now().UTC()
	start := now.Add(48 * time.Hour).Truncate(time.Second)
	game := &models.Game{
		ID:                 uuid.New(),
		Sport:              "mlb",
		HomeTeam:           "New York Yankees",
		AwayTeam:           "Boston Red Sox",
		HomeTeamID:         2,
		AwayTeamID:         1,
		HomeTeamNormalized: "New York Yankees",
		AwayTeamNormalized: "Boston Red Sox",
		StartTime:          start,
		LocalDate:          start.Format(models.LocalDateLayout),
		Season:             start.Format("2006"),
		Status:             models.GameStatusScheduled,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	require.NoError(t, store.CreateGame(ctx, game))

	return store, game
}

func TestStore_SnapshotLifecycle(t *testing.T) {
	store, game := setupTestStore(t)
	ctx := context.Background()

	fetched, err := store.GetGame(ctx, game.ID)
	require.NoError(t, err)
	assert.True(t, game.StartTime.Equal(fetched.StartTime))
	assert.Equal(t, "America/New_York", fetched.StartTimeLocal.Location().String())

	games, err := store.FindGames(ctx, models.GameFilter{
		HomeTeamID:  1,
		AwayTeamID:  2,
		EitherOrder: true,
		StartFrom:   game.StartTime.Add(-time.Minute),
		StartTo:     game.StartTime.Add(time.Minute),
	})
	require.NoError(t, err)
	require.Len(t, games, 1)

	platform, err := store.GetOrCreatePlatform(ctx, &models.Platform{Key: "draftkings", Name: "DraftKings", Type: models.PlatformTypeSportsbook, Region: "us"})
	require.NoError(t, err)
	again, err := store.GetOrCreatePlatform(ctx, &models.Platform{Key: "draftkings", Type: models.PlatformTypeSportsbook, Region: "us"})
	require.NoError(t, err)
	assert.Equal(t, platform.ID, again.ID)
	assert.Equal(t, "DraftKings", again.Name)

	market, err := store.GetOrCreateMarket(ctx, &models.Market{GameID: game.ID, PlatformID: platform.ID, Kind: models.MarketKindMoneyline, Name: "h2h"})
	require.NoError(t, err)
	outcome, err := store.GetOrCreateOutcome(ctx, &models.Outcome{MarketID: market.ID, Type: models.OutcomeHomeWin, Name: "New York Yankees"})
	require.NoError(t, err)

	policy := models.DuplicatePolicy{Window: time.Minute, Tolerance: 1e-4}
	insert := func(offset time.Duration, odds float64) models.InsertResult {
		res, err := store.InsertSnapshot(ctx, game.ID, &models.OddsSnapshot{
			OutcomeID:   outcome.ID,
			Timestamp:   game.StartTime.Add(offset),
			DecimalOdds: odds,
		}, policy)
		require.NoError(t, err)
		return res
	}

	assert.Equal(t, models.InsertResultInserted, insert(-90*time.Minute, 1.80))
	assert.Equal(t, models.InsertResultDuplicate, insert(-90*time.Minute+30*time.Second, 1.80))
	assert.Equal(t, models.InsertResultInserted, insert(-70*time.Minute, 1.82))
	assert.Equal(t, models.InsertResultInserted, insert(-40*time.Minute, 1.85))
	assert.Equal(t, models.InsertResultInserted, insert(10*time.Minute, 1.60))

	latest, err := store.LatestOdds(ctx, game.ID)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, 1.60, latest[0].DecimalOdds)

	done, err := store.CompleteGame(ctx, game.ID, 5, 3, models.ResultHomeWin)
	require.NoError(t, err)
	assert.True(t, done)
	done, err = store.CompleteGame(ctx, game.ID, 5, 3, models.ResultHomeWin)
	require.NoError(t, err)
	assert.False(t, done)

	assert.Equal(t, models.InsertResultGameCompleted, insert(20*time.Minute, 1.50))

	flagged, err := store.MarkClosingLines(ctx, game.ID, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, flagged)

	lines, err := store.ClosingLines(ctx, game.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 1.85, lines[0].Snapshot.DecimalOdds)

	snaps, err := store.ListSnapshots(ctx, outcome.ID)
	require.NoError(t, err)
	require.Len(t, snaps, 4)
	closing := 0
	for _, s := range snaps {
		if s.IsClosingLine {
			closing++
		}
	}
	assert.Equal(t, 1, closing)
}

func TestStore_ConcurrentInsertsStoreOnce(t *testing.T) {
	store, game := setupTestStore(t)
	ctx := context.Background()

	platform, err := store.GetOrCreatePlatform(ctx, &models.Platform{Key: "fanduel", Name: "FanDuel", Type: models.PlatformTypeSportsbook, Region: "us"})
	require.NoError(t, err)
	market, err := store.GetOrCreateMarket(ctx, &models.Market{GameID: game.ID, PlatformID: platform.ID, Kind: models.MarketKindMoneyline, Name: "h2h"})
	require.NoError(t, err)
	outcome, err := store.GetOrCreateOutcome(ctx, &models.Outcome{MarketID: market.ID, Type: models.OutcomeAwayWin, Name: "Boston Red Sox"})
	require.NoError(t, err)

	const writers = 8
	policy := models.DuplicatePolicy{Window: time.Minute, Tolerance: 1e-4}
	results := make([]models.InsertResult, writers)
	errs := make([]error, writers)

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = store.InsertSnapshot(ctx, game.ID, &models.OddsSnapshot{
				OutcomeID:   outcome.ID,
				Timestamp:   game.StartTime.Add(-time.Hour),
				DecimalOdds: 2.10,
			}, policy)
		}(i)
	}
	wg.Wait()

	inserted := 0
	for i := 0; i < writers; i++ {
		require.NoError(t, errs[i])
		if results[i] == models.InsertResultInserted {
			inserted++
		} else {
			assert.Equal(t, models.InsertResultDuplicate, results[i])
		}
	}
	assert.Equal(t, 1, inserted)

	snaps, err := store.ListSnapshots(ctx, outcome.ID)
	require.NoError(t, err)
	assert.Len(t, snaps, 1)
}

func TestStore_UnknownGame(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	_, err := store.GetGame(ctx, uuid.New())
	assert.ErrorIs(t, err, models.ErrGameNotFound)

	_, err = store.CompleteGame(ctx, uuid.New(), 1, 0, models.ResultHomeWin)
	assert.ErrorIs(t, err, models.ErrGameNotFound)

	_, err = store.MarkClosingLines(ctx, uuid.New(), time.Hour)
	assert.ErrorIs(t, err, models.ErrGameNotFound)
}
