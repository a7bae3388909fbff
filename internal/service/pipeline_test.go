package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/cypherlabdev/odds-reconciler-service/internal/classifier"
	"github.com/cypherlabdev/odds-reconciler-service/internal/ingest"
	"github.com/cypherlabdev/odds-reconciler-service/internal/lock"
	"github.com/cypherlabdev/odds-reconciler-service/internal/mocks"
	"github.com/cypherlabdev/odds-reconciler-service/internal/models"
	"github.com/cypherlabdev/odds-reconciler-service/internal/reconciler"
	"github.com/cypherlabdev/odds-reconciler-service/internal/storage/memory"
	"github.com/cypherlabdev/odds-reconciler-service/pkg/teams"
)

// testPipelineSetup is a helper struct to hold test dependencies
type testPipelineSetup struct {
	pipeline *Pipeline
	buffer   *ingest.Buffer
	store    *memory.Store
	ctrl     *gomock.Controller
	ctx      context.Context
}

func setupTestPipeline(t *testing.T) *testPipelineSetup {
	ctrl := gomock.NewController(t)
	logger := zerolog.Nop()

	registry, err := teams.DefaultRegistry()
	require.NoError(t, err)

	store := memory.NewStore()
	mockCache := mocks.NewMockCache(ctrl)
	mockCache.EXPECT().SetBatch(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	buffer := ingest.NewBuffer(16, logger)
	rec := reconciler.NewReconciler(registry, store, lock.NewLocalLocker(), reconciler.DefaultParams(), logger)
	snapshots := NewSnapshotService(store, mockCache, classifier.NewClassifier(logger), DefaultSnapshotParams(), logger)

	return &testPipelineSetup{
		pipeline: NewPipeline(store, buffer, rec, snapshots, PipelineConfig{Workers: 4}, logger),
		buffer:   buffer,
		store:    store,
		ctrl:     ctrl,
		ctx:      context.Background(),
	}
}

// cleanup cleans up test resources
func (s *testPipelineSetup) cleanup() {
	s.ctrl.Finish()
}

func polymarketBatch() *models.SourceBatch {
	at := gameStart.Add(-50 * time.Minute)
	base := models.Quote{
		PlatformKey:  models.SourcePolymarket,
		PlatformType: models.PlatformTypePredictionMarket,
		MarketKind:   models.MarketKindPrediction,
		MarketName:   "Yankees vs. Red Sox",
		Side:         models.SideContext{Title: "Yankees vs. Red Sox Will the Yankees win?"},
		ObservedAt:   at,
	}
	yes, no := base, base
	yes.OutcomeName, yes.DecimalOdds = "Yes - Will the Yankees win?", 1/0.6
	no.OutcomeName, no.DecimalOdds, no.Negated = "No - Will the Yankees win?", 1/0.4, true

	return &models.SourceBatch{
		Source: models.SourcePolymarket,
		Role:   models.RoleCreating,
		Events: []models.EventCandidate{{
			Sport:       "mlb",
			HomeTeam:    "New York Yankees",
			AwayTeam:    "Boston Red Sox",
			StartTime:   gameStart,
			TimeTrusted: true,
			Quotes:      []models.Quote{yes, no},
		}},
	}
}

func oddsAPIBatch(at time.Time) *models.SourceBatch {
	return &models.SourceBatch{
		Source:  models.SourceOddsAPI,
		Role:    models.RoleAttaching,
		Skipped: 2,
		Events: []models.EventCandidate{
			{
				Sport:     "mlb",
				HomeTeam:  "Boston Red Sox",
				AwayTeam:  "New York Yankees",
				StartTime: gameStart.Add(5 * time.Minute),
				Quotes: []models.Quote{
					bookQuote("Boston Red Sox", 2.1, at),
					bookQuote("New York Yankees", 1.8, at),
				},
			},
			{
				Sport:     "mlb",
				HomeTeam:  "New York Mets",
				AwayTeam:  "Philadelphia Phillies",
				StartTime: gameStart,
				Quotes:    []models.Quote{bookQuote("New York Mets", 1.9, at)},
			},
		},
	}
}

func TestRunCycle_FullLifecycle(t *testing.T) {
	setup := setupTestPipeline(t)
	defer setup.cleanup()

	// cycle 1: Polymarket creates the game, The Odds API attaches to it
	setup.buffer.Push(oddsAPIBatch(gameStart.Add(-30 * time.Minute)))
	setup.buffer.Push(polymarketBatch())
	setup.buffer.Fail(models.SourceKalshi, errors.New("malformed payload"))

	report, err := setup.pipeline.RunCycle(setup.ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, report.GamesReconciled)
	assert.Equal(t, 4, report.SnapshotsInserted)
	assert.Equal(t, 1, report.EventsUnmatched)
	assert.Equal(t, 2, report.ItemsSkipped)
	assert.Equal(t, []string{"kalshi: malformed payload"}, report.SourceFailures)

	games, err := setup.store.FindGames(setup.ctx, models.GameFilter{Sport: "mlb"})
	require.NoError(t, err)
	require.Len(t, games, 1)
	game := games[0]
	assert.Equal(t, "New York Yankees", game.HomeTeamNormalized)

	latest, err := setup.store.LatestOdds(setup.ctx, game.ID)
	require.NoError(t, err)
	keys := make([]string, 0, len(latest))
	for _, l := range latest {
		keys = append(keys, l.CacheKey())
	}
	assert.Equal(t, []string{
		"draftkings-us:moneyline:away_win",
		"draftkings-us:moneyline:home_win",
		"polymarket:prediction:away_win",
		"polymarket:prediction:home_win",
	}, keys)

	// cycle 2: final score reported in the opposite orientation
	setup.buffer.Push(&models.SourceBatch{
		Source: models.SourceOddsAPI,
		Role:   models.RoleAttaching,
		Completions: []models.GameCompletion{{
			Sport:     "mlb",
			HomeTeam:  "Boston Red Sox",
			AwayTeam:  "New York Yankees",
			StartTime: gameStart.Add(5 * time.Minute),
			HomeScore: 2,
			AwayScore: 7,
		}},
	})

	report, err = setup.pipeline.RunCycle(setup.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.GamesCompleted)

	completed, err := setup.store.GetGame(setup.ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GameStatusCompleted, completed.Status)
	assert.Equal(t, 7, *completed.HomeScore)
	assert.Equal(t, models.ResultHomeWin, *completed.Result)

	lines, err := setup.store.ClosingLines(setup.ctx, game.ID)
	require.NoError(t, err)
	assert.Len(t, lines, 4)

	// cycle 3: late odds for the completed game are refused
	setup.buffer.Push(oddsAPIBatch(gameStart.Add(3 * time.Hour)))

	report, err = setup.pipeline.RunCycle(setup.ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.SnapshotsInserted)
	assert.Equal(t, 2, report.SnapshotsStale)
}

func TestRunCycle_KalshiSidesDevigTogether(t *testing.T) {
	setup := setupTestPipeline(t)
	defer setup.cleanup()

	setup.buffer.Push(polymarketBatch())
	_, err := setup.pipeline.RunCycle(setup.ctx)
	require.NoError(t, err)

	kalshi := func(ticker string, p float64) models.EventCandidate {
		return models.EventCandidate{
			Sport:       "mlb",
			HomeTeam:    "New York Yankees",
			AwayTeam:    "Boston Red Sox",
			Unordered:   true,
			StartTime:   gameStart,
			TimeTrusted: true,
			Quotes: []models.Quote{{
				PlatformKey:  models.SourceKalshi,
				PlatformType: models.PlatformTypePredictionMarket,
				MarketKind:   models.MarketKindPrediction,
				OutcomeName:  ticker,
				Side:         models.SideContext{Code: ticker},
				DecimalOdds:  1 / p,
				ObservedAt:   gameStart.Add(-2 * time.Hour),
			}},
		}
	}
	setup.buffer.Push(&models.SourceBatch{
		Source: models.SourceKalshi,
		Role:   models.RoleAttaching,
		Events: []models.EventCandidate{
			kalshi("KXMLBGAME-25JUN181905NYYBOS-NYY", 0.58),
			kalshi("KXMLBGAME-25JUN181905NYYBOS-BOS", 0.46),
		},
	})

	report, err := setup.pipeline.RunCycle(setup.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.GamesReconciled)
	assert.Equal(t, 2, report.SnapshotsInserted)

	games, err := setup.store.FindGames(setup.ctx, models.GameFilter{})
	require.NoError(t, err)
	require.Len(t, games, 1)

	latest, err := setup.store.LatestOdds(setup.ctx, games[0].ID)
	require.NoError(t, err)
	total := 0.0
	for _, l := range latest {
		if l.PlatformKey == models.SourceKalshi {
			total += l.DevigProbability
		}
	}
	assert.InDelta(t, 1.0, total, 1e-9)
}

func TestRunCycle_KeepsEveryObservationOfACycle(t *testing.T) {
	setup := setupTestPipeline(t)
	defer setup.cleanup()

	setup.buffer.Push(polymarketBatch())
	_, err := setup.pipeline.RunCycle(setup.ctx)
	require.NoError(t, err)

	// two polls of the same book land in one cycle
	setup.buffer.Push(oddsAPIBatch(gameStart.Add(-50 * time.Minute)))
	setup.buffer.Push(oddsAPIBatch(gameStart.Add(-20 * time.Minute)))

	report, err := setup.pipeline.RunCycle(setup.ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, report.SnapshotsInserted)
	assert.Equal(t, 0, report.SnapshotsDuplicate)

	games, err := setup.store.FindGames(setup.ctx, models.GameFilter{Sport: "mlb"})
	require.NoError(t, err)
	require.Len(t, games, 1)

	latest, err := setup.store.LatestOdds(setup.ctx, games[0].ID)
	require.NoError(t, err)
	for _, l := range latest {
		if l.PlatformKey == "draftkings" {
			assert.Equal(t, gameStart.Add(-20*time.Minute), l.Timestamp)
		}
	}
}

func TestRunCycle_EmptyBuffer(t *testing.T) {
	setup := setupTestPipeline(t)
	defer setup.cleanup()

	report, err := setup.pipeline.RunCycle(setup.ctx)
	require.NoError(t, err)
	assert.Equal(t, models.CycleReport{StartedAt: report.StartedAt, Duration: report.Duration}, *report)
}

func TestRunCycle_StoreUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	logger := zerolog.Nop()

	registry, err := teams.DefaultRegistry()
	require.NoError(t, err)

	mockStore := mocks.NewMockStore(ctrl)
	mockStore.EXPECT().Ping(gomock.Any()).Return(errors.New("connection refused"))

	buffer := ingest.NewBuffer(4, logger)
	buffer.Push(polymarketBatch())

	rec := reconciler.NewReconciler(registry, mockStore, lock.NewLocalLocker(), reconciler.DefaultParams(), logger)
	snapshots := NewSnapshotService(mockStore, mocks.NewMockCache(ctrl), classifier.NewClassifier(logger), DefaultSnapshotParams(), logger)
	pipeline := NewPipeline(mockStore, buffer, rec, snapshots, PipelineConfig{}, logger)

	report, err := pipeline.RunCycle(context.Background())
	assert.Error(t, err)
	assert.Nil(t, report)
	assert.Equal(t, 1, buffer.Len(), "batches stay buffered for the next cycle")
	assert.Equal(t, DefaultWorkers, pipeline.workers)
}
