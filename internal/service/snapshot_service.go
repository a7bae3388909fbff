package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/odds-reconciler-service/internal/classifier"
	"github.com/cypherlabdev/odds-reconciler-service/internal/metrics"
	"github.com/cypherlabdev/odds-reconciler-service/internal/models"
	"github.com/cypherlabdev/odds-reconciler-service/pkg/devig"
)

// SnapshotParams holds the snapshot bookkeeping rules
type SnapshotParams struct {
	DuplicateWindow    time.Duration // |Δt| below which equal odds repeat a snapshot
	DuplicateTolerance float64       // |Δodds| below which odds count as equal
	ClosingWindow      time.Duration // closing line: latest snapshot in [start - window, start]
}

// DefaultSnapshotParams returns the standard bookkeeping rules
func DefaultSnapshotParams() SnapshotParams {
	return SnapshotParams{
		DuplicateWindow:    time.Minute,
		DuplicateTolerance: 1e-4,
		ClosingWindow:      time.Hour,
	}
}

func (p SnapshotParams) policy() models.DuplicatePolicy {
	return models.DuplicatePolicy{Window: p.DuplicateWindow, Tolerance: p.DuplicateTolerance}
}

// StoreResult counts what happened to the quotes of one game
type StoreResult struct {
	Inserted  int
	Duplicate int
	Stale     int
	Skipped   int // not priced: invalid odds or a second quote for an outcome already priced
}

func (r *StoreResult) add(o StoreResult) {
	r.Inserted += o.Inserted
	r.Duplicate += o.Duplicate
	r.Stale += o.Stale
	r.Skipped += o.Skipped
}

// SnapshotService classifies, de-vigs and persists quotes for a game
type SnapshotService struct {
	store      Store
	cache      Cache
	classifier *classifier.Classifier
	params     SnapshotParams
	now        func() time.Time
	logger     zerolog.Logger
}

// NewSnapshotService creates a new snapshot service
func NewSnapshotService(
	store Store,
	cache Cache,
	classifier *classifier.Classifier,
	params SnapshotParams,
	logger zerolog.Logger,
) *SnapshotService {
	return &SnapshotService{
		store:      store,
		cache:      cache,
		classifier: classifier,
		params:     params,
		now:        time.Now,
		logger:     logger.With().Str("component", "snapshot_service").Logger(),
	}
}

// StoreQuotes stores the quotes one or more sources offered for game.
//
// Quotes are classified against the game's teams, grouped by (platform,
// region, market kind) and de-vigged per group, so both sides of a book are
// de-vigged together. Within a group only the first quote per outcome type
// is kept. Each snapshot goes through the store's guarded insert; refused
// inserts are counted, never returned as errors.
func (s *SnapshotService) StoreQuotes(ctx context.Context, game *models.Game, pair classifier.Pair, quotes []models.Quote) (StoreResult, error) {
	var result StoreResult
	if len(quotes) == 0 {
		return result, nil
	}

	groups, order := s.group(pair, quotes, &result)

	latest := make(map[string]*models.LatestOdds)
	for _, key := range order {
		priced, err := price(groups[key])
		if err != nil {
			result.Skipped += len(groups[key])
			s.logger.Warn().
				Err(err).
				Str("game_id", game.ID.String()).
				Str("price_key", key).
				Msg("could not de-vig quote group")
			continue
		}

		for _, pq := range priced {
			res, stored, err := s.storeOne(ctx, game, pq)
			if err != nil {
				return result, err
			}
			result.add(res)
			if stored != nil {
				slot := stored.CacheKey()
				if prev, ok := latest[slot]; !ok || !stored.Timestamp.Before(prev.Timestamp) {
					latest[slot] = stored
				}
			}
		}
	}

	if len(latest) > 0 {
		batch := make([]*models.LatestOdds, 0, len(latest))
		for _, l := range latest {
			batch = append(batch, l)
		}
		sort.Slice(batch, func(i, j int) bool { return batch[i].CacheKey() < batch[j].CacheKey() })

		if err := s.cache.SetBatch(ctx, batch); err != nil {
			s.logger.Warn().
				Err(err).
				Str("game_id", game.ID.String()).
				Int("count", len(latest)).
				Msg("failed to cache latest odds")
			// Don't fail the write on cache errors
		}
	}

	s.logger.Debug().
		Str("game_id", game.ID.String()).
		Int("quotes", len(quotes)).
		Int("inserted", result.Inserted).
		Int("duplicate", result.Duplicate).
		Int("stale", result.Stale).
		Int("skipped", result.Skipped).
		Msg("stored quotes")

	return result, nil
}

// group classifies quotes and buckets them by price key and observation
// time, so each observation is de-vigged with the sides quoted alongside it.
// Groups are returned oldest observation first.
func (s *SnapshotService) group(pair classifier.Pair, quotes []models.Quote, result *StoreResult) (map[string][]models.ClassifiedQuote, []string) {
	groups := make(map[string][]models.ClassifiedQuote)
	observed := make(map[string]time.Time)
	seen := make(map[string]bool)
	var order []string

	for _, q := range quotes {
		cq := s.classifier.ClassifyQuote(q, pair)
		key := q.PriceKey() + "@" + q.ObservedAt.UTC().Format(time.RFC3339Nano)

		slot := key + "|" + string(cq.OutcomeType)
		if seen[slot] {
			result.Skipped++
			s.logger.Debug().
				Str("price_key", key).
				Str("outcome", string(cq.OutcomeType)).
				Str("outcome_name", q.OutcomeName).
				Msg("outcome already priced in group")
			continue
		}
		seen[slot] = true

		if _, ok := groups[key]; !ok {
			order = append(order, key)
			observed[key] = q.ObservedAt
		}
		groups[key] = append(groups[key], cq)
	}

	sort.SliceStable(order, func(i, j int) bool {
		return observed[order[i]].Before(observed[order[j]])
	})

	return groups, order
}

// price de-vigs one group of quotes together
func price(group []models.ClassifiedQuote) ([]models.PricedQuote, error) {
	odds := make([]float64, len(group))
	for i, cq := range group {
		odds[i] = cq.DecimalOdds
	}

	res, err := devig.Devig(odds)
	if err != nil {
		return nil, err
	}

	priced := make([]models.PricedQuote, len(group))
	for i, cq := range group {
		priced[i] = models.PricedQuote{
			ClassifiedQuote:  cq,
			RawProbability:   res.RawProbabilities[i],
			DevigProbability: res.Probabilities[i],
			DevigDecimalOdds: res.DecimalOdds[i],
		}
	}
	return priced, nil
}

func (s *SnapshotService) storeOne(ctx context.Context, game *models.Game, pq models.PricedQuote) (StoreResult, *models.LatestOdds, error) {
	var result StoreResult

	platform, err := s.store.GetOrCreatePlatform(ctx, &models.Platform{
		Key:    pq.PlatformKey,
		Name:   pq.PlatformName,
		Type:   pq.PlatformType,
		Region: pq.Region,
	})
	if err != nil {
		return result, nil, fmt.Errorf("failed to get platform: %w", err)
	}

	market, err := s.store.GetOrCreateMarket(ctx, &models.Market{
		GameID:     game.ID,
		PlatformID: platform.ID,
		Kind:       pq.MarketKind,
		Name:       pq.MarketName,
		Identifier: pq.Identifier,
	})
	if err != nil {
		return result, nil, fmt.Errorf("failed to get market: %w", err)
	}

	outcome, err := s.store.GetOrCreateOutcome(ctx, &models.Outcome{
		MarketID: market.ID,
		Type:     pq.OutcomeType,
		Name:     pq.OutcomeName,
	})
	if err != nil {
		return result, nil, fmt.Errorf("failed to get outcome: %w", err)
	}

	observed := pq.ObservedAt
	if observed.IsZero() {
		observed = s.now()
	}

	snap := &models.OddsSnapshot{
		ID:               uuid.New(),
		OutcomeID:        outcome.ID,
		Timestamp:        observed.UTC(),
		DecimalOdds:      pq.DecimalOdds,
		RawProbability:   pq.RawProbability,
		DevigProbability: pq.DevigProbability,
		DevigDecimalOdds: pq.DevigDecimalOdds,
	}

	res, err := s.store.InsertSnapshot(ctx, game.ID, snap, s.params.policy())
	if err != nil {
		return result, nil, fmt.Errorf("failed to insert snapshot: %w", err)
	}
	metrics.SnapshotWrites.WithLabelValues(res.String()).Inc()

	switch res {
	case models.InsertResultDuplicate:
		result.Duplicate++
		s.logger.Debug().
			Str("game_id", game.ID.String()).
			Str("outcome_id", outcome.ID.String()).
			Float64("decimal_odds", snap.DecimalOdds).
			Msg("skipping duplicate snapshot")
		return result, nil, nil
	case models.InsertResultGameCompleted:
		result.Stale++
		s.logger.Warn().
			Err(res.Err()).
			Str("game_id", game.ID.String()).
			Str("outcome_id", outcome.ID.String()).
			Msg("refusing odds for completed game")
		return result, nil, nil
	}

	result.Inserted++
	return result, &models.LatestOdds{
		GameID:           game.ID,
		PlatformKey:      platform.Key,
		Region:           platform.Region,
		MarketKind:       market.Kind,
		OutcomeType:      outcome.Type,
		OutcomeName:      outcome.Name,
		DecimalOdds:      snap.DecimalOdds,
		DevigProbability: snap.DevigProbability,
		DevigDecimalOdds: snap.DevigDecimalOdds,
		Timestamp:        snap.Timestamp,
	}, nil
}

// CompleteGame records final scores (already aligned to the game's
// orientation) and flags the closing line of every outcome. It reports
// whether this call performed the transition; flagging runs either way so a
// repeated completion repairs missing flags.
func (s *SnapshotService) CompleteGame(ctx context.Context, game *models.Game, completion models.GameCompletion) (bool, error) {
	result := models.ResultFromScores(completion.HomeScore, completion.AwayScore)

	done, err := s.store.CompleteGame(ctx, game.ID, completion.HomeScore, completion.AwayScore, result)
	if err != nil {
		return false, fmt.Errorf("failed to complete game: %w", err)
	}

	flagged, err := s.store.MarkClosingLines(ctx, game.ID, s.params.ClosingWindow)
	if err != nil {
		return done, fmt.Errorf("failed to mark closing lines: %w", err)
	}

	if done {
		metrics.GamesCompleted.Inc()
		metrics.ClosingLinesFlagged.Add(float64(flagged))
		s.logger.Info().
			Str("game_id", game.ID.String()).
			Int("home_score", completion.HomeScore).
			Int("away_score", completion.AwayScore).
			Str("result", string(result)).
			Int("closing_lines", flagged).
			Msg("completed game")
	}

	return done, nil
}
