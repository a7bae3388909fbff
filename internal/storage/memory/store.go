package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cypherlabdev/odds-reconciler-service/internal/models"
	"github.com/cypherlabdev/odds-reconciler-service/pkg/teams"
)

// Store keeps the reconciliation state in process memory. Every write that
// has a check-then-act rule runs under one mutex, which gives it the same
// single-statement guarantees the Postgres store gets from its queries.
type Store struct {
	mu sync.RWMutex

	teams     map[int]teams.Team
	games     map[uuid.UUID]*models.Game
	platforms map[string]*models.Platform // key|region
	markets   map[string]*models.Market   // game|platform|kind
	outcomes  map[string]*models.Outcome  // market|type
	snapshots map[uuid.UUID][]*models.OddsSnapshot

	platformsByID map[uuid.UUID]*models.Platform
	marketsByID   map[uuid.UUID]*models.Market
	outcomesByID  map[uuid.UUID]*models.Outcome
}

// NewStore creates an empty memory store
func NewStore() *Store {
	return &Store{
		teams:         make(map[int]teams.Team),
		games:         make(map[uuid.UUID]*models.Game),
		platforms:     make(map[string]*models.Platform),
		markets:       make(map[string]*models.Market),
		outcomes:      make(map[string]*models.Outcome),
		snapshots:     make(map[uuid.UUID][]*models.OddsSnapshot),
		platformsByID: make(map[uuid.UUID]*models.Platform),
		marketsByID:   make(map[uuid.UUID]*models.Market),
		outcomesByID:  make(map[uuid.UUID]*models.Outcome),
	}
}

// SeedTeams upserts the registry teams
func (s *Store) SeedTeams(ctx context.Context, list []*teams.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range list {
		s.teams[t.ID] = *t
	}
	return nil
}

// FindGames returns games matching filter ordered by start time
func (s *Store) FindGames(ctx context.Context, filter models.GameFilter) ([]*models.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Game
	for _, g := range s.games {
		if filter.Matches(g) {
			out = append(out, copyGame(g))
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// CreateGame inserts a new game
func (s *Store) CreateGame(ctx context.Context, game *models.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if game.ID == uuid.Nil {
		game.ID = uuid.New()
	}
	if _, exists := s.games[game.ID]; exists {
		return fmt.Errorf("game %s already exists", game.ID)
	}
	s.games[game.ID] = copyGame(game)
	return nil
}

// GetGame returns one game
func (s *Store) GetGame(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.games[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrGameNotFound, id)
	}
	return copyGame(g), nil
}

// CompleteGame records final scores; it reports false when the game was already completed
func (s *Store) CompleteGame(ctx context.Context, id uuid.UUID, homeScore, awayScore int, result models.GameResult) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.games[id]
	if !ok {
		return false, fmt.Errorf("%w: %s", models.ErrGameNotFound, id)
	}
	if g.IsCompleted() {
		return false, nil
	}

	g.Status = models.GameStatusCompleted
	g.HomeScore = &homeScore
	g.AwayScore = &awayScore
	g.Result = &result
	g.UpdatedAt = time.Now().UTC()
	return true, nil
}

// GetOrCreatePlatform returns the platform for (key, region), creating it on first sight
func (s *Store) GetOrCreatePlatform(ctx context.Context, p *models.Platform) (*models.Platform, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := p.Key + "|" + p.Region
	if existing, ok := s.platforms[k]; ok {
		out := *existing
		return &out, nil
	}

	created := *p
	if created.ID == uuid.Nil {
		created.ID = uuid.New()
	}
	s.platforms[k] = &created
	s.platformsByID[created.ID] = &created

	out := created
	return &out, nil
}

// GetOrCreateMarket returns the market for (game, platform, kind); the name is refreshed
func (s *Store) GetOrCreateMarket(ctx context.Context, m *models.Market) (*models.Market, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.games[m.GameID]; !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrGameNotFound, m.GameID)
	}

	k := m.GameID.String() + "|" + m.PlatformID.String() + "|" + string(m.Kind)
	if existing, ok := s.markets[k]; ok {
		if m.Name != "" {
			existing.Name = m.Name
		}
		out := *existing
		return &out, nil
	}

	created := *m
	if created.ID == uuid.Nil {
		created.ID = uuid.New()
	}
	s.markets[k] = &created
	s.marketsByID[created.ID] = &created

	out := created
	return &out, nil
}

// GetOrCreateOutcome returns the outcome for (market, type)
func (s *Store) GetOrCreateOutcome(ctx context.Context, o *models.Outcome) (*models.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := o.MarketID.String() + "|" + string(o.Type)
	if existing, ok := s.outcomes[k]; ok {
		out := *existing
		return &out, nil
	}

	created := *o
	if created.ID == uuid.Nil {
		created.ID = uuid.New()
	}
	s.outcomes[k] = &created
	s.outcomesByID[created.ID] = &created

	out := created
	return &out, nil
}

// InsertSnapshot appends a snapshot unless the game is completed or the
// snapshot duplicates a stored one under policy
func (s *Store) InsertSnapshot(ctx context.Context, gameID uuid.UUID, snap *models.OddsSnapshot, policy models.DuplicatePolicy) (models.InsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.games[gameID]
	if !ok {
		return 0, fmt.Errorf("%w: %s", models.ErrGameNotFound, gameID)
	}
	if g.IsCompleted() {
		return models.InsertResultGameCompleted, nil
	}

	for _, existing := range s.snapshots[snap.OutcomeID] {
		if policy.IsDuplicate(existing, snap) {
			return models.InsertResultDuplicate, nil
		}
	}

	if snap.ID == uuid.Nil {
		snap.ID = uuid.New()
	}
	stored := *snap
	stored.IsClosingLine = false
	s.snapshots[snap.OutcomeID] = append(s.snapshots[snap.OutcomeID], &stored)

	return models.InsertResultInserted, nil
}

// MarkClosingLines flags, per outcome of the game, the latest snapshot in
// [start - window, start] and clears any other flag. It returns the number
// of flagged snapshots.
func (s *Store) MarkClosingLines(ctx context.Context, gameID uuid.UUID, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.games[gameID]
	if !ok {
		return 0, fmt.Errorf("%w: %s", models.ErrGameNotFound, gameID)
	}

	from := g.StartTime.Add(-window)
	flagged := 0

	for _, o := range s.gameOutcomes(gameID) {
		var chosen *models.OddsSnapshot
		for _, snap := range s.snapshots[o.ID] {
			if snap.Timestamp.After(g.StartTime) || snap.Timestamp.Before(from) {
				continue
			}
			if chosen == nil || snap.Timestamp.After(chosen.Timestamp) {
				chosen = snap
			}
		}

		for _, snap := range s.snapshots[o.ID] {
			snap.IsClosingLine = snap == chosen
		}
		if chosen != nil {
			flagged++
		}
	}

	return flagged, nil
}

// ListSnapshots returns an outcome's snapshots oldest first
func (s *Store) ListSnapshots(ctx context.Context, outcomeID uuid.UUID) ([]*models.OddsSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.OddsSnapshot, 0, len(s.snapshots[outcomeID]))
	for _, snap := range s.snapshots[outcomeID] {
		c := *snap
		out = append(out, &c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

// LatestOdds returns the most recent snapshot of every outcome of a game
func (s *Store) LatestOdds(ctx context.Context, gameID uuid.UUID) ([]*models.LatestOdds, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.LatestOdds
	for _, o := range s.gameOutcomes(gameID) {
		var latest *models.OddsSnapshot
		for _, snap := range s.snapshots[o.ID] {
			if latest == nil || snap.Timestamp.After(latest.Timestamp) {
				latest = snap
			}
		}
		if latest == nil {
			continue
		}

		m := s.marketsByID[o.MarketID]
		p := s.platformsByID[m.PlatformID]
		out = append(out, &models.LatestOdds{
			GameID:           gameID,
			PlatformKey:      p.Key,
			Region:           p.Region,
			MarketKind:       m.Kind,
			OutcomeType:      o.Type,
			OutcomeName:      o.Name,
			DecimalOdds:      latest.DecimalOdds,
			DevigProbability: latest.DevigProbability,
			DevigDecimalOdds: latest.DevigDecimalOdds,
			Timestamp:        latest.Timestamp,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CacheKey() < out[j].CacheKey() })
	return out, nil
}

// ClosingLines returns the flagged snapshots of a game
func (s *Store) ClosingLines(ctx context.Context, gameID uuid.UUID) ([]*models.ClosingLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.ClosingLine
	for _, o := range s.gameOutcomes(gameID) {
		for _, snap := range s.snapshots[o.ID] {
			if !snap.IsClosingLine {
				continue
			}
			m := s.marketsByID[o.MarketID]
			p := s.platformsByID[m.PlatformID]
			out = append(out, &models.ClosingLine{
				GameID:      gameID,
				PlatformKey: p.Key,
				Region:      p.Region,
				MarketKind:  m.Kind,
				OutcomeID:   o.ID,
				OutcomeType: o.Type,
				OutcomeName: o.Name,
				Snapshot:    *snap,
			})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].PlatformKey != out[j].PlatformKey {
			return out[i].PlatformKey < out[j].PlatformKey
		}
		return out[i].OutcomeType < out[j].OutcomeType
	})
	return out, nil
}

// Ping always succeeds
func (s *Store) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op
func (s *Store) Close() error {
	return nil
}

// gameOutcomes must be called with s.mu held
func (s *Store) gameOutcomes(gameID uuid.UUID) []*models.Outcome {
	var out []*models.Outcome
	for _, o := range s.outcomesByID {
		if m, ok := s.marketsByID[o.MarketID]; ok && m.GameID == gameID {
			out = append(out, o)
		}
	}
	return out
}

func copyGame(g *models.Game) *models.Game {
	c := *g
	if g.HomeScore != nil {
		v := *g.HomeScore
		c.HomeScore = &v
	}
	if g.AwayScore != nil {
		v := *g.AwayScore
		c.AwayScore = &v
	}
	if g.Result != nil {
		v := *g.Result
		c.Result = &v
	}
	return &c
}
