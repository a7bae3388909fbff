package reconciler

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/odds-reconciler-service/internal/metrics"
	"github.com/cypherlabdev/odds-reconciler-service/internal/models"
	"github.com/cypherlabdev/odds-reconciler-service/pkg/teams"
)

// GameStore is the game persistence the reconciler needs
type GameStore interface {
	FindGames(ctx context.Context, filter models.GameFilter) ([]*models.Game, error)
	CreateGame(ctx context.Context, game *models.Game) error
}

// Locker serializes work on a key; the returned func releases the lock
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// Params holds the matching tolerances
type Params struct {
	CreateTolerance     time.Duration // creation-time dedup, |Δstart|
	AttachBefore        time.Duration // trusted attach window before the reference
	AttachAfter         time.Duration // trusted attach window after the reference
	UntrustedWindow     time.Duration // ± window around an untrusted reference
	FinalTolerance      time.Duration // trusted attach rejects best matches beyond this
	CompletionTolerance time.Duration // completion lookup, |Δstart|
	NoReferenceLookback time.Duration // attach without a reference: games after now - lookback
}

// DefaultParams returns the standard tolerances
func DefaultParams() Params {
	return Params{
		CreateTolerance:     30 * time.Minute,
		AttachBefore:        48 * time.Hour,
		AttachAfter:         24 * time.Hour,
		UntrustedWindow:     3 * time.Hour,
		FinalTolerance:      2 * time.Hour,
		CompletionTolerance: 30 * time.Minute,
		NoReferenceLookback: 24 * time.Hour,
	}
}

// Reconciler maps source sightings onto canonical games
type Reconciler struct {
	registry *teams.Registry
	store    GameStore
	locker   Locker
	params   Params
	now      func() time.Time
	logger   zerolog.Logger
}

// NewReconciler creates a new game reconciler
func NewReconciler(
	registry *teams.Registry,
	store GameStore,
	locker Locker,
	params Params,
	logger zerolog.Logger,
) *Reconciler {
	return &Reconciler{
		registry: registry,
		store:    store,
		locker:   locker,
		params:   params,
		now:      time.Now,
		logger:   logger.With().Str("component", "reconciler").Logger(),
	}
}

// Pair resolves the teams of an existing game
func (r *Reconciler) Pair(game *models.Game) (home, away *teams.Team) {
	home, _ = r.registry.ByID(game.HomeTeamID)
	away, _ = r.registry.ByID(game.AwayTeamID)
	return home, away
}

// Reconcile finds the scheduled game a creating source is describing, or
// creates it. Lookups and creation for one (sport, home, away) key are
// serialized through the locker so concurrent sightings create one row.
func (r *Reconciler) Reconcile(ctx context.Context, candidate models.EventCandidate) (*models.Game, error) {
	sport := normalizeSport(candidate.Sport)

	home, away, err := r.resolvePair(sport, candidate.HomeTeam, candidate.AwayTeam)
	if err != nil {
		return nil, err
	}
	if candidate.StartTime.IsZero() {
		return nil, fmt.Errorf("%w for %s vs %s", models.ErrMissingStartTime, home.CanonicalName, away.CanonicalName)
	}

	start := candidate.StartTime.UTC()

	unlock, err := r.locker.Lock(ctx, GameLockKey(models.GameKey{Sport: sport, HomeTeamID: home.ID, AwayTeamID: away.ID}))
	if err != nil {
		return nil, fmt.Errorf("failed to lock game key: %w", err)
	}
	defer unlock()

	existing, err := r.store.FindGames(ctx, models.GameFilter{
		Sport:      sport,
		HomeTeamID: home.ID,
		AwayTeamID: away.ID,
		StartFrom:  start.Add(-r.params.CreateTolerance),
		StartTo:    start.Add(r.params.CreateTolerance),
		Status:     models.GameStatusScheduled,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find games: %w", err)
	}

	if game, diff := closest(existing, start); game != nil {
		metrics.GamesReconciled.WithLabelValues("reused").Inc()
		r.logger.Debug().
			Str("game_id", game.ID.String()).
			Dur("time_diff", diff).
			Msg("found existing game")
		return game, nil
	}

	game := r.newGame(sport, candidate, home, away, start)
	if err := r.store.CreateGame(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	metrics.GamesReconciled.WithLabelValues("created").Inc()
	r.logger.Info().
		Str("game_id", game.ID.String()).
		Str("home_team", game.HomeTeamNormalized).
		Str("away_team", game.AwayTeamNormalized).
		Time("start_time", game.StartTime).
		Str("local_date", game.LocalDate).
		Msg("created game")

	return game, nil
}

// Attach finds an existing game for a source that may not know orientation.
// It never creates.
//
// A trusted reference searches [ref-48h, ref+24h] and rejects a best match
// further than 2h away; an untrusted reference searches ref±3h. Without any
// reference the next upcoming game of the pair wins, then the most recent
// one started within the last 24h.
func (r *Reconciler) Attach(ctx context.Context, query models.AttachQuery) (*models.Game, error) {
	sport := normalizeSport(query.Sport)

	a, b, err := r.resolvePair(sport, query.TeamA, query.TeamB)
	if err != nil {
		metrics.AttachResults.WithLabelValues(attachMode(query), "unresolved").Inc()
		return nil, err
	}

	filter := models.GameFilter{
		Sport:       sport,
		HomeTeamID:  a.ID,
		AwayTeamID:  b.ID,
		EitherOrder: true,
	}

	var game *models.Game
	switch {
	case query.ReferenceTime.IsZero():
		game, err = r.attachWithoutReference(ctx, filter)
	case query.Trusted:
		game, err = r.attachTrusted(ctx, filter, query.ReferenceTime.UTC())
	default:
		filter.StartFrom = query.ReferenceTime.UTC().Add(-r.params.UntrustedWindow)
		filter.StartTo = query.ReferenceTime.UTC().Add(r.params.UntrustedWindow)
		game, err = r.findClosest(ctx, filter, query.ReferenceTime.UTC())
	}
	if err != nil {
		return nil, err
	}

	if game == nil {
		metrics.AttachResults.WithLabelValues(attachMode(query), "no_match").Inc()
		return nil, fmt.Errorf("%w: %s vs %s", models.ErrNoMatch, a.CanonicalName, b.CanonicalName)
	}

	metrics.AttachResults.WithLabelValues(attachMode(query), "matched").Inc()
	return game, nil
}

func (r *Reconciler) attachTrusted(ctx context.Context, filter models.GameFilter, ref time.Time) (*models.Game, error) {
	filter.StartFrom = ref.Add(-r.params.AttachBefore)
	filter.StartTo = ref.Add(r.params.AttachAfter)

	games, err := r.store.FindGames(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find games: %w", err)
	}

	game, diff := closest(games, ref)
	if game != nil && diff > r.params.FinalTolerance {
		r.logger.Debug().
			Str("game_id", game.ID.String()).
			Dur("time_diff", diff).
			Msg("rejecting match beyond final tolerance")
		return nil, nil
	}
	return game, nil
}

func (r *Reconciler) attachWithoutReference(ctx context.Context, filter models.GameFilter) (*models.Game, error) {
	now := r.now().UTC()
	filter.StartFrom = now.Add(-r.params.NoReferenceLookback)

	games, err := r.store.FindGames(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find games: %w", err)
	}
	if len(games) == 0 {
		return nil, nil
	}

	sort.SliceStable(games, func(i, j int) bool {
		fi, fj := games[i].StartTime.After(now), games[j].StartTime.After(now)
		if fi != fj {
			return fi
		}
		return absDuration(games[i].StartTime.Sub(now)) < absDuration(games[j].StartTime.Sub(now))
	})
	return games[0], nil
}

func (r *Reconciler) findClosest(ctx context.Context, filter models.GameFilter, ref time.Time) (*models.Game, error) {
	games, err := r.store.FindGames(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find games: %w", err)
	}
	game, _ := closest(games, ref)
	return game, nil
}

// FindForCompletion finds the game a final score belongs to: the closest
// game of the pair within the completion tolerance, in either orientation.
// The returned completion has its scores aligned to the game's orientation.
func (r *Reconciler) FindForCompletion(ctx context.Context, completion models.GameCompletion) (*models.Game, models.GameCompletion, error) {
	sport := normalizeSport(completion.Sport)

	home, away, err := r.resolvePair(sport, completion.HomeTeam, completion.AwayTeam)
	if err != nil {
		return nil, completion, err
	}

	start := completion.StartTime.UTC()
	game, err := r.findClosest(ctx, models.GameFilter{
		Sport:       sport,
		HomeTeamID:  home.ID,
		AwayTeamID:  away.ID,
		EitherOrder: true,
		StartFrom:   start.Add(-r.params.CompletionTolerance),
		StartTo:     start.Add(r.params.CompletionTolerance),
	}, start)
	if err != nil {
		return nil, completion, err
	}
	if game == nil {
		return nil, completion, fmt.Errorf("%w: %s vs %s", models.ErrNoMatch, home.CanonicalName, away.CanonicalName)
	}

	if game.HomeTeamID != home.ID {
		completion.HomeTeam, completion.AwayTeam = completion.AwayTeam, completion.HomeTeam
		completion.HomeScore, completion.AwayScore = completion.AwayScore, completion.HomeScore
	}

	return game, completion, nil
}

func (r *Reconciler) resolvePair(sport, homeName, awayName string) (*teams.Team, *teams.Team, error) {
	home, ok := r.registry.Resolve(homeName, sport)
	if !ok {
		metrics.UnknownTeams.WithLabelValues(sport).Inc()
		return nil, nil, &models.UnknownTeamError{Name: homeName, Sport: sport}
	}
	away, ok := r.registry.Resolve(awayName, sport)
	if !ok {
		metrics.UnknownTeams.WithLabelValues(sport).Inc()
		return nil, nil, &models.UnknownTeamError{Name: awayName, Sport: sport}
	}
	if home.ID == away.ID {
		return nil, nil, fmt.Errorf("%w: %q and %q", models.ErrSameTeam, homeName, awayName)
	}
	return home, away, nil
}

func (r *Reconciler) newGame(sport string, candidate models.EventCandidate, home, away *teams.Team, start time.Time) *models.Game {
	local := start.In(home.Location())
	now := r.now().UTC()

	league := candidate.League
	if league == "" {
		league = home.League
	}

	return &models.Game{
		ID:                 uuid.New(),
		Sport:              sport,
		League:             league,
		HomeTeam:           candidate.HomeTeam,
		AwayTeam:           candidate.AwayTeam,
		HomeTeamID:         home.ID,
		AwayTeamID:         away.ID,
		HomeTeamNormalized: home.CanonicalName,
		AwayTeamNormalized: away.CanonicalName,
		StartTime:          start,
		StartTimeLocal:     local,
		LocalDate:          local.Format(models.LocalDateLayout),
		Season:             Season(start),
		Status:             models.GameStatusScheduled,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// Season labels a game by the calendar year of its start; January and
// February belong to the previous year's season
func Season(start time.Time) string {
	year := start.Year()
	if start.Month() <= time.February {
		year--
	}
	return fmt.Sprintf("%d", year)
}

// GameLockKey is the serialization key for game creation
func GameLockKey(key models.GameKey) string {
	return fmt.Sprintf("game:%s:%d:%d", key.Sport, key.HomeTeamID, key.AwayTeamID)
}

func closest(games []*models.Game, ref time.Time) (*models.Game, time.Duration) {
	var best *models.Game
	var bestDiff time.Duration
	for _, g := range games {
		diff := absDuration(g.StartTime.Sub(ref))
		if best == nil || diff < bestDiff {
			best, bestDiff = g, diff
		}
	}
	return best, bestDiff
}

func attachMode(q models.AttachQuery) string {
	switch {
	case q.ReferenceTime.IsZero():
		return "none"
	case q.Trusted:
		return "trusted"
	default:
		return "untrusted"
	}
}

func normalizeSport(sport string) string {
	return strings.ToLower(strings.TrimSpace(sport))
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
