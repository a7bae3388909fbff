package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/odds-reconciler-service/internal/models"
	"github.com/cypherlabdev/odds-reconciler-service/pkg/teams"
)

// Config holds PostgreSQL configuration
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Store is the PostgreSQL reconciliation store. The guarded writes
// (InsertSnapshot, CompleteGame, MarkClosingLines) are single statements
// or transactions, so concurrent cycles and replicas see one outcome.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewStore connects to PostgreSQL and applies the schema
func NewStore(ctx context.Context, cfg Config, logger zerolog.Logger) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logger.With().Str("component", "postgres_store").Logger(),
	}
	s.logger.Info().Msg("PostgreSQL store initialized")
	return s, nil
}

// SeedTeams upserts the registry so games can reference team ids
func (s *Store) SeedTeams(ctx context.Context, list []*teams.Team) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	const query = `
	INSERT INTO teams (id, sport, league, canonical_name, abbreviation, city, nickname, timezone, keywords)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (id) DO UPDATE SET
		sport = EXCLUDED.sport,
		league = EXCLUDED.league,
		canonical_name = EXCLUDED.canonical_name,
		abbreviation = EXCLUDED.abbreviation,
		city = EXCLUDED.city,
		nickname = EXCLUDED.nickname,
		timezone = EXCLUDED.timezone,
		keywords = EXCLUDED.keywords
	`
	for _, t := range list {
		if _, err := tx.ExecContext(ctx, query,
			t.ID, t.Sport, t.League, t.CanonicalName, t.Abbreviation,
			t.City, t.Nickname, t.Timezone, pq.Array(t.Keywords),
		); err != nil {
			return fmt.Errorf("failed to seed team %s: %w", t.CanonicalName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit teams: %w", err)
	}

	s.logger.Info().Int("teams", len(list)).Msg("seeded teams")
	return nil
}

const gameSelect = `
SELECT g.id, g.sport, g.league, g.home_team, g.away_team, g.home_team_id, g.away_team_id,
	g.home_team_normalized, g.away_team_normalized, g.start_time, g.local_date, g.season,
	g.status, g.home_score, g.away_score, g.result, g.created_at, g.updated_at,
	COALESCE(t.timezone, '')
FROM games g
LEFT JOIN teams t ON t.id = g.home_team_id`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanGame(row rowScanner) (*models.Game, error) {
	var (
		g         models.Game
		status    string
		homeScore sql.NullInt64
		awayScore sql.NullInt64
		result    sql.NullString
		timezone  string
	)
	if err := row.Scan(
		&g.ID, &g.Sport, &g.League, &g.HomeTeam, &g.AwayTeam, &g.HomeTeamID, &g.AwayTeamID,
		&g.HomeTeamNormalized, &g.AwayTeamNormalized, &g.StartTime, &g.LocalDate, &g.Season,
		&status, &homeScore, &awayScore, &result, &g.CreatedAt, &g.UpdatedAt,
		&timezone,
	); err != nil {
		return nil, err
	}

	g.Status = models.GameStatus(status)
	g.StartTime = g.StartTime.UTC()
	loc := time.UTC
	if timezone != "" {
		if l, err := time.LoadLocation(timezone); err == nil {
			loc = l
		}
	}
	g.StartTimeLocal = g.StartTime.In(loc)

	if homeScore.Valid {
		v := int(homeScore.Int64)
		g.HomeScore = &v
	}
	if awayScore.Valid {
		v := int(awayScore.Int64)
		g.AwayScore = &v
	}
	if result.Valid {
		v := models.GameResult(result.String)
		g.Result = &v
	}
	return &g, nil
}

// FindGames returns games matching filter ordered by start time
func (s *Store) FindGames(ctx context.Context, filter models.GameFilter) ([]*models.Game, error) {
	where, args := buildGameFilter(filter)

	query := gameSelect
	if where != "" {
		query += "\nWHERE " + where
	}
	query += "\nORDER BY g.start_time, g.id"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf("\nLIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query games: %w", err)
	}
	defer rows.Close()

	var games []*models.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate games: %w", err)
	}
	return games, nil
}

// whereBuilder collects AND-ed conditions with numbered placeholders
type whereBuilder struct {
	conds []string
	args  []interface{}
}

func (b *whereBuilder) arg(v interface{}) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *whereBuilder) add(cond string) {
	b.conds = append(b.conds, cond)
}

// pair renders the team constraint for one orientation; zero ids are unconstrained
func (b *whereBuilder) pair(homeID, awayID int) string {
	var parts []string
	if homeID != 0 {
		parts = append(parts, "g.home_team_id = "+b.arg(homeID))
	}
	if awayID != 0 {
		parts = append(parts, "g.away_team_id = "+b.arg(awayID))
	}
	return strings.Join(parts, " AND ")
}

func buildGameFilter(f models.GameFilter) (string, []interface{}) {
	b := &whereBuilder{}

	if f.Sport != "" {
		b.add("g.sport = " + b.arg(f.Sport))
	}
	if f.HomeTeamID != 0 || f.AwayTeamID != 0 {
		direct := b.pair(f.HomeTeamID, f.AwayTeamID)
		if f.EitherOrder {
			swapped := b.pair(f.AwayTeamID, f.HomeTeamID)
			b.add("((" + direct + ") OR (" + swapped + "))")
		} else {
			b.add(direct)
		}
	}
	if !f.StartFrom.IsZero() {
		b.add("g.start_time >= " + b.arg(f.StartFrom.UTC()))
	}
	if !f.StartTo.IsZero() {
		b.add("g.start_time <= " + b.arg(f.StartTo.UTC()))
	}
	if f.Status != "" {
		b.add("g.status = " + b.arg(string(f.Status)))
	}
	if f.LocalDate != "" {
		b.add("g.local_date = " + b.arg(f.LocalDate))
	}

	return strings.Join(b.conds, " AND "), b.args
}

// CreateGame inserts a new game
func (s *Store) CreateGame(ctx context.Context, game *models.Game) error {
	if game.ID == uuid.Nil {
		game.ID = uuid.New()
	}

	const query = `
	INSERT INTO games (
		id, sport, league, home_team, away_team, home_team_id, away_team_id,
		home_team_normalized, away_team_normalized, start_time, local_date, season,
		status, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := s.db.ExecContext(ctx, query,
		game.ID, game.Sport, game.League, game.HomeTeam, game.AwayTeam, game.HomeTeamID, game.AwayTeamID,
		game.HomeTeamNormalized, game.AwayTeamNormalized, game.StartTime.UTC(), game.LocalDate, game.Season,
		string(game.Status), game.CreatedAt, game.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert game: %w", err)
	}
	return nil
}

// GetGame returns one game
func (s *Store) GetGame(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	g, err := scanGame(s.db.QueryRowContext(ctx, gameSelect+"\nWHERE g.id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", models.ErrGameNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	return g, nil
}

// CompleteGame records final scores; it reports false when the game was already completed
func (s *Store) CompleteGame(ctx context.Context, id uuid.UUID, homeScore, awayScore int, result models.GameResult) (bool, error) {
	const query = `
	UPDATE games
	SET status = $2, home_score = $3, away_score = $4, result = $5, updated_at = NOW()
	WHERE id = $1 AND status = $6
	`
	res, err := s.db.ExecContext(ctx, query,
		id, string(models.GameStatusCompleted), homeScore, awayScore, string(result), string(models.GameStatusScheduled),
	)
	if err != nil {
		return false, fmt.Errorf("failed to complete game: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 1 {
		return true, nil
	}

	if _, err := s.GetGame(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

// GetOrCreatePlatform returns the platform for (key, region), creating it on first sight
func (s *Store) GetOrCreatePlatform(ctx context.Context, p *models.Platform) (*models.Platform, error) {
	const query = `
	INSERT INTO platforms (id, key, name, type, region)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (key, region) DO UPDATE SET
		name = COALESCE(NULLIF(EXCLUDED.name, ''), platforms.name)
	RETURNING id, key, name, type, region
	`
	var out models.Platform
	var platformType string
	err := s.db.QueryRowContext(ctx, query, uuid.New(), p.Key, p.Name, string(p.Type), p.Region).
		Scan(&out.ID, &out.Key, &out.Name, &platformType, &out.Region)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert platform: %w", err)
	}
	out.Type = models.PlatformType(platformType)
	return &out, nil
}

// GetOrCreateMarket returns the market for (game, platform, kind); the name is refreshed
func (s *Store) GetOrCreateMarket(ctx context.Context, m *models.Market) (*models.Market, error) {
	const query = `
	INSERT INTO markets (id, game_id, platform_id, kind, name, identifier)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (game_id, platform_id, kind) DO UPDATE SET
		name = COALESCE(NULLIF(EXCLUDED.name, ''), markets.name),
		identifier = COALESCE(NULLIF(EXCLUDED.identifier, ''), markets.identifier)
	RETURNING id, game_id, platform_id, kind, name, identifier
	`
	var out models.Market
	var kind string
	err := s.db.QueryRowContext(ctx, query, uuid.New(), m.GameID, m.PlatformID, string(m.Kind), m.Name, m.Identifier).
		Scan(&out.ID, &out.GameID, &out.PlatformID, &kind, &out.Name, &out.Identifier)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return nil, fmt.Errorf("%w: %s", models.ErrGameNotFound, m.GameID)
		}
		return nil, fmt.Errorf("failed to upsert market: %w", err)
	}
	out.Kind = models.MarketKind(kind)
	return &out, nil
}

// GetOrCreateOutcome returns the outcome for (market, type)
func (s *Store) GetOrCreateOutcome(ctx context.Context, o *models.Outcome) (*models.Outcome, error) {
	const query = `
	INSERT INTO outcomes (id, market_id, type, name)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (market_id, type) DO UPDATE SET
		name = outcomes.name
	RETURNING id, market_id, type, name
	`
	var out models.Outcome
	var outcomeType string
	err := s.db.QueryRowContext(ctx, query, uuid.New(), o.MarketID, string(o.Type), o.Name).
		Scan(&out.ID, &out.MarketID, &outcomeType, &out.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert outcome: %w", err)
	}
	out.Type = models.OutcomeType(outcomeType)
	return &out, nil
}

// InsertSnapshot appends a snapshot unless the game is completed or the
// snapshot duplicates a stored one under policy. The status check, the
// duplicate check and the insert run as one statement; the game row is
// share-locked so a concurrent completion waits for it.
func (s *Store) InsertSnapshot(ctx context.Context, gameID uuid.UUID, snap *models.OddsSnapshot, policy models.DuplicatePolicy) (models.InsertResult, error) {
	if snap.ID == uuid.Nil {
		snap.ID = uuid.New()
	}

	const query = `
	WITH game AS (
		SELECT status FROM games WHERE id = $1 FOR SHARE
	), dup AS (
		SELECT 1 FROM odds_snapshots
		WHERE outcome_id = $3::uuid
			AND ts > $4::timestamptz - make_interval(secs => $9::float8)
			AND ts < $4::timestamptz + make_interval(secs => $9::float8)
			AND abs(decimal_odds - $5::float8) < $10::float8
		LIMIT 1
	), ins AS (
		INSERT INTO odds_snapshots (
			id, outcome_id, ts, decimal_odds, raw_probability, devig_probability, devig_decimal_odds
		)
		SELECT $2::uuid, $3::uuid, $4::timestamptz, $5::float8, $6::float8, $7::float8, $8::float8
		WHERE EXISTS (SELECT 1 FROM game WHERE status = $11)
			AND NOT EXISTS (SELECT 1 FROM dup)
		RETURNING id
	)
	SELECT (SELECT status FROM game), EXISTS (SELECT 1 FROM dup), EXISTS (SELECT 1 FROM ins)
	`

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Serializes the duplicate check and insert per outcome
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1::text))`, snap.OutcomeID.String()); err != nil {
		return 0, fmt.Errorf("failed to lock outcome: %w", err)
	}

	var (
		status   sql.NullString
		dup      bool
		inserted bool
	)
	err = tx.QueryRowContext(ctx, query,
		gameID, snap.ID, snap.OutcomeID, snap.Timestamp.UTC(),
		snap.DecimalOdds, snap.RawProbability, snap.DevigProbability, snap.DevigDecimalOdds,
		policy.Window.Seconds(), policy.Tolerance, string(models.GameStatusScheduled),
	).Scan(&status, &dup, &inserted)
	if err != nil {
		return 0, fmt.Errorf("failed to insert snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit snapshot: %w", err)
	}

	switch {
	case !status.Valid:
		return 0, fmt.Errorf("%w: %s", models.ErrGameNotFound, gameID)
	case inserted:
		return models.InsertResultInserted, nil
	case models.GameStatus(status.String) == models.GameStatusCompleted:
		return models.InsertResultGameCompleted, nil
	case dup:
		return models.InsertResultDuplicate, nil
	default:
		return 0, fmt.Errorf("snapshot for game %s not inserted in status %q", gameID, status.String)
	}
}

// MarkClosingLines flags, per outcome of the game, the latest snapshot in
// [start - window, start] and clears any other flag. It returns the number
// of flagged snapshots.
func (s *Store) MarkClosingLines(ctx context.Context, gameID uuid.UUID, window time.Duration) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var start time.Time
	err = tx.QueryRowContext(ctx, `SELECT start_time FROM games WHERE id = $1 FOR UPDATE`, gameID).Scan(&start)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", models.ErrGameNotFound, gameID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to lock game: %w", err)
	}

	const query = `
	WITH outs AS (
		SELECT o.id FROM outcomes o
		JOIN markets m ON m.id = o.market_id
		WHERE m.game_id = $1
	), chosen AS (
		SELECT DISTINCT ON (s.outcome_id) s.id
		FROM odds_snapshots s
		WHERE s.outcome_id IN (SELECT id FROM outs)
			AND s.ts >= $2::timestamptz - make_interval(secs => $3::float8)
			AND s.ts <= $2::timestamptz
		ORDER BY s.outcome_id, s.ts DESC, s.created_at ASC
	)
	UPDATE odds_snapshots s
	SET is_closing_line = s.id IN (SELECT id FROM chosen)
	WHERE s.outcome_id IN (SELECT id FROM outs)
		AND (s.is_closing_line OR s.id IN (SELECT id FROM chosen))
	RETURNING s.is_closing_line
	`
	rows, err := tx.QueryContext(ctx, query, gameID, start.UTC(), window.Seconds())
	if err != nil {
		return 0, fmt.Errorf("failed to mark closing lines: %w", err)
	}

	flagged := 0
	for rows.Next() {
		var closing bool
		if err := rows.Scan(&closing); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan closing flag: %w", err)
		}
		if closing {
			flagged++
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to iterate closing flags: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit closing lines: %w", err)
	}
	return flagged, nil
}

// ListSnapshots returns an outcome's snapshots oldest first
func (s *Store) ListSnapshots(ctx context.Context, outcomeID uuid.UUID) ([]*models.OddsSnapshot, error) {
	const query = `
	SELECT id, outcome_id, ts, decimal_odds, raw_probability, devig_probability, devig_decimal_odds, is_closing_line
	FROM odds_snapshots
	WHERE outcome_id = $1
	ORDER BY ts, created_at
	`
	rows, err := s.db.QueryContext(ctx, query, outcomeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var out []*models.OddsSnapshot
	for rows.Next() {
		var snap models.OddsSnapshot
		if err := rows.Scan(
			&snap.ID, &snap.OutcomeID, &snap.Timestamp, &snap.DecimalOdds,
			&snap.RawProbability, &snap.DevigProbability, &snap.DevigDecimalOdds, &snap.IsClosingLine,
		); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snap.Timestamp = snap.Timestamp.UTC()
		out = append(out, &snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshots: %w", err)
	}
	return out, nil
}

// LatestOdds returns the most recent snapshot of every outcome of a game
func (s *Store) LatestOdds(ctx context.Context, gameID uuid.UUID) ([]*models.LatestOdds, error) {
	const query = `
	SELECT DISTINCT ON (o.id)
		p.key, p.region, m.kind, o.type, o.name,
		s.decimal_odds, s.devig_probability, s.devig_decimal_odds, s.ts
	FROM outcomes o
	JOIN markets m ON m.id = o.market_id
	JOIN platforms p ON p.id = m.platform_id
	JOIN odds_snapshots s ON s.outcome_id = o.id
	WHERE m.game_id = $1
	ORDER BY o.id, s.ts DESC, s.created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest odds: %w", err)
	}
	defer rows.Close()

	var out []*models.LatestOdds
	for rows.Next() {
		var (
			l           models.LatestOdds
			kind        string
			outcomeType string
		)
		if err := rows.Scan(
			&l.PlatformKey, &l.Region, &kind, &outcomeType, &l.OutcomeName,
			&l.DecimalOdds, &l.DevigProbability, &l.DevigDecimalOdds, &l.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan latest odds: %w", err)
		}
		l.GameID = gameID
		l.MarketKind = models.MarketKind(kind)
		l.OutcomeType = models.OutcomeType(outcomeType)
		l.Timestamp = l.Timestamp.UTC()
		out = append(out, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate latest odds: %w", err)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CacheKey() < out[j].CacheKey() })
	return out, nil
}

// ClosingLines returns the flagged snapshots of a game
func (s *Store) ClosingLines(ctx context.Context, gameID uuid.UUID) ([]*models.ClosingLine, error) {
	const query = `
	SELECT p.key, p.region, m.kind, o.id, o.type, o.name,
		s.id, s.ts, s.decimal_odds, s.raw_probability, s.devig_probability, s.devig_decimal_odds
	FROM odds_snapshots s
	JOIN outcomes o ON o.id = s.outcome_id
	JOIN markets m ON m.id = o.market_id
	JOIN platforms p ON p.id = m.platform_id
	WHERE m.game_id = $1 AND s.is_closing_line
	ORDER BY p.key, o.type
	`
	rows, err := s.db.QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to query closing lines: %w", err)
	}
	defer rows.Close()

	var out []*models.ClosingLine
	for rows.Next() {
		var (
			cl          models.ClosingLine
			kind        string
			outcomeType string
		)
		if err := rows.Scan(
			&cl.PlatformKey, &cl.Region, &kind, &cl.OutcomeID, &outcomeType, &cl.OutcomeName,
			&cl.Snapshot.ID, &cl.Snapshot.Timestamp, &cl.Snapshot.DecimalOdds, &cl.Snapshot.RawProbability,
			&cl.Snapshot.DevigProbability, &cl.Snapshot.DevigDecimalOdds,
		); err != nil {
			return nil, fmt.Errorf("failed to scan closing line: %w", err)
		}
		cl.GameID = gameID
		cl.MarketKind = models.MarketKind(kind)
		cl.OutcomeType = models.OutcomeType(outcomeType)
		cl.Snapshot.OutcomeID = cl.OutcomeID
		cl.Snapshot.Timestamp = cl.Snapshot.Timestamp.UTC()
		cl.Snapshot.IsClosingLine = true
		out = append(out, &cl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate closing lines: %w", err)
	}
	return out, nil
}

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}
