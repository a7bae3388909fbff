package postgres

const schema = `
CREATE TABLE IF NOT EXISTS teams (
	id             INTEGER PRIMARY KEY,
	sport          VARCHAR(32)  NOT NULL,
	league         VARCHAR(32)  NOT NULL DEFAULT '',
	canonical_name VARCHAR(128) NOT NULL,
	abbreviation   VARCHAR(16)  NOT NULL,
	city           VARCHAR(64)  NOT NULL DEFAULT '',
	nickname       VARCHAR(64)  NOT NULL DEFAULT '',
	timezone       VARCHAR(64)  NOT NULL,
	keywords       TEXT[]       NOT NULL DEFAULT '{}',
	UNIQUE (sport, canonical_name)
);

CREATE TABLE IF NOT EXISTS games (
	id                   UUID PRIMARY KEY,
	sport                VARCHAR(32)  NOT NULL,
	league               VARCHAR(32)  NOT NULL DEFAULT '',
	home_team            VARCHAR(128) NOT NULL,
	away_team            VARCHAR(128) NOT NULL,
	home_team_id         INTEGER      NOT NULL REFERENCES teams(id),
	away_team_id         INTEGER      NOT NULL REFERENCES teams(id),
	home_team_normalized VARCHAR(128) NOT NULL,
	away_team_normalized VARCHAR(128) NOT NULL,
	start_time           TIMESTAMPTZ  NOT NULL,
	local_date           VARCHAR(10)  NOT NULL,
	season               VARCHAR(8)   NOT NULL,
	status               VARCHAR(16)  NOT NULL DEFAULT 'scheduled',
	home_score           INTEGER,
	away_score           INTEGER,
	result               VARCHAR(16),
	created_at           TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
	updated_at           TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
	CHECK (home_team_id <> away_team_id)
);

CREATE INDEX IF NOT EXISTS idx_games_pair_start ON games(sport, home_team_id, away_team_id, start_time);
CREATE INDEX IF NOT EXISTS idx_games_local_date ON games(sport, local_date);

CREATE TABLE IF NOT EXISTS platforms (
	id     UUID PRIMARY KEY,
	key    VARCHAR(64)  NOT NULL,
	name   VARCHAR(128) NOT NULL DEFAULT '',
	type   VARCHAR(32)  NOT NULL,
	region VARCHAR(16)  NOT NULL DEFAULT '',
	UNIQUE (key, region)
);

CREATE TABLE IF NOT EXISTS markets (
	id          UUID PRIMARY KEY,
	game_id     UUID         NOT NULL REFERENCES games(id) ON DELETE CASCADE,
	platform_id UUID         NOT NULL REFERENCES platforms(id),
	kind        VARCHAR(32)  NOT NULL,
	name        VARCHAR(512) NOT NULL DEFAULT '',
	identifier  VARCHAR(256) NOT NULL DEFAULT '',
	UNIQUE (game_id, platform_id, kind)
);

CREATE TABLE IF NOT EXISTS outcomes (
	id        UUID PRIMARY KEY,
	market_id UUID         NOT NULL REFERENCES markets(id) ON DELETE CASCADE,
	type      VARCHAR(16)  NOT NULL,
	name      VARCHAR(512) NOT NULL DEFAULT '',
	UNIQUE (market_id, type)
);

CREATE TABLE IF NOT EXISTS odds_snapshots (
	id                 UUID PRIMARY KEY,
	outcome_id         UUID             NOT NULL REFERENCES outcomes(id) ON DELETE CASCADE,
	ts                 TIMESTAMPTZ      NOT NULL,
	decimal_odds       DOUBLE PRECISION NOT NULL,
	raw_probability    DOUBLE PRECISION NOT NULL,
	devig_probability  DOUBLE PRECISION NOT NULL,
	devig_decimal_odds DOUBLE PRECISION NOT NULL,
	is_closing_line    BOOLEAN          NOT NULL DEFAULT FALSE,
	created_at         TIMESTAMPTZ      NOT NULL DEFAULT clock_timestamp()
);

CREATE INDEX IF NOT EXISTS idx_odds_snapshots_outcome_ts ON odds_snapshots(outcome_id, ts);
CREATE INDEX IF NOT EXISTS idx_odds_snapshots_closing ON odds_snapshots(outcome_id) WHERE is_closing_line;
`
