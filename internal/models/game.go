package models

import (
	"time"

	"github.com/google/uuid"
)

// GameStatus is the lifecycle state of a game
type GameStatus string

const (
	GameStatusScheduled GameStatus = "scheduled"
	GameStatusCompleted GameStatus = "completed"
)

// GameResult is the final outcome of a completed game
type GameResult string

const (
	ResultHomeWin GameResult = "home_win"
	ResultAwayWin GameResult = "away_win"
	ResultDraw    GameResult = "draw"
)

// ResultFromScores compares final scores
func ResultFromScores(homeScore, awayScore int) GameResult {
	switch {
	case homeScore > awayScore:
		return ResultHomeWin
	case awayScore > homeScore:
		return ResultAwayWin
	default:
		return ResultDraw
	}
}

// LocalDateLayout is the format of Game.LocalDate
const LocalDateLayout = "2006-01-02"

// Game is the canonical record of one scheduled contest
type Game struct {
	ID                 uuid.UUID   `json:"id"`
	Sport              string      `json:"sport"`
	League             string      `json:"league"`
	HomeTeam           string      `json:"home_team"` // name as first reported
	AwayTeam           string      `json:"away_team"`
	HomeTeamID         int         `json:"home_team_id"`
	AwayTeamID         int         `json:"away_team_id"`
	HomeTeamNormalized string      `json:"home_team_normalized"` // canonical name
	AwayTeamNormalized string      `json:"away_team_normalized"`
	StartTime          time.Time   `json:"start_time"` // UTC
	StartTimeLocal     time.Time   `json:"start_time_local"`
	LocalDate          string      `json:"local_date"`
	Season             string      `json:"season"`
	Status             GameStatus  `json:"status"`
	HomeScore          *int        `json:"home_score,omitempty"`
	AwayScore          *int        `json:"away_score,omitempty"`
	Result             *GameResult `json:"result,omitempty"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

// IsCompleted reports whether the game has final scores
func (g *Game) IsCompleted() bool {
	return g.Status == GameStatusCompleted
}

// GameKey identifies the (sport, home, away) tuple game creation is serialized on
type GameKey struct {
	Sport      string
	HomeTeamID int
	AwayTeamID int
}

// EventCandidate is one sighting of a contest from a source, with the quotes
// that source offered for it
type EventCandidate struct {
	Sport    string `json:"sport"`
	League   string `json:"league,omitempty"`
	HomeTeam string `json:"home_team"`
	AwayTeam string `json:"away_team"`
	// Unordered means HomeTeam/AwayTeam are just the two teams, orientation unknown
	Unordered bool      `json:"unordered,omitempty"`
	StartTime time.Time `json:"start_time"`
	// TimeTrusted marks StartTime as an independent reference for attach tolerance
	TimeTrusted bool    `json:"time_trusted,omitempty"`
	Text        string  `json:"text,omitempty"`
	Quotes      []Quote `json:"quotes,omitempty"`
}

// GameCompletion reports final scores for a contest
type GameCompletion struct {
	Sport     string    `json:"sport"`
	HomeTeam  string    `json:"home_team"`
	AwayTeam  string    `json:"away_team"`
	StartTime time.Time `json:"start_time"`
	HomeScore int       `json:"home_score"`
	AwayScore int       `json:"away_score"`
}

// AttachQuery asks for an existing game for a pair of team names
type AttachQuery struct {
	Sport         string
	TeamA         string
	TeamB         string
	ReferenceTime time.Time // zero means no time reference at all
	Trusted       bool
}
