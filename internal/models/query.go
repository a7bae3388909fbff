package models

import (
	"time"

	"github.com/google/uuid"
)

// GameFilter selects games. Zero values leave a field unconstrained.
type GameFilter struct {
	Sport      string
	HomeTeamID int
	AwayTeamID int
	// EitherOrder also matches games with home and away swapped
	EitherOrder bool
	StartFrom   time.Time // inclusive
	StartTo     time.Time // inclusive
	Status      GameStatus
	LocalDate   string
	Limit       int
}

// Matches applies the filter to one game
func (f GameFilter) Matches(g *Game) bool {
	if f.Sport != "" && g.Sport != f.Sport {
		return false
	}
	if f.HomeTeamID != 0 || f.AwayTeamID != 0 {
		direct := teamMatches(f.HomeTeamID, g.HomeTeamID) && teamMatches(f.AwayTeamID, g.AwayTeamID)
		swapped := f.EitherOrder && teamMatches(f.HomeTeamID, g.AwayTeamID) && teamMatches(f.AwayTeamID, g.HomeTeamID)
		if !direct && !swapped {
			return false
		}
	}
	if !f.StartFrom.IsZero() && g.StartTime.Before(f.StartFrom) {
		return false
	}
	if !f.StartTo.IsZero() && g.StartTime.After(f.StartTo) {
		return false
	}
	if f.Status != "" && g.Status != f.Status {
		return false
	}
	if f.LocalDate != "" && g.LocalDate != f.LocalDate {
		return false
	}
	return true
}

func teamMatches(want, got int) bool {
	return want == 0 || want == got
}

// InsertResult is the outcome of a guarded snapshot insert
type InsertResult int

const (
	InsertResultInserted InsertResult = iota
	InsertResultDuplicate
	InsertResultGameCompleted
)

func (r InsertResult) String() string {
	switch r {
	case InsertResultInserted:
		return "inserted"
	case InsertResultDuplicate:
		return "duplicate"
	case InsertResultGameCompleted:
		return "stale"
	default:
		return "unknown"
	}
}

// Err maps a refused insert to its typed error; nil when inserted
func (r InsertResult) Err() error {
	switch r {
	case InsertResultDuplicate:
		return ErrDuplicateSnapshot
	case InsertResultGameCompleted:
		return ErrStaleGameWrite
	default:
		return nil
	}
}

// DuplicatePolicy defines when a new snapshot repeats an existing one:
// same outcome, timestamps closer than Window, odds closer than Tolerance
type DuplicatePolicy struct {
	Window    time.Duration
	Tolerance float64
}

// IsDuplicate compares a candidate snapshot against a stored one of the same outcome
func (p DuplicatePolicy) IsDuplicate(existing, candidate *OddsSnapshot) bool {
	dt := candidate.Timestamp.Sub(existing.Timestamp)
	if dt < 0 {
		dt = -dt
	}
	diff := candidate.DecimalOdds - existing.DecimalOdds
	if diff < 0 {
		diff = -diff
	}
	return dt < p.Window && diff < p.Tolerance
}

// ClosingLine is a flagged snapshot with the market context it belongs to
type ClosingLine struct {
	GameID      uuid.UUID    `json:"game_id"`
	PlatformKey string       `json:"platform_key"`
	Region      string       `json:"region,omitempty"`
	MarketKind  MarketKind   `json:"market_kind"`
	OutcomeID   uuid.UUID    `json:"outcome_id"`
	OutcomeType OutcomeType  `json:"outcome_type"`
	OutcomeName string       `json:"outcome_name"`
	Snapshot    OddsSnapshot `json:"snapshot"`
}
