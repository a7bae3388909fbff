package models

import (
	"time"

	"github.com/google/uuid"
)

// MarketKind identifies the contract family a market belongs to
type MarketKind string

const (
	MarketKindMoneyline  MarketKind = "moneyline"
	MarketKindPrediction MarketKind = "prediction"
)

// PlatformType separates sportsbooks from prediction-market venues
type PlatformType string

const (
	PlatformTypeSportsbook       PlatformType = "sportsbook"
	PlatformTypePredictionMarket PlatformType = "prediction_market"
)

// OutcomeType tags which team a market side refers to
type OutcomeType string

const (
	OutcomeHomeWin OutcomeType = "home_win"
	OutcomeAwayWin OutcomeType = "away_win"
	OutcomeUnknown OutcomeType = "unknown"
)

// Negate returns the logical complement of an outcome type
func (t OutcomeType) Negate() OutcomeType {
	switch t {
	case OutcomeHomeWin:
		return OutcomeAwayWin
	case OutcomeAwayWin:
		return OutcomeHomeWin
	default:
		return OutcomeUnknown
	}
}

// Platform is a quoting venue, scoped by region for sportsbooks
type Platform struct {
	ID     uuid.UUID    `json:"id"`
	Key    string       `json:"key"`
	Name   string       `json:"name"`
	Type   PlatformType `json:"type"`
	Region string       `json:"region,omitempty"`
}

// Market is one priced contract for a game on one platform
type Market struct {
	ID         uuid.UUID  `json:"id"`
	GameID     uuid.UUID  `json:"game_id"`
	PlatformID uuid.UUID  `json:"platform_id"`
	Kind       MarketKind `json:"kind"`
	Name       string     `json:"name"`
	Identifier string     `json:"identifier,omitempty"` // slug, event ticker or upstream event id
}

// Outcome is one side of a market
type Outcome struct {
	ID       uuid.UUID   `json:"id"`
	MarketID uuid.UUID   `json:"market_id"`
	Type     OutcomeType `json:"type"`
	Name     string      `json:"name"`
}

// OddsSnapshot is a timestamped price observation for one outcome.
// IsClosingLine is the only field that changes after insert.
type OddsSnapshot struct {
	ID               uuid.UUID `json:"id"`
	OutcomeID        uuid.UUID `json:"outcome_id"`
	Timestamp        time.Time `json:"timestamp"`
	DecimalOdds      float64   `json:"decimal_odds"`
	RawProbability   float64   `json:"raw_probability"`
	DevigProbability float64   `json:"devigged_probability"`
	DevigDecimalOdds float64   `json:"devigged_decimal_odds"`
	IsClosingLine    bool      `json:"is_closing_line"`
}

// SideContext carries whatever a source tells us about one market side
type SideContext struct {
	Code        string `json:"code,omitempty"`  // compact coded identifier, e.g. a ticker
	Label       string `json:"label,omitempty"` // side-specific label or subtitle
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// Quote is one normalized price for one market side
type Quote struct {
	PlatformKey  string       `json:"platform_key"`
	PlatformName string       `json:"platform_name"`
	PlatformType PlatformType `json:"platform_type"`
	Region       string       `json:"region,omitempty"`
	MarketKind   MarketKind   `json:"market_kind"`
	MarketName   string       `json:"market_name"`
	Identifier   string       `json:"identifier,omitempty"`
	OutcomeName  string       `json:"outcome_name"`
	Side         SideContext  `json:"side"`
	// Negated marks a "No" side priced as the complement of the side described by Side
	Negated     bool      `json:"negated,omitempty"`
	DecimalOdds float64   `json:"decimal_odds"`
	ObservedAt  time.Time `json:"observed_at"`
}

// PriceKey groups quotes that must be de-vigged together
func (q Quote) PriceKey() string {
	return q.PlatformKey + "|" + q.Region + "|" + string(q.MarketKind)
}

// ClassifiedQuote is a quote whose side has been resolved against a game
type ClassifiedQuote struct {
	Quote
	OutcomeType OutcomeType `json:"outcome_type"`
}

// PricedQuote is a classified quote with de-vigged values attached
type PricedQuote struct {
	ClassifiedQuote
	RawProbability   float64 `json:"raw_probability"`
	DevigProbability float64 `json:"devigged_probability"`
	DevigDecimalOdds float64 `json:"devigged_decimal_odds"`
}

// LatestOdds is the cached most recent de-vigged price per game/platform/outcome
type LatestOdds struct {
	GameID           uuid.UUID   `json:"game_id"`
	PlatformKey      string      `json:"platform_key"`
	Region           string      `json:"region,omitempty"`
	MarketKind       MarketKind  `json:"market_kind"`
	OutcomeType      OutcomeType `json:"outcome_type"`
	OutcomeName      string      `json:"outcome_name"`
	DecimalOdds      float64     `json:"decimal_odds"`
	DevigProbability float64     `json:"devigged_probability"`
	DevigDecimalOdds float64     `json:"devigged_decimal_odds"`
	Timestamp        time.Time   `json:"timestamp"`
}

// CacheKey is the per-outcome slot this value occupies
func (l *LatestOdds) CacheKey() string {
	platform := l.PlatformKey
	if l.Region != "" {
		platform += "-" + l.Region
	}
	return platform + ":" + string(l.MarketKind) + ":" + string(l.OutcomeType)
}
