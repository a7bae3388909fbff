package sources

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cypherlabdev/odds-reconciler-service/internal/models"
	"github.com/cypherlabdev/odds-reconciler-service/pkg/teams"
)

var hundred = decimal.NewFromInt(100)

// KalshiPayload is a market listing with each market's orderbook attached
type KalshiPayload struct {
	Markets []KalshiMarket `json:"markets"`
}

// KalshiMarket is one binary market; a game usually has one per team
type KalshiMarket struct {
	Ticker      string          `json:"ticker"`
	EventTicker string          `json:"event_ticker"`
	Title       string          `json:"title"`
	Subtitle    string          `json:"subtitle"`
	YesSubTitle string          `json:"yes_sub_title"`
	CloseTime   string          `json:"close_time"`
	Orderbook   KalshiOrderbook `json:"orderbook"`
}

// KalshiOrderbook holds [price_cents, quantity] levels
type KalshiOrderbook struct {
	Yes [][]decimal.Decimal `json:"yes"`
	No  [][]decimal.Decimal `json:"no"`
}

// bestYesBid returns the highest yes price in cents
func (o KalshiOrderbook) bestYesBid() (decimal.Decimal, bool) {
	var best decimal.Decimal
	found := false
	for _, level := range o.Yes {
		if len(level) < 2 {
			continue
		}
		if !found || level[0].GreaterThan(best) {
			best = level[0]
			found = true
		}
	}
	return best, found
}

// Kalshi normalizes Kalshi markets into attach-only candidates. Close times
// trail the game by a roughly fixed offset, so close - offset is a trusted
// start reference.
type Kalshi struct {
	registry    *teams.Registry
	sport       string
	closeOffset time.Duration
	logger      zerolog.Logger
}

// NewKalshi creates a Kalshi normalizer
func NewKalshi(registry *teams.Registry, sport string, closeOffset time.Duration, logger zerolog.Logger) *Kalshi {
	return &Kalshi{
		registry:    registry,
		sport:       sport,
		closeOffset: closeOffset,
		logger:      logger.With().Str("component", "kalshi_normalizer").Logger(),
	}
}

// Source returns the source key
func (k *Kalshi) Source() string { return models.SourceKalshi }

// Normalize decodes an odds payload into attaching event candidates
func (k *Kalshi) Normalize(msg *models.SourceMessage) (*models.SourceBatch, error) {
	if msg.Kind != models.PayloadOdds {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, msg.Kind)
	}

	var payload KalshiPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal kalshi payload: %w", err)
	}

	batch := newBatch(msg, models.SourceKalshi, models.RoleAttaching)

	for _, market := range payload.Markets {
		candidate, ok := k.marketCandidate(market, batch)
		if !ok {
			batch.Skipped++
			continue
		}
		batch.Events = append(batch.Events, candidate)
	}

	return batch, nil
}

func (k *Kalshi) marketCandidate(market KalshiMarket, batch *models.SourceBatch) (models.EventCandidate, bool) {
	text := strings.Join([]string{market.Title, market.Subtitle, market.Ticker}, " ")
	found := k.registry.Scan(text, k.sport)
	if len(found) < 2 {
		k.logger.Debug().Str("ticker", market.Ticker).Int("teams", len(found)).Msg("could not identify two teams")
		return models.EventCandidate{}, false
	}

	cents, ok := market.Orderbook.bestYesBid()
	if !ok {
		k.logger.Debug().Str("ticker", market.Ticker).Msg("empty yes book")
		return models.EventCandidate{}, false
	}
	odds, ok := probabilityToOdds(cents.Div(hundred))
	if !ok {
		k.logger.Debug().Str("ticker", market.Ticker).Str("cents", cents.String()).Msg("yes bid out of range")
		return models.EventCandidate{}, false
	}

	candidate := models.EventCandidate{
		Sport:     k.sport,
		League:    found[0].League,
		HomeTeam:  found[0].CanonicalName,
		AwayTeam:  found[1].CanonicalName,
		Unordered: true,
		Text:      text,
	}

	// without a close time the attach falls back to the nearest upcoming game
	if market.CloseTime != "" {
		closeTime, err := parseTimestamp(market.CloseTime)
		if err != nil {
			k.logger.Warn().Err(err).Str("ticker", market.Ticker).Msg("bad close_time")
			return models.EventCandidate{}, false
		}
		candidate.StartTime = closeTime.Add(-k.closeOffset)
		candidate.TimeTrusted = true
	}

	outcomeName := market.YesSubTitle
	if outcomeName == "" {
		outcomeName = market.Title
	}

	candidate.Quotes = []models.Quote{{
		PlatformKey:  models.SourceKalshi,
		PlatformName: "Kalshi",
		PlatformType: models.PlatformTypePredictionMarket,
		MarketKind:   models.MarketKindPrediction,
		MarketName:   market.Title,
		Identifier:   market.EventTicker,
		OutcomeName:  outcomeName,
		Side: models.SideContext{
			Code:        market.Ticker,
			Label:       market.YesSubTitle,
			Title:       market.Title,
			Description: market.Subtitle,
		},
		DecimalOdds: odds,
		ObservedAt:  batch.FetchedAt,
	}}

	return candidate, true
}
