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

// PolymarketPayload is an events listing plus CLOB prices keyed by token id
type PolymarketPayload struct {
	Events []PolymarketEvent           `json:"events"`
	Prices map[string]PolymarketPrice `json:"prices"`
}

// PolymarketEvent is a Gamma API event
type PolymarketEvent struct {
	ID       string             `json:"id"`
	Slug     string             `json:"slug"`
	Title    string             `json:"title"`
	Question string             `json:"question"`
	EndDate  string             `json:"endDate"`
	Markets  []PolymarketMarket `json:"markets"`
}

// PolymarketMarket is a binary market of an event
type PolymarketMarket struct {
	ID            string `json:"id"`
	Question      string `json:"question"`
	Description   string `json:"description"`
	Slug          string `json:"slug"`
	GameStartTime string `json:"gameStartTime"`
	ClobTokenIDs  string `json:"clobTokenIds"` // JSON-encoded list, Yes token first
}

// PolymarketPrice is a CLOB price quote; the first present of mid, price, last is used
type PolymarketPrice struct {
	Mid   *decimal.Decimal `json:"mid,omitempty"`
	Price *decimal.Decimal `json:"price,omitempty"`
	Last  *decimal.Decimal `json:"last,omitempty"`
}

func (p PolymarketPrice) value() (decimal.Decimal, bool) {
	for _, v := range []*decimal.Decimal{p.Mid, p.Price, p.Last} {
		if v != nil {
			return *v, true
		}
	}
	return decimal.Zero, false
}

// Polymarket normalizes Polymarket events. It is the creating source: its
// game start times are authoritative and its first-named team is home.
type Polymarket struct {
	registry *teams.Registry
	sport    string
	logger   zerolog.Logger
}

// NewPolymarket creates a Polymarket normalizer
func NewPolymarket(registry *teams.Registry, sport string, logger zerolog.Logger) *Polymarket {
	return &Polymarket{
		registry: registry,
		sport:    sport,
		logger:   logger.With().Str("component", "polymarket_normalizer").Logger(),
	}
}

// Source returns the source key
func (p *Polymarket) Source() string { return models.SourcePolymarket }

// Normalize decodes an odds payload into creating event candidates
func (p *Polymarket) Normalize(msg *models.SourceMessage) (*models.SourceBatch, error) {
	if msg.Kind != models.PayloadOdds {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, msg.Kind)
	}

	var payload PolymarketPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal polymarket payload: %w", err)
	}

	batch := newBatch(msg, models.SourcePolymarket, models.RoleCreating)

	for _, event := range payload.Events {
		candidate, ok := p.eventCandidate(event, payload.Prices, batch)
		if !ok {
			batch.Skipped++
			continue
		}
		batch.Events = append(batch.Events, candidate)
	}

	return batch, nil
}

func (p *Polymarket) eventCandidate(event PolymarketEvent, prices map[string]PolymarketPrice, batch *models.SourceBatch) (models.EventCandidate, bool) {
	found := p.findTeams(event)
	if len(found) < 2 {
		p.logger.Debug().Str("title", event.Title).Int("teams", len(found)).Msg("could not identify two teams")
		return models.EventCandidate{}, false
	}

	start, ok := p.startTime(event)
	if !ok {
		p.logger.Warn().Str("title", event.Title).Msg("no valid game start time")
		return models.EventCandidate{}, false
	}

	candidate := models.EventCandidate{
		Sport:       p.sport,
		League:      found[0].League,
		HomeTeam:    found[0].CanonicalName,
		AwayTeam:    found[1].CanonicalName,
		StartTime:   start,
		TimeTrusted: true,
		Text:        event.Title,
	}

	for _, market := range event.Markets {
		candidate.Quotes = append(candidate.Quotes, p.marketQuotes(event, market, prices, batch)...)
	}

	return candidate, true
}

// findTeams scans the title, then market questions until two teams are known
func (p *Polymarket) findTeams(event PolymarketEvent) []*teams.Team {
	found := p.registry.Scan(event.Title, p.sport)
	if len(found) >= 2 {
		return found[:2]
	}

	seen := make(map[int]bool, len(found))
	for _, t := range found {
		seen[t.ID] = true
	}
	for _, market := range event.Markets {
		for _, t := range p.registry.Scan(market.Question, p.sport) {
			if seen[t.ID] {
				continue
			}
			seen[t.ID] = true
			found = append(found, t)
			if len(found) == 2 {
				return found
			}
		}
	}
	return found
}

func (p *Polymarket) startTime(event PolymarketEvent) (time.Time, bool) {
	for _, market := range event.Markets {
		if market.GameStartTime == "" {
			continue
		}
		parsed, err := parseTimestamp(market.GameStartTime)
		if err != nil {
			p.logger.Debug().Err(err).Str("market_id", market.ID).Msg("bad gameStartTime")
			continue
		}
		return parsed, true
	}
	return time.Time{}, false
}

// marketQuotes prices the Yes side from its token and the No side as its complement
func (p *Polymarket) marketQuotes(event PolymarketEvent, market PolymarketMarket, prices map[string]PolymarketPrice, batch *models.SourceBatch) []models.Quote {
	var tokens []string
	if err := json.Unmarshal([]byte(market.ClobTokenIDs), &tokens); err != nil || len(tokens) == 0 {
		p.logger.Debug().Str("market_id", market.ID).Msg("market without clob token ids")
		return nil
	}

	yes, ok := prices[tokens[0]].value()
	if !ok {
		if len(tokens) < 2 {
			return nil
		}
		no, ok := prices[tokens[1]].value()
		if !ok {
			return nil
		}
		yes = one.Sub(no)
	}

	side := models.SideContext{
		Title:       strings.TrimSpace(event.Question + " " + event.Title + " " + market.Question),
		Description: market.Description,
	}
	label := market.Question
	if label == "" {
		label = market.Description
	}

	base := models.Quote{
		PlatformKey:  models.SourcePolymarket,
		PlatformName: "Polymarket",
		PlatformType: models.PlatformTypePredictionMarket,
		MarketKind:   models.MarketKindPrediction,
		MarketName:   event.Title,
		Identifier:   event.Slug,
		Side:         side,
		ObservedAt:   batch.FetchedAt,
	}

	var quotes []models.Quote
	if odds, ok := probabilityToOdds(yes); ok {
		q := base
		q.OutcomeName = "Yes - " + label
		q.DecimalOdds = odds
		quotes = append(quotes, q)
	}
	if odds, ok := probabilityToOdds(one.Sub(yes)); ok {
		q := base
		q.OutcomeName = "No - " + label
		q.Negated = true
		q.DecimalOdds = odds
		quotes = append(quotes, q)
	}
	return quotes
}
