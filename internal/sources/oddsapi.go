package sources

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cypherlabdev/odds-reconciler-service/internal/models"
)

const oddsAPIMoneyline = "h2h"

// OddsAPIEvent is one event of The Odds API odds endpoint
type OddsAPIEvent struct {
	ID           string             `json:"id"`
	SportKey     string             `json:"sport_key"`
	CommenceTime time.Time          `json:"commence_time"`
	HomeTeam     string             `json:"home_team"`
	AwayTeam     string             `json:"away_team"`
	Bookmakers   []OddsAPIBookmaker `json:"bookmakers"`
}

// OddsAPIBookmaker is one book's markets for an event
type OddsAPIBookmaker struct {
	Key        string          `json:"key"`
	Title      string          `json:"title"`
	LastUpdate time.Time       `json:"last_update"`
	Markets    []OddsAPIMarket `json:"markets"`
}

// OddsAPIMarket is a market of a bookmaker
type OddsAPIMarket struct {
	Key      string           `json:"key"`
	Outcomes []OddsAPIOutcome `json:"outcomes"`
}

// OddsAPIOutcome is one priced side in decimal odds
type OddsAPIOutcome struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// OddsAPIScore is one event of the scores endpoint
type OddsAPIScore struct {
	ID           string             `json:"id"`
	CommenceTime time.Time          `json:"commence_time"`
	Completed    bool               `json:"completed"`
	HomeTeam     string             `json:"home_team"`
	AwayTeam     string             `json:"away_team"`
	Scores       []OddsAPITeamScore `json:"scores"`
}

// OddsAPITeamScore is a team's score as reported (a string)
type OddsAPITeamScore struct {
	Name  string `json:"name"`
	Score string `json:"score"`
}

// OddsAPI normalizes The Odds API. Its odds attach to existing games within
// an untrusted window; its scores drive game completion.
type OddsAPI struct {
	sport         string
	defaultRegion string
	logger        zerolog.Logger
}

// NewOddsAPI creates an Odds API normalizer
func NewOddsAPI(sport, defaultRegion string, logger zerolog.Logger) *OddsAPI {
	return &OddsAPI{
		sport:         sport,
		defaultRegion: defaultRegion,
		logger:        logger.With().Str("component", "oddsapi_normalizer").Logger(),
	}
}

// Source returns the source key
func (o *OddsAPI) Source() string { return models.SourceOddsAPI }

// Normalize decodes an odds or scores payload
func (o *OddsAPI) Normalize(msg *models.SourceMessage) (*models.SourceBatch, error) {
	batch := newBatch(msg, models.SourceOddsAPI, models.RoleAttaching)

	switch msg.Kind {
	case models.PayloadOdds:
		var events []OddsAPIEvent
		if err := json.Unmarshal(msg.Payload, &events); err != nil {
			return nil, fmt.Errorf("failed to unmarshal odds api events: %w", err)
		}
		region := msg.Region
		if region == "" {
			region = o.defaultRegion
		}
		for _, event := range events {
			candidate, ok := o.eventCandidate(event, region, batch)
			if !ok {
				batch.Skipped++
				continue
			}
			batch.Events = append(batch.Events, candidate)
		}

	case models.PayloadScores:
		var scores []OddsAPIScore
		if err := json.Unmarshal(msg.Payload, &scores); err != nil {
			return nil, fmt.Errorf("failed to unmarshal odds api scores: %w", err)
		}
		for _, score := range scores {
			if !score.Completed {
				continue
			}
			completion, ok := o.completion(score)
			if !ok {
				batch.Skipped++
				continue
			}
			batch.Completions = append(batch.Completions, completion)
		}

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, msg.Kind)
	}

	return batch, nil
}

func (o *OddsAPI) eventCandidate(event OddsAPIEvent, region string, batch *models.SourceBatch) (models.EventCandidate, bool) {
	if event.HomeTeam == "" || event.AwayTeam == "" {
		return models.EventCandidate{}, false
	}

	candidate := models.EventCandidate{
		Sport:     o.sport,
		HomeTeam:  event.HomeTeam,
		AwayTeam:  event.AwayTeam,
		StartTime: event.CommenceTime.UTC(),
		Text:      event.AwayTeam + " @ " + event.HomeTeam,
	}

	for _, book := range event.Bookmakers {
		observed := book.LastUpdate.UTC()
		if observed.IsZero() {
			observed = batch.FetchedAt
		}
		for _, market := range book.Markets {
			if market.Key != oddsAPIMoneyline {
				continue
			}
			for _, outcome := range market.Outcomes {
				candidate.Quotes = append(candidate.Quotes, models.Quote{
					PlatformKey:  strings.ToLower(book.Key),
					PlatformName: book.Title,
					PlatformType: models.PlatformTypeSportsbook,
					Region:       region,
					MarketKind:   models.MarketKindMoneyline,
					MarketName:   oddsAPIMoneyline,
					Identifier:   event.ID,
					OutcomeName:  outcome.Name,
					Side:         models.SideContext{Label: outcome.Name},
					DecimalOdds:  outcome.Price.InexactFloat64(),
					ObservedAt:   observed,
				})
			}
		}
	}

	return candidate, true
}

func (o *OddsAPI) completion(score OddsAPIScore) (models.GameCompletion, bool) {
	home, away := -1, -1
	for _, s := range score.Scores {
		v, err := strconv.Atoi(strings.TrimSpace(s.Score))
		if err != nil {
			o.logger.Warn().Err(err).Str("event_id", score.ID).Str("team", s.Name).Msg("unparseable score")
			return models.GameCompletion{}, false
		}
		switch s.Name {
		case score.HomeTeam:
			home = v
		case score.AwayTeam:
			away = v
		}
	}
	if home < 0 || away < 0 {
		return models.GameCompletion{}, false
	}

	return models.GameCompletion{
		Sport:     o.sport,
		HomeTeam:  score.HomeTeam,
		AwayTeam:  score.AwayTeam,
		StartTime: score.CommenceTime.UTC(),
		HomeScore: home,
		AwayScore: away,
	}, true
}
