package classifier

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/cypherlabdev/odds-reconciler-service/internal/metrics"
	"github.com/cypherlabdev/odds-reconciler-service/internal/models"
	"github.com/cypherlabdev/odds-reconciler-service/pkg/teams"
)

// Pair is a game's two teams in canonical (home, away) order
type Pair struct {
	Home *teams.Team
	Away *teams.Team
}

// Complete reports whether both teams are known
func (p Pair) Complete() bool {
	return p.Home != nil && p.Away != nil
}

// Rule inspects one market side and returns a definite outcome, or false to fall through
type Rule struct {
	Name  string
	Apply func(side models.SideContext, pair Pair) (models.OutcomeType, bool)
}

// Decision is the classifier's answer and the rule that produced it
type Decision struct {
	Outcome models.OutcomeType
	Rule    string
}

// Classifier decides which team a priced market side refers to
type Classifier struct {
	rules  []Rule
	logger zerolog.Logger
}

// NewClassifier creates a classifier with the default rule cascade
func NewClassifier(logger zerolog.Logger) *Classifier {
	return NewClassifierWithRules(DefaultRules(), logger)
}

// NewClassifierWithRules creates a classifier with a custom rule cascade
func NewClassifierWithRules(rules []Rule, logger zerolog.Logger) *Classifier {
	return &Classifier{
		rules:  rules,
		logger: logger.With().Str("component", "classifier").Logger(),
	}
}

// DefaultRules returns the cascade: coded identifier, side label, free-text
// score, then the home team as fallback
func DefaultRules() []Rule {
	return []Rule{
		{Name: "code", Apply: byCode},
		{Name: "label", Apply: byLabel},
		{Name: "text", Apply: byTextScore},
		{Name: "fallback", Apply: favorHome},
	}
}

// Classify runs the rules in order and stops at the first definite answer.
// An incomplete pair is classified unknown.
func (c *Classifier) Classify(side models.SideContext, pair Pair) Decision {
	if !pair.Complete() {
		return c.decide(models.OutcomeUnknown, "incomplete_pair")
	}

	for _, rule := range c.rules {
		if outcome, ok := rule.Apply(side, pair); ok {
			c.logger.Debug().
				Str("rule", rule.Name).
				Str("outcome", string(outcome)).
				Str("code", side.Code).
				Str("label", side.Label).
				Msg("classified market side")
			return c.decide(outcome, rule.Name)
		}
	}

	return c.decide(models.OutcomeUnknown, "exhausted")
}

func (c *Classifier) decide(outcome models.OutcomeType, rule string) Decision {
	metrics.Classifications.WithLabelValues(string(outcome), rule).Inc()
	return Decision{Outcome: outcome, Rule: rule}
}

// ClassifyQuote classifies a quote, negating the answer for complement ("No") sides
func (c *Classifier) ClassifyQuote(q models.Quote, pair Pair) models.ClassifiedQuote {
	decision := c.Classify(q.Side, pair)
	outcome := decision.Outcome
	if q.Negated {
		outcome = outcome.Negate()
	}
	return models.ClassifiedQuote{Quote: q, OutcomeType: outcome}
}

// byCode matches the token after the last '-' of a coded identifier
// exactly against each team's abbreviation and keywords
func byCode(side models.SideContext, pair Pair) (models.OutcomeType, bool) {
	code := strings.TrimSpace(side.Code)
	if code == "" {
		return "", false
	}
	if i := strings.LastIndex(code, "-"); i >= 0 {
		code = code[i+1:]
	}
	if code == "" {
		return "", false
	}

	home := codeMatches(pair.Home, code)
	away := codeMatches(pair.Away, code)

	switch {
	case home && !away:
		return models.OutcomeHomeWin, true
	case away && !home:
		return models.OutcomeAwayWin, true
	default:
		return "", false
	}
}

func codeMatches(team *teams.Team, token string) bool {
	return strings.EqualFold(team.Abbreviation, token) || team.HasKeyword(token)
}

// byLabel checks the side label for either team, home first
func byLabel(side models.SideContext, pair Pair) (models.OutcomeType, bool) {
	label := strings.TrimSpace(side.Label)
	if label == "" {
		return "", false
	}

	if pair.Home.Mentions(label) {
		return models.OutcomeHomeWin, true
	}
	if pair.Away.Mentions(label) {
		return models.OutcomeAwayWin, true
	}
	return "", false
}

// byTextScore scores title and description: one point per keyword present,
// three per "will <kw>", "<kw> win" or "<kw> beat" phrase
func byTextScore(side models.SideContext, pair Pair) (models.OutcomeType, bool) {
	text := strings.ToLower(strings.TrimSpace(side.Title + " " + side.Description))
	if text == "" {
		return "", false
	}

	home := textScore(pair.Home, text)
	away := textScore(pair.Away, text)

	switch {
	case home > away:
		return models.OutcomeHomeWin, true
	case away > home:
		return models.OutcomeAwayWin, true
	default:
		return "", false
	}
}

func textScore(team *teams.Team, text string) int {
	score := team.MentionCount(text)
	for _, kw := range team.Keywords {
		if strings.Contains(text, "will "+kw) ||
			strings.Contains(text, kw+" win") ||
			strings.Contains(text, kw+" beat") {
			score += 3
		}
	}
	return score
}

func favorHome(models.SideContext, Pair) (models.OutcomeType, bool) {
	return models.OutcomeHomeWin, true
}
