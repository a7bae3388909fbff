package classifier

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cypherlabdev/odds-reconciler-service/internal/models"
	"github.com/cypherlabdev/odds-reconciler-service/pkg/teams"
)

func setupTestPair(t *testing.T) Pair {
	t.Helper()
	reg, err := teams.DefaultRegistry()
	require.NoError(t, err)

	home, ok := reg.Resolve("Yankees", "mlb")
	require.True(t, ok)
	away, ok := reg.Resolve("Red Sox", "mlb")
	require.True(t, ok)

	return Pair{Home: home, Away: away}
}

func TestClassify(t *testing.T) {
	pair := setupTestPair(t)
	c := NewClassifier(zerolog.Nop())

	tests := []struct {
		name     string
		side     models.SideContext
		expected models.OutcomeType
		rule     string
	}{
		{
			name:     "Code suffix matches away abbreviation",
			side:     models.SideContext{Code: "KXMLBGAME-25JUN18NYYBOS-BOS"},
			expected: models.OutcomeAwayWin,
			rule:     "code",
		},
		{
			name:     "Code suffix matches home abbreviation",
			side:     models.SideContext{Code: "KXMLBGAME-25JUN18NYYBOS-NYY", Label: "Boston"},
			expected: models.OutcomeHomeWin,
			rule:     "code",
		},
		{
			name:     "Code without separator",
			side:     models.SideContext{Code: "nyy"},
			expected: models.OutcomeHomeWin,
			rule:     "code",
		},
		{
			name:     "Unmatched code falls through to label",
			side:     models.SideContext{Code: "KXMLBGAME-25JUN18NYYBOS-XYZ", Label: "Boston"},
			expected: models.OutcomeAwayWin,
			rule:     "label",
		},
		{
			name:     "Label with full team name",
			side:     models.SideContext{Label: "New York Yankees"},
			expected: models.OutcomeHomeWin,
			rule:     "label",
		},
		{
			name:     "Phrase pattern outweighs mentions",
			side:     models.SideContext{Title: "Will the Red Sox beat the Yankees?"},
			expected: models.OutcomeAwayWin,
			rule:     "text",
		},
		{
			name:     "Will pattern in description",
			side:     models.SideContext{Title: "Red Sox vs. Yankees", Description: "Resolves yes if the game ends and yankees win."},
			expected: models.OutcomeHomeWin,
			rule:     "text",
		},
		{
			name:     "Tied text score falls back to home",
			side:     models.SideContext{Title: "Yankees vs. Red Sox"},
			expected: models.OutcomeHomeWin,
			rule:     "fallback",
		},
		{
			name:     "No context falls back to home",
			side:     models.SideContext{},
			expected: models.OutcomeHomeWin,
			rule:     "fallback",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := c.Classify(tt.side, pair)
			assert.Equal(t, tt.expected, decision.Outcome)
			assert.Equal(t, tt.rule, decision.Rule)
		})
	}
}

func TestByLabel_ShortKeywordsMatchWholeWords(t *testing.T) {
	pair := setupTestPair(t)

	tests := []struct {
		label    string
		expected models.OutcomeType
		matched  bool
	}{
		{label: "BOS", expected: models.OutcomeAwayWin, matched: true},
		{label: "NYY moneyline", expected: models.OutcomeHomeWin, matched: true},
		{label: "Yanks", expected: models.OutcomeHomeWin, matched: true},
		{label: "Redsox Nation", expected: models.OutcomeAwayWin, matched: true},
		{label: "Bosco", matched: false},
		{label: "NYYC", matched: false},
		{label: "  ", matched: false},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			outcome, ok := byLabel(models.SideContext{Label: tt.label}, pair)
			assert.Equal(t, tt.matched, ok)
			assert.Equal(t, tt.expected, outcome)
		})
	}
}

func TestClassify_IncompletePair(t *testing.T) {
	pair := setupTestPair(t)
	c := NewClassifier(zerolog.Nop())

	decision := c.Classify(models.SideContext{Label: "Yankees"}, Pair{Home: pair.Home})
	assert.Equal(t, models.OutcomeUnknown, decision.Outcome)

	decision = c.Classify(models.SideContext{Label: "Yankees"}, Pair{})
	assert.Equal(t, models.OutcomeUnknown, decision.Outcome)
}

func TestClassify_ExhaustedRules(t *testing.T) {
	pair := setupTestPair(t)
	c := NewClassifierWithRules([]Rule{{Name: "code", Apply: byCode}}, zerolog.Nop())

	decision := c.Classify(models.SideContext{Label: "Yankees"}, pair)
	assert.Equal(t, models.OutcomeUnknown, decision.Outcome)
	assert.Equal(t, "exhausted", decision.Rule)
}

func TestClassifyQuote_NegatesComplementSide(t *testing.T) {
	pair := setupTestPair(t)
	c := NewClassifier(zerolog.Nop())

	yes := models.Quote{Side: models.SideContext{Title: "Will the Red Sox beat the Yankees?"}, DecimalOdds: 1.8}
	no := yes
	no.Negated = true

	assert.Equal(t, models.OutcomeAwayWin, c.ClassifyQuote(yes, pair).OutcomeType)
	assert.Equal(t, models.OutcomeHomeWin, c.ClassifyQuote(no, pair).OutcomeType)

	unknown := c.ClassifyQuote(no, Pair{})
	assert.Equal(t, models.OutcomeUnknown, unknown.OutcomeType)
}

func TestOutcomeNegate(t *testing.T) {
	assert.Equal(t, models.OutcomeAwayWin, models.OutcomeHomeWin.Negate())
	assert.Equal(t, models.OutcomeHomeWin, models.OutcomeAwayWin.Negate())
	assert.Equal(t, models.OutcomeUnknown, models.OutcomeUnknown.Negate())
}
