package teams

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

//go:embed data/mlb.yaml
var defaultRegistryYAML []byte

// Team is the canonical identity of one franchise within a sport
type Team struct {
	ID            int      `yaml:"id" json:"id"`
	CanonicalName string   `yaml:"name" json:"canonical_name"`
	Sport         string   `yaml:"-" json:"sport"`
	League        string   `yaml:"-" json:"league"`
	Abbreviation  string   `yaml:"abbreviation" json:"abbreviation"`
	Keywords      []string `yaml:"keywords" json:"keywords"`
	City          string   `yaml:"city" json:"city"`
	Nickname      string   `yaml:"nickname" json:"nickname"`
	Timezone      string   `yaml:"timezone" json:"timezone"`

	location *time.Location
	matchers []keywordMatcher
}

// Location returns the home venue timezone
func (t *Team) Location() *time.Location {
	if t.location == nil {
		return time.UTC
	}
	return t.location
}

// HasKeyword reports whether s (case-insensitive, trimmed) is one of the team's keywords
func (t *Team) HasKeyword(s string) bool {
	s = normalize(s)
	for _, kw := range t.Keywords {
		if kw == s {
			return true
		}
	}
	return false
}

// Mentions reports whether text mentions the team by canonical name or keyword.
// Short single-token keywords only match on word boundaries.
func (t *Team) Mentions(text string) bool {
	text = strings.ToLower(text)
	if strings.Contains(text, strings.ToLower(t.CanonicalName)) {
		return true
	}
	for _, m := range t.matchers {
		if m.matches(text) {
			return true
		}
	}
	return false
}

// MentionCount counts the keywords of the team present in text
func (t *Team) MentionCount(text string) int {
	text = strings.ToLower(text)
	n := 0
	for _, m := range t.matchers {
		if m.matches(text) {
			n++
		}
	}
	return n
}

type registryFile struct {
	Sports []struct {
		Sport  string  `yaml:"sport"`
		League string  `yaml:"league"`
		Teams  []*Team `yaml:"teams"`
	} `yaml:"sports"`
}

// Registry is an immutable, preloaded team catalogue indexed per sport.
// It is safe for concurrent use.
type Registry struct {
	sports map[string]*sportIndex
	byID   map[int]*Team
}

type sportIndex struct {
	teams     []*Team // registry order
	scanOrder []*Team // longest canonical name first

	byName    map[string]*Team
	byAbbrev  map[string]*Team
	byKeyword map[string]*Team

	abbrevPatterns map[int]*regexp.Regexp
}

type keywordMatcher struct {
	keyword string
	pattern *regexp.Regexp // nil means plain substring match
}

// DefaultRegistry returns the built-in registry
func DefaultRegistry() (*Registry, error) {
	return ParseRegistry(defaultRegistryYAML)
}

// LoadRegistry reads a registry YAML file
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read team registry: %w", err)
	}
	return ParseRegistry(data)
}

// ParseRegistry builds a registry from YAML and validates its uniqueness rules:
// within a sport canonical names, abbreviations and exact keywords each belong
// to one team only, and team ids are unique across sports.
func ParseRegistry(data []byte) (*Registry, error) {
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse team registry: %w", err)
	}

	reg := &Registry{
		sports: make(map[string]*sportIndex),
		byID:   make(map[int]*Team),
	}

	for _, section := range file.Sports {
		sport := normalize(section.Sport)
		if sport == "" {
			return nil, fmt.Errorf("team registry section without sport")
		}

		idx, ok := reg.sports[sport]
		if !ok {
			idx = &sportIndex{
				byName:         make(map[string]*Team),
				byAbbrev:       make(map[string]*Team),
				byKeyword:      make(map[string]*Team),
				abbrevPatterns: make(map[int]*regexp.Regexp),
			}
			reg.sports[sport] = idx
		}

		for _, team := range section.Teams {
			team.Sport = sport
			team.League = section.League
			if err := reg.add(idx, team); err != nil {
				return nil, err
			}
		}
	}

	for _, idx := range reg.sports {
		idx.scanOrder = make([]*Team, len(idx.teams))
		copy(idx.scanOrder, idx.teams)
		sort.SliceStable(idx.scanOrder, func(i, j int) bool {
			return len(idx.scanOrder[i].CanonicalName) > len(idx.scanOrder[j].CanonicalName)
		})
	}

	return reg, nil
}

func (r *Registry) add(idx *sportIndex, team *Team) error {
	if team.ID <= 0 {
		return fmt.Errorf("team %q has no id", team.CanonicalName)
	}
	if _, dup := r.byID[team.ID]; dup {
		return fmt.Errorf("duplicate team id %d", team.ID)
	}

	name := normalize(team.CanonicalName)
	abbrev := normalize(team.Abbreviation)
	if name == "" || abbrev == "" {
		return fmt.Errorf("team %d needs a name and an abbreviation", team.ID)
	}
	if other, dup := idx.byName[name]; dup {
		return fmt.Errorf("duplicate canonical name %q (teams %d and %d)", team.CanonicalName, other.ID, team.ID)
	}
	if other, dup := idx.byAbbrev[abbrev]; dup {
		return fmt.Errorf("duplicate abbreviation %q (teams %d and %d)", team.Abbreviation, other.ID, team.ID)
	}

	loc, err := time.LoadLocation(team.Timezone)
	if err != nil {
		return fmt.Errorf("failed to load timezone %q for team %q: %w", team.Timezone, team.CanonicalName, err)
	}
	team.location = loc

	keywords := make([]string, 0, len(team.Keywords))
	seen := make(map[string]bool, len(team.Keywords))
	for _, kw := range team.Keywords {
		kw = normalize(kw)
		if kw == "" || seen[kw] {
			continue
		}
		if other, dup := idx.byKeyword[kw]; dup {
			return fmt.Errorf("keyword %q claimed by teams %d and %d", kw, other.ID, team.ID)
		}
		seen[kw] = true
		keywords = append(keywords, kw)
	}
	team.Keywords = keywords

	for _, kw := range keywords {
		idx.byKeyword[kw] = team
		team.matchers = append(team.matchers, newKeywordMatcher(kw))
	}

	idx.byName[name] = team
	idx.byAbbrev[abbrev] = team
	idx.abbrevPatterns[team.ID] = wordPattern(abbrev)
	idx.teams = append(idx.teams, team)
	r.byID[team.ID] = team

	return nil
}

// Teams returns the teams of a sport in registry order
func (r *Registry) Teams(sport string) []*Team {
	idx, ok := r.sports[normalize(sport)]
	if !ok {
		return nil
	}
	out := make([]*Team, len(idx.teams))
	copy(out, idx.teams)
	return out
}

// Sports lists the sports the registry knows about
func (r *Registry) Sports() []string {
	out := make([]string, 0, len(r.sports))
	for sport := range r.sports {
		out = append(out, sport)
	}
	sort.Strings(out)
	return out
}

// ByID looks a team up by id
func (r *Registry) ByID(id int) (*Team, bool) {
	t, ok := r.byID[id]
	return t, ok
}

// newKeywordMatcher picks word-boundary matching for short single tokens
// and substring matching for long or multi-word keywords
func newKeywordMatcher(kw string) keywordMatcher {
	if len(strings.Fields(kw)) > 1 || len(kw) > 4 {
		return keywordMatcher{keyword: kw}
	}
	return keywordMatcher{keyword: kw, pattern: wordPattern(kw)}
}

func (m keywordMatcher) matches(text string) bool {
	if m.pattern == nil {
		return strings.Contains(text, m.keyword)
	}
	return m.pattern.MatchString(text)
}

func wordPattern(token string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(token) + `\b`)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
