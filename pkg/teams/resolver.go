package teams

import "strings"

// Resolve finds the team a name refers to. Match levels are tried in order
// and the first hit wins: canonical name, abbreviation, exact keyword, then
// partial keyword overlap in registry order.
func (r *Registry) Resolve(name, sport string) (*Team, bool) {
	idx, ok := r.sports[normalize(sport)]
	if !ok {
		return nil, false
	}

	name = normalize(name)
	if name == "" {
		return nil, false
	}

	if t, ok := idx.byName[name]; ok {
		return t, true
	}
	if t, ok := idx.byAbbrev[name]; ok {
		return t, true
	}
	if t, ok := idx.byKeyword[name]; ok {
		return t, true
	}

	return idx.resolvePartial(name)
}

// resolvePartial prefers keywords containing the input over keywords
// contained in it, so "yank" finds the Yankees before anything longer matches
func (idx *sportIndex) resolvePartial(name string) (*Team, bool) {
	for _, t := range idx.teams {
		for _, kw := range t.Keywords {
			if strings.Contains(kw, name) {
				return t, true
			}
		}
	}
	for _, t := range idx.teams {
		for _, kw := range t.Keywords {
			if strings.Contains(name, kw) {
				return t, true
			}
		}
	}
	return nil, false
}

// Scan returns the distinct teams mentioned in free text.
//
// Teams are evaluated longest canonical name first. Abbreviations are matched
// on word boundaries in a first pass; canonical names and keywords in a
// second pass, with short single-token keywords also bounded by word
// boundaries. Each team appears once, in first-encountered order.
func (r *Registry) Scan(text, sport string) []*Team {
	idx, ok := r.sports[normalize(sport)]
	if !ok {
		return nil
	}

	text = strings.ToLower(text)
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var found []*Team
	matched := make(map[int]bool)

	for _, t := range idx.scanOrder {
		if idx.abbrevPatterns[t.ID].MatchString(text) {
			found = append(found, t)
			matched[t.ID] = true
		}
	}

	for _, t := range idx.scanOrder {
		if matched[t.ID] {
			continue
		}
		if t.Mentions(text) {
			found = append(found, t)
			matched[t.ID] = true
		}
	}

	return found
}

// Equivalent reports whether two names refer to the same team: both resolve to
// the same id, or one resolves and the other is literally one of its keywords.
func (r *Registry) Equivalent(a, b, sport string) bool {
	if normalize(a) == "" || normalize(b) == "" {
		return false
	}

	ta, okA := r.Resolve(a, sport)
	tb, okB := r.Resolve(b, sport)

	switch {
	case okA && okB:
		return ta.ID == tb.ID
	case okA:
		return ta.HasKeyword(b)
	case okB:
		return tb.HasKeyword(a)
	default:
		return false
	}
}
