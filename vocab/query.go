package vocab

import (
	"strings"
)

// Query is a parsed tag query: every All tag must be present, no None tag
// may be present, and each Any group needs at least one of its tags.
type Query struct {
	All  []string
	Any  [][]string
	None []string
}

// ParseQuery turns bracket group contents into a Query.
// "--tag" excludes, "a|b" is an alternative group, anything else is required.
func ParseQuery(groups []string) Query {
	var q Query
	for _, g := range groups {
		g = strings.ToLower(strings.TrimSpace(g))
		switch {
		case g == "":
		case strings.HasPrefix(g, "--"):
			if t := strings.TrimSpace(strings.TrimPrefix(g, "--")); t != "" {
				q.None = append(q.None, t)
			}
		case strings.Contains(g, "|"):
			var alts []string
			for _, a := range strings.Split(g, "|") {
				if a = strings.TrimSpace(a); a != "" {
					alts = append(alts, a)
				}
			}
			if len(alts) > 0 {
				q.Any = append(q.Any, alts)
			}
		default:
			q.All = append(q.All, g)
		}
	}
	return q
}

// Empty reports whether the query has no conditions at all.
func (q Query) Empty() bool {
	return len(q.All) == 0 && len(q.Any) == 0 && len(q.None) == 0
}

// Match reports whether e satisfies the query.
func (q Query) Match(e Entry) bool {
	for _, t := range q.All {
		if !e.HasTag(t) {
			return false
		}
	}
	for _, t := range q.None {
		if e.HasTag(t) {
			return false
		}
	}
	for _, alts := range q.Any {
		found := false
		for _, t := range alts {
			if e.HasTag(t) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// QueryTags returns the sorted titles of tagged entries matching groups.
// A non-empty scope restricts candidates to one structured source. An
// empty query or an unknown scope yields no titles.
func (s *Store) QueryTags(scope string, groups []string) []string {
	q := ParseQuery(groups)
	if q.Empty() {
		return nil
	}
	snap := s.current()

	candidates := snap.tagged
	if len(q.All) > 0 {
		// narrow to the smallest posting list among required tags
		candidates = nil
		for i, t := range q.All {
			posting := snap.tagIndex[t]
			if i == 0 || len(posting) < len(candidates) {
				candidates = posting
			}
		}
	}

	var inScope map[string]bool
	if scope = strings.TrimSpace(scope); scope != "" {
		key, ok := snap.structKeys.resolve(scope, s.opts.IgnoreFolders)
		if !ok {
			s.recordMiss(scope)
			return nil
		}
		inScope = make(map[string]bool)
		for _, t := range snap.structured[key].titles {
			inScope[t] = true
		}
	}

	var out []string
	for _, title := range candidates {
		if inScope != nil && !inScope[title] {
			continue
		}
		if q.Match(snap.entries[title]) {
			out = append(out, title)
		}
	}
	return out
}
