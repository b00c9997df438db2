package grammar

import (
	"regexp"
	"strings"
)

var (
	seedPrefix = regexp.MustCompile(`^#([0-9|]+)\$\$`)
	groupRe    = regexp.MustCompile(`\[([^\[\]]*)\]`)
)

// Ref is the parsed body of a FileRef or TagQuery node.
type Ref struct {
	Seeds  []string // seed tokens from "#1|2$$"; empty when unseeded
	Range  string   // quantity spec from "1-3$$"; empty when absent
	Name   string   // source name (FileRef) or scope (TagQuery)
	Groups []string // bracket group contents, in order
	Opts   bool     // a ":[...]" option suffix was present
}

// Seeded reports whether the reference carries seed tokens.
func (r Ref) Seeded() bool {
	return len(r.Seeds) > 0
}

// Ranged reports whether the reference carries a quantity prefix.
func (r Ref) Ranged() bool {
	return r.Range != ""
}

// SeedToken is the canonical seed text, e.g. "1|2".
func (r Ref) SeedToken() string {
	return strings.Join(r.Seeds, "|")
}

// ParseFileRef parses the body of __...__.
func ParseFileRef(body string) Ref {
	var r Ref
	rest := strings.TrimSpace(body)

	if m := seedPrefix.FindStringSubmatch(rest); m != nil {
		r.Seeds = splitSeeds(m[1])
		rest = rest[len(m[0]):]
	} else if i := strings.Index(rest, "$$"); i >= 0 {
		r.Range = strings.TrimSpace(rest[:i])
		if r.Range == "" {
			r.Range = "-"
		}
		rest = rest[i+2:]
	}

	if i := strings.Index(rest, ":"); i >= 0 && strings.Contains(rest[i:], "[") {
		r.Opts = true
		r.Groups = groups(rest[i+1:])
		rest = rest[:i]
	}
	r.Name = strings.TrimSpace(rest)
	return r
}

// ParseTagQuery parses the body of <...>.
func ParseTagQuery(body string) Ref {
	var r Ref
	rest := strings.TrimSpace(body)

	if m := seedPrefix.FindStringSubmatch(rest); m != nil {
		r.Seeds = splitSeeds(m[1])
		rest = rest[len(m[0]):]
	}

	if i := strings.Index(rest, "["); i >= 0 {
		if scope := strings.TrimSpace(rest[:i]); strings.HasSuffix(scope, ":") {
			r.Name = strings.TrimSpace(strings.TrimSuffix(scope, ":"))
		}
		r.Groups = groups(rest[i:])
	}
	return r
}

func groups(s string) []string {
	var out []string
	for _, m := range groupRe.FindAllStringSubmatch(s, -1) {
		out = append(out, strings.TrimSpace(m[1]))
	}
	return out
}

func splitSeeds(s string) []string {
	var out []string
	for _, p := range strings.Split(s, "|") {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
