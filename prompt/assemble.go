// Package prompt turns resolved templates into final prompts: entry
// prefixes and suffixes are applied, **negative** fragments are moved to
// the negative prompt and punctuation is tidied.
package prompt

import (
	"regexp"
	"strings"

	"github.com/teranos/umi/grammar"
	"github.com/teranos/umi/resolver"
	"github.com/teranos/umi/settings"
	"github.com/teranos/umi/vocab"
)

var (
	commaRunRe   = regexp.MustCompile(`,(\s*,)+`)
	leadingRe    = regexp.MustCompile(`^\s*,\s*`)
	trailingRe   = regexp.MustCompile(`\s*,\s*$`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Prompt is one assembled prompt.
type Prompt struct {
	Positive  string             `json:"prompt"`
	Negative  string             `json:"negative"` // collected negatives only
	Overrides settings.Overrides `json:"overrides"`
	Entries   []string           `json:"entries,omitempty"`
	Files     []string           `json:"files,omitempty"`
}

// additions are the prefixes and suffixes contributed by selected entries,
// split by whether they are negative.
type additions struct {
	prefixes, suffixes       []string
	negPrefixes, negSuffixes []string
}

func collect(entries []vocab.Entry) additions {
	var a additions
	for _, e := range entries {
		for _, p := range e.Prefixes {
			if neg, ok := negative(p); ok {
				a.negPrefixes = append(a.negPrefixes, neg)
			} else if p != "" {
				a.prefixes = append(a.prefixes, p)
			}
		}
		for _, s := range e.Suffixes {
			if neg, ok := negative(s); ok {
				a.negSuffixes = append(a.negSuffixes, neg)
			} else if s != "" {
				a.suffixes = append(a.suffixes, s)
			}
		}
	}
	return a
}

// negative reports whether an addition is marked with ** and returns it unmarked.
func negative(s string) (string, bool) {
	if !strings.Contains(s, "**") {
		return "", false
	}
	return strings.TrimSpace(strings.ReplaceAll(s, "**", "")), true
}

// Assemble builds the final prompt from a resolution.
func Assemble(res *resolver.Result) *Prompt {
	a := collect(res.Entries)

	text := res.Text
	if len(a.prefixes) > 0 {
		text = strings.Join(a.prefixes, ", ") + ", " + text
	}
	if len(a.suffixes) > 0 {
		text = text + ", " + strings.Join(a.suffixes, ", ")
	}

	text, tags := ExtractNegatives(text)

	var negs []string
	negs = append(negs, a.negPrefixes...)
	negs = append(negs, tags...)
	negs = append(negs, a.negSuffixes...)

	titles := make([]string, len(res.Entries))
	for i, e := range res.Entries {
		titles[i] = e.Title
	}

	return &Prompt{
		Positive:  Normalize(text),
		Negative:  Normalize(strings.Join(dedupe(negs), ", ")),
		Overrides: res.Overrides,
		Entries:   titles,
		Files:     res.Files,
	}
}

// ExtractNegatives removes every **fragment** from text and returns the
// fragments in order of appearance.
func ExtractNegatives(text string) (string, []string) {
	var b strings.Builder
	var tags []string
	for _, n := range grammar.Scan(text, grammar.Negative) {
		if n.Kind == grammar.Negative {
			tags = append(tags, strings.TrimSpace(n.Body))
			continue
		}
		b.WriteString(n.Raw)
	}
	return b.String(), tags
}

// Normalize collapses comma runs and whitespace and trims stray commas at
// either end.
func Normalize(s string) string {
	s = commaRunRe.ReplaceAllString(s, ",")
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = leadingRe.ReplaceAllString(s, "")
	s = trailingRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// MergeNegative appends collected negatives to an existing negative prompt.
func MergeNegative(existing, collected string) string {
	if strings.TrimSpace(collected) == "" {
		return existing
	}
	if strings.TrimSpace(existing) == "" {
		return Normalize(collected)
	}
	return Normalize(existing + ", " + collected)
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := items[:0:0]
	for _, it := range items {
		if it == "" || seen[it] {
			continue
		}
		seen[it] = true
		out = append(out, it)
	}
	return out
}
