package resolver

import (
	"strings"

	"github.com/teranos/umi/grammar"
)

// span is a run of working text together with the keys whose expansion
// produced it, outermost first.
type span struct {
	text    string
	lineage []string
}

// doc is the working text of one resolution.
type doc []span

func newDoc(text string, lineage []string) doc {
	return doc{{text: text, lineage: lineage}}
}

func (d doc) String() string {
	var b strings.Builder
	for _, s := range d {
		b.WriteString(s.text)
	}
	return b.String()
}

// slice returns the spans covering [start, end) of the joined text.
func (d doc) slice(start, end int) doc {
	var out doc
	off := 0
	for _, s := range d {
		sEnd := off + len(s.text)
		lo, hi := max(start, off), min(end, sEnd)
		if lo < hi {
			out = append(out, span{text: s.text[lo-off : hi-off], lineage: s.lineage})
		}
		off = sEnd
		if off >= end {
			break
		}
	}
	return out
}

// lineage returns the union of the lineages of d, in first-seen order.
func (d doc) lineage() []string {
	var out []string
	seen := make(map[string]bool)
	for _, s := range d {
		for _, k := range s.lineage {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	return out
}

// replacement is what an expander returns for one placeholder node.
type replacement struct {
	text string
	// lineage of the text the replacement came from
	lineage []string
	key     string // appended to lineage for the new span; may be empty
}

// expander resolves one node. covered holds the spans of the node's raw
// text. ok=false keeps the node's text as it is.
type expander func(n grammar.Node, covered doc) (replacement, bool)

// rewrite scans d for kinds and replaces every node the expander accepts.
// Text that is not replaced keeps its original lineage.
func (d doc) rewrite(expand expander, kinds ...grammar.Kind) doc {
	text := d.String()
	var out doc
	for _, n := range grammar.Scan(text, kinds...) {
		covered := d.slice(n.Start, n.End)
		if !n.Placeholder() {
			out = out.push(covered...)
			continue
		}
		r, ok := expand(n, covered)
		if !ok {
			out = out.push(covered...)
			continue
		}
		lin := append([]string(nil), r.lineage...)
		if r.key != "" && !contains(lin, r.key) {
			lin = append(lin, r.key)
		}
		out = out.push(span{text: r.text, lineage: lin})
	}
	return out
}

// union merges lineages in first-seen order.
func union(lineages ...[]string) []string {
	var d doc
	for _, l := range lineages {
		d = append(d, span{lineage: l})
	}
	return d.lineage()
}

// push appends spans, merging neighbours with equal lineage and dropping
// empty text.
func (d doc) push(spans ...span) doc {
	for _, s := range spans {
		if s.text == "" {
			continue
		}
		if n := len(d); n > 0 && sameLineage(d[n-1].lineage, s.lineage) {
			d[n-1].text += s.text
			continue
		}
		d = append(d, s)
	}
	return d
}

func sameLineage(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func contains(lineage []string, key string) bool {
	for _, k := range lineage {
		if k == key {
			return true
		}
	}
	return false
}
