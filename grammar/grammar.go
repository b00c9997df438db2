// Package grammar scans prompt templates into a sequence of literal text
// and placeholder nodes.
//
//	__name__            file reference (random line)
//	__1-3$$name__       file reference, 1 to 3 distinct lines
//	__#1$$name__        seeded file reference (same value per seed token)
//	__name:[opt]__      file reference with index pick or scoped tag filter
//	<[a][b|c][--d]>     tag query (AND of groups, | = OR, -- = NOT)
//	<file:[a]>          tag query scoped to one structured source
//	{a|b}  {2-3$$a|b}   choice, optional count range
//	{70%a|b}            weighted choice
//	@@k=v, k=v@@        generation setting overrides
//	**text**            negative prompt fragment
package grammar

import "regexp"

// Kind identifies what a node is.
type Kind int

const (
	Literal Kind = iota
	FileRef
	TagQuery
	Choice
	Setting
	Negative
)

var kindNames = [...]string{"literal", "file_ref", "tag_query", "choice", "setting", "negative"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Patterns per kind. Group 1 is the node body.
var patterns = map[Kind]*regexp.Regexp{
	FileRef: regexp.MustCompile(`__((?:[^_\n]|_[^_\n])+?)__`),
	// A bracket group is required, so A1111 syntax like <lora:name:0.8> is left alone.
	TagQuery: regexp.MustCompile(`<((?:#[0-9|]+\$\$)?(?:[^<>\[\]:\n]+:)?(?:\s*\[[^\[\]<>\n]*\])+)\s*>`),
	// Innermost braces only; outer groups resolve on a later pass.
	Choice:   regexp.MustCompile(`\{([^{}]*)\}`),
	Setting:  regexp.MustCompile(`@@(.*?)@@`),
	Negative: regexp.MustCompile(`\*\*(.*?)\*\*`),
}

// Node is one piece of a scanned template.
type Node struct {
	Kind  Kind
	Raw   string // exact source text
	Body  string // text between the delimiters; equals Raw for literals
	Start int    // byte offsets into the scanned text
	End   int
}

// Placeholder reports whether the node is anything but literal text.
func (n Node) Placeholder() bool {
	return n.Kind != Literal
}

// Scan splits text into nodes, recognising only the given kinds. Matching
// runs left to right; at each point the earliest match wins, ties going to
// the kind listed first. Matches never overlap. Literal runs fill the gaps,
// so concatenating every Raw reproduces text.
func Scan(text string, kinds ...Kind) []Node {
	var nodes []Node
	pos := 0
	for pos < len(text) {
		bestKind, best := Literal, []int(nil)
		for _, k := range kinds {
			re, ok := patterns[k]
			if !ok {
				continue
			}
			loc := re.FindStringSubmatchIndex(text[pos:])
			if loc == nil {
				continue
			}
			if best == nil || loc[0] < best[0] {
				bestKind, best = k, loc
			}
		}
		if best == nil {
			break
		}

		start, end := pos+best[0], pos+best[1]
		if start > pos {
			nodes = append(nodes, literal(text, pos, start))
		}
		nodes = append(nodes, Node{
			Kind:  bestKind,
			Raw:   text[start:end],
			Body:  text[pos+best[2] : pos+best[3]],
			Start: start,
			End:   end,
		})
		pos = end
	}
	if pos < len(text) {
		nodes = append(nodes, literal(text, pos, len(text)))
	}
	return nodes
}

func literal(text string, start, end int) Node {
	return Node{Kind: Literal, Raw: text[start:end], Body: text[start:end], Start: start, End: end}
}
