// Package selection implements the random choices the resolver makes:
// plain, exhaustion-avoiding, weighted and ranged picks.
//
// Every choice draws from one seeded source, so a resolution repeated with
// the same seed and vocabulary makes the same choices.
package selection

import (
	"math/rand"
	"strconv"
	"strings"

	"github.com/teranos/umi/errors"
)

// Engine makes random choices from a seeded source. Not safe for concurrent use.
type Engine struct {
	rng *rand.Rand
}

// New returns an engine seeded with seed.
func New(seed int64) *Engine {
	return &Engine{rng: rand.New(rand.NewSource(seed))}
}

// Intn returns a uniform int in [0, n). n must be positive.
func (e *Engine) Intn(n int) int {
	return e.rng.Intn(n)
}

// Plain picks uniformly. It returns false for an empty list.
func (e *Engine) Plain(cands []string) (string, bool) {
	if len(cands) == 0 {
		return "", false
	}
	return cands[e.rng.Intn(len(cands))], true
}

// Fresh picks uniformly among candidates not yet in used, falling back to
// the whole list when every candidate has been used. The pick is added to used.
func (e *Engine) Fresh(cands []string, used map[string]bool) (string, bool) {
	if len(cands) == 0 {
		return "", false
	}
	if len(cands) == 1 {
		used[cands[0]] = true
		return cands[0], true
	}

	unused := make([]string, 0, len(cands))
	for _, c := range cands {
		if !used[c] {
			unused = append(unused, c)
		}
	}
	if len(unused) == 0 {
		unused = cands
	}

	pick := unused[e.rng.Intn(len(unused))]
	used[pick] = true
	return pick, true
}

// Option is one alternative of a choice group.
type Option struct {
	Text     string
	Weight   int
	Weighted bool // an explicit N% prefix was given
}

// ParseOption reads "70%text" as a weighted option. A prefix that is not
// an integer leaves the text untouched.
func ParseOption(s string) Option {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '%'); i > 0 && strings.Count(s, "%") == 1 {
		if w, err := strconv.Atoi(strings.TrimSpace(s[:i])); err == nil && w >= 0 {
			return Option{Text: strings.TrimSpace(s[i+1:]), Weight: w, Weighted: true}
		}
	}
	return Option{Text: s}
}

// ParseOptions splits on '|' and parses each alternative.
func ParseOptions(body string) []Option {
	parts := strings.Split(body, "|")
	opts := make([]Option, len(parts))
	for i, p := range parts {
		opts[i] = ParseOption(p)
	}
	return opts
}

// weights resolves effective weights: explicit ones as given, the rest
// share what is left of 100 equally (never below zero).
func weights(opts []Option) []float64 {
	sum, unweighted := 0, 0
	for _, o := range opts {
		if o.Weighted {
			sum += o.Weight
		} else {
			unweighted++
		}
	}

	share := 0.0
	if unweighted > 0 && sum < 100 {
		share = float64(100-sum) / float64(unweighted)
	}

	ws := make([]float64, len(opts))
	for i, o := range opts {
		if o.Weighted {
			ws[i] = float64(o.Weight)
		} else {
			ws[i] = share
		}
	}
	return ws
}

// draw returns an index chosen proportionally to ws, uniform when every
// weight is zero.
func (e *Engine) draw(ws []float64) int {
	total := 0.0
	for _, w := range ws {
		total += w
	}
	if total <= 0 {
		return e.rng.Intn(len(ws))
	}
	r := e.rng.Float64() * total
	for i, w := range ws {
		if r < w {
			return i
		}
		r -= w
	}
	// float rounding: last positive weight
	for i := len(ws) - 1; i >= 0; i-- {
		if ws[i] > 0 {
			return i
		}
	}
	return len(ws) - 1
}

// Weighted picks one option honouring explicit percentages.
func (e *Engine) Weighted(opts []Option) (string, bool) {
	i, ok := e.WeightedIndex(opts)
	if !ok {
		return "", false
	}
	return opts[i].Text, true
}

// WeightedIndex is Weighted returning the position of the pick.
func (e *Engine) WeightedIndex(opts []Option) (int, bool) {
	if len(opts) == 0 {
		return 0, false
	}
	return e.draw(weights(opts)), true
}

// Range is an inclusive bound on how many options to pick.
type Range struct {
	Lo, Hi int
}

// ParseRange reads "lo-hi", "n", "lo-" or "-hi" against n options.
// Missing bounds default to 0 and n, bounds are clamped to [0, n] and
// swapped when reversed.
func ParseRange(spec string, n int) (Range, error) {
	s := strings.TrimSpace(strings.ReplaceAll(spec, "__", ""))
	if s == "" {
		return Range{}, errors.MalformedRange(spec)
	}

	parts := strings.Split(s, "-")
	var lo, hi int
	switch len(parts) {
	case 1:
		v, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return Range{}, errors.Wrap(errors.MalformedRange(spec), err.Error())
		}
		lo, hi = v, v
	case 2:
		var err error
		lo, hi = 0, n
		if p := strings.TrimSpace(parts[0]); p != "" {
			if lo, err = strconv.Atoi(p); err != nil {
				return Range{}, errors.Wrap(errors.MalformedRange(spec), err.Error())
			}
		}
		if p := strings.TrimSpace(parts[1]); p != "" {
			if hi, err = strconv.Atoi(p); err != nil {
				return Range{}, errors.Wrap(errors.MalformedRange(spec), err.Error())
			}
		}
	default:
		return Range{}, errors.MalformedRange(spec)
	}

	lo, hi = clamp(lo, 0, n), clamp(hi, 0, n)
	if lo > hi {
		lo, hi = hi, lo
	}
	return Range{Lo: lo, Hi: hi}, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Count draws how many options to pick, uniform in [Lo, Hi].
func (e *Engine) Count(r Range) int {
	if r.Hi <= r.Lo {
		return r.Lo
	}
	return r.Lo + e.rng.Intn(r.Hi-r.Lo+1)
}

// Pick draws a count from r and samples that many distinct options without
// replacement, weighted when weights are present. Empty options count
// towards the total but are not returned.
func (e *Engine) Pick(opts []Option, r Range) []string {
	var picked []string
	for _, i := range e.PickIndices(opts, r) {
		picked = append(picked, opts[i].Text)
	}
	return picked
}

// PickIndices is Pick returning positions into opts, in draw order.
// Empty options are drawn but not returned.
func (e *Engine) PickIndices(opts []Option, r Range) []int {
	count := e.Count(r)
	if count > len(opts) {
		count = len(opts)
	}

	remaining := make([]int, len(opts))
	for i := range remaining {
		remaining[i] = i
	}
	ws := weights(opts)
	var picked []int
	for i := 0; i < count; i++ {
		idx := e.draw(ws)
		if orig := remaining[idx]; opts[orig].Text != "" {
			picked = append(picked, orig)
		}
		remaining = append(remaining[:idx], remaining[idx+1:]...)
		ws = append(ws[:idx], ws[idx+1:]...)
	}
	return picked
}

// PickLines samples from plain candidates the way Pick samples options.
func (e *Engine) PickLines(cands []string, r Range) []string {
	opts := make([]Option, len(cands))
	for i, c := range cands {
		opts[i] = Option{Text: c}
	}
	return e.Pick(opts, r)
}

// JoinMany joins multi-picks with ", " and a trailing ", " so the result
// reads as a list fragment; no picks give "".
func JoinMany(picks []string) string {
	if len(picks) == 0 {
		return ""
	}
	return strings.Join(picks, ", ") + ", "
}
