package resolver

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/umi/errors"
	"github.com/teranos/umi/grammar"
	"github.com/teranos/umi/logger"
	"github.com/teranos/umi/selection"
	"github.com/teranos/umi/settings"
	"github.com/teranos/umi/vocab"
)

// Session is the state of one prompt's resolution. Not safe for concurrent use.
type Session struct {
	r   *Resolver
	rng *selection.Engine
	log *zap.SugaredLogger

	used         map[string]bool   // every candidate picked so far
	seedMemo     map[string]string // seed token -> raw pick
	seedResolved map[string]string // seed token -> fully expanded value
	guard        map[string]bool   // keys with a nested expansion in flight
	hits         map[string]int
	warned       map[string]bool

	entries   []vocab.Entry
	entrySeen map[string]bool
	overrides settings.Overrides
	files     map[string]bool
}

// Resolve expands template within the session.
func (s *Session) Resolve(ctx context.Context, template string) (*Result, error) {
	d, passes, err := s.run(ctx, newDoc(template, nil))
	if err != nil {
		return nil, err
	}
	return &Result{
		Text:      d.String(),
		Entries:   append([]vocab.Entry(nil), s.entries...),
		Overrides: s.overrides,
		Files:     sortedKeys(s.files),
		Passes:    passes,
	}, nil
}

// InFlight returns the number of keys whose nested expansion has not
// finished. It is zero between calls to Resolve.
func (s *Session) InFlight() int {
	return len(s.guard)
}

// run applies passes until the text stops changing or the limit is hit.
func (s *Session) run(ctx context.Context, d doc) (doc, int, error) {
	refs := func(n grammar.Node, covered doc) (replacement, bool) {
		lineage := covered.lineage()
		r, ok := s.expandRef(ctx, n, lineage)
		r.lineage = lineage
		return r, ok
	}

	limit := s.r.opts.MaxPasses
	for pass := 1; pass <= limit; pass++ {
		if err := ctx.Err(); err != nil {
			return d, pass - 1, errors.Wrap(err, "resolution cancelled")
		}
		before := d.String()

		d = d.rewrite(refs, grammar.FileRef, grammar.TagQuery)
		d = d.rewrite(s.expandChoice, grammar.Choice)
		d = d.rewrite(s.expandSetting, grammar.Setting)

		if d.String() == before {
			return d, pass, nil
		}
		s.log.Debugw("Pass changed text", logger.FieldPass, pass)
	}
	s.log.Infow("Pass limit reached before text settled", logger.FieldPass, limit)
	return d, limit, nil
}

// enter admits one expansion of key, refusing cycles and runaway keys.
func (s *Session) enter(key string, lineage []string) bool {
	if contains(lineage, key) || s.guard[key] {
		if !s.warned["cycle:"+key] {
			s.warned["cycle:"+key] = true
			s.log.Warnw("Keeping placeholder that refers back to itself",
				logger.FieldKey, key,
				logger.FieldLineage, strings.Join(lineage, " > "),
				logger.FieldError, errors.ErrCycleDetected)
		}
		return false
	}

	s.hits[key]++
	if s.hits[key] > s.r.opts.MaxHits {
		if !s.warned["runaway:"+key] {
			s.warned["runaway:"+key] = true
			s.log.Warnw("Stopped expanding key, probably a reference loop",
				logger.FieldKey, key,
				logger.FieldHits, s.hits[key]-1,
				logger.FieldError, errors.ErrRunawayResolution)
		}
		return false
	}
	return true
}

func (s *Session) expandRef(ctx context.Context, n grammar.Node, lineage []string) (replacement, bool) {
	switch n.Kind {
	case grammar.FileRef:
		return s.fileRef(ctx, grammar.ParseFileRef(n.Body), lineage)
	case grammar.TagQuery:
		return s.tagQuery(ctx, n, grammar.ParseTagQuery(n.Body), lineage)
	}
	return replacement{}, false
}

func (s *Session) fileRef(ctx context.Context, ref grammar.Ref, lineage []string) (replacement, bool) {
	if ref.Name == "" {
		return replacement{}, false
	}
	if ref.Opts && !numericOption(ref) {
		return s.scopedQuery(ctx, ref, lineage)
	}

	src := s.r.store.Lookup(ref.Name)
	if src.Kind == vocab.KindNone {
		return replacement{}, false
	}
	if !s.enter(src.Key, lineage) {
		return replacement{}, false
	}
	s.files[src.File] = true

	var value string
	switch {
	case ref.Opts:
		idx, _ := strconv.Atoi(ref.Groups[0])
		value = s.index(src.Refs, idx)
	case ref.Ranged():
		value = s.ranged(ref.Range, src)
	case ref.Seeded():
		value = s.seeded(ctx, ref.Seeds, src.Key, src.Refs, lineage)
	default:
		if idx, ok := s.r.opts.SelectedOptions[src.Key]; ok {
			value = s.index(src.Refs, idx)
			break
		}
		if pick, ok := s.rng.Fresh(src.Refs, s.used); ok {
			value = s.expandTitle(pick)
		}
	}
	s.log.Debugw("Resolved reference", logger.FieldKey, src.Key, logger.FieldValue, value)
	return replacement{text: value, key: src.Key}, true
}

func numericOption(ref grammar.Ref) bool {
	if len(ref.Groups) != 1 {
		return false
	}
	_, err := strconv.Atoi(ref.Groups[0])
	return err == nil
}

// index returns line idx of cands, or "" when out of range.
func (s *Session) index(cands []string, idx int) string {
	if idx < 0 || idx >= len(cands) {
		return ""
	}
	s.used[cands[idx]] = true
	return s.expandTitle(cands[idx])
}

// ranged picks a quantity of distinct lines. A malformed range falls back
// to a single pick.
func (s *Session) ranged(spec string, src vocab.Source) string {
	r, err := selection.ParseRange(spec, len(src.Refs))
	if err != nil {
		s.log.Warnw("Malformed range, picking one value",
			logger.FieldKey, src.Key, logger.FieldError, err)
		pick, _ := s.rng.Fresh(src.Refs, s.used)
		return s.expandTitle(pick)
	}
	picks := s.rng.PickLines(src.Refs, r)
	for i, p := range picks {
		s.used[p] = true
		picks[i] = s.expandTitle(p)
	}
	return selection.JoinMany(picks)
}

// seeded returns the value bound to one of seeds, choosing and fully
// expanding it on first use. A seed token keeps one value per session.
func (s *Session) seeded(ctx context.Context, seeds []string, key string, cands []string, lineage []string) string {
	token := seeds[0]
	if len(seeds) > 1 {
		token = seeds[s.rng.Intn(len(seeds))]
	}
	if v, ok := s.seedResolved[token]; ok {
		return v
	}

	raw, ok := s.seedMemo[token]
	if !ok {
		raw, _ = s.rng.Fresh(cands, s.used)
		s.seedMemo[token] = raw
	}
	value := s.nested(ctx, s.expandTitle(raw), key, lineage)
	s.seedResolved[token] = value
	s.log.Debugw("Bound seed", logger.FieldSeedToken, token, logger.FieldKey, key, logger.FieldValue, value)
	return value
}

// nested fully expands text on behalf of key before it is substituted.
func (s *Session) nested(ctx context.Context, text, key string, lineage []string) string {
	s.guard[key] = true
	defer delete(s.guard, key)

	lin := append(append([]string(nil), lineage...), key)
	d, _, _ := s.run(ctx, newDoc(text, lin))
	return d.String()
}

func (s *Session) tagQuery(ctx context.Context, n grammar.Node, ref grammar.Ref, lineage []string) (replacement, bool) {
	if len(ref.Groups) == 0 {
		return replacement{}, false
	}
	key := "<" + strings.ToLower(n.Body) + ">"
	return s.query(ctx, key, ref, lineage)
}

// scopedQuery handles __name:[tag]...__, a tag query within one source.
func (s *Session) scopedQuery(ctx context.Context, ref grammar.Ref, lineage []string) (replacement, bool) {
	key := vocab.Key(ref.Name) + ":[" + strings.ToLower(strings.Join(ref.Groups, "][")) + "]"
	return s.query(ctx, key, ref, lineage)
}

func (s *Session) query(ctx context.Context, key string, ref grammar.Ref, lineage []string) (replacement, bool) {
	if !s.enter(key, lineage) {
		return replacement{}, false
	}
	titles := s.r.store.QueryTags(ref.Name, ref.Groups)
	if len(titles) == 0 {
		s.log.Debugw("No entries match tag query", logger.FieldKey, key)
		return replacement{key: key}, true
	}

	var value string
	if ref.Seeded() {
		value = s.seeded(ctx, ref.Seeds, key, titles, lineage)
	} else if title, ok := s.rng.Fresh(titles, s.used); ok {
		value = s.expandTitle(title)
	}
	return replacement{text: value, key: key}, true
}

// expandTitle turns a pick naming an entry into one of the entry's prompts
// and records the entry. Other picks are returned unchanged.
func (s *Session) expandTitle(pick string) string {
	e, ok := s.r.store.Entry(pick)
	if !ok || e.Title != strings.TrimSpace(pick) {
		return pick
	}
	s.record(e)
	if p, ok := s.rng.Plain(e.Prompts); ok {
		return p
	}
	return e.Title
}

func (s *Session) record(e vocab.Entry) {
	s.files[e.File] = true
	if s.entrySeen[e.Title] {
		return
	}
	s.entrySeen[e.Title] = true
	s.entries = append(s.entries, e)
}

// expandChoice picks among the options of a {...} group. The result
// carries only the lineage of the options picked, so an unpicked sibling's
// expansion history does not block the chosen text.
func (s *Session) expandChoice(n grammar.Node, covered doc) (replacement, bool) {
	spec, body, offset := splitQuantity(n.Body)
	opts := selection.ParseOptions(body)
	// option i spans bounds[i]..bounds[i+1]-1 of the scanned text
	bounds := optionBounds(n.Start+1+offset, body)
	lineageOf := func(picks ...int) []string {
		var ls [][]string
		for _, i := range picks {
			ls = append(ls, covered.slice(bounds[i]-n.Start, bounds[i+1]-1-n.Start).lineage())
		}
		return union(ls...)
	}

	single := func() (replacement, bool) {
		i, ok := s.rng.WeightedIndex(opts)
		if !ok {
			return replacement{}, true
		}
		return replacement{text: opts[i].Text, lineage: lineageOf(i)}, true
	}
	if spec == "" {
		return single()
	}

	r, err := selection.ParseRange(spec, len(opts))
	if err != nil {
		s.log.Warnw("Malformed range, picking one option",
			logger.FieldValue, n.Raw, logger.FieldError, err)
		return single()
	}
	idx := s.rng.PickIndices(opts, r)
	picks := make([]string, len(idx))
	for j, i := range idx {
		picks[j] = opts[i].Text
	}
	return replacement{text: selection.JoinMany(picks), lineage: lineageOf(idx...)}, true
}

// optionBounds returns the start offset of each '|'-separated option of
// body, which begins at start, plus one past the end of the last.
func optionBounds(start int, body string) []int {
	bounds := []int{start}
	for i := 0; i < len(body); i++ {
		if body[i] == '|' {
			bounds = append(bounds, start+i+1)
		}
	}
	return append(bounds, start+len(body)+1)
}

// splitQuantity separates a "lo-hi$$" prefix from the first option and
// reports where rest starts within body.
func splitQuantity(body string) (spec, rest string, offset int) {
	first, _, _ := strings.Cut(body, "|")
	i := strings.Index(first, "$$")
	if i < 0 {
		return "", body, 0
	}
	return strings.TrimSpace(first[:i]), body[i+2:], i + 2
}

func (s *Session) expandSetting(n grammar.Node, _ doc) (replacement, bool) {
	o, problems := settings.Parse(n.Body)
	for _, p := range problems {
		s.log.Warnw("Ignoring setting", logger.FieldValue, n.Raw, logger.FieldError, p)
	}
	s.overrides.Merge(o)
	return replacement{}, true
}
