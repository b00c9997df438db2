// Package resolver expands wildcard templates.
//
// A resolution runs passes over the working text until it stops changing or
// the pass limit is reached. Each pass expands file references and tag
// queries, then choice groups, then strips setting directives. Text produced
// by expanding a key remembers that key, so a key is never expanded inside
// its own output; such placeholders are kept as written.
package resolver

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/teranos/umi/logger"
	"github.com/teranos/umi/selection"
	"github.com/teranos/umi/settings"
	"github.com/teranos/umi/vocab"
)

const (
	// DefaultMaxPasses bounds the pass loop when Options.MaxPasses is unset.
	DefaultMaxPasses = 20
	// MaxPassesLimit caps Options.MaxPasses; am.Validate accepts the same 1-100.
	MaxPassesLimit = 100
	// DefaultMaxHits is the per-key expansion limit within one session.
	DefaultMaxHits = 50000
)

// Options tune a Resolver.
type Options struct {
	// MaxPasses is the pass limit: DefaultMaxPasses when zero or negative,
	// at most MaxPassesLimit. Values between 1 and 100 are honoured as given.
	MaxPasses int
	MaxHits   int
	// SelectedOptions pins a list key to one of its lines by index. An
	// index past the end of the list resolves to "".
	SelectedOptions map[string]int
}

// Resolver expands templates against a vocabulary store. It holds no
// per-resolution state and is safe for concurrent use.
type Resolver struct {
	store *vocab.Store
	opts  Options
	log   *zap.SugaredLogger
}

// New creates a resolver over store. A nil log uses the global logger.
func New(store *vocab.Store, opts Options, log *zap.SugaredLogger) *Resolver {
	switch {
	case opts.MaxPasses <= 0:
		opts.MaxPasses = DefaultMaxPasses
	case opts.MaxPasses > MaxPassesLimit:
		opts.MaxPasses = MaxPassesLimit
	}
	if opts.MaxHits <= 0 {
		opts.MaxHits = DefaultMaxHits
	}
	selected := make(map[string]int, len(opts.SelectedOptions))
	for k, v := range opts.SelectedOptions {
		selected[vocab.Key(k)] = v
	}
	opts.SelectedOptions = selected

	return &Resolver{
		store: store,
		opts:  opts,
		log:   logger.OrComponent(log, "resolver"),
	}
}

// Store returns the vocabulary the resolver reads from.
func (r *Resolver) Store() *vocab.Store {
	return r.store
}

// Result is the outcome of resolving one template.
type Result struct {
	// Text is the expanded template. Negative fragments (**...**) are still
	// in place; prefixes and suffixes are not yet applied.
	Text      string
	Entries   []vocab.Entry
	Overrides settings.Overrides
	// Files lists every source file consulted, sorted.
	Files  []string
	Passes int
}

// Resolve expands template with choices drawn from seed.
func (r *Resolver) Resolve(ctx context.Context, template string, seed int64) (*Result, error) {
	return r.NewSession(seed).Resolve(ctx, template)
}

// NewSession starts a resolution session. Choices made within one session
// share the used set and seed memo.
func (r *Resolver) NewSession(seed int64) *Session {
	return &Session{
		r:            r,
		rng:          selection.New(seed),
		log:          r.log.With(logger.FieldSeed, seed),
		used:         make(map[string]bool),
		seedMemo:     make(map[string]string),
		seedResolved: make(map[string]string),
		guard:        make(map[string]bool),
		hits:         make(map[string]int),
		warned:       make(map[string]bool),
		entrySeen:    make(map[string]bool),
		files:        make(map[string]bool),
	}
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
