package prompt

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/umi/errors"
	"github.com/teranos/umi/logger"
	"github.com/teranos/umi/resolver"
	"github.com/teranos/umi/settings"
)

// Options controls one batch.
type Options struct {
	BatchSize  int
	BatchCount int
	// Seed is the first image seed; image i uses Seed+i unless Seeds has
	// an entry for it.
	Seed  int64
	Seeds []int64
	// StaticWildcards draws wildcard choices from the image seeds so a
	// seed reproduces its prompt. Otherwise choices come from the clock.
	StaticWildcards bool
	// SameSeedPerBatch gives every image of a batch the batch's first prompt.
	SameSeedPerBatch        bool
	CollectNegativeKeywords bool
	// NegativePrompt is the caller's negative prompt; collected negatives
	// are merged after it.
	NegativePrompt string
	// Base overrides apply unless the template sets the same setting.
	Base settings.Overrides
}

// Image is the prompt pair for one image of a batch.
type Image struct {
	Index     int                `json:"index"`
	Seed      int64              `json:"seed"`
	Prompt    string             `json:"prompt"`
	Negative  string             `json:"negative"`
	Overrides settings.Overrides `json:"overrides"`
	Entries   []string           `json:"entries,omitempty"`
}

// Batch is the result of a Generate call.
type Batch struct {
	Template string  `json:"template"`
	Images   []Image `json:"images"`
	// Overrides merges every image's overrides, later images winning.
	Overrides settings.Overrides `json:"overrides"`
	// Files lists every source consulted across the batch.
	Files []string `json:"files"`
	// WildcardPrompt is the template, set when it differs from the first prompt.
	WildcardPrompt string `json:"wildcard_prompt,omitempty"`
}

// Generator drives the resolver over a batch.
type Generator struct {
	resolver *resolver.Resolver
	log      *zap.SugaredLogger
	now      func() time.Time
}

// NewGenerator wraps r. A nil log uses the global logger.
func NewGenerator(r *resolver.Resolver, log *zap.SugaredLogger) *Generator {
	return &Generator{
		resolver: r,
		log:      logger.OrComponent(log, "generator"),
		now:      time.Now,
	}
}

// Resolver returns the resolver the generator drives.
func (g *Generator) Resolver() *resolver.Resolver {
	return g.resolver
}

// One resolves and assembles a single prompt.
func (g *Generator) One(ctx context.Context, template string, seed int64) (*Prompt, error) {
	res, err := g.resolver.Resolve(ctx, template, seed)
	if err != nil {
		return nil, err
	}
	return Assemble(res), nil
}

// Generate produces BatchSize*BatchCount prompts from template.
func (g *Generator) Generate(ctx context.Context, template string, opts Options) (*Batch, error) {
	if opts.BatchSize < 0 || opts.BatchCount < 0 {
		return nil, errors.NewInvalidRequestError("batch size %d and count %d must not be negative", opts.BatchSize, opts.BatchCount)
	}
	size, count := max(opts.BatchSize, 1), max(opts.BatchCount, 1)
	start := g.now()

	batch := &Batch{Template: template, Overrides: opts.Base}
	files := make(map[string]bool)

	for c := 0; c < count; c++ {
		var first Image
		for b := 0; b < size; b++ {
			index := size*c + b
			if opts.SameSeedPerBatch && b > 0 {
				img := first
				img.Index = index
				img.Seed = g.imageSeed(opts, index)
				batch.Images = append(batch.Images, img)
				continue
			}

			seed := g.choiceSeed(opts, size*c, index)
			p, err := g.One(ctx, template, seed)
			if err != nil {
				return nil, errors.Wrapf(err, "image %d", index)
			}

			img := Image{
				Index:     index,
				Seed:      g.imageSeed(opts, index),
				Prompt:    p.Positive,
				Negative:  opts.NegativePrompt,
				Overrides: opts.Base,
				Entries:   p.Entries,
			}
			img.Overrides.Merge(p.Overrides)
			if opts.CollectNegativeKeywords {
				img.Negative = MergeNegative(opts.NegativePrompt, p.Negative)
			}
			batch.Overrides.Merge(p.Overrides)
			for _, f := range p.Files {
				files[f] = true
			}

			g.log.Debugw("Generated prompt",
				logger.FieldIndex, index,
				logger.FieldSeed, seed,
				logger.FieldValue, img.Prompt)
			batch.Images = append(batch.Images, img)
			first = img
		}
	}

	batch.Files = sortedSet(files)
	if len(batch.Images) > 0 && batch.Images[0].Prompt != template {
		batch.WildcardPrompt = template
	}

	g.log.Infow("Generated batch",
		logger.FieldBatchSize, size,
		logger.FieldBatchCount, count,
		logger.FieldDurationMS, g.now().Sub(start).Milliseconds())
	return batch, nil
}

func sortedSet(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// imageSeed is the seed the image itself is rendered with.
func (g *Generator) imageSeed(opts Options, index int) int64 {
	if index < len(opts.Seeds) {
		return opts.Seeds[index]
	}
	return opts.Seed + int64(index)
}

// choiceSeed seeds the wildcard choices of one image. batchStart is the
// index of the first image of the image's batch.
func (g *Generator) choiceSeed(opts Options, batchStart, index int) int64 {
	if !opts.StaticWildcards {
		return g.now().UnixNano() + int64(index)*10
	}
	if opts.SameSeedPerBatch {
		return g.imageSeed(opts, batchStart)
	}
	return g.imageSeed(opts, index)
}
