package prompt

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/umi/errors"
	umitest "github.com/teranos/umi/internal/testing"
	"github.com/teranos/umi/internal/util"
	"github.com/teranos/umi/resolver"
	"github.com/teranos/umi/settings"
	"github.com/teranos/umi/vocab"
)

func newGenerator(t *testing.T) *Generator {
	t.Helper()
	store, err := vocab.Open(umitest.WildcardFS(umitest.Basic), vocab.Options{CacheFiles: true}, umitest.Logger(t))
	require.NoError(t, err)
	return NewGenerator(resolver.New(store, resolver.Options{}, umitest.Logger(t)), umitest.Logger(t))
}

func prompts(b *Batch) []string {
	out := make([]string, len(b.Images))
	for i, img := range b.Images {
		out[i] = img.Prompt
	}
	return out
}

func TestGenerate_StaticWildcardsReproduce(t *testing.T) {
	g := newGenerator(t)
	opts := Options{BatchSize: 2, BatchCount: 2, Seed: 1000, StaticWildcards: true}
	template := "__animals__ wearing a {__clothing/hats__|__clothing/shoes__}, __colors__"

	first, err := g.Generate(context.Background(), template, opts)
	require.NoError(t, err)
	second, err := g.Generate(context.Background(), template, opts)
	require.NoError(t, err)

	require.Len(t, first.Images, 4)
	assert.Equal(t, prompts(first), prompts(second))
	for i, img := range first.Images {
		assert.Equal(t, i, img.Index)
		assert.Equal(t, int64(1000+i), img.Seed)
	}
	assert.Equal(t, template, first.WildcardPrompt)
	assert.Contains(t, first.Files, "animals.txt")
	assert.Contains(t, first.Files, "colors.txt")
}

func TestGenerate_ExplicitSeeds(t *testing.T) {
	g := newGenerator(t)
	opts := Options{BatchSize: 3, Seeds: []int64{7, 7, 8}, StaticWildcards: true}

	b, err := g.Generate(context.Background(), "__animals__ __colors__", opts)
	require.NoError(t, err)
	require.Len(t, b.Images, 3)
	assert.Equal(t, b.Images[0].Prompt, b.Images[1].Prompt, "same seed, same prompt")
	assert.Equal(t, []int64{7, 7, 8}, []int64{b.Images[0].Seed, b.Images[1].Seed, b.Images[2].Seed})
}

func TestGenerate_ClockSeeds(t *testing.T) {
	g := newGenerator(t)
	fixed := time.Unix(1700000000, 0)
	g.now = func() time.Time { return fixed }

	template := "__colors__ __animals__ {a|b|c|d}"
	first, err := g.Generate(context.Background(), template, Options{BatchSize: 4})
	require.NoError(t, err)
	second, err := g.Generate(context.Background(), template, Options{BatchSize: 4})
	require.NoError(t, err)
	assert.Equal(t, prompts(first), prompts(second), "a frozen clock repeats choices")
}

func TestGenerate_SameSeedPerBatch(t *testing.T) {
	g := newGenerator(t)
	opts := Options{BatchSize: 3, BatchCount: 2, Seed: 50, StaticWildcards: true, SameSeedPerBatch: true}

	b, err := g.Generate(context.Background(), "__colors__ {1-3$$a|b|c|d|e}", opts)
	require.NoError(t, err)
	require.Len(t, b.Images, 6)
	for i := 0; i < 6; i++ {
		first := b.Images[(i/3)*3]
		assert.Equal(t, first.Prompt, b.Images[i].Prompt)
		assert.Equal(t, i, b.Images[i].Index)
		assert.Equal(t, int64(50+i), b.Images[i].Seed)
	}
}

func TestGenerate_Negatives(t *testing.T) {
	g := newGenerator(t)
	template := "a cat, **blurry**, happy"

	b, err := g.Generate(context.Background(), template, Options{NegativePrompt: "lowres", CollectNegativeKeywords: true})
	require.NoError(t, err)
	require.Len(t, b.Images, 1)
	assert.Equal(t, "a cat, happy", b.Images[0].Prompt)
	assert.Equal(t, "lowres, blurry", b.Images[0].Negative)

	b, err = g.Generate(context.Background(), template, Options{NegativePrompt: "lowres"})
	require.NoError(t, err)
	assert.Equal(t, "lowres", b.Images[0].Negative)
}

func TestGenerate_EntryAdditions(t *testing.T) {
	g := newGenerator(t)
	b, err := g.Generate(context.Background(), "<[red]>", Options{CollectNegativeKeywords: true})
	require.NoError(t, err)

	img := b.Images[0]
	assert.Equal(t, "elegant, red evening dress", img.Prompt)
	assert.Equal(t, "casual clothes", img.Negative)
	assert.Equal(t, []string{"Red Dress"}, img.Entries)
	assert.Equal(t, []string{"styles/looks.yaml"}, b.Files)
}

func TestGenerate_Overrides(t *testing.T) {
	g := newGenerator(t)
	base := settings.Overrides{Width: util.Ptr(512), Height: util.Ptr(512)}

	b, err := g.Generate(context.Background(), "@@width=768@@ a dog", Options{Base: base})
	require.NoError(t, err)
	assert.Equal(t, "a dog", b.Images[0].Prompt)
	assert.Equal(t, 768, *b.Images[0].Overrides.Width)
	assert.Equal(t, 512, *b.Images[0].Overrides.Height)
	assert.Equal(t, 768, *b.Overrides.Width)
	assert.Equal(t, 512, *base.Width, "base overrides are not modified")
}

func TestGenerate_NoWildcards(t *testing.T) {
	g := newGenerator(t)
	b, err := g.Generate(context.Background(), "plain prompt", Options{})
	require.NoError(t, err)
	assert.Empty(t, b.WildcardPrompt)
	assert.Empty(t, b.Files)
}

func TestGenerate_InvalidBatch(t *testing.T) {
	g := newGenerator(t)
	_, err := g.Generate(context.Background(), "x", Options{BatchSize: -1})
	require.Error(t, err)
	assert.True(t, errors.IsInvalidRequestError(err))
}

func TestGenerate_Cancelled(t *testing.T) {
	g := newGenerator(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.Generate(ctx, "__colors__", Options{})
	assert.ErrorIs(t, err, context.Canceled)
}
