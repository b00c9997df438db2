package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teranos/umi/resolver"
	"github.com/teranos/umi/vocab"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"a cat, , happy", "a cat, happy"},
		{"  , leading", "leading"},
		{"trailing, ", "trailing"},
		{"red, green, blue, ", "red, green, blue"},
		{"a,,,b", "a,b"},
		{"a ,\t, b", "a , b"},
		{"many    spaces\nand lines", "many spaces and lines"},
		{", , ,", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestExtractNegatives(t *testing.T) {
	text, tags := ExtractNegatives("a cat, **blurry**, happy **low quality**")
	assert.Equal(t, "a cat, , happy ", text)
	assert.Equal(t, []string{"blurry", "low quality"}, tags)
	assert.Equal(t, "a cat, happy", Normalize(text))

	text, tags = ExtractNegatives("nothing negative")
	assert.Equal(t, "nothing negative", text)
	assert.Empty(t, tags)

	text, tags = ExtractNegatives("**a** b ** c ** d **unclosed")
	assert.Equal(t, " b  d **unclosed", text)
	assert.Equal(t, []string{"a", "c"}, tags)
}

func TestAssemble(t *testing.T) {
	res := &resolver.Result{
		Text: "red evening dress, **blurry**",
		Entries: []vocab.Entry{
			{Title: "Red Dress", Prefixes: []string{"elegant"}, Suffixes: []string{"**casual clothes**"}},
			{Title: "Hat", Prefixes: []string{"**ugly**", ""}, Suffixes: []string{"studio light"}},
		},
		Files: []string{"styles/looks.yaml"},
	}

	p := Assemble(res)
	assert.Equal(t, "elegant, red evening dress, studio light", p.Positive)
	assert.Equal(t, "ugly, blurry, casual clothes", p.Negative)
	assert.Equal(t, []string{"Red Dress", "Hat"}, p.Entries)
	assert.Equal(t, []string{"styles/looks.yaml"}, p.Files)
}

func TestAssemble_DedupesNegatives(t *testing.T) {
	res := &resolver.Result{
		Text:    "**blurry** cat **blurry**",
		Entries: []vocab.Entry{{Title: "X", Suffixes: []string{"** blurry **"}}},
	}
	p := Assemble(res)
	assert.Equal(t, "cat", p.Positive)
	assert.Equal(t, "blurry", p.Negative)
}

func TestAssemble_Plain(t *testing.T) {
	p := Assemble(&resolver.Result{Text: " a dog "})
	assert.Equal(t, "a dog", p.Positive)
	assert.Equal(t, "", p.Negative)
	assert.Empty(t, p.Entries)
}

func TestMergeNegative(t *testing.T) {
	tests := []struct {
		existing, collected, want string
	}{
		{"lowres", "blurry", "lowres, blurry"},
		{"", "blurry", "blurry"},
		{"lowres, ", "blurry", "lowres, blurry"},
		{"lowres", "", "lowres"},
		{"  ", "  ", "  "},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MergeNegative(tt.existing, tt.collected))
	}
}
