package vocab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/umi/errors"
)

func TestParseEntries(t *testing.T) {
	data := []byte(`
Red Dress:
  Description: [A red dress, ignored second line]
  Prompts:
    - red evening dress
    - crimson gown
  Prefix: elegant
  Suffix: ~
  Tags: [Clothing, formal, RED, formal]
Shared: &shared
  Prompts: shared prompt
  Tags: common
Alias User:
  Prompts: *shared
Lower Case Keys:
  prompts: lower
  tags: x
`)

	entries, problems, err := parseEntries(data, "looks")
	require.NoError(t, err)
	require.Len(t, problems, 1, "alias to a mapping is not a string list")
	assert.True(t, errors.Is(problems[0], errors.ErrMalformedStructure))

	require.Len(t, entries, 3)
	red := entries[0]
	assert.Equal(t, "Red Dress", red.Title)
	assert.Equal(t, "A red dress", red.Description)
	assert.Equal(t, []string{"red evening dress", "crimson gown"}, red.Prompts)
	assert.Equal(t, []string{"elegant"}, red.Prefixes)
	assert.Nil(t, red.Suffixes)
	assert.Equal(t, []string{"clothing", "formal", "red"}, red.Tags)
	assert.Equal(t, "looks", red.Source)
	assert.True(t, red.HasTag("formal"))
	assert.False(t, red.HasTag("Formal"))

	assert.Equal(t, "Shared", entries[1].Title)
	assert.Equal(t, []string{"lower"}, entries[2].Prompts)
	assert.Equal(t, []string{"x"}, entries[2].Tags)
}

func TestParseEntries_SkipsMalformedEntries(t *testing.T) {
	data := []byte(`
Good:
  Prompts: fine
Scalar Entry: just a string
Nested Prompts:
  Prompts:
    - {a: b}
`)
	entries, problems, err := parseEntries(data, "mixed")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Good", entries[0].Title)
	assert.Len(t, problems, 2)
	assert.False(t, entries[0].Tagged())
}

func TestParseEntries_MalformedDocument(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"top level list", "- a\n- b\n"},
		{"syntax error", "a: [unclosed\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := parseEntries([]byte(tt.data), "bad")
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrMalformedStructure))
		})
	}
}

func TestParseEntries_EmptyDocument(t *testing.T) {
	entries, problems, err := parseEntries([]byte("# nothing\n"), "empty")
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Empty(t, problems)
}
