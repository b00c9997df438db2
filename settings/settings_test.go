package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/umi/errors"
)

func TestParse(t *testing.T) {
	o, problems := Parse("width=512, height=768")
	require.Empty(t, problems)
	require.NotNil(t, o.Width)
	require.NotNil(t, o.Height)
	assert.Equal(t, 512, *o.Width)
	assert.Equal(t, 768, *o.Height)
	assert.Nil(t, o.Steps)
}

func TestParse_PipeSeparator(t *testing.T) {
	o, problems := Parse("cfg=7.5|sampler=Euler a")
	require.Empty(t, problems)
	assert.Equal(t, 7.5, *o.CfgScale)
	assert.Equal(t, "Euler a", *o.Sampler)
}

func TestParse_Problems(t *testing.T) {
	o, problems := Parse("steps=20, width=wide, color=red, height, s=1")
	assert.Equal(t, 20, *o.Steps)
	assert.Nil(t, o.Width)
	assert.Len(t, problems, 4)
	for _, p := range problems {
		assert.True(t, errors.IsInvalidRequestError(p), p.Error())
	}
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{"width", Width, false},
		{"w", Width, false},
		{"CFG", CfgScale, false},
		{"den", DenoisingStrength, false},
		{"st", Steps, false},
		{"sa", Sampler, false},
		{"s", "", true},
		{"", "", true},
		{"seed", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := Canonical(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanonical_UnknownHasHint(t *testing.T) {
	_, err := Canonical("seed")
	require.Error(t, err)
	hints := errors.GetAllHints(err)
	require.Len(t, hints, 1)
	assert.Contains(t, hints[0], "cfg_scale")
}

func TestMerge(t *testing.T) {
	a, _ := Parse("width=512, steps=20")
	b, _ := Parse("width=1024, sampler=DDIM")
	a.Merge(b)

	assert.Equal(t, map[string]any{"width": 1024, "steps": 20, "sampler": "DDIM"}, a.Map())
	assert.Equal(t, "sampler=DDIM, steps=20, width=1024", a.String())
}

func TestEmpty(t *testing.T) {
	var o Overrides
	assert.True(t, o.Empty())
	assert.Equal(t, "", o.String())
	require.NoError(t, o.Set("denoising_strength", "0.4"))
	assert.False(t, o.Empty())
	assert.Equal(t, "denoising_strength=0.4", o.String())
}
