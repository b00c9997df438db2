package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFileRef(t *testing.T) {
	tests := []struct {
		body string
		want Ref
	}{
		{"colors", Ref{Name: "colors"}},
		{" clothing/hats ", Ref{Name: "clothing/hats"}},
		{"1-3$$colors", Ref{Range: "1-3", Name: "colors"}},
		{"2$$colors", Ref{Range: "2", Name: "colors"}},
		{"$$colors", Ref{Range: "-", Name: "colors"}},
		{"x-y$$colors", Ref{Range: "x-y", Name: "colors"}},
		{"#1$$colors", Ref{Seeds: []string{"1"}, Name: "colors"}},
		{"#1|22$$colors", Ref{Seeds: []string{"1", "22"}, Name: "colors"}},
		{"hair:[2]", Ref{Name: "hair", Groups: []string{"2"}, Opts: true}},
		{"looks:[red][--formal]", Ref{Name: "looks", Groups: []string{"red", "--formal"}, Opts: true}},
		{"weird:name", Ref{Name: "weird:name"}},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseFileRef(tt.body))
		})
	}
}

func TestParseTagQuery(t *testing.T) {
	tests := []struct {
		body string
		want Ref
	}{
		{"[red]", Ref{Groups: []string{"red"}}},
		{"[red][blue|green][--formal]", Ref{Groups: []string{"red", "blue|green", "--formal"}}},
		{"looks:[red]", Ref{Name: "looks", Groups: []string{"red"}}},
		{"#3$$[red]", Ref{Seeds: []string{"3"}, Groups: []string{"red"}}},
		{"#1|2$$looks: [ red ]", Ref{Seeds: []string{"1", "2"}, Name: "looks", Groups: []string{"red"}}},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTagQuery(tt.body))
		})
	}
}

func TestRefHelpers(t *testing.T) {
	r := ParseFileRef("#1|2$$colors")
	assert.True(t, r.Seeded())
	assert.False(t, r.Ranged())
	assert.Equal(t, "1|2", r.SeedToken())
}
