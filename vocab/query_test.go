package vocab

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseQuery(t *testing.T) {
	q := ParseQuery([]string{" Clothing ", "--Formal", "red|Blue", "", "--", "|"})

	assert.Equal(t, []string{"clothing"}, q.All)
	assert.Equal(t, []string{"formal"}, q.None)
	assert.Equal(t, [][]string{{"red", "blue"}}, q.Any)
	assert.False(t, q.Empty())
	assert.True(t, ParseQuery(nil).Empty())
}

func TestQueryMatch(t *testing.T) {
	e := Entry{Title: "x", Tags: []string{"a", "b", "c"}}

	tests := []struct {
		name   string
		groups []string
		want   bool
	}{
		{"all present", []string{"a", "b"}, true},
		{"one missing", []string{"a", "z"}, false},
		{"excluded", []string{"a", "--c"}, false},
		{"exclusion absent", []string{"--z"}, true},
		{"any group hit", []string{"z|b"}, true},
		{"any group miss", []string{"y|z"}, false},
		{"two any groups", []string{"a|z", "c|y"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseQuery(tt.groups).Match(e))
		})
	}
}

func TestQueryTags(t *testing.T) {
	s, _ := openBasic(t, Options{})

	tests := []struct {
		name   string
		scope  string
		groups []string
		want   []string
	}{
		{"single tag", "", []string{"clothing"}, []string{"Blue Jeans", "Red Dress"}},
		{"and", "", []string{"clothing", "red"}, []string{"Red Dress"}},
		{"not", "", []string{"clothing", "--formal"}, []string{"Blue Jeans"}},
		{"or", "", []string{"red|mood"}, []string{"Happy", "Red Dress"}},
		{"only negation", "", []string{"--clothing"}, []string{"Happy"}},
		{"case insensitive", "", []string{"CLOTHING"}, []string{"Blue Jeans", "Red Dress"}},
		{"scoped", "moods", []string{"mood"}, []string{"Happy"}},
		{"scoped elsewhere", "looks", []string{"mood"}, nil},
		{"unknown scope", "missing", []string{"mood"}, nil},
		{"no match", "", []string{"purple"}, nil},
		{"empty query", "", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.QueryTags(tt.scope, tt.groups))
		})
	}
}
