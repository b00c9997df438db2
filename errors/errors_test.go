package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesSentinel(t *testing.T) {
	err := Wrap(ErrMalformedRange, "parse {x-y$$a|b}")

	assert.True(t, Is(err, ErrMalformedRange))
	assert.False(t, Is(err, ErrCycleDetected))
	assert.Contains(t, err.Error(), "parse {x-y$$a|b}")
}

func TestMissingSource(t *testing.T) {
	err := MissingSource("hair_colors")

	assert.True(t, Is(err, ErrMissingSource))
	assert.True(t, IsNotFoundError(err))
	assert.Contains(t, err.Error(), `"hair_colors"`)
}

func TestMalformedRange(t *testing.T) {
	err := MalformedRange("2-x")

	assert.True(t, Is(err, ErrMalformedRange))
	assert.False(t, IsNotFoundError(err))
}

func TestIsNotFoundError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"not found sentinel", ErrNotFound, true},
		{"formatted not found", NewNotFoundError("entry %q", "Red Dress"), true},
		{"missing source", Wrap(ErrMissingSource, "colors"), true},
		{"unrelated", New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNotFoundError(tt.err))
		})
	}
}

func TestIsInvalidRequestError(t *testing.T) {
	err := NewInvalidRequestError("batch size %d", -1)
	assert.True(t, IsInvalidRequestError(err))
	assert.Contains(t, err.Error(), "batch size -1")
	assert.False(t, IsInvalidRequestError(nil))
}

func TestWithHint(t *testing.T) {
	err := WithHint(ErrMissingSource, "run `umi files` to list known wildcards")

	hints := GetAllHints(err)
	require.Len(t, hints, 1)
	assert.Equal(t, "run `umi files` to list known wildcards", hints[0])
}

func TestStackTrace(t *testing.T) {
	err := New("with stack")

	detailed := fmt.Sprintf("%+v", err)
	assert.Contains(t, detailed, "errors_test.go")
}

func TestNilHandling(t *testing.T) {
	assert.Nil(t, Wrap(nil, "context"))
	assert.Nil(t, Wrapf(nil, "context %d", 1))
	assert.Nil(t, WithHint(nil, "hint"))
}

func ExampleWrap() {
	err := Wrap(ErrCycleDetected, "__self__")
	fmt.Println(err)
	// Output: __self__: cycle detected
}
