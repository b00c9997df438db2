package logger

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// stripANSI removes ANSI color codes from a string for testing
func stripANSI(str string) string {
	ansiRegex := regexp.MustCompile(`\x1b\[[0-9;]*m`)
	return ansiRegex.ReplaceAllString(str, "")
}

func encode(t *testing.T, enc zapcore.Encoder, ent zapcore.Entry, fields ...zapcore.Field) string {
	t.Helper()
	buf, err := enc.EncodeEntry(ent, fields)
	require.NoError(t, err)
	return stripANSI(buf.String())
}

// The console encoder must never silently discard a field.
func TestMinimalEncoderNeverDiscardsFields(t *testing.T) {
	entry := zapcore.Entry{
		Level:      zapcore.InfoLevel,
		Time:       time.Now(),
		LoggerName: "resolver",
		Message:    "Testing field preservation",
	}

	testFields := []struct {
		field    zapcore.Field
		mustFind string
	}{
		{zap.String(FieldKey, "hair_colors"), "key=hair_colors"},
		{zap.String(FieldTemplate, "a __b__ c"), "template=a __b__ c"},
		{zap.Int64(FieldSeed, 1234), "seed=1234"},
		{zap.Int(FieldPass, 3), "pass=3"},
		{zap.Bool("deprecated", true), "deprecated=true"},
		{zap.Float64("cfg_scale", 0.8), "cfg_scale=0.8"},
		{zap.Float32("float32_field", 3.14), "float32_field=3.14"},
		{zap.Strings(FieldLineage, []string{"a", "b"}), "lineage=[a b]"},
		{zap.String("field.with.dots", "test2"), "field.with.dots=test2"},
		{zap.Error(nil), ""}, // nil error shouldn't crash
		{zap.String(FieldError, "something went wrong"), "error=something went wrong"},
		{zap.Duration("took", 5 * time.Second), "took=5s"},
		{zap.Uint8("uint8", 200), "uint8=200"},
	}

	var allFields []zapcore.Field
	for _, tf := range testFields {
		allFields = append(allFields, tf.field)
	}

	out := encode(t, newMinimalEncoder(), entry, allFields...)
	for _, tf := range testFields {
		if tf.mustFind != "" {
			assert.Contains(t, out, tf.mustFind)
		}
	}
}

func TestMinimalEncoderFieldOrder(t *testing.T) {
	entry := zapcore.Entry{Level: zapcore.InfoLevel, Time: time.Now(), Message: "order"}

	out := encode(t, newMinimalEncoder(), entry,
		zap.String("z", "1"), zap.String("a", "2"), zap.String("m", "3"))

	assert.Less(t, strings.Index(out, "z=1"), strings.Index(out, "a=2"))
	assert.Less(t, strings.Index(out, "a=2"), strings.Index(out, "m=3"))
}

func TestMinimalEncoderContextFields(t *testing.T) {
	var sb strings.Builder
	core := zapcore.NewCore(newMinimalEncoder(), zapcore.AddSync(&sb), zapcore.DebugLevel)
	l := zap.New(core).Named("vocab").With(zap.String(FieldComponent, "watcher"))

	l.Warn("reloaded", zap.Int(FieldLists, 4))

	out := stripANSI(sb.String())
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "vocab")
	assert.Contains(t, out, "reloaded")
	assert.Contains(t, out, "lists=4")
	assert.Contains(t, out, "component=watcher")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestMinimalEncoderCloneIsolation(t *testing.T) {
	base := newMinimalEncoder()
	clone := base.Clone().(*minimalEncoder)
	clone.AddString("only", "clone")

	_, ok := base.Fields["only"]
	assert.False(t, ok)
}

func TestLevelLabel(t *testing.T) {
	entry := zapcore.Entry{Time: time.Now(), Message: "m"}

	entry.Level = zapcore.InfoLevel
	assert.NotContains(t, encode(t, newMinimalEncoder(), entry), "INFO")

	entry.Level = zapcore.ErrorLevel
	assert.Contains(t, encode(t, newMinimalEncoder(), entry), "ERROR")
}

func TestAbbreviateName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"server", "server"},
		{"server.ws", "s.ws"},
		{"vocab.watcher.debounce", "v.watcher.debounce"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, abbreviateName(tt.in))
	}
}
