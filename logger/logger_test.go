package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// restoreLogger puts the global logger back after a test swaps it.
func restoreLogger(t *testing.T) {
	t.Helper()
	prev, prevLevel, prevOut := Logger, Level(), output
	t.Cleanup(func() {
		Logger = prev
		level.SetLevel(prevLevel)
		output = prevOut
	})
}

func TestInitialize(t *testing.T) {
	tests := []struct {
		name       string
		jsonOutput bool
		verbosity  int
	}{
		{"JSON output mode", true, 0},
		{"Console output mode", false, 0},
		{"Console debug", false, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			restoreLogger(t)

			err := Initialize(tt.jsonOutput, tt.verbosity)
			require.NoError(t, err)
			require.NotNil(t, Logger)
			assert.Equal(t, VerbosityToLevel(tt.verbosity), Level())

			wantLevel := VerbosityToLevel(tt.verbosity)
			assert.True(t, Logger.Desugar().Core().Enabled(wantLevel))
			if wantLevel > zapcore.DebugLevel {
				assert.False(t, Logger.Desugar().Core().Enabled(wantLevel-1))
			}
		})
	}
}

func TestVerbosityToLevel(t *testing.T) {
	tests := []struct {
		verbosity int
		want      zapcore.Level
	}{
		{-1, zapcore.WarnLevel},
		{0, zapcore.WarnLevel},
		{1, zapcore.InfoLevel},
		{2, zapcore.DebugLevel},
		{5, zapcore.DebugLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, VerbosityToLevel(tt.verbosity), "verbosity %d", tt.verbosity)
	}
}

func TestSetVerbosity(t *testing.T) {
	restoreLogger(t)
	var buf bytes.Buffer
	output = &buf

	require.NoError(t, Initialize(false, 0))
	Logger.Info("hidden")
	assert.Empty(t, buf.String())

	SetVerbosity(1)
	Logger.Info("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestCleanup(t *testing.T) {
	restoreLogger(t)

	Logger = zap.NewExample().Sugar()
	assert.NotPanics(t, Cleanup)
	assert.NotNil(t, Logger, "Cleanup should not nil out the logger")

	Logger = nil
	assert.NotPanics(t, Cleanup)
}

func TestLoggingFunctions(t *testing.T) {
	restoreLogger(t)
	Logger = zap.NewNop().Sugar()

	assert.NotPanics(t, func() {
		Infow("test", "key", "value")
		Errorw("test", "key", "value")
		Warnw("test", "key", "value")
		Debugw("test", "key", "value")
	})

	Logger = nil
	assert.NotPanics(t, func() {
		Infow("test", "key", "value")
		Warnw("test", "key", "value")
	})
}

func TestComponentLogger(t *testing.T) {
	restoreLogger(t)
	Logger = zap.NewNop().Sugar()

	assert.NotNil(t, ComponentLogger("vocab"))

	own := zap.NewExample().Sugar()
	assert.Same(t, own, OrComponent(own, "resolver"))
	assert.NotNil(t, OrComponent(nil, "resolver"))
}

func TestSetTheme(t *testing.T) {
	t.Cleanup(func() { currentTheme = "everforest" })

	SetTheme("gruvbox")
	assert.Equal(t, "gruvbox", currentTheme)

	SetTheme("solarized")
	assert.Equal(t, "gruvbox", currentTheme, "unknown themes are ignored")
}

func BenchmarkInfow(b *testing.B) {
	l := zap.NewNop().Sugar()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		l.Infow("resolved", FieldKey, "colors", FieldPass, 1)
	}
}
