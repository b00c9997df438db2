package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the process-wide logger. It discards everything until
// Initialize runs, so library packages can log unconditionally.
var Logger = zap.NewNop().Sugar()

var (
	level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	// output receives console logs; stdout stays free for prompts.
	output io.Writer = os.Stderr
)

// Initialize builds the global logger.
// jsonOutput selects zap's production JSON encoding, otherwise the minimal
// console encoder is used. verbosity is the -v flag count.
func Initialize(jsonOutput bool, verbosity int) error {
	SetVerbosity(verbosity)
	if theme := os.Getenv("UMI_LOG_THEME"); theme != "" {
		SetTheme(theme)
	}

	if jsonOutput {
		config := zap.NewProductionConfig()
		config.Level = level
		config.OutputPaths = []string{"stderr"}
		zl, err := config.Build()
		if err != nil {
			return err
		}
		Logger = zl.Sugar()
		return nil
	}

	Logger = zap.New(zapcore.NewCore(newMinimalEncoder(), zapcore.AddSync(output), level)).Sugar()
	return nil
}

// SetVerbosity changes the level of the running logger.
func SetVerbosity(verbosity int) {
	level.SetLevel(VerbosityToLevel(verbosity))
}

// Level reports the current minimum level.
func Level() zapcore.Level {
	return level.Level()
}

// Cleanup flushes buffered entries.
func Cleanup() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}

func current() *zap.SugaredLogger {
	if Logger == nil {
		return zap.NewNop().Sugar()
	}
	return Logger
}

// Infow logs on the global logger.
func Infow(msg string, keysAndValues ...interface{}) { current().Infow(msg, keysAndValues...) }

// Warnw logs on the global logger.
func Warnw(msg string, keysAndValues ...interface{}) { current().Warnw(msg, keysAndValues...) }

// Errorw logs on the global logger.
func Errorw(msg string, keysAndValues ...interface{}) { current().Errorw(msg, keysAndValues...) }

// Debugw logs on the global logger.
func Debugw(msg string, keysAndValues ...interface{}) { current().Debugw(msg, keysAndValues...) }
