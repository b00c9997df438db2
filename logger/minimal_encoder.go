package logger

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const (
	colorReset = "\x1b[0m"
	colorBold  = "\x1b[1m"
)

// palette holds the ANSI colors used by the console encoder.
type palette struct {
	fg       string
	time     string
	key      string
	number   string
	accents  []string // rotated per component name
	yellow   string
	red      string
	redBg    string
	yellowBg string
}

var themes = map[string]palette{
	// Everforest Dark (natural forest greens)
	"everforest": {
		fg:       "\x1b[38;5;223m",
		time:     "\x1b[38;5;107m",
		key:      "\x1b[38;5;65m",
		number:   "\x1b[38;5;108m",
		accents:  []string{"\x1b[38;5;108m", "\x1b[38;5;65m", "\x1b[38;5;208m"},
		yellow:   "\x1b[38;5;179m",
		red:      "\x1b[38;5;167m",
		redBg:    "\x1b[48;5;52m",
		yellowBg: "\x1b[48;5;58m",
	},
	// Gruvbox Dark (warm, muted)
	"gruvbox": {
		fg:       "\x1b[38;5;223m",
		time:     "\x1b[38;5;108m",
		key:      "\x1b[38;5;109m",
		number:   "\x1b[38;5;175m",
		accents:  []string{"\x1b[38;5;208m", "\x1b[38;5;214m"},
		yellow:   "\x1b[38;5;214m",
		red:      "\x1b[38;5;167m",
		redBg:    "\x1b[48;5;88m",
		yellowBg: "\x1b[48;5;58m",
	},
}

// Current active theme (set by logger.Initialize from UMI_LOG_THEME)
var currentTheme = "everforest"

// SetTheme configures the color scheme for log output.
// Unknown names are ignored.
func SetTheme(theme string) {
	if _, ok := themes[theme]; ok {
		currentTheme = theme
	}
}

func colors() palette {
	return themes[currentTheme]
}

func colorComponent(name string) string {
	// Hash for consistent color per component
	hash := 0
	for _, c := range name {
		hash += int(c)
	}
	accents := colors().accents
	return accents[hash%len(accents)]
}

// minimalEncoder implements a calm, compact console encoder with theme support.
// Format: "13:04:35  WARN  resolver  cycle detected  key=self pass=2"
//
// Context fields added via With are kept in the embedded map encoder and
// printed after the per-entry fields.
type minimalEncoder struct {
	*zapcore.MapObjectEncoder
}

func newMinimalEncoder() *minimalEncoder {
	return &minimalEncoder{MapObjectEncoder: zapcore.NewMapObjectEncoder()}
}

func (enc *minimalEncoder) Clone() zapcore.Encoder {
	clone := zapcore.NewMapObjectEncoder()
	for k, v := range enc.Fields {
		clone.Fields[k] = v
	}
	return &minimalEncoder{MapObjectEncoder: clone}
}

func (enc *minimalEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	final := buffer.NewPool().Get()
	c := colors()

	final.AppendString(c.time)
	final.AppendString(ent.Time.Format("15:04:05"))
	final.AppendString(colorReset)

	// Level: only shown for non-info entries
	if ent.Level != zapcore.InfoLevel {
		final.AppendString("  ")
		final.AppendString(levelColorString(ent.Level))
	}

	if ent.LoggerName != "" {
		final.AppendString("  ")
		final.AppendString(colorComponent(ent.LoggerName))
		final.AppendString(abbreviateName(ent.LoggerName))
		final.AppendString(colorReset)
	}

	final.AppendString("  ")
	final.AppendString(c.fg)
	final.AppendString(ent.Message)
	final.AppendString(colorReset)

	if rendered := renderFields(fields, enc.Fields); rendered != "" {
		final.AppendString("  ")
		final.AppendString(rendered)
	}

	final.AppendString("\n")
	return final, nil
}

// levelColorString returns bold + colored + background for WARN/ERROR
func levelColorString(level zapcore.Level) string {
	c := colors()
	switch level {
	case zapcore.DebugLevel:
		return c.key + "DEBUG" + colorReset
	case zapcore.WarnLevel:
		return colorBold + c.yellowBg + c.yellow + "WARN" + colorReset
	case zapcore.ErrorLevel:
		return colorBold + c.redBg + c.red + "ERROR" + colorReset
	case zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		return colorBold + c.redBg + c.red + level.CapitalString() + colorReset
	default:
		return ""
	}
}

// abbreviateName shortens component names: server.ws -> s.ws
func abbreviateName(name string) string {
	parts := strings.Split(name, ".")
	if len(parts) > 1 {
		return string(parts[0][0]) + "." + strings.Join(parts[1:], ".")
	}
	return name
}

// renderFields prints every field as key=value. Entry fields keep their call
// order; context fields follow sorted by key. Nothing is ever dropped.
func renderFields(fields []zapcore.Field, context map[string]interface{}) string {
	entry := zapcore.NewMapObjectEncoder()
	var order []string
	seen := make(map[string]bool)
	for _, f := range fields {
		f.AddTo(entry)
		if _, ok := entry.Fields[f.Key]; ok && !seen[f.Key] {
			seen[f.Key] = true
			order = append(order, f.Key)
		}
	}

	ctxKeys := make([]string, 0, len(context))
	for k := range context {
		if !seen[k] {
			ctxKeys = append(ctxKeys, k)
		}
	}
	sort.Strings(ctxKeys)

	c := colors()
	parts := make([]string, 0, len(order)+len(ctxKeys))
	write := func(k string, v interface{}) {
		parts = append(parts, c.key+k+"="+colorReset+colorValue(v, c))
	}
	for _, k := range order {
		write(k, entry.Fields[k])
	}
	for _, k := range ctxKeys {
		write(k, context[k])
	}
	return strings.Join(parts, " ")
}

func colorValue(v interface{}, c palette) string {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return c.number + fmt.Sprintf("%v", v) + colorReset
	default:
		return fmt.Sprintf("%v", v)
	}
}
