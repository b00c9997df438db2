// Package am loads umi's configuration ("am" = the settings umi runs with).
//
// Sources merge in precedence order (lowest to highest):
//
//	built-in defaults < /etc/umi/config.toml < ~/.umi/am.toml < project am.toml < UMI_* env vars
package am

// Config represents the core umi configuration
type Config struct {
	Wildcards  WildcardsConfig  `mapstructure:"wildcards"`
	Generation GenerationConfig `mapstructure:"generation"`
	History    HistoryConfig    `mapstructure:"history"`
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
}

// WildcardsConfig configures the vocabulary source tree
type WildcardsConfig struct {
	Dir           string `mapstructure:"dir"`            // Root of .txt/.yaml sources (default: "wildcards")
	CacheFiles    bool   `mapstructure:"cache_files"`    // Keep parsed lists in memory; false re-reads on every lookup
	IgnoreFolders bool   `mapstructure:"ignore_folders"` // Resolve folder-qualified keys by basename as well
	Watch         bool   `mapstructure:"watch"`          // Refresh on file changes while serving
	DebounceMS    int    `mapstructure:"debounce_ms"`    // Watcher debounce (default: 500)
}

// GenerationConfig holds per-request defaults; request options override them
type GenerationConfig struct {
	MaxPasses               int            `mapstructure:"max_passes"` // Fixed-point pass cap (default: 20, allowed 1-100)
	SameSeedPerBatch        bool           `mapstructure:"same_seed_per_batch"`
	StaticWildcards         bool           `mapstructure:"static_wildcards"`
	CollectNegativeKeywords bool           `mapstructure:"collect_negative_keywords"`
	Verbose                 bool           `mapstructure:"verbose"`          // Report consulted sources and the original template
	SelectedOptions         map[string]int `mapstructure:"selected_options"` // key = line index pinned for that list
	BatchSize               int            `mapstructure:"batch_size"`
	BatchCount              int            `mapstructure:"batch_count"`
}

// HistoryConfig configures the SQLite generation log
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"` // Database file (default: "umi.db")
	Limit   int    `mapstructure:"limit"` // Default page size for `umi history ls`
}

// ServerConfig configures the umi HTTP server
type ServerConfig struct {
	Port           *int     `mapstructure:"port"` // nil = DefaultServerPort, 0 is invalid (omit for default)
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	RatePerSecond  float64  `mapstructure:"rate_per_second"` // Generate endpoint token rate (0 = unlimited)
	RateBurst      int      `mapstructure:"rate_burst"`
}

// LogConfig configures log output
type LogConfig struct {
	Theme string `mapstructure:"theme"` // Console color theme: everforest, gruvbox
	JSON  bool   `mapstructure:"json"`
}

// Server port constants
const (
	DefaultServerPort = 7870
)

// Pass cap bounds
const (
	DefaultMaxPasses = 20
	MinMaxPasses     = 1
	MaxMaxPasses     = 100
)

// File system constants
const (
	DefaultDirPermissions  = 0755 // Standard directory permissions (rwxr-xr-x)
	DefaultFilePermissions = 0644 // Standard file permissions (rw-r--r--)
)
