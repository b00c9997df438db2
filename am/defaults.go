package am

import (
	"fmt"

	"github.com/spf13/viper"
)

var defaultAllowedOrigins = []string{
	"http://localhost",
	"https://localhost",
	"http://127.0.0.1",
	"https://127.0.0.1",
}

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Wildcards defaults
	v.SetDefault("wildcards.dir", "wildcards")
	v.SetDefault("wildcards.cache_files", true)
	v.SetDefault("wildcards.ignore_folders", false)
	v.SetDefault("wildcards.watch", true)
	v.SetDefault("wildcards.debounce_ms", 500)

	// Generation defaults
	v.SetDefault("generation.max_passes", DefaultMaxPasses)
	v.SetDefault("generation.same_seed_per_batch", false)
	v.SetDefault("generation.static_wildcards", true)
	v.SetDefault("generation.collect_negative_keywords", true)
	v.SetDefault("generation.verbose", false)
	v.SetDefault("generation.batch_size", 1)
	v.SetDefault("generation.batch_count", 1)

	// History defaults
	v.SetDefault("history.enabled", false)
	v.SetDefault("history.path", "umi.db")
	v.SetDefault("history.limit", 20)

	// Server defaults
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.allowed_origins", defaultAllowedOrigins)
	v.SetDefault("server.rate_per_second", 5.0)
	v.SetDefault("server.rate_burst", 10)

	// Log defaults
	v.SetDefault("log.theme", "everforest")
	v.SetDefault("log.json", false)
}

// BindEnvVars explicitly binds settings commonly overridden per invocation
func BindEnvVars(v *viper.Viper) {
	v.BindEnv("wildcards.dir", "UMI_WILDCARDS_DIR")
	v.BindEnv("history.path", "UMI_HISTORY_PATH")
	v.BindEnv("server.port", "UMI_SERVER_PORT")
	v.BindEnv("log.theme", "UMI_LOG_THEME")
}

// GetServerPort returns the configured port, or DefaultServerPort
func (c *Config) GetServerPort() int {
	if c.Server.Port == nil {
		return DefaultServerPort
	}
	return *c.Server.Port
}

// GetServerAllowedOrigins returns the allowed CORS origins
func (c *Config) GetServerAllowedOrigins() []string {
	if len(c.Server.AllowedOrigins) == 0 {
		return defaultAllowedOrigins
	}
	return c.Server.AllowedOrigins
}

// GetLogTheme returns the log theme (default: everforest)
func (c *Config) GetLogTheme() string {
	if c.Log.Theme == "" {
		return "everforest"
	}
	return c.Log.Theme
}

// GetMaxPasses returns the pass cap with the default applied
func (c *Config) GetMaxPasses() int {
	if c.Generation.MaxPasses == 0 {
		return DefaultMaxPasses
	}
	return c.Generation.MaxPasses
}

// GetHistoryPath returns the history database path
func (c *Config) GetHistoryPath() string {
	if c.History.Path == "" {
		return "umi.db"
	}
	return c.History.Path
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf("Config{Wildcards: %s, Generation: {MaxPasses: %d}, History: {Enabled: %t}, Server: {Port: %d}}",
		c.Wildcards.Dir, c.GetMaxPasses(), c.History.Enabled, c.GetServerPort())
}
