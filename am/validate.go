package am

import "github.com/teranos/umi/errors"

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Wildcards.Dir == "" {
		return errors.WithHint(
			errors.New("wildcards.dir cannot be empty"),
			"point wildcards.dir at the folder holding your .txt and .yaml files")
	}
	if c.Wildcards.DebounceMS < 0 {
		return errors.Newf("wildcards.debounce_ms must be >= 0, got %d", c.Wildcards.DebounceMS)
	}

	// Pass cap: 0 = default, otherwise within bounds
	if p := c.Generation.MaxPasses; p != 0 && (p < MinMaxPasses || p > MaxMaxPasses) {
		return errors.Newf("generation.max_passes must be between %d and %d, got %d", MinMaxPasses, MaxMaxPasses, p)
	}
	if c.Generation.BatchSize < 0 {
		return errors.Newf("generation.batch_size must be >= 0, got %d", c.Generation.BatchSize)
	}
	if c.Generation.BatchCount < 0 {
		return errors.Newf("generation.batch_count must be >= 0, got %d", c.Generation.BatchCount)
	}
	for key, idx := range c.Generation.SelectedOptions {
		if idx < 0 {
			return errors.Newf("generation.selected_options.%s must be >= 0, got %d", key, idx)
		}
	}

	if c.History.Limit < 0 {
		return errors.Newf("history.limit must be >= 0, got %d", c.History.Limit)
	}

	// Server port: 0 is invalid (omit for default), negative is invalid
	if c.Server.Port != nil && *c.Server.Port == 0 {
		return errors.Newf("server.port cannot be 0 (omit for default port %d)", DefaultServerPort)
	}
	if c.Server.Port != nil && (*c.Server.Port < 0 || *c.Server.Port > 65535) {
		return errors.Newf("server.port must be in 1-65535, got %d", *c.Server.Port)
	}
	if c.Server.RatePerSecond < 0 {
		return errors.Newf("server.rate_per_second must be >= 0, got %f", c.Server.RatePerSecond)
	}
	if c.Server.RateBurst < 0 {
		return errors.Newf("server.rate_burst must be >= 0, got %d", c.Server.RateBurst)
	}

	switch c.Log.Theme {
	case "", "everforest", "gruvbox":
	default:
		return errors.Newf("log.theme must be everforest or gruvbox, got %q", c.Log.Theme)
	}

	return nil
}
