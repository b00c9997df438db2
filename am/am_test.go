package am

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/umi/internal/util"
)

func TestLoad_Defaults(t *testing.T) {
	// Isolated viper instance without user/system config
	v := viper.New()
	SetDefaults(v)

	cfg, err := LoadWithViper(v)
	require.NoError(t, err)

	assert.Equal(t, "wildcards", cfg.Wildcards.Dir)
	assert.True(t, cfg.Wildcards.CacheFiles)
	assert.Equal(t, 500, cfg.Wildcards.DebounceMS)
	assert.Equal(t, DefaultMaxPasses, cfg.Generation.MaxPasses)
	assert.True(t, cfg.Generation.StaticWildcards)
	assert.True(t, cfg.Generation.CollectNegativeKeywords)
	assert.Equal(t, DefaultServerPort, cfg.GetServerPort())
	assert.Equal(t, "umi.db", cfg.GetHistoryPath())
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{Wildcards: WildcardsConfig{Dir: "wildcards"}}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"minimal config", func(c *Config) {}, false},
		{"empty wildcards dir", func(c *Config) { c.Wildcards.Dir = "" }, true},
		{"zero max passes uses default", func(c *Config) { c.Generation.MaxPasses = 0 }, false},
		{"max passes at lower bound", func(c *Config) { c.Generation.MaxPasses = 1 }, false},
		{"max passes above bound", func(c *Config) { c.Generation.MaxPasses = 101 }, true},
		{"negative max passes", func(c *Config) { c.Generation.MaxPasses = -3 }, true},
		{"negative batch size", func(c *Config) { c.Generation.BatchSize = -1 }, true},
		{"negative selected option", func(c *Config) { c.Generation.SelectedOptions = map[string]int{"hair": -1} }, true},
		{"server port omitted", func(c *Config) { c.Server.Port = nil }, false},
		{"server port zero", func(c *Config) { c.Server.Port = util.Ptr(0) }, true},
		{"server port too large", func(c *Config) { c.Server.Port = util.Ptr(70000) }, true},
		{"zero rate is unlimited", func(c *Config) { c.Server.RatePerSecond = 0 }, false},
		{"negative rate", func(c *Config) { c.Server.RatePerSecond = -1 }, true},
		{"unknown theme", func(c *Config) { c.Log.Theme = "solarized" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSetDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	tests := []struct {
		key      string
		expected interface{}
	}{
		{"wildcards.dir", "wildcards"},
		{"generation.max_passes", DefaultMaxPasses},
		{"history.path", "umi.db"},
		{"server.port", DefaultServerPort},
		{"log.theme", "everforest"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.expected, v.Get(tt.key))
		})
	}
}

func TestFindProjectConfig(t *testing.T) {
	tmpDir := t.TempDir()
	subDir := filepath.Join(tmpDir, "project", "deep", "subdir")
	require.NoError(t, os.MkdirAll(subDir, DefaultDirPermissions))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "project", "am.toml"), []byte(""), DefaultFilePermissions))

	t.Chdir(subDir)

	result := findProjectConfig()
	require.NotEmpty(t, result)
	assert.True(t, filepath.IsAbs(result))
	assert.Equal(t, "am.toml", filepath.Base(result))
	assert.Equal(t, "project", filepath.Base(filepath.Dir(result)))
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[wildcards]
dir = "/srv/wildcards"
ignore_folders = true

[generation]
max_passes = 12

[generation.selected_options]
hair = 2
`), DefaultFilePermissions))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/wildcards", cfg.Wildcards.Dir)
	assert.True(t, cfg.Wildcards.IgnoreFolders)
	assert.Equal(t, 12, cfg.Generation.MaxPasses)
	assert.Equal(t, map[string]int{"hair": 2}, cfg.Generation.SelectedOptions)
	// untouched keys keep defaults
	assert.True(t, cfg.Wildcards.CacheFiles)
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

// isolate points HOME and the working directory at fresh temp dirs
func isolate(t *testing.T) (home, project string) {
	t.Helper()
	Reset()
	t.Cleanup(Reset)

	home = t.TempDir()
	project = t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(project)
	return home, project
}

func TestLoad_Precedence(t *testing.T) {
	home, project := isolate(t)

	require.NoError(t, os.MkdirAll(filepath.Join(home, ".umi"), DefaultDirPermissions))
	require.NoError(t, os.WriteFile(filepath.Join(home, ".umi", "am.toml"), []byte(`
[wildcards]
dir = "user-wildcards"
cache_files = false

[history]
enabled = true
`), DefaultFilePermissions))

	require.NoError(t, os.WriteFile(filepath.Join(project, "am.toml"), []byte(`
[wildcards]
dir = "project-wildcards"
`), DefaultFilePermissions))

	t.Setenv("UMI_HISTORY_PATH", "env.db")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "project-wildcards", cfg.Wildcards.Dir, "project beats user")
	assert.False(t, cfg.Wildcards.CacheFiles, "user beats default")
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, "env.db", cfg.History.Path, "env beats files")

	assert.Equal(t, SourceProject, ConfigSources["wildcards.dir"].Source)
	assert.Equal(t, SourceUser, ConfigSources["wildcards.cache_files"].Source)
	assert.Contains(t, ConfigSources["wildcards.cache_files"].Path, filepath.Join(".umi", "am.toml"))
	assert.Len(t, ConfigFilesUsed(), 2)
}

func TestLoad_Cached(t *testing.T) {
	isolate(t)

	first, err := Load()
	require.NoError(t, err)
	second, err := Load()
	require.NoError(t, err)
	assert.Same(t, first, second)

	Reset()
	third, err := Load()
	require.NoError(t, err)
	assert.NotSame(t, first, third)
}
