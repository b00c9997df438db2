package commands

import (
	"database/sql"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/teranos/umi/am"
	"github.com/teranos/umi/db"
	"github.com/teranos/umi/errors"
	"github.com/teranos/umi/history"
	"github.com/teranos/umi/logger"
	"github.com/teranos/umi/prompt"
	"github.com/teranos/umi/resolver"
	"github.com/teranos/umi/vocab"
)

// loadConfig is swapped in tests.
var loadConfig = func() (*am.Config, error) {
	cfg, err := am.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// wildcardsDir returns the root --wildcards flag when set, else the config value.
func wildcardsDir(cmd *cobra.Command, cfg *am.Config) string {
	if dir, _ := cmd.Root().PersistentFlags().GetString("wildcards"); dir != "" {
		return dir
	}
	return cfg.Wildcards.Dir
}

// openStore loads the vocabulary under dir.
func openStore(cfg *am.Config, dir string) (*vocab.Store, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.WithHint(
			errors.Wrapf(err, "wildcards directory %s", dir),
			"set wildcards.dir in am.toml, UMI_WILDCARDS_DIR, or pass --wildcards")
	}
	if !info.IsDir() {
		return nil, errors.Newf("wildcards path %s is not a directory", dir)
	}
	return vocab.Open(os.DirFS(dir), vocab.Options{
		CacheFiles:    cfg.Wildcards.CacheFiles,
		IgnoreFolders: cfg.Wildcards.IgnoreFolders,
	}, logger.ComponentLogger("vocab"))
}

// newGenerator builds the resolver and generator for store.
func newGenerator(cfg *am.Config, store *vocab.Store) *prompt.Generator {
	r := resolver.New(store, resolver.Options{
		MaxPasses:       cfg.GetMaxPasses(),
		SelectedOptions: cfg.Generation.SelectedOptions,
	}, logger.ComponentLogger("resolver"))
	return prompt.NewGenerator(r, logger.ComponentLogger("generator"))
}

// setupGenerator loads config and vocabulary and returns a ready generator.
func setupGenerator(cmd *cobra.Command) (*am.Config, *prompt.Generator, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	store, err := openStore(cfg, wildcardsDir(cmd, cfg))
	if err != nil {
		return nil, nil, err
	}
	return cfg, newGenerator(cfg, store), nil
}

// baseOptions turns the generation config into per-batch defaults.
func baseOptions(cfg *am.Config) prompt.Options {
	g := cfg.Generation
	return prompt.Options{
		BatchSize:               g.BatchSize,
		BatchCount:              g.BatchCount,
		StaticWildcards:         g.StaticWildcards,
		SameSeedPerBatch:        g.SameSeedPerBatch,
		CollectNegativeKeywords: g.CollectNegativeKeywords,
	}
}

// openHistory opens (creating and migrating) the history database.
func openHistory(cfg *am.Config) (*history.Store, *sql.DB, error) {
	path := cfg.GetHistoryPath()
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, am.DefaultDirPermissions); err != nil {
			return nil, nil, errors.Wrapf(err, "failed to create %s", dir)
		}
	}
	conn, err := db.OpenWithMigrations(path, logger.ComponentLogger("db"))
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to open history database")
	}
	return history.NewStore(conn, logger.ComponentLogger("history")), conn, nil
}
