package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/umi/am"
	"github.com/teranos/umi/errors"
	"github.com/teranos/umi/history"
	umitest "github.com/teranos/umi/internal/testing"
	"github.com/teranos/umi/prompt"
	"github.com/teranos/umi/ratio"
	"github.com/teranos/umi/vocab"
)

var (
	testRootOnce sync.Once
	testRoot     *cobra.Command
)

// root builds one command tree for the whole test binary; cobra keeps
// merged parent flags on each child, so the tree must not be rebuilt.
func root() *cobra.Command {
	testRootOnce.Do(func() {
		testRoot = &cobra.Command{Use: "umi", SilenceUsage: true, SilenceErrors: true}
		testRoot.PersistentFlags().Bool("json", false, "")
		testRoot.PersistentFlags().String("wildcards", "", "")
		testRoot.AddCommand(GenerateCmd, FilesCmd, TagsCmd, EntryCmd, RatioCmd, HistoryCmd)
	})
	return testRoot
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// useConfig points the commands at a fresh wildcards tree and history path.
func useConfig(t *testing.T) *am.Config {
	t.Helper()
	v := viper.New()
	am.SetDefaults(v)
	cfg, err := am.LoadWithViper(v)
	require.NoError(t, err)
	cfg.Wildcards.Dir = umitest.WriteWildcards(t, umitest.Basic)
	cfg.History.Path = filepath.Join(t.TempDir(), "history", "umi.db")

	prev := loadConfig
	loadConfig = func() (*am.Config, error) { return cfg, nil }
	t.Cleanup(func() { loadConfig = prev })
	return cfg
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	r := root()
	resetFlags(r)
	var out bytes.Buffer
	r.SetOut(&out)
	r.SetErr(&out)
	r.SetArgs(args)
	err := r.ExecuteContext(context.Background())
	return out.String(), err
}

type generateOutput struct {
	prompt.Batch
	BatchID string `json:"batch_id"`
}

func TestGenerateCommand(t *testing.T) {
	useConfig(t)

	out, err := execute(t, "generate", "--json", "--seed", "7", "-n", "2", "a __colors__ hat, **blurry**")
	require.NoError(t, err, out)

	var got generateOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got), out)
	require.Len(t, got.Images, 2)
	assert.Equal(t, int64(7), got.Images[0].Seed)
	assert.Equal(t, int64(8), got.Images[1].Seed)
	for _, img := range got.Images {
		assert.Regexp(t, `^a (red|green|blue) hat$`, img.Prompt)
		assert.Equal(t, "blurry", img.Negative)
	}
	assert.Empty(t, got.BatchID)

	again, err := execute(t, "generate", "--json", "--seed", "7", "-n", "2", "a __colors__ hat, **blurry**")
	require.NoError(t, err)
	assert.JSONEq(t, out, again)
}

func TestGenerateCommand_SaveAndHistory(t *testing.T) {
	useConfig(t)

	out, err := execute(t, "generate", "--json", "--save", "--seed", "1", "--ratio", "16:9", "__animals__")
	require.NoError(t, err, out)
	var got generateOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.NotEmpty(t, got.BatchID)
	require.NotNil(t, got.Images[0].Overrides.Width)
	assert.Equal(t, 1360, *got.Images[0].Overrides.Width)

	out, err = execute(t, "history", "ls", "--json")
	require.NoError(t, err, out)
	var records []history.Record
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 1)
	assert.Equal(t, got.BatchID, records[0].BatchID)

	out, err = execute(t, "history", "show", "--json", records[0].ID[:8])
	require.NoError(t, err, out)
	var rec history.Record
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, records[0].ID, rec.ID)
}

func TestGenerateCommand_MissingWildcards(t *testing.T) {
	cfg := useConfig(t)
	cfg.Wildcards.Dir = filepath.Join(t.TempDir(), "absent")

	_, err := execute(t, "generate", "__colors__")
	require.Error(t, err)
	assert.Contains(t, errors.GetAllHints(err), "set wildcards.dir in am.toml, UMI_WILDCARDS_DIR, or pass --wildcards")
}

func TestGenerateCommand_WildcardsFlag(t *testing.T) {
	cfg := useConfig(t)
	dir := cfg.Wildcards.Dir
	cfg.Wildcards.Dir = filepath.Join(t.TempDir(), "absent")

	out, err := execute(t, "generate", "--json", "--wildcards", dir, "--seed", "3", "__colors__")
	require.NoError(t, err, out)
}

func TestVocabularyCommands(t *testing.T) {
	useConfig(t)

	out, err := execute(t, "tags", "--json", "clothing")
	require.NoError(t, err, out)
	var titles []string
	require.NoError(t, json.Unmarshal([]byte(out), &titles))
	assert.Equal(t, []string{"Blue Jeans", "Red Dress"}, titles)

	out, err = execute(t, "entry", "--json", "red", "dress")
	require.NoError(t, err, out)
	var e vocab.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &e))
	assert.Equal(t, "Red Dress", e.Title)

	_, err = execute(t, "entry", "Nobody")
	assert.True(t, errors.IsNotFoundError(err))

	out, err = execute(t, "files", "--json")
	require.NoError(t, err, out)
	var files struct {
		Files []string    `json:"files"`
		Stats vocab.Stats `json:"stats"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &files))
	assert.Contains(t, files.Files, "clothing/hats.txt")
	assert.Equal(t, 2, files.Stats.Structured)
}

func TestRatioCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"all", []string{"ratio", "--json"}, len(ratio.Presets())},
		{"category", []string{"ratio", "--json", "--category", "portrait"}, len(ratio.InCategory(ratio.Portrait))},
		{"by name", []string{"ratio", "--json", "16:9"}, 1},
		{"random", []string{"ratio", "--json", "--random", "--seed", "4", "--category", "square"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			require.NoError(t, err, out)
			var presets []ratio.Preset
			require.NoError(t, json.Unmarshal([]byte(out), &presets))
			assert.Len(t, presets, tt.want)
		})
	}

	_, err := execute(t, "ratio", "5:4")
	assert.True(t, errors.IsNotFoundError(err))
}

func TestGenerateOptions(t *testing.T) {
	root()
	now := time.Unix(1700000000, 0)

	resetFlags(root())
	require.NoError(t, GenerateCmd.Flags().Parse([]string{"--ratio", "2:3", "--category", "portrait"}))
	_, err := generateOptions(GenerateCmd, prompt.Options{}, now)
	assert.True(t, errors.IsInvalidRequestError(err))

	resetFlags(root())
	require.NoError(t, GenerateCmd.Flags().Parse([]string{"--batch-count", "3"}))
	opts, err := generateOptions(GenerateCmd, prompt.Options{BatchSize: 2, BatchCount: 1, StaticWildcards: true}, now)
	require.NoError(t, err)
	assert.Equal(t, 2, opts.BatchSize)
	assert.Equal(t, 3, opts.BatchCount)
	assert.True(t, opts.StaticWildcards)
	assert.Equal(t, now.UnixNano()&0xffffffff, opts.Seed)

	resetFlags(root())
	require.NoError(t, GenerateCmd.Flags().Parse([]string{"--category", "square", "--seed", "9"}))
	opts, err = generateOptions(GenerateCmd, prompt.Options{}, now)
	require.NoError(t, err)
	require.NotNil(t, opts.Base.Width)
	assert.Equal(t, 1024, *opts.Base.Width)
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		raw  string
		want interface{}
	}{
		{"true", true},
		{"30", int64(30)},
		{"0.5", 0.5},
		{"wildcards", "wildcards"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseValue(tt.raw), tt.raw)
	}
}
