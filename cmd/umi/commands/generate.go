package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/teranos/umi/display"
	"github.com/teranos/umi/errors"
	"github.com/teranos/umi/logger"
	"github.com/teranos/umi/prompt"
	"github.com/teranos/umi/ratio"
)

// GenerateCmd expands a template into prompts
var GenerateCmd = &cobra.Command{
	Use:     "generate <template>",
	Aliases: []string{"gen", "g"},
	Short:   "Expand a wildcard template into prompts",
	Long: `Expand a wildcard template into one or more concrete prompts.

Placeholders:
  __name__              random line of name.txt (or entry of name.yaml)
  __2$$name__           two distinct lines, joined with ", "
  __#1$$name__          memoised pick, same value wherever #1 appears
  <[red][--formal]>     random entry whose tags match
  {a|b|c}  {2$$a|b|c}   inline choice, optional count or range
  {70%a|b}              weighted choice
  @@steps=30@@          generation setting override
  **blurry**            moved to the negative prompt

Examples:
  umi generate "a __colors__ __animals__"
  umi generate --seed 42 --batch-size 4 "{red|blue} __clothing/hats__"
  umi generate --ratio 2:3 --save "<[formal]> portrait"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

var (
	genSeed       int64
	genBatchSize  int
	genBatchCount int
	genNegative   string
	genRatio      string
	genCategory   string
	genSameSeed   bool
	genStatic     bool
	genCollect    bool
	genSave       bool
	genSources    bool
)

func init() {
	GenerateCmd.Flags().Int64Var(&genSeed, "seed", -1, "Seed of the first image (-1 = random)")
	GenerateCmd.Flags().IntVarP(&genBatchSize, "batch-size", "n", 0, "Images per batch (default from config)")
	GenerateCmd.Flags().IntVar(&genBatchCount, "batch-count", 0, "Number of batches (default from config)")
	GenerateCmd.Flags().StringVar(&genNegative, "negative", "", "Negative prompt; collected negatives are appended")
	GenerateCmd.Flags().StringVar(&genRatio, "ratio", "", "Aspect preset for width/height, e.g. 2:3")
	GenerateCmd.Flags().StringVar(&genCategory, "category", "", "Pick a random aspect preset from: portrait, landscape, square, all")
	GenerateCmd.Flags().BoolVar(&genSameSeed, "same-seed", false, "Reuse the first prompt of each batch for all its images")
	GenerateCmd.Flags().BoolVar(&genStatic, "static", true, "Derive wildcard choices from the image seeds")
	GenerateCmd.Flags().BoolVar(&genCollect, "collect-negatives", true, "Move **negative** fragments into the negative prompt")
	GenerateCmd.Flags().BoolVar(&genSave, "save", false, "Store the batch in the history database")
	GenerateCmd.Flags().BoolVar(&genSources, "sources", false, "Also print the template and consulted source files")
	GenerateCmd.Flags().Bool("json", false, "Output as JSON")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, gen, err := setupGenerator(cmd)
	if err != nil {
		return err
	}
	template := strings.Join(args, " ")

	opts, err := generateOptions(cmd, baseOptions(cfg), time.Now())
	if err != nil {
		return err
	}

	batch, err := gen.Generate(cmd.Context(), template, opts)
	if err != nil {
		return errors.Wrap(err, "generation failed")
	}

	var batchID string
	if genSave || cfg.History.Enabled {
		store, conn, err := openHistory(cfg)
		if err != nil {
			return err
		}
		defer conn.Close()
		if batchID, err = store.SaveBatch(cmd.Context(), batch); err != nil {
			return err
		}
		logger.Logger.Infow("Saved batch", "batch_id", batchID)
	}

	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(cmd.OutOrStdout(), struct {
			*prompt.Batch
			BatchID string `json:"batch_id,omitempty"`
		}{batch, batchID})
	}
	fmt.Fprint(cmd.OutOrStdout(), display.Batch(batch, genSources || cfg.Generation.Verbose))
	return nil
}

// generateOptions layers the flags the user set over base.
func generateOptions(cmd *cobra.Command, base prompt.Options, now time.Time) (prompt.Options, error) {
	opts := base
	flags := cmd.Flags()

	opts.Seed = genSeed
	if genSeed < 0 {
		opts.Seed = now.UnixNano() & 0xffffffff
	}
	if flags.Changed("batch-size") {
		opts.BatchSize = genBatchSize
	}
	if flags.Changed("batch-count") {
		opts.BatchCount = genBatchCount
	}
	if flags.Changed("same-seed") {
		opts.SameSeedPerBatch = genSameSeed
	}
	if flags.Changed("static") {
		opts.StaticWildcards = genStatic
	}
	if flags.Changed("collect-negatives") {
		opts.CollectNegativeKeywords = genCollect
	}
	opts.NegativePrompt = genNegative

	switch {
	case genRatio != "" && genCategory != "":
		return opts, errors.NewInvalidRequestError("--ratio and --category are mutually exclusive")
	case genRatio != "":
		preset, err := ratio.ByName(genRatio)
		if err != nil {
			return opts, err
		}
		opts.Base.Merge(preset.Overrides())
	case genCategory != "":
		category, err := ratio.ParseCategory(genCategory)
		if err != nil {
			return opts, err
		}
		opts.Base.Merge(ratio.Random(category, opts.Seed).Overrides())
	}
	return opts, nil
}
