package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/teranos/umi/display"
	"github.com/teranos/umi/ratio"
)

// RatioCmd lists or picks aspect ratio presets
var RatioCmd = &cobra.Command{
	Use:   "ratio [name]",
	Short: "List or pick aspect ratio presets",
	Long: `List the latent size presets, look one up by ratio, or pick one at random.

Examples:
  umi ratio                         # all presets
  umi ratio --category portrait     # portrait presets only
  umi ratio 16:9                    # one preset
  umi ratio --random --category landscape --seed 7`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRatio,
}

var (
	ratioCategory string
	ratioRandom   bool
	ratioSeed     int64
)

func init() {
	RatioCmd.Flags().StringVar(&ratioCategory, "category", "all", "Preset category: all, portrait, landscape, square")
	RatioCmd.Flags().BoolVar(&ratioRandom, "random", false, "Pick one preset from the category")
	RatioCmd.Flags().Int64Var(&ratioSeed, "seed", -1, "Seed for --random (-1 = random)")
	RatioCmd.Flags().Bool("json", false, "Output as JSON")
}

func runRatio(cmd *cobra.Command, args []string) error {
	presets, err := selectPresets(args, time.Now())
	if err != nil {
		return err
	}
	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(cmd.OutOrStdout(), presets)
	}
	fmt.Fprint(cmd.OutOrStdout(), display.Presets(presets))
	return nil
}

func selectPresets(args []string, now time.Time) ([]ratio.Preset, error) {
	if len(args) == 1 {
		p, err := ratio.ByName(strings.TrimSpace(args[0]))
		if err != nil {
			return nil, err
		}
		return []ratio.Preset{p}, nil
	}

	category, err := ratio.ParseCategory(ratioCategory)
	if err != nil {
		return nil, err
	}
	if ratioRandom {
		seed := ratioSeed
		if seed < 0 {
			seed = now.UnixNano()
		}
		return []ratio.Preset{ratio.Random(category, seed)}, nil
	}
	return ratio.InCategory(category), nil
}
