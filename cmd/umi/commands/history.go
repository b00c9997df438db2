package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teranos/umi/display"
	"github.com/teranos/umi/history"
)

// HistoryCmd browses stored generations
var HistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse previously generated prompts",
	Long: `Browse prompts stored with generate --save (or history.enabled = true).

Examples:
  umi history ls
  umi history ls --limit 50
  umi history show 3f2a9c1e`,
}

var historyLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List recent generations, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistoryLs,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one generation by ID or unique ID prefix",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyLimit int

func init() {
	historyLsCmd.Flags().IntVar(&historyLimit, "limit", 0, "Number of records (default from config)")
	historyLsCmd.Flags().Bool("json", false, "Output as JSON")
	historyShowCmd.Flags().Bool("json", false, "Output as JSON")

	HistoryCmd.AddCommand(historyLsCmd)
	HistoryCmd.AddCommand(historyShowCmd)
}

func runHistoryLs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, conn, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	limit := historyLimit
	if limit <= 0 {
		limit = cfg.History.Limit
	}
	if limit <= 0 {
		limit = history.DefaultLimit
	}

	records, err := store.List(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if display.ShouldOutputJSON(cmd) {
		if records == nil {
			records = []history.Record{}
		}
		return display.OutputJSON(cmd.OutOrStdout(), records)
	}
	fmt.Fprint(cmd.OutOrStdout(), display.History(records))
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, conn, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	rec, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(cmd.OutOrStdout(), rec)
	}
	fmt.Fprint(cmd.OutOrStdout(), display.Record(rec))
	return nil
}
