package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/umi/am"
	"github.com/teranos/umi/cmd/umi/commands"
	"github.com/teranos/umi/display"
	"github.com/teranos/umi/errors"
	"github.com/teranos/umi/logger"
)

var rootCmd = &cobra.Command{
	Use:   "umi",
	Short: "umi - wildcard prompt expansion",
	Long: `umi - expand wildcard prompt templates into concrete prompts.

Wildcards live in a directory of .txt lists (one candidate per line) and
.yaml files of titled, tagged entries.

Available commands:
  generate - Expand a template into prompts
  files    - List wildcard source files
  tags     - List tags or query entries by tag
  entry    - Show one structured entry
  ratio    - List or pick aspect ratio presets
  history  - Browse stored generations
  am       - Manage umi configuration ("I am")
  serve    - Serve generation over HTTP and WebSocket
  mcp      - Serve MCP tools over stdio

Examples:
  umi generate "a __colors__ __animals__ in a {hat|scarf}"
  umi tags clothing red
  umi serve -v`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLogs := false
		if cfg, err := am.Load(); err == nil {
			jsonLogs = cfg.Log.JSON
			logger.SetTheme(cfg.GetLogTheme())
		}
		if err := logger.Initialize(jsonLogs, verbosity); err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}
		display.Compact, _ = cmd.Flags().GetBool("compact")
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv)")
	rootCmd.PersistentFlags().Bool("json", false, "Output results as JSON")
	rootCmd.PersistentFlags().Bool("compact", false, "Print JSON on one line")
	rootCmd.PersistentFlags().String("wildcards", "", "Wildcards directory (overrides wildcards.dir)")

	rootCmd.AddCommand(commands.GenerateCmd)
	rootCmd.AddCommand(commands.FilesCmd)
	rootCmd.AddCommand(commands.TagsCmd)
	rootCmd.AddCommand(commands.EntryCmd)
	rootCmd.AddCommand(commands.RatioCmd)
	rootCmd.AddCommand(commands.HistoryCmd)
	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.MCPCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if hints := errors.GetAllHints(err); len(hints) > 0 {
			fmt.Fprintf(os.Stderr, "hint: %s\n", hints[0])
		}
		os.Exit(1)
	}
}
