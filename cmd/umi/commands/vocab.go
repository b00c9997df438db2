package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teranos/umi/display"
	"github.com/teranos/umi/errors"
)

// FilesCmd lists the loaded wildcard sources
var FilesCmd = &cobra.Command{
	Use:   "files",
	Short: "List wildcard source files",
	Long:  "List every .txt list and .yaml structured source under the wildcards directory.",
	Args:  cobra.NoArgs,
	RunE:  runFiles,
}

// TagsCmd lists tags or queries entries by tag
var TagsCmd = &cobra.Command{
	Use:   "tags [tag-group...]",
	Short: "List tags, or entries matching a tag query",
	Long: `Without arguments, list every tag used by structured entries.

Each argument is one tag group: a plain tag is required, --tag excludes,
and a|b accepts either.

Examples:
  umi tags
  umi tags clothing red
  umi tags clothing -- --formal
  umi tags "blue|green" --scope styles/looks`,
	RunE: runTags,
}

// EntryCmd shows one structured entry
var EntryCmd = &cobra.Command{
	Use:   "entry <title>",
	Short: "Show a structured entry by title",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runEntry,
}

var tagsScope string

func init() {
	TagsCmd.Flags().StringVar(&tagsScope, "scope", "", "Restrict matches to one structured source")
	for _, c := range []*cobra.Command{FilesCmd, TagsCmd, EntryCmd} {
		c.Flags().Bool("json", false, "Output as JSON")
	}
}

func runFiles(cmd *cobra.Command, args []string) error {
	_, gen, err := setupGenerator(cmd)
	if err != nil {
		return err
	}
	store := gen.Resolver().Store()

	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(cmd.OutOrStdout(), map[string]interface{}{
			"files": store.Files(),
			"stats": store.Stats(),
		})
	}
	fmt.Fprint(cmd.OutOrStdout(), display.Sources(store.Files(), store.Stats()))
	return nil
}

func runTags(cmd *cobra.Command, args []string) error {
	_, gen, err := setupGenerator(cmd)
	if err != nil {
		return err
	}
	store := gen.Resolver().Store()
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		tags := store.Tags()
		if display.ShouldOutputJSON(cmd) {
			return display.OutputJSON(out, tags)
		}
		fmt.Fprint(out, display.Tags(tags))
		return nil
	}

	titles := store.QueryTags(tagsScope, args)
	if display.ShouldOutputJSON(cmd) {
		if titles == nil {
			titles = []string{}
		}
		return display.OutputJSON(out, titles)
	}
	fmt.Fprint(out, display.Titles(strings.Join(args, " "), titles))
	return nil
}

func runEntry(cmd *cobra.Command, args []string) error {
	_, gen, err := setupGenerator(cmd)
	if err != nil {
		return err
	}
	title := strings.Join(args, " ")
	entry, ok := gen.Resolver().Store().Entry(title)
	if !ok {
		return errors.WithHint(errors.NewNotFoundError("entry %q", title), "run `umi tags <tag>` to find titles")
	}

	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(cmd.OutOrStdout(), entry)
	}
	fmt.Fprint(cmd.OutOrStdout(), display.Entry(entry))
	return nil
}
