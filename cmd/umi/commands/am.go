package commands

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/umi/am"
	"github.com/teranos/umi/display"
	"github.com/teranos/umi/errors"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: "Manage umi configuration",
	Long: `am: manage umi configuration ("I am")

Configuration sources (in order of precedence):
1. Command line flags
2. Environment variables (UMI_* prefix)
3. Project config (./am.toml, searched upwards)
4. User config (~/.umi/am.toml)
5. System config (/etc/umi/config.toml)
6. Default values

Examples:
  umi am show                        # Show current configuration
  umi am show --format yaml          # Show configuration as YAML
  umi am get wildcards.dir           # Get one value
  umi am set generation.max_passes 30
  umi am validate                    # Validate current configuration`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display the effective umi configuration merged from all sources",
	RunE:  runAmShow,
}

var amGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  "Get a specific configuration value using dot notation (e.g., wildcards.dir, server.port)",
	Args:  cobra.ExactArgs(1),
	RunE:  runAmGet,
}

var amSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a value in ~/.umi/am.toml",
	Long:  "Write one setting into the user config file. The previous file is kept as a rotating backup.",
	Args:  cobra.ExactArgs(2),
	RunE:  runAmSet,
}

var amValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	RunE:  runAmValidate,
}

var amWhereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show where configuration is loaded from",
	Long: `Show the configuration cascade and which source supplied each setting.

Lists all configuration sources in order of precedence.`,
	RunE: runAmWhere,
}

var configFormat string

func init() {
	amShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")

	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amGetCmd)
	AmCmd.AddCommand(amSetCmd)
	AmCmd.AddCommand(amValidateCmd)
	AmCmd.AddCommand(amWhereCmd)
}

func runAmShow(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	out := cmd.OutOrStdout()

	switch configFormat {
	case "json":
		return display.OutputJSON(out, cfg)

	case "yaml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to YAML")
		}
		fmt.Fprintf(out, "# umi configuration\n%s", string(data))

	case "toml":
		data, err := toml.Marshal(cfg)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to TOML")
		}
		fmt.Fprintf(out, "# umi configuration\n%s", string(data))

	default:
		return errors.Newf("unsupported format: %s (supported: toml, json, yaml)", configFormat)
	}
	return nil
}

func runAmGet(cmd *cobra.Command, args []string) error {
	key := args[0]
	if !am.GetViper().IsSet(key) {
		return errors.Newf("configuration key %q not found", key)
	}
	fmt.Fprintln(cmd.OutOrStdout(), am.Get(key))
	return nil
}

func runAmSet(cmd *cobra.Command, args []string) error {
	key, raw := args[0], args[1]
	if err := am.SetUserValue(key, parseValue(raw)); err != nil {
		return errors.Wrapf(err, "failed to set %s", key)
	}
	am.Reset()
	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s = %s (in %s)\n", key, raw, am.UserConfigPath())
	return nil
}

// parseValue keeps TOML types for booleans and numbers typed on the command line.
func parseValue(raw string) interface{} {
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

func runAmValidate(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "configuration validation failed")
	}
	fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration is valid")
	return nil
}

func runAmWhere(cmd *cobra.Command, args []string) error {
	intro, err := am.GetConfigIntrospection()
	if err != nil {
		return errors.Wrap(err, "failed to get config introspection")
	}
	out := cmd.OutOrStdout()

	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(out, intro)
	}

	fmt.Fprintln(out, "Configuration cascade (later overrides earlier):")
	fmt.Fprintln(out, "  1. [DEFAULT]  Built-in defaults")
	fmt.Fprintln(out, "  2. [SYSTEM]   /etc/umi/config.toml")
	fmt.Fprintln(out, "  3. [USER]     ~/.umi/am.toml")
	fmt.Fprintln(out, "  4. [PROJECT]  ./am.toml (searches up directories)")
	fmt.Fprintln(out, "  5. [ENV]      UMI_* environment variables")
	fmt.Fprintln(out)

	type group struct {
		path     string
		settings []am.SettingInfo
	}
	bySource := make(map[am.ConfigSource]map[string]*group)
	for _, s := range intro.Settings {
		if bySource[s.Source] == nil {
			bySource[s.Source] = make(map[string]*group)
		}
		g, ok := bySource[s.Source][s.SourcePath]
		if !ok {
			g = &group{path: s.SourcePath}
			bySource[s.Source][s.SourcePath] = g
		}
		g.settings = append(g.settings, s)
	}

	fmt.Fprintln(out, "Active configuration:")
	for _, source := range []am.ConfigSource{am.SourceDefault, am.SourceSystem, am.SourceUser, am.SourceProject, am.SourceEnvironment} {
		paths := make([]string, 0, len(bySource[source]))
		for p := range bySource[source] {
			paths = append(paths, p)
		}
		sort.Strings(paths)

		for _, p := range paths {
			g := bySource[source][p]
			switch {
			case source == am.SourceEnvironment:
				fmt.Fprintf(out, "\n%s: %d settings from environment variables\n", source, len(g.settings))
			case g.path != "":
				fmt.Fprintf(out, "\n%s: %d settings from %s\n", source, len(g.settings), g.path)
			default:
				fmt.Fprintf(out, "\n%s: %d settings\n", source, len(g.settings))
			}
			for _, s := range g.settings {
				value := fmt.Sprintf("%v", s.Value)
				if len(value) > 50 {
					value = value[:47] + "..."
				}
				fmt.Fprintf(out, "  %s = %s\n", s.Key, value)
			}
		}
	}
	return nil
}
