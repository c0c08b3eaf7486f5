package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/fuzzykea/am"
	"github.com/teranos/fuzzykea/display"
	"github.com/teranos/fuzzykea/errors"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: "Manage fuzzyKEA configuration",
	Long: `am - Manage fuzzyKEA configuration ("I am")

Display and manage configuration settings.

Configuration sources (in order of precedence):
1. Command line flags
2. Environment variables (FUZZYKEA_* prefix)
3. Project config (fuzzykea.toml or am.toml, searched upward from ./)
4. User config (~/.fuzzykea/am.toml)
5. System config (/etc/fuzzykea/am.toml)
6. Default values

Examples:
  fuzzykea am show                    # Show current configuration
  fuzzykea am show --format json      # Show configuration in JSON format
  fuzzykea am get analysis.tolerance  # Get specific config value
  fuzzykea am set analysis.test chi2  # Persist a value in the user config
  fuzzykea am where                   # Show where each value comes from
  fuzzykea am validate                # Validate current configuration`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display the merged configuration from all sources",
	RunE:  runAmShow,
}

var amGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  "Get a specific configuration value using dot notation (e.g., analysis.tolerance, server.port)",
	Args:  cobra.ExactArgs(1),
	RunE:  runAmGet,
}

var amSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value in the user config file",
	Long: `Write a value into ~/.fuzzykea/am.toml. The value is converted to the
key's type and the resulting configuration must validate; a backup of
the previous file is kept.`,
	Args: cobra.ExactArgs(2),
	RunE: runAmSet,
}

var amValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	RunE:  runAmValidate,
}

var amWhereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show where configuration is loaded from",
	Long:  "List every setting with its value and the source it was read from",
	RunE:  runAmWhere,
}

var configFormat string

func init() {
	amShowCmd.Flags().StringVar(&configFormat, "format", am.FormatTOML, "Output format: toml, json, yaml")

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
	format := configFormat
	if display.ShouldOutputJSON(cmd) {
		format = am.FormatJSON
	}
	return am.Render(cmd.OutOrStdout(), cfg, format)
}

func runAmGet(cmd *cobra.Command, args []string) error {
	key := args[0]
	if _, err := am.Load(); err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if !am.GetViper().IsSet(key) {
		return errors.WithHint(
			errors.NewNotFoundError("configuration key %q not found", key),
			"run 'fuzzykea am show' to list keys")
	}
	fmt.Fprintln(cmd.OutOrStdout(), am.Get(key))
	return nil
}

func runAmSet(cmd *cobra.Command, args []string) error {
	if err := am.SetValue(args[0], args[1]); err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), pterm.Success.Sprintf("Set %s = %s in %s\n", args[0], args[1], am.UserConfigPath()))
	return nil
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
	info, err := am.GetConfigIntrospection()
	if err != nil {
		return err
	}
	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(cmd.OutOrStdout(), info)
	}

	w := cmd.OutOrStdout()
	if info.ConfigFile == "" {
		fmt.Fprintln(w, "No config file found; using defaults and environment")
	} else {
		fmt.Fprintf(w, "Active config file: %s\n", info.ConfigFile)
	}
	data := pterm.TableData{{"KEY", "VALUE", "SOURCE"}}
	for _, s := range info.Settings {
		data = append(data, []string{s.Key, fmt.Sprint(s.Value), string(s.Source)})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, table)
	return nil
}
