package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/4thel00z/highlights/internal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func NewConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the configuration",
		Long: `Show the effective configuration of the current scope. The project
scope is the nearest .highlights directory above the working directory,
the global scope lives in the XDG config home.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := a.load(cmd)
			if err != nil {
				return err
			}

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"scope":  e.scope.Type,
					"path":   e.scope.ConfigPath(),
					"config": e.cfg,
				})
			}

			data, err := yaml.Marshal(e.cfg)
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# %s scope: %s\n%s", e.scope.Type, e.scope.ConfigPath(), data)
			return nil
		},
	}

	cmd.AddCommand(newConfigSetCmd(a), newConfigKeysCmd())
	return cmd
}

func newConfigSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set one configuration value in the current scope and save it.
Use colors.<name> to add a named color, e.g. "hl config set colors.salmon #fa8072".`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			scopeHint, _ := cmd.Flags().GetString("scope")
			scope := a.resolver.Resolve(scopeHint)

			cfg, err := internal.LoadConfig(scope)
			if err != nil {
				return err
			}
			if err := cfg.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := internal.SaveConfig(scope, cfg); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s (%s)\n", args[0], args[1], scope.ConfigPath())
			return nil
		},
	}
}

func newConfigKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List the configuration keys accepted by set",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(internal.ConfigKeys(), "\n"))
			fmt.Fprintln(cmd.OutOrStdout(), "colors.<name>")
		},
	}
}
