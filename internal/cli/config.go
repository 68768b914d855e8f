package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KANG-Hyeong-uk/coin/config"
)

func newConfigCmd(rc *rootConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create and check configuration files",
	}
	cmd.AddCommand(newConfigInitCmd(), newConfigValidateCmd(), newConfigShowCmd(rc))
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a config file with default values",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Default().SaveToFile(out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "coinfolio.yaml", "Destination (.yaml, .yml or .json)")
	return cmd
}

func newConfigValidateCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:         "validate",
		Short:       "Check a config file without applying environment overrides",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFromFile(file)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", file)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "coinfolio.yaml", "Config file to check")
	return cmd
}

// newConfigShowCmd prints the effective configuration after file, .env and
// environment overrides.
func newConfigShowCmd(rc *rootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := rc.cfg
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "journal.base_url:      %s\n", c.Journal.BaseURL)
			fmt.Fprintf(w, "journal.update_method: %s\n", c.Journal.UpdateMethod)
			fmt.Fprintf(w, "journal.timeout:       %s\n", c.Journal.Timeout)
			fmt.Fprintf(w, "backtest.base_url:     %s\n", c.Backtest.BaseURL)
			fmt.Fprintf(w, "backtest.timeout:      %s\n", c.Backtest.Timeout)
			fmt.Fprintf(w, "server.addr:           %s\n", c.Server.Addr)
			fmt.Fprintf(w, "server.db_path:        %s\n", c.Server.DBPath)
			fmt.Fprintf(w, "log.level:             %s\n", c.Log.Level)
			return nil
		},
	}
}
