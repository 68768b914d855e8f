package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KANG-Hyeong-uk/coin/backtest"
	"github.com/KANG-Hyeong-uk/coin/config"
	"github.com/KANG-Hyeong-uk/coin/internal/logging"
	"github.com/KANG-Hyeong-uk/coin/journal"
)

// Version is stamped at build time with -ldflags "-X ...cli.Version=...".
var Version = "dev"

// skipConfig marks commands that must run without a loadable config.
const skipConfig = "skip-config"

// rootConfig is shared by every subcommand.
type rootConfig struct {
	ConfigPath string
	EnvFile    string
	LogLevel   string

	cfg    *config.Config
	logger *zap.Logger
}

func (rc *rootConfig) journalClient() *journal.Client {
	return journal.NewClient(rc.cfg.Journal.BaseURL,
		journal.WithUpdateMethod(rc.cfg.Journal.UpdateMethod),
		journal.WithLogger(rc.logger),
		journal.WithHTTPClient(httpClient(rc.cfg.Journal.Timeout)),
	)
}

func (rc *rootConfig) backtestClient() *backtest.Client {
	return backtest.NewClient(rc.cfg.Backtest.BaseURL,
		backtest.WithLogger(rc.logger),
		backtest.WithHTTPClient(httpClient(rc.cfg.Backtest.Timeout)),
	)
}

func NewRootCmd() *cobra.Command {
	rc := &rootConfig{}

	cmd := &cobra.Command{
		Use:           "coinfolio",
		Short:         "coinfolio: crypto dashboard, trade journal and backtest client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global / persistent flags
	cmd.PersistentFlags().StringVar(&rc.ConfigPath, "config", "", "Path to config file (YAML or JSON, optional)")
	cmd.PersistentFlags().StringVar(&rc.EnvFile, "env-file", ".env", "Env file with COIN_ overrides (ignored when missing)")
	cmd.PersistentFlags().StringVar(&rc.LogLevel, "log-level", "", "Log level override: debug|info|warn|error")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if cmd.Annotations[skipConfig] != "" {
			rc.logger = zap.NewNop()
			return nil
		}

		cfg, err := config.Load(rc.ConfigPath, rc.EnvFile)
		if err != nil {
			return err
		}
		if rc.LogLevel != "" {
			cfg.Log.Level = rc.LogLevel
		}
		rc.cfg = cfg

		// The dashboard owns the terminal; it builds its own logger.
		if cmd.Name() == "dash" {
			return nil
		}
		rc.logger, err = logging.New(cfg.Log)
		return err
	}
	cmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if rc.logger != nil {
			_ = rc.logger.Sync()
		}
	}

	// Subcommands
	cmd.AddCommand(
		newCoinsCmd(rc),
		newJournalCmd(rc),
		newBacktestCmd(rc),
		newServeCmd(rc),
		newDashCmd(rc),
		newConfigCmd(rc),
	)

	cmd.AddCommand(&cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Annotations: map[string]string{skipConfig: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "coinfolio %s\n", Version)
		},
	})

	return cmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
