package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KANG-Hyeong-uk/coin/backtest"
	"github.com/KANG-Hyeong-uk/coin/internal/logging"
	"github.com/KANG-Hyeong-uk/coin/journal"
	"github.com/KANG-Hyeong-uk/coin/market"
	"github.com/KANG-Hyeong-uk/coin/tui"
)

func newDashCmd(rc *rootConfig) *cobra.Command {
	var (
		live bool
		seed int64
	)

	cmd := &cobra.Command{
		Use:   "dash",
		Short: "Open the interactive dashboard",
		Long: `Open the terminal dashboard: coin cards, the trade journal and the
backtest simulator.

Logs go to log.file when it is set and are discarded otherwise, since the
dashboard takes over the terminal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := zap.NewNop()
			if rc.cfg.Log.File != "" {
				l, err := logging.New(rc.cfg.Log)
				if err != nil {
					return err
				}
				logger = l
			}
			rc.logger = logger

			var feed *market.Feed
			if live {
				url, err := priceFeedURL(rc.cfg.Journal.BaseURL)
				if err != nil {
					return err
				}
				feed, err = market.Dial(cmd.Context(), url)
				if err != nil {
					return err
				}
				defer feed.Close()
			}

			m := tui.New(tui.Options{
				Generator: market.NewGenerator(seed),
				Feed:      feed,
				Journal:   journal.NewController(rc.journalClient(), logger),
				Simulator: backtest.NewSimulator(rc.backtestClient(), logger),
			})

			_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}

	cmd.Flags().BoolVar(&live, "live", false, "Stream prices from the journal host's /ws/prices instead of simulating locally")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Seed for the mock data generator (0 = time based)")
	return cmd
}
