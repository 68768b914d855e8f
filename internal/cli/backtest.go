package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/KANG-Hyeong-uk/coin/backtest"
	"github.com/KANG-Hyeong-uk/coin/internal/format"
)

func newBacktestCmd(rc *rootConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Run backtests on the remote backtest service",
	}
	cmd.AddCommand(newBacktestRunCmd(rc), newBacktestMarketsCmd())
	return cmd
}

func newBacktestRunCmd(rc *rootConfig) *cobra.Command {
	var (
		market    string
		days      int
		capital   float64
		useAPI    bool
		chartPath string
		orgPath   string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Post one backtest and print the result",
		Long: `Send a backtest request to the service configured under backtest.base_url
and print the performance summary.

Examples:
  coinfolio backtest run --market KRW-ETH --days 365
  coinfolio backtest run --capital 50000000 --chart eth.png --org runs.org`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sim := backtest.NewSimulator(rc.backtestClient(), rc.logger)
			if !sim.SetMarket(market) {
				return fmt.Errorf("unknown market %q (see: coinfolio backtest markets)", market)
			}
			sim.SetDays(days)
			sim.SetCapital(capital)
			sim.SetUseAPI(useAPI)

			fmt.Fprintf(cmd.ErrOrStderr(), "Running backtest on %s over %d days...\n", market, days)
			if err := sim.Run(cmd.Context()); err != nil {
				return errors.New(sim.Snapshot().Err)
			}
			res := sim.Snapshot().Result

			backtest.PrintResult(cmd.OutOrStdout(), res)

			if chartPath != "" {
				if err := res.SaveChart(chartPath); err != nil {
					return fmt.Errorf("save chart: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Chart written to %s\n", chartPath)
			}
			if orgPath != "" {
				if err := appendOrg(orgPath, res, chartPath); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Org entry appended to %s\n", orgPath)
			}
			return nil
		},
	}

	def := backtest.DefaultRequest()
	cmd.Flags().StringVar(&market, "market", def.Market, "Market code, e.g. KRW-BTC")
	cmd.Flags().IntVar(&days, "days", def.Days, fmt.Sprintf("Days of history (%d-%d)", backtest.MinDays, backtest.MaxDays))
	cmd.Flags().Float64Var(&capital, "capital", def.InitialCapital, "Initial capital in KRW")
	cmd.Flags().BoolVar(&useAPI, "use-api", def.UseAPI, "Fetch live exchange data instead of the cached dataset")
	cmd.Flags().StringVar(&chartPath, "chart", "", "Write the result chart PNG to this path")
	cmd.Flags().StringVar(&orgPath, "org", "", "Append an org-mode entry to this file")
	return cmd
}

func appendOrg(path string, res *backtest.Result, chartPath string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open org file: %w", err)
	}
	defer f.Close()

	if err := backtest.WriteOrg(f, res, time.Now(), chartPath); err != nil {
		return fmt.Errorf("write org entry: %w", err)
	}
	return nil
}

func newBacktestMarketsCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "markets",
		Short:       "List markets the backtest service offers",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfig: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			for _, m := range backtest.Markets {
				fmt.Fprintf(w, "%-9s %s\n", m.Code, m.Name)
			}
			fmt.Fprintf(w, "\nDays: %d-%d   Minimum capital: %s\n",
				backtest.MinDays, backtest.MaxDays, format.KRW(backtest.MinCapital))
		},
	}
}
