package cli

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/KANG-Hyeong-uk/coin/internal/format"
	"github.com/KANG-Hyeong-uk/coin/market"
	"github.com/KANG-Hyeong-uk/coin/market/indicators"
)

// Averages shown under a coin chart.
const (
	maPeriod  = 24
	emaPeriod = 12
)

func newCoinsCmd(rc *rootConfig) *cobra.Command {
	var seed int64

	cmd := &cobra.Command{
		Use:   "coins",
		Short: "Mock coin prices",
	}
	cmd.PersistentFlags().Int64Var(&seed, "seed", 0, "Random seed for the mock generator (0 = time based)")

	list := &cobra.Command{
		Use:   "list",
		Short: "Show the coin cards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printCoins(cmd.OutOrStdout(), market.NewGenerator(seed).Coins())
			return nil
		},
	}

	var frame string
	show := &cobra.Command{
		Use:   "show <id|symbol>",
		Short: "Show ROI statistics and a chart for one coin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tf, err := market.ParseTimeFrame(frame)
			if err != nil {
				return err
			}
			gen := market.NewGenerator(seed)
			c, err := gen.Lookup(args[0])
			if err != nil {
				return fmt.Errorf("%w: %s", err, args[0])
			}
			printDetail(cmd.OutOrStdout(), gen.Detail(c), tf)
			return nil
		},
	}
	show.Flags().StringVar(&frame, "timeframe", string(market.TimeFrame24H), "Chart timeframe: 1H|24H|7D|1M|1Y")

	var (
		feedURL string
		limit   int
	)
	watch := &cobra.Command{
		Use:   "watch",
		Short: "Stream live mock prices from a running `coinfolio serve`",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if feedURL == "" {
				u, err := priceFeedURL(rc.cfg.Journal.BaseURL)
				if err != nil {
					return err
				}
				feedURL = u
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return watchPrices(ctx, cmd.OutOrStdout(), feedURL, limit)
		},
	}
	watch.Flags().StringVar(&feedURL, "url", "", "Price feed URL (default: derived from journal.base_url)")
	watch.Flags().IntVar(&limit, "limit", 0, "Stop after this many updates (0 = until interrupted)")

	cmd.AddCommand(list, show, watch)
	return cmd
}

func watchPrices(ctx context.Context, w io.Writer, url string, limit int) error {
	feed, err := market.Dial(ctx, url)
	if err != nil {
		return err
	}
	defer feed.Close()

	n := 0
	for c := range feed.Updates() {
		fmt.Fprintf(w, "%s  %-6s %16s  %s\n",
			time.Now().Format("15:04:05"), c.Symbol, format.USD(c.CurrentPrice), format.Percent(c.PriceChangePercentage24h))
		n++
		if limit > 0 && n >= limit {
			return nil
		}
	}
	return feed.Err()
}

func printCoins(w io.Writer, coins []market.Coin) {
	fmt.Fprintf(w, "%-10s %-6s %16s %14s %9s  %s\n", "ID", "SYMBOL", "PRICE", "24H", "24H %", "24H CHART")
	for _, c := range coins {
		fmt.Fprintf(w, "%-10s %-6s %16s %14s %9s  %s\n",
			c.ID, c.Symbol,
			format.USD(c.CurrentPrice),
			format.USD(c.PriceChange24h),
			format.Percent(c.PriceChangePercentage24h),
			format.Sparkline(market.Prices(c.Chart), 24),
		)
	}
}

func printDetail(w io.Writer, d market.CoinDetail, tf market.TimeFrame) {
	roi := d.ROI
	pts := d.Charts[tf]

	fmt.Fprintln(w, "==================================================")
	fmt.Fprintf(w, " %s %s (%s)\n", d.Logo, d.Name, d.Symbol)
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintf(w, "Price:         %s (%s)\n", format.USD(d.CurrentPrice), format.Percent(d.PriceChangePercentage24h))

	fmt.Fprintln(w)
	fmt.Fprintln(w, "ROI")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Max:           %s %s on %s\n", format.Percent(roi.Max.Percentage), format.USD(roi.Max.Amount), roi.Max.Date)
	fmt.Fprintf(w, "Min:           %s %s on %s\n", format.Percent(roi.Min.Percentage), format.USD(roi.Min.Amount), roi.Min.Date)
	fmt.Fprintf(w, "Average:       %s\n", format.Percent(roi.Average))
	fmt.Fprintf(w, "Invested:      %s\n", format.USD(roi.TotalInvestment))
	fmt.Fprintf(w, "Value:         %s\n", format.USD(roi.CurrentValue))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Chart (%s, %d points)\n", tf, len(pts))
	fmt.Fprintln(w, "--------------------------------------------------")
	if len(pts) > 0 {
		prices := market.Prices(pts)
		sum := indicators.Summarize(prices, maPeriod, emaPeriod)
		fmt.Fprintf(w, "From:          %s\n", pts[0].Time.Format(time.RFC3339))
		fmt.Fprintf(w, "To:            %s\n", pts[len(pts)-1].Time.Format(time.RFC3339))
		fmt.Fprintf(w, "Low / High:    %s / %s\n", format.USD(sum.Low), format.USD(sum.High))
		fmt.Fprintf(w, "%-15s%s\n", fmt.Sprintf("MA(%d):", sum.MAPeriod), format.USD(sum.MA))
		fmt.Fprintf(w, "%-15s%s\n", fmt.Sprintf("EMA(%d):", sum.EMAPeriod), format.USD(sum.EMA))
		fmt.Fprintf(w, "Volatility:    %.2f%% per step\n", sum.Volatility)
		fmt.Fprintf(w, "Trend:         %s\n", format.Sparkline(prices, 40))
	}
}
