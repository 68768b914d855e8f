package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/KANG-Hyeong-uk/coin/internal/format"
	"github.com/KANG-Hyeong-uk/coin/journal"
)

func newJournalCmd(rc *rootConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Record and query trades in the journal service",
		Long: `Work with the trade journal service configured under journal.base_url.

Examples:
  coinfolio journal list
  coinfolio journal add --market KRW-BTC --action buy --quantity 0.1 --price 50000000
  coinfolio journal edit <trade-id> --price 51000000
  coinfolio journal rm <trade-id>
  coinfolio journal export --format org --from 2024-01-01`,
	}

	cmd.AddCommand(
		newJournalListCmd(rc),
		newJournalStatsCmd(rc),
		newJournalAddCmd(rc),
		newJournalEditCmd(rc),
		newJournalRmCmd(rc),
		newJournalExportCmd(rc),
	)
	return cmd
}

// loadedController returns a controller that has completed one Load.
func loadedController(ctx context.Context, rc *rootConfig) (*journal.Controller, error) {
	ctrl := journal.NewController(rc.journalClient(), rc.logger)
	if err := ctrl.Load(ctx); err != nil {
		return nil, errors.New(ctrl.Snapshot().Err)
	}
	return ctrl, nil
}

func newJournalListCmd(rc *rootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List trades, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := loadedController(cmd.Context(), rc)
			if err != nil {
				return err
			}
			printTrades(cmd.OutOrStdout(), ctrl.Snapshot().Trades)
			return nil
		},
	}
}

func newJournalStatsCmd(rc *rootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show journal statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := loadedController(cmd.Context(), rc)
			if err != nil {
				return err
			}
			printStats(cmd.OutOrStdout(), ctrl.Snapshot().Stats)
			return nil
		},
	}
}

// tradeFlags binds the editable trade fields to command flags.
type tradeFlags struct {
	market     string
	action     string
	quantity   float64
	price      float64
	date       string
	notes      string
	returnRate float64
}

func (f *tradeFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.market, "market", "KRW-BTC", "Market code")
	cmd.Flags().StringVar(&f.action, "action", string(journal.Buy), "buy or sell")
	cmd.Flags().Float64Var(&f.quantity, "quantity", 0, "Quantity traded")
	cmd.Flags().Float64Var(&f.price, "price", 0, "Price per unit (KRW)")
	cmd.Flags().StringVar(&f.date, "date", "", "Trade date YYYY-MM-DD or RFC3339 (default: now)")
	cmd.Flags().StringVar(&f.notes, "notes", "", "Free-form notes")
	cmd.Flags().Float64Var(&f.returnRate, "return", 0, "Return rate in percent")
}

// apply copies every flag the user set onto in.
func (f *tradeFlags) apply(cmd *cobra.Command, in *journal.TradeInput) error {
	changed := cmd.Flags().Changed
	if changed("market") {
		in.Market = strings.ToUpper(strings.TrimSpace(f.market))
	}
	if changed("action") {
		a, err := journal.ParseAction(f.action)
		if err != nil {
			return err
		}
		in.Action = a
	}
	if changed("quantity") {
		in.Quantity = f.quantity
	}
	if changed("price") {
		in.Price = f.price
	}
	if changed("date") {
		t, err := parseTradeDate(f.date)
		if err != nil {
			return err
		}
		in.TradeDate = t
	}
	if changed("notes") {
		in.Notes = f.notes
	}
	if changed("return") {
		r := f.returnRate
		in.ReturnRate = &r
	}
	return nil
}

func parseTradeDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return parseDay(s)
}

func newJournalAddCmd(rc *rootConfig) *cobra.Command {
	var f tradeFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a trade",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := journal.TradeInput{
				Market:    f.market,
				Action:    journal.Action(f.action),
				TradeDate: time.Now(),
			}
			if err := f.apply(cmd, &in); err != nil {
				return err
			}

			ctrl := journal.NewController(rc.journalClient(), rc.logger)
			return submit(cmd, ctrl, in)
		},
	}
	f.bind(cmd)
	return cmd
}

func newJournalEditCmd(rc *rootConfig) *cobra.Command {
	var f tradeFlags

	cmd := &cobra.Command{
		Use:   "edit <trade-id>",
		Short: "Change fields of a recorded trade",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := loadedController(cmd.Context(), rc)
			if err != nil {
				return err
			}

			t, ok := findTrade(ctrl.Snapshot().Trades, args[0])
			if !ok {
				return fmt.Errorf("%w: %s", journal.ErrNotFound, args[0])
			}
			in := t.Input()
			if err := f.apply(cmd, &in); err != nil {
				return err
			}

			ctrl.Edit(t)
			return submit(cmd, ctrl, in)
		},
	}
	f.bind(cmd)
	return cmd
}

func newJournalRmCmd(rc *rootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <trade-id>",
		Short: "Delete a trade",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl := journal.NewController(rc.journalClient(), rc.logger)
			return report(cmd, ctrl, ctrl.Delete(cmd.Context(), args[0]))
		},
	}
}

func newJournalExportCmd(rc *rootConfig) *cobra.Command {
	var (
		formatName string
		dbPath     string
		fromStr    string
		toStr      string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export trades as org-mode entries or CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, err := exportRange(fromStr, toStr)
			if err != nil {
				return err
			}

			var trades []journal.Trade
			if dbPath != "" {
				j, err := journal.NewSQLite(dbPath)
				if err != nil {
					return fmt.Errorf("open db: %w", err)
				}
				defer j.Close()
				trades, err = j.ListTradesBetween(cmd.Context(), from, to)
				if err != nil {
					return fmt.Errorf("query trades: %w", err)
				}
			} else {
				all, err := rc.journalClient().ListTrades(cmd.Context())
				if err != nil {
					return err
				}
				trades = filterBetween(all, from, to)
			}

			w := cmd.OutOrStdout()
			switch strings.ToLower(formatName) {
			case "org":
				fmt.Fprintln(w, journal.FormatTradesOrg(trades))
				return nil
			case "csv":
				return journal.WriteCSV(w, trades)
			default:
				return fmt.Errorf("unknown format %q (want org or csv)", formatName)
			}
		},
	}

	cmd.Flags().StringVar(&formatName, "format", "org", "Output format: org|csv")
	cmd.Flags().StringVar(&dbPath, "db", "", "Read a local SQLite journal instead of the service")
	cmd.Flags().StringVar(&fromStr, "from", "", "First day to include (YYYY-MM-DD)")
	cmd.Flags().StringVar(&toStr, "to", "", "Last day to include (YYYY-MM-DD)")
	return cmd
}

// exportRange turns optional day bounds into a half-open [from, to) range.
// Missing bounds are open ended.
func exportRange(fromStr, toStr string) (time.Time, time.Time, error) {
	from := time.Unix(0, 0)
	to := time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)

	if fromStr != "" {
		t, err := parseDay(fromStr)
		if err != nil {
			return from, to, err
		}
		from = t
	}
	if toStr != "" {
		t, err := parseDay(toStr)
		if err != nil {
			return from, to, err
		}
		to = t.AddDate(0, 0, 1)
	}
	if !from.Before(to) {
		return from, to, fmt.Errorf("--from must not be after --to")
	}
	return from, to, nil
}

func filterBetween(trades []journal.Trade, from, to time.Time) []journal.Trade {
	out := make([]journal.Trade, 0, len(trades))
	for _, t := range trades {
		if !t.TradeDate.Before(from) && t.TradeDate.Before(to) {
			out = append(out, t)
		}
	}
	return out
}

func submit(cmd *cobra.Command, ctrl *journal.Controller, in journal.TradeInput) error {
	return report(cmd, ctrl, ctrl.Submit(cmd.Context(), in))
}

// report prints the outcome of a mutation. A mutation that succeeded but
// whose reload failed is reported as done, with the load error as a
// warning.
func report(cmd *cobra.Command, ctrl *journal.Controller, err error) error {
	st := ctrl.Snapshot()
	if err != nil && st.Success == "" {
		return errors.New(st.Err)
	}
	if err != nil {
		// the mutation went through; only the reload failed
		fmt.Fprintln(cmd.ErrOrStderr(), "warning:", st.Err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "✓", st.Success)
	return nil
}

func findTrade(trades []journal.Trade, tradeID string) (journal.Trade, bool) {
	for _, t := range trades {
		if t.ID == tradeID {
			return t, true
		}
	}
	return journal.Trade{}, false
}

func printTrades(w io.Writer, trades []journal.Trade) {
	if len(trades) == 0 {
		fmt.Fprintln(w, "No trades recorded.")
		return
	}
	fmt.Fprintf(w, "%-26s %-16s %-9s %-4s %14s %16s %9s  %s\n",
		"ID", "DATE", "MARKET", "SIDE", "QUANTITY", "PRICE", "RETURN", "NOTES")
	for _, t := range trades {
		ret := "-"
		if t.ReturnRate != nil {
			ret = format.Percent(*t.ReturnRate)
		}
		fmt.Fprintf(w, "%-26s %-16s %-9s %-4s %14s %16s %9s  %s\n",
			t.ID,
			t.TradeDate.Local().Format("2006-01-02 15:04"),
			t.Market,
			strings.ToUpper(string(t.Action)),
			format.Number(t.Quantity, 4),
			format.KRW(t.Price),
			ret,
			t.Notes,
		)
	}
}

func printStats(w io.Writer, s journal.Statistics) {
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Buys:          %d\n", s.TotalBuyCount)
	fmt.Fprintf(w, "Sells:         %d\n", s.TotalSellCount)
	fmt.Fprintf(w, "Avg Buy:       %s\n", format.Percent(s.AverageBuyReturn))
	fmt.Fprintf(w, "Avg Sell:      %s\n", format.Percent(s.AverageSellReturn))
	fmt.Fprintf(w, "Avg Total:     %s\n", format.Percent(s.AverageTotalReturn))
}
