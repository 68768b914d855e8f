package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/KANG-Hyeong-uk/coin/internal/cache"
	"github.com/KANG-Hyeong-uk/coin/internal/logging"
	"github.com/KANG-Hyeong-uk/coin/internal/server"
	"github.com/KANG-Hyeong-uk/coin/journal"
	"github.com/KANG-Hyeong-uk/coin/market"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(rc *rootConfig) *cobra.Command {
	var (
		addr   string
		dbPath string
		seed   int64
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a local journal service backed by SQLite",
		Long: `Serve the journal REST API and the live price feed from one process.

The API is mounted under /api and matches what 'coinfolio journal' and the
dashboard expect, so a default configuration works against it unchanged.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rc.cfg.Server
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}
			if cmd.Flags().Changed("db") {
				cfg.DBPath = dbPath
			}
			logger := rc.logger

			store, err := journal.NewSQLite(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer store.Close()

			stats, err := cache.New(1<<10, cfg.CacheTTL)
			if err != nil {
				return fmt.Errorf("cache: %w", err)
			}
			defer stats.Close()

			gen := market.NewGenerator(seed)
			hub := server.NewPriceHub(market.NewBoard(gen.Coins()), gen, cfg.PriceInterval, logger)

			s := server.NewServer(store, stats, hub, logger, logging.Middleware(logger))
			srv := &http.Server{Addr: cfg.Addr, Handler: s.R}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				hub.Run(gctx)
				return nil
			})
			g.Go(func() error {
				logger.Info("http listening", zap.String("addr", cfg.Addr), zap.String("db", cfg.DBPath))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("http: %w", err)
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				ctxShut, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return srv.Shutdown(ctxShut)
			})

			err = g.Wait()
			logger.Info("shutdown complete")
			return err
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (overrides server.db_path)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Seed for the mock price generator (0 = time based)")
	return cmd
}
