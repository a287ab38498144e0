package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pantry-tools/cubscrape/browser"
	"github.com/pantry-tools/cubscrape/scraper"
	"github.com/pantry-tools/cubscrape/session"
	"github.com/pantry-tools/cubscrape/store"
)

func init() {
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Logs in, walks the order list and upserts orders and line items.",
	// Exit code is non-zero when secrets are missing or login fails;
	// cobra maps a returned error to exit 1.
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.ValidateCredentials(); err != nil {
			return err
		}

		db, err := store.Open(cfg.DB.Path)
		if err != nil {
			return err
		}
		defer db.Close()

		sess, err := browser.NewSession(cfg.Browser, cfg.Scrape.NavRatePerSecond)
		if err != nil {
			return err
		}
		defer sess.Close()

		ctx := context.Background()
		runner := scraper.NewRunner(
			sess,
			session.New(sess, cfg.Site, cfg.Scrape.LocatorTimeout),
			scraper.NewNavigator(sess, cfg.Scrape.LocatorTimeout),
			store.NewGateway(db),
			cfg.Store,
			cfg.Scrape.MaxOrders,
		)

		summary, err := runner.Run(ctx)
		if err != nil {
			return err
		}
		slog.Info("run finished",
			"orders_processed", summary.OrdersProcessed,
			"orders_skipped", summary.OrdersSkipped,
			"items_saved", summary.ItemsSaved,
		)
		return nil
	},
}
