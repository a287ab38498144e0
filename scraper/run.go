package scraper

import (
	"context"
	"log/slog"

	"github.com/pantry-tools/cubscrape/browser"
	"github.com/pantry-tools/cubscrape/config"
	"github.com/pantry-tools/cubscrape/models"
	"github.com/pantry-tools/cubscrape/parse"
	"github.com/pantry-tools/cubscrape/session"
	"github.com/pantry-tools/cubscrape/store"
)

// Runner composes the session controller, the navigator, the parsers
// and the persistence gateway into one extraction run. Each component
// is an independent collaborator passed in by the caller.
type Runner struct {
	drv       browser.Driver
	auth      *session.Controller
	nav       *Navigator
	gateway   *store.Gateway
	storeCfg  config.StoreConfig
	maxOrders int
}

func NewRunner(drv browser.Driver, auth *session.Controller, nav *Navigator, gateway *store.Gateway, storeCfg config.StoreConfig, maxOrders int) *Runner {
	return &Runner{
		drv:       drv,
		auth:      auth,
		nav:       nav,
		gateway:   gateway,
		storeCfg:  storeCfg,
		maxOrders: maxOrders,
	}
}

// Run executes the full extraction: authenticate, enumerate order
// summaries, and for each order (up to the configured cap) persist the
// order, drill into its detail view for line items, and return to the
// list. A failure on one order never aborts the remaining ones; login
// failure aborts the run before any extraction.
func (r *Runner) Run(ctx context.Context) (models.RunSummary, error) {
	var summary models.RunSummary

	if err := r.auth.Authenticate(ctx); err != nil {
		return summary, err
	}
	if err := r.auth.RequireAuth(); err != nil {
		return summary, err
	}

	if err := r.nav.OpenOrders(ctx); err != nil {
		return summary, err
	}
	markup, err := r.nav.ListHTML(ctx)
	if err != nil {
		return summary, err
	}

	orders, skippedCards, err := parse.ParseOrderSummaries(markup)
	if err != nil {
		return summary, err
	}
	summary.OrdersSkipped += skippedCards
	if len(orders) == 0 {
		slog.Warn("no order sections found on the order list")
		return summary, nil
	}

	// The store identity is resolved once per run and reused for every
	// order.
	st, err := r.gateway.UpsertStore(ctx, models.Store{
		Name:      r.storeCfg.Name,
		Location:  orders[0].Location,
		StoreType: r.storeCfg.StoreType,
	})
	if err != nil {
		return summary, err
	}

	visits := r.maxOrders
	if len(orders) < visits {
		visits = len(orders)
	}
	for i := 0; i < visits; i++ {
		slog.Info("processing order",
			"position", i+1,
			"of", visits,
			"order_number", orders[i].OrderNumber,
		)
		saved, items := r.processOrder(ctx, st.ID, orders[i])
		if saved {
			summary.OrdersProcessed++
			summary.ItemsSaved += items
		} else {
			summary.OrdersSkipped++
		}
	}

	slog.Info("extraction complete",
		"processed", summary.OrdersProcessed,
		"skipped", summary.OrdersSkipped,
		"items", summary.ItemsSaved,
	)
	return summary, nil
}

// processOrder persists one order and, when its detail view is
// reachable, its line items. The detail view is addressed by the
// card's position in the rendered list, not its position among the
// parsed summaries, so skipped malformed cards cannot shift which
// entry gets clicked. Failures are contained to this order.
func (r *Runner) processOrder(ctx context.Context, storeID int64, fields parse.OrderFields) (saved bool, itemCount int) {
	order := models.Order{
		StoreID:     storeID,
		OrderNumber: fields.OrderNumber,
		OrderDate:   fields.OrderDate,
		OrderType:   fields.OrderType,
		TotalPrice:  fields.TotalPrice,
		Location:    fields.Location,
		ItemCount:   fields.ItemCount,
	}

	// nil means "detail pass did not happen": the gateway then leaves
	// any previously stored items untouched.
	var items []models.OrderItem

	if err := r.nav.OpenDetail(ctx, fields.ListIndex); err != nil {
		slog.Warn("could not open order detail, saving summary only",
			"order_number", order.OrderNumber,
			"error", err,
		)
	} else {
		items = r.extractItems(ctx, order.OrderNumber)
		if err := r.nav.ReturnToList(ctx); err != nil {
			slog.Error("failed to return to the order list",
				"order_number", order.OrderNumber,
				"error", err,
			)
		}
	}

	persisted, err := r.gateway.SaveOrder(ctx, order, items)
	if err != nil {
		slog.Error("order not saved",
			"order_number", order.OrderNumber,
			"error", err,
		)
		return false, 0
	}

	slog.Info("order saved",
		"order_number", persisted.OrderNumber,
		"order_date", persisted.OrderDate,
		"order_type", persisted.OrderType,
		"total", persisted.TotalPrice,
		"items", len(items),
	)
	return true, len(items)
}

// extractItems parses the line items off the current detail page.
// A nil return means the page could not be read at all.
func (r *Runner) extractItems(ctx context.Context, orderNumber string) []models.OrderItem {
	markup, err := r.nav.DetailHTML(ctx)
	if err != nil {
		slog.Warn("could not read detail page", "order_number", orderNumber, "error", err)
		return nil
	}

	// The list can re-render between visits; items from the wrong
	// detail page are worse than no items at all.
	if got := parse.DetailOrderNumber(markup); got != orderNumber {
		slog.Warn("detail page shows a different order, not attaching its items",
			"expected", orderNumber,
			"got", got,
		)
		return nil
	}

	rows, err := parse.ParseOrderItems(markup)
	if err != nil {
		slog.Warn("detail page not parseable", "order_number", orderNumber, "error", err)
		return nil
	}

	items := make([]models.OrderItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, models.OrderItem{
			ProductName:   row.ProductName,
			Quantity:      row.Quantity,
			UnitPrice:     row.UnitPrice,
			ProductTotal:  row.ProductTotal,
			UPC:           row.UPC,
			ProductNumber: row.ProductNumber,
		})
	}
	return items
}
