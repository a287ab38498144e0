// Package scraper walks the authenticated order-history pages: it
// enumerates the order list, drills into each order's detail view up to
// a configured cap, and hands the markup to the parsers.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pantry-tools/cubscrape/browser"
	"github.com/pantry-tools/cubscrape/locator"
	"github.com/pantry-tools/cubscrape/models"
)

const ordersListSelector = "ul[data-testid='orders-list-testId']"

// Navigator moves between the order list and order detail views. The
// underlying page reloads on every transition, so the list is
// re-resolved each time instead of assuming index stability.
type Navigator struct {
	drv     browser.Driver
	timeout time.Duration
}

func NewNavigator(drv browser.Driver, locatorTimeout time.Duration) *Navigator {
	return &Navigator{drv: drv, timeout: locatorTimeout}
}

// OpenOrders navigates from anywhere on the authenticated site to the
// My Orders page and waits for the order list to render.
func (n *Navigator) OpenOrders(ctx context.Context) error {
	account, err := locator.Resolve(ctx, n.drv, n.timeout,
		locator.Strategy{Kind: locator.KindCSS, Selector: "#AccountHeaderButton"},
		locator.Strategy{Kind: locator.KindXPath, Selector: "//button[@id='AccountHeaderButton']"},
	)
	if err != nil {
		return navErr("account button not found", err)
	}
	if err := account.Click(); err != nil {
		return navErr("account button not clickable", err)
	}

	myOrders, err := locator.Resolve(ctx, n.drv, n.timeout,
		locator.Strategy{Kind: locator.KindXPath, Selector: "//a[text()='My Orders']"},
		locator.Strategy{Kind: locator.KindText, Selector: "My Orders"},
	)
	if err != nil {
		return navErr("My Orders link not found", err)
	}
	if err := myOrders.Click(); err != nil {
		return navErr("My Orders link not clickable", err)
	}

	if err := n.waitForList(ctx); err != nil {
		return err
	}
	slog.Info("order list opened")
	return nil
}

// ListHTML waits for the order list and returns the page markup.
func (n *Navigator) ListHTML(ctx context.Context) (string, error) {
	if err := n.waitForList(ctx); err != nil {
		return "", err
	}
	return n.drv.HTML(ctx)
}

// OpenDetail drills into the index-th order of the list (zero-based).
// The entry's anchor is re-resolved against the current page on every
// call.
func (n *Navigator) OpenDetail(ctx context.Context, index int) error {
	entry, err := locator.Resolve(ctx, n.drv, n.timeout,
		locator.Strategy{
			Kind:     locator.KindCSS,
			Selector: fmt.Sprintf("%s > li:nth-child(%d) a", ordersListSelector, index+1),
		},
		locator.Strategy{
			Kind:     locator.KindXPath,
			Selector: fmt.Sprintf("(//ul[@data-testid='orders-list-testId']//li)[%d]//a", index+1),
		},
	)
	if err != nil {
		return navErr(fmt.Sprintf("order entry %d not found in list", index), err)
	}
	if err := entry.Click(); err != nil {
		return navErr(fmt.Sprintf("order entry %d not clickable", index), err)
	}

	// The detail view is ready once the Items Ordered section renders.
	_, err = locator.Resolve(ctx, n.drv, n.timeout,
		locator.Strategy{Kind: locator.KindXPath, Selector: "//div[contains(text(), 'Items Ordered')]"},
	)
	if err != nil {
		return navErr(fmt.Sprintf("detail view for order entry %d did not load", index), err)
	}
	return nil
}

// DetailHTML returns the detail page markup.
func (n *Navigator) DetailHTML(ctx context.Context) (string, error) {
	return n.drv.HTML(ctx)
}

// ReturnToList navigates back from a detail view and re-resolves the
// order list, restoring the caller's position in the traversal.
func (n *Navigator) ReturnToList(ctx context.Context) error {
	if err := n.drv.Back(ctx); err != nil {
		return navErr("failed to navigate back to the order list", err)
	}
	return n.waitForList(ctx)
}

func (n *Navigator) waitForList(ctx context.Context) error {
	_, err := locator.Resolve(ctx, n.drv, n.timeout,
		locator.Strategy{Kind: locator.KindCSS, Selector: ordersListSelector},
	)
	if err != nil {
		return navErr("order list did not render", err)
	}
	return nil
}

func navErr(msg string, err error) error {
	return models.NewExtractError(models.ErrCodeNavigation, msg, err)
}
