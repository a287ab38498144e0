// Package parse turns the raw markup of the order-history pages into
// typed, unit-normalized fields. Everything here is pure: it takes
// static markup and returns values, so it is testable against captured
// page fixtures with no live browser or database.
package parse

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pantry-tools/cubscrape/models"
)

// Selectors for the order-history markup. The site tags everything with
// data-testid attributes whose suffixes churn between deploys, so all
// matches are by prefix or substring.
const (
	selOrderSection = "section[data-testid*='order-card-info-testId']"
	selOrderNumber  = "span[data-testid^='order-number-testId']"
	selDatePlaced   = "div[data-testid*='placed']"
	selAddress      = "div[data-testid*='address']"
	selItemCount    = "div[data-testid*='count']"
	selTotal        = "div[data-testid*='total']"
	selProductItem  = "div[data-testid*='product-item-testId']"
)

// OrderFields is one order extracted from a list summary. ListIndex is
// the card's zero-based position among all order sections in the
// rendered list, skipped cards included, so navigation by list entry
// stays aligned with the markup even when earlier cards are malformed.
type OrderFields struct {
	ListIndex   int
	OrderNumber string
	OrderDate   string
	OrderType   string
	Location    string
	ItemCount   int
	TotalPrice  float64
}

// OrderItemFields is one line item extracted from a detail page.
type OrderItemFields struct {
	ProductName   string
	Quantity      int
	UnitPrice     float64
	ProductTotal  float64
	UPC           string
	ProductNumber string
}

// ParseOrderSummaries extracts one OrderFields per order card in the
// list markup. A card missing its order number is unextractable and is
// skipped with a MISSING_KEY_FIELD diagnostic; every other field
// independently degrades to a documented default. The second return
// value counts skipped cards.
func ParseOrderSummaries(markup string) ([]OrderFields, int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, 0, models.NewExtractError(models.ErrCodeParse, "order list markup not parseable", err)
	}

	var orders []OrderFields
	skipped := 0
	doc.Find(selOrderSection).Each(func(i int, sec *goquery.Selection) {
		fields, err := parseSummary(sec)
		if err != nil {
			skipped++
			slog.Error("skipping unextractable order card", "index", i, "error", err)
			return
		}
		fields.ListIndex = i
		orders = append(orders, fields)
	})
	return orders, skipped, nil
}

// parseSummary reads a single order card.
func parseSummary(sec *goquery.Selection) (OrderFields, error) {
	number := strings.TrimSpace(sec.Find(selOrderNumber).First().Text())
	if number == "" {
		return OrderFields{}, models.NewExtractError(
			models.ErrCodeMissingKeyField,
			"order card has no order number",
			nil,
		)
	}

	fields := OrderFields{
		OrderNumber: number,
		OrderDate:   models.UnknownDate,
		Location:    "N/A",
	}

	if placed := sec.Find(selDatePlaced).First(); placed.Length() > 0 {
		fields.OrderDate = OrderDate(textAfterLabel(placed))
	} else {
		slog.Warn("date placed not found on order card", "order", number)
	}

	if addr := sec.Find(selAddress).First(); addr.Length() > 0 {
		fields.Location = stripLabel(collapseSpace(addr.Text()), "Location")
		fields.OrderType = ClassifyOrderType(fields.Location)
	} else {
		fields.OrderType = models.OrderTypePickup
		slog.Warn("address not found on order card", "order", number)
	}

	if count := sec.Find(selItemCount).First(); count.Length() > 0 {
		fields.ItemCount = ItemCount(count.Text())
	}

	if total := sec.Find(selTotal).First(); total.Length() > 0 {
		fields.TotalPrice = MoneyValue(textAfterLabel(total))
	} else {
		slog.Warn("total not found on order card", "order", number)
	}

	return fields, nil
}

// ParseOrderItems extracts the "Items Ordered" rows from a detail page.
// Each product element renders its cells as newline-separated text; a
// row yielding fewer than 4 parts is malformed and skipped with a
// diagnostic, never fatal to the batch.
func ParseOrderItems(markup string) ([]OrderItemFields, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, models.NewExtractError(models.ErrCodeParse, "detail page markup not parseable", err)
	}

	var items []OrderItemFields
	doc.Find(selProductItem).Each(func(i int, prod *goquery.Selection) {
		testID, _ := prod.Attr("data-testid")
		// The trailing segment of the testid is the store's product
		// number, which Cub reuses as the UPC.
		productNumber := testID[strings.LastIndex(testID, "-")+1:]

		parts := splitRow(prod.Text())
		if len(parts) < 4 {
			slog.Warn("malformed product row, skipping",
				"index", i,
				"parts", fmt.Sprintf("%q", parts),
			)
			return
		}

		items = append(items, OrderItemFields{
			ProductName:   parts[0],
			Quantity:      Quantity(parts[1]),
			UnitPrice:     MoneyValue(parts[2]),
			ProductTotal:  MoneyValue(parts[3]),
			UPC:           productNumber,
			ProductNumber: productNumber,
		})
	})
	return items, nil
}

// DetailOrderNumber reads the order number off a detail page, for
// verifying which order's items are being parsed.
func DetailOrderNumber(markup string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find(selOrderNumber).First().Text())
}

// splitRow breaks a product's multi-line rendered text into trimmed,
// non-empty cells.
func splitRow(text string) []string {
	var parts []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

// textAfterLabel returns the element's direct text content, skipping
// child elements. The site renders these cells as a label element
// followed by a bare text node holding the value.
func textAfterLabel(sel *goquery.Selection) string {
	var parts []string
	sel.Contents().Each(func(_ int, c *goquery.Selection) {
		if goquery.NodeName(c) != "#text" {
			return
		}
		if t := strings.TrimSpace(c.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	if len(parts) == 0 {
		return strings.TrimSpace(sel.Text())
	}
	return strings.Join(parts, " ")
}

// stripLabel drops everything up to and including the given label text.
func stripLabel(text, label string) string {
	if idx := strings.Index(text, label); idx >= 0 {
		return strings.TrimSpace(text[idx+len(label):])
	}
	return strings.TrimSpace(text)
}

func collapseSpace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
