package parse

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/araddon/dateparse"
	"github.com/pantry-tools/cubscrape/models"
)

// MoneyValue converts raw page text like "$1,234.56" into a decimal
// amount. Currency symbols, grouping commas and whitespace are
// stripped. Malformed input yields 0.00 rather than an error: a usable
// record beats an aborted one.
func MoneyValue(raw string) float64 {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '$', ',':
			return -1
		}
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, raw)

	if cleaned == "" {
		return 0
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		slog.Warn("unparsable money text, defaulting to 0.00", "raw", raw)
		return 0
	}
	return v
}

// Quantity extracts the first integer from text like "Qty: 2" or "2".
// Text without a number defaults to 1 (a listed item was bought at
// least once).
func Quantity(raw string) int {
	return firstInt(raw, 1)
}

// ItemCount extracts the order's item count from text like "12 Items".
func ItemCount(raw string) int {
	return firstInt(strings.ReplaceAll(raw, "Items", ""), 0)
}

// OrderDate normalizes a recognized date text to YYYY-MM-DD. Unparsable
// or absent input falls back to the UnknownDate sentinel, never an
// error.
func OrderDate(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "N/A" {
		return models.UnknownDate
	}
	t, err := dateparse.ParseAny(trimmed)
	if err != nil {
		slog.Warn("unrecognized order date text", "raw", raw)
		return models.UnknownDate
	}
	return t.Format("2006-01-02")
}

// ClassifyOrderType applies the single classification rule: an order is
// a delivery iff the leading token of its location text equals
// "delivery" case-insensitively; everything else is a pickup.
func ClassifyOrderType(location string) string {
	fields := strings.Fields(location)
	if len(fields) > 0 && strings.EqualFold(fields[0], "delivery") {
		return models.OrderTypeDelivery
	}
	return models.OrderTypePickup
}

func firstInt(raw string, fallback int) int {
	start := -1
	for i, r := range raw {
		if r >= '0' && r <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			if n, err := strconv.Atoi(raw[start:i]); err == nil {
				return n
			}
			start = -1
		}
	}
	if start >= 0 {
		if n, err := strconv.Atoi(raw[start:]); err == nil {
			return n
		}
	}
	return fallback
}
