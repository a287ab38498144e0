package parse

import (
	"testing"

	"github.com/pantry-tools/cubscrape/models"
)

const orderListFixture = `
<html><body>
<ul data-testid="orders-list-testId">
  <li>
    <section data-testid="order-card-info-testId-6009553">
      <span data-testid="order-number-testId-6009553">6009553</span>
      <div data-testid="order-placed-testId"><span>Date Placed</span>January 5, 2025</div>
      <div data-testid="order-address-testId"><span>Location</span>Delivery to 123 Main St, Minneapolis</div>
      <div data-testid="order-count-testId">12 Items</div>
      <div data-testid="order-total-testId"><span>Total (Estimated)</span>$84.12</div>
    </section>
  </li>
  <li>
    <section data-testid="order-card-info-testId-broken">
      <div data-testid="order-placed-testId"><span>Date Placed</span>February 1, 2025</div>
    </section>
  </li>
  <li>
    <section data-testid="order-card-info-testId-6010021">
      <span data-testid="order-number-testId-6010021">6010021</span>
      <div data-testid="order-placed-testId"><span>Date Placed</span>not a real date</div>
      <div data-testid="order-address-testId"><span>Location</span>Pickup at Cub - Stillwater</div>
      <div data-testid="order-count-testId">3 Items</div>
      <div data-testid="order-total-testId"><span>Total (Estimated)</span>$23.45</div>
    </section>
  </li>
</ul>
</body></html>`

func TestParseOrderSummaries(t *testing.T) {
	orders, skipped, err := ParseOrderSummaries(orderListFixture)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if skipped != 1 {
		t.Errorf("expected the card without an order number to be skipped, got skipped=%d", skipped)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 extractable orders, got %d", len(orders))
	}

	first := orders[0]
	if first.OrderNumber != "6009553" {
		t.Errorf("order number = %q, want 6009553", first.OrderNumber)
	}
	if first.ListIndex != 0 {
		t.Errorf("list index = %d, want 0", first.ListIndex)
	}
	if first.OrderDate != "2025-01-05" {
		t.Errorf("order date = %q, want 2025-01-05", first.OrderDate)
	}
	if first.OrderType != models.OrderTypeDelivery {
		t.Errorf("order type = %q, want delivery", first.OrderType)
	}
	if first.Location != "Delivery to 123 Main St, Minneapolis" {
		t.Errorf("unexpected location: %q", first.Location)
	}
	if first.ItemCount != 12 {
		t.Errorf("item count = %d, want 12", first.ItemCount)
	}
	if first.TotalPrice != 84.12 {
		t.Errorf("total = %v, want 84.12", first.TotalPrice)
	}

	second := orders[1]
	if second.ListIndex != 2 {
		t.Errorf("list index = %d, want 2: skipped cards still occupy a list position", second.ListIndex)
	}
	if second.OrderType != models.OrderTypePickup {
		t.Errorf("order type = %q, want pickup", second.OrderType)
	}
	if second.OrderDate != models.UnknownDate {
		t.Errorf("unparsable date should fall back to sentinel, got %q", second.OrderDate)
	}
	if second.TotalPrice != 23.45 {
		t.Errorf("total = %v, want 23.45", second.TotalPrice)
	}
}

func TestParseOrderSummaries_EmptyList(t *testing.T) {
	orders, skipped, err := ParseOrderSummaries("<html><body><p>no orders</p></body></html>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(orders) != 0 || skipped != 0 {
		t.Errorf("expected no orders and no skips, got %d orders, %d skipped", len(orders), skipped)
	}
}

const orderDetailFixture = `
<html><body>
<span data-testid="order-number-testId-6009553">6009553</span>
<div>Items Ordered</div>
<div data-testid="product-item-testId-0001111086319">
Essential Everyday 2% Milk
Qty: 1
$3.49
$3.49
</div>
<div data-testid="product-item-testId-0004138812345">
Honeycrisp Apples
Qty: 3
$2.99
$8.97
</div>
<div data-testid="product-item-testId-0000000000000">
Mystery Row Without Prices
</div>
</body></html>`

func TestParseOrderItems(t *testing.T) {
	items, err := ParseOrderItems(orderDetailFixture)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 well-formed items (malformed row skipped), got %d", len(items))
	}

	milk := items[0]
	if milk.ProductName != "Essential Everyday 2% Milk" {
		t.Errorf("unexpected product name: %q", milk.ProductName)
	}
	if milk.Quantity != 1 {
		t.Errorf("quantity = %d, want 1", milk.Quantity)
	}
	if milk.UnitPrice != 3.49 || milk.ProductTotal != 3.49 {
		t.Errorf("prices = %v/%v, want 3.49/3.49", milk.UnitPrice, milk.ProductTotal)
	}
	if milk.ProductNumber != "0001111086319" {
		t.Errorf("product number = %q, want 0001111086319", milk.ProductNumber)
	}
	if milk.UPC != milk.ProductNumber {
		t.Errorf("UPC should mirror the product number, got %q", milk.UPC)
	}

	apples := items[1]
	if apples.Quantity != 3 {
		t.Errorf("quantity = %d, want 3", apples.Quantity)
	}
	if apples.ProductTotal != 8.97 {
		t.Errorf("product total = %v, want 8.97", apples.ProductTotal)
	}
}

func TestDetailOrderNumber(t *testing.T) {
	if got := DetailOrderNumber(orderDetailFixture); got != "6009553" {
		t.Errorf("DetailOrderNumber = %q, want 6009553", got)
	}
	if got := DetailOrderNumber("<html><body></body></html>"); got != "" {
		t.Errorf("expected empty order number on blank page, got %q", got)
	}
}
