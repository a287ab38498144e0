package models

// UnknownDate is the sentinel stored when an order's date text could not
// be recognized. A missing date never aborts the record.
const UnknownDate = "unknown"

// Order types. Classification is by the leading token of the order's
// location text: "delivery" means delivery, anything else is pickup.
const (
	OrderTypeDelivery = "delivery"
	OrderTypePickup   = "pickup"
)

// Store is the origin of all orders in a scrape run. Identity is the
// (Name, Location, StoreType) triple; it is resolved once per run.
type Store struct {
	ID        int64
	Name      string
	Location  string
	StoreType string
}

// Order is one purchase extracted from the order list or detail page.
// OrderNumber is the natural key: re-extracting the same order updates
// the stored row instead of duplicating it.
type Order struct {
	ID          int64
	StoreID     int64
	OrderNumber string
	OrderDate   string // normalized YYYY-MM-DD, or UnknownDate
	OrderType   string
	TotalPrice  float64
	Location    string
	ItemCount   int
	Items       []OrderItem
}

// OrderItem is one line item of a persisted Order. A persisted item
// always references a real Order row; items are never written with a
// placeholder owner.
type OrderItem struct {
	ID            int64
	OrderID       int64
	ProductName   string
	UnitPrice     float64
	Quantity      int
	ProductTotal  float64
	UPC           string
	ProductNumber string
}

// RunSummary is reported at the end of a scrape run.
type RunSummary struct {
	OrdersProcessed int
	OrdersSkipped   int
	ItemsSaved      int
}
