package store

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/pantry-tools/cubscrape/models"
)

// Gateway upserts Store/Order/OrderItem records keyed by their natural
// identifiers. Every logical record (an order plus its items) commits
// in a single transaction: a partial failure leaves either the prior
// committed state or the fully new state.
type Gateway struct {
	db *sql.DB
}

func NewGateway(db *sql.DB) *Gateway {
	return &Gateway{db: db}
}

// UpsertStore looks a store up by its (name, location, store_type)
// identity, creating it if absent. Identity is immutable within a run,
// so there is no update-on-conflict.
func (g *Gateway) UpsertStore(ctx context.Context, s models.Store) (models.Store, error) {
	err := g.db.QueryRowContext(ctx,
		`SELECT id FROM stores WHERE name = ? AND location = ? AND store_type = ?`,
		s.Name, s.Location, s.StoreType).Scan(&s.ID)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return s, persistenceErr("failed to look up store", err)
	}

	res, err := g.db.ExecContext(ctx,
		`INSERT INTO stores (name, location, store_type) VALUES (?, ?, ?)`,
		s.Name, s.Location, s.StoreType)
	if err != nil {
		return s, persistenceErr("failed to insert store", err)
	}
	s.ID, err = res.LastInsertId()
	if err != nil {
		return s, persistenceErr("failed to read store id", err)
	}
	slog.Info("store created", "name", s.Name, "location", s.Location)
	return s, nil
}

// SaveOrder upserts the order and, when items is non-nil, replaces its
// item set, all in one transaction. A nil items slice means "no detail
// pass happened": existing items are left untouched so a failed detail
// visit never wipes previously extracted line items.
func (g *Gateway) SaveOrder(ctx context.Context, order models.Order, items []models.OrderItem) (models.Order, error) {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return order, persistenceErr("failed to begin transaction", err)
	}
	defer tx.Rollback()

	saved, err := upsertOrderTx(ctx, tx, order)
	if err != nil {
		return order, err
	}
	if items != nil {
		if err := replaceItemsTx(ctx, tx, saved.ID, items); err != nil {
			return order, err
		}
		saved.Items = make([]models.OrderItem, len(items))
		copy(saved.Items, items)
		for i := range saved.Items {
			saved.Items[i].OrderID = saved.ID
		}
	}
	if err := tx.Commit(); err != nil {
		return order, persistenceErr("failed to commit order", err)
	}
	return saved, nil
}

// UpsertOrder upserts just the order row in its own transaction.
func (g *Gateway) UpsertOrder(ctx context.Context, order models.Order) (models.Order, error) {
	return g.SaveOrder(ctx, order, nil)
}

// ReplaceOrderItems replaces the full item set of an existing order.
// Items always reference a real persisted order; callers must upsert
// the order first.
func (g *Gateway) ReplaceOrderItems(ctx context.Context, orderID int64, items []models.OrderItem) error {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return persistenceErr("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if err := replaceItemsTx(ctx, tx, orderID, items); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return persistenceErr("failed to commit items", err)
	}
	return nil
}

// upsertOrderTx looks the order up by order_number. Absent, it inserts;
// present, it merges the incoming fields that carry information and
// leaves the rest as stored. The "unknown" date sentinel, the "N/A"
// location default and zero prices count as absent.
func upsertOrderTx(ctx context.Context, tx *sql.Tx, in models.Order) (models.Order, error) {
	var existing models.Order
	err := tx.QueryRowContext(ctx,
		`SELECT id, store_id, order_date, order_type, total_price, location, item_count
		 FROM orders WHERE order_number = ?`, in.OrderNumber).Scan(
		&existing.ID, &existing.StoreID, &existing.OrderDate, &existing.OrderType,
		&existing.TotalPrice, &existing.Location, &existing.ItemCount)

	if errors.Is(err, sql.ErrNoRows) {
		if in.OrderDate == "" {
			in.OrderDate = models.UnknownDate
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO orders (store_id, order_number, order_date, order_type, total_price, location, item_count)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			in.StoreID, in.OrderNumber, in.OrderDate, in.OrderType,
			in.TotalPrice, in.Location, in.ItemCount)
		if err != nil {
			return in, persistenceErr("failed to insert order "+in.OrderNumber, err)
		}
		if in.ID, err = res.LastInsertId(); err != nil {
			return in, persistenceErr("failed to read order id", err)
		}
		return in, nil
	}
	if err != nil {
		return in, persistenceErr("failed to look up order "+in.OrderNumber, err)
	}

	merged := mergeOrder(existing, in)
	merged.OrderNumber = in.OrderNumber
	_, err = tx.ExecContext(ctx,
		`UPDATE orders SET store_id = ?, order_date = ?, order_type = ?,
		        total_price = ?, location = ?, item_count = ?
		 WHERE id = ?`,
		merged.StoreID, merged.OrderDate, merged.OrderType,
		merged.TotalPrice, merged.Location, merged.ItemCount, merged.ID)
	if err != nil {
		return in, persistenceErr("failed to update order "+in.OrderNumber, err)
	}
	return merged, nil
}

func mergeOrder(existing, in models.Order) models.Order {
	out := existing
	if in.StoreID != 0 {
		out.StoreID = in.StoreID
	}
	if in.OrderDate != "" && in.OrderDate != models.UnknownDate {
		out.OrderDate = in.OrderDate
	}
	if in.OrderType != "" {
		out.OrderType = in.OrderType
	}
	if in.TotalPrice > 0 {
		out.TotalPrice = in.TotalPrice
	}
	if in.Location != "" && in.Location != "N/A" {
		out.Location = in.Location
	}
	if in.ItemCount > 0 {
		out.ItemCount = in.ItemCount
	}
	return out
}

func replaceItemsTx(ctx context.Context, tx *sql.Tx, orderID int64, items []models.OrderItem) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM order_items WHERE order_id = ?`, orderID); err != nil {
		return persistenceErr("failed to clear order items", err)
	}
	for _, item := range items {
		qty := item.Quantity
		if qty < 1 {
			qty = 1
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO order_items (order_id, product_name, unit_price, quantity, product_total, upc, product_number)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			orderID, item.ProductName, item.UnitPrice, qty,
			item.ProductTotal, item.UPC, item.ProductNumber)
		if err != nil {
			return persistenceErr("failed to insert order item "+item.ProductName, err)
		}
	}
	return nil
}

// OrderByNumber fetches one order, items included. Returns nil when no
// order with that number is stored.
func (g *Gateway) OrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var o models.Order
	err := g.db.QueryRowContext(ctx,
		`SELECT id, store_id, order_number, order_date, order_type, total_price, location, item_count
		 FROM orders WHERE order_number = ?`, orderNumber).Scan(
		&o.ID, &o.StoreID, &o.OrderNumber, &o.OrderDate, &o.OrderType,
		&o.TotalPrice, &o.Location, &o.ItemCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, persistenceErr("failed to fetch order "+orderNumber, err)
	}
	if o.Items, err = g.itemsFor(ctx, o.ID); err != nil {
		return nil, err
	}
	return &o, nil
}

// Orders fetches every stored order with its items, newest order date
// first.
func (g *Gateway) Orders(ctx context.Context) ([]models.Order, error) {
	rows, err := g.db.QueryContext(ctx,
		`SELECT id, store_id, order_number, order_date, order_type, total_price, location, item_count
		 FROM orders ORDER BY order_date DESC, order_number`)
	if err != nil {
		return nil, persistenceErr("failed to fetch orders", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.ID, &o.StoreID, &o.OrderNumber, &o.OrderDate, &o.OrderType,
			&o.TotalPrice, &o.Location, &o.ItemCount); err != nil {
			return nil, persistenceErr("failed to scan order", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceErr("error iterating orders", err)
	}

	for i := range orders {
		if orders[i].Items, err = g.itemsFor(ctx, orders[i].ID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (g *Gateway) itemsFor(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	rows, err := g.db.QueryContext(ctx,
		`SELECT id, order_id, product_name, unit_price, quantity, product_total,
		        COALESCE(upc, ''), COALESCE(product_number, '')
		 FROM order_items WHERE order_id = ? ORDER BY id`, orderID)
	if err != nil {
		return nil, persistenceErr("failed to fetch order items", err)
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductName, &it.UnitPrice,
			&it.Quantity, &it.ProductTotal, &it.UPC, &it.ProductNumber); err != nil {
			return nil, persistenceErr("failed to scan order item", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceErr("error iterating order items", err)
	}
	return items, nil
}

func persistenceErr(msg string, err error) error {
	return models.NewExtractError(models.ErrCodePersistence, msg, err)
}
