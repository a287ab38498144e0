package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pantry-tools/cubscrape/models"
)

func testGateway(t *testing.T) (*Gateway, *sql.DB) {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewGateway(db), db
}

func testStore(t *testing.T, g *Gateway) models.Store {
	t.Helper()
	s, err := g.UpsertStore(context.Background(), models.Store{
		Name:      "Cub",
		Location:  "Minneapolis",
		StoreType: "Grocery",
	})
	require.NoError(t, err)
	return s
}

func TestUpsertStore_CreatedOncePerIdentity(t *testing.T) {
	g, _ := testGateway(t)
	ctx := context.Background()

	first := testStore(t, g)
	require.NotZero(t, first.ID)

	second, err := g.UpsertStore(ctx, models.Store{
		Name: "Cub", Location: "Minneapolis", StoreType: "Grocery",
	})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID, "same identity must not create a duplicate store")

	other, err := g.UpsertStore(ctx, models.Store{
		Name: "Cub", Location: "Stillwater", StoreType: "Grocery",
	})
	require.NoError(t, err)
	require.NotEqual(t, first.ID, other.ID, "a different identity is a different store")
}

func TestSaveOrder_Idempotent(t *testing.T) {
	g, db := testGateway(t)
	ctx := context.Background()
	st := testStore(t, g)

	order := models.Order{
		StoreID:     st.ID,
		OrderNumber: "6009553",
		OrderDate:   "2025-01-05",
		OrderType:   models.OrderTypeDelivery,
		TotalPrice:  84.12,
		Location:    "Delivery to 123 Main St",
	}
	items := []models.OrderItem{
		{ProductName: "Milk", UnitPrice: 3.49, Quantity: 1, ProductTotal: 3.49, UPC: "111", ProductNumber: "111"},
		{ProductName: "Apples", UnitPrice: 2.99, Quantity: 3, ProductTotal: 8.97, UPC: "222", ProductNumber: "222"},
	}

	first, err := g.SaveOrder(ctx, order, items)
	require.NoError(t, err)
	require.NotZero(t, first.ID)

	second, err := g.SaveOrder(ctx, order, items)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	var orderCount, itemCount int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM orders`).Scan(&orderCount))
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM order_items`).Scan(&itemCount))
	require.Equal(t, 1, orderCount, "re-running the save must not duplicate the order")
	require.Equal(t, 2, itemCount, "re-running the save must not duplicate items")
}

func TestUpsertOrder_MergeKeepsPriorFields(t *testing.T) {
	g, _ := testGateway(t)
	ctx := context.Background()
	st := testStore(t, g)

	_, err := g.UpsertOrder(ctx, models.Order{
		StoreID:     st.ID,
		OrderNumber: "6010021",
		OrderDate:   "2025-02-01",
		OrderType:   models.OrderTypePickup,
		TotalPrice:  23.45,
		Location:    "Pickup at Cub - Stillwater",
		ItemCount:   3,
	})
	require.NoError(t, err)

	// Second extraction of the same order carries only a fresh total;
	// the date is the unknown sentinel and the location is the N/A
	// default, both of which count as absent.
	updated, err := g.UpsertOrder(ctx, models.Order{
		StoreID:     st.ID,
		OrderNumber: "6010021",
		OrderDate:   models.UnknownDate,
		TotalPrice:  25.00,
		Location:    "N/A",
	})
	require.NoError(t, err)

	require.Equal(t, "2025-02-01", updated.OrderDate, "absent date must retain the stored value")
	require.Equal(t, models.OrderTypePickup, updated.OrderType)
	require.Equal(t, "Pickup at Cub - Stillwater", updated.Location)
	require.Equal(t, 25.00, updated.TotalPrice, "present fields must update")
	require.Equal(t, 3, updated.ItemCount)

	stored, err := g.OrderByNumber(ctx, "6010021")
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, updated.OrderDate, stored.OrderDate)
	require.Equal(t, updated.TotalPrice, stored.TotalPrice)
}

func TestSaveOrder_ReplacesItemSet(t *testing.T) {
	g, _ := testGateway(t)
	ctx := context.Background()
	st := testStore(t, g)

	order := models.Order{StoreID: st.ID, OrderNumber: "7000001", OrderDate: "2025-03-01"}

	_, err := g.SaveOrder(ctx, order, []models.OrderItem{
		{ProductName: "Bread", UnitPrice: 2.50, Quantity: 1, ProductTotal: 2.50},
		{ProductName: "Eggs", UnitPrice: 4.00, Quantity: 2, ProductTotal: 8.00},
	})
	require.NoError(t, err)

	saved, err := g.SaveOrder(ctx, order, []models.OrderItem{
		{ProductName: "Bread", UnitPrice: 2.50, Quantity: 1, ProductTotal: 2.50},
	})
	require.NoError(t, err)

	stored, err := g.OrderByNumber(ctx, "7000001")
	require.NoError(t, err)
	require.Len(t, stored.Items, 1, "a new item set fully replaces the old one")
	require.Equal(t, "Bread", stored.Items[0].ProductName)
	require.Equal(t, saved.ID, stored.Items[0].OrderID, "items always reference the real owning order")
}

func TestSaveOrder_NilItemsLeavesExistingItems(t *testing.T) {
	g, _ := testGateway(t)
	ctx := context.Background()
	st := testStore(t, g)

	order := models.Order{StoreID: st.ID, OrderNumber: "7000002"}

	_, err := g.SaveOrder(ctx, order, []models.OrderItem{
		{ProductName: "Butter", UnitPrice: 5.29, Quantity: 1, ProductTotal: 5.29},
	})
	require.NoError(t, err)

	// A later run whose detail visit failed saves with nil items.
	_, err = g.SaveOrder(ctx, order, nil)
	require.NoError(t, err)

	stored, err := g.OrderByNumber(ctx, "7000002")
	require.NoError(t, err)
	require.Len(t, stored.Items, 1, "nil items must not wipe previously extracted line items")
}

func TestOrderByNumber_Missing(t *testing.T) {
	g, _ := testGateway(t)
	stored, err := g.OrderByNumber(context.Background(), "does-not-exist")
	require.NoError(t, err)
	require.Nil(t, stored)
}

func TestOrders_ListsNewestFirst(t *testing.T) {
	g, _ := testGateway(t)
	ctx := context.Background()
	st := testStore(t, g)

	for _, o := range []models.Order{
		{StoreID: st.ID, OrderNumber: "1", OrderDate: "2025-01-01"},
		{StoreID: st.ID, OrderNumber: "2", OrderDate: "2025-03-01"},
		{StoreID: st.ID, OrderNumber: "3", OrderDate: "2025-02-01"},
	} {
		_, err := g.UpsertOrder(ctx, o)
		require.NoError(t, err)
	}

	orders, err := g.Orders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 3)
	require.Equal(t, "2", orders[0].OrderNumber)
	require.Equal(t, "3", orders[1].OrderNumber)
	require.Equal(t, "1", orders[2].OrderNumber)
}

func TestOrderItems_CascadeOnOrderDelete(t *testing.T) {
	g, db := testGateway(t)
	ctx := context.Background()
	st := testStore(t, g)

	saved, err := g.SaveOrder(ctx,
		models.Order{StoreID: st.ID, OrderNumber: "8000001"},
		[]models.OrderItem{{ProductName: "Cereal", UnitPrice: 4.99, Quantity: 1, ProductTotal: 4.99}},
	)
	require.NoError(t, err)

	// Operator-driven administrative delete; items never outlive the order.
	_, err = db.Exec(`DELETE FROM orders WHERE id = ?`, saved.ID)
	require.NoError(t, err)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM order_items`).Scan(&count))
	require.Equal(t, 0, count)
}
