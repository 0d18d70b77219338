package restaurant_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/kitchen-engine/menu"
	"github.com/warp/kitchen-engine/restaurant"
	"github.com/warp/kitchen-engine/restaurant/store"
	"github.com/warp/kitchen-engine/stock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var testNow = time.Date(2024, 3, 10, 13, 30, 0, 0, time.UTC)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func testOptions() restaurant.Options {
	return restaurant.Options{
		Now:   func() time.Time { return testNow },
		NewID: sequentialIDs(),
	}
}

func openSession(t *testing.T, st restaurant.TxStore) *restaurant.Session {
	t.Helper()
	s, err := restaurant.Open(context.Background(), st, testOptions())
	require.NoError(t, err)
	return s
}

// houseSession opens a session seeded with the house menus and 100 of every
// ingredient.
func houseSession(t *testing.T) (*restaurant.Session, *store.Memory) {
	t.Helper()
	st := store.NewMemory()
	s := openSession(t, st)
	menus := menu.HouseMenus()
	require.NoError(t, s.Seed(context.Background(), menus, menu.HouseStock(menus)))
	return s, st
}

func order(lines ...stock.OrderLine) stock.Order {
	return stock.NewOrder(lines...)
}

func line(m string, n int) stock.OrderLine {
	return stock.OrderLine{Menu: m, Count: n}
}

// failingStore accepts every write inside WithTx and then fails the commit.
type failingStore struct {
	*store.Memory
}

func (f failingStore) WithTx(ctx context.Context, fn func(restaurant.Store) error) error {
	return f.Memory.WithTx(ctx, func(tx restaurant.Store) error {
		if err := fn(tx); err != nil {
			return err
		}
		return errors.New("disk full")
	})
}

// =============================================================================
// OPEN / SEED
// =============================================================================

func TestOpen_LoadsFromStore(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	require.NoError(t, st.SaveIngredient(ctx, stock.Ingredient{Name: "pan", Unit: "unid", Quantity: d("4")}))
	require.NoError(t, st.SaveMenu(ctx, menu.Menu{Name: "Tostada", Price: d("900"), Requirements: stock.Requirements{"pan": d("2")}}))

	s := openSession(t, st)

	require.Len(t, s.Ingredients(), 1)
	require.Len(t, s.Menus(), 1)
	res, err := s.Evaluate(ctx, order(line("Tostada", 2)))
	require.NoError(t, err)
	assert.True(t, res.OK)
}

func TestSeed_HouseMenus(t *testing.T) {
	s, st := houseSession(t)

	assert.Len(t, s.Menus(), 8)
	assert.Len(t, s.Ingredients(), 15)

	persisted, err := st.ListIngredients(context.Background())
	require.NoError(t, err)
	assert.Len(t, persisted, 15)
}

func TestReset_EmptiesEverything(t *testing.T) {
	s, st := houseSession(t)
	ctx := context.Background()

	require.NoError(t, s.Reset(ctx))

	assert.Empty(t, s.Menus())
	assert.Empty(t, s.Ingredients())
	menus, _ := st.ListMenus(ctx)
	assert.Empty(t, menus)
}

// =============================================================================
// INGREDIENTS
// =============================================================================

func TestRestock_PersistsNewLevel(t *testing.T) {
	st := store.NewMemory()
	s := openSession(t, st)
	ctx := context.Background()

	_, err := s.Restock(ctx, "Tomate", "kg", d("5"))
	require.NoError(t, err)
	ing, err := s.Restock(ctx, "tomate ", "ignored", d("2.5"))
	require.NoError(t, err)

	assert.Equal(t, stock.Key("tomate"), ing.Name)
	assert.Equal(t, "kg", ing.Unit)
	assert.True(t, ing.Quantity.Equal(d("7.5")))

	persisted, err := st.ListIngredients(ctx)
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.True(t, persisted[0].Quantity.Equal(d("7.5")))
}

func TestRestock_RejectsNegativeResult(t *testing.T) {
	s := openSession(t, store.NewMemory())
	ctx := context.Background()
	_, err := s.Restock(ctx, "pan", "unid", d("1"))
	require.NoError(t, err)

	_, err = s.Restock(ctx, "pan", "unid", d("-2"))

	assert.ErrorIs(t, err, stock.ErrInvalidArgument)
	ing, ok := s.Ingredient("pan")
	require.True(t, ok)
	assert.True(t, ing.Quantity.Equal(d("1")))
}

func TestRemoveIngredient(t *testing.T) {
	s, st := houseSession(t)
	ctx := context.Background()

	require.NoError(t, s.RemoveIngredient(ctx, "Pepsi"))

	_, ok := s.Ingredient("pepsi")
	assert.False(t, ok)
	persisted, _ := st.ListIngredients(ctx)
	assert.Len(t, persisted, 14)

	err := s.RemoveIngredient(ctx, "pepsi")
	assert.ErrorIs(t, err, stock.ErrNotFound)

	// The menu stays but can no longer be prepared.
	res, err := s.Evaluate(ctx, order(line("Pepsi", 1)))
	require.NoError(t, err)
	assert.False(t, res.OK)
}

// =============================================================================
// MENUS
// =============================================================================

func TestSaveMenu_ValidatesAndPersists(t *testing.T) {
	s, st := houseSession(t)
	ctx := context.Background()

	err := s.SaveMenu(ctx, menu.Menu{Name: "Agua", Price: decimal.Zero})
	assert.ErrorIs(t, err, menu.ErrInvalidMenu)

	require.NoError(t, s.SaveMenu(ctx, menu.Menu{Name: " Agua ", Price: d("1000")}))
	_, ok := s.Menu("Agua")
	assert.True(t, ok)
	menus, _ := st.ListMenus(ctx)
	assert.Len(t, menus, 9)

	require.NoError(t, s.RemoveMenu(ctx, "Agua"))
	assert.ErrorIs(t, s.RemoveMenu(ctx, "Agua"), menu.ErrMenuNotFound)
}

func TestSaveMenus_AllOrNothing(t *testing.T) {
	// GIVEN: a store whose transactions fail to commit
	// WHEN: saving two new menus together
	// THEN: neither reaches the store or the catalog

	ctx := context.Background()
	mem := store.NewMemory()
	s := openSession(t, failingStore{Memory: mem})
	menus := []menu.Menu{
		{Name: "Agua", Price: d("1000")},
		{Name: "Tostada", Price: d("900"), Requirements: stock.Requirements{"pan": d("2")}},
	}

	err := s.SaveMenus(ctx, menus)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Empty(t, s.Menus())
	stored, err := mem.ListMenus(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestSaveMenus_InvalidMenuSavesNothing(t *testing.T) {
	s, st := houseSession(t)
	ctx := context.Background()

	err := s.SaveMenus(ctx, []menu.Menu{
		{Name: " Agua ", Price: d("1000")},
		{Name: "Gratis", Price: decimal.Zero},
	})
	assert.ErrorIs(t, err, menu.ErrInvalidMenu)
	_, ok := s.Menu("Agua")
	assert.False(t, ok)

	require.NoError(t, s.SaveMenus(ctx, []menu.Menu{
		{Name: " Agua ", Price: d("1000")},
		{Name: "Jugo", Price: d("1800")},
	}))
	_, ok = s.Menu("Agua")
	assert.True(t, ok)
	menus, _ := st.ListMenus(ctx)
	assert.Len(t, menus, 10)
}

func TestPreparable_AfterDrainingStock(t *testing.T) {
	s, _ := houseSession(t)
	ctx := context.Background()

	_, err := s.Restock(ctx, "presa de pollo", "", d("-99"))
	require.NoError(t, err)

	got, err := s.Preparable(ctx)
	require.NoError(t, err)
	for _, a := range got {
		assert.Equal(t, a.Menu != "Pollo Frito", a.OK, a.Menu)
	}
}

// =============================================================================
// ORDERS
// =============================================================================

func TestPlaceOrder_CommitsAndRecords(t *testing.T) {
	// GIVEN: house stock (100 of everything)
	// WHEN: placing 2 Hamburguesa + 1 Completo
	// THEN: stock is deducted in memory and in the store, and the order is
	//       recorded with its receipt

	s, st := houseSession(t)
	ctx := context.Background()

	p, err := s.PlaceOrder(ctx, "", order(line("Hamburguesa", 2), line("Completo", 1)))

	require.NoError(t, err)
	require.True(t, p.Result.OK)
	require.NotNil(t, p.Order)
	assert.True(t, p.Order.Subtotal.Equal(d("9500")))
	assert.True(t, p.Order.VAT.Equal(d("1805")))
	assert.True(t, p.Order.Total.Equal(d("11305")))
	assert.Equal(t, testNow, p.Order.CreatedAt)
	assert.Equal(t, p.Result.ReservationID, p.Order.ReservationID)

	ing, _ := s.Ingredient("carne")
	assert.True(t, ing.Quantity.Equal(d("98")))
	ing, _ = s.Ingredient("tomate")
	assert.True(t, ing.Quantity.Equal(d("99.5")))

	persisted, err := st.ListIngredients(ctx)
	require.NoError(t, err)
	for _, p := range persisted {
		if p.Name == "carne" {
			assert.True(t, p.Quantity.Equal(d("98")))
		}
	}

	orders, err := s.Orders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, p.Order.ID, orders[0].ID)

	got, err := s.Order(ctx, p.Order.ID)
	require.NoError(t, err)
	assert.True(t, got.Receipt().Total.Equal(d("11305")))
}

func TestPlaceOrder_ShortageRecordsNothing(t *testing.T) {
	s, st := houseSession(t)
	ctx := context.Background()

	p, err := s.PlaceOrder(ctx, "", order(line("Pollo Frito", 51)))

	require.NoError(t, err)
	assert.False(t, p.Result.OK)
	assert.Nil(t, p.Order)
	require.Len(t, p.Result.Shortages, 1)
	assert.Equal(t, stock.Key("presa de pollo"), p.Result.Shortages[0].Ingredient)
	assert.True(t, p.Result.Shortages[0].Required.Equal(d("102")))

	ing, _ := s.Ingredient("presa de pollo")
	assert.True(t, ing.Quantity.Equal(d("100")))
	orders, _ := st.ListOrders(ctx)
	assert.Empty(t, orders)
}

func TestPlaceOrder_StoreFailureReturnsStock(t *testing.T) {
	// GIVEN: a store whose transactions always fail to commit
	// WHEN: placing an order that the ledger could satisfy
	// THEN: the error is returned, the deducted stock is given back, and
	//       nothing is persisted

	ctx := context.Background()
	mem := store.NewMemory()
	menus := menu.HouseMenus()
	for _, m := range menus {
		require.NoError(t, mem.SaveMenu(ctx, m))
	}
	for _, ing := range menu.HouseStock(menus) {
		require.NoError(t, mem.SaveIngredient(ctx, ing))
	}

	core, logs := observer.New(zap.ErrorLevel)
	opts := testOptions()
	opts.Logger = zap.New(core)
	s, err := restaurant.Open(ctx, failingStore{Memory: mem}, opts)
	require.NoError(t, err)

	p, err := s.PlaceOrder(ctx, "", order(line("Hamburguesa", 3)))

	require.Error(t, err)
	assert.Nil(t, p.Order)
	ing, _ := s.Ingredient("carne")
	assert.True(t, ing.Quantity.Equal(d("100")))
	persisted, _ := mem.ListIngredients(ctx)
	for _, p := range persisted {
		assert.True(t, p.Quantity.Equal(d("100")), p.Name)
	}
	orders, _ := mem.ListOrders(ctx)
	assert.Empty(t, orders)
	assert.Equal(t, 1, logs.FilterMessage("order not persisted, stock returned").Len())
}

func TestPlaceOrder_Validation(t *testing.T) {
	s, _ := houseSession(t)
	ctx := context.Background()

	_, err := s.PlaceOrder(ctx, "", stock.Order{})
	assert.ErrorIs(t, err, restaurant.ErrEmptyOrder)

	_, err = s.PlaceOrder(ctx, "nobody", order(line("Pepsi", 1)))
	assert.ErrorIs(t, err, restaurant.ErrCustomerNotFound)
}

func TestPlaceOrder_ConcurrentOrdersNeverOversell(t *testing.T) {
	// GIVEN: 100 presa de pollo, Pollo Frito needs 2
	// WHEN: 80 goroutines each order one Pollo Frito
	// THEN: exactly 50 succeed and the stock ends at 0

	s, _ := houseSession(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	placed := 0
	for i := 0; i < 80; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := s.PlaceOrder(ctx, "", order(line("Pollo Frito", 1)))
			if err == nil && p.Order != nil {
				mu.Lock()
				placed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, placed)
	ing, _ := s.Ingredient("presa de pollo")
	assert.True(t, ing.Quantity.IsZero())
}

func TestQuote_DoesNotPlace(t *testing.T) {
	s, _ := houseSession(t)

	r := s.Quote(order(line("Pepsi", 2)))

	assert.True(t, r.Subtotal.Equal(d("3000")))
	assert.True(t, r.VAT.Equal(d("570")))
	orders, _ := s.Orders(context.Background())
	assert.Empty(t, orders)
}

func TestDeleteOrder(t *testing.T) {
	s, _ := houseSession(t)
	ctx := context.Background()
	p, err := s.PlaceOrder(ctx, "", order(line("Pepsi", 1)))
	require.NoError(t, err)

	require.NoError(t, s.DeleteOrder(ctx, p.Order.ID))

	_, err = s.Order(ctx, p.Order.ID)
	assert.ErrorIs(t, err, restaurant.ErrOrderNotFound)
	ing, _ := s.Ingredient("pepsi")
	assert.True(t, ing.Quantity.Equal(d("99")))
}

// =============================================================================
// CUSTOMERS
// =============================================================================

func TestCreateCustomer_DuplicateEmailReturnsExisting(t *testing.T) {
	s := openSession(t, store.NewMemory())
	ctx := context.Background()

	first, created, err := s.CreateCustomer(ctx, "Ana", "ana@example.com")
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := s.CreateCustomer(ctx, "Ana Maria", "ana@example.com")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first, again)

	all, _ := s.Customers(ctx)
	assert.Len(t, all, 1)

	_, _, err = s.CreateCustomer(ctx, "", "x@example.com")
	assert.ErrorIs(t, err, restaurant.ErrInvalidCustomer)
}

func TestUpdateCustomer_EmailMustStayUnique(t *testing.T) {
	s := openSession(t, store.NewMemory())
	ctx := context.Background()
	ana, _, _ := s.CreateCustomer(ctx, "Ana", "ana@example.com")
	_, _, _ = s.CreateCustomer(ctx, "Luis", "luis@example.com")

	_, err := s.UpdateCustomer(ctx, ana.ID, "", "luis@example.com")
	assert.ErrorIs(t, err, restaurant.ErrDuplicateEmail)

	updated, err := s.UpdateCustomer(ctx, ana.ID, "Ana P.", "")
	require.NoError(t, err)
	assert.Equal(t, "Ana P.", updated.Name)
	assert.Equal(t, "ana@example.com", updated.Email)

	_, err = s.UpdateCustomer(ctx, "missing", "x", "")
	assert.ErrorIs(t, err, restaurant.ErrCustomerNotFound)
}

func TestDeleteCustomer_RefusedWithOrders(t *testing.T) {
	s, _ := houseSession(t)
	ctx := context.Background()
	ana, _, err := s.CreateCustomer(ctx, "Ana", "ana@example.com")
	require.NoError(t, err)
	luis, _, err := s.CreateCustomer(ctx, "Luis", "luis@example.com")
	require.NoError(t, err)

	_, err = s.PlaceOrder(ctx, ana.ID, order(line("Pepsi", 1)))
	require.NoError(t, err)

	assert.ErrorIs(t, s.DeleteCustomer(ctx, ana.ID), restaurant.ErrCustomerHasOrders)
	require.NoError(t, s.DeleteCustomer(ctx, luis.ID))
	assert.ErrorIs(t, s.DeleteCustomer(ctx, luis.ID), restaurant.ErrCustomerNotFound)

	c, err := s.Customer(ctx, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", c.Name)
}
