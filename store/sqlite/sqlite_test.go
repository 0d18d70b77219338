package sqlite_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/kitchen-engine/menu"
	"github.com/warp/kitchen-engine/restaurant"
	"github.com/warp/kitchen-engine/stock"
	"github.com/warp/kitchen-engine/store/sqlite"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// =============================================================================
// INGREDIENTS
// =============================================================================

func TestIngredients_UpsertKeepsOrder(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveIngredient(ctx, stock.Ingredient{Name: "tomate", Unit: "kg", Quantity: d("5")}))
	require.NoError(t, s.SaveIngredient(ctx, stock.Ingredient{Name: "pan", Unit: "unid", Quantity: d("10")}))
	require.NoError(t, s.SaveIngredient(ctx, stock.Ingredient{Name: "tomate", Unit: "kg", Quantity: d("4.25")}))

	got, err := s.ListIngredients(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, stock.Key("tomate"), got[0].Name)
	assert.True(t, got[0].Quantity.Equal(d("4.25")))
	assert.Equal(t, stock.Key("pan"), got[1].Name)

	require.NoError(t, s.DeleteIngredient(ctx, "tomate"))
	require.NoError(t, s.DeleteIngredient(ctx, "tomate"))
	got, _ = s.ListIngredients(ctx)
	assert.Len(t, got, 1)
}

// =============================================================================
// MENUS
// =============================================================================

func TestMenus_SaveReplacesRequirements(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	m := menu.Menu{
		Name:         "Panqueques",
		Price:        d("3000"),
		Description:  "con manjar",
		Requirements: stock.Requirements{"panqueques": d("1"), "porcion de harina": d("0.1")},
	}
	require.NoError(t, s.SaveMenu(ctx, m))

	m.Requirements = stock.Requirements{"panqueques": d("2")}
	m.Price = d("3200")
	require.NoError(t, s.SaveMenu(ctx, m))

	menus, err := s.ListMenus(ctx)
	require.NoError(t, err)
	require.Len(t, menus, 1)
	assert.True(t, menus[0].Price.Equal(d("3200")))
	assert.Equal(t, "con manjar", menus[0].Description)
	require.Len(t, menus[0].Requirements, 1)
	assert.True(t, menus[0].Requirements["panqueques"].Equal(d("2")))

	reqs, err := s.RequirementsFor(ctx, "Panqueques")
	require.NoError(t, err)
	assert.Len(t, reqs, 1)
	reqs, err = s.RequirementsFor(ctx, "Sushi")
	require.NoError(t, err)
	assert.Empty(t, reqs)
}

func TestMenus_DeleteCascades(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveMenu(ctx, menu.Menu{Name: "Pepsi", Price: d("1500"), Requirements: stock.Requirements{"pepsi": d("1")}}))

	require.NoError(t, s.DeleteMenu(ctx, "Pepsi"))
	assert.ErrorIs(t, s.DeleteMenu(ctx, "Pepsi"), menu.ErrMenuNotFound)

	reqs, err := s.RequirementsFor(ctx, "Pepsi")
	require.NoError(t, err)
	assert.Empty(t, reqs)
}

func TestStore_ServesAsRequirementProvider(t *testing.T) {
	// GIVEN: menus persisted in sqlite and a ledger with stock
	// WHEN: the engine aggregates straight from the store
	// THEN: the demand matches the persisted requirements

	s := newStore(t)
	ctx := context.Background()
	for _, m := range menu.HouseMenus() {
		require.NoError(t, s.SaveMenu(ctx, m))
	}

	demand, err := stock.Aggregate(ctx,
		stock.NewOrder(stock.OrderLine{Menu: "Ensalada Mixta", Count: 2}, stock.OrderLine{Menu: "Completo", Count: 1}),
		s)

	require.NoError(t, err)
	assert.True(t, demand.Quantity("tomate").Equal(d("6.8")))
	assert.True(t, demand.Quantity("lechuga").Equal(d("2.4")))
}

// =============================================================================
// CUSTOMERS
// =============================================================================

func TestCustomers_UniqueEmail(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, s.SaveCustomer(ctx, restaurant.Customer{ID: "c1", Name: "Ana", Email: "ana@example.com", CreatedAt: at}))
	err := s.SaveCustomer(ctx, restaurant.Customer{ID: "c2", Name: "Otra", Email: "ana@example.com"})
	assert.ErrorIs(t, err, restaurant.ErrDuplicateEmail)

	c, err := s.FindCustomerByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, "c1", c.ID)
	assert.Equal(t, at, c.CreatedAt)

	_, err = s.GetCustomer(ctx, "c2")
	assert.ErrorIs(t, err, restaurant.ErrCustomerNotFound)

	require.NoError(t, s.DeleteCustomer(ctx, "c1"))
	assert.ErrorIs(t, s.DeleteCustomer(ctx, "c1"), restaurant.ErrCustomerNotFound)
}

// =============================================================================
// ORDERS
// =============================================================================

func sampleOrder(id, customerID string, at time.Time) restaurant.OrderRecord {
	return restaurant.OrderRecord{
		ID:            id,
		CustomerID:    customerID,
		ReservationID: "res-" + id,
		CreatedAt:     at,
		Lines: []menu.Line{
			{Menu: "Hamburguesa", Count: 2, UnitPrice: d("3500"), Amount: d("7000")},
			{Menu: "Pepsi", Count: 1, UnitPrice: d("1500"), Amount: d("1500")},
		},
		Subtotal: d("8500"),
		VAT:      d("1615"),
		Total:    d("10115"),
	}
}

func TestOrders_RoundTripWithLines(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	at := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveCustomer(ctx, restaurant.Customer{ID: "c1", Name: "Ana", Email: "ana@example.com"}))

	require.NoError(t, s.SaveOrder(ctx, sampleOrder("o2", "", at.Add(time.Hour))))
	require.NoError(t, s.SaveOrder(ctx, sampleOrder("o1", "c1", at)))

	got, err := s.GetOrder(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, "c1", got.CustomerID)
	assert.Equal(t, at, got.CreatedAt)
	require.Len(t, got.Lines, 2)
	assert.Equal(t, "Hamburguesa", got.Lines[0].Menu)
	assert.True(t, got.Total.Equal(d("10115")))

	all, err := s.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "o1", all[0].ID, "oldest first")
	assert.Equal(t, "", all[1].CustomerID)

	n, err := s.CountOrders(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, s.DeleteOrder(ctx, "o1"))
	_, err = s.GetOrder(ctx, "o1")
	assert.ErrorIs(t, err, restaurant.ErrOrderNotFound)
}

func TestOrders_UnknownCustomerRejected(t *testing.T) {
	s := newStore(t)

	err := s.SaveOrder(context.Background(), sampleOrder("o1", "ghost", time.Now()))

	assert.Error(t, err)
}

func TestListOrders_ChronologicalWithinOneSecond(t *testing.T) {
	// GIVEN: an order on the second and another half a second later
	// WHEN: listing orders
	// THEN: the earlier one comes first, whatever order they were saved in

	s := newStore(t)
	ctx := context.Background()
	at := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveOrder(ctx, sampleOrder("later", "", at.Add(500*time.Millisecond))))
	require.NoError(t, s.SaveOrder(ctx, sampleOrder("earlier", "", at)))
	require.NoError(t, s.SaveOrder(ctx, sampleOrder("middle", "", at.Add(450*time.Millisecond))))

	got, err := s.ListOrders(ctx)

	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "earlier", got[0].ID)
	assert.Equal(t, "middle", got[1].ID)
	assert.Equal(t, "later", got[2].ID)
	assert.Equal(t, at.Add(450*time.Millisecond), got[1].CreatedAt)
}

func TestOrders_CorruptRowIsAnError(t *testing.T) {
	// GIVEN: a stored order whose total and timestamp were damaged outside the store
	// WHEN: reading orders back
	// THEN: the read fails instead of returning zero values

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kitchen.db")
	s, err := sqlite.New(path)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.SaveOrder(ctx, sampleOrder("o1", "", time.Now())))

	raw, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer raw.Close()
	_, err = raw.ExecContext(ctx, "UPDATE orders SET total = 'lots' WHERE id = 'o1'")
	require.NoError(t, err)

	_, err = s.ListOrders(ctx)
	assert.ErrorContains(t, err, `bad amount "lots"`)
	_, err = s.GetOrder(ctx, "o1")
	assert.ErrorContains(t, err, "total")

	_, err = raw.ExecContext(ctx, "UPDATE orders SET total = '10115', created_at = 'yesterday' WHERE id = 'o1'")
	require.NoError(t, err)

	_, err = s.ListOrders(ctx)
	assert.ErrorContains(t, err, `bad timestamp "yesterday"`)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestWithTx_RollsBackOnError(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveIngredient(ctx, stock.Ingredient{Name: "pan", Quantity: d("10")}))

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx restaurant.Store) error {
		if err := tx.SaveIngredient(ctx, stock.Ingredient{Name: "pan", Quantity: d("0")}); err != nil {
			return err
		}
		if err := tx.SaveOrder(ctx, sampleOrder("o1", "", time.Now())); err != nil {
			return err
		}
		return boom
	})

	assert.ErrorIs(t, err, boom)
	ings, _ := s.ListIngredients(ctx)
	assert.True(t, ings[0].Quantity.Equal(d("10")))
	orders, _ := s.ListOrders(ctx)
	assert.Empty(t, orders)
}

func TestReset(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveIngredient(ctx, stock.Ingredient{Name: "pan", Quantity: d("10")}))
	require.NoError(t, s.SaveOrder(ctx, sampleOrder("o1", "", time.Now())))

	require.NoError(t, s.Reset(ctx))

	ings, _ := s.ListIngredients(ctx)
	assert.Empty(t, ings)
	orders, _ := s.ListOrders(ctx)
	assert.Empty(t, orders)
}

// =============================================================================
// SESSION OVER SQLITE
// =============================================================================

func TestSession_SurvivesRestart(t *testing.T) {
	// GIVEN: a session on a database file, seeded and with one order placed
	// WHEN: the store is closed and a new session opens the same file
	// THEN: stock levels, menus and the order history are all back

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kitchen.db")

	st, err := sqlite.New(path)
	require.NoError(t, err)
	sess, err := restaurant.Open(ctx, st, restaurant.Options{})
	require.NoError(t, err)
	menus := menu.HouseMenus()
	require.NoError(t, sess.Seed(ctx, menus, menu.HouseStock(menus)))

	p, err := sess.PlaceOrder(ctx, "", stock.NewOrder(stock.OrderLine{Menu: "Papas Fritas", Count: 4}))
	require.NoError(t, err)
	require.NotNil(t, p.Order)
	require.NoError(t, st.Close())

	st2, err := sqlite.New(path)
	require.NoError(t, err)
	defer st2.Close()
	sess2, err := restaurant.Open(ctx, st2, restaurant.Options{})
	require.NoError(t, err)

	ing, ok := sess2.Ingredient("papas")
	require.True(t, ok)
	assert.True(t, ing.Quantity.Equal(d("94")))
	assert.Len(t, sess2.Menus(), 8)
	orders, err := sess2.Orders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, p.Order.ID, orders[0].ID)
}
