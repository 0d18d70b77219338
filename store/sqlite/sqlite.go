/*
Package sqlite provides a SQLite-backed restaurant.TxStore.

PURPOSE:
  Persists the kitchen between restarts: ingredient levels, menus with
  their requirements, customers, and the order history. The Session loads
  from it once at startup and writes through it after every change.

KEY TABLES:
  ingredients:       name (normalized key), unit, quantity
  menus:             name, price, description
  menu_ingredients:  per-unit requirements of each menu (cascade on delete)
  customers:         id, name, unique email
  orders:            frozen receipt totals, optional customer
  order_lines:       priced lines of each order (cascade on delete)

DECIMALS:
  Quantities and amounts are stored as TEXT and parsed with
  shopspring/decimal. 0.1 stays 0.1.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/kitchen.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  session, err := restaurant.Open(ctx, store, restaurant.Options{})

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - restaurant/store.go: Interface definitions
  - restaurant/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/kitchen-engine/menu"
	"github.com/warp/kitchen-engine/restaurant"
	"github.com/warp/kitchen-engine/stock"
)

// Store implements restaurant.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var (
	_ restaurant.TxStore        = (*Store)(nil)
	_ stock.RequirementProvider = (*Store)(nil)
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS ingredients (
		name TEXT PRIMARY KEY,
		unit TEXT NOT NULL DEFAULT '',
		quantity TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS menus (
		name TEXT PRIMARY KEY,
		price TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL
	);

	-- ingredient is the name as written in the recipe; it is normalized
	-- when orders are aggregated, not here
	CREATE TABLE IF NOT EXISTS menu_ingredients (
		menu_name TEXT NOT NULL REFERENCES menus(name) ON DELETE CASCADE,
		ingredient TEXT NOT NULL,
		quantity TEXT NOT NULL,
		PRIMARY KEY (menu_name, ingredient)
	);

	CREATE TABLE IF NOT EXISTS customers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		customer_id TEXT REFERENCES customers(id),
		reservation_id TEXT NOT NULL,
		created_at TEXT NOT NULL,
		subtotal TEXT NOT NULL,
		vat TEXT NOT NULL,
		total TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_orders_customer
		ON orders(customer_id) WHERE customer_id IS NOT NULL;
	CREATE INDEX IF NOT EXISTS idx_orders_created_at
		ON orders(created_at);

	CREATE TABLE IF NOT EXISTS order_lines (
		order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		menu TEXT NOT NULL,
		count INTEGER NOT NULL,
		unit_price TEXT NOT NULL,
		amount TEXT NOT NULL,
		PRIMARY KEY (order_id, position)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store restaurant.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{q: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"order_lines", "orders", "customers", "menu_ingredients", "menus", "ingredients"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// txStore runs every operation on one *sql.Tx. The parent's lock is held
// for the whole transaction, so it does not lock again.
type txStore struct {
	q querier
}

// =============================================================================
// INGREDIENTS
// =============================================================================

func (s *Store) SaveIngredient(ctx context.Context, ing stock.Ingredient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveIngredient(ctx, s.db, ing)
}

func (s *Store) DeleteIngredient(ctx context.Context, name stock.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteIngredient(ctx, s.db, name)
}

func (s *Store) ListIngredients(ctx context.Context) ([]stock.Ingredient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listIngredients(ctx, s.db)
}

func (t *txStore) SaveIngredient(ctx context.Context, ing stock.Ingredient) error {
	return saveIngredient(ctx, t.q, ing)
}

func (t *txStore) DeleteIngredient(ctx context.Context, name stock.Key) error {
	return deleteIngredient(ctx, t.q, name)
}

func (t *txStore) ListIngredients(ctx context.Context) ([]stock.Ingredient, error) {
	return listIngredients(ctx, t.q)
}

func saveIngredient(ctx context.Context, q querier, ing stock.Ingredient) error {
	query := `
		INSERT INTO ingredients (name, unit, quantity, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			unit = excluded.unit,
			quantity = excluded.quantity,
			updated_at = excluded.updated_at
	`
	_, err := q.ExecContext(ctx, query,
		ing.Name.String(), ing.Unit, ing.Quantity.String(), now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save ingredient %q: %w", ing.Name, err)
	}
	return nil
}

func deleteIngredient(ctx context.Context, q querier, name stock.Key) error {
	_, err := q.ExecContext(ctx, "DELETE FROM ingredients WHERE name = ?", name.String())
	return err
}

// Ingredients come back in insertion order; an upsert keeps its rowid.
func listIngredients(ctx context.Context, q querier) ([]stock.Ingredient, error) {
	rows, err := q.QueryContext(ctx, "SELECT name, unit, quantity FROM ingredients ORDER BY rowid")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []stock.Ingredient
	for rows.Next() {
		var name, unit, qty string
		if err := rows.Scan(&name, &unit, &qty); err != nil {
			return nil, err
		}
		d, err := decimal.NewFromString(qty)
		if err != nil {
			return nil, fmt.Errorf("ingredient %q: bad quantity %q: %w", name, qty, err)
		}
		out = append(out, stock.Ingredient{Name: stock.Key(name), Unit: unit, Quantity: d})
	}
	return out, rows.Err()
}

// =============================================================================
// MENUS
// =============================================================================

func (s *Store) SaveMenu(ctx context.Context, m menu.Menu) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := saveMenu(ctx, sqlTx, m); err != nil {
		return err
	}
	return sqlTx.Commit()
}

func (s *Store) DeleteMenu(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteMenu(ctx, s.db, name)
}

func (s *Store) ListMenus(ctx context.Context) ([]menu.Menu, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listMenus(ctx, s.db)
}

// RequirementsFor reads one menu's requirements straight from the database.
// Unknown menus have no requirements.
func (s *Store) RequirementsFor(ctx context.Context, name string) (stock.Requirements, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all, err := loadRequirements(ctx, s.db, "WHERE menu_name = ?", name)
	if err != nil {
		return nil, err
	}
	if reqs, ok := all[name]; ok {
		return reqs, nil
	}
	return stock.Requirements{}, nil
}

func (t *txStore) SaveMenu(ctx context.Context, m menu.Menu) error {
	return saveMenu(ctx, t.q, m)
}

func (t *txStore) DeleteMenu(ctx context.Context, name string) error {
	return deleteMenu(ctx, t.q, name)
}

func (t *txStore) ListMenus(ctx context.Context) ([]menu.Menu, error) {
	return listMenus(ctx, t.q)
}

// saveMenu replaces the menu row and all of its requirement rows. q must be
// a transaction.
func saveMenu(ctx context.Context, q querier, m menu.Menu) error {
	query := `
		INSERT INTO menus (name, price, description, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			price = excluded.price,
			description = excluded.description,
			updated_at = excluded.updated_at
	`
	if _, err := q.ExecContext(ctx, query, m.Name, m.Price.String(), m.Description, now()); err != nil {
		return fmt.Errorf("failed to save menu %q: %w", m.Name, err)
	}
	if _, err := q.ExecContext(ctx, "DELETE FROM menu_ingredients WHERE menu_name = ?", m.Name); err != nil {
		return err
	}
	for ing, qty := range m.Requirements {
		_, err := q.ExecContext(ctx,
			"INSERT INTO menu_ingredients (menu_name, ingredient, quantity) VALUES (?, ?, ?)",
			m.Name, ing, qty.String(),
		)
		if err != nil {
			return fmt.Errorf("failed to save requirement %q of menu %q: %w", ing, m.Name, err)
		}
	}
	return nil
}

func deleteMenu(ctx context.Context, q querier, name string) error {
	res, err := q.ExecContext(ctx, "DELETE FROM menus WHERE name = ?", name)
	if err != nil {
		return err
	}
	return requireAffected(res, menu.ErrMenuNotFound)
}

func listMenus(ctx context.Context, q querier) ([]menu.Menu, error) {
	rows, err := q.QueryContext(ctx, "SELECT name, price, description FROM menus ORDER BY name")
	if err != nil {
		return nil, err
	}
	var menus []menu.Menu
	for rows.Next() {
		var m menu.Menu
		var price string
		if err := rows.Scan(&m.Name, &price, &m.Description); err != nil {
			rows.Close()
			return nil, err
		}
		if m.Price, err = decimal.NewFromString(price); err != nil {
			rows.Close()
			return nil, fmt.Errorf("menu %q: bad price %q: %w", m.Name, price, err)
		}
		menus = append(menus, m)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	reqs, err := loadRequirements(ctx, q, "")
	if err != nil {
		return nil, err
	}
	for i := range menus {
		menus[i].Requirements = reqs[menus[i].Name]
		if menus[i].Requirements == nil {
			menus[i].Requirements = stock.Requirements{}
		}
	}
	return menus, nil
}

func loadRequirements(ctx context.Context, q querier, where string, args ...any) (map[string]stock.Requirements, error) {
	rows, err := q.QueryContext(ctx, "SELECT menu_name, ingredient, quantity FROM menu_ingredients "+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]stock.Requirements)
	for rows.Next() {
		var menuName, ing, qty string
		if err := rows.Scan(&menuName, &ing, &qty); err != nil {
			return nil, err
		}
		d, err := decimal.NewFromString(qty)
		if err != nil {
			return nil, fmt.Errorf("menu %q ingredient %q: bad quantity %q: %w", menuName, ing, qty, err)
		}
		if out[menuName] == nil {
			out[menuName] = make(stock.Requirements)
		}
		out[menuName][ing] = d
	}
	return out, rows.Err()
}

// =============================================================================
// CUSTOMERS
// =============================================================================

func (s *Store) SaveCustomer(ctx context.Context, c restaurant.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveCustomer(ctx, s.db, c)
}

func (s *Store) GetCustomer(ctx context.Context, id string) (*restaurant.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getCustomer(ctx, s.db, "id = ?", id)
}

func (s *Store) FindCustomerByEmail(ctx context.Context, email string) (*restaurant.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getCustomer(ctx, s.db, "email = ?", email)
}

func (s *Store) ListCustomers(ctx context.Context) ([]restaurant.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listCustomers(ctx, s.db)
}

func (s *Store) DeleteCustomer(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteCustomer(ctx, s.db, id)
}

func (t *txStore) SaveCustomer(ctx context.Context, c restaurant.Customer) error {
	return saveCustomer(ctx, t.q, c)
}

func (t *txStore) GetCustomer(ctx context.Context, id string) (*restaurant.Customer, error) {
	return getCustomer(ctx, t.q, "id = ?", id)
}

func (t *txStore) FindCustomerByEmail(ctx context.Context, email string) (*restaurant.Customer, error) {
	return getCustomer(ctx, t.q, "email = ?", email)
}

func (t *txStore) ListCustomers(ctx context.Context) ([]restaurant.Customer, error) {
	return listCustomers(ctx, t.q)
}

func (t *txStore) DeleteCustomer(ctx context.Context, id string) error {
	return deleteCustomer(ctx, t.q, id)
}

func saveCustomer(ctx context.Context, q querier, c restaurant.Customer) error {
	query := `
		INSERT INTO customers (id, name, email, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email
	`
	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := q.ExecContext(ctx, query, c.ID, c.Name, c.Email, formatTime(createdAt))
	if err != nil {
		if isUniqueConstraintError(err) {
			return restaurant.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to save customer: %w", err)
	}
	return nil
}

func getCustomer(ctx context.Context, q querier, where string, arg any) (*restaurant.Customer, error) {
	var c restaurant.Customer
	var createdAt string
	err := q.QueryRowContext(ctx,
		"SELECT id, name, email, created_at FROM customers WHERE "+where, arg,
	).Scan(&c.ID, &c.Name, &c.Email, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, restaurant.ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("customer %q: %w", c.ID, err)
	}
	return &c, nil
}

func listCustomers(ctx context.Context, q querier) ([]restaurant.Customer, error) {
	rows, err := q.QueryContext(ctx, "SELECT id, name, email, created_at FROM customers ORDER BY rowid")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []restaurant.Customer
	for rows.Next() {
		var c restaurant.Customer
		var createdAt string
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &createdAt); err != nil {
			return nil, err
		}
		var err error
		if c.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("customer %q: %w", c.ID, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func deleteCustomer(ctx context.Context, q querier, id string) error {
	res, err := q.ExecContext(ctx, "DELETE FROM customers WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(res, restaurant.ErrCustomerNotFound)
}

// =============================================================================
// ORDERS
// =============================================================================

func (s *Store) SaveOrder(ctx context.Context, o restaurant.OrderRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := saveOrder(ctx, sqlTx, o); err != nil {
		return err
	}
	return sqlTx.Commit()
}

func (s *Store) GetOrder(ctx context.Context, id string) (*restaurant.OrderRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getOrder(ctx, s.db, id)
}

func (s *Store) ListOrders(ctx context.Context) ([]restaurant.OrderRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listOrders(ctx, s.db)
}

func (s *Store) CountOrders(ctx context.Context, customerID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return countOrders(ctx, s.db, customerID)
}

func (s *Store) DeleteOrder(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteOrder(ctx, s.db, id)
}

func (t *txStore) SaveOrder(ctx context.Context, o restaurant.OrderRecord) error {
	return saveOrder(ctx, t.q, o)
}

func (t *txStore) GetOrder(ctx context.Context, id string) (*restaurant.OrderRecord, error) {
	return getOrder(ctx, t.q, id)
}

func (t *txStore) ListOrders(ctx context.Context) ([]restaurant.OrderRecord, error) {
	return listOrders(ctx, t.q)
}

func (t *txStore) CountOrders(ctx context.Context, customerID string) (int, error) {
	return countOrders(ctx, t.q, customerID)
}

func (t *txStore) DeleteOrder(ctx context.Context, id string) error {
	return deleteOrder(ctx, t.q, id)
}

// saveOrder writes the order and its lines. q must be a transaction.
func saveOrder(ctx context.Context, q querier, o restaurant.OrderRecord) error {
	query := `
		INSERT INTO orders (id, customer_id, reservation_id, created_at, subtotal, vat, total)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := q.ExecContext(ctx, query,
		o.ID, nullString(o.CustomerID), o.ReservationID, formatTime(o.CreatedAt),
		o.Subtotal.String(), o.VAT.String(), o.Total.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}
	for i, l := range o.Lines {
		_, err := q.ExecContext(ctx, `
			INSERT INTO order_lines (order_id, position, menu, count, unit_price, amount)
			VALUES (?, ?, ?, ?, ?, ?)`,
			o.ID, i, l.Menu, l.Count, l.UnitPrice.String(), l.Amount.String(),
		)
		if err != nil {
			return fmt.Errorf("failed to save order line: %w", err)
		}
	}
	return nil
}

const orderColumns = "id, COALESCE(customer_id, ''), reservation_id, created_at, subtotal, vat, total"

func getOrder(ctx context.Context, q querier, id string) (*restaurant.OrderRecord, error) {
	orders, err := queryOrders(ctx, q, "SELECT "+orderColumns+" FROM orders WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, restaurant.ErrOrderNotFound
	}
	return &orders[0], nil
}

func listOrders(ctx context.Context, q querier) ([]restaurant.OrderRecord, error) {
	return queryOrders(ctx, q, "SELECT "+orderColumns+" FROM orders ORDER BY created_at, rowid")
}

func queryOrders(ctx context.Context, q querier, query string, args ...any) ([]restaurant.OrderRecord, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	var orders []restaurant.OrderRecord
	for rows.Next() {
		var o restaurant.OrderRecord
		var createdAt, subtotal, vat, total string
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.ReservationID, &createdAt, &subtotal, &vat, &total); err != nil {
			rows.Close()
			return nil, err
		}
		if err := scanOrderValues(&o, createdAt, subtotal, vat, total); err != nil {
			rows.Close()
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range orders {
		lines, err := orderLines(ctx, q, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Lines = lines
	}
	return orders, nil
}

func orderLines(ctx context.Context, q querier, orderID string) ([]menu.Line, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT menu, count, unit_price, amount FROM order_lines WHERE order_id = ? ORDER BY position",
		orderID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []menu.Line
	for rows.Next() {
		var l menu.Line
		var unit, amount string
		if err := rows.Scan(&l.Menu, &l.Count, &unit, &amount); err != nil {
			return nil, err
		}
		var err error
		if l.UnitPrice, err = parseAmount(unit); err != nil {
			return nil, fmt.Errorf("order %q line %q: unit price: %w", orderID, l.Menu, err)
		}
		if l.Amount, err = parseAmount(amount); err != nil {
			return nil, fmt.Errorf("order %q line %q: amount: %w", orderID, l.Menu, err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func scanOrderValues(o *restaurant.OrderRecord, createdAt, subtotal, vat, total string) error {
	var err error
	if o.CreatedAt, err = parseTime(createdAt); err != nil {
		return fmt.Errorf("order %q: %w", o.ID, err)
	}
	if o.Subtotal, err = parseAmount(subtotal); err != nil {
		return fmt.Errorf("order %q: subtotal: %w", o.ID, err)
	}
	if o.VAT, err = parseAmount(vat); err != nil {
		return fmt.Errorf("order %q: vat: %w", o.ID, err)
	}
	if o.Total, err = parseAmount(total); err != nil {
		return fmt.Errorf("order %q: total: %w", o.ID, err)
	}
	return nil
}

func countOrders(ctx context.Context, q querier, customerID string) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders WHERE customer_id = ?", customerID).Scan(&n)
	return n, err
}

func deleteOrder(ctx context.Context, q querier, id string) error {
	res, err := q.ExecContext(ctx, "DELETE FROM orders WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(res, restaurant.ErrOrderNotFound)
}

// =============================================================================
// HELPERS
// =============================================================================

func now() string {
	return formatTime(time.Now())
}

// timeLayout is fixed width so that text order is time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime also reads rows written with the older RFC3339Nano layout.
func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad timestamp %q: %w", s, err)
	}
	return t, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("bad amount %q: %w", s, err)
	}
	return d, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
