package restaurant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/kitchen-engine/menu"
	"github.com/warp/kitchen-engine/stock"
	"go.uber.org/zap"
)

// Options configures a Session. The zero value is usable.
type Options struct {
	Logger   *zap.Logger
	VATRate  decimal.Decimal
	Rounding menu.Rounding
	Now      func() time.Time
	NewID    func() string
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.VATRate.IsZero() {
		o.VATRate = menu.DefaultVATRate
	}
	if o.Rounding == "" {
		o.Rounding = menu.RoundHalfAwayFromZero
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	return o
}

// Session is one running kitchen. All methods are safe for concurrent use.
// Mutations are serialized so the store sees them in ledger order.
type Session struct {
	mu      sync.RWMutex
	store   TxStore
	ledger  *stock.IngredientLedger
	catalog *menu.Catalog
	engine  *stock.Engine
	opts    Options
	logger  *zap.Logger
}

// Placement is the outcome of PlaceOrder. Order is nil when the order was
// rejected for lack of stock; Result then carries the shortages.
type Placement struct {
	Result stock.Result
	Order  *OrderRecord
}

// Open loads ingredients and menus from store and returns a ready session.
func Open(ctx context.Context, store TxStore, opts Options) (*Session, error) {
	opts = opts.withDefaults()
	s := &Session{store: store, opts: opts, logger: opts.Logger}
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	s.logger.Info("session opened",
		zap.Int("ingredients", s.ledger.Len()),
		zap.Int("menus", s.catalog.Len()),
	)
	return s, nil
}

func (s *Session) load(ctx context.Context) error {
	ledger := stock.NewIngredientLedger()
	ings, err := s.store.ListIngredients(ctx)
	if err != nil {
		return fmt.Errorf("load ingredients: %w", err)
	}
	for _, ing := range ings {
		if err := ledger.Load(ing); err != nil {
			return fmt.Errorf("load ingredient %q: %w", ing.Name, err)
		}
	}

	menus, err := s.store.ListMenus(ctx)
	if err != nil {
		return fmt.Errorf("load menus: %w", err)
	}
	catalog, err := menu.NewCatalog(menus...)
	if err != nil {
		return fmt.Errorf("load menus: %w", err)
	}

	s.ledger = ledger
	s.catalog = catalog
	s.engine = stock.NewEngine(ledger, catalog, stock.WithLogger(s.logger.Named("stock")))
	return nil
}

// =============================================================================
// INGREDIENTS
// =============================================================================

// Restock adds quantity to an ingredient, creating it if needed, and saves the
// new level. A negative quantity is a correction and may not drive the level
// below zero.
func (s *Session) Restock(ctx context.Context, name, unit string, quantity decimal.Decimal) (stock.Ingredient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.ledger.Get(name)
	ing, err := s.ledger.Upsert(name, unit, quantity)
	if err != nil {
		return stock.Ingredient{}, err
	}
	if err := s.store.SaveIngredient(ctx, ing); err != nil {
		if existed {
			_ = s.ledger.Load(prev)
		} else {
			s.ledger.Remove(name)
		}
		return stock.Ingredient{}, fmt.Errorf("save ingredient: %w", err)
	}
	s.logger.Debug("ingredient restocked",
		zap.String("ingredient", ing.Name.String()),
		zap.String("quantity", ing.Quantity.String()),
	)
	return ing, nil
}

// RemoveIngredient deletes an ingredient. Menus using it become unpreparable
// until it is restocked.
func (s *Session) RemoveIngredient(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := stock.NewKey(name)
	if !s.ledger.Contains(name) {
		return &stock.NotFoundError{Ingredient: key}
	}
	if err := s.store.DeleteIngredient(ctx, key); err != nil {
		return fmt.Errorf("delete ingredient: %w", err)
	}
	s.ledger.Remove(name)
	return nil
}

// Ingredients returns every ingredient in insertion order.
func (s *Session) Ingredients() []stock.Ingredient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.Snapshot()
}

// Ingredient returns one ingredient.
func (s *Session) Ingredient(name string) (stock.Ingredient, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.Get(name)
}

// =============================================================================
// MENUS
// =============================================================================

// SaveMenu creates or replaces a menu.
func (s *Session) SaveMenu(ctx context.Context, m menu.Menu) error {
	return s.SaveMenus(ctx, []menu.Menu{m})
}

// SaveMenus creates or replaces several menus in one store transaction.
// Either every menu is saved or none is.
func (s *Session) SaveMenus(ctx context.Context, menus []menu.Menu) error {
	trimmed := make([]menu.Menu, len(menus))
	for i, m := range menus {
		m.Name = strings.TrimSpace(m.Name)
		if err := m.Validate(); err != nil {
			return err
		}
		trimmed[i] = m
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.store.WithTx(ctx, func(tx Store) error {
		for _, m := range trimmed {
			if err := tx.SaveMenu(ctx, m); err != nil {
				return fmt.Errorf("menu %q: %w", m.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save menus: %w", err)
	}
	for _, m := range trimmed {
		if err := s.catalog.Put(m); err != nil {
			return err
		}
	}
	return nil
}

// RemoveMenu deletes a menu. Past orders keep their frozen lines.
func (s *Session) RemoveMenu(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.catalog.Get(name); !ok {
		return menu.ErrMenuNotFound
	}
	if err := s.store.DeleteMenu(ctx, name); err != nil {
		return fmt.Errorf("delete menu: %w", err)
	}
	s.catalog.Remove(name)
	return nil
}

// Menus returns every menu sorted by name.
func (s *Session) Menus() []menu.Menu {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog.List()
}

// Menu returns one menu.
func (s *Session) Menu(name string) (menu.Menu, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog.Get(name)
}

// Preparable reports which menus one unit of could be made now.
func (s *Session) Preparable(ctx context.Context) ([]menu.Availability, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return menu.Preparable(ctx, s.engine, s.catalog)
}

// =============================================================================
// ORDERS
// =============================================================================

// Evaluate reports whether order could be placed now without changing
// anything.
func (s *Session) Evaluate(ctx context.Context, order stock.Order) (stock.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.Evaluate(ctx, order)
}

// Quote prices order without placing it.
func (s *Session) Quote(order stock.Order) menu.Receipt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return menu.NewReceipt(order, s.catalog, s.receiptOptions(""))
}

func (s *Session) receiptOptions(id string) menu.ReceiptOptions {
	return menu.ReceiptOptions{
		VATRate:  s.opts.VATRate,
		Rounding: s.opts.Rounding,
		ID:       id,
		Now:      s.opts.Now,
	}
}

// PlaceOrder commits order against the ledger and records it. customerID may
// be empty for walk-in orders. A shortage is not an error: the returned
// Placement has a nil Order and a Result listing the shortages.
func (s *Session) PlaceOrder(ctx context.Context, customerID string, order stock.Order) (Placement, error) {
	if order.IsEmpty() {
		return Placement{}, ErrEmptyOrder
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if customerID != "" {
		if _, err := s.store.GetCustomer(ctx, customerID); err != nil {
			return Placement{}, err
		}
	}

	result, err := s.engine.Commit(ctx, order)
	if err != nil {
		return Placement{Result: result}, err
	}
	if !result.OK {
		return Placement{Result: result}, nil
	}

	receipt := menu.NewReceipt(order, s.catalog, s.receiptOptions(s.opts.NewID()))
	record := newOrderRecord(customerID, result.ReservationID, receipt)
	touched := s.ledger.Snapshot(result.Demand.Keys()...)

	err = s.store.WithTx(ctx, func(tx Store) error {
		for _, ing := range touched {
			if err := tx.SaveIngredient(ctx, ing); err != nil {
				return err
			}
		}
		return tx.SaveOrder(ctx, record)
	})
	if err != nil {
		s.restore(result.Demand)
		s.logger.Error("order not persisted, stock returned",
			zap.String("order_id", record.ID),
			zap.String("reservation_id", result.ReservationID),
			zap.Error(err),
		)
		return Placement{Result: result}, fmt.Errorf("save order: %w", err)
	}

	s.logger.Info("order placed",
		zap.String("order_id", record.ID),
		zap.String("customer_id", customerID),
		zap.String("total", record.Total.String()),
	)
	return Placement{Result: result, Order: &record}, nil
}

// restore gives a committed demand back to the ledger.
func (s *Session) restore(demand stock.Demand) {
	for _, k := range demand.Keys() {
		if _, err := s.ledger.Upsert(k.String(), "", demand.Quantity(k)); err != nil {
			s.logger.Error("stock restore failed", zap.String("ingredient", k.String()), zap.Error(err))
		}
	}
}

// Orders returns every placed order, oldest first.
func (s *Session) Orders(ctx context.Context) ([]OrderRecord, error) {
	return s.store.ListOrders(ctx)
}

// Order returns one placed order.
func (s *Session) Order(ctx context.Context, id string) (*OrderRecord, error) {
	return s.store.GetOrder(ctx, id)
}

// DeleteOrder removes an order from the history. Stock is not returned.
func (s *Session) DeleteOrder(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.DeleteOrder(ctx, id)
}

// =============================================================================
// CUSTOMERS
// =============================================================================

// CreateCustomer registers a customer. If the email is already registered the
// existing customer is returned with created == false.
func (s *Session) CreateCustomer(ctx context.Context, name, email string) (c Customer, created bool, err error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if name == "" || email == "" {
		return Customer{}, false, fmt.Errorf("%w: name and email are required", ErrInvalidCustomer)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.store.FindCustomerByEmail(ctx, email)
	switch {
	case err == nil:
		return *existing, false, nil
	case !errors.Is(err, ErrCustomerNotFound):
		return Customer{}, false, err
	}

	c = Customer{ID: s.opts.NewID(), Name: name, Email: email, CreatedAt: s.opts.Now().UTC()}
	if err := s.store.SaveCustomer(ctx, c); err != nil {
		return Customer{}, false, err
	}
	return c, true, nil
}

// UpdateCustomer changes name and/or email. Empty arguments leave the field
// unchanged.
func (s *Session) UpdateCustomer(ctx context.Context, id, name, email string) (Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.store.GetCustomer(ctx, id)
	if err != nil {
		return Customer{}, err
	}
	if n := strings.TrimSpace(name); n != "" {
		c.Name = n
	}
	if e := strings.TrimSpace(email); e != "" {
		c.Email = e
	}
	if err := s.store.SaveCustomer(ctx, *c); err != nil {
		return Customer{}, err
	}
	return *c, nil
}

// DeleteCustomer removes a customer with no orders.
func (s *Session) DeleteCustomer(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.store.GetCustomer(ctx, id); err != nil {
		return err
	}
	n, err := s.store.CountOrders(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: %d", ErrCustomerHasOrders, n)
	}
	return s.store.DeleteCustomer(ctx, id)
}

// Customers returns every customer.
func (s *Session) Customers(ctx context.Context) ([]Customer, error) {
	return s.store.ListCustomers(ctx)
}

// Customer returns one customer.
func (s *Session) Customer(ctx context.Context, id string) (*Customer, error) {
	return s.store.GetCustomer(ctx, id)
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Reset wipes the store and empties the session.
func (s *Session) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Reset(ctx); err != nil {
		return fmt.Errorf("reset store: %w", err)
	}
	return s.load(ctx)
}

// Seed saves menus and absolute ingredient levels in one store transaction,
// then reloads the session from the store.
func (s *Session) Seed(ctx context.Context, menus []menu.Menu, ingredients []stock.Ingredient) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.store.WithTx(ctx, func(tx Store) error {
		for _, ing := range ingredients {
			ing.Name = stock.NewKey(ing.Name.String())
			if err := tx.SaveIngredient(ctx, ing); err != nil {
				return err
			}
		}
		for _, m := range menus {
			if err := m.Validate(); err != nil {
				return err
			}
			if err := tx.SaveMenu(ctx, m); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	return s.load(ctx)
}
