// Package store provides an in-memory restaurant.TxStore.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/kitchen-engine/menu"
	"github.com/warp/kitchen-engine/restaurant"
	"github.com/warp/kitchen-engine/stock"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory keeps everything in maps behind one RWMutex.
type Memory struct {
	mu    sync.RWMutex
	state *memoryState
}

var _ restaurant.TxStore = (*Memory)(nil)

type memoryState struct {
	ingredients     map[stock.Key]stock.Ingredient
	ingredientOrder []stock.Key
	menus           map[string]menu.Menu
	customers       map[string]restaurant.Customer
	customerOrder   []string
	orders          map[string]restaurant.OrderRecord
	orderSeq        []string
}

func newMemoryState() *memoryState {
	return &memoryState{
		ingredients: make(map[stock.Key]stock.Ingredient),
		menus:       make(map[string]menu.Menu),
		customers:   make(map[string]restaurant.Customer),
		orders:      make(map[string]restaurant.OrderRecord),
	}
}

func NewMemory() *Memory {
	return &Memory{state: newMemoryState()}
}

func (m *Memory) view() memoryView {
	return memoryView{s: m.state}
}

func (m *Memory) SaveIngredient(ctx context.Context, ing stock.Ingredient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().SaveIngredient(ctx, ing)
}

func (m *Memory) DeleteIngredient(ctx context.Context, name stock.Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().DeleteIngredient(ctx, name)
}

func (m *Memory) ListIngredients(ctx context.Context) ([]stock.Ingredient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.view().ListIngredients(ctx)
}

func (m *Memory) SaveMenu(ctx context.Context, mn menu.Menu) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().SaveMenu(ctx, mn)
}

func (m *Memory) DeleteMenu(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().DeleteMenu(ctx, name)
}

func (m *Memory) ListMenus(ctx context.Context) ([]menu.Menu, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.view().ListMenus(ctx)
}

func (m *Memory) SaveCustomer(ctx context.Context, c restaurant.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().SaveCustomer(ctx, c)
}

func (m *Memory) GetCustomer(ctx context.Context, id string) (*restaurant.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.view().GetCustomer(ctx, id)
}

func (m *Memory) FindCustomerByEmail(ctx context.Context, email string) (*restaurant.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.view().FindCustomerByEmail(ctx, email)
}

func (m *Memory) ListCustomers(ctx context.Context) ([]restaurant.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.view().ListCustomers(ctx)
}

func (m *Memory) DeleteCustomer(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().DeleteCustomer(ctx, id)
}

func (m *Memory) SaveOrder(ctx context.Context, o restaurant.OrderRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().SaveOrder(ctx, o)
}

func (m *Memory) GetOrder(ctx context.Context, id string) (*restaurant.OrderRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.view().GetOrder(ctx, id)
}

func (m *Memory) ListOrders(ctx context.Context) ([]restaurant.OrderRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.view().ListOrders(ctx)
}

func (m *Memory) CountOrders(ctx context.Context, customerID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.view().CountOrders(ctx, customerID)
}

func (m *Memory) DeleteOrder(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().DeleteOrder(ctx, id)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
func (m *Memory) WithTx(ctx context.Context, fn func(restaurant.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.state.clone()
	if err := fn(m.view()); err != nil {
		m.state = snapshot
		return err
	}
	return nil
}

// Reset deletes everything.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = newMemoryState()
	return nil
}

func (s *memoryState) clone() *memoryState {
	c := newMemoryState()
	for k, v := range s.ingredients {
		c.ingredients[k] = v
	}
	c.ingredientOrder = append([]stock.Key(nil), s.ingredientOrder...)
	for k, v := range s.menus {
		c.menus[k] = v.Clone()
	}
	for k, v := range s.customers {
		c.customers[k] = v
	}
	c.customerOrder = append([]string(nil), s.customerOrder...)
	for k, v := range s.orders {
		c.orders[k] = v.Clone()
	}
	c.orderSeq = append([]string(nil), s.orderSeq...)
	return c
}

// =============================================================================
// VIEW - Lock-free operations, called with the lock already held
// =============================================================================

type memoryView struct {
	s *memoryState
}

func (v memoryView) SaveIngredient(_ context.Context, ing stock.Ingredient) error {
	if _, ok := v.s.ingredients[ing.Name]; !ok {
		v.s.ingredientOrder = append(v.s.ingredientOrder, ing.Name)
	}
	v.s.ingredients[ing.Name] = ing
	return nil
}

func (v memoryView) DeleteIngredient(_ context.Context, name stock.Key) error {
	if _, ok := v.s.ingredients[name]; !ok {
		return nil
	}
	delete(v.s.ingredients, name)
	v.s.ingredientOrder = removeKey(v.s.ingredientOrder, name)
	return nil
}

func (v memoryView) ListIngredients(_ context.Context) ([]stock.Ingredient, error) {
	out := make([]stock.Ingredient, 0, len(v.s.ingredientOrder))
	for _, k := range v.s.ingredientOrder {
		out = append(out, v.s.ingredients[k])
	}
	return out, nil
}

func (v memoryView) SaveMenu(_ context.Context, m menu.Menu) error {
	v.s.menus[m.Name] = m.Clone()
	return nil
}

func (v memoryView) DeleteMenu(_ context.Context, name string) error {
	if _, ok := v.s.menus[name]; !ok {
		return menu.ErrMenuNotFound
	}
	delete(v.s.menus, name)
	return nil
}

func (v memoryView) ListMenus(_ context.Context) ([]menu.Menu, error) {
	out := make([]menu.Menu, 0, len(v.s.menus))
	for _, m := range v.s.menus {
		out = append(out, m.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (v memoryView) SaveCustomer(_ context.Context, c restaurant.Customer) error {
	for id, other := range v.s.customers {
		if id != c.ID && other.Email == c.Email {
			return restaurant.ErrDuplicateEmail
		}
	}
	if _, ok := v.s.customers[c.ID]; !ok {
		v.s.customerOrder = append(v.s.customerOrder, c.ID)
	}
	v.s.customers[c.ID] = c
	return nil
}

func (v memoryView) GetCustomer(_ context.Context, id string) (*restaurant.Customer, error) {
	c, ok := v.s.customers[id]
	if !ok {
		return nil, restaurant.ErrCustomerNotFound
	}
	return &c, nil
}

func (v memoryView) FindCustomerByEmail(_ context.Context, email string) (*restaurant.Customer, error) {
	for _, id := range v.s.customerOrder {
		if c := v.s.customers[id]; c.Email == email {
			return &c, nil
		}
	}
	return nil, restaurant.ErrCustomerNotFound
}

func (v memoryView) ListCustomers(_ context.Context) ([]restaurant.Customer, error) {
	out := make([]restaurant.Customer, 0, len(v.s.customerOrder))
	for _, id := range v.s.customerOrder {
		out = append(out, v.s.customers[id])
	}
	return out, nil
}

func (v memoryView) DeleteCustomer(_ context.Context, id string) error {
	if _, ok := v.s.customers[id]; !ok {
		return restaurant.ErrCustomerNotFound
	}
	delete(v.s.customers, id)
	v.s.customerOrder = removeKey(v.s.customerOrder, id)
	return nil
}

func (v memoryView) SaveOrder(_ context.Context, o restaurant.OrderRecord) error {
	if _, ok := v.s.orders[o.ID]; !ok {
		v.s.orderSeq = append(v.s.orderSeq, o.ID)
	}
	v.s.orders[o.ID] = o.Clone()
	return nil
}

func (v memoryView) GetOrder(_ context.Context, id string) (*restaurant.OrderRecord, error) {
	o, ok := v.s.orders[id]
	if !ok {
		return nil, restaurant.ErrOrderNotFound
	}
	o = o.Clone()
	return &o, nil
}

func (v memoryView) ListOrders(_ context.Context) ([]restaurant.OrderRecord, error) {
	out := make([]restaurant.OrderRecord, 0, len(v.s.orderSeq))
	for _, id := range v.s.orderSeq {
		out = append(out, v.s.orders[id].Clone())
	}
	return out, nil
}

func (v memoryView) CountOrders(_ context.Context, customerID string) (int, error) {
	n := 0
	for _, o := range v.s.orders {
		if o.CustomerID == customerID {
			n++
		}
	}
	return n, nil
}

func (v memoryView) DeleteOrder(_ context.Context, id string) error {
	if _, ok := v.s.orders[id]; !ok {
		return restaurant.ErrOrderNotFound
	}
	delete(v.s.orders, id)
	v.s.orderSeq = removeKey(v.s.orderSeq, id)
	return nil
}

func removeKey[K comparable](keys []K, k K) []K {
	for i, x := range keys {
		if x == k {
			return append(keys[:i], keys[i+1:]...)
		}
	}
	return keys
}
