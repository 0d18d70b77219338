package menu

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/warp/kitchen-engine/stock"
)

// Catalog is the in-memory set of menus, keyed by exact name.
// It implements stock.RequirementProvider.
type Catalog struct {
	mu    sync.RWMutex
	menus map[string]Menu
}

var _ stock.RequirementProvider = (*Catalog)(nil)

// NewCatalog returns a catalog holding menus. Invalid menus are rejected.
func NewCatalog(menus ...Menu) (*Catalog, error) {
	c := &Catalog{menus: make(map[string]Menu)}
	for _, m := range menus {
		if err := c.Put(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Put adds or replaces a menu.
func (c *Catalog) Put(m Menu) error {
	m.Name = strings.TrimSpace(m.Name)
	if err := m.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.menus[m.Name] = m.Clone()
	return nil
}

// Get returns a copy of the named menu.
func (c *Catalog) Get(name string) (Menu, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.menus[name]
	if !ok {
		return Menu{}, false
	}
	return m.Clone(), true
}

// Remove deletes the named menu; unknown names are ignored.
func (c *Catalog) Remove(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.menus, name)
}

// List returns every menu sorted by name.
func (c *Catalog) List() []Menu {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Menu, 0, len(c.menus))
	for _, m := range c.menus {
		out = append(out, m.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of menus.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.menus)
}

// SetRequirement sets how much of ingredient one unit of menu needs,
// replacing any previous quantity.
func (c *Catalog) SetRequirement(menu, ingredient string, quantity decimal.Decimal) error {
	if stock.NewKey(ingredient).IsZero() {
		return &InvalidMenuError{Menu: menu, Reason: "ingredient name is required"}
	}
	if !quantity.IsPositive() {
		return &InvalidMenuError{Menu: menu, Reason: "quantity must be positive"}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.menus[menu]
	if !ok {
		return ErrMenuNotFound
	}
	if m.Requirements == nil {
		m.Requirements = make(stock.Requirements)
	}
	m.Requirements[ingredient] = quantity
	c.menus[menu] = m
	return nil
}

// RequirementsFor returns a copy of the menu's requirements, or an empty map
// for unknown menus.
func (c *Catalog) RequirementsFor(_ context.Context, menu string) (stock.Requirements, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.menus[menu]
	if !ok {
		return stock.Requirements{}, nil
	}
	return m.Requirements.Clone(), nil
}

// PriceOf returns the menu price, zero for unknown menus.
func (c *Catalog) PriceOf(menu string) decimal.Decimal {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if m, ok := c.menus[menu]; ok {
		return m.Price
	}
	return decimal.Zero
}
