/*
Package menu defines the restaurant's menu items and what they cost.

PURPOSE:
  Wraps the stock engine with restaurant-specific concepts: a menu item has
  a price and a recipe (its stock.Requirements). The catalog is the
  in-memory requirement provider the engine consults, receipts turn an
  order into priced lines with VAT, and Preparable answers "what can the
  kitchen make right now?".

WHY A SEPARATE PACKAGE?
  The stock engine only understands ingredients and quantities. Prices,
  VAT and menu descriptions are not its business; keeping them here means
  the engine can be tested with a plain StaticRequirements table.

SEE ALSO:
  - catalog.go: Catalog (stock.RequirementProvider)
  - receipt.go: Receipt, VAT rounding
  - availability.go: Preparable probe
  - factory.go: House menus and JSON parsing
*/
package menu

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/kitchen-engine/stock"
)

var (
	// ErrInvalidMenu is returned when a menu fails validation.
	ErrInvalidMenu = errors.New("invalid menu")

	// ErrMenuNotFound is returned when a named menu does not exist.
	ErrMenuNotFound = errors.New("menu not found")
)

// InvalidMenuError says which field of which menu was rejected.
type InvalidMenuError struct {
	Menu   string
	Reason string
}

func (e *InvalidMenuError) Error() string {
	return fmt.Sprintf("invalid menu %q: %s", e.Menu, e.Reason)
}

func (e *InvalidMenuError) Unwrap() error { return ErrInvalidMenu }

// Menu is one item on the menu. Requirements are per unit served.
type Menu struct {
	Name         string
	Price        decimal.Decimal
	Description  string
	Requirements stock.Requirements
}

// Validate checks the invariants a stored menu must satisfy: a name, a
// positive price, and positive quantities for every ingredient.
func (m Menu) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return &InvalidMenuError{Menu: m.Name, Reason: "name is required"}
	}
	if !m.Price.IsPositive() {
		return &InvalidMenuError{Menu: m.Name, Reason: "price must be positive"}
	}
	for ing, q := range m.Requirements {
		if stock.NewKey(ing).IsZero() {
			return &InvalidMenuError{Menu: m.Name, Reason: "ingredient name is required"}
		}
		if !q.IsPositive() {
			return &InvalidMenuError{Menu: m.Name, Reason: fmt.Sprintf("quantity of %q must be positive", ing)}
		}
	}
	return nil
}

// Clone returns a copy whose Requirements can be modified independently.
func (m Menu) Clone() Menu {
	m.Requirements = m.Requirements.Clone()
	return m
}
