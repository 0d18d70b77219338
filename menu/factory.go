/*
factory.go - JSON to Menu conversion

PURPOSE:
  Converts JSON menu definitions into Menu values so a kitchen can be set
  up without code changes. The house menu set ships as JSON too, which
  keeps one parsing path for seed data and uploads.

JSON SCHEMA:
  [
    {
      "name": "Hamburguesa",
      "price": "3500",
      "description": "Classic burger",
      "ingredients": [
        {"name": "pan de hamburguesa", "quantity": "1"},
        {"name": "carne", "quantity": "1"}
      ]
    }
  ]

  Prices and quantities may be JSON strings or numbers; both are parsed
  as decimals so 0.1 stays exactly 0.1.

USAGE:
  menus, err := menu.ParseMenus([]byte(jsonStr))
  catalog, err := menu.NewCatalog(menus...)

SEE ALSO:
  - menu.go: Menu.Validate
*/
package menu

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/kitchen-engine/stock"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// MenuJSON is the JSON representation of a menu.
type MenuJSON struct {
	Name        string            `json:"name"`
	Price       decimal.Decimal   `json:"price"`
	Description string            `json:"description,omitempty"`
	Ingredients []RequirementJSON `json:"ingredients"`
}

// RequirementJSON is one ingredient line of a menu.
type RequirementJSON struct {
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
}

// =============================================================================
// PARSING
// =============================================================================

// ParseMenus parses a JSON array of menus and validates each one. Duplicate
// ingredient lines within a menu are summed.
func ParseMenus(data []byte) ([]Menu, error) {
	var raw []MenuJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid menu JSON: %w", err)
	}

	menus := make([]Menu, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, mj := range raw {
		m := mj.Menu()
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("menu %d: %w", i, err)
		}
		if seen[m.Name] {
			return nil, fmt.Errorf("menu %d: %w", i, &InvalidMenuError{Menu: m.Name, Reason: "duplicate name"})
		}
		seen[m.Name] = true
		menus = append(menus, m)
	}
	return menus, nil
}

// Menu converts the JSON form to a Menu without validating it.
func (mj MenuJSON) Menu() Menu {
	reqs := make(stock.Requirements, len(mj.Ingredients))
	for _, r := range mj.Ingredients {
		reqs[r.Name] = reqs[r.Name].Add(r.Quantity)
	}
	return Menu{
		Name:         mj.Name,
		Price:        mj.Price,
		Description:  mj.Description,
		Requirements: reqs,
	}
}

// ToJSON converts a menu back to its JSON form with ingredients in sorted
// key order.
func ToJSON(m Menu) MenuJSON {
	d := stock.NewDemand()
	stock.AddRequirements(&d, m.Requirements, 1)
	out := MenuJSON{Name: m.Name, Price: m.Price, Description: m.Description}
	for _, k := range d.Keys() {
		out.Ingredients = append(out.Ingredients, RequirementJSON{Name: k.String(), Quantity: d.Quantity(k)})
	}
	return out
}

// =============================================================================
// HOUSE MENUS
// =============================================================================

// HouseStockUnit and HouseStockQuantity describe the opening stock the house
// seed gives every ingredient its menus use.
const (
	HouseStockUnit     = "unid"
	HouseStockQuantity = 100
)

const houseMenusJSON = `[
  {"name": "Hamburguesa", "price": "3500", "description": "Hamburguesa con queso",
   "ingredients": [
     {"name": "pan de hamburguesa", "quantity": "1"},
     {"name": "carne", "quantity": "1"},
     {"name": "lamina de queso", "quantity": "1"}]},
  {"name": "Completo", "price": "2500", "description": "Completo con tomate",
   "ingredients": [
     {"name": "pan de completo", "quantity": "1"},
     {"name": "vienesa", "quantity": "1"},
     {"name": "tomate", "quantity": "0.5"}]},
  {"name": "Papas Fritas", "price": "2000",
   "ingredients": [{"name": "papas", "quantity": "1.5"}]},
  {"name": "Pollo Frito", "price": "4500",
   "ingredients": [{"name": "presa de pollo", "quantity": "2"}]},
  {"name": "Panqueques", "price": "3000",
   "ingredients": [
     {"name": "panqueques", "quantity": "1"},
     {"name": "huevos", "quantity": "1"},
     {"name": "porcion de harina", "quantity": "0.1"}]},
  {"name": "Ensalada Mixta", "price": "2200",
   "ingredients": [
     {"name": "lechuga", "quantity": "1.2"},
     {"name": "zanahoria rallada", "quantity": "2.15"},
     {"name": "tomate", "quantity": "3.15"}]},
  {"name": "Coca Cola", "price": "1500",
   "ingredients": [{"name": "coca cola", "quantity": "1"}]},
  {"name": "Pepsi", "price": "1500",
   "ingredients": [{"name": "pepsi", "quantity": "1"}]}
]`

// HouseMenus returns the default menu set.
func HouseMenus() []Menu {
	menus, err := ParseMenus([]byte(houseMenusJSON))
	if err != nil {
		panic(fmt.Sprintf("house menus: %v", err))
	}
	return menus
}

// HouseStock returns the opening stock for every ingredient used by menus,
// in first-seen order.
func HouseStock(menus []Menu) []stock.Ingredient {
	d := stock.NewDemand()
	for _, m := range menus {
		stock.AddRequirements(&d, m.Requirements, 1)
	}
	out := make([]stock.Ingredient, 0, d.Len())
	for _, k := range d.Keys() {
		out = append(out, stock.Ingredient{
			Name:     k,
			Unit:     HouseStockUnit,
			Quantity: decimal.NewFromInt(HouseStockQuantity),
		})
	}
	return out
}
