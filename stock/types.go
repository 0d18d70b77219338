/*
Package stock provides the ingredient stock engine for the kitchen.

PURPOSE:
  This package owns the in-memory ingredient ledger and the logic that turns
  customer orders into ingredient demand, checks that demand against stock,
  and deducts it. It knows nothing about prices, receipts or persistence;
  those live in the menu and restaurant packages.

KEY CONCEPTS IN THIS FILE (types.go):
  - Key: A normalized ingredient name (trimmed, lower-cased)
  - Ingredient: A ledger entry (name, display unit, on-hand quantity)
  - Requirements: Per-unit ingredient needs of one menu item
  - Demand: Total ingredient needs of a whole order
  - Shortage: An ingredient whose demand exceeds what is on hand

DESIGN PRINCIPLES:
  1. Precision: Quantities are decimal.Decimal, so old - demand == new exactly
  2. Normalization: Names become Keys once, at the ledger/aggregator boundary
  3. All-or-nothing: An order either deducts every ingredient or none
  4. Shortages are data: "not enough tomato" is a result, not an error

USAGE:
  ledger := stock.NewIngredientLedger()
  ledger.Upsert("Bun", "unid", decimal.NewFromInt(10))

  engine := stock.NewEngine(ledger, catalog)
  result, err := engine.Commit(ctx, order)
  if err == nil && !result.OK {
      // show result.Shortages to the cashier
  }

SEE ALSO:
  - ledger.go: IngredientLedger and the Ledger interface
  - requirements.go: Aggregate (order -> demand)
  - availability.go: Check (demand vs ledger)
  - reservation.go: Engine (evaluate and commit)
*/
package stock

import (
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// KEY - Normalized ingredient name
// =============================================================================

// Key is a normalized ingredient name. Two names that differ only by case or
// surrounding whitespace map to the same Key.
type Key string

// NewKey normalizes an ingredient name.
func NewKey(name string) Key {
	return Key(strings.ToLower(strings.TrimSpace(name)))
}

func (k Key) String() string { return string(k) }

// IsZero reports whether the key is empty after normalization.
func (k Key) IsZero() bool { return k == "" }

// =============================================================================
// INGREDIENT - Ledger entry
// =============================================================================

// Ingredient is one entry in the ledger. Unit is for display only and never
// takes part in arithmetic.
type Ingredient struct {
	Name     Key
	Unit     string
	Quantity decimal.Decimal
}

// =============================================================================
// REQUIREMENTS - What one unit of a menu item consumes
// =============================================================================

// Requirements maps ingredient name to the quantity one unit of a menu item
// needs. Names are normalized by the aggregator, not by the provider.
type Requirements map[string]decimal.Decimal

// Clone returns an independent copy.
func (r Requirements) Clone() Requirements {
	out := make(Requirements, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// =============================================================================
// DEMAND - Aggregated ingredient needs of an order
// =============================================================================

// Demand is the total ingredient quantity an order needs. It remembers the
// order in which ingredients were first added so iteration is deterministic.
type Demand struct {
	keys []Key
	qty  map[Key]decimal.Decimal
}

// NewDemand returns an empty demand.
func NewDemand() Demand {
	return Demand{qty: make(map[Key]decimal.Decimal)}
}

// Add accumulates amount for the ingredient.
func (d *Demand) Add(ingredient Key, amount decimal.Decimal) {
	if d.qty == nil {
		d.qty = make(map[Key]decimal.Decimal)
	}
	current, ok := d.qty[ingredient]
	if !ok {
		d.keys = append(d.keys, ingredient)
		current = decimal.Zero
	}
	d.qty[ingredient] = current.Add(amount)
}

// Merge adds every entry of other into d.
func (d *Demand) Merge(other Demand) {
	for _, k := range other.keys {
		d.Add(k, other.qty[k])
	}
}

// Quantity returns the demand for one ingredient, zero if absent.
func (d Demand) Quantity(ingredient Key) decimal.Decimal {
	if q, ok := d.qty[ingredient]; ok {
		return q
	}
	return decimal.Zero
}

// Keys returns the ingredients in first-seen order.
func (d Demand) Keys() []Key {
	out := make([]Key, len(d.keys))
	copy(out, d.keys)
	return out
}

// Len returns the number of distinct ingredients.
func (d Demand) Len() int { return len(d.keys) }

// IsEmpty reports whether no ingredient is demanded.
func (d Demand) IsEmpty() bool { return len(d.keys) == 0 }

// Map returns the demand as a plain map.
func (d Demand) Map() map[Key]decimal.Decimal {
	out := make(map[Key]decimal.Decimal, len(d.keys))
	for _, k := range d.keys {
		out[k] = d.qty[k]
	}
	return out
}

// Equal compares content, ignoring iteration order.
func (d Demand) Equal(other Demand) bool {
	if len(d.keys) != len(other.keys) {
		return false
	}
	for _, k := range d.keys {
		q, ok := other.qty[k]
		if !ok || !q.Equal(d.qty[k]) {
			return false
		}
	}
	return true
}

// =============================================================================
// SHORTAGE - Ingredient the ledger cannot cover
// =============================================================================

// Shortage reports one ingredient where Available < Required. Ingredients
// absent from the ledger are reported with Available = 0.
type Shortage struct {
	Ingredient Key
	Required   decimal.Decimal
	Available  decimal.Decimal
}

// Missing returns how much more stock would be needed.
func (s Shortage) Missing() decimal.Decimal {
	return s.Required.Sub(s.Available)
}
