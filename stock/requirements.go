/*
requirements.go - Order to ingredient demand aggregation

PURPOSE:
  Turns an order ("3 burgers, 1 fries") into the total quantity of each
  ingredient it needs ("bun: 3, beef: 3, potato: 1.5").

ALGORITHM:
  For every (menu, count) line with count > 0:
    reqs := provider.RequirementsFor(menu)
    for ingredient, qty in reqs:
      demand[normalize(ingredient)] += count * qty

  Unknown menus yield empty requirements and contribute nothing.
  Duplicates across menus simply add. Summation is commutative, so
  aggregating two orders and merging equals aggregating their union.

DETERMINISM:
  Lines are visited in order, and each menu's ingredients in sorted key
  order, so identical input always produces the same Demand (same content
  and same iteration order).

SEE ALSO:
  - menu/catalog.go: In-memory RequirementProvider
  - store/sqlite/sqlite.go: Durable RequirementProvider
*/
package stock

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// RequirementProvider looks up the per-unit ingredient needs of a menu item.
// Unknown menus return an empty map and no error.
type RequirementProvider interface {
	RequirementsFor(ctx context.Context, menu string) (Requirements, error)
}

// RequirementFunc adapts a plain function to RequirementProvider.
type RequirementFunc func(ctx context.Context, menu string) (Requirements, error)

func (f RequirementFunc) RequirementsFor(ctx context.Context, menu string) (Requirements, error) {
	return f(ctx, menu)
}

// StaticRequirements is a fixed menu -> requirements table.
type StaticRequirements map[string]Requirements

func (s StaticRequirements) RequirementsFor(_ context.Context, menu string) (Requirements, error) {
	return s[menu], nil
}

// Aggregate computes the total ingredient demand of order.
func Aggregate(ctx context.Context, order Order, provider RequirementProvider) (Demand, error) {
	demand := NewDemand()
	for _, line := range order.lines {
		if line.Count <= 0 {
			continue
		}
		reqs, err := provider.RequirementsFor(ctx, line.Menu)
		if err != nil {
			return Demand{}, fmt.Errorf("requirements for %q: %w", line.Menu, err)
		}
		AddRequirements(&demand, reqs, line.Count)
	}
	return demand, nil
}

// AddRequirements adds count units of reqs to demand.
func AddRequirements(demand *Demand, reqs Requirements, count int) {
	type entry struct {
		raw string
		key Key
	}
	entries := make([]entry, 0, len(reqs))
	for name := range reqs {
		if key := NewKey(name); !key.IsZero() {
			entries = append(entries, entry{raw: name, key: key})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].key != entries[j].key {
			return entries[i].key < entries[j].key
		}
		return entries[i].raw < entries[j].raw
	})

	factor := decimal.NewFromInt(int64(count))
	for _, e := range entries {
		demand.Add(e.key, reqs[e.raw].Mul(factor))
	}
}
