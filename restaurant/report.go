/*
report.go - Sales and stock reports

PURPOSE:
  Read-only summaries over the order history and current stock:
    - LowStock:        ingredients with the smallest quantities
    - TopMenus:        units sold per menu, best sellers first
    - RevenueByDay:    order totals grouped by UTC date
    - RevenueByMonth:  order totals grouped by UTC month
    - IngredientUsage: ingredients consumed by past orders, using current
                       menu requirements

  Revenue uses each order's frozen total (VAT included).
*/
package restaurant

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/kitchen-engine/stock"
)

// MenuSales is the number of units of one menu sold.
type MenuSales struct {
	Menu  string
	Units int
}

// Revenue is the order total for one period ("2006-01-02" or "2006-01").
type Revenue struct {
	Period string
	Orders int
	Total  decimal.Decimal
}

// Usage is how much of one ingredient past orders consumed.
type Usage struct {
	Ingredient stock.Key
	Quantity   decimal.Decimal
}

// Report bundles every summary.
type Report struct {
	LowStock        []stock.Ingredient
	TopMenus        []MenuSales
	RevenueByDay    []Revenue
	RevenueByMonth  []Revenue
	TotalRevenue    decimal.Decimal
	IngredientUsage []Usage
}

// DefaultReportLimit caps LowStock and TopMenus.
const DefaultReportLimit = 10

// BuildReport computes every summary. limit <= 0 means DefaultReportLimit.
func BuildReport(ctx context.Context, orders []OrderRecord, ingredients []stock.Ingredient, provider stock.RequirementProvider, limit int) (Report, error) {
	if limit <= 0 {
		limit = DefaultReportLimit
	}
	usage, err := IngredientUsage(ctx, orders, provider)
	if err != nil {
		return Report{}, err
	}
	total := decimal.Zero
	for _, o := range orders {
		total = total.Add(o.Total)
	}
	return Report{
		LowStock:        LowStock(ingredients, limit),
		TopMenus:        TopMenus(orders, limit),
		RevenueByDay:    revenueBy(orders, "2006-01-02"),
		RevenueByMonth:  revenueBy(orders, "2006-01"),
		TotalRevenue:    total,
		IngredientUsage: usage,
	}, nil
}

// LowStock returns up to limit ingredients, lowest quantity first. Ties are
// broken by name.
func LowStock(ingredients []stock.Ingredient, limit int) []stock.Ingredient {
	out := append([]stock.Ingredient(nil), ingredients...)
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Quantity.Cmp(out[j].Quantity); c != 0 {
			return c < 0
		}
		return out[i].Name < out[j].Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// TopMenus returns up to limit menus by units sold, descending. Ties are
// broken by name.
func TopMenus(orders []OrderRecord, limit int) []MenuSales {
	units := make(map[string]int)
	for _, o := range orders {
		for _, l := range o.Lines {
			units[l.Menu] += l.Count
		}
	}
	out := make([]MenuSales, 0, len(units))
	for m, n := range units {
		out = append(out, MenuSales{Menu: m, Units: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Units != out[j].Units {
			return out[i].Units > out[j].Units
		}
		return out[i].Menu < out[j].Menu
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func revenueBy(orders []OrderRecord, layout string) []Revenue {
	byPeriod := make(map[string]*Revenue)
	for _, o := range orders {
		p := o.CreatedAt.UTC().Format(layout)
		r, ok := byPeriod[p]
		if !ok {
			r = &Revenue{Period: p, Total: decimal.Zero}
			byPeriod[p] = r
		}
		r.Orders++
		r.Total = r.Total.Add(o.Total)
	}
	out := make([]Revenue, 0, len(byPeriod))
	for _, r := range byPeriod {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out
}

// IngredientUsage aggregates the lines of every order into one demand.
// Menus no longer in the catalog contribute nothing.
func IngredientUsage(ctx context.Context, orders []OrderRecord, provider stock.RequirementProvider) ([]Usage, error) {
	var all stock.Order
	for _, o := range orders {
		for _, l := range o.Lines {
			all.Add(l.Menu, l.Count)
		}
	}
	demand, err := stock.Aggregate(ctx, all, provider)
	if err != nil {
		return nil, err
	}
	out := make([]Usage, 0, demand.Len())
	for _, k := range demand.Keys() {
		out = append(out, Usage{Ingredient: k, Quantity: demand.Quantity(k)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Quantity.GreaterThan(out[j].Quantity) })
	return out, nil
}

// Report builds the report for this session.
func (s *Session) Report(ctx context.Context, limit int) (Report, error) {
	orders, err := s.store.ListOrders(ctx)
	if err != nil {
		return Report{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return BuildReport(ctx, orders, s.ledger.Snapshot(), s.catalog, limit)
}
