package menu

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/warp/kitchen-engine/stock"
)

// Evaluator is the read-only half of stock.Engine.
type Evaluator interface {
	Evaluate(ctx context.Context, order stock.Order) (stock.Result, error)
}

// Availability says whether one unit of a menu can be prepared now.
type Availability struct {
	Menu      string
	Price     decimal.Decimal
	OK        bool
	Shortages []stock.Shortage
}

// Preparable evaluates a one-unit order for every menu in the catalog, in
// name order. The ledger is not modified.
func Preparable(ctx context.Context, engine Evaluator, catalog *Catalog) ([]Availability, error) {
	menus := catalog.List()
	out := make([]Availability, 0, len(menus))
	for _, m := range menus {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := engine.Evaluate(ctx, stock.NewOrder(stock.OrderLine{Menu: m.Name, Count: 1}))
		if err != nil {
			return nil, err
		}
		out = append(out, Availability{
			Menu:      m.Name,
			Price:     m.Price,
			OK:        res.OK,
			Shortages: res.Shortages,
		})
	}
	return out, nil
}
