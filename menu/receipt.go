/*
receipt.go - Priced order summaries

PURPOSE:
  A Receipt prices each order line from the catalog, then adds VAT on the
  subtotal. Amounts are whole currency units: VAT is rounded once, on the
  subtotal, never per line.

ROUNDING:
  RoundHalfAwayFromZero (default): 0.5 → 1, 2.5 → 3
  RoundHalfEven:                   0.5 → 0, 2.5 → 2 (banker's rounding)

EXAMPLE:
  Hamburguesa x2 @ 3500 = 7000
  Pepsi       x1 @ 1500 = 1500
  Subtotal 8500, VAT 19% = 1615, Total 10115
*/
package menu

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/kitchen-engine/stock"
)

// DefaultVATRate is the VAT applied when no rate is configured.
var DefaultVATRate = decimal.RequireFromString("0.19")

// Rounding selects how VAT is rounded to whole units.
type Rounding string

const (
	RoundHalfAwayFromZero Rounding = "half-away-from-zero"
	RoundHalfEven         Rounding = "half-even"
)

// ParseRounding accepts the mode names used in configuration.
func ParseRounding(s string) (Rounding, error) {
	switch Rounding(s) {
	case "", RoundHalfAwayFromZero:
		return RoundHalfAwayFromZero, nil
	case RoundHalfEven:
		return RoundHalfEven, nil
	default:
		return "", fmt.Errorf("unknown rounding mode %q", s)
	}
}

func (r Rounding) apply(d decimal.Decimal) decimal.Decimal {
	if r == RoundHalfEven {
		return d.RoundBank(0)
	}
	return d.Round(0)
}

// ReceiptOptions controls pricing. The zero value uses DefaultVATRate,
// half-away-from-zero rounding, a random id and the current time.
type ReceiptOptions struct {
	VATRate  decimal.Decimal
	Rounding Rounding
	ID       string
	Now      func() time.Time
}

// Line is one priced order line.
type Line struct {
	Menu      string
	Count     int
	UnitPrice decimal.Decimal
	Amount    decimal.Decimal
}

// Receipt is the priced summary of an order.
type Receipt struct {
	ID       string
	IssuedAt time.Time
	Lines    []Line
	Subtotal decimal.Decimal
	VAT      decimal.Decimal
	Total    decimal.Decimal
}

// NewReceipt prices order against prices. Menus the catalog does not know
// are priced at zero.
func NewReceipt(order stock.Order, prices *Catalog, opts ReceiptOptions) Receipt {
	rate := opts.VATRate
	if rate.IsZero() {
		rate = DefaultVATRate
	}
	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	r := Receipt{ID: id, IssuedAt: now().UTC(), Subtotal: decimal.Zero}
	for _, l := range order.Lines() {
		unit := prices.PriceOf(l.Menu)
		amount := unit.Mul(decimal.NewFromInt(int64(l.Count)))
		r.Lines = append(r.Lines, Line{Menu: l.Menu, Count: l.Count, UnitPrice: unit, Amount: amount})
		r.Subtotal = r.Subtotal.Add(amount)
	}
	r.VAT = opts.Rounding.apply(r.Subtotal.Mul(rate))
	r.Total = r.Subtotal.Add(r.VAT)
	return r
}
